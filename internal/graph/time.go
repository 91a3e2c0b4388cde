package graph

import (
	"bytes"
	"encoding/json"
	"time"
)

// Graph timestamps use a numeric zone without a colon, e.g.
// 2024-01-31T09:15:00+0000.
const timeLayout = "2006-01-02T15:04:05-0700"

// Time decodes Graph API timestamps. Unparseable values decode to the zero
// time rather than failing the whole response.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}

	for _, layout := range []string{timeLayout, time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return nil
}
