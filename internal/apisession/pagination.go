package apisession

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// collectAll reads GET /{id}/{connection} and follows paging.next until a
// page without one. limit only sizes the first request; there is no cap on
// the total number of items.
func collectAll[T any](ctx context.Context, client GraphAPI, id, connection, fields string, limit int) ([]T, error) {
	params := url.Values{"fields": {fields}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	page, err := client.GetConnections(ctx, id, connection, params)
	if err != nil {
		return nil, err
	}

	var items []T
	for {
		var batch []T
		if len(page.Data) > 0 {
			if err := json.Unmarshal(page.Data, &batch); err != nil {
				return nil, fmt.Errorf("failed to decode %s page: %w", connection, err)
			}
		}
		items = append(items, batch...)

		next := page.NextURL()
		if next == "" {
			return items, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err = client.GetNext(ctx, next)
		if err != nil {
			return nil, err
		}
	}
}
