package apisession

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/prperemyshlev/page-manager/internal/domain"
)

// Aggregation is how the samples of a metric collapse into one value.
type Aggregation int

const (
	// AggregateSum adds every sample in the window.
	AggregateSum Aggregation = iota
	// AggregateLatest keeps the most recent sample.
	AggregateLatest
)

// InsightMetrics is the fixed metric set requested for a page.
var InsightMetrics = []string{
	"page_impressions",
	"page_impressions_unique",
	"page_engaged_users",
	"page_post_engagements",
	"page_fans",
	"page_fan_adds",
	"page_fan_removes",
}

// metricAggregation lists the metrics that are not summed. page_fans is a
// running total.
var metricAggregation = map[string]Aggregation{
	"page_fans": AggregateLatest,
}

// AggregationFor returns the aggregation applied to a metric.
func AggregationFor(metric string) Aggregation {
	if a, ok := metricAggregation[metric]; ok {
		return a
	}
	return AggregateSum
}

// Aggregate collapses samples according to the metric's aggregation. An
// empty series yields 0.
func Aggregate(metric string, samples []int) int {
	if len(samples) == 0 {
		return 0
	}

	if AggregationFor(metric) == AggregateLatest {
		return samples[len(samples)-1]
	}

	total := 0
	for _, v := range samples {
		total += v
	}
	return total
}

// Periods accepted by the insights endpoint.
var InsightPeriods = []string{"day", "week", "days_28"}

type insightValue struct {
	Value json.RawMessage `json:"value"`
}

type insightSeries struct {
	Name   string         `json:"name"`
	Period string         `json:"period"`
	Values []insightValue `json:"values"`
}

// GetPageInsights fetches the fixed metric set for the last days days and
// aggregates each metric. Every metric of the set is present in the result.
func (m *Manager) GetPageInsights(ctx context.Context, client GraphAPI, pageID, period string, days int) (domain.Insights, error) {
	params := url.Values{
		"metric":      {strings.Join(InsightMetrics, ",")},
		"period":      {period},
		"date_preset": {fmt.Sprintf("last_%dd", days)},
	}

	page, err := client.GetConnections(ctx, pageID, "insights", params)
	m.record(ctx, "get_page_insights", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get page insights: %w", err)
	}

	var series []insightSeries
	if len(page.Data) > 0 {
		if err := json.Unmarshal(page.Data, &series); err != nil {
			return nil, fmt.Errorf("failed to decode page insights: %w", err)
		}
	}

	insights := make(domain.Insights, len(InsightMetrics))
	for _, name := range InsightMetrics {
		insights[name] = 0
	}

	for _, s := range series {
		samples := make([]int, 0, len(s.Values))
		for _, v := range s.Values {
			samples = append(samples, sampleValue(v.Value))
		}
		insights[s.Name] = Aggregate(s.Name, samples)
	}

	return insights, nil
}

// sampleValue reads a numeric sample. Breakdown objects sum their numeric
// members; anything else counts as 0.
func sampleValue(raw json.RawMessage) int {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(math.Round(n))
	}

	var breakdown map[string]float64
	if err := json.Unmarshal(raw, &breakdown); err == nil {
		total := 0.0
		for _, v := range breakdown {
			total += v
		}
		return int(math.Round(total))
	}

	return 0
}
