package remote

import (
	"context"
	"net/url"
	"time"

	"github.com/tokenmeter/tokenmeter/domain/budget"
	"github.com/tokenmeter/tokenmeter/domain/pricing"
	"github.com/tokenmeter/tokenmeter/ports"
)

// UsageSource implements ports.RemoteUsageSource against the Admin API
// usage report endpoint.
type UsageSource struct {
	client *Client
	clock  ports.Clock
}

// NewUsageSource creates a remote usage source.
func NewUsageSource(client *Client, clock ports.Clock) *UsageSource {
	return &UsageSource{client: client, clock: clock}
}

// Wire format of the usage report response.
type usageReportResponse struct {
	Data    []usageReportBucket `json:"data"`
	HasMore bool                `json:"has_more"`
}

type usageReportBucket struct {
	StartingAt string              `json:"starting_at"`
	EndingAt   string              `json:"ending_at"`
	Results    []usageReportResult `json:"results"`
}

type usageReportResult struct {
	Model                string `json:"model"`
	UncachedInputTokens  int64  `json:"uncached_input_tokens"`
	OutputTokens         int64  `json:"output_tokens"`
	CacheReadInputTokens int64  `json:"cache_read_input_tokens"`
	CacheCreation        struct {
		Ephemeral5mInputTokens int64 `json:"ephemeral_5m_input_tokens"`
		Ephemeral1hInputTokens int64 `json:"ephemeral_1h_input_tokens"`
	} `json:"cache_creation"`
}

// FetchToday returns today's per-model usage from UTC midnight through
// now, with costs recomputed from the local pricing table so local and
// remote figures share one price basis.
func (s *UsageSource) FetchToday(ctx context.Context) (budget.RemoteSummary, error) {
	now := s.clock.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	params := url.Values{}
	params.Set("starting_at", startOfDay.Format(time.RFC3339))
	params.Set("bucket_width", "1d")
	params.Set("group_by[]", "model")

	var resp usageReportResponse
	if err := s.client.get(ctx, "/v1/organizations/usage_report/messages?"+params.Encode(), &resp); err != nil {
		return budget.RemoteSummary{}, err
	}

	var summary budget.RemoteSummary
	for _, bucket := range resp.Data {
		for _, r := range bucket.Results {
			cacheWrite := r.CacheCreation.Ephemeral5mInputTokens + r.CacheCreation.Ephemeral1hInputTokens
			cost := pricing.Cost(r.Model, r.UncachedInputTokens, r.OutputTokens, r.CacheReadInputTokens, cacheWrite)

			summary.ByModel = append(summary.ByModel, budget.RemoteModelUsage{
				Model:            r.Model,
				InputTokens:      r.UncachedInputTokens,
				OutputTokens:     r.OutputTokens,
				CacheReadTokens:  r.CacheReadInputTokens,
				CacheWriteTokens: cacheWrite,
				CostUSD:          cost,
			})
			summary.TotalCostUSD += cost
			summary.TotalInputTokens += r.UncachedInputTokens
			summary.TotalOutputTokens += r.OutputTokens
		}
	}
	return summary, nil
}

// Ensure interface compliance.
var _ ports.RemoteUsageSource = (*UsageSource)(nil)
