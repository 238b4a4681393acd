package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/config"
	"github.com/integralabs/integra-harvester/internal/metrics"
	"github.com/integralabs/integra-harvester/internal/progress"
)

// ListAdvisors paginates an institution's advisor listing endpoint until the
// reported total is reached or the server stops producing usable batches.
//
// Pagination is strictly sequential so the offset cursor stays consistent. A
// request-level fault truncates pagination and returns whatever was already
// accumulated; it is a local failure, never an error for the caller.
func (c *Client) ListAdvisors(
	ctx context.Context,
	code string,
	inst config.Institution,
	onProgress ProgressFunc,
) []AdvisorStub {
	base := baseURL(inst)
	listURL := base + "/api/portfolio/pessoa/data"

	var stubs []AdvisorStub
	start := 0
	total := progress.TotalUnknown

	if onProgress != nil {
		onProgress(0, total)
	}

	for {
		url := fmt.Sprintf("%s?start=%d&length=%d", listURL, start, c.pageSize)
		var raw []json.RawMessage
		if err := c.getJSON(ctx, url, &raw); err != nil {
			c.logger.Warn("listing page fetch failed; truncating pagination",
				zap.String("institution", code),
				zap.Int("start", start),
				zap.Error(err),
			)
			metrics.ObserveFetchFailure(code, string(progress.PhaseListing))
			break
		}
		metrics.ObserveListingPage(code)

		meta, batch, ok := parseListingPage(raw)
		if !ok || len(batch) == 0 {
			break
		}
		if meta.Total > 0 {
			total = meta.Total
		}

		for _, item := range batch {
			// A stub without a slug has no detail page to fetch.
			if item.Slug == "" {
				continue
			}
			stubs = append(stubs, AdvisorStub{
				Slug:       item.Slug,
				Name:       item.Name,
				Campus:     item.CampusName,
				Role:       item.Role,
				ProfileURL: fmt.Sprintf("%s/portfolio/pessoas/%s", base, item.Slug),
			})
		}

		c.logger.Debug("listing page collected",
			zap.String("institution", code),
			zap.Int("collected", len(stubs)),
			zap.Int("total", total),
		)
		if onProgress != nil {
			onProgress(len(stubs), total)
		}

		if total != progress.TotalUnknown && len(stubs) >= total {
			break
		}

		advance := meta.Length
		if advance <= 0 {
			advance = len(batch)
		}
		start += advance

		if !c.sleepBetweenPages(ctx) {
			break
		}
	}

	return stubs
}

// parseListingPage decodes the portal's two-element `[meta, batch]` response.
// Any shape surprise is a terminal condition rather than an error.
func parseListingPage(raw []json.RawMessage) (listingMeta, []listingItem, bool) {
	if len(raw) < 2 {
		return listingMeta{}, nil, false
	}
	var meta listingMeta
	if err := json.Unmarshal(raw[0], &meta); err != nil {
		return listingMeta{}, nil, false
	}
	var batch []listingItem
	if err := json.Unmarshal(raw[1], &batch); err != nil {
		return listingMeta{}, nil, false
	}
	return meta, batch, true
}

func (c *Client) sleepBetweenPages(ctx context.Context) bool {
	if c.pageDelay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.pageDelay):
		return true
	}
}
