// Package crawl sequences the per-institution harvest pipeline: listing
// pagination, bounded detail fetching, and idempotent persistence.
package crawl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/config"
	"github.com/integralabs/integra-harvester/internal/metrics"
	"github.com/integralabs/integra-harvester/internal/portal"
	"github.com/integralabs/integra-harvester/internal/progress"
	"github.com/integralabs/integra-harvester/internal/rawstore"
)

// SelectorAll crawls every institution in the registry.
const SelectorAll = "ALL"

// State tracks where an institution is in its pipeline.
type State string

// Per-institution pipeline states. A Done institution is never revisited
// within the same run.
const (
	StateIdle     State = "idle"
	StateListing  State = "listing"
	StateFetching State = "fetching"
	StateDone     State = "done"
)

// Report summarizes one institution's pipeline outcome.
type Report struct {
	Code           string
	State          State
	AdvisorsFound  int
	AdvisorsSaved  int64
	ThesesFound    int
	ThesesSaved    int64
	FailedFetches  int
	Elapsed        time.Duration
	Err            error
}

// Runner drives crawl runs against the configured registry.
type Runner struct {
	cfg      config.Config
	client   *portal.Client
	store    *rawstore.Store
	observer progress.Observer
	logger   *zap.Logger
}

// NewRunner constructs a Runner. The observer may be nil.
func NewRunner(
	cfg config.Config,
	client *portal.Client,
	store *rawstore.Store,
	observer progress.Observer,
	logger *zap.Logger,
) *Runner {
	if observer == nil {
		observer = progress.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, client: client, store: store, observer: observer, logger: logger}
}

// Run executes one crawl for the selector (SelectorAll or a registry code).
// Institutions are processed strictly sequentially; a failure inside one
// institution's pipeline is recorded on its Report and the run proceeds.
func (r *Runner) Run(ctx context.Context, selector string) ([]Report, error) {
	codes, err := r.resolveSelector(selector)
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	r.logger.Info("crawl run starting",
		zap.String("run_id", runID.String()),
		zap.Strings("institutions", codes),
	)

	reports := make([]Report, 0, len(codes))
	for _, code := range codes {
		report := r.runInstitution(ctx, runID, code)
		reports = append(reports, report)
		if ctx.Err() != nil {
			break
		}
	}

	r.logSummary(runID, reports)
	return reports, nil
}

func (r *Runner) resolveSelector(selector string) ([]string, error) {
	if selector == SelectorAll {
		return r.cfg.Codes(), nil
	}
	if _, ok := r.cfg.Lookup(selector); !ok {
		return nil, fmt.Errorf("unknown institution %q", selector)
	}
	return []string{selector}, nil
}

func (r *Runner) runInstitution(ctx context.Context, runID uuid.UUID, code string) Report {
	inst, _ := r.cfg.Lookup(code)
	startedAt := time.Now()
	report := Report{Code: code, State: StateIdle}
	log := r.logger.With(zap.String("run_id", runID.String()), zap.String("institution", code))

	log.Info("institution crawl starting")

	report.State = StateListing
	stubs := r.client.ListAdvisors(ctx, code, inst, r.progressFunc(runID, code, progress.PhaseListing))
	report.AdvisorsFound = len(stubs)

	saved, err := r.store.SaveAdvisors(ctx, code, stubs)
	if err != nil {
		report.Err = fmt.Errorf("save advisors: %w", err)
		log.Error("institution crawl failed", zap.Error(report.Err))
		report.Elapsed = time.Since(startedAt)
		return report
	}
	report.AdvisorsSaved = saved
	metrics.ObserveAdvisorsSaved(code, saved)

	report.State = StateFetching
	results := r.client.FetchDetails(ctx, code, inst, stubs, r.progressFunc(runID, code, progress.PhaseDetails))
	for _, res := range results {
		if res.Err != nil {
			report.FailedFetches++
			continue
		}
		report.ThesesFound += len(res.Theses)
		saved, err := r.store.SaveTheses(ctx, res.Theses)
		if err != nil {
			report.Err = fmt.Errorf("save theses for %s: %w", res.Slug, err)
			log.Error("institution crawl failed", zap.Error(report.Err))
			report.Elapsed = time.Since(startedAt)
			return report
		}
		report.ThesesSaved += saved
	}
	metrics.ObserveThesesSaved(code, report.ThesesSaved)

	report.State = StateDone
	report.Elapsed = time.Since(startedAt)
	log.Info("institution crawl done",
		zap.Int("advisors_found", report.AdvisorsFound),
		zap.Int64("advisors_saved", report.AdvisorsSaved),
		zap.Int("theses_found", report.ThesesFound),
		zap.Int64("theses_saved", report.ThesesSaved),
		zap.Int("failed_fetches", report.FailedFetches),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report
}

func (r *Runner) progressFunc(runID uuid.UUID, code string, phase progress.Phase) portal.ProgressFunc {
	return func(current, total int) {
		r.observer.Publish(progress.Event{
			RunID:       runID,
			Institution: code,
			Phase:       phase,
			Current:     current,
			Total:       total,
			TS:          time.Now().UTC(),
		})
	}
}

func (r *Runner) logSummary(runID uuid.UUID, reports []Report) {
	var advisors, theses int64
	var failed int
	for _, rep := range reports {
		advisors += rep.AdvisorsSaved
		theses += rep.ThesesSaved
		if rep.Err != nil {
			failed++
		}
	}
	r.logger.Info("crawl run finished",
		zap.String("run_id", runID.String()),
		zap.Int("institutions", len(reports)),
		zap.Int("institutions_failed", failed),
		zap.Int64("advisors_saved", advisors),
		zap.Int64("theses_saved", theses),
	)
}
