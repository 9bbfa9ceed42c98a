package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-logistics/internal/jobs"
	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

var reconciliationStates = []string{
	string(logistics.ReconcilePending),
	string(logistics.ReconcilePartial),
	string(logistics.ReconcileBalanced),
	string(logistics.ReconcileOver),
}

// ReconcileJob reloads the logistics collections from storage and reports
// oil receipts that are not yet settled and driver jobs that drifted from
// their transport. It never writes.
type ReconcileJob struct {
	Adapter  kv.Adapter
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewReconcileJob initialises the reconciliation handler.
func NewReconcileJob(adapter kv.Adapter, location *time.Location, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{Adapter: adapter, Location: location, Logger: logger, Metrics: metrics}
}

// Handle executes one sweep.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Adapter == nil {
		return errors.New("logistics reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskLogisticsReconcile)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	if payload.BranchID != nil {
		logger = logger.With(slog.Int64("branch_id", *payload.BranchID))
	}
	start := time.Now()
	summary, err := j.Sweep(ctx, payload.BranchID)
	if err != nil {
		logger.Error("reconcile sweep failed", slog.Any("error", err))
		return err
	}
	for _, rec := range summary.Unsettled {
		logger.Warn("oil receipt not reconciled",
			slog.String("receipt_no", rec.ReceiptNo),
			slog.Int64("branch_id", rec.BranchID),
			slog.String("state", string(rec.State)),
			slog.Float64("received", rec.Received),
			slog.Float64("entered", rec.Entered),
			slog.Float64("outstanding", rec.Outstanding),
		)
	}
	for _, d := range summary.Divergences {
		logger.Warn("driver job diverges from transport",
			slog.String("job_id", d.JobID),
			slog.String("transport_no", d.TransportNo),
			slog.String("transport_status", string(d.TransportStatus)),
			slog.String("job_status", string(d.JobStatus)),
			slog.String("expected", string(d.Expected)),
		)
	}

	j.metrics().SetReconciliationStates(reconciliationStates, summary.States)
	j.metrics().SetDivergences(len(summary.Divergences))
	logger.Info("completed reconcile sweep",
		slog.Int("oil_receipts", summary.Total),
		slog.Int("unsettled", len(summary.Unsettled)),
		slog.Int("divergences", len(summary.Divergences)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// SweepSummary is the outcome of one reconciliation sweep.
type SweepSummary struct {
	Total       int
	States      map[string]int
	Unsettled   []logistics.Reconciliation
	Divergences []logistics.DriverJobDivergence
}

// Sweep loads a read-only store snapshot and summarises it. The store treats
// unreadable keys as empty, so storage is read once first to avoid reporting an
// outage as a clean sweep.
func (j *ReconcileJob) Sweep(ctx context.Context, branchID *int64) (SweepSummary, error) {
	if _, err := j.Adapter.Get(ctx, logistics.KeyOilReceipts); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return SweepSummary{}, fmt.Errorf("logistics reconcile: read storage: %w", err)
	}
	store := logistics.NewStore(ctx, j.Adapter, logistics.Options{
		Location: j.Location,
		Logger:   j.logger(),
	})
	report := store.ReconciliationReport(branchID)
	logistics.SortReconciliations(report)

	summary := SweepSummary{Total: len(report), States: make(map[string]int, len(reconciliationStates))}
	for _, rec := range report {
		summary.States[string(rec.State)]++
		if !rec.State.Settled() {
			summary.Unsettled = append(summary.Unsettled, rec)
		}
	}
	summary.Divergences = store.DriverJobDivergences(branchID)
	return summary, nil
}

func (j *ReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLogisticsReconcile))
	}
	return slog.Default().With(slog.String("job", TaskLogisticsReconcile))
}

func (j *ReconcileJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
