package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-logistics/internal/jobs"
	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
)

type brokenAdapter struct{ kv.Adapter }

func (brokenAdapter) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

// seedLogistics writes one completed trip with a partly entered oil receipt.
func seedLogistics(t *testing.T, adapter kv.Adapter) logistics.OilReceipt {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	store := logistics.NewStore(ctx, adapter, logistics.Options{
		Clock:    func() time.Time { return now },
		Location: time.UTC,
	})
	require.NoError(t, store.ImportReferenceData(ctx, logistics.ReferenceData{
		Branches: []logistics.Branch{{ID: 1, Name: "Bangkok"}, {ID: 2, Name: "Chiang Mai"}},
		Trucks:   []logistics.TruckProfile{{ID: "TRK-1", PlateNo: "70-1234", Active: true}},
	}))
	o, err := store.CreateOrder(ctx, logistics.PurchaseOrder{
		Supplier:  "PTT",
		BranchIDs: []int64{1},
		Items:     []logistics.LineItem{{Product: "Diesel B7", Quantity: 5000, UnitPrice: 30}},
	})
	require.NoError(t, err)
	_, err = store.SendOrder(ctx, o.ID, "buyer")
	require.NoError(t, err)
	_, err = store.ApproveOrder(ctx, o.ID, "manager")
	require.NoError(t, err)
	tr, err := store.CreateTransport(ctx, logistics.TransportDelivery{OrderID: o.ID, TruckID: "TRK-1", DriverName: "Somchai", Quantity: 5000})
	require.NoError(t, err)
	_, err = store.CreateDriverJob(ctx, logistics.DriverJob{TransportNo: tr.TransportNo})
	require.NoError(t, err)
	_, err = store.StartTransport(ctx, tr.ID, 100, "dispatcher")
	require.NoError(t, err)
	now = now.Add(time.Hour)
	_, err = store.CompleteTransport(ctx, tr.ID, logistics.CompleteTransportInput{EndOdometer: 180})
	require.NoError(t, err)
	rc, err := store.CreateOilReceipt(ctx, logistics.OilReceipt{TransportID: tr.ID, QuantityReceived: 5000})
	require.NoError(t, err)
	_, err = store.CreateTankEntry(ctx, logistics.TankEntryRecord{OilReceiptID: rc.ID, TankID: "T1", Volume: 2000})
	require.NoError(t, err)
	return rc
}

func TestReconcileSweepReportsUnsettledReceipts(t *testing.T) {
	adapter := kv.NewMemory()
	rc := seedLogistics(t, adapter)
	job := NewReconcileJob(adapter, time.UTC, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	summary, err := job.Sweep(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.States[string(logistics.ReconcilePartial)])
	require.Len(t, summary.Unsettled, 1)
	assert.Equal(t, rc.ReceiptNo, summary.Unsettled[0].ReceiptNo)
	assert.InDelta(t, 3000, summary.Unsettled[0].Outstanding, 1e-9)
	assert.Empty(t, summary.Divergences)

	other := int64(2)
	summary, err = job.Sweep(context.Background(), &other)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}

func TestReconcileSweepScopesDivergencesToBranch(t *testing.T) {
	ctx := context.Background()
	adapter := kv.NewMemory()
	seedLogistics(t, adapter)
	raw, err := adapter.Get(ctx, logistics.KeyDriverJobs)
	require.NoError(t, err)
	var driverJobs []logistics.DriverJob
	require.NoError(t, json.Unmarshal(raw, &driverJobs))
	require.Len(t, driverJobs, 1)
	driverJobs[0].Status = logistics.DriverJobAssigned
	raw, err = json.Marshal(driverJobs)
	require.NoError(t, err)
	require.NoError(t, adapter.Put(ctx, logistics.KeyDriverJobs, raw))

	job := NewReconcileJob(adapter, time.UTC, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	bangkok, chiangMai := int64(1), int64(2)
	summary, err := job.Sweep(ctx, &bangkok)
	require.NoError(t, err)
	require.Len(t, summary.Divergences, 1)
	assert.Equal(t, driverJobs[0].ID, summary.Divergences[0].JobID)

	summary, err = job.Sweep(ctx, &chiangMai)
	require.NoError(t, err)
	assert.Empty(t, summary.Divergences)
}

func TestReconcileHandleRunsTask(t *testing.T) {
	adapter := kv.NewMemory()
	seedLogistics(t, adapter)
	job := NewReconcileJob(adapter, time.UTC, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewReconcileTask(ReconcilePayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	bad := asynq.NewTask(TaskLogisticsReconcile, []byte("{"))
	assert.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)
}

func TestReconcileSweepFailsWhenStorageUnreachable(t *testing.T) {
	job := NewReconcileJob(brokenAdapter{kv.NewMemory()}, time.UTC, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewReconcileTask(ReconcilePayload{})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

type stubEnqueuer struct {
	payload ReconcilePayload
	err     error
}

func (s *stubEnqueuer) EnqueueReconcile(_ context.Context, payload ReconcilePayload) (*asynq.TaskInfo, error) {
	s.payload = payload
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func TestHandlerEnqueuesReconcile(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	r := chi.NewRouter()
	NewHandler(nil, enqueuer, nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reconcile?branch=3", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.NotNil(t, enqueuer.payload.BranchID)
	assert.Equal(t, int64(3), *enqueuer.payload.BranchID)
	assert.JSONEq(t, `{"task":"task-1","queue":"default"}`, rr.Body.String())

	enqueuer.err = asynq.ErrDuplicateTask
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reconcile", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reconcile?branch=x", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rr.Body.String())
}
