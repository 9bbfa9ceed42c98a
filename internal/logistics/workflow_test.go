package logistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcurementToTankWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedReference(t)
	s := f.store

	q, err := s.CreateQuotation(ctx, Quotation{Supplier: "PTT", Items: diesel(10000), CreatedBy: "buyer"})
	require.NoError(t, err)
	assert.Equal(t, "QT-20261016-0001", q.QuotationNo)
	assert.Equal(t, QuotationDraft, q.Status)

	q, err = s.ConfirmQuotation(ctx, q.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, QuotationConfirmed, q.Status)
	require.NotNil(t, q.ConfirmedAt)

	o, err := s.CreateOrder(ctx, PurchaseOrder{QuotationID: q.ID, LegalEntityID: "LE-1", BranchIDs: []int64{1, 2}, CreatedBy: "buyer"})
	require.NoError(t, err)
	assert.Equal(t, "PO-20261016-0001", o.OrderNo)
	assert.Equal(t, "PTT", o.Supplier)
	assert.InDelta(t, 300000, o.TotalAmount, 0.001)

	o, err = s.SendOrder(ctx, o.ID, "buyer")
	require.NoError(t, err)
	require.NotNil(t, o.SentAt)
	o, err = s.ApproveOrder(ctx, o.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, OrderConfirmed, o.Status)
	assert.Equal(t, "manager", o.ApprovedBy)

	tr := f.plannedTransport(t, o.ID)
	assert.Equal(t, "TR-20261016-0001", tr.TransportNo)
	assert.Equal(t, []int64{1, 2}, tr.BranchIDs)

	job, err := s.CreateDriverJob(ctx, DriverJob{TransportNo: tr.TransportNo})
	require.NoError(t, err)
	assert.Equal(t, "DJ-20261016-0001", job.ID)
	assert.Equal(t, DriverJobAssigned, job.Status)
	assert.Equal(t, "Somchai", job.DriverName)

	tr, err = s.StartTransport(ctx, tr.ID, 1000, "dispatcher")
	require.NoError(t, err)
	assert.Equal(t, TransportInProgress, tr.Status)
	o, err = s.GetOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderReceiving, o.Status)
	job, err = s.GetDriverJobByTransportNo(tr.TransportNo)
	require.NoError(t, err)
	assert.Equal(t, DriverJobEnRoute, job.Status)

	job, err = s.AdvanceDriverJob(ctx, job.ID, DriverJobDelivering, "Somchai")
	require.NoError(t, err)
	assert.Equal(t, DriverJobDelivering, job.Status)

	f.clock.Advance(2*time.Hour + 30*time.Minute + 40*time.Second)
	tr, err = s.CompleteTransport(ctx, tr.ID, CompleteTransportInput{EndOdometer: 1320, FueledLiters: float(80), Actor: "dispatcher"})
	require.NoError(t, err)
	assert.Equal(t, TransportCompleted, tr.Status)
	metrics, ok := tr.Metrics()
	require.True(t, ok)
	assert.InDelta(t, 320, metrics.Distance, 0.001)
	assert.EqualValues(t, 150, metrics.DurationMinutes)
	efficiency, ok := tr.FuelEfficiency()
	require.True(t, ok)
	assert.InDelta(t, 4.0, efficiency, 0.001)

	job, err = s.GetDriverJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, DriverJobDone, job.Status)

	truck, err := s.GetTruck("TRK-1")
	require.NoError(t, err)
	assert.Equal(t, 1, truck.TotalTrips)
	assert.InDelta(t, 10000, truck.TotalOilDelivered, 0.001)
	require.NotNil(t, truck.LastOdometer)
	assert.InDelta(t, 1320, *truck.LastOdometer, 0.001)
	require.NotNil(t, truck.LastTripDate)
	trailer, err := s.GetTrailer("TRL-1")
	require.NoError(t, err)
	assert.Equal(t, 1, trailer.TotalTrips)

	bkk, err := s.CreateOilReceipt(ctx, OilReceipt{TransportID: tr.ID, BranchID: 1, QuantityOrdered: 6000, QuantityReceived: 5990})
	require.NoError(t, err)
	assert.Equal(t, "OR-20261016-0001", bkk.ReceiptNo)
	assert.Equal(t, o.ID, bkk.OrderID)
	assert.InDelta(t, -10, bkk.Variance, 0.001)
	cnx, err := s.CreateOilReceipt(ctx, OilReceipt{TransportID: tr.ID, BranchID: 2, QuantityOrdered: 4000, QuantityReceived: 4000})
	require.NoError(t, err)

	_, err = s.CreateTankEntry(ctx, TankEntryRecord{OilReceiptID: bkk.ID, TankID: "T1", Volume: 3000})
	require.NoError(t, err)
	_, err = s.CreateTankEntry(ctx, TankEntryRecord{OilReceiptID: bkk.ID, TankID: "T2", Volume: 2990})
	require.NoError(t, err)
	entry, err := s.CreateTankEntry(ctx, TankEntryRecord{OilReceiptID: cnx.ID, TankID: "T1", Volume: 4000})
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.BranchID)
	assert.Equal(t, "TE-20261016-0003", entry.EntryNo)

	rec, err := s.Reconcile(bkk.ID)
	require.NoError(t, err)
	assert.Equal(t, ReconcileBalanced, rec.State)
	assert.Equal(t, 2, rec.Entries)

	o, err = s.CompleteOrder(ctx, o.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, OrderCompleted, o.Status)
	require.NotNil(t, o.CompletedAt)

	assert.Contains(t, f.sink.types(), EventOrderReceiving)
	assert.Contains(t, f.sink.types(), EventDriverJobAdvanced)
	assert.Contains(t, f.sink.types(), EventOrderCompleted)
	assert.Equal(t, 1, f.metrics.transitions[EntityOrder+":receiving->completed"])
	assert.Equal(t, 2, f.metrics.allocations["oil-receipt"])
	assert.Empty(t, s.DriverJobDivergences(nil))
}

func TestCompleteOrderWaitsForTankEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedReference(t)
	o := f.confirmedOrder(t)
	tr := f.completedTransport(t, o.ID)

	r, err := f.store.CreateOilReceipt(ctx, OilReceipt{TransportID: tr.ID, BranchID: 1, QuantityReceived: 10000})
	require.NoError(t, err)
	_, err = f.store.CreateTankEntry(ctx, TankEntryRecord{OilReceiptID: r.ID, TankID: "T1", Volume: 4000})
	require.NoError(t, err)

	_, err = f.store.CompleteOrder(ctx, o.ID, "manager")
	lerr := requireKind(t, err, ErrInvalidTransition)
	assert.Contains(t, lerr.Detail, "partial")

	_, err = f.store.CreateTankEntry(ctx, TankEntryRecord{OilReceiptID: r.ID, TankID: "T2", Volume: 6000})
	require.NoError(t, err)
	_, err = f.store.CompleteOrder(ctx, o.ID, "manager")
	require.NoError(t, err)
}

func TestOrderTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("named transition out of order", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		o, err := f.store.CreateOrder(ctx, PurchaseOrder{Supplier: "PTT", BranchIDs: []int64{1}, Items: diesel(100)})
		require.NoError(t, err)

		_, err = f.store.ApproveOrder(ctx, o.ID, "manager")
		lerr := requireKind(t, err, ErrInvalidTransition)
		assert.Equal(t, EntityOrder, lerr.Entity)
		assert.Equal(t, o.ID, lerr.Key)
		assert.Equal(t, "draft", lerr.From)
		assert.Equal(t, "confirmed", lerr.To)

		got, err := f.store.GetOrder(o.ID)
		require.NoError(t, err)
		assert.Equal(t, OrderDraft, got.Status)
	})

	t.Run("repeating a transition is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		o, err := f.store.CreateOrder(ctx, PurchaseOrder{Supplier: "PTT", BranchIDs: []int64{1}, Items: diesel(100)})
		require.NoError(t, err)
		_, err = f.store.SendOrder(ctx, o.ID, "buyer")
		require.NoError(t, err)
		_, err = f.store.SendOrder(ctx, o.ID, "buyer")
		requireKind(t, err, ErrInvalidTransition)
	})

	t.Run("patch status skipping a step", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		o, err := f.store.CreateOrder(ctx, PurchaseOrder{Supplier: "PTT", BranchIDs: []int64{1}, Items: diesel(100)})
		require.NoError(t, err)
		status := OrderReceiving
		_, err = f.store.UpdateOrder(ctx, o.ID, OrderPatch{Status: &status})
		requireKind(t, err, ErrInvalidTransition)
	})

	t.Run("edits are limited to drafts", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		o := f.confirmedOrder(t)
		supplier := "Shell"
		_, err := f.store.UpdateOrder(ctx, o.ID, OrderPatch{Supplier: &supplier})
		requireKind(t, err, ErrValidation)
	})

	t.Run("draft order accepts edits", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		o, err := f.store.CreateOrder(ctx, PurchaseOrder{Supplier: "PTT", BranchIDs: []int64{1}, Items: diesel(100)})
		require.NoError(t, err)
		items := diesel(200)
		branches := []int64{1, 3}
		o, err = f.store.UpdateOrder(ctx, o.ID, OrderPatch{Items: &items, BranchIDs: &branches})
		require.NoError(t, err)
		assert.InDelta(t, 6000, o.TotalAmount, 0.001)
		assert.Equal(t, []int64{1, 3}, o.BranchIDs)
	})

	t.Run("cancel blocked by trip in progress", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		o := f.confirmedOrder(t)
		tr := f.plannedTransport(t, o.ID)
		_, err := f.store.StartTransport(ctx, tr.ID, 1200, "dispatcher")
		require.NoError(t, err)

		_, err = f.store.CancelOrder(ctx, o.ID, "manager", "supplier failed")
		requireKind(t, err, ErrValidation)
		got, err := f.store.GetOrder(o.ID)
		require.NoError(t, err)
		assert.Equal(t, OrderReceiving, got.Status)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		o := f.confirmedOrder(t)
		tr := f.plannedTransport(t, o.ID)

		o, err := f.store.CancelOrder(ctx, o.ID, "manager", "price changed")
		require.NoError(t, err)
		assert.Equal(t, OrderCancelled, o.Status)
		assert.Equal(t, "price changed", o.CancelReason)

		_, err = f.store.CancelOrder(ctx, o.ID, "manager", "again")
		requireKind(t, err, ErrInvalidTransition)
		_, err = f.store.StartTransport(ctx, tr.ID, 1200, "dispatcher")
		requireKind(t, err, ErrValidation)
	})

	t.Run("create with non-initial status", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		_, err := f.store.CreateOrder(ctx, PurchaseOrder{Supplier: "PTT", BranchIDs: []int64{1}, Items: diesel(100), Status: OrderConfirmed})
		requireKind(t, err, ErrInvalidTransition)
	})

	t.Run("order needs a confirmed quotation", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		q, err := f.store.CreateQuotation(ctx, Quotation{Supplier: "PTT", Items: diesel(100)})
		require.NoError(t, err)
		_, err = f.store.CreateOrder(ctx, PurchaseOrder{QuotationID: q.ID, BranchIDs: []int64{1}})
		requireKind(t, err, ErrValidation)
		_, err = f.store.CreateOrder(ctx, PurchaseOrder{QuotationID: "missing", BranchIDs: []int64{1}})
		requireKind(t, err, ErrNotFound)
	})

	t.Run("unknown branch", func(t *testing.T) {
		f := newFixture(t)
		f.seedReference(t)
		_, err := f.store.CreateOrder(ctx, PurchaseOrder{Supplier: "PTT", BranchIDs: []int64{99}, Items: diesel(100)})
		lerr := requireKind(t, err, ErrNotFound)
		assert.Equal(t, EntityBranch, lerr.Entity)
		assert.Equal(t, "99", lerr.Key)
	})
}

func TestQuotationLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	q, err := f.store.CreateQuotation(ctx, Quotation{Supplier: "PTT", Items: diesel(100)})
	require.NoError(t, err)
	_, err = f.store.ConfirmQuotation(ctx, q.ID, "buyer")
	require.NoError(t, err)
	_, err = f.store.ConfirmQuotation(ctx, q.ID, "buyer")
	requireKind(t, err, ErrInvalidTransition)

	items := diesel(200)
	_, err = f.store.UpdateQuotation(ctx, q.ID, QuotationPatch{Items: &items})
	requireKind(t, err, ErrValidation)

	next, err := f.store.CreateQuotation(ctx, Quotation{Supplier: "PTT", Items: diesel(200)})
	require.NoError(t, err)
	assert.Equal(t, "QT-20261016-0002", next.QuotationNo)
	notes := "replaced by revised offer"
	q, err = f.store.UpdateQuotation(ctx, q.ID, QuotationPatch{Notes: &notes, SupersededBy: &next.ID})
	require.NoError(t, err)
	assert.Equal(t, next.ID, q.SupersededBy)

	self := q.ID
	_, err = f.store.UpdateQuotation(ctx, q.ID, QuotationPatch{SupersededBy: &self})
	requireKind(t, err, ErrValidation)

	_, err = f.store.CreateQuotation(ctx, Quotation{Supplier: "PTT"})
	requireKind(t, err, ErrValidation)
	_, err = f.store.CreateQuotation(ctx, Quotation{ID: q.ID, Supplier: "PTT", Items: diesel(1)})
	requireKind(t, err, ErrDuplicateID)
	_, err = f.store.CreateQuotation(ctx, Quotation{QuotationNo: q.QuotationNo, Supplier: "PTT", Items: diesel(1)})
	requireKind(t, err, ErrDuplicateID)
	_, err = f.store.GetQuotationByNo("QT-19990101-0001")
	requireKind(t, err, ErrNotFound)
}
