package logistics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
	"github.com/odyssey-erp/odyssey-logistics/internal/shared"
)

var day = time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	audits []shared.AuditLog
	err    error
}

func (r *recordingSink) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingSink) Record(_ context.Context, log shared.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, log)
	return r.err
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Type)
	}
	return out
}

type countingMetrics struct {
	mu            sync.Mutex
	transitions   map[string]int
	allocations   map[string]int
	flushFailures map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		transitions:   map[string]int{},
		allocations:   map[string]int{},
		flushFailures: map[string]int{},
	}
}

func (m *countingMetrics) ObserveTransition(entity, from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[entity+":"+from+"->"+to]++
}

func (m *countingMetrics) ObserveAllocation(docType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocations[docType]++
}

func (m *countingMetrics) ObserveFlushFailure(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushFailures[key]++
}

// failingAdapter reads from an inner adapter but refuses every write.
type failingAdapter struct {
	kv.Adapter
}

func (failingAdapter) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

type fixture struct {
	store   *Store
	kv      kv.Adapter
	clock   *fakeClock
	sink    *recordingSink
	metrics *countingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, kv.NewMemory())
}

func newFixtureWith(t *testing.T, adapter kv.Adapter) *fixture {
	t.Helper()
	f := &fixture{
		kv:      adapter,
		clock:   &fakeClock{now: day},
		sink:    &recordingSink{},
		metrics: newCountingMetrics(),
	}
	f.store = f.open()
	return f
}

func (f *fixture) open() *Store {
	return NewStore(context.Background(), f.kv, Options{
		Clock:    f.clock.Now,
		Location: time.UTC,
		Audit:    f.sink,
		Events:   f.sink,
		Metrics:  f.metrics,
	})
}

func float(v float64) *float64 { return &v }

func (f *fixture) seedReference(t *testing.T) {
	t.Helper()
	err := f.store.ImportReferenceData(context.Background(), ReferenceData{
		Branches: []Branch{
			{ID: 1, Code: "BKK", Name: "Bangkok"},
			{ID: 2, Code: "CNX", Name: "Chiang Mai"},
			{ID: 3, Code: "HKT", Name: "Phuket"},
		},
		LegalEntities: []LegalEntity{{ID: "LE-1", Name: "Odyssey Fuel Co.", TaxID: "0105551234567"}},
		Trucks: []TruckProfile{
			{ID: "TRK-1", PlateNo: "70-1234", Capacity: 20000, Active: true, LastOdometer: float(1000)},
			{ID: "TRK-2", PlateNo: "70-5678", Capacity: 15000, Active: true},
		},
		Trailers: []Trailer{{ID: "TRL-1", PlateNo: "71-0001", Capacity: 10000, Active: true}},
	})
	require.NoError(t, err)
}

func diesel(qty float64) []LineItem {
	return []LineItem{{Product: "Diesel B7", Quantity: qty, UnitPrice: 30}}
}

// confirmedOrder walks a fresh order to confirmed for branches 1 and 2.
func (f *fixture) confirmedOrder(t *testing.T) PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	o, err := f.store.CreateOrder(ctx, PurchaseOrder{Supplier: "PTT", BranchIDs: []int64{1, 2}, Items: diesel(10000)})
	require.NoError(t, err)
	_, err = f.store.SendOrder(ctx, o.ID, "buyer")
	require.NoError(t, err)
	o, err = f.store.ApproveOrder(ctx, o.ID, "manager")
	require.NoError(t, err)
	return o
}

func (f *fixture) plannedTransport(t *testing.T, orderID string) TransportDelivery {
	t.Helper()
	tr, err := f.store.CreateTransport(context.Background(), TransportDelivery{
		OrderID:    orderID,
		TruckID:    "TRK-1",
		TrailerID:  "TRL-1",
		DriverName: "Somchai",
		Quantity:   10000,
	})
	require.NoError(t, err)
	return tr
}

// completedTransport plans, starts and completes a trip for orderID.
func (f *fixture) completedTransport(t *testing.T, orderID string) TransportDelivery {
	t.Helper()
	ctx := context.Background()
	tr := f.plannedTransport(t, orderID)
	truck, err := f.store.GetTruck(tr.TruckID)
	require.NoError(t, err)
	start := 1000.0
	if truck.LastOdometer != nil {
		start = *truck.LastOdometer
	}
	_, err = f.store.StartTransport(ctx, tr.ID, start, "dispatcher")
	require.NoError(t, err)
	f.clock.Advance(3 * time.Hour)
	tr, err = f.store.CompleteTransport(ctx, tr.ID, CompleteTransportInput{EndOdometer: start + 250, Actor: "dispatcher"})
	require.NoError(t, err)
	return tr
}

func requireKind(t *testing.T, err error, kind error) *Error {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	return lerr
}
