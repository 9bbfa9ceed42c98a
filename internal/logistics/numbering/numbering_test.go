package numbering

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newAllocator(t *testing.T, store kv.Adapter, clock *fakeClock) *Allocator {
	t.Helper()
	return New(context.Background(), store, Options{Clock: clock.Now, Location: time.UTC})
}

func TestNextDoesNotMutate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	a := newAllocator(t, kv.NewMemory(), clock)

	first, err := a.Next(DocPurchaseOrder)
	require.NoError(t, err)
	again, err := a.Next(DocPurchaseOrder)
	require.NoError(t, err)
	assert.Equal(t, "PO-20261016-0001", first)
	assert.Equal(t, first, again)

	require.NoError(t, a.Increment(context.Background(), DocPurchaseOrder))
	next, err := a.Next(DocPurchaseOrder)
	require.NoError(t, err)
	assert.Equal(t, "PO-20261016-0002", next)
}

func TestAllocateIsUniquePerTypeAndDay(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	a := newAllocator(t, kv.NewMemory(), clock)
	ctx := context.Background()

	seen := make(map[string]struct{})
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := a.Allocate(ctx, DocTransport)
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)

	qt, err := a.Allocate(ctx, DocQuotation)
	require.NoError(t, err)
	assert.Equal(t, "QT-20261016-0001", qt)
}

func TestMidnightRolloverResetsSequence(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 16, 23, 59, 0, 0, time.UTC)}
	a := newAllocator(t, kv.NewMemory(), clock)
	ctx := context.Background()

	n1, err := a.Allocate(ctx, DocReceipt)
	require.NoError(t, err)
	n2, err := a.Allocate(ctx, DocReceipt)
	require.NoError(t, err)
	assert.Equal(t, "RC-20261016-0001", n1)
	assert.Equal(t, "RC-20261016-0002", n2)

	clock.Set(time.Date(2026, 10, 17, 0, 0, 1, 0, time.UTC))
	n3, err := a.Allocate(ctx, DocReceipt)
	require.NoError(t, err)
	assert.Equal(t, "RC-20261017-0001", n3)
}

func TestDayKeyUsesConfiguredLocation(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)
	clock := &fakeClock{now: time.Date(2026, 10, 16, 18, 30, 0, 0, time.UTC)}
	a := New(context.Background(), kv.NewMemory(), Options{Clock: clock.Now, Location: bangkok})

	n, err := a.Next(DocOilReceipt)
	require.NoError(t, err)
	assert.Equal(t, "OR-20261017-0001", n)
}

func TestCountersSurviveReload(t *testing.T) {
	store := kv.NewMemory()
	clock := &fakeClock{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	a := newAllocator(t, store, clock)
	for i := 0; i < 3; i++ {
		_, err := a.Allocate(ctx, DocDeliveryNote)
		require.NoError(t, err)
	}

	reloaded := newAllocator(t, store, clock)
	n, err := reloaded.Allocate(ctx, DocDeliveryNote)
	require.NoError(t, err)
	assert.Equal(t, "DN-20261016-0004", n)
	assert.Equal(t, Counter{Prefix: "DN", DateKey: "20261016", LastSequence: 4}, reloaded.Counters()[DocDeliveryNote])
}

func TestUnknownTypeAndPrefixOverride(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	a := New(context.Background(), kv.NewMemory(), Options{
		Clock:    clock.Now,
		Location: time.UTC,
		Prefixes: map[DocType]string{DocPurchaseOrder: "FPO"},
	})

	_, err := a.Next(DocType("invoice"))
	require.ErrorIs(t, err, ErrUnknownType)

	n, err := a.Allocate(context.Background(), DocPurchaseOrder)
	require.NoError(t, err)
	assert.Equal(t, "FPO-20261016-0001", n)
}
