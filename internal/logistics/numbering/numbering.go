// Package numbering issues human-facing document numbers of the form
// PREFIX-YYYYMMDD-NNNN, with a sequence that restarts every calendar day per
// document type.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
)

// StorageKey is the persisted record holding the counter map.
const StorageKey = "logistics.runningNumbers"

// DocType identifies a numbered document family.
type DocType string

const (
	DocQuotation     DocType = "quotation"
	DocPurchaseOrder DocType = "purchase-order"
	DocDeliveryNote  DocType = "delivery-note"
	DocReceipt       DocType = "receipt"
	DocTransport     DocType = "transport"
	DocDriverJob     DocType = "driver-job"
	DocOilReceipt    DocType = "oil-receipt"
	DocTankEntry     DocType = "tank-entry"
)

// DefaultPrefixes maps every document type to its number prefix.
var DefaultPrefixes = map[DocType]string{
	DocQuotation:     "QT",
	DocPurchaseOrder: "PO",
	DocDeliveryNote:  "DN",
	DocReceipt:       "RC",
	DocTransport:     "TR",
	DocDriverJob:     "DJ",
	DocOilReceipt:    "OR",
	DocTankEntry:     "TE",
}

// ErrUnknownType is returned for document types without a prefix.
var ErrUnknownType = errors.New("numbering: unknown document type")

const dateKeyLayout = "20060102"

// Counter is the persisted bookkeeping for one document type.
type Counter struct {
	Prefix       string `json:"prefix"`
	DateKey      string `json:"dateKey"`
	LastSequence int    `json:"lastSequence"`
}

// Options configures an Allocator.
type Options struct {
	Clock    func() time.Time
	Location *time.Location
	Prefixes map[DocType]string
	Logger   *slog.Logger
}

// Allocator owns the counter map. It is safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	store    kv.Adapter
	now      func() time.Time
	loc      *time.Location
	prefixes map[DocType]string
	counters map[DocType]Counter
	logger   *slog.Logger
}

// New loads the persisted counters and returns an allocator.
func New(ctx context.Context, store kv.Adapter, opts Options) *Allocator {
	a := &Allocator{
		store:    store,
		now:      opts.Clock,
		loc:      opts.Location,
		prefixes: make(map[DocType]string, len(DefaultPrefixes)),
		logger:   opts.Logger,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	for t, p := range DefaultPrefixes {
		a.prefixes[t] = p
	}
	for t, p := range opts.Prefixes {
		a.prefixes[t] = p
	}
	a.counters = kv.Load(ctx, store, StorageKey, map[DocType]Counter{})
	if a.counters == nil {
		a.counters = map[DocType]Counter{}
	}
	return a
}

// Next returns the number the following Increment would commit, without
// changing any state.
func (a *Allocator) Next(docType DocType) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	counter, err := a.advance(docType)
	if err != nil {
		return "", err
	}
	return format(counter), nil
}

// Increment commits the bump that Next previewed. Callers pairing Next and
// Increment are not protected against interleaving; prefer Allocate.
func (a *Allocator) Increment(ctx context.Context, docType DocType) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	counter, err := a.advance(docType)
	if err != nil {
		return err
	}
	a.commit(ctx, docType, counter)
	return nil
}

// Allocate returns a fresh number and commits it in one step.
func (a *Allocator) Allocate(ctx context.Context, docType DocType) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	counter, err := a.advance(docType)
	if err != nil {
		return "", err
	}
	a.commit(ctx, docType, counter)
	return format(counter), nil
}

// Counters returns a copy of the counter map.
func (a *Allocator) Counters() map[DocType]Counter {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[DocType]Counter, len(a.counters))
	for k, v := range a.counters {
		out[k] = v
	}
	return out
}

func (a *Allocator) advance(docType DocType) (Counter, error) {
	prefix, ok := a.prefixes[docType]
	if !ok || prefix == "" {
		return Counter{}, fmt.Errorf("%w: %s", ErrUnknownType, docType)
	}
	today := a.now().In(a.loc).Format(dateKeyLayout)
	current := a.counters[docType]
	next := Counter{Prefix: prefix, DateKey: today, LastSequence: 1}
	if current.DateKey == today {
		next.LastSequence = current.LastSequence + 1
	}
	return next, nil
}

// commit must be called with mu held.
func (a *Allocator) commit(ctx context.Context, docType DocType, counter Counter) {
	a.counters[docType] = counter
	if err := kv.Save(ctx, a.store, StorageKey, a.counters); err != nil {
		a.logger.Error("persist running numbers", slog.String("doc_type", string(docType)), slog.Any("error", err))
	}
}

func format(c Counter) string {
	return fmt.Sprintf("%s-%s-%04d", c.Prefix, c.DateKey, c.LastSequence)
}
