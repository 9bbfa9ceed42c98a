// Package logistics holds the fuel logistics document model: quotations,
// purchase orders, delivery notes, receipts, transport deliveries, driver
// jobs, oil receipts and tank entries, together with the fleet and branch
// reference data they point at.
package logistics

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/numbering"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
	"github.com/odyssey-erp/odyssey-logistics/internal/shared"
)

// Persisted record keys.
const (
	KeyBranches            = "logistics.branches"
	KeyLegalEntities       = "logistics.legalEntities"
	KeyQuotations          = "logistics.quotations"
	KeyPurchaseOrders      = "logistics.purchaseOrders"
	KeyDeliveryNotes       = "logistics.deliveryNotes"
	KeyReceipts            = "logistics.receipts"
	KeyTransportDeliveries = "logistics.transportDeliveries"
	KeyDriverJobs          = "logistics.driverJobs"
	KeyOilReceipts         = "logistics.oilReceipts"
	KeyTankEntries         = "logistics.tankEntries"
	KeyTrucks              = "logistics.trucks"
	KeyTrailers            = "logistics.trailers"
)

// Options configures a Store.
type Options struct {
	Clock    func() time.Time
	NewID    func() string
	Location *time.Location
	Prefixes map[numbering.DocType]string
	Logger   *slog.Logger
	Audit    AuditPort
	Events   EventSink
	Metrics  MetricsPort
}

// Store owns every logistics collection. All methods are safe for concurrent
// use; mutations are serialised and flushed to the adapter before returning.
type Store struct {
	mu      sync.RWMutex
	kv      kv.Adapter
	numbers *numbering.Allocator
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
	audit   AuditPort
	events  EventSink
	metrics MetricsPort

	branches      *collection[Branch]
	legalEntities *collection[LegalEntity]
	quotations    *collection[Quotation]
	orders        *collection[PurchaseOrder]
	deliveryNotes *collection[DeliveryNote]
	receipts      *collection[Receipt]
	transports    *collection[TransportDelivery]
	driverJobs    *collection[DriverJob]
	oilReceipts   *collection[OilReceipt]
	tankEntries   *collection[TankEntryRecord]
	trucks        *collection[TruckProfile]
	trailers      *collection[Trailer]
}

// NewStore loads every collection from the adapter. Missing or unreadable
// records start empty.
func NewStore(ctx context.Context, adapter kv.Adapter, opts Options) *Store {
	s := &Store{
		kv:      adapter,
		now:     opts.Clock,
		newID:   opts.NewID,
		logger:  opts.Logger,
		audit:   opts.Audit,
		events:  opts.Events,
		metrics: opts.Metrics,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.numbers = numbering.New(ctx, adapter, numbering.Options{
		Clock:    s.now,
		Location: opts.Location,
		Prefixes: opts.Prefixes,
		Logger:   s.logger,
	})

	s.branches = newCollection(KeyBranches, func(b Branch) string { return strconv.FormatInt(b.ID, 10) }, nil)
	s.legalEntities = newCollection(KeyLegalEntities, func(e LegalEntity) string { return e.ID }, nil)
	s.quotations = newCollection(KeyQuotations, func(q Quotation) string { return q.ID }, cloneQuotation)
	s.orders = newCollection(KeyPurchaseOrders, func(o PurchaseOrder) string { return o.ID }, cloneOrder)
	s.deliveryNotes = newCollection(KeyDeliveryNotes, func(d DeliveryNote) string { return d.ID }, cloneDeliveryNote)
	s.receipts = newCollection(KeyReceipts, func(r Receipt) string { return r.ID }, nil)
	s.transports = newCollection(KeyTransportDeliveries, func(t TransportDelivery) string { return t.ID }, cloneTransport)
	s.driverJobs = newCollection(KeyDriverJobs, func(j DriverJob) string { return j.ID }, nil)
	s.oilReceipts = newCollection(KeyOilReceipts, func(r OilReceipt) string { return r.ID }, nil)
	s.tankEntries = newCollection(KeyTankEntries, func(e TankEntryRecord) string { return e.ID }, nil)
	s.trucks = newCollection(KeyTrucks, func(t TruckProfile) string { return t.ID }, nil)
	s.trailers = newCollection(KeyTrailers, func(t Trailer) string { return t.ID }, nil)

	s.branches.load(ctx, adapter, nil)
	s.legalEntities.load(ctx, adapter, nil)
	s.quotations.load(ctx, adapter, func(q *Quotation) bool {
		return normaliseStatus(s.logger, EntityQuotation, q.ID, &q.Status, QuotationDraft)
	})
	s.orders.load(ctx, adapter, func(o *PurchaseOrder) bool {
		return normaliseStatus(s.logger, EntityOrder, o.ID, &o.Status, OrderDraft)
	})
	s.deliveryNotes.load(ctx, adapter, nil)
	s.receipts.load(ctx, adapter, nil)
	s.transports.load(ctx, adapter, func(t *TransportDelivery) bool {
		return normaliseStatus(s.logger, EntityTransport, t.ID, &t.Status, TransportNotStarted)
	})
	s.driverJobs.load(ctx, adapter, func(j *DriverJob) bool {
		return normaliseStatus(s.logger, EntityDriverJob, j.ID, &j.Status, DriverJobAssigned)
	})
	s.oilReceipts.load(ctx, adapter, func(r *OilReceipt) bool {
		return normaliseStatus(s.logger, EntityOilReceipt, r.ID, &r.Status, OilReceiptRecorded)
	})
	s.tankEntries.load(ctx, adapter, nil)
	s.trucks.load(ctx, adapter, nil)
	s.trailers.load(ctx, adapter, nil)
	return s
}

type status interface {
	~string
	IsValid() bool
}

// normaliseStatus defaults an empty persisted status and drops records whose
// status is unknown.
func normaliseStatus[S status](logger *slog.Logger, entity, id string, st *S, initial S) bool {
	if *st == "" {
		*st = initial
		return true
	}
	if !(*st).IsValid() {
		logger.Warn("skip persisted record with unknown status",
			slog.String("entity", entity), slog.String("id", id), slog.String("status", string(*st)))
		return false
	}
	return true
}

// NextNumber previews the number the next allocation of docType would
// return. Nothing is committed.
func (s *Store) NextNumber(docType numbering.DocType) (string, error) {
	number, err := s.numbers.Next(docType)
	if err != nil {
		return "", wrapValidation("running number", string(docType), err)
	}
	return number, nil
}

// IncrementNumber commits the number NextNumber previewed.
func (s *Store) IncrementNumber(ctx context.Context, docType numbering.DocType) error {
	if err := s.numbers.Increment(ctx, docType); err != nil {
		return wrapValidation("running number", string(docType), err)
	}
	s.observeAllocation(docType)
	return nil
}

// AllocateNumber returns a fresh document number and commits it atomically.
func (s *Store) AllocateNumber(ctx context.Context, docType numbering.DocType) (string, error) {
	number, err := s.numbers.Allocate(ctx, docType)
	if err != nil {
		return "", wrapValidation("running number", string(docType), err)
	}
	s.observeAllocation(docType)
	return number, nil
}

// RunningNumbers returns the current counter map.
func (s *Store) RunningNumbers() map[numbering.DocType]numbering.Counter {
	return s.numbers.Counters()
}

func (s *Store) observeAllocation(docType numbering.DocType) {
	if s.metrics != nil {
		s.metrics.ObserveAllocation(string(docType))
	}
}

// assignNumber allocates into *number when empty and rejects numbers that are
// already taken.
func (s *Store) assignNumber(ctx context.Context, docType numbering.DocType, entity string, number *string, taken func(string) bool) error {
	if *number == "" {
		allocated, err := s.AllocateNumber(ctx, docType)
		if err != nil {
			return err
		}
		*number = allocated
	}
	if taken(*number) {
		return duplicateError(entity, *number, "document number already issued")
	}
	return nil
}

// assignID generates an id when empty and rejects ids that are taken.
func (s *Store) assignID(entity string, id *string, taken func(string) bool) error {
	if *id == "" {
		*id = s.newID()
		return nil
	}
	if taken(*id) {
		return duplicateError(entity, *id, "id already exists")
	}
	return nil
}

// flush saves the given collections. Failures are logged and counted; the
// in-memory mutation stands.
func (s *Store) flush(ctx context.Context, cols ...persistable) {
	for _, c := range cols {
		if err := c.save(ctx, s.kv); err != nil {
			s.logger.ErrorContext(ctx, "flush logistics collection", slog.String("key", c.storageKey()), slog.Any("error", err))
			if s.metrics != nil {
				s.metrics.ObserveFlushFailure(c.storageKey())
			}
		}
	}
}

// emit records the audit trail and publishes evt. It runs after the mutation
// has been committed, so sink failures are only logged.
func (s *Store) emit(ctx context.Context, evt Event) {
	if evt.At.IsZero() {
		evt.At = s.now()
	}
	if s.metrics != nil && evt.From != evt.To {
		s.metrics.ObserveTransition(evt.Entity, evt.From, evt.To)
	}
	if s.audit != nil {
		meta := map[string]any{}
		if evt.Number != "" {
			meta["number"] = evt.Number
		}
		if evt.From != "" {
			meta["from"] = evt.From
		}
		if evt.To != "" {
			meta["to"] = evt.To
		}
		err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    evt.Actor,
			Action:   evt.Type,
			Entity:   evt.Entity,
			EntityID: evt.Key,
			Meta:     meta,
			At:       evt.At,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "record audit", slog.String("action", evt.Type), slog.Any("error", err))
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, evt); err != nil {
			s.logger.WarnContext(ctx, "publish event", slog.String("type", evt.Type), slog.Any("error", err))
		}
	}
}

func (s *Store) stamp() *time.Time {
	now := s.now()
	return &now
}

func cloneQuotation(q Quotation) Quotation {
	q.Items = slices.Clone(q.Items)
	return q
}

func cloneOrder(o PurchaseOrder) PurchaseOrder {
	o.BranchIDs = slices.Clone(o.BranchIDs)
	o.Items = slices.Clone(o.Items)
	return o
}

func cloneDeliveryNote(d DeliveryNote) DeliveryNote {
	if d.SenderSignature != nil {
		sig := *d.SenderSignature
		d.SenderSignature = &sig
	}
	if d.ReceiverSignature != nil {
		sig := *d.ReceiverSignature
		d.ReceiverSignature = &sig
	}
	return d
}

func cloneTransport(t TransportDelivery) TransportDelivery {
	t.BranchIDs = slices.Clone(t.BranchIDs)
	return t
}

func validateLineItems(entity, key string, items []LineItem) error {
	if len(items) == 0 {
		return validationError(entity, key, "at least one line item is required")
	}
	for i, item := range items {
		switch {
		case item.Product == "":
			return validationError(entity, key, "line "+strconv.Itoa(i+1)+": product is required")
		case item.Quantity <= 0:
			return validationError(entity, key, "line "+strconv.Itoa(i+1)+": quantity must be positive")
		case item.UnitPrice < 0:
			return validationError(entity, key, "line "+strconv.Itoa(i+1)+": unit price must not be negative")
		}
	}
	return nil
}

func sumAmount(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Amount()
	}
	return total
}
