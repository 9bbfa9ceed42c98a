package logistics

import (
	"context"
	"strconv"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/numbering"
)

// CreateOilReceipt records fuel received at a branch from a completed trip.
// OrderID and, for single-branch trips, BranchID default from the transport.
// QuantityOrdered defaults to the trip quantity; Variance is derived.
func (s *Store) CreateOilReceipt(ctx context.Context, r OilReceipt) (OilReceipt, error) {
	if r.Status == "" {
		r.Status = OilReceiptRecorded
	}
	if r.Status != OilReceiptRecorded {
		return OilReceipt{}, transitionDetail(EntityOilReceipt, r.ID, OilReceiptStatus(""), r.Status, "oil receipts are created recorded")
	}
	if r.TransportID == "" {
		return OilReceipt{}, validationError(EntityOilReceipt, r.ID, "transport is required")
	}
	if r.QuantityReceived < 0 || r.QuantityOrdered < 0 {
		return OilReceipt{}, validationError(EntityOilReceipt, r.ID, "quantities must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transports.get(r.TransportID)
	if !ok {
		return OilReceipt{}, notFoundError(EntityTransport, r.TransportID)
	}
	if t.Status != TransportCompleted {
		return OilReceipt{}, validationError(EntityOilReceipt, r.ID, "transport "+t.TransportNo+" is "+string(t.Status))
	}
	if r.OrderID == "" {
		r.OrderID = t.OrderID
	}
	if r.OrderID != t.OrderID {
		return OilReceipt{}, validationError(EntityOilReceipt, r.ID, "order does not match transport "+t.TransportNo)
	}
	o, ok := s.orders.get(r.OrderID)
	if !ok {
		return OilReceipt{}, notFoundError(EntityOrder, r.OrderID)
	}
	if o.Status == OrderCancelled {
		return OilReceipt{}, validationError(EntityOilReceipt, r.ID, "order "+o.OrderNo+" is cancelled")
	}
	if r.BranchID == 0 && len(t.BranchIDs) == 1 {
		r.BranchID = t.BranchIDs[0]
	}
	if !t.CoversBranch(r.BranchID) {
		return OilReceipt{}, validationError(EntityOilReceipt, r.ID, "branch "+strconv.FormatInt(r.BranchID, 10)+" is not on transport "+t.TransportNo)
	}
	if r.QuantityOrdered == 0 {
		r.QuantityOrdered = t.Quantity
	}
	r.Variance = r.QuantityReceived - r.QuantityOrdered
	if err := s.assignID(EntityOilReceipt, &r.ID, func(id string) bool { return s.oilReceipts.index(id) >= 0 }); err != nil {
		return OilReceipt{}, err
	}
	taken := func(no string) bool {
		return s.oilReceipts.exists(func(x OilReceipt) bool { return x.ReceiptNo == no })
	}
	if err := s.assignNumber(ctx, numbering.DocOilReceipt, EntityOilReceipt, &r.ReceiptNo, taken); err != nil {
		return OilReceipt{}, err
	}
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = s.now()
	}
	s.oilReceipts.insert(r)
	s.flush(ctx, s.oilReceipts)
	s.emit(ctx, Event{Type: EventOilReceiptCreated, Entity: EntityOilReceipt, Key: r.ID, Number: r.ReceiptNo, To: string(r.Status), Actor: r.ReceivedBy})
	return r, nil
}

// DeleteOilReceipt removes an oil receipt that has no tank entries yet.
func (s *Store) DeleteOilReceipt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.oilReceipts.index(id)
	if i < 0 {
		return notFoundError(EntityOilReceipt, id)
	}
	r := s.oilReceipts.at(i)
	if e, ok := s.tankEntries.find(func(e TankEntryRecord) bool { return e.OilReceiptID == id }); ok {
		return validationError(EntityOilReceipt, id, "referenced by tank entry "+e.EntryNo)
	}
	s.oilReceipts.removeAt(i)
	s.flush(ctx, s.oilReceipts)
	s.emit(ctx, Event{Type: EventOilReceiptDeleted, Entity: EntityOilReceipt, Key: id, Number: r.ReceiptNo, From: string(r.Status)})
	return nil
}

// GetOilReceipt returns the oil receipt with id.
func (s *Store) GetOilReceipt(id string) (OilReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.oilReceipts.get(id)
	if !ok {
		return OilReceipt{}, notFoundError(EntityOilReceipt, id)
	}
	return r, nil
}

// GetOilReceiptByNo returns the oil receipt numbered no.
func (s *Store) GetOilReceiptByNo(no string) (OilReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.oilReceipts.find(func(r OilReceipt) bool { return r.ReceiptNo == no })
	if !ok {
		return OilReceipt{}, notFoundError(EntityOilReceipt, no)
	}
	return r, nil
}

// ListOilReceipts returns every oil receipt.
func (s *Store) ListOilReceipts() []OilReceipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.oilReceipts.all()
}

// ListOilReceiptsByBranch returns the receipts recorded at branchID.
func (s *Store) ListOilReceiptsByBranch(branchID int64) []OilReceipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.oilReceipts.filter(func(r OilReceipt) bool { return r.BranchID == branchID })
}

// ListOilReceiptsByTransport returns the receipts recorded for transportID.
func (s *Store) ListOilReceiptsByTransport(transportID string) []OilReceipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.oilReceipts.filter(func(r OilReceipt) bool { return r.TransportID == transportID })
}

// CreateTankEntry records fuel moved from an oil receipt into a tank. The
// entry inherits the receipt's branch. Entries beyond the received volume are
// accepted and surface as "over" in reconciliation.
func (s *Store) CreateTankEntry(ctx context.Context, e TankEntryRecord) (TankEntryRecord, error) {
	switch {
	case e.OilReceiptID == "":
		return TankEntryRecord{}, validationError(EntityTankEntry, e.ID, "oil receipt is required")
	case e.TankID == "":
		return TankEntryRecord{}, validationError(EntityTankEntry, e.ID, "tank is required")
	case e.Volume <= 0:
		return TankEntryRecord{}, validationError(EntityTankEntry, e.ID, "volume must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.oilReceipts.get(e.OilReceiptID)
	if !ok {
		return TankEntryRecord{}, notFoundError(EntityOilReceipt, e.OilReceiptID)
	}
	if e.BranchID == 0 {
		e.BranchID = r.BranchID
	}
	if e.BranchID != r.BranchID {
		return TankEntryRecord{}, validationError(EntityTankEntry, e.ID, "branch differs from oil receipt "+r.ReceiptNo)
	}
	if err := s.assignID(EntityTankEntry, &e.ID, func(id string) bool { return s.tankEntries.index(id) >= 0 }); err != nil {
		return TankEntryRecord{}, err
	}
	taken := func(no string) bool {
		return s.tankEntries.exists(func(o TankEntryRecord) bool { return o.EntryNo == no })
	}
	if err := s.assignNumber(ctx, numbering.DocTankEntry, EntityTankEntry, &e.EntryNo, taken); err != nil {
		return TankEntryRecord{}, err
	}
	if e.EnteredAt.IsZero() {
		e.EnteredAt = s.now()
	}
	s.tankEntries.insert(e)
	s.flush(ctx, s.tankEntries)
	s.emit(ctx, Event{Type: EventTankEntryCreated, Entity: EntityTankEntry, Key: e.ID, Number: e.EntryNo, Actor: e.EnteredBy})
	return e, nil
}

// GetTankEntry returns the tank entry with id.
func (s *Store) GetTankEntry(id string) (TankEntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tankEntries.get(id)
	if !ok {
		return TankEntryRecord{}, notFoundError(EntityTankEntry, id)
	}
	return e, nil
}

// ListTankEntries returns every tank entry.
func (s *Store) ListTankEntries() []TankEntryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tankEntries.all()
}

// ListTankEntriesByBranch returns the entries made at branchID.
func (s *Store) ListTankEntriesByBranch(branchID int64) []TankEntryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tankEntries.filter(func(e TankEntryRecord) bool { return e.BranchID == branchID })
}

// ListTankEntriesByOilReceipt returns the entries drawn from oilReceiptID.
func (s *Store) ListTankEntriesByOilReceipt(oilReceiptID string) []TankEntryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tankEntries.filter(func(e TankEntryRecord) bool { return e.OilReceiptID == oilReceiptID })
}
