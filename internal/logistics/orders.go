package logistics

import (
	"context"
	"slices"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/numbering"
)

// OrderPatch carries purchase order edits. Commercial fields are editable
// only while the order is a draft.
type OrderPatch struct {
	Supplier      *string
	LegalEntityID *string
	BranchIDs     *[]int64
	Items         *[]LineItem
	Status        *OrderStatus
	CancelReason  string
	Actor         string
}

var orderEvents = map[OrderStatus]string{
	OrderSent:      EventOrderSent,
	OrderConfirmed: EventOrderApproved,
	OrderReceiving: EventOrderReceiving,
	OrderCompleted: EventOrderCompleted,
	OrderCancelled: EventOrderCancelled,
}

// CreateOrder stores a new draft purchase order. When QuotationID is set the
// quotation must be confirmed; its supplier and items fill any blanks.
func (s *Store) CreateOrder(ctx context.Context, o PurchaseOrder) (PurchaseOrder, error) {
	if o.Status == "" {
		o.Status = OrderDraft
	}
	if o.Status != OrderDraft {
		return PurchaseOrder{}, transitionDetail(EntityOrder, o.ID, OrderStatus(""), o.Status, "purchase orders are created as draft")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if o.QuotationID != "" {
		q, ok := s.quotations.get(o.QuotationID)
		if !ok {
			return PurchaseOrder{}, notFoundError(EntityQuotation, o.QuotationID)
		}
		if q.Status != QuotationConfirmed {
			return PurchaseOrder{}, validationError(EntityOrder, o.ID, "quotation "+q.QuotationNo+" is not confirmed")
		}
		if o.Supplier == "" {
			o.Supplier = q.Supplier
		}
		if len(o.Items) == 0 {
			o.Items = q.Items
		}
	}
	if o.Supplier == "" {
		return PurchaseOrder{}, validationError(EntityOrder, o.ID, "supplier is required")
	}
	if err := validateLineItems(EntityOrder, o.ID, o.Items); err != nil {
		return PurchaseOrder{}, err
	}
	if err := s.requireBranches(EntityOrder, o.ID, o.BranchIDs); err != nil {
		return PurchaseOrder{}, err
	}
	if o.LegalEntityID != "" && s.legalEntities.index(o.LegalEntityID) < 0 {
		return PurchaseOrder{}, notFoundError(EntityLegalEntity, o.LegalEntityID)
	}
	if err := s.assignID(EntityOrder, &o.ID, func(id string) bool { return s.orders.index(id) >= 0 }); err != nil {
		return PurchaseOrder{}, err
	}
	taken := func(no string) bool {
		return s.orders.exists(func(p PurchaseOrder) bool { return p.OrderNo == no })
	}
	if err := s.assignNumber(ctx, numbering.DocPurchaseOrder, EntityOrder, &o.OrderNo, taken); err != nil {
		return PurchaseOrder{}, err
	}
	o = cloneOrder(o)
	o.TotalAmount = sumAmount(o.Items)
	o.SentAt, o.ApprovedBy, o.ApprovedAt, o.CompletedAt = nil, "", nil, nil
	o.CancelledBy, o.CancelledAt, o.CancelReason = "", nil, ""
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	s.orders.insert(o)
	s.flush(ctx, s.orders)
	s.emit(ctx, Event{Type: EventOrderCreated, Entity: EntityOrder, Key: o.ID, Number: o.OrderNo, To: string(o.Status), Actor: o.CreatedBy})
	return cloneOrder(o), nil
}

// UpdateOrder applies patch to the order with id.
func (s *Store) UpdateOrder(ctx context.Context, id string, patch OrderPatch) (PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchOrder(ctx, id, patch, false)
}

// SendOrder moves a draft order to sent.
func (s *Store) SendOrder(ctx context.Context, id, actor string) (PurchaseOrder, error) {
	return s.orderTransition(ctx, id, OrderSent, actor, "")
}

// ApproveOrder records supplier confirmation of a sent order.
func (s *Store) ApproveOrder(ctx context.Context, id, actor string) (PurchaseOrder, error) {
	return s.orderTransition(ctx, id, OrderConfirmed, actor, "")
}

// StartReceiving moves a confirmed order to receiving. StartTransport does
// this implicitly for the first trip.
func (s *Store) StartReceiving(ctx context.Context, id, actor string) (PurchaseOrder, error) {
	return s.orderTransition(ctx, id, OrderReceiving, actor, "")
}

// CompleteOrder closes a receiving order once every trip is completed and
// every oil receipt has been fully entered into tanks.
func (s *Store) CompleteOrder(ctx context.Context, id, actor string) (PurchaseOrder, error) {
	return s.orderTransition(ctx, id, OrderCompleted, actor, "")
}

// CancelOrder cancels a non-terminal order with no trip in progress.
func (s *Store) CancelOrder(ctx context.Context, id, actor, reason string) (PurchaseOrder, error) {
	return s.orderTransition(ctx, id, OrderCancelled, actor, reason)
}

func (s *Store) orderTransition(ctx context.Context, id string, to OrderStatus, actor, reason string) (PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchOrder(ctx, id, OrderPatch{Status: &to, Actor: actor, CancelReason: reason}, true)
}

// patchOrder must be called with mu held.
func (s *Store) patchOrder(ctx context.Context, id string, patch OrderPatch, strict bool) (PurchaseOrder, error) {
	i := s.orders.index(id)
	if i < 0 {
		return PurchaseOrder{}, notFoundError(EntityOrder, id)
	}
	o := s.orders.at(i)
	edits := patch.Supplier != nil || patch.LegalEntityID != nil || patch.BranchIDs != nil || patch.Items != nil
	if edits && o.Status != OrderDraft {
		return PurchaseOrder{}, validationError(EntityOrder, id, "only draft orders can be edited")
	}
	if patch.Supplier != nil {
		if *patch.Supplier == "" {
			return PurchaseOrder{}, validationError(EntityOrder, id, "supplier is required")
		}
		o.Supplier = *patch.Supplier
	}
	if patch.LegalEntityID != nil {
		if *patch.LegalEntityID != "" && s.legalEntities.index(*patch.LegalEntityID) < 0 {
			return PurchaseOrder{}, notFoundError(EntityLegalEntity, *patch.LegalEntityID)
		}
		o.LegalEntityID = *patch.LegalEntityID
	}
	if patch.BranchIDs != nil {
		if err := s.requireBranches(EntityOrder, id, *patch.BranchIDs); err != nil {
			return PurchaseOrder{}, err
		}
		o.BranchIDs = slices.Clone(*patch.BranchIDs)
	}
	if patch.Items != nil {
		if err := validateLineItems(EntityOrder, id, *patch.Items); err != nil {
			return PurchaseOrder{}, err
		}
		o.Items = slices.Clone(*patch.Items)
		o.TotalAmount = sumAmount(o.Items)
	}
	from := o.Status
	if patch.Status != nil && (strict || *patch.Status != o.Status) {
		if err := s.applyOrderStatus(&o, *patch.Status, patch.Actor, patch.CancelReason); err != nil {
			return PurchaseOrder{}, err
		}
	}
	s.orders.set(i, o)
	s.flush(ctx, s.orders)
	evt := Event{Type: EventOrderUpdated, Entity: EntityOrder, Key: id, Number: o.OrderNo, Actor: patch.Actor}
	if from != o.Status {
		evt.Type, evt.From, evt.To = orderEvents[o.Status], string(from), string(o.Status)
	}
	s.emit(ctx, evt)
	return cloneOrder(o), nil
}

// applyOrderStatus checks the transition and its preconditions, then stamps
// the order. It must be called with mu held.
func (s *Store) applyOrderStatus(o *PurchaseOrder, to OrderStatus, actor, reason string) error {
	if !o.Status.CanTransition(to) {
		return transitionError(EntityOrder, o.ID, o.Status, to)
	}
	switch to {
	case OrderSent:
		o.SentAt = s.stamp()
	case OrderConfirmed:
		o.ApprovedBy, o.ApprovedAt = actor, s.stamp()
	case OrderCompleted:
		if open, ok := s.transports.find(func(t TransportDelivery) bool {
			return t.OrderID == o.ID && t.Status != TransportCompleted
		}); ok {
			return transitionDetail(EntityOrder, o.ID, o.Status, to, "transport "+open.TransportNo+" is "+string(open.Status))
		}
		for _, r := range s.oilReceipts.filter(func(r OilReceipt) bool { return r.OrderID == o.ID }) {
			if rec := s.reconcileLocked(r); !rec.State.Settled() {
				return transitionDetail(EntityOrder, o.ID, o.Status, to, "oil receipt "+r.ReceiptNo+" is "+string(rec.State))
			}
		}
		o.CompletedAt = s.stamp()
	case OrderCancelled:
		if busy, ok := s.transports.find(func(t TransportDelivery) bool {
			return t.OrderID == o.ID && t.Status == TransportInProgress
		}); ok {
			return validationError(EntityOrder, o.ID, "transport "+busy.TransportNo+" is in progress")
		}
		o.CancelledBy, o.CancelledAt, o.CancelReason = actor, s.stamp(), reason
	}
	o.Status = to
	return nil
}

// GetOrder returns the order with id.
func (s *Store) GetOrder(id string) (PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders.get(id)
	if !ok {
		return PurchaseOrder{}, notFoundError(EntityOrder, id)
	}
	return o, nil
}

// GetOrderByNo returns the order numbered no.
func (s *Store) GetOrderByNo(no string) (PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders.find(func(o PurchaseOrder) bool { return o.OrderNo == no })
	if !ok {
		return PurchaseOrder{}, notFoundError(EntityOrder, no)
	}
	return o, nil
}

// ListOrders returns every purchase order.
func (s *Store) ListOrders() []PurchaseOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders.all()
}

// ListOrdersByBranch returns the orders delivering to branchID.
func (s *Store) ListOrdersByBranch(branchID int64) []PurchaseOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders.filter(func(o PurchaseOrder) bool { return o.CoversBranch(branchID) })
}

// ListOrdersByStatus returns the orders currently in status.
func (s *Store) ListOrdersByStatus(status OrderStatus) []PurchaseOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders.filter(func(o PurchaseOrder) bool { return o.Status == status })
}
