package logistics

import (
	"context"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/numbering"
)

// QuotationPatch carries quotation edits. Supplier and items are only
// editable while the quotation is a draft.
type QuotationPatch struct {
	Supplier     *string
	Items        *[]LineItem
	Notes        *string
	SupersededBy *string
	Status       *QuotationStatus
	Actor        string
}

// CreateQuotation stores a new draft quotation.
func (s *Store) CreateQuotation(ctx context.Context, q Quotation) (Quotation, error) {
	if q.Status == "" {
		q.Status = QuotationDraft
	}
	if q.Status != QuotationDraft {
		return Quotation{}, transitionDetail(EntityQuotation, q.ID, QuotationStatus(""), q.Status, "quotations are created as draft")
	}
	if q.Supplier == "" {
		return Quotation{}, validationError(EntityQuotation, q.ID, "supplier is required")
	}
	if err := validateLineItems(EntityQuotation, q.ID, q.Items); err != nil {
		return Quotation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assignID(EntityQuotation, &q.ID, func(id string) bool { return s.quotations.index(id) >= 0 }); err != nil {
		return Quotation{}, err
	}
	if q.SupersededBy != "" && s.quotations.index(q.SupersededBy) < 0 {
		return Quotation{}, notFoundError(EntityQuotation, q.SupersededBy)
	}
	taken := func(no string) bool {
		return s.quotations.exists(func(o Quotation) bool { return o.QuotationNo == no })
	}
	if err := s.assignNumber(ctx, numbering.DocQuotation, EntityQuotation, &q.QuotationNo, taken); err != nil {
		return Quotation{}, err
	}
	q.Items = cloneQuotation(q).Items
	q.ConfirmedBy, q.ConfirmedAt = "", nil
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now()
	}
	s.quotations.insert(q)
	s.flush(ctx, s.quotations)
	s.emit(ctx, Event{Type: EventQuotationCreated, Entity: EntityQuotation, Key: q.ID, Number: q.QuotationNo, To: string(q.Status), Actor: q.CreatedBy})
	return cloneQuotation(q), nil
}

// UpdateQuotation applies patch to the quotation with id. A status in the
// patch must be a legal transition.
func (s *Store) UpdateQuotation(ctx context.Context, id string, patch QuotationPatch) (Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchQuotation(ctx, id, patch, false)
}

// ConfirmQuotation moves a draft quotation to confirmed.
func (s *Store) ConfirmQuotation(ctx context.Context, id, actor string) (Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := QuotationConfirmed
	return s.patchQuotation(ctx, id, QuotationPatch{Status: &status, Actor: actor}, true)
}

// patchQuotation must be called with mu held. A strict patch treats a status
// equal to the current one as an illegal transition.
func (s *Store) patchQuotation(ctx context.Context, id string, patch QuotationPatch, strict bool) (Quotation, error) {
	i := s.quotations.index(id)
	if i < 0 {
		return Quotation{}, notFoundError(EntityQuotation, id)
	}
	q := s.quotations.at(i)
	if (patch.Supplier != nil || patch.Items != nil) && q.Status != QuotationDraft {
		return Quotation{}, validationError(EntityQuotation, id, "confirmed quotations only accept notes and supersession")
	}
	if patch.Supplier != nil {
		if *patch.Supplier == "" {
			return Quotation{}, validationError(EntityQuotation, id, "supplier is required")
		}
		q.Supplier = *patch.Supplier
	}
	if patch.Items != nil {
		if err := validateLineItems(EntityQuotation, id, *patch.Items); err != nil {
			return Quotation{}, err
		}
		q.Items = append([]LineItem(nil), (*patch.Items)...)
	}
	if patch.Notes != nil {
		q.Notes = *patch.Notes
	}
	if patch.SupersededBy != nil {
		ref := *patch.SupersededBy
		if ref == id {
			return Quotation{}, validationError(EntityQuotation, id, "a quotation cannot supersede itself")
		}
		if ref != "" && s.quotations.index(ref) < 0 {
			return Quotation{}, notFoundError(EntityQuotation, ref)
		}
		q.SupersededBy = ref
	}
	from := q.Status
	if patch.Status != nil && (strict || *patch.Status != q.Status) {
		if !q.Status.CanTransition(*patch.Status) {
			return Quotation{}, transitionError(EntityQuotation, id, q.Status, *patch.Status)
		}
		q.Status = *patch.Status
		q.ConfirmedBy, q.ConfirmedAt = patch.Actor, s.stamp()
	}
	s.quotations.set(i, q)
	s.flush(ctx, s.quotations)
	evt := Event{Type: EventQuotationUpdated, Entity: EntityQuotation, Key: id, Number: q.QuotationNo, Actor: patch.Actor}
	if from != q.Status {
		evt.Type, evt.From, evt.To = EventQuotationConfirmed, string(from), string(q.Status)
	}
	s.emit(ctx, evt)
	return cloneQuotation(q), nil
}

// GetQuotation returns the quotation with id.
func (s *Store) GetQuotation(id string) (Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotations.get(id)
	if !ok {
		return Quotation{}, notFoundError(EntityQuotation, id)
	}
	return q, nil
}

// GetQuotationByNo returns the quotation numbered no.
func (s *Store) GetQuotationByNo(no string) (Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotations.find(func(q Quotation) bool { return q.QuotationNo == no })
	if !ok {
		return Quotation{}, notFoundError(EntityQuotation, no)
	}
	return q, nil
}

// ListQuotations returns every quotation.
func (s *Store) ListQuotations() []Quotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotations.all()
}
