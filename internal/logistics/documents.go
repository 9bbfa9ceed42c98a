package logistics

import (
	"context"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/numbering"
)

// DeliveryNotePatch carries delivery note edits. Signatures change only
// through SignDeliveryNote.
type DeliveryNotePatch struct {
	Remarks     *string
	TransportID *string
	Actor       string
}

// ReceiptPatch carries edits to a drafted receipt.
type ReceiptPatch struct {
	Amount  *float64
	Remarks *string
	Actor   string
}

// CreateDeliveryNote stores an unsigned delivery note for an order that is
// confirmed or receiving.
func (s *Store) CreateDeliveryNote(ctx context.Context, d DeliveryNote) (DeliveryNote, error) {
	if d.SenderSigned || d.ReceiverSigned || d.SenderSignature != nil || d.ReceiverSignature != nil {
		return DeliveryNote{}, transitionDetail(EntityDeliveryNote, d.ID, DeliveryNoteStatus(""), d.Status(), "delivery notes are created unsigned")
	}
	if d.OrderID == "" {
		return DeliveryNote{}, validationError(EntityDeliveryNote, d.ID, "order is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders.get(d.OrderID)
	if !ok {
		return DeliveryNote{}, notFoundError(EntityOrder, d.OrderID)
	}
	if !o.Status.AcceptsTransports() {
		return DeliveryNote{}, validationError(EntityDeliveryNote, d.ID, "order "+o.OrderNo+" is "+string(o.Status))
	}
	if err := s.checkNoteTransport(d.ID, d.OrderID, d.TransportID); err != nil {
		return DeliveryNote{}, err
	}
	if err := s.assignID(EntityDeliveryNote, &d.ID, func(id string) bool { return s.deliveryNotes.index(id) >= 0 }); err != nil {
		return DeliveryNote{}, err
	}
	taken := func(no string) bool {
		return s.deliveryNotes.exists(func(n DeliveryNote) bool { return n.DeliveryNoteNo == no })
	}
	if err := s.assignNumber(ctx, numbering.DocDeliveryNote, EntityDeliveryNote, &d.DeliveryNoteNo, taken); err != nil {
		return DeliveryNote{}, err
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	s.deliveryNotes.insert(d)
	s.flush(ctx, s.deliveryNotes)
	s.emit(ctx, Event{Type: EventDeliveryNoteCreated, Entity: EntityDeliveryNote, Key: d.ID, Number: d.DeliveryNoteNo, To: string(d.Status())})
	return d, nil
}

func (s *Store) checkNoteTransport(noteID, orderID, transportID string) error {
	if transportID == "" {
		return nil
	}
	t, ok := s.transports.get(transportID)
	if !ok {
		return notFoundError(EntityTransport, transportID)
	}
	if t.OrderID != orderID {
		return validationError(EntityDeliveryNote, noteID, "transport "+t.TransportNo+" belongs to another order")
	}
	return nil
}

// UpdateDeliveryNote applies patch to the note with id. The transport link
// is fixed once the sender has signed.
func (s *Store) UpdateDeliveryNote(ctx context.Context, id string, patch DeliveryNotePatch) (DeliveryNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.deliveryNotes.index(id)
	if i < 0 {
		return DeliveryNote{}, notFoundError(EntityDeliveryNote, id)
	}
	d := s.deliveryNotes.at(i)
	if patch.TransportID != nil {
		if d.Status() != DeliveryNoteUnsigned {
			return DeliveryNote{}, validationError(EntityDeliveryNote, id, "signed notes cannot be relinked")
		}
		if err := s.checkNoteTransport(id, d.OrderID, *patch.TransportID); err != nil {
			return DeliveryNote{}, err
		}
		d.TransportID = *patch.TransportID
	}
	if patch.Remarks != nil {
		d.Remarks = *patch.Remarks
	}
	s.deliveryNotes.set(i, d)
	s.flush(ctx, s.deliveryNotes)
	s.emit(ctx, Event{Type: EventDeliveryNoteUpdated, Entity: EntityDeliveryNote, Key: id, Number: d.DeliveryNoteNo, Actor: patch.Actor})
	return d, nil
}

// SignDeliveryNote captures one party's signature. The sender signs first,
// then the receiver; each party signs once.
func (s *Store) SignDeliveryNote(ctx context.Context, id string, party SignatureParty, payload, signer string) (DeliveryNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.deliveryNotes.index(id)
	if i < 0 {
		return DeliveryNote{}, notFoundError(EntityDeliveryNote, id)
	}
	d := s.deliveryNotes.at(i)
	if payload == "" {
		return DeliveryNote{}, validationError(EntityDeliveryNote, id, "signature payload is required")
	}
	from := d.Status()
	sig := &Signature{Payload: payload, SignedBy: signer, SignedAt: s.now()}
	sig.Digest = signatureDigest(party, *sig)
	var to DeliveryNoteStatus
	switch party {
	case PartySender:
		to = DeliveryNoteSenderSigned
		if from.CanTransition(to) {
			d.SenderSignature, d.SenderSigned = sig, true
		}
	case PartyReceiver:
		to = DeliveryNoteFullySigned
		if from.CanTransition(to) {
			d.ReceiverSignature, d.ReceiverSigned = sig, true
		}
	default:
		return DeliveryNote{}, validationError(EntityDeliveryNote, id, "unknown signing party "+string(party))
	}
	if !from.CanTransition(to) {
		return DeliveryNote{}, transitionError(EntityDeliveryNote, id, from, to)
	}
	s.deliveryNotes.set(i, d)
	s.flush(ctx, s.deliveryNotes)
	s.emit(ctx, Event{Type: EventDeliveryNoteSigned, Entity: EntityDeliveryNote, Key: id, Number: d.DeliveryNoteNo, From: string(from), To: string(to), Actor: signer})
	return d, nil
}

// DeleteDeliveryNote removes an unsigned note that no receipt references.
func (s *Store) DeleteDeliveryNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.deliveryNotes.index(id)
	if i < 0 {
		return notFoundError(EntityDeliveryNote, id)
	}
	d := s.deliveryNotes.at(i)
	if d.Status() != DeliveryNoteUnsigned {
		return transitionDetail(EntityDeliveryNote, id, d.Status(), DeliveryNoteStatus("deleted"), "only unsigned notes can be deleted")
	}
	if r, ok := s.receipts.find(func(r Receipt) bool { return r.DeliveryNoteID == id }); ok {
		return validationError(EntityDeliveryNote, id, "referenced by receipt "+r.ReceiptNo)
	}
	s.deliveryNotes.removeAt(i)
	s.flush(ctx, s.deliveryNotes)
	s.emit(ctx, Event{Type: EventDeliveryNoteDeleted, Entity: EntityDeliveryNote, Key: id, Number: d.DeliveryNoteNo, From: string(d.Status())})
	return nil
}

// GetDeliveryNote returns the note with id.
func (s *Store) GetDeliveryNote(id string) (DeliveryNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveryNotes.get(id)
	if !ok {
		return DeliveryNote{}, notFoundError(EntityDeliveryNote, id)
	}
	return d, nil
}

// GetDeliveryNoteByNo returns the note numbered no.
func (s *Store) GetDeliveryNoteByNo(no string) (DeliveryNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveryNotes.find(func(d DeliveryNote) bool { return d.DeliveryNoteNo == no })
	if !ok {
		return DeliveryNote{}, notFoundError(EntityDeliveryNote, no)
	}
	return d, nil
}

// ListDeliveryNotes returns every delivery note.
func (s *Store) ListDeliveryNotes() []DeliveryNote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deliveryNotes.all()
}

// ListDeliveryNotesByOrder returns the notes issued against orderID.
func (s *Store) ListDeliveryNotesByOrder(orderID string) []DeliveryNote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deliveryNotes.filter(func(d DeliveryNote) bool { return d.OrderID == orderID })
}

// CreateReceipt stores a drafted receipt for exactly one of an order or a
// delivery note.
func (s *Store) CreateReceipt(ctx context.Context, r Receipt) (Receipt, error) {
	if r.Issued || r.IssuedAt != nil {
		return Receipt{}, transitionDetail(EntityReceipt, r.ID, ReceiptStatus(""), ReceiptIssued, "receipts are created as drafts")
	}
	if (r.OrderID == "") == (r.DeliveryNoteID == "") {
		return Receipt{}, validationError(EntityReceipt, r.ID, "exactly one of order or delivery note is required")
	}
	if r.Amount < 0 {
		return Receipt{}, validationError(EntityReceipt, r.ID, "amount must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.OrderID != "" && s.orders.index(r.OrderID) < 0 {
		return Receipt{}, notFoundError(EntityOrder, r.OrderID)
	}
	if r.DeliveryNoteID != "" && s.deliveryNotes.index(r.DeliveryNoteID) < 0 {
		return Receipt{}, notFoundError(EntityDeliveryNote, r.DeliveryNoteID)
	}
	if err := s.assignID(EntityReceipt, &r.ID, func(id string) bool { return s.receipts.index(id) >= 0 }); err != nil {
		return Receipt{}, err
	}
	taken := func(no string) bool {
		return s.receipts.exists(func(o Receipt) bool { return o.ReceiptNo == no })
	}
	if err := s.assignNumber(ctx, numbering.DocReceipt, EntityReceipt, &r.ReceiptNo, taken); err != nil {
		return Receipt{}, err
	}
	r.IssuedBy = ""
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.receipts.insert(r)
	s.flush(ctx, s.receipts)
	s.emit(ctx, Event{Type: EventReceiptCreated, Entity: EntityReceipt, Key: r.ID, Number: r.ReceiptNo, To: string(r.Status())})
	return r, nil
}

// UpdateReceipt applies patch to a drafted receipt.
func (s *Store) UpdateReceipt(ctx context.Context, id string, patch ReceiptPatch) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.receipts.index(id)
	if i < 0 {
		return Receipt{}, notFoundError(EntityReceipt, id)
	}
	r := s.receipts.at(i)
	if r.Issued {
		return Receipt{}, validationError(EntityReceipt, id, "issued receipts are immutable")
	}
	if patch.Amount != nil {
		if *patch.Amount < 0 {
			return Receipt{}, validationError(EntityReceipt, id, "amount must not be negative")
		}
		r.Amount = *patch.Amount
	}
	if patch.Remarks != nil {
		r.Remarks = *patch.Remarks
	}
	s.receipts.set(i, r)
	s.flush(ctx, s.receipts)
	s.emit(ctx, Event{Type: EventReceiptUpdated, Entity: EntityReceipt, Key: id, Number: r.ReceiptNo, Actor: patch.Actor})
	return r, nil
}

// IssueReceipt moves a drafted receipt to issued.
func (s *Store) IssueReceipt(ctx context.Context, id, actor string) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.receipts.index(id)
	if i < 0 {
		return Receipt{}, notFoundError(EntityReceipt, id)
	}
	r := s.receipts.at(i)
	from := r.Status()
	if !from.CanTransition(ReceiptIssued) {
		return Receipt{}, transitionError(EntityReceipt, id, from, ReceiptIssued)
	}
	r.Issued, r.IssuedBy, r.IssuedAt = true, actor, s.stamp()
	s.receipts.set(i, r)
	s.flush(ctx, s.receipts)
	s.emit(ctx, Event{Type: EventReceiptIssued, Entity: EntityReceipt, Key: id, Number: r.ReceiptNo, From: string(from), To: string(r.Status()), Actor: actor})
	return r, nil
}

// DeleteReceipt removes a drafted receipt.
func (s *Store) DeleteReceipt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.receipts.index(id)
	if i < 0 {
		return notFoundError(EntityReceipt, id)
	}
	r := s.receipts.at(i)
	if r.Issued {
		return transitionDetail(EntityReceipt, id, r.Status(), ReceiptStatus("deleted"), "only drafted receipts can be deleted")
	}
	s.receipts.removeAt(i)
	s.flush(ctx, s.receipts)
	s.emit(ctx, Event{Type: EventReceiptDeleted, Entity: EntityReceipt, Key: id, Number: r.ReceiptNo, From: string(r.Status())})
	return nil
}

// GetReceipt returns the receipt with id.
func (s *Store) GetReceipt(id string) (Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts.get(id)
	if !ok {
		return Receipt{}, notFoundError(EntityReceipt, id)
	}
	return r, nil
}

// GetReceiptByNo returns the receipt numbered no.
func (s *Store) GetReceiptByNo(no string) (Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts.find(func(r Receipt) bool { return r.ReceiptNo == no })
	if !ok {
		return Receipt{}, notFoundError(EntityReceipt, no)
	}
	return r, nil
}

// ListReceipts returns every receipt.
func (s *Store) ListReceipts() []Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.receipts.all()
}

// ListReceiptsByOrder returns receipts raised against orderID directly.
func (s *Store) ListReceiptsByOrder(orderID string) []Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.receipts.filter(func(r Receipt) bool { return r.OrderID == orderID })
}

// signatureDigest binds the party, signer, signing time and payload of a
// signature, so later edits to any of them are detectable.
func signatureDigest(party SignatureParty, sig Signature) string {
	h, _ := blake2b.New256(nil)
	for _, field := range []string{string(party), sig.SignedBy, sig.SignedAt.UTC().Format(time.RFC3339Nano), sig.Payload} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
