package logistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryNoteSigning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedReference(t)
	o := f.confirmedOrder(t)
	tr := f.plannedTransport(t, o.ID)

	note, err := f.store.CreateDeliveryNote(ctx, DeliveryNote{OrderID: o.ID, TransportID: tr.ID})
	require.NoError(t, err)
	assert.Equal(t, "DN-20261016-0001", note.DeliveryNoteNo)
	assert.Equal(t, DeliveryNoteUnsigned, note.Status())

	_, err = f.store.SignDeliveryNote(ctx, note.ID, PartyReceiver, "sig-receiver", "branch.manager")
	lerr := requireKind(t, err, ErrInvalidTransition)
	assert.Equal(t, "unsigned", lerr.From)
	assert.Equal(t, "fully-signed", lerr.To)

	_, err = f.store.SignDeliveryNote(ctx, note.ID, PartySender, "", "driver")
	requireKind(t, err, ErrValidation)

	note, err = f.store.SignDeliveryNote(ctx, note.ID, PartySender, "sig-sender", "driver")
	require.NoError(t, err)
	assert.Equal(t, DeliveryNoteSenderSigned, note.Status())
	require.NotNil(t, note.SenderSignature)
	assert.Equal(t, "driver", note.SenderSignature.SignedBy)
	assert.Len(t, note.SenderSignature.Digest, 64)
	assert.Equal(t, signatureDigest(PartySender, *note.SenderSignature), note.SenderSignature.Digest)

	_, err = f.store.SignDeliveryNote(ctx, note.ID, PartySender, "sig-sender", "driver")
	requireKind(t, err, ErrInvalidTransition)

	transportID := ""
	_, err = f.store.UpdateDeliveryNote(ctx, note.ID, DeliveryNotePatch{TransportID: &transportID})
	requireKind(t, err, ErrValidation)

	note, err = f.store.SignDeliveryNote(ctx, note.ID, PartyReceiver, "sig-receiver", "branch.manager")
	require.NoError(t, err)
	assert.Equal(t, DeliveryNoteFullySigned, note.Status())

	err = f.store.DeleteDeliveryNote(ctx, note.ID)
	requireKind(t, err, ErrInvalidTransition)
	assert.Len(t, f.store.ListDeliveryNotesByOrder(o.ID), 1)
}

func TestDeliveryNoteRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedReference(t)

	draft, err := f.store.CreateOrder(ctx, PurchaseOrder{Supplier: "PTT", BranchIDs: []int64{1}, Items: diesel(100)})
	require.NoError(t, err)
	_, err = f.store.CreateDeliveryNote(ctx, DeliveryNote{OrderID: draft.ID})
	requireKind(t, err, ErrValidation)

	o := f.confirmedOrder(t)
	_, err = f.store.CreateDeliveryNote(ctx, DeliveryNote{OrderID: o.ID, SenderSigned: true})
	requireKind(t, err, ErrInvalidTransition)
	_, err = f.store.CreateDeliveryNote(ctx, DeliveryNote{OrderID: o.ID, TransportID: "missing"})
	requireKind(t, err, ErrNotFound)

	other := f.confirmedOrder(t)
	foreign := f.plannedTransport(t, other.ID)
	_, err = f.store.CreateDeliveryNote(ctx, DeliveryNote{OrderID: o.ID, TransportID: foreign.ID})
	requireKind(t, err, ErrValidation)

	note, err := f.store.CreateDeliveryNote(ctx, DeliveryNote{OrderID: o.ID})
	require.NoError(t, err)
	receipt, err := f.store.CreateReceipt(ctx, Receipt{DeliveryNoteID: note.ID, Amount: 1000})
	require.NoError(t, err)

	err = f.store.DeleteDeliveryNote(ctx, note.ID)
	requireKind(t, err, ErrValidation)

	require.NoError(t, f.store.DeleteReceipt(ctx, receipt.ID))
	require.NoError(t, f.store.DeleteDeliveryNote(ctx, note.ID))
	_, err = f.store.GetDeliveryNote(note.ID)
	requireKind(t, err, ErrNotFound)
	err = f.store.DeleteDeliveryNote(ctx, note.ID)
	requireKind(t, err, ErrNotFound)
}

func TestReceiptLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedReference(t)
	o := f.confirmedOrder(t)
	note, err := f.store.CreateDeliveryNote(ctx, DeliveryNote{OrderID: o.ID})
	require.NoError(t, err)

	_, err = f.store.CreateReceipt(ctx, Receipt{OrderID: o.ID, DeliveryNoteID: note.ID})
	requireKind(t, err, ErrValidation)
	_, err = f.store.CreateReceipt(ctx, Receipt{})
	requireKind(t, err, ErrValidation)
	_, err = f.store.CreateReceipt(ctx, Receipt{OrderID: o.ID, Issued: true})
	requireKind(t, err, ErrInvalidTransition)
	_, err = f.store.CreateReceipt(ctx, Receipt{OrderID: "missing"})
	requireKind(t, err, ErrNotFound)

	r, err := f.store.CreateReceipt(ctx, Receipt{OrderID: o.ID, Amount: 150000})
	require.NoError(t, err)
	assert.Equal(t, "RC-20261016-0001", r.ReceiptNo)
	assert.Equal(t, ReceiptDrafted, r.Status())

	amount := 149500.0
	r, err = f.store.UpdateReceipt(ctx, r.ID, ReceiptPatch{Amount: &amount})
	require.NoError(t, err)
	assert.InDelta(t, 149500, r.Amount, 0.001)

	r, err = f.store.IssueReceipt(ctx, r.ID, "cashier")
	require.NoError(t, err)
	assert.Equal(t, ReceiptIssued, r.Status())
	assert.Equal(t, "cashier", r.IssuedBy)

	_, err = f.store.IssueReceipt(ctx, r.ID, "cashier")
	requireKind(t, err, ErrInvalidTransition)
	remarks := "late edit"
	_, err = f.store.UpdateReceipt(ctx, r.ID, ReceiptPatch{Remarks: &remarks})
	requireKind(t, err, ErrValidation)
	err = f.store.DeleteReceipt(ctx, r.ID)
	requireKind(t, err, ErrInvalidTransition)

	got, err := f.store.GetReceiptByNo("RC-20261016-0001")
	require.NoError(t, err)
	assert.True(t, got.Issued)
	assert.Len(t, f.store.ListReceiptsByOrder(o.ID), 1)
}

func TestOilReceiptRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedReference(t)
	o := f.confirmedOrder(t)
	planned := f.plannedTransport(t, o.ID)

	_, err := f.store.CreateOilReceipt(ctx, OilReceipt{TransportID: planned.ID, BranchID: 1, QuantityReceived: 10})
	requireKind(t, err, ErrValidation)
	_, err = f.store.CreateOilReceipt(ctx, OilReceipt{TransportID: "missing", BranchID: 1})
	requireKind(t, err, ErrNotFound)

	tr := f.completedTransport(t, o.ID)
	_, err = f.store.CreateOilReceipt(ctx, OilReceipt{TransportID: tr.ID, BranchID: 3, QuantityReceived: 10})
	requireKind(t, err, ErrValidation)
	_, err = f.store.CreateOilReceipt(ctx, OilReceipt{TransportID: tr.ID, QuantityReceived: 10})
	requireKind(t, err, ErrValidation)

	r, err := f.store.CreateOilReceipt(ctx, OilReceipt{TransportID: tr.ID, BranchID: 2, QuantityReceived: 9950, ReceivedBy: "station"})
	require.NoError(t, err)
	assert.InDelta(t, 10000, r.QuantityOrdered, 0.001)
	assert.InDelta(t, -50, r.Variance, 0.001)
	assert.Equal(t, OilReceiptRecorded, r.Status)

	_, err = f.store.CreateTankEntry(ctx, TankEntryRecord{OilReceiptID: r.ID, TankID: "T1", Volume: 0})
	requireKind(t, err, ErrValidation)
	_, err = f.store.CreateTankEntry(ctx, TankEntryRecord{OilReceiptID: r.ID, BranchID: 1, TankID: "T1", Volume: 10})
	requireKind(t, err, ErrValidation)
	entry, err := f.store.CreateTankEntry(ctx, TankEntryRecord{OilReceiptID: r.ID, TankID: "T1", Volume: 9950})
	require.NoError(t, err)

	err = f.store.DeleteOilReceipt(ctx, r.ID)
	requireKind(t, err, ErrValidation)

	assert.Len(t, f.store.ListOilReceiptsByBranch(2), 1)
	assert.Len(t, f.store.ListOilReceiptsByTransport(tr.ID), 1)
	assert.Len(t, f.store.ListTankEntriesByBranch(2), 1)
	assert.Len(t, f.store.ListTankEntriesByOilReceipt(r.ID), 1)
	got, err := f.store.GetTankEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "T1", got.TankID)

	spare, err := f.store.CreateOilReceipt(ctx, OilReceipt{TransportID: tr.ID, BranchID: 1, QuantityReceived: 0})
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteOilReceipt(ctx, spare.ID))
	_, err = f.store.GetOilReceiptByNo(spare.ReceiptNo)
	requireKind(t, err, ErrNotFound)
}

func TestSignatureDigestBindsSignerAndTime(t *testing.T) {
	base := Signature{Payload: "sig", SignedBy: "driver", SignedAt: day}
	digest := signatureDigest(PartySender, base)
	assert.Len(t, digest, 64)
	assert.Equal(t, digest, signatureDigest(PartySender, base))

	otherSigner := base
	otherSigner.SignedBy = "dispatcher"
	assert.NotEqual(t, digest, signatureDigest(PartySender, otherSigner))

	later := base
	later.SignedAt = day.Add(time.Second)
	assert.NotEqual(t, digest, signatureDigest(PartySender, later))

	assert.NotEqual(t, digest, signatureDigest(PartyReceiver, base))
}
