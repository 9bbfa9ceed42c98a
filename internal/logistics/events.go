package logistics

import (
	"context"
	"time"

	"github.com/odyssey-erp/odyssey-logistics/internal/shared"
)

// AuditPort records audited actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// EventSink receives committed domain events.
type EventSink interface {
	Publish(ctx context.Context, evt Event) error
}

// MetricsPort counts store activity.
type MetricsPort interface {
	ObserveTransition(entity, from, to string)
	ObserveAllocation(docType string)
	ObserveFlushFailure(key string)
}

// Event describes one committed mutation.
type Event struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity"`
	Key    string    `json:"key"`
	Number string    `json:"number,omitempty"`
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
	Actor  string    `json:"actor,omitempty"`
	At     time.Time `json:"at"`
}

// Event types.
const (
	EventQuotationCreated   = "quotation.created"
	EventQuotationUpdated   = "quotation.updated"
	EventQuotationConfirmed = "quotation.confirmed"

	EventOrderCreated   = "order.created"
	EventOrderUpdated   = "order.updated"
	EventOrderSent      = "order.sent"
	EventOrderApproved  = "order.approved"
	EventOrderReceiving = "order.receiving"
	EventOrderCompleted = "order.completed"
	EventOrderCancelled = "order.cancelled"

	EventDeliveryNoteCreated = "delivery_note.created"
	EventDeliveryNoteUpdated = "delivery_note.updated"
	EventDeliveryNoteSigned  = "delivery_note.signed"
	EventDeliveryNoteDeleted = "delivery_note.deleted"

	EventReceiptCreated = "receipt.created"
	EventReceiptUpdated = "receipt.updated"
	EventReceiptIssued  = "receipt.issued"
	EventReceiptDeleted = "receipt.deleted"

	EventTransportCreated   = "transport.created"
	EventTransportUpdated   = "transport.updated"
	EventTransportStarted   = "transport.started"
	EventTransportCompleted = "transport.completed"

	EventDriverJobCreated  = "driver_job.created"
	EventDriverJobAdvanced = "driver_job.advanced"

	EventOilReceiptCreated = "oil_receipt.created"
	EventOilReceiptDeleted = "oil_receipt.deleted"
	EventTankEntryCreated  = "tank_entry.created"

	EventTruckCreated   = "truck.created"
	EventTruckUpdated   = "truck.updated"
	EventTrailerCreated = "trailer.created"
	EventTrailerUpdated = "trailer.updated"

	EventReferenceImported = "reference.imported"
)
