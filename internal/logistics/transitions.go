package logistics

import "slices"

// Entity names used in errors, audit records and events.
const (
	EntityBranch       = "branch"
	EntityLegalEntity  = "legal entity"
	EntityQuotation    = "quotation"
	EntityOrder        = "purchase order"
	EntityDeliveryNote = "delivery note"
	EntityReceipt      = "receipt"
	EntityTransport    = "transport delivery"
	EntityDriverJob    = "driver job"
	EntityOilReceipt   = "oil receipt"
	EntityTankEntry    = "tank entry"
	EntityTruck        = "truck"
	EntityTrailer      = "trailer"
)

var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationDraft: {QuotationConfirmed},
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderDraft:     {OrderSent, OrderCancelled},
	OrderSent:      {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderReceiving, OrderCancelled},
	OrderReceiving: {OrderCompleted, OrderCancelled},
}

var deliveryNoteTransitions = map[DeliveryNoteStatus][]DeliveryNoteStatus{
	DeliveryNoteUnsigned:     {DeliveryNoteSenderSigned},
	DeliveryNoteSenderSigned: {DeliveryNoteFullySigned},
}

var receiptTransitions = map[ReceiptStatus][]ReceiptStatus{
	ReceiptDrafted: {ReceiptIssued},
}

var transportTransitions = map[TransportStatus][]TransportStatus{
	TransportNotStarted: {TransportInProgress},
	TransportInProgress: {TransportCompleted},
}

var driverJobTransitions = map[DriverJobStatus][]DriverJobStatus{
	DriverJobAssigned:   {DriverJobEnRoute},
	DriverJobEnRoute:    {DriverJobDelivering},
	DriverJobDelivering: {DriverJobDone},
}

func canTransition[S comparable](table map[S][]S, from, to S) bool {
	return slices.Contains(table[from], to)
}

// IsValid reports whether s is a declared quotation status.
func (s QuotationStatus) IsValid() bool {
	return s == QuotationDraft || s == QuotationConfirmed
}

// CanTransition reports whether to directly follows s.
func (s QuotationStatus) CanTransition(to QuotationStatus) bool {
	return canTransition(quotationTransitions, s, to)
}

// IsValid reports whether s is a declared order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderDraft, OrderSent, OrderConfirmed, OrderReceiving, OrderCompleted, OrderCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransition reports whether to directly follows s. Cancellation is
// reachable from every non-terminal status.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return canTransition(orderTransitions, s, to)
}

// AcceptsTransports reports whether new trips may be planned against the order.
func (s OrderStatus) AcceptsTransports() bool {
	return s == OrderConfirmed || s == OrderReceiving
}

// CanTransition reports whether to directly follows s.
func (s DeliveryNoteStatus) CanTransition(to DeliveryNoteStatus) bool {
	return canTransition(deliveryNoteTransitions, s, to)
}

// CanTransition reports whether to directly follows s.
func (s ReceiptStatus) CanTransition(to ReceiptStatus) bool {
	return canTransition(receiptTransitions, s, to)
}

// IsValid reports whether s is a declared transport status.
func (s TransportStatus) IsValid() bool {
	switch s {
	case TransportNotStarted, TransportInProgress, TransportCompleted:
		return true
	default:
		return false
	}
}

// CanTransition reports whether to directly follows s.
func (s TransportStatus) CanTransition(to TransportStatus) bool {
	return canTransition(transportTransitions, s, to)
}

// IsValid reports whether s is a declared driver job status.
func (s DriverJobStatus) IsValid() bool {
	switch s {
	case DriverJobAssigned, DriverJobEnRoute, DriverJobDelivering, DriverJobDone:
		return true
	default:
		return false
	}
}

// CanTransition reports whether to directly follows s.
func (s DriverJobStatus) CanTransition(to DriverJobStatus) bool {
	return canTransition(driverJobTransitions, s, to)
}

// IsValid reports whether s is a declared oil receipt status.
func (s OilReceiptStatus) IsValid() bool {
	return s == OilReceiptRecorded
}

// DriverJobStatusFor maps a transport status onto the driver job status that
// must accompany it. While the trip is in progress the driver may be either
// en route or delivering; current decides which.
func DriverJobStatusFor(transport TransportStatus, current DriverJobStatus) DriverJobStatus {
	switch transport {
	case TransportInProgress:
		if current == DriverJobDelivering {
			return DriverJobDelivering
		}
		return DriverJobEnRoute
	case TransportCompleted:
		return DriverJobDone
	default:
		return DriverJobAssigned
	}
}

// DriverJobConsistent reports whether job agrees with its transport.
func DriverJobConsistent(transport TransportStatus, job DriverJobStatus) bool {
	return DriverJobStatusFor(transport, job) == job
}
