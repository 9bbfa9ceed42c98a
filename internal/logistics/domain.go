package logistics

import (
	"time"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/trip"
)

// Quotation lifecycle statuses.
type QuotationStatus string

const (
	QuotationDraft     QuotationStatus = "draft"
	QuotationConfirmed QuotationStatus = "confirmed"
)

// Purchase order lifecycle statuses.
type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderSent      OrderStatus = "sent"
	OrderConfirmed OrderStatus = "confirmed"
	OrderReceiving OrderStatus = "receiving"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Delivery note statuses, derived from the signature flags.
type DeliveryNoteStatus string

const (
	DeliveryNoteUnsigned     DeliveryNoteStatus = "unsigned"
	DeliveryNoteSenderSigned DeliveryNoteStatus = "sender-signed"
	DeliveryNoteFullySigned  DeliveryNoteStatus = "fully-signed"
)

// Receipt statuses, derived from the issued flag.
type ReceiptStatus string

const (
	ReceiptDrafted ReceiptStatus = "drafted"
	ReceiptIssued  ReceiptStatus = "issued"
)

// Transport delivery statuses.
type TransportStatus string

const (
	TransportNotStarted TransportStatus = "not-started"
	TransportInProgress TransportStatus = "in-progress"
	TransportCompleted  TransportStatus = "completed"
)

// Driver job statuses.
type DriverJobStatus string

const (
	DriverJobAssigned   DriverJobStatus = "assigned"
	DriverJobEnRoute    DriverJobStatus = "en-route"
	DriverJobDelivering DriverJobStatus = "delivering"
	DriverJobDone       DriverJobStatus = "done"
)

// Oil receipt statuses.
type OilReceiptStatus string

const (
	OilReceiptRecorded OilReceiptStatus = "recorded"
)

// Signing parties on a delivery note.
type SignatureParty string

const (
	PartySender   SignatureParty = "sender"
	PartyReceiver SignatureParty = "receiver"
)

// Branch is immutable reference data.
type Branch struct {
	ID      int64  `json:"id" yaml:"id"`
	Code    string `json:"code,omitempty" yaml:"code"`
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address,omitempty" yaml:"address"`
}

// LegalEntity is the invoicing party reference data.
type LegalEntity struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	TaxID      string `json:"taxId" yaml:"taxId"`
	BranchCode string `json:"branchCode,omitempty" yaml:"branchCode"`
	Address    string `json:"address,omitempty" yaml:"address"`
}

// LineItem is a fuel product line on a quotation or order.
type LineItem struct {
	Product   string  `json:"product"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Amount returns quantity times unit price.
func (l LineItem) Amount() float64 {
	return l.Quantity * l.UnitPrice
}

// Quotation is a supplier price offer.
type Quotation struct {
	ID           string          `json:"id"`
	QuotationNo  string          `json:"quotationNo"`
	Supplier     string          `json:"supplier"`
	Items        []LineItem      `json:"items"`
	Status       QuotationStatus `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	SupersededBy string          `json:"supersededBy,omitempty"`
	CreatedBy    string          `json:"createdBy,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	// ConfirmedBy and ConfirmedAt are set once the quotation is confirmed.
	ConfirmedBy string     `json:"confirmedBy,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

// PurchaseOrder is a committed fuel order covering one or more branches.
type PurchaseOrder struct {
	ID            string      `json:"id"`
	OrderNo       string      `json:"orderNo"`
	QuotationID   string      `json:"quotationId,omitempty"`
	LegalEntityID string      `json:"legalEntityId,omitempty"`
	Supplier      string      `json:"supplier"`
	BranchIDs     []int64     `json:"branchIds"`
	Items         []LineItem  `json:"items"`
	TotalAmount   float64     `json:"totalAmount"`
	Status        OrderStatus `json:"status"`
	CreatedBy     string      `json:"createdBy,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	SentAt        *time.Time  `json:"sentAt,omitempty"`
	ApprovedBy    string      `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time  `json:"approvedAt,omitempty"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty"`
	CancelledBy   string      `json:"cancelledBy,omitempty"`
	CancelledAt   *time.Time  `json:"cancelledAt,omitempty"`
	CancelReason  string      `json:"cancelReason,omitempty"`
}

// TotalQuantity sums the liters over all lines.
func (o PurchaseOrder) TotalQuantity() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// CoversBranch reports whether the order delivers to branchID.
func (o PurchaseOrder) CoversBranch(branchID int64) bool {
	for _, id := range o.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}

// Signature is a captured signing payload.
type Signature struct {
	Payload  string    `json:"payload"`
	Digest   string    `json:"digest"`
	SignedBy string    `json:"signedBy,omitempty"`
	SignedAt time.Time `json:"signedAt"`
}

// DeliveryNote accompanies a physical transport and needs both signatures.
type DeliveryNote struct {
	ID                string     `json:"id"`
	DeliveryNoteNo    string     `json:"deliveryNoteNo"`
	OrderID           string     `json:"orderId"`
	TransportID       string     `json:"transportId,omitempty"`
	Remarks           string     `json:"remarks,omitempty"`
	SenderSignature   *Signature `json:"senderSignature,omitempty"`
	SenderSigned      bool       `json:"senderSigned"`
	ReceiverSignature *Signature `json:"receiverSignature,omitempty"`
	ReceiverSigned    bool       `json:"receiverSigned"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Status derives the note's position from its signature flags.
func (d DeliveryNote) Status() DeliveryNoteStatus {
	switch {
	case d.SenderSigned && d.ReceiverSigned:
		return DeliveryNoteFullySigned
	case d.SenderSigned:
		return DeliveryNoteSenderSigned
	default:
		return DeliveryNoteUnsigned
	}
}

// Receipt is a payment/goods receipt document. Immutable once issued.
type Receipt struct {
	ID             string     `json:"id"`
	ReceiptNo      string     `json:"receiptNo"`
	OrderID        string     `json:"orderId,omitempty"`
	DeliveryNoteID string     `json:"deliveryNoteId,omitempty"`
	Amount         float64    `json:"amount"`
	Remarks        string     `json:"remarks,omitempty"`
	Issued         bool       `json:"issued"`
	IssuedBy       string     `json:"issuedBy,omitempty"`
	IssuedAt       *time.Time `json:"issuedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Status derives the receipt's position from the issued flag.
func (r Receipt) Status() ReceiptStatus {
	if r.Issued {
		return ReceiptIssued
	}
	return ReceiptDrafted
}

// TransportDelivery tracks one truck trip fulfilling a purchase order.
type TransportDelivery struct {
	ID          string          `json:"id"`
	TransportNo string          `json:"transportNo"`
	OrderID     string          `json:"orderId"`
	TruckID     string          `json:"truckId"`
	TrailerID   string          `json:"trailerId,omitempty"`
	DriverName  string          `json:"driverName"`
	BranchIDs   []int64         `json:"branchIds"`
	Quantity    float64         `json:"quantity"`
	Status      TransportStatus `json:"status"`
	// StartOdometer and StartedAt are set when the trip starts.
	StartOdometer *float64   `json:"startOdometer,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	// EndOdometer and EndedAt are set when the trip completes.
	EndOdometer  *float64   `json:"endOdometer,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	FueledLiters *float64   `json:"fueledLiters,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// CoversBranch reports whether the trip delivers to branchID.
func (t TransportDelivery) CoversBranch(branchID int64) bool {
	for _, id := range t.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}

// Metrics derives distance and duration for a completed trip.
func (t TransportDelivery) Metrics() (trip.Metrics, bool) {
	if t.StartOdometer == nil || t.EndOdometer == nil || t.StartedAt == nil || t.EndedAt == nil {
		return trip.Metrics{}, false
	}
	return trip.CalculateTripMetrics(*t.StartOdometer, *t.EndOdometer, *t.StartedAt, *t.EndedAt), true
}

// FuelEfficiency returns km per liter when both readings and fuel are known.
func (t TransportDelivery) FuelEfficiency() (float64, bool) {
	if t.FueledLiters == nil {
		return 0, false
	}
	return trip.FuelEfficiency(t.StartOdometer, t.EndOdometer, *t.FueledLiters)
}

// DriverJob is the driver-facing view of a transport delivery.
type DriverJob struct {
	ID          string          `json:"id"`
	TransportNo string          `json:"transportNo"`
	DriverName  string          `json:"driverName"`
	Status      DriverJobStatus `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OilReceipt records fuel physically received at a branch.
type OilReceipt struct {
	ID               string           `json:"id"`
	ReceiptNo        string           `json:"receiptNo"`
	TransportID      string           `json:"transportId"`
	OrderID          string           `json:"orderId"`
	BranchID         int64            `json:"branchId"`
	QuantityOrdered  float64          `json:"quantityOrdered"`
	QuantityReceived float64          `json:"quantityReceived"`
	Variance         float64          `json:"variance"`
	Status           OilReceiptStatus `json:"status"`
	ReceivedBy       string           `json:"receivedBy,omitempty"`
	ReceivedAt       time.Time        `json:"receivedAt"`
}

// TankEntryRecord is fuel transferred into one underground tank.
type TankEntryRecord struct {
	ID           string    `json:"id"`
	EntryNo      string    `json:"entryNo"`
	OilReceiptID string    `json:"oilReceiptId"`
	BranchID     int64     `json:"branchId"`
	TankID       string    `json:"tankId"`
	Volume       float64   `json:"volume"`
	EnteredBy    string    `json:"enteredBy,omitempty"`
	EnteredAt    time.Time `json:"enteredAt"`
}

// TruckProfile is fleet reference data with trip statistics.
type TruckProfile struct {
	ID                string     `json:"id" yaml:"id"`
	PlateNo           string     `json:"plateNo" yaml:"plateNo"`
	Capacity          float64    `json:"capacity" yaml:"capacity"`
	Active            bool       `json:"active" yaml:"active"`
	TotalTrips        int        `json:"totalTrips" yaml:"-"`
	TotalOilDelivered float64    `json:"totalOilDelivered" yaml:"-"`
	LastTripDate      *time.Time `json:"lastTripDate,omitempty" yaml:"-"`
	LastOdometer      *float64   `json:"lastOdometer,omitempty" yaml:"lastOdometer"`
}

// Trailer is fleet reference data with trip statistics.
type Trailer struct {
	ID                string     `json:"id" yaml:"id"`
	PlateNo           string     `json:"plateNo" yaml:"plateNo"`
	Capacity          float64    `json:"capacity" yaml:"capacity"`
	Active            bool       `json:"active" yaml:"active"`
	TotalTrips        int        `json:"totalTrips" yaml:"-"`
	TotalOilDelivered float64    `json:"totalOilDelivered" yaml:"-"`
	LastTripDate      *time.Time `json:"lastTripDate,omitempty" yaml:"-"`
}

// ReferenceData bundles the read-only master data imported at startup.
type ReferenceData struct {
	Branches      []Branch       `yaml:"branches"`
	LegalEntities []LegalEntity  `yaml:"legalEntities"`
	Trucks        []TruckProfile `yaml:"trucks"`
	Trailers      []Trailer      `yaml:"trailers"`
}
