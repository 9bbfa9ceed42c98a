package logistichttp

import (
	"net/http"
	"strconv"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/shared"
)

type lineItemRequest struct {
	Product   string  `json:"product" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
}

func toLineItems(in []lineItemRequest) []logistics.LineItem {
	out := make([]logistics.LineItem, 0, len(in))
	for _, item := range in {
		out = append(out, logistics.LineItem{Product: item.Product, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return out
}

type quotationRequest struct {
	QuotationNo string            `json:"quotationNo"`
	Supplier    string            `json:"supplier" validate:"required"`
	Items       []lineItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes       string            `json:"notes"`
}

type quotationPatchRequest struct {
	Supplier     *string            `json:"supplier" validate:"omitempty,min=1"`
	Items        *[]lineItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	Notes        *string            `json:"notes"`
	SupersededBy *string            `json:"supersededBy"`
	Status       *string            `json:"status"`
}

type orderRequest struct {
	OrderNo       string            `json:"orderNo"`
	QuotationID   string            `json:"quotationId"`
	LegalEntityID string            `json:"legalEntityId"`
	Supplier      string            `json:"supplier" validate:"required_without=QuotationID"`
	BranchIDs     []int64           `json:"branchIds" validate:"required,min=1,dive,gt=0"`
	Items         []lineItemRequest `json:"items" validate:"required_without=QuotationID,dive"`
}

type orderPatchRequest struct {
	Supplier      *string            `json:"supplier" validate:"omitempty,min=1"`
	LegalEntityID *string            `json:"legalEntityId"`
	BranchIDs     *[]int64           `json:"branchIds" validate:"omitempty,min=1,dive,gt=0"`
	Items         *[]lineItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	Status        *string            `json:"status"`
	CancelReason  string             `json:"cancelReason"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type deliveryNoteRequest struct {
	DeliveryNoteNo string `json:"deliveryNoteNo"`
	OrderID        string `json:"orderId" validate:"required"`
	TransportID    string `json:"transportId"`
	Remarks        string `json:"remarks"`
}

type deliveryNotePatchRequest struct {
	Remarks     *string `json:"remarks"`
	TransportID *string `json:"transportId"`
}

type signRequest struct {
	Party   string `json:"party" validate:"required,oneof=sender receiver"`
	Payload string `json:"payload" validate:"required"`
}

type receiptRequest struct {
	ReceiptNo      string  `json:"receiptNo"`
	OrderID        string  `json:"orderId" validate:"required_without=DeliveryNoteID,excluded_with=DeliveryNoteID"`
	DeliveryNoteID string  `json:"deliveryNoteId"`
	Amount         float64 `json:"amount" validate:"gte=0"`
	Remarks        string  `json:"remarks"`
}

type receiptPatchRequest struct {
	Amount  *float64 `json:"amount" validate:"omitempty,gte=0"`
	Remarks *string  `json:"remarks"`
}

type transportRequest struct {
	TransportNo  string   `json:"transportNo"`
	OrderID      string   `json:"orderId" validate:"required"`
	TruckID      string   `json:"truckId" validate:"required"`
	TrailerID    string   `json:"trailerId"`
	DriverName   string   `json:"driverName" validate:"required"`
	BranchIDs    []int64  `json:"branchIds" validate:"omitempty,dive,gt=0"`
	Quantity     float64  `json:"quantity" validate:"gt=0"`
	FueledLiters *float64 `json:"fueledLiters" validate:"omitempty,gte=0"`
}

type transportPatchRequest struct {
	TruckID      *string  `json:"truckId"`
	TrailerID    *string  `json:"trailerId"`
	DriverName   *string  `json:"driverName" validate:"omitempty,min=1"`
	BranchIDs    *[]int64 `json:"branchIds" validate:"omitempty,min=1,dive,gt=0"`
	Quantity     *float64 `json:"quantity" validate:"omitempty,gt=0"`
	FueledLiters *float64 `json:"fueledLiters" validate:"omitempty,gte=0"`
	Status       *string  `json:"status"`
	Odometer     *float64 `json:"odometer"`
}

type startTransportRequest struct {
	Odometer float64 `json:"odometer" validate:"gt=0"`
}

type completeTransportRequest struct {
	Odometer     float64  `json:"odometer" validate:"gt=0"`
	FueledLiters *float64 `json:"fueledLiters" validate:"omitempty,gte=0"`
}

type driverJobRequest struct {
	ID          string `json:"id"`
	TransportNo string `json:"transportNo" validate:"required"`
	DriverName  string `json:"driverName"`
}

type advanceRequest struct {
	Status string `json:"status" validate:"required"`
}

type oilReceiptRequest struct {
	ReceiptNo        string  `json:"receiptNo"`
	TransportID      string  `json:"transportId" validate:"required"`
	BranchID         int64   `json:"branchId" validate:"gte=0"`
	QuantityOrdered  float64 `json:"quantityOrdered" validate:"gte=0"`
	QuantityReceived float64 `json:"quantityReceived" validate:"gte=0"`
}

type tankEntryRequest struct {
	EntryNo      string  `json:"entryNo"`
	OilReceiptID string  `json:"oilReceiptId" validate:"required"`
	TankID       string  `json:"tankId" validate:"required"`
	Volume       float64 `json:"volume" validate:"gt=0"`
}

type truckRequest struct {
	ID           string   `json:"id"`
	PlateNo      string   `json:"plateNo" validate:"required"`
	Capacity     float64  `json:"capacity" validate:"gte=0"`
	Active       bool     `json:"active"`
	LastOdometer *float64 `json:"lastOdometer" validate:"omitempty,gte=0"`
}

type truckPatchRequest struct {
	PlateNo      *string  `json:"plateNo" validate:"omitempty,min=1"`
	Capacity     *float64 `json:"capacity" validate:"omitempty,gte=0"`
	Active       *bool    `json:"active"`
	LastOdometer *float64 `json:"lastOdometer" validate:"omitempty,gte=0"`
}

type trailerRequest struct {
	ID       string  `json:"id"`
	PlateNo  string  `json:"plateNo" validate:"required"`
	Capacity float64 `json:"capacity" validate:"gte=0"`
	Active   bool    `json:"active"`
}

type trailerPatchRequest struct {
	PlateNo  *string  `json:"plateNo" validate:"omitempty,min=1"`
	Capacity *float64 `json:"capacity" validate:"omitempty,gte=0"`
	Active   *bool    `json:"active"`
}

type transportView struct {
	logistics.TransportDelivery
	Distance        *float64 `json:"distance,omitempty"`
	DurationMinutes *int64   `json:"durationMinutes,omitempty"`
	FuelEfficiency  *float64 `json:"fuelEfficiency,omitempty"`
}

func newTransportView(t logistics.TransportDelivery) transportView {
	v := transportView{TransportDelivery: t}
	if m, ok := t.Metrics(); ok {
		v.Distance, v.DurationMinutes = &m.Distance, &m.DurationMinutes
	}
	if eff, ok := t.FuelEfficiency(); ok {
		v.FuelEfficiency = &eff
	}
	return v
}

type listResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// paginate slices items by the page and perPage query parameters.
func paginate[T any](r *http.Request, items []T) listResponse[T] {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	if perPage > 200 {
		perPage = 200
	}
	p := shared.NewPagination(page, perPage, len(items))
	start, end := p.Bounds()
	return listResponse[T]{Items: items[start:end], Pagination: p}
}
