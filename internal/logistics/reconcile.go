package logistics

import (
	"cmp"
	"math"
	"slices"
)

// ReconcileTolerance is the liters below which a difference is ignored.
const ReconcileTolerance = 0.001

// ReconciliationState describes how much of an oil receipt reached tanks.
type ReconciliationState string

const (
	ReconcilePending  ReconciliationState = "pending"
	ReconcilePartial  ReconciliationState = "partial"
	ReconcileBalanced ReconciliationState = "balanced"
	ReconcileOver     ReconciliationState = "over"
)

// Settled reports whether nothing is left to enter.
func (s ReconciliationState) Settled() bool {
	return s == ReconcileBalanced || s == ReconcileOver
}

// Reconciliation compares one oil receipt with its tank entries.
type Reconciliation struct {
	OilReceiptID string              `json:"oilReceiptId"`
	ReceiptNo    string              `json:"receiptNo"`
	OrderID      string              `json:"orderId"`
	BranchID     int64               `json:"branchId"`
	Received     float64             `json:"received"`
	Entered      float64             `json:"entered"`
	Outstanding  float64             `json:"outstanding"`
	Entries      int                 `json:"entries"`
	State        ReconciliationState `json:"state"`
}

// DriverJobDivergence is a driver job whose status disagrees with its trip.
type DriverJobDivergence struct {
	JobID           string          `json:"jobId"`
	TransportNo     string          `json:"transportNo"`
	TransportStatus TransportStatus `json:"transportStatus"`
	JobStatus       DriverJobStatus `json:"jobStatus"`
	Expected        DriverJobStatus `json:"expected"`
}

// Reconcile compares the oil receipt with id against its tank entries.
func (s *Store) Reconcile(oilReceiptID string) (Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.oilReceipts.get(oilReceiptID)
	if !ok {
		return Reconciliation{}, notFoundError(EntityOilReceipt, oilReceiptID)
	}
	return s.reconcileLocked(r), nil
}

// ReconciliationReport reconciles every oil receipt, optionally limited to
// one branch.
func (s *Store) ReconciliationReport(branchID *int64) []Reconciliation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reconciliation, 0)
	for _, r := range s.oilReceipts.items {
		if branchID != nil && r.BranchID != *branchID {
			continue
		}
		out = append(out, s.reconcileLocked(r))
	}
	return out
}

// DriverJobDivergences lists driver jobs that disagree with their transport,
// optionally limited to transports serving one branch. Jobs whose transport
// no longer exists are reported with an empty transport status, and only in
// the unfiltered list since they have no branch.
func (s *Store) DriverJobDivergences(branchID *int64) []DriverJobDivergence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DriverJobDivergence, 0)
	for _, j := range s.driverJobs.items {
		t, ok := s.transports.find(func(t TransportDelivery) bool { return t.TransportNo == j.TransportNo })
		if !ok {
			if branchID == nil {
				out = append(out, DriverJobDivergence{JobID: j.ID, TransportNo: j.TransportNo, JobStatus: j.Status})
			}
			continue
		}
		if branchID != nil && !slices.Contains(t.BranchIDs, *branchID) {
			continue
		}
		if !DriverJobConsistent(t.Status, j.Status) {
			out = append(out, DriverJobDivergence{
				JobID:           j.ID,
				TransportNo:     j.TransportNo,
				TransportStatus: t.Status,
				JobStatus:       j.Status,
				Expected:        DriverJobStatusFor(t.Status, j.Status),
			})
		}
	}
	return out
}

func (s *Store) reconcileLocked(r OilReceipt) Reconciliation {
	rec := Reconciliation{
		OilReceiptID: r.ID,
		ReceiptNo:    r.ReceiptNo,
		OrderID:      r.OrderID,
		BranchID:     r.BranchID,
		Received:     r.QuantityReceived,
	}
	for _, e := range s.tankEntries.items {
		if e.OilReceiptID == r.ID {
			rec.Entered += e.Volume
			rec.Entries++
		}
	}
	rec.Outstanding = r.QuantityReceived - rec.Entered
	rec.State = ReconcileStateOf(rec.Received, rec.Entered, rec.Entries)
	return rec
}

// ReconcileStateOf classifies entered liters against received liters.
func ReconcileStateOf(received, entered float64, entries int) ReconciliationState {
	diff := received - entered
	switch {
	case math.Abs(diff) <= ReconcileTolerance:
		return ReconcileBalanced
	case diff < 0:
		return ReconcileOver
	case entries == 0:
		return ReconcilePending
	default:
		return ReconcilePartial
	}
}

// SortReconciliations orders a report by branch then receipt number.
func SortReconciliations(recs []Reconciliation) {
	slices.SortFunc(recs, func(a, b Reconciliation) int {
		if c := cmp.Compare(a.BranchID, b.BranchID); c != 0 {
			return c
		}
		return cmp.Compare(a.ReceiptNo, b.ReceiptNo)
	})
}
