package logistics

import (
	"context"
	"slices"
	"strconv"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/numbering"
	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/trip"
)

// TransportPatch carries transport edits. Assignment fields are editable
// only before the trip starts. A status change needs Odometer: the start
// reading for in-progress, the end reading for completed.
type TransportPatch struct {
	TruckID      *string
	TrailerID    *string
	DriverName   *string
	BranchIDs    *[]int64
	Quantity     *float64
	FueledLiters *float64
	Status       *TransportStatus
	Odometer     *float64
	Actor        string
}

// CompleteTransportInput carries the readings taken when a trip ends.
type CompleteTransportInput struct {
	EndOdometer  float64
	FueledLiters *float64
	Actor        string
}

// CreateTransport plans a trip against a confirmed or receiving order.
// Branches default to the order's branches.
func (s *Store) CreateTransport(ctx context.Context, t TransportDelivery) (TransportDelivery, error) {
	if t.Status == "" {
		t.Status = TransportNotStarted
	}
	if t.Status != TransportNotStarted {
		return TransportDelivery{}, transitionDetail(EntityTransport, t.ID, TransportStatus(""), t.Status, "transports are created not started")
	}
	if t.StartOdometer != nil || t.EndOdometer != nil || t.StartedAt != nil || t.EndedAt != nil {
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "odometer readings are recorded when the trip starts and ends")
	}
	switch {
	case t.OrderID == "":
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "order is required")
	case t.TruckID == "":
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "truck is required")
	case t.DriverName == "":
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "driver name is required")
	case t.Quantity <= 0:
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "quantity must be positive")
	case t.FueledLiters != nil && *t.FueledLiters < 0:
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "fueled liters must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders.get(t.OrderID)
	if !ok {
		return TransportDelivery{}, notFoundError(EntityOrder, t.OrderID)
	}
	if !o.Status.AcceptsTransports() {
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "order "+o.OrderNo+" is "+string(o.Status))
	}
	if err := s.checkFleet(t); err != nil {
		return TransportDelivery{}, err
	}
	if len(t.BranchIDs) == 0 {
		t.BranchIDs = o.BranchIDs
	}
	if err := checkTripBranches(t, o); err != nil {
		return TransportDelivery{}, err
	}
	if err := s.assignID(EntityTransport, &t.ID, func(id string) bool { return s.transports.index(id) >= 0 }); err != nil {
		return TransportDelivery{}, err
	}
	taken := func(no string) bool {
		return s.transports.exists(func(x TransportDelivery) bool { return x.TransportNo == no })
	}
	if err := s.assignNumber(ctx, numbering.DocTransport, EntityTransport, &t.TransportNo, taken); err != nil {
		return TransportDelivery{}, err
	}
	t = cloneTransport(t)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.transports.insert(t)
	s.flush(ctx, s.transports)
	s.emit(ctx, Event{Type: EventTransportCreated, Entity: EntityTransport, Key: t.ID, Number: t.TransportNo, To: string(t.Status)})
	return cloneTransport(t), nil
}

// checkFleet verifies the truck and optional trailer exist and are active.
func (s *Store) checkFleet(t TransportDelivery) error {
	truck, ok := s.trucks.get(t.TruckID)
	if !ok {
		return notFoundError(EntityTruck, t.TruckID)
	}
	if !truck.Active {
		return validationError(EntityTransport, t.ID, "truck "+truck.PlateNo+" is inactive")
	}
	if t.TrailerID == "" {
		return nil
	}
	trailer, ok := s.trailers.get(t.TrailerID)
	if !ok {
		return notFoundError(EntityTrailer, t.TrailerID)
	}
	if !trailer.Active {
		return validationError(EntityTransport, t.ID, "trailer "+trailer.PlateNo+" is inactive")
	}
	return nil
}

func checkTripBranches(t TransportDelivery, o PurchaseOrder) error {
	for _, id := range t.BranchIDs {
		if !o.CoversBranch(id) {
			return validationError(EntityTransport, t.ID, "branch "+strconv.FormatInt(id, 10)+" is not on order "+o.OrderNo)
		}
	}
	return nil
}

// UpdateTransport applies patch to the transport with id. A status change
// runs the same checks and side effects as StartTransport and
// CompleteTransport.
func (s *Store) UpdateTransport(ctx context.Context, id string, patch TransportPatch) (TransportDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.transports.index(id)
	if i < 0 {
		return TransportDelivery{}, notFoundError(EntityTransport, id)
	}
	orig := s.transports.at(i)
	t := cloneTransport(orig)
	edits := patch.TruckID != nil || patch.TrailerID != nil || patch.DriverName != nil || patch.BranchIDs != nil || patch.Quantity != nil
	if edits && t.Status != TransportNotStarted {
		return TransportDelivery{}, validationError(EntityTransport, id, "assignment is fixed once the trip has started")
	}
	if patch.TruckID != nil {
		t.TruckID = *patch.TruckID
	}
	if patch.TrailerID != nil {
		t.TrailerID = *patch.TrailerID
	}
	if patch.TruckID != nil || patch.TrailerID != nil {
		if err := s.checkFleet(t); err != nil {
			return TransportDelivery{}, err
		}
	}
	if patch.DriverName != nil {
		if *patch.DriverName == "" {
			return TransportDelivery{}, validationError(EntityTransport, id, "driver name is required")
		}
		t.DriverName = *patch.DriverName
	}
	if patch.BranchIDs != nil {
		o, ok := s.orders.get(t.OrderID)
		if !ok {
			return TransportDelivery{}, notFoundError(EntityOrder, t.OrderID)
		}
		t.BranchIDs = slices.Clone(*patch.BranchIDs)
		if len(t.BranchIDs) == 0 {
			return TransportDelivery{}, validationError(EntityTransport, id, "at least one branch is required")
		}
		if err := checkTripBranches(t, o); err != nil {
			return TransportDelivery{}, err
		}
	}
	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return TransportDelivery{}, validationError(EntityTransport, id, "quantity must be positive")
		}
		t.Quantity = *patch.Quantity
	}
	if patch.FueledLiters != nil {
		if *patch.FueledLiters < 0 {
			return TransportDelivery{}, validationError(EntityTransport, id, "fueled liters must not be negative")
		}
		liters := *patch.FueledLiters
		t.FueledLiters = &liters
	}

	if patch.Status == nil || *patch.Status == orig.Status {
		if patch.Odometer != nil {
			return TransportDelivery{}, validationError(EntityTransport, id, "odometer readings are recorded with a status change")
		}
		s.transports.set(i, t)
		s.flush(ctx, s.transports)
		s.emit(ctx, Event{Type: EventTransportUpdated, Entity: EntityTransport, Key: id, Number: t.TransportNo, Actor: patch.Actor})
		return cloneTransport(t), nil
	}

	if !orig.Status.CanTransition(*patch.Status) {
		return TransportDelivery{}, transitionError(EntityTransport, id, orig.Status, *patch.Status)
	}
	if patch.Odometer == nil {
		return TransportDelivery{}, validationError(EntityTransport, id, "odometer reading is required for "+string(*patch.Status))
	}
	s.transports.set(i, t)
	var (
		out TransportDelivery
		err error
	)
	switch *patch.Status {
	case TransportInProgress:
		out, err = s.startLocked(ctx, i, *patch.Odometer, patch.Actor)
	case TransportCompleted:
		out, err = s.completeLocked(ctx, i, CompleteTransportInput{EndOdometer: *patch.Odometer, Actor: patch.Actor})
	default:
		err = transitionError(EntityTransport, id, orig.Status, *patch.Status)
	}
	if err != nil {
		s.transports.set(i, orig)
		return TransportDelivery{}, err
	}
	return out, nil
}

// StartTransport records the start odometer and moves the trip in progress.
// The order advances from confirmed to receiving and the driver job goes en
// route.
func (s *Store) StartTransport(ctx context.Context, id string, odometer float64, actor string) (TransportDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transports.index(id)
	if i < 0 {
		return TransportDelivery{}, notFoundError(EntityTransport, id)
	}
	return s.startLocked(ctx, i, odometer, actor)
}

// CompleteTransport records the end odometer, completes the trip and rolls
// the trip into truck and trailer statistics.
func (s *Store) CompleteTransport(ctx context.Context, id string, in CompleteTransportInput) (TransportDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transports.index(id)
	if i < 0 {
		return TransportDelivery{}, notFoundError(EntityTransport, id)
	}
	return s.completeLocked(ctx, i, in)
}

func (s *Store) startLocked(ctx context.Context, i int, odometer float64, actor string) (TransportDelivery, error) {
	t := s.transports.at(i)
	from := t.Status
	if !from.CanTransition(TransportInProgress) {
		return TransportDelivery{}, transitionError(EntityTransport, t.ID, from, TransportInProgress)
	}
	oi := s.orders.index(t.OrderID)
	if oi < 0 {
		return TransportDelivery{}, notFoundError(EntityOrder, t.OrderID)
	}
	o := s.orders.at(oi)
	if !o.Status.AcceptsTransports() {
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "order "+o.OrderNo+" is "+string(o.Status))
	}
	if err := s.checkFleet(t); err != nil {
		return TransportDelivery{}, err
	}
	if s.truckOnTrip(t.TruckID) {
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "truck is already on a trip in progress")
	}
	if t.TrailerID != "" && s.transports.exists(func(x TransportDelivery) bool {
		return x.TrailerID == t.TrailerID && x.Status == TransportInProgress
	}) {
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "trailer is already on a trip in progress")
	}
	truck, _ := s.trucks.get(t.TruckID)
	if err := trip.ValidateStartOdometer(odometer, truck.LastOdometer); err != nil {
		return TransportDelivery{}, wrapValidation(EntityTransport, t.ID, err)
	}

	reading := odometer
	t.StartOdometer, t.StartedAt, t.Status = &reading, s.stamp(), TransportInProgress
	s.transports.set(i, t)
	touched := []persistable{s.transports}
	events := []Event{{Type: EventTransportStarted, Entity: EntityTransport, Key: t.ID, Number: t.TransportNo, From: string(from), To: string(t.Status), Actor: actor}}
	if o.Status == OrderConfirmed {
		o.Status = OrderReceiving
		s.orders.set(oi, o)
		touched = append(touched, s.orders)
		events = append(events, Event{Type: EventOrderReceiving, Entity: EntityOrder, Key: o.ID, Number: o.OrderNo, From: string(OrderConfirmed), To: string(OrderReceiving), Actor: actor})
	}
	if jobEvents := s.syncDriverJob(t, actor); len(jobEvents) > 0 {
		touched = append(touched, s.driverJobs)
		events = append(events, jobEvents...)
	}
	s.flush(ctx, touched...)
	for _, evt := range events {
		s.emit(ctx, evt)
	}
	return cloneTransport(t), nil
}

func (s *Store) completeLocked(ctx context.Context, i int, in CompleteTransportInput) (TransportDelivery, error) {
	t := s.transports.at(i)
	from := t.Status
	if !from.CanTransition(TransportCompleted) {
		return TransportDelivery{}, transitionError(EntityTransport, t.ID, from, TransportCompleted)
	}
	if t.StartOdometer == nil {
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "start odometer is missing")
	}
	if err := trip.ValidateEndOdometer(in.EndOdometer, *t.StartOdometer); err != nil {
		return TransportDelivery{}, wrapValidation(EntityTransport, t.ID, err)
	}
	if in.FueledLiters != nil && *in.FueledLiters < 0 {
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "fueled liters must not be negative")
	}
	now := s.now()
	if t.StartedAt != nil && now.Before(*t.StartedAt) {
		return TransportDelivery{}, validationError(EntityTransport, t.ID, "completion precedes trip start")
	}

	reading := in.EndOdometer
	t.EndOdometer, t.EndedAt, t.Status = &reading, &now, TransportCompleted
	if in.FueledLiters != nil {
		liters := *in.FueledLiters
		t.FueledLiters = &liters
	}
	s.transports.set(i, t)
	touched := []persistable{s.transports}
	if ti := s.trucks.index(t.TruckID); ti >= 0 {
		truck := s.trucks.at(ti)
		truck.TotalTrips++
		truck.TotalOilDelivered += t.Quantity
		truck.LastTripDate = &now
		truck.LastOdometer = &reading
		s.trucks.set(ti, truck)
		touched = append(touched, s.trucks)
	}
	if t.TrailerID != "" {
		if ti := s.trailers.index(t.TrailerID); ti >= 0 {
			trailer := s.trailers.at(ti)
			trailer.TotalTrips++
			trailer.TotalOilDelivered += t.Quantity
			trailer.LastTripDate = &now
			s.trailers.set(ti, trailer)
			touched = append(touched, s.trailers)
		}
	}
	events := []Event{{Type: EventTransportCompleted, Entity: EntityTransport, Key: t.ID, Number: t.TransportNo, From: string(from), To: string(t.Status), Actor: in.Actor}}
	if jobEvents := s.syncDriverJob(t, in.Actor); len(jobEvents) > 0 {
		touched = append(touched, s.driverJobs)
		events = append(events, jobEvents...)
	}
	s.flush(ctx, touched...)
	for _, evt := range events {
		s.emit(ctx, evt)
	}
	return cloneTransport(t), nil
}

// GetTransport returns the transport with id.
func (s *Store) GetTransport(id string) (TransportDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transports.get(id)
	if !ok {
		return TransportDelivery{}, notFoundError(EntityTransport, id)
	}
	return t, nil
}

// GetTransportByNo returns the transport numbered no.
func (s *Store) GetTransportByNo(no string) (TransportDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transports.find(func(t TransportDelivery) bool { return t.TransportNo == no })
	if !ok {
		return TransportDelivery{}, notFoundError(EntityTransport, no)
	}
	return t, nil
}

// ListTransports returns every transport.
func (s *Store) ListTransports() []TransportDelivery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transports.all()
}

// ListTransportsByOrder returns the trips fulfilling orderID.
func (s *Store) ListTransportsByOrder(orderID string) []TransportDelivery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transports.filter(func(t TransportDelivery) bool { return t.OrderID == orderID })
}

// ListTransportsByBranch returns the trips delivering to branchID.
func (s *Store) ListTransportsByBranch(branchID int64) []TransportDelivery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transports.filter(func(t TransportDelivery) bool { return t.CoversBranch(branchID) })
}
