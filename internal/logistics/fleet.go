package logistics

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// TruckPatch carries the editable truck fields. Trip statistics are derived
// and cannot be patched.
type TruckPatch struct {
	PlateNo      *string
	Capacity     *float64
	Active       *bool
	LastOdometer *float64
}

// TrailerPatch carries the editable trailer fields.
type TrailerPatch struct {
	PlateNo  *string
	Capacity *float64
	Active   *bool
}

// CreateTruck registers a truck with zeroed statistics.
func (s *Store) CreateTruck(ctx context.Context, t TruckProfile) (TruckProfile, error) {
	t.PlateNo = normalisePlate(t.PlateNo)
	if t.PlateNo == "" {
		return TruckProfile{}, validationError(EntityTruck, t.ID, "plate number is required")
	}
	if t.Capacity < 0 {
		return TruckProfile{}, validationError(EntityTruck, t.ID, "capacity must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assignID(EntityTruck, &t.ID, func(id string) bool { return s.trucks.index(id) >= 0 }); err != nil {
		return TruckProfile{}, err
	}
	if s.trucks.exists(func(o TruckProfile) bool { return o.PlateNo == t.PlateNo }) {
		return TruckProfile{}, duplicateError(EntityTruck, t.PlateNo, "plate number already registered")
	}
	t.TotalTrips, t.TotalOilDelivered, t.LastTripDate = 0, 0, nil
	s.trucks.insert(t)
	s.flush(ctx, s.trucks)
	s.emit(ctx, Event{Type: EventTruckCreated, Entity: EntityTruck, Key: t.ID, Number: t.PlateNo})
	return t, nil
}

// UpdateTruck applies patch to the truck with id.
func (s *Store) UpdateTruck(ctx context.Context, id string, patch TruckPatch) (TruckProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.trucks.index(id)
	if i < 0 {
		return TruckProfile{}, notFoundError(EntityTruck, id)
	}
	t := s.trucks.at(i)
	if patch.PlateNo != nil {
		plate := normalisePlate(*patch.PlateNo)
		if plate == "" {
			return TruckProfile{}, validationError(EntityTruck, id, "plate number is required")
		}
		if s.trucks.exists(func(o TruckProfile) bool { return o.ID != id && o.PlateNo == plate }) {
			return TruckProfile{}, duplicateError(EntityTruck, plate, "plate number already registered")
		}
		t.PlateNo = plate
	}
	if patch.Capacity != nil {
		if *patch.Capacity < 0 {
			return TruckProfile{}, validationError(EntityTruck, id, "capacity must not be negative")
		}
		t.Capacity = *patch.Capacity
	}
	if patch.Active != nil {
		if !*patch.Active && s.truckOnTrip(id) {
			return TruckProfile{}, validationError(EntityTruck, id, "truck is on a trip in progress")
		}
		t.Active = *patch.Active
	}
	if patch.LastOdometer != nil {
		if t.LastOdometer != nil && *patch.LastOdometer < *t.LastOdometer {
			return TruckProfile{}, validationError(EntityTruck, id, "odometer cannot be wound back")
		}
		reading := *patch.LastOdometer
		t.LastOdometer = &reading
	}
	s.trucks.set(i, t)
	s.flush(ctx, s.trucks)
	s.emit(ctx, Event{Type: EventTruckUpdated, Entity: EntityTruck, Key: id, Number: t.PlateNo})
	return t, nil
}

// GetTruck returns the truck with id.
func (s *Store) GetTruck(id string) (TruckProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trucks.get(id)
	if !ok {
		return TruckProfile{}, notFoundError(EntityTruck, id)
	}
	return t, nil
}

// ListTrucks returns every truck.
func (s *Store) ListTrucks() []TruckProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trucks.all()
}

// CreateTrailer registers a trailer with zeroed statistics.
func (s *Store) CreateTrailer(ctx context.Context, t Trailer) (Trailer, error) {
	t.PlateNo = normalisePlate(t.PlateNo)
	if t.PlateNo == "" {
		return Trailer{}, validationError(EntityTrailer, t.ID, "plate number is required")
	}
	if t.Capacity < 0 {
		return Trailer{}, validationError(EntityTrailer, t.ID, "capacity must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assignID(EntityTrailer, &t.ID, func(id string) bool { return s.trailers.index(id) >= 0 }); err != nil {
		return Trailer{}, err
	}
	if s.trailers.exists(func(o Trailer) bool { return o.PlateNo == t.PlateNo }) {
		return Trailer{}, duplicateError(EntityTrailer, t.PlateNo, "plate number already registered")
	}
	t.TotalTrips, t.TotalOilDelivered, t.LastTripDate = 0, 0, nil
	s.trailers.insert(t)
	s.flush(ctx, s.trailers)
	s.emit(ctx, Event{Type: EventTrailerCreated, Entity: EntityTrailer, Key: t.ID, Number: t.PlateNo})
	return t, nil
}

// UpdateTrailer applies patch to the trailer with id.
func (s *Store) UpdateTrailer(ctx context.Context, id string, patch TrailerPatch) (Trailer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.trailers.index(id)
	if i < 0 {
		return Trailer{}, notFoundError(EntityTrailer, id)
	}
	t := s.trailers.at(i)
	if patch.PlateNo != nil {
		plate := normalisePlate(*patch.PlateNo)
		if plate == "" {
			return Trailer{}, validationError(EntityTrailer, id, "plate number is required")
		}
		if s.trailers.exists(func(o Trailer) bool { return o.ID != id && o.PlateNo == plate }) {
			return Trailer{}, duplicateError(EntityTrailer, plate, "plate number already registered")
		}
		t.PlateNo = plate
	}
	if patch.Capacity != nil {
		if *patch.Capacity < 0 {
			return Trailer{}, validationError(EntityTrailer, id, "capacity must not be negative")
		}
		t.Capacity = *patch.Capacity
	}
	if patch.Active != nil {
		if !*patch.Active && s.transports.exists(func(tr TransportDelivery) bool {
			return tr.TrailerID == id && tr.Status == TransportInProgress
		}) {
			return Trailer{}, validationError(EntityTrailer, id, "trailer is on a trip in progress")
		}
		t.Active = *patch.Active
	}
	s.trailers.set(i, t)
	s.flush(ctx, s.trailers)
	s.emit(ctx, Event{Type: EventTrailerUpdated, Entity: EntityTrailer, Key: id, Number: t.PlateNo})
	return t, nil
}

// GetTrailer returns the trailer with id.
func (s *Store) GetTrailer(id string) (Trailer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trailers.get(id)
	if !ok {
		return Trailer{}, notFoundError(EntityTrailer, id)
	}
	return t, nil
}

// ListTrailers returns every trailer.
func (s *Store) ListTrailers() []Trailer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trailers.all()
}

func (s *Store) truckOnTrip(truckID string) bool {
	return s.transports.exists(func(t TransportDelivery) bool {
		return t.TruckID == truckID && t.Status == TransportInProgress
	})
}

// normalisePlate folds width variants and letter case so the same plate
// typed on different keyboards compares equal.
func normalisePlate(plate string) string {
	plate = norm.NFKC.String(strings.TrimSpace(plate))
	return cases.Upper(language.Und).String(plate)
}
