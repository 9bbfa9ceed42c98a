package logistics

import (
	"context"
	"slices"
	"strconv"
)

// ImportReferenceData replaces branches and legal entities and adds trucks
// and trailers that are not known yet. Existing fleet profiles keep their
// statistics.
func (s *Store) ImportReferenceData(ctx context.Context, data ReferenceData) error {
	seenBranch := make(map[int64]struct{}, len(data.Branches))
	for _, b := range data.Branches {
		key := strconv.FormatInt(b.ID, 10)
		if b.ID <= 0 {
			return validationError(EntityBranch, key, "id must be positive")
		}
		if b.Name == "" {
			return validationError(EntityBranch, key, "name is required")
		}
		if _, dup := seenBranch[b.ID]; dup {
			return duplicateError(EntityBranch, key, "branch listed twice")
		}
		seenBranch[b.ID] = struct{}{}
	}
	seenEntity := make(map[string]struct{}, len(data.LegalEntities))
	for _, e := range data.LegalEntities {
		if e.ID == "" || e.Name == "" {
			return validationError(EntityLegalEntity, e.ID, "id and name are required")
		}
		if _, dup := seenEntity[e.ID]; dup {
			return duplicateError(EntityLegalEntity, e.ID, "legal entity listed twice")
		}
		seenEntity[e.ID] = struct{}{}
	}
	data.Trucks, data.Trailers = slices.Clone(data.Trucks), slices.Clone(data.Trailers)
	for i, t := range data.Trucks {
		data.Trucks[i].PlateNo = normalisePlate(t.PlateNo)
		if t.ID == "" || data.Trucks[i].PlateNo == "" {
			return validationError(EntityTruck, t.ID, "id and plate number are required")
		}
	}
	for i, t := range data.Trailers {
		data.Trailers[i].PlateNo = normalisePlate(t.PlateNo)
		if t.ID == "" || data.Trailers[i].PlateNo == "" {
			return validationError(EntityTrailer, t.ID, "id and plate number are required")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkReferencesKept(data); err != nil {
		return err
	}
	err := checkImportedPlates(EntityTruck, data.Trucks,
		func(t TruckProfile) (string, string) { return t.ID, t.PlateNo },
		func(id, plate string) bool {
			return s.trucks.exists(func(o TruckProfile) bool { return o.ID != id && o.PlateNo == plate })
		})
	if err != nil {
		return err
	}
	err = checkImportedPlates(EntityTrailer, data.Trailers,
		func(t Trailer) (string, string) { return t.ID, t.PlateNo },
		func(id, plate string) bool {
			return s.trailers.exists(func(o Trailer) bool { return o.ID != id && o.PlateNo == plate })
		})
	if err != nil {
		return err
	}

	s.branches.replace(append([]Branch(nil), data.Branches...))
	s.legalEntities.replace(append([]LegalEntity(nil), data.LegalEntities...))
	var trucks, trailers int
	for _, t := range data.Trucks {
		if s.trucks.index(t.ID) >= 0 {
			continue
		}
		t.TotalTrips, t.TotalOilDelivered, t.LastTripDate = 0, 0, nil
		s.trucks.insert(t)
		trucks++
	}
	for _, t := range data.Trailers {
		if s.trailers.index(t.ID) >= 0 {
			continue
		}
		t.TotalTrips, t.TotalOilDelivered, t.LastTripDate = 0, 0, nil
		s.trailers.insert(t)
		trailers++
	}
	s.flush(ctx, s.branches, s.legalEntities, s.trucks, s.trailers)
	s.logger.InfoContext(ctx, "reference data imported",
		"branches", len(data.Branches), "legal_entities", len(data.LegalEntities),
		"new_trucks", trucks, "new_trailers", trailers)
	s.emit(ctx, Event{Type: EventReferenceImported, Entity: EntityBranch, Key: "*"})
	return nil
}

// checkReferencesKept refuses an import that would drop a branch or legal
// entity still referenced by an open order, an unfinished transport or an
// oil receipt that is not yet settled. mu must be held.
func (s *Store) checkReferencesKept(data ReferenceData) error {
	branches := make(map[int64]struct{}, len(data.Branches))
	for _, b := range data.Branches {
		branches[b.ID] = struct{}{}
	}
	entities := make(map[string]struct{}, len(data.LegalEntities))
	for _, e := range data.LegalEntities {
		entities[e.ID] = struct{}{}
	}
	dropped := func(ids []int64) (int64, bool) {
		for _, id := range ids {
			if _, ok := branches[id]; !ok {
				return id, true
			}
		}
		return 0, false
	}

	for _, o := range s.orders.items {
		if o.Status.IsTerminal() {
			continue
		}
		if id, ok := dropped(o.BranchIDs); ok {
			return validationError(EntityBranch, strconv.FormatInt(id, 10), "still referenced by "+EntityOrder+" "+o.OrderNo)
		}
		if o.LegalEntityID == "" {
			continue
		}
		if _, ok := entities[o.LegalEntityID]; !ok {
			return validationError(EntityLegalEntity, o.LegalEntityID, "still referenced by "+EntityOrder+" "+o.OrderNo)
		}
	}
	for _, t := range s.transports.items {
		if t.Status == TransportCompleted {
			continue
		}
		if id, ok := dropped(t.BranchIDs); ok {
			return validationError(EntityBranch, strconv.FormatInt(id, 10), "still referenced by "+EntityTransport+" "+t.TransportNo)
		}
	}
	for _, r := range s.oilReceipts.items {
		if _, ok := branches[r.BranchID]; ok || s.reconcileLocked(r).State.Settled() {
			continue
		}
		return validationError(EntityBranch, strconv.FormatInt(r.BranchID, 10), "still referenced by "+EntityOilReceipt+" "+r.ReceiptNo)
	}
	return nil
}

// checkImportedPlates rejects a plate listed twice in the file or already
// registered to another vehicle. Plates are normalised by then.
func checkImportedPlates[T any](entity string, incoming []T, key func(T) (string, string), registered func(id, plate string) bool) error {
	seen := make(map[string]string, len(incoming))
	for _, v := range incoming {
		id, plate := key(v)
		if other, dup := seen[plate]; dup && other != id {
			return duplicateError(entity, plate, "plate number listed for "+other+" and "+id)
		}
		seen[plate] = id
		if registered(id, plate) {
			return duplicateError(entity, plate, "plate number already registered")
		}
	}
	return nil
}

// GetBranch returns the branch with id.
func (s *Store) GetBranch(id int64) (Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.branches.get(strconv.FormatInt(id, 10))
	if !ok {
		return Branch{}, notFoundError(EntityBranch, strconv.FormatInt(id, 10))
	}
	return b, nil
}

// ListBranches returns all branches.
func (s *Store) ListBranches() []Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.branches.all()
}

// GetLegalEntity returns the legal entity with id.
func (s *Store) GetLegalEntity(id string) (LegalEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.legalEntities.get(id)
	if !ok {
		return LegalEntity{}, notFoundError(EntityLegalEntity, id)
	}
	return e, nil
}

// ListLegalEntities returns all legal entities.
func (s *Store) ListLegalEntities() []LegalEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.legalEntities.all()
}

func (s *Store) requireBranches(entity, key string, ids []int64) error {
	if len(ids) == 0 {
		return validationError(entity, key, "at least one branch is required")
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return validationError(entity, key, "branch "+strconv.FormatInt(id, 10)+" listed twice")
		}
		seen[id] = struct{}{}
		if s.branches.index(strconv.FormatInt(id, 10)) < 0 {
			return notFoundError(EntityBranch, strconv.FormatInt(id, 10))
		}
	}
	return nil
}
