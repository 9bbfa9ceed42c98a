package logistics

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/numbering"
)

// CreateDriverJob opens the driver-facing job for a transport. A transport
// has at most one job; the job starts in the status its transport implies.
func (s *Store) CreateDriverJob(ctx context.Context, j DriverJob) (DriverJob, error) {
	if j.TransportNo == "" {
		return DriverJob{}, validationError(EntityDriverJob, j.ID, "transport number is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transports.find(func(t TransportDelivery) bool { return t.TransportNo == j.TransportNo })
	if !ok {
		return DriverJob{}, notFoundError(EntityTransport, j.TransportNo)
	}
	if s.driverJobs.exists(func(o DriverJob) bool { return o.TransportNo == j.TransportNo }) {
		return DriverJob{}, duplicateError(EntityDriverJob, j.TransportNo, "transport already has a driver job")
	}
	expected := DriverJobStatusFor(t.Status, "")
	if j.Status == "" {
		j.Status = expected
	}
	if !DriverJobConsistent(t.Status, j.Status) {
		return DriverJob{}, transitionDetail(EntityDriverJob, j.ID, DriverJobStatus(""), j.Status, "transport "+t.TransportNo+" is "+string(t.Status))
	}
	if j.DriverName == "" {
		j.DriverName = t.DriverName
	}
	if j.ID == "" {
		id, err := s.AllocateNumber(ctx, numbering.DocDriverJob)
		if err != nil {
			return DriverJob{}, err
		}
		j.ID = id
	}
	if s.driverJobs.index(j.ID) >= 0 {
		return DriverJob{}, duplicateError(EntityDriverJob, j.ID, "id already exists")
	}
	now := s.now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	s.driverJobs.insert(j)
	s.flush(ctx, s.driverJobs)
	s.emit(ctx, Event{Type: EventDriverJobCreated, Entity: EntityDriverJob, Key: j.ID, Number: j.TransportNo, To: string(j.Status)})
	return j, nil
}

// AdvanceDriverJob moves the job with id to status to. The move must follow
// the job lifecycle and keep the job consistent with its transport, which in
// practice leaves en-route to delivering as the only manual step.
func (s *Store) AdvanceDriverJob(ctx context.Context, id string, to DriverJobStatus, actor string) (DriverJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.driverJobs.index(id)
	if i < 0 {
		return DriverJob{}, notFoundError(EntityDriverJob, id)
	}
	j := s.driverJobs.at(i)
	from := j.Status
	if !from.CanTransition(to) {
		return DriverJob{}, transitionError(EntityDriverJob, id, from, to)
	}
	t, ok := s.transports.find(func(t TransportDelivery) bool { return t.TransportNo == j.TransportNo })
	if !ok {
		return DriverJob{}, notFoundError(EntityTransport, j.TransportNo)
	}
	if !DriverJobConsistent(t.Status, to) {
		return DriverJob{}, transitionDetail(EntityDriverJob, id, from, to, "transport "+t.TransportNo+" is "+string(t.Status))
	}
	j.Status, j.UpdatedAt = to, s.now()
	s.driverJobs.set(i, j)
	s.flush(ctx, s.driverJobs)
	s.emit(ctx, Event{Type: EventDriverJobAdvanced, Entity: EntityDriverJob, Key: id, Number: j.TransportNo, From: string(from), To: string(to), Actor: actor})
	return j, nil
}

// syncDriverJob walks the transport's job, if any, one table step at a time
// until it matches the transport status, returning one event per step. It
// must be called with mu held; the caller flushes.
func (s *Store) syncDriverJob(t TransportDelivery, actor string) []Event {
	i := s.driverJobs.indexFunc(func(j DriverJob) bool { return j.TransportNo == t.TransportNo })
	if i < 0 {
		return nil
	}
	j := s.driverJobs.at(i)
	want := DriverJobStatusFor(t.Status, j.Status)
	var events []Event
	for j.Status != want {
		next := driverJobTransitions[j.Status]
		if len(next) == 0 {
			s.logger.Warn("driver job cannot follow transport",
				slog.String("transport_no", t.TransportNo),
				slog.String("job_status", string(j.Status)),
				slog.String("want", string(want)),
			)
			break
		}
		from := j.Status
		j.Status = next[0]
		events = append(events, Event{Type: EventDriverJobAdvanced, Entity: EntityDriverJob, Key: j.ID, Number: j.TransportNo, From: string(from), To: string(j.Status), Actor: actor})
	}
	if len(events) > 0 {
		j.UpdatedAt = s.now()
		s.driverJobs.set(i, j)
	}
	return events
}

// GetDriverJob returns the job with id.
func (s *Store) GetDriverJob(id string) (DriverJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.driverJobs.get(id)
	if !ok {
		return DriverJob{}, notFoundError(EntityDriverJob, id)
	}
	return j, nil
}

// GetDriverJobByTransportNo returns the job for the transport numbered no.
func (s *Store) GetDriverJobByTransportNo(no string) (DriverJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.driverJobs.find(func(j DriverJob) bool { return j.TransportNo == no })
	if !ok {
		return DriverJob{}, notFoundError(EntityDriverJob, no)
	}
	return j, nil
}

// ListDriverJobs returns every driver job.
func (s *Store) ListDriverJobs() []DriverJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.driverJobs.all()
}

// ListDriverJobsByDriver returns the jobs assigned to driverName.
func (s *Store) ListDriverJobsByDriver(driverName string) []DriverJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.driverJobs.filter(func(j DriverJob) bool { return j.DriverName == driverName })
}
