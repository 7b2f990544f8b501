package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/queue"
	"github.com/iliyamo/hotel-operations/internal/repository"
)

// MaintenanceStore persists maintenance requests.
type MaintenanceStore interface {
	Create(ctx context.Context, m *model.MaintenanceRequest) error
	GetByID(ctx context.Context, id uint64) (*model.MaintenanceRequest, error)
	List(ctx context.Context, f model.MaintenanceFilter) ([]model.MaintenanceRequest, error)
	Update(ctx context.Context, m *model.MaintenanceRequest) error
	Assign(ctx context.Context, id, staffID uint64) error
	Complete(ctx context.Context, id uint64, at time.Time, actualCostCents int64, notes string) error
	Delete(ctx context.Context, id uint64) error
}

// Maintenance tracks repair work. A Critical request takes the room out
// of service until the request is completed.
type Maintenance struct {
	store   MaintenanceStore
	rooms   RoomLocker
	notify  Notifier
	events  EventPublisher
	effects *Dispatcher
	now     func() time.Time
}

func NewMaintenance(store MaintenanceStore, rooms RoomLocker, notify Notifier, events EventPublisher, effects *Dispatcher) *Maintenance {
	return &Maintenance{store: store, rooms: rooms, notify: notify, events: events, effects: effects, now: time.Now}
}

// Create records a request reported by actor.
func (s *Maintenance) Create(ctx context.Context, actor model.Actor, m *model.MaintenanceRequest) error {
	m.Description = strings.TrimSpace(m.Description)
	if m.Description == "" {
		return fmt.Errorf("%w: description is required", model.ErrInvalidInput)
	}
	if m.Type == "" {
		m.Type = model.MaintOther
	}
	if !m.Type.Valid() {
		return fmt.Errorf("%w: unknown maintenance type %q", model.ErrInvalidInput, m.Type)
	}
	if m.Priority == "" {
		m.Priority = model.PriorityMedium
	}
	if !m.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", model.ErrInvalidInput, m.Priority)
	}
	if m.EstimatedCostCents < 0 {
		return fmt.Errorf("%w: estimated cost cannot be negative", model.ErrInvalidInput)
	}
	m.ReportedBy = actor.ID

	// The request row is written before the room lock is taken: its
	// foreign key check would otherwise wait on our own row lock.
	if err := s.store.Create(ctx, m); err != nil {
		return err
	}
	if m.Priority == model.PriorityCritical {
		if err := s.takeOutOfService(ctx, m.RoomID); err != nil {
			return err
		}
	}
	s.effects.Publish(s.events, queue.KeyMaintenanceRequest, maintenanceEvent(m))
	if m.AssignedTo != nil {
		s.effects.Notify(s.notify, maintenanceAssigned(m, *m.AssignedTo))
	}
	return nil
}

func (s *Maintenance) takeOutOfService(ctx context.Context, roomID uint64) error {
	var roomEv *queue.RoomStatusEvent
	err := s.rooms.WithRoomLock(ctx, roomID, func(tx repository.RoomTx) error {
		var err error
		roomEv, err = moveRoom(ctx, tx, model.RoomMaintenance)
		return err
	})
	if err != nil {
		return fmt.Errorf("take room %d out of service: %w", roomID, err)
	}
	if roomEv != nil {
		s.effects.Publish(s.events, queue.KeyRoomStatusChanged, roomEv)
	}
	return nil
}

func maintenanceAssigned(m *model.MaintenanceRequest, staffID uint64) model.NotificationEvent {
	return model.NotificationEvent{
		RecipientID:    staffID,
		Title:          "New Maintenance Request",
		Message:        fmt.Sprintf("A %s priority %s request (#%d) has been assigned to you.", strings.ToLower(string(m.Priority)), m.Type, m.ID),
		Type:           model.NotifyMaintenance,
		Priority:       m.Priority,
		RelatedEntity:  model.EntityRef{Type: "maintenance_request", ID: m.ID},
		ActionRequired: true,
	}
}

// ReportIssue files a Medium request for an issue found while cleaning.
func (s *Maintenance) ReportIssue(ctx context.Context, actor model.Actor, roomID uint64, description string) error {
	return s.Create(ctx, actor, &model.MaintenanceRequest{
		RoomID:      roomID,
		Type:        model.MaintOther,
		Description: description,
		Priority:    model.PriorityMedium,
		Notes:       "Reported during housekeeping",
	})
}

func (s *Maintenance) Get(ctx context.Context, id uint64) (*model.MaintenanceRequest, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Maintenance) List(ctx context.Context, f model.MaintenanceFilter) ([]model.MaintenanceRequest, error) {
	return s.store.List(ctx, f)
}

// Update applies p to an open request. Completion goes through Complete;
// raising the priority to Critical takes the room out of service.
func (s *Maintenance) Update(ctx context.Context, id uint64, p model.MaintenancePatch) (*model.MaintenanceRequest, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status.Closed() {
		return nil, model.ErrInvalidTransition
	}
	wasCritical := m.Priority == model.PriorityCritical
	if p.Type != nil {
		if !p.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown maintenance type %q", model.ErrInvalidInput, *p.Type)
		}
		m.Type = *p.Type
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		if d == "" {
			return nil, fmt.Errorf("%w: description is required", model.ErrInvalidInput)
		}
		m.Description = d
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", model.ErrInvalidInput, *p.Priority)
		}
		m.Priority = *p.Priority
	}
	if p.Status != nil {
		switch *p.Status {
		case model.MaintPending, model.MaintInProgress, model.MaintCancelled:
			m.Status = *p.Status
		case model.MaintCompleted:
			return nil, fmt.Errorf("%w: use complete to close a request", model.ErrInvalidTransition)
		default:
			return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, *p.Status)
		}
	}
	if p.EstimatedCostCents != nil {
		if *p.EstimatedCostCents < 0 {
			return nil, fmt.Errorf("%w: estimated cost cannot be negative", model.ErrInvalidInput)
		}
		m.EstimatedCostCents = *p.EstimatedCostCents
	}
	if p.ScheduledDate != nil {
		at := p.ScheduledDate.UTC()
		m.ScheduledDate = &at
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if err := s.store.Update(ctx, m); err != nil {
		return nil, err
	}
	if !wasCritical && m.Priority == model.PriorityCritical && !m.Status.Closed() {
		if err := s.takeOutOfService(ctx, m.RoomID); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Assign hands an open request to a staff member and notifies them.
func (s *Maintenance) Assign(ctx context.Context, id, staffID uint64) (*model.MaintenanceRequest, error) {
	if staffID == 0 {
		return nil, fmt.Errorf("%w: staff member is required", model.ErrInvalidInput)
	}
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status.Closed() {
		return nil, model.ErrInvalidTransition
	}
	if err := s.store.Assign(ctx, id, staffID); err != nil {
		return nil, err
	}
	m.AssignedTo = &staffID
	s.effects.Notify(s.notify, maintenanceAssigned(m, staffID))
	return m, nil
}

// Delete removes a request. The room's status is left as it is.
func (s *Maintenance) Delete(ctx context.Context, id uint64) error {
	return s.store.Delete(ctx, id)
}

// Complete closes a request. A room held in Maintenance or OutOfOrder
// returns to service and its last-maintenance time is stamped; the
// reporter is notified.
func (s *Maintenance) Complete(ctx context.Context, id uint64, actualCostCents int64, notes string) (*model.MaintenanceRequest, error) {
	if actualCostCents < 0 {
		return nil, fmt.Errorf("%w: actual cost cannot be negative", model.ErrInvalidInput)
	}
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status.Closed() {
		return nil, model.ErrInvalidTransition
	}
	now := s.now()
	if err := s.store.Complete(ctx, id, now, actualCostCents, notes); err != nil {
		return nil, err
	}

	var roomEv *queue.RoomStatusEvent
	err = s.rooms.WithRoomLock(ctx, m.RoomID, func(tx repository.RoomTx) error {
		if st := tx.Room().Status; st == model.RoomMaintenance || st == model.RoomOutOfOrder {
			remaining, err := tx.ActiveBookings(ctx)
			if err != nil {
				return err
			}
			next := model.RoomAvailable
			if len(remaining) > 0 {
				next = model.RoomOccupied
			}
			if roomEv, err = moveRoom(ctx, tx, next); err != nil {
				return err
			}
		}
		return tx.MarkMaintained(ctx, now)
	})
	if err != nil {
		return nil, err
	}

	done, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if roomEv != nil {
		s.effects.Publish(s.events, queue.KeyRoomStatusChanged, roomEv)
	}
	s.effects.Publish(s.events, queue.KeyMaintenanceDone, maintenanceEvent(done))
	if done.ReportedBy != 0 {
		s.effects.Notify(s.notify, model.NotificationEvent{
			RecipientID:   done.ReportedBy,
			Title:         "Maintenance Completed",
			Message:       fmt.Sprintf("%s maintenance request #%d has been completed.", done.Type, done.ID),
			Type:          model.NotifyMaintenance,
			Priority:      model.PriorityLow,
			RelatedEntity: model.EntityRef{Type: "maintenance_request", ID: done.ID},
		})
	}
	return done, nil
}

func maintenanceEvent(m *model.MaintenanceRequest) queue.TaskEvent {
	return queue.TaskEvent{ID: m.ID, RoomID: m.RoomID, Type: string(m.Type), Priority: string(m.Priority), Status: string(m.Status)}
}
