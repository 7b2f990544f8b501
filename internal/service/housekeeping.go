package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/queue"
	"github.com/iliyamo/hotel-operations/internal/repository"
)

// TaskStore persists housekeeping tasks.
type TaskStore interface {
	Create(ctx context.Context, req model.CleaningTaskRequest) (*model.HousekeepingTask, error)
	GetByID(ctx context.Context, id uint64) (*model.HousekeepingTask, error)
	List(ctx context.Context, f model.TaskFilter) ([]model.HousekeepingTask, error)
	Assign(ctx context.Context, id, staffID uint64) error
	Start(ctx context.Context, id uint64, at time.Time) error
	Complete(ctx context.Context, id uint64, at time.Time, notes string, issues []string) error
}

// IssueReporter turns an issue found during cleaning into maintenance work.
type IssueReporter interface {
	ReportIssue(ctx context.Context, actor model.Actor, roomID uint64, description string) error
}

// Housekeeping manages cleaning tasks. It is also the Ledger's TaskSpawner.
type Housekeeping struct {
	tasks   TaskStore
	rooms   RoomLocker
	issues  IssueReporter
	notify  Notifier
	events  EventPublisher
	effects *Dispatcher
	now     func() time.Time
}

type HousekeepingDeps struct {
	Tasks    TaskStore
	Rooms    RoomLocker
	Issues   IssueReporter
	Notifier Notifier
	Events   EventPublisher
	Effects  *Dispatcher
	Now      func() time.Time
}

func NewHousekeeping(d HousekeepingDeps) *Housekeeping {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Housekeeping{
		tasks:   d.Tasks,
		rooms:   d.Rooms,
		issues:  d.Issues,
		notify:  d.Notifier,
		events:  d.Events,
		effects: d.Effects,
		now:     d.Now,
	}
}

// SpawnCleaningTask creates a task on behalf of another component. It is
// called from a background effect, so follow-up publishing and
// notification happen inline.
func (h *Housekeeping) SpawnCleaningTask(ctx context.Context, req model.CleaningTaskRequest) error {
	h.defaults(&req)
	t, err := h.tasks.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("spawn cleaning task for room %d: %w", req.RoomID, err)
	}
	if err := h.events.Publish(ctx, queue.KeyHousekeepingTask, taskEvent(t)); err != nil {
		log.WithError(err).WithField("task_id", t.ID).Warn("publish housekeeping task")
	}
	if t.AssignedTo != nil {
		return h.notify.Notify(ctx, assignmentNotice(t, *t.AssignedTo))
	}
	return nil
}

// CreateTask creates a task requested by staff.
func (h *Housekeeping) CreateTask(ctx context.Context, req model.CleaningTaskRequest) (*model.HousekeepingTask, error) {
	if req.Type != "" && !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown task type %q", model.ErrInvalidInput, req.Type)
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", model.ErrInvalidInput, req.Priority)
	}
	h.defaults(&req)
	t, err := h.tasks.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	h.effects.Publish(h.events, queue.KeyHousekeepingTask, taskEvent(t))
	if t.AssignedTo != nil {
		h.effects.Notify(h.notify, assignmentNotice(t, *t.AssignedTo))
	}
	return t, nil
}

func (h *Housekeeping) defaults(req *model.CleaningTaskRequest) {
	if req.Type == "" {
		req.Type = model.TaskDailyCleaning
	}
	if !req.Priority.Valid() {
		req.Priority = model.PriorityMedium
	}
	if req.ScheduledDate.IsZero() {
		req.ScheduledDate = h.now()
	}
}

func (h *Housekeeping) Get(ctx context.Context, id uint64) (*model.HousekeepingTask, error) {
	return h.tasks.GetByID(ctx, id)
}

// List returns tasks matching f. Housekeeping staff only see their own.
func (h *Housekeeping) List(ctx context.Context, actor model.Actor, f model.TaskFilter) ([]model.HousekeepingTask, error) {
	if actor.Role == model.RoleHousekeeping {
		f.AssignedTo = actor.ID
	}
	return h.tasks.List(ctx, f)
}

// Assign hands a task to a staff member and notifies them.
func (h *Housekeeping) Assign(ctx context.Context, id, staffID uint64) (*model.HousekeepingTask, error) {
	if staffID == 0 {
		return nil, fmt.Errorf("%w: staff member is required", model.ErrInvalidInput)
	}
	if err := h.tasks.Assign(ctx, id, staffID); err != nil {
		return nil, err
	}
	t, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	h.effects.Notify(h.notify, assignmentNotice(t, staffID))
	return t, nil
}

// Start moves a Pending task to In Progress.
func (h *Housekeeping) Start(ctx context.Context, actor model.Actor, id uint64) (*model.HousekeepingTask, error) {
	t, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ownTask(actor, t); err != nil {
		return nil, err
	}
	if t.Status != model.TaskPending {
		return nil, model.ErrInvalidTransition
	}
	if err := h.tasks.Start(ctx, id, h.now()); err != nil {
		return nil, err
	}
	return h.tasks.GetByID(ctx, id)
}

// Complete closes a task. A room waiting in Cleaning leaves it (Occupied
// if it still has active bookings, otherwise Available) and its
// last-cleaned time is stamped. Each reported issue becomes a maintenance
// request.
func (h *Housekeeping) Complete(ctx context.Context, actor model.Actor, id uint64, notes string, issues []string) (*model.HousekeepingTask, error) {
	t, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ownTask(actor, t); err != nil {
		return nil, err
	}
	if t.Status == model.TaskCompleted || t.Status == model.TaskFailed {
		return nil, model.ErrInvalidTransition
	}
	found := make([]string, 0, len(issues))
	for _, is := range issues {
		if is = strings.TrimSpace(is); is != "" {
			found = append(found, is)
		}
	}
	now := h.now()
	if err := h.tasks.Complete(ctx, id, now, notes, found); err != nil {
		return nil, err
	}

	var roomEv *queue.RoomStatusEvent
	err = h.rooms.WithRoomLock(ctx, t.RoomID, func(tx repository.RoomTx) error {
		if tx.Room().Status == model.RoomCleaning {
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
		return tx.MarkCleaned(ctx, now)
	})
	if err != nil {
		return nil, err
	}

	if roomEv != nil {
		h.effects.Publish(h.events, queue.KeyRoomStatusChanged, roomEv)
	}
	done, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	h.effects.Publish(h.events, queue.KeyHousekeepingDone, taskEvent(done))
	for _, issue := range found {
		h.effects.Go("report_issue", log.Fields{"task_id": id, "room_id": t.RoomID}, func(ctx context.Context) error {
			return h.issues.ReportIssue(ctx, actor, t.RoomID, issue)
		})
	}
	return done, nil
}

// ownTask keeps housekeeping staff to the tasks assigned to them.
// Unassigned tasks may be picked up by anyone.
func ownTask(actor model.Actor, t *model.HousekeepingTask) error {
	if actor.Role == model.RoleHousekeeping && t.AssignedTo != nil && *t.AssignedTo != actor.ID {
		return model.ErrForbidden
	}
	return nil
}

func assignmentNotice(t *model.HousekeepingTask, staffID uint64) model.NotificationEvent {
	room := t.RoomNumber
	if room == "" {
		room = fmt.Sprintf("#%d", t.RoomID)
	}
	return model.NotificationEvent{
		RecipientID:    staffID,
		Title:          "New Housekeeping Task",
		Message:        fmt.Sprintf("%s assigned for room %s.", t.Type, room),
		Type:           model.NotifyHousekeeping,
		Priority:       t.Priority,
		RelatedEntity:  model.EntityRef{Type: "housekeeping_task", ID: t.ID},
		ActionRequired: true,
	}
}

func taskEvent(t *model.HousekeepingTask) queue.TaskEvent {
	return queue.TaskEvent{ID: t.ID, RoomID: t.RoomID, Type: string(t.Type), Priority: string(t.Priority), Status: string(t.Status)}
}
