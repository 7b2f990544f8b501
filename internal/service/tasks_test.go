package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/queue"
)

type memTasks struct {
	mu    sync.Mutex
	next  uint64
	tasks map[uint64]*model.HousekeepingTask
}

func newMemTasks() *memTasks { return &memTasks{tasks: map[uint64]*model.HousekeepingTask{}} }

func (s *memTasks) Create(_ context.Context, req model.CleaningTaskRequest) (*model.HousekeepingTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	t := &model.HousekeepingTask{
		ID: s.next, RoomID: req.RoomID, BookingID: req.BookingID, AssignedTo: req.AssignedTo,
		Type: req.Type, Priority: req.Priority, Status: model.TaskPending,
		ScheduledDate: req.ScheduledDate, Notes: req.Notes,
	}
	s.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (s *memTasks) GetByID(_ context.Context, id uint64) (*model.HousekeepingTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTasks) List(_ context.Context, f model.TaskFilter) ([]model.HousekeepingTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.HousekeepingTask{}
	for id := uint64(1); id <= s.next; id++ {
		t, ok := s.tasks[id]
		if !ok {
			continue
		}
		if f.AssignedTo != 0 && (t.AssignedTo == nil || *t.AssignedTo != f.AssignedTo) {
			continue
		}
		if (f.Status != "" && t.Status != f.Status) || (f.RoomID != 0 && t.RoomID != f.RoomID) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *memTasks) update(id uint64, fn func(*model.HousekeepingTask)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.ErrTaskNotFound
	}
	fn(t)
	return nil
}

func (s *memTasks) Assign(_ context.Context, id, staffID uint64) error {
	return s.update(id, func(t *model.HousekeepingTask) { t.AssignedTo = &staffID })
}

func (s *memTasks) Start(_ context.Context, id uint64, at time.Time) error {
	return s.update(id, func(t *model.HousekeepingTask) {
		t.Status = model.TaskInProgress
		t.StartTime = &at
	})
}

func (s *memTasks) Complete(_ context.Context, id uint64, at time.Time, notes string, issues []string) error {
	return s.update(id, func(t *model.HousekeepingTask) {
		t.Status = model.TaskCompleted
		t.EndTime = &at
		t.Notes = notes
		t.IssuesFound = issues
	})
}

type memMaintenance struct {
	mu   sync.Mutex
	next uint64
	reqs map[uint64]*model.MaintenanceRequest
}

func newMemMaintenance() *memMaintenance {
	return &memMaintenance{reqs: map[uint64]*model.MaintenanceRequest{}}
}

func (s *memMaintenance) Create(_ context.Context, m *model.MaintenanceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	m.ID = s.next
	m.Status = model.MaintPending
	cp := *m
	s.reqs[m.ID] = &cp
	return nil
}

func (s *memMaintenance) GetByID(_ context.Context, id uint64) (*model.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.reqs[id]
	if !ok {
		return nil, model.ErrMaintenanceNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memMaintenance) List(_ context.Context, f model.MaintenanceFilter) ([]model.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.MaintenanceRequest{}
	for _, m := range s.reqs {
		if (f.Priority == "" || m.Priority == f.Priority) && (f.RoomID == 0 || m.RoomID == f.RoomID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memMaintenance) Complete(_ context.Context, id uint64, at time.Time, cost int64, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.reqs[id]
	if !ok {
		return model.ErrMaintenanceNotFound
	}
	m.Status = model.MaintCompleted
	m.CompletedDate = &at
	m.ActualCostCents = cost
	m.Notes = notes
	return nil
}

func (s *memMaintenance) Update(_ context.Context, m *model.MaintenanceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reqs[m.ID]; !ok {
		return model.ErrMaintenanceNotFound
	}
	cp := *m
	s.reqs[m.ID] = &cp
	return nil
}

func (s *memMaintenance) Assign(_ context.Context, id, staffID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.reqs[id]
	if !ok {
		return model.ErrMaintenanceNotFound
	}
	m.AssignedTo = &staffID
	return nil
}

func (s *memMaintenance) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reqs[id]; !ok {
		return model.ErrMaintenanceNotFound
	}
	delete(s.reqs, id)
	return nil
}

type opsHarness struct {
	*harness
	tasks *memTasks
	maint *memMaintenance
	hk    *Housekeeping
	mt    *Maintenance
}

func newOpsHarness(t *testing.T) *opsHarness {
	h := newHarness(t, 0.10)
	o := &opsHarness{harness: h, tasks: newMemTasks(), maint: newMemMaintenance()}
	o.mt = NewMaintenance(o.maint, memRooms{h.db}, h.rec, h.rec, h.effects)
	o.hk = NewHousekeeping(HousekeepingDeps{
		Tasks:    o.tasks,
		Rooms:    memRooms{h.db},
		Issues:   h.rec,
		Notifier: h.rec,
		Events:   h.rec,
		Effects:  h.effects,
		Now:      func() time.Time { return clock },
	})
	return o
}

func TestHousekeeping_CompleteReleasesCleaningRoom(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomCleaning)
	task, err := o.hk.CreateTask(context.Background(), model.CleaningTaskRequest{RoomID: room})
	require.NoError(t, err)
	assert.Equal(t, model.TaskDailyCleaning, task.Type)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, clock, task.ScheduledDate)

	started, err := o.hk.Start(context.Background(), maid, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskInProgress, started.Status)

	done, err := o.hk.Complete(context.Background(), maid, task.ID, "all good", []string{" leaking tap ", ""})
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, done.Status)
	assert.Equal(t, []string{"leaking tap"}, done.IssuesFound)

	rm := o.db.room(room)
	assert.Equal(t, model.RoomAvailable, rm.Status)
	require.NotNil(t, rm.LastCleaned)
	assert.Equal(t, clock, *rm.LastCleaned)

	o.effects.Wait()
	assert.Equal(t, []string{"leaking tap"}, o.rec.issues)
	assert.Equal(t, 1, o.rec.eventCount(queue.KeyHousekeepingDone))
}

func TestHousekeeping_CompleteKeepsBookedRoomOccupied(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomAvailable)
	b, err := o.book(guest, room, "2024-12-01", "2024-12-03")
	require.NoError(t, err)
	_, err = o.ledger.CheckIn(context.Background(), desk, b.ID, "")
	require.NoError(t, err)
	_, err = o.book(stranger, room, "2024-12-10", "2024-12-12")
	require.NoError(t, err)
	_, err = o.ledger.CheckOut(context.Background(), desk, b.ID, model.CheckoutInput{})
	require.NoError(t, err)
	assert.Equal(t, model.RoomCleaning, o.db.room(room).Status)

	task, err := o.hk.CreateTask(context.Background(), model.CleaningTaskRequest{RoomID: room, Type: model.TaskCheckoutCleaning})
	require.NoError(t, err)
	_, err = o.hk.Complete(context.Background(), maid, task.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoomOccupied, o.db.room(room).Status)
}

func TestHousekeeping_DailyCleaningLeavesOccupiedRoom(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomOccupied)
	task, err := o.hk.CreateTask(context.Background(), model.CleaningTaskRequest{RoomID: room})
	require.NoError(t, err)

	_, err = o.hk.Complete(context.Background(), maid, task.ID, "", nil)
	require.NoError(t, err)
	rm := o.db.room(room)
	assert.Equal(t, model.RoomOccupied, rm.Status)
	assert.NotNil(t, rm.LastCleaned)
}

func TestHousekeeping_Ownership(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomCleaning)
	other := uint64(99)
	task, err := o.hk.CreateTask(context.Background(), model.CleaningTaskRequest{RoomID: room, AssignedTo: &other})
	require.NoError(t, err)

	_, err = o.hk.Start(context.Background(), maid, task.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = o.hk.Complete(context.Background(), maid, task.ID, "", nil)
	assert.ErrorIs(t, err, model.ErrForbidden)

	mgr := model.Actor{ID: 3, Role: model.RoleManager}
	_, err = o.hk.Complete(context.Background(), mgr, task.ID, "", nil)
	require.NoError(t, err)
	_, err = o.hk.Complete(context.Background(), mgr, task.ID, "", nil)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	mine, err := o.hk.List(context.Background(), maid, model.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, mine)
	all, err := o.hk.List(context.Background(), mgr, model.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestHousekeeping_AssignNotifiesStaff(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "204", 8000, model.RoomCleaning)
	task, err := o.hk.CreateTask(context.Background(), model.CleaningTaskRequest{RoomID: room})
	require.NoError(t, err)

	_, err = o.hk.Assign(context.Background(), task.ID, 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	got, err := o.hk.Assign(context.Background(), task.ID, maid.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, maid.ID, *got.AssignedTo)

	o.effects.Wait()
	require.Len(t, o.rec.notes, 1)
	assert.Equal(t, maid.ID, o.rec.notes[0].RecipientID)
	assert.Equal(t, model.NotifyHousekeeping, o.rec.notes[0].Type)
	assert.True(t, o.rec.notes[0].ActionRequired)
}

func TestHousekeeping_SpawnFromCheckout(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomCleaning)
	bookingID := uint64(11)

	err := o.hk.SpawnCleaningTask(context.Background(), model.CleaningTaskRequest{
		RoomID: room, Type: model.TaskCheckoutCleaning, Priority: model.PriorityHigh, BookingID: &bookingID,
	})
	require.NoError(t, err)

	tasks, err := o.hk.List(context.Background(), desk, model.TaskFilter{RoomID: room})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskCheckoutCleaning, tasks[0].Type)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, model.TaskPending, tasks[0].Status)
	assert.Equal(t, 1, o.rec.eventCount(queue.KeyHousekeepingTask))
}

func TestHousekeeping_RejectsUnknownType(t *testing.T) {
	o := newOpsHarness(t)
	_, err := o.hk.CreateTask(context.Background(), model.CleaningTaskRequest{RoomID: 1, Type: "Polishing"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestMaintenance_CriticalTakesRoomOutOfService(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomAvailable)

	req := &model.MaintenanceRequest{RoomID: room, Type: model.MaintPlumbing, Description: "burst pipe", Priority: model.PriorityCritical}
	require.NoError(t, o.mt.Create(context.Background(), maid, req))
	assert.Equal(t, maid.ID, req.ReportedBy)
	assert.Equal(t, model.RoomMaintenance, o.db.room(room).Status)

	_, err := o.book(guest, room, "2024-12-01", "2024-12-02")
	assert.ErrorIs(t, err, model.ErrRoomUnavailable)

	done, err := o.mt.Complete(context.Background(), req.ID, 4500, "replaced")
	require.NoError(t, err)
	assert.Equal(t, model.MaintCompleted, done.Status)
	assert.Equal(t, int64(4500), done.ActualCostCents)
	rm := o.db.room(room)
	assert.Equal(t, model.RoomAvailable, rm.Status)
	assert.NotNil(t, rm.LastMaintenance)

	o.effects.Wait()
	require.Len(t, o.rec.notes, 1)
	assert.Equal(t, maid.ID, o.rec.notes[0].RecipientID)
	assert.Equal(t, "Maintenance Completed", o.rec.notes[0].Title)
	assert.Equal(t, 1, o.rec.eventCount(queue.KeyMaintenanceDone))

	_, err = o.mt.Complete(context.Background(), req.ID, 0, "")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestMaintenance_RoutineRequestLeavesRoomAlone(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomOccupied)

	req := &model.MaintenanceRequest{RoomID: room, Description: "wobbly chair"}
	require.NoError(t, o.mt.Create(context.Background(), desk, req))
	assert.Equal(t, model.MaintOther, req.Type)
	assert.Equal(t, model.PriorityMedium, req.Priority)
	assert.Equal(t, model.RoomOccupied, o.db.room(room).Status)

	_, err := o.mt.Complete(context.Background(), req.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, model.RoomOccupied, o.db.room(room).Status)
}

func TestMaintenance_Validation(t *testing.T) {
	o := newOpsHarness(t)
	cases := []*model.MaintenanceRequest{
		{RoomID: 1, Description: "  "},
		{RoomID: 1, Description: "x", Type: "Roofing"},
		{RoomID: 1, Description: "x", Priority: "Urgent"},
		{RoomID: 1, Description: "x", EstimatedCostCents: -1},
	}
	for _, m := range cases {
		assert.ErrorIs(t, o.mt.Create(context.Background(), desk, m), model.ErrInvalidInput)
	}
	_, err := o.mt.Complete(context.Background(), 1, -5, "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestMaintenance_ReportIssue(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomCleaning)

	require.NoError(t, o.mt.ReportIssue(context.Background(), maid, room, "broken lamp"))
	reqs, err := o.mt.List(context.Background(), model.MaintenanceFilter{RoomID: room})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "broken lamp", reqs[0].Description)
	assert.Equal(t, model.PriorityMedium, reqs[0].Priority)
	assert.Equal(t, maid.ID, reqs[0].ReportedBy)
}

func TestMaintenance_AssigneeIsNotified(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomAvailable)
	tech := uint64(42)

	req := &model.MaintenanceRequest{RoomID: room, Type: model.MaintHVAC, Description: "no cooling", Priority: model.PriorityHigh, AssignedTo: &tech}
	require.NoError(t, o.mt.Create(context.Background(), desk, req))
	o.effects.Wait()
	require.Len(t, o.rec.notes, 1)
	assert.Equal(t, tech, o.rec.notes[0].RecipientID)
	assert.Equal(t, "New Maintenance Request", o.rec.notes[0].Title)
	assert.True(t, o.rec.notes[0].ActionRequired)
	assert.Equal(t, model.PriorityHigh, o.rec.notes[0].Priority)

	other := uint64(43)
	got, err := o.mt.Assign(context.Background(), req.ID, other)
	require.NoError(t, err)
	assert.Equal(t, other, *got.AssignedTo)
	o.effects.Wait()
	require.Len(t, o.rec.notes, 2)
	assert.Equal(t, other, o.rec.notes[1].RecipientID)

	_, err = o.mt.Assign(context.Background(), req.ID, 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = o.mt.Assign(context.Background(), 999, other)
	assert.ErrorIs(t, err, model.ErrMaintenanceNotFound)
}

func TestMaintenance_Update(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomAvailable)
	req := &model.MaintenanceRequest{RoomID: room, Description: "dripping tap"}
	require.NoError(t, o.mt.Create(context.Background(), desk, req))

	status := model.MaintInProgress
	cost := int64(2500)
	desc := " leaking tap "
	got, err := o.mt.Update(context.Background(), req.ID, model.MaintenancePatch{Status: &status, EstimatedCostCents: &cost, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, model.MaintInProgress, got.Status)
	assert.Equal(t, cost, got.EstimatedCostCents)
	assert.Equal(t, "leaking tap", got.Description)
	assert.Equal(t, model.RoomAvailable, o.db.room(room).Status)

	critical := model.PriorityCritical
	_, err = o.mt.Update(context.Background(), req.ID, model.MaintenancePatch{Priority: &critical})
	require.NoError(t, err)
	assert.Equal(t, model.RoomMaintenance, o.db.room(room).Status)

	completed := model.MaintCompleted
	_, err = o.mt.Update(context.Background(), req.ID, model.MaintenancePatch{Status: &completed})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	bogus := model.MaintenanceStatus("Paused")
	_, err = o.mt.Update(context.Background(), req.ID, model.MaintenancePatch{Status: &bogus})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	neg := int64(-1)
	_, err = o.mt.Update(context.Background(), req.ID, model.MaintenancePatch{EstimatedCostCents: &neg})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	cancelled := model.MaintCancelled
	_, err = o.mt.Update(context.Background(), req.ID, model.MaintenancePatch{Status: &cancelled})
	require.NoError(t, err)
	_, err = o.mt.Update(context.Background(), req.ID, model.MaintenancePatch{Notes: &desc})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	_, err = o.mt.Assign(context.Background(), req.ID, 42)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestMaintenance_Delete(t *testing.T) {
	o := newOpsHarness(t)
	room := o.addRoom(t, "R", 8000, model.RoomAvailable)
	req := &model.MaintenanceRequest{RoomID: room, Description: "scratched door"}
	require.NoError(t, o.mt.Create(context.Background(), desk, req))

	require.NoError(t, o.mt.Delete(context.Background(), req.ID))
	_, err := o.mt.Get(context.Background(), req.ID)
	assert.ErrorIs(t, err, model.ErrMaintenanceNotFound)
	assert.ErrorIs(t, o.mt.Delete(context.Background(), req.ID), model.ErrMaintenanceNotFound)
}
