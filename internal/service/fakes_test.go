package service

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL tables used by the ledger.
// WithRoomLock holds a real per-room mutex and stages writes until fn
// succeeds, mirroring SELECT ... FOR UPDATE plus commit/rollback.
type memDB struct {
	mu       sync.Mutex
	rooms    map[uint64]*model.Room
	bookings map[uint64]*model.Booking
	locks    map[uint64]*sync.Mutex
	nextID   uint64
}

func newMemDB() *memDB {
	return &memDB{
		rooms:    map[uint64]*model.Room{},
		bookings: map[uint64]*model.Booking{},
		locks:    map[uint64]*sync.Mutex{},
	}
}

func (m *memDB) id() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID
}

func (m *memDB) roomLock(id uint64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *memDB) room(id uint64) model.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rooms[id]
}

func (m *memDB) booking(id uint64) (model.Booking, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return model.Booking{}, false
	}
	return *b, true
}

func (m *memDB) countBookings(roomID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.RoomID == roomID {
			n++
		}
	}
	return n
}

// memRooms implements RoomStore.
type memRooms struct{ *memDB }

func (r memRooms) Create(_ context.Context, rm *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.rooms {
		if ex.RoomNumber == rm.RoomNumber {
			return model.ErrDuplicateRoomNumber
		}
	}
	r.nextID++
	rm.ID = r.nextID
	cp := *rm
	r.rooms[rm.ID] = &cp
	return nil
}

func (r memRooms) GetByID(_ context.Context, id uint64) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	cp := *rm
	return &cp, nil
}

func (r memRooms) List(_ context.Context, f model.RoomFilter) ([]model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Room{}
	for _, rm := range r.rooms {
		if (f.Type == "" || rm.Type == f.Type) && (f.Status == "" || rm.Status == f.Status) &&
			(f.Floor == nil || rm.Floor == *f.Floor) {
			out = append(out, *rm)
		}
	}
	sortRooms(out)
	return out, nil
}

func (r memRooms) ListVacant(_ context.Context, roomType string) ([]model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Room{}
	for _, rm := range r.rooms {
		if rm.IsActive && rm.Status == model.RoomAvailable && (roomType == "" || rm.Type == roomType) {
			out = append(out, *rm)
		}
	}
	sortRooms(out)
	return out, nil
}

func (r memRooms) ListFree(_ context.Context, stay model.Interval, roomType string) ([]model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Room{}
	for _, rm := range r.rooms {
		if !rm.IsActive || !rm.Status.Bookable() || (roomType != "" && rm.Type != roomType) {
			continue
		}
		free := true
		for _, b := range r.bookings {
			if b.RoomID == rm.ID && b.Status.Active() && b.Stay().Overlaps(stay) {
				free = false
				break
			}
		}
		if free {
			out = append(out, *rm)
		}
	}
	sortRooms(out)
	return out, nil
}

func (r memRooms) Update(_ context.Context, rm *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.rooms[rm.ID]
	if !ok {
		return model.ErrRoomNotFound
	}
	cp := *rm
	cp.Status = ex.Status
	r.rooms[rm.ID] = &cp
	return nil
}

func (r memRooms) WithRoomLock(_ context.Context, roomID uint64, fn func(repository.RoomTx) error) error {
	l := r.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	rm, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return model.ErrRoomNotFound
	}
	tx := &memTx{db: r.memDB, room: *rm, staged: map[uint64]model.Booking{}, deleted: map[uint64]bool{}}
	for id, b := range r.bookings {
		if b.RoomID == roomID {
			tx.staged[id] = *b
		}
	}
	r.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func sortRooms(rs []model.Room) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].RoomNumber < rs[j].RoomNumber })
}

type memTx struct {
	db          *memDB
	room        model.Room
	staged      map[uint64]model.Booking
	deleted     map[uint64]bool
	roomDeleted bool
}

func (t *memTx) Room() *model.Room { return &t.room }

func (t *memTx) SetRoomStatus(_ context.Context, s model.RoomStatus) error {
	t.room.Status = s
	return nil
}

func (t *memTx) MarkCleaned(_ context.Context, at time.Time) error {
	t.room.LastCleaned = &at
	return nil
}

func (t *memTx) MarkMaintained(_ context.Context, at time.Time) error {
	t.room.LastMaintenance = &at
	return nil
}

func (t *memTx) DeleteRoom(context.Context) error {
	if len(t.staged) > 0 {
		return model.ErrConflict
	}
	t.roomDeleted = true
	return nil
}

func (t *memTx) HasOverlap(_ context.Context, stay model.Interval, excludeID uint64) (bool, error) {
	runtime.Gosched() // widen the check-then-act window
	for id, b := range t.staged {
		if id != excludeID && b.Status.Active() && b.Stay().Overlaps(stay) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) ActiveBookings(context.Context) ([]model.Booking, error) {
	out := []model.Booking{}
	for _, b := range t.staged {
		if b.Status.Active() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInDate.Before(out[j].CheckInDate) })
	return out, nil
}

func (t *memTx) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := t.staged[id]
	if !ok {
		return nil, model.ErrBookingNotFound
	}
	return &b, nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	if !b.CheckOutDate.After(b.CheckInDate) {
		return model.ErrInvalidDateRange
	}
	b.ID = t.db.id()
	b.RoomID = t.room.ID
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	t.staged[b.ID] = *b
	return nil
}

func (t *memTx) UpdateBooking(_ context.Context, b *model.Booking) error {
	if _, ok := t.staged[b.ID]; !ok {
		return model.ErrBookingNotFound
	}
	t.staged[b.ID] = *b
	return nil
}

func (t *memTx) DeleteBooking(_ context.Context, id uint64) error {
	if _, ok := t.staged[id]; !ok {
		return model.ErrBookingNotFound
	}
	delete(t.staged, id)
	t.deleted[id] = true
	return nil
}

func (t *memTx) commit() {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.roomDeleted {
		delete(t.db.rooms, t.room.ID)
	} else {
		rm := t.room
		t.db.rooms[rm.ID] = &rm
	}
	for id := range t.deleted {
		delete(t.db.bookings, id)
	}
	for id, b := range t.staged {
		t.db.bookings[id] = &b
	}
}

// memBookings implements BookingStore.
type memBookings struct{ *memDB }

func (s memBookings) detail(b *model.Booking) model.Booking {
	cp := *b
	if rm, ok := s.rooms[b.RoomID]; ok {
		cp.Room = rm.Summary()
	}
	cp.Guest = &model.GuestSummary{ID: b.GuestID}
	return cp
}

func (s memBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, model.ErrBookingNotFound
	}
	d := s.detail(b)
	return &d, nil
}

func (s memBookings) filter(keep func(*model.Booking) bool) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, s.detail(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s memBookings) List(_ context.Context, f model.BookingFilter) ([]model.Booking, int64, error) {
	all := s.filter(func(b *model.Booking) bool {
		return (f.Status == "" || b.Status == f.Status) && (f.GuestID == 0 || b.GuestID == f.GuestID) &&
			(f.RoomID == 0 || b.RoomID == f.RoomID)
	})
	total := int64(len(all))
	start := f.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s memBookings) ListByGuest(_ context.Context, guestID uint64) ([]model.Booking, error) {
	return s.filter(func(b *model.Booking) bool { return b.GuestID == guestID }), nil
}

func (s memBookings) ListInRange(_ context.Context, from, to time.Time) ([]model.Booking, error) {
	span := model.Interval{Start: from, End: to}
	return s.filter(func(b *model.Booking) bool { return b.Stay().Overlaps(span) }), nil
}

func (s memBookings) ListOverdue(_ context.Context, cutoff time.Time, limit int) ([]model.Booking, error) {
	out := s.filter(func(b *model.Booking) bool {
		return b.Status == model.BookingReserved && b.CheckInDate.Before(cutoff)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recorder captures side effects.
type recorder struct {
	mu         sync.Mutex
	notes      []model.NotificationEvent
	tasks      []model.CleaningTaskRequest
	events     []string
	issues     []string
	failNotify bool
}

func (r *recorder) Notify(_ context.Context, ev model.NotificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNotify {
		return errors.New("notification store down")
	}
	r.notes = append(r.notes, ev)
	return nil
}

func (r *recorder) SpawnCleaningTask(_ context.Context, req model.CleaningTaskRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, req)
	return nil
}

func (r *recorder) Publish(_ context.Context, key string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, key)
	return nil
}

func (r *recorder) ReportIssue(_ context.Context, _ model.Actor, _ uint64, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues = append(r.issues, description)
	return nil
}

func (r *recorder) eventCount(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.events {
		if k == key {
			n++
		}
	}
	return n
}

// fixedRate is a RateSource returning the same tax rate for every key.
type fixedRate float64

func (f fixedRate) Float(context.Context, string, float64) float64 { return float64(f) }
