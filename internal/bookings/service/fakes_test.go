package service

import (
	"context"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/events"
	"staybook/internal/bookings/lock"
	"staybook/internal/bookings/validator"
	"staybook/pkg/config"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"sync"
	"sync/atomic"
	"time"
)

type memBookings struct {
	mu         sync.Mutex
	byID       map[string]*model.Booking
	references map[string]string

	countDelay time.Duration
	countErr   error
	createErr  error
	creates    atomic.Int32

	// createDelay returns the latency of the nth Create call (1-based).
	createDelay func(n int32) time.Duration
}

func newMemBookings() *memBookings {
	return &memBookings{
		byID:       make(map[string]*model.Booking),
		references: make(map[string]string),
	}
}

// Create honours ctx during its delay, the way a driver abandons a write whose
// deadline passed.
func (m *memBookings) Create(ctx context.Context, b *model.Booking) error {
	n := m.creates.Add(1)
	if m.createErr != nil {
		return m.createErr
	}
	if m.createDelay != nil {
		select {
		case <-time.After(m.createDelay(n)):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", bookingserrors.ErrDataStoreUnavailable, ctx.Err())
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.references[b.Reference]; taken {
		return fmt.Errorf("%w: %s", bookingserrors.ErrReferenceCollision, b.Reference)
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	cp := *b
	m.byID[b.ID] = &cp
	m.references[b.Reference] = b.ID
	return nil
}

func (m *memBookings) FindByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrBookingNotFound, id)
	}
	cp := *b
	return &cp, nil
}

// CountOverlapping sleeps before reading so unserialized callers would race.
func (m *memBookings) CountOverlapping(_ context.Context, roomID string, checkIn, checkOut time.Time) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	if m.countDelay > 0 {
		time.Sleep(m.countDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.byID {
		if b.RoomID == roomID && b.Status.IsBlocking() && model.Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			n++
		}
	}
	return n, nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrBookingNotFound, id)
	}
	if b.Status != from {
		return nil, fmt.Errorf("%w: status is %s", bookingserrors.ErrInvalidStatusTransition, b.Status)
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	return &cp, nil
}

func (m *memBookings) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memRooms struct {
	rooms map[string]*model.Room
	err   error
}

func (m *memRooms) GetRoom(_ context.Context, id string) (*model.Room, error) {
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrRoomNotFound, id)
	}
	cp := *r
	return &cp, nil
}

// memLockStore expires leases after their ttl, like the Mongo and Redis stores.
type memLockStore struct {
	mu       sync.Mutex
	leases   map[string]memLease
	acquired atomic.Int32
	released atomic.Int32
}

type memLease struct {
	token     string
	expiresAt time.Time
}

func newMemLockStore() *memLockStore {
	return &memLockStore{leases: make(map[string]memLease)}
}

func (s *memLockStore) TryAcquire(_ context.Context, key, _, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, held := s.leases[key]; held && time.Now().Before(l.expiresAt) {
		return false, nil
	}
	s.leases[key] = memLease{token: token, expiresAt: time.Now().Add(ttl)}
	s.acquired.Add(1)
	return true, nil
}

func (s *memLockStore) Release(_ context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leases[key].token != token {
		return lock.ErrNotOwner
	}
	delete(s.leases, key)
	s.released.Add(1)
	return nil
}

// hold plants a lease owned by token, as if another process held the room.
func (s *memLockStore) hold(key, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leases[key] = memLease{token: token, expiresAt: time.Now().Add(time.Hour)}
}

func (s *memLockStore) holder(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leases[key].token
}

func (s *memLockStore) held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leases)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) recorded() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type fixture struct {
	svc       *bookingService
	bookings  *memBookings
	rooms     *memRooms
	locks     *memLockStore
	publisher *recordingPublisher
}

var fixedToday = time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	return newFixtureWith(lock.Options{WaitTimeout: 10 * time.Second})
}

func newFixtureWith(opts lock.Options) *fixture {
	log := logger.Discard()
	cfg := &config.Config{Log: log, AvailabilityWorkers: 4}

	f := &fixture{
		bookings: newMemBookings(),
		rooms: &memRooms{rooms: map[string]*model.Room{
			"R1": {ID: "R1", Name: "Deluxe", HotelName: "Harbor Inn", City: "Haifa", PricePerNight: 2500, IsActive: true},
			"R2": {ID: "R2", Name: "Twin", HotelName: "Harbor Inn", City: "Haifa", PricePerNight: 1800, IsActive: true},
			"R3": {ID: "R3", Name: "Closed", HotelName: "Harbor Inn", City: "Haifa", PricePerNight: 900, IsActive: false},
		}},
		locks:     newMemLockStore(),
		publisher: &recordingPublisher{},
	}

	coordinator := lock.NewCoordinator(f.locks, opts, log)
	svc := NewBookingService(f.bookings, f.rooms, coordinator, validator.NewBookingValidator(log), f.publisher, cfg)
	f.svc = svc.(*bookingService)
	f.svc.today = func() time.Time { return fixedToday }
	return f
}

func input(roomID, checkIn, checkOut string, guests int) *model.CreateBookingInput {
	return &model.CreateBookingInput{
		RoomID:      roomID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      &guests,
		RequesterID: "user-1",
	}
}
