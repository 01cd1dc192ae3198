package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"medibook/internal/auth"
	apperrors "medibook/internal/errors"
	"medibook/internal/model"
	"medibook/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockDoctorRepository is a mock implementation of DoctorRepository.
type MockDoctorRepository struct {
	mock.Mock
}

var _ repository.DoctorRepository = (*MockDoctorRepository)(nil)

func (m *MockDoctorRepository) List(ctx context.Context) ([]model.Doctor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) SearchBySpecialty(ctx context.Context, specialty string) ([]model.Doctor, error) {
	args := m.Called(ctx, specialty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) InsertNew(ctx context.Context, doctors []model.Doctor) (int64, error) {
	args := m.Called(ctx, doctors)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDoctorRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockAppointmentRepository is a mock implementation of AppointmentRepository.
type MockAppointmentRepository struct {
	mock.Mock
}

var _ repository.AppointmentRepository = (*MockAppointmentRepository)(nil)

func (m *MockAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindBookedSlot(ctx context.Context, doctorID uuid.UUID, date model.Date, at model.TimeOfDay) (*model.Appointment, error) {
	args := m.Called(ctx, doctorID, date, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAppointmentRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAppointmentRepository) CountByStatus(ctx context.Context, status model.AppointmentStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uuid.UUID, email string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, email, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, string, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uuid.UUID), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

type MockIDTokenVerifier struct {
	mock.Mock
}

func (m *MockIDTokenVerifier) Verify(ctx context.Context, rawToken string) (*auth.ExternalIdentity, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.ExternalIdentity), args.Error(1)
}

// memoryAppointments is an in-memory AppointmentRepository that enforces
// the active slot uniqueness the way the database index does.
type memoryAppointments struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]model.Appointment
	order   []uuid.UUID
	users   map[uuid.UUID]*model.User
	doctors map[uuid.UUID]*model.Doctor
}

var _ repository.AppointmentRepository = (*memoryAppointments)(nil)

func newMemoryAppointments() *memoryAppointments {
	return &memoryAppointments{
		rows:    make(map[uuid.UUID]model.Appointment),
		users:   make(map[uuid.UUID]*model.User),
		doctors: make(map[uuid.UUID]*model.Doctor),
	}
}

type slotKey struct {
	doctor uuid.UUID
	date   model.Date
	time   model.TimeOfDay
}

func (m *memoryAppointments) Create(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ActiveSlot != nil {
		key := slotKey{a.DoctorID, a.Date, a.Time}
		for _, row := range m.rows {
			if row.ActiveSlot != nil && (slotKey{row.DoctorID, row.Date, row.Time}) == key {
				return apperrors.ErrSlotTaken
			}
		}
	}
	if a.User != nil {
		m.users[a.UserID] = a.User
	}
	if a.Doctor != nil {
		m.doctors[a.DoctorID] = a.Doctor
	}
	row := *a
	row.User, row.Doctor = nil, nil
	m.rows[a.ID] = row
	m.order = append(m.order, a.ID)
	return nil
}

func (m *memoryAppointments) hydrate(a model.Appointment) model.Appointment {
	a.User = m.users[a.UserID]
	a.Doctor = m.doctors[a.DoctorID]
	return a
}

func (m *memoryAppointments) FindByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrAppointmentNotFound
	}
	a := m.hydrate(row)
	return &a, nil
}

func (m *memoryAppointments) FindBookedSlot(_ context.Context, doctorID uuid.UUID, date model.Date, at model.TimeOfDay) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		row := m.rows[id]
		if row.DoctorID == doctorID && row.Date == date && row.Time == at && row.Status == model.StatusBooked {
			return &row, nil
		}
	}
	return nil, nil
}

func (m *memoryAppointments) list(filter func(model.Appointment) bool, asc bool) []model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Appointment
	for _, id := range m.order {
		if row := m.rows[id]; filter(row) {
			out = append(out, m.hydrate(row))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki := out[i].Date.Time().Unix()*10000 + int64(out[i].Time.Minutes())
		kj := out[j].Date.Time().Unix()*10000 + int64(out[j].Time.Minutes())
		if asc {
			return ki < kj
		}
		return ki > kj
	})
	return out
}

func (m *memoryAppointments) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	return m.list(func(a model.Appointment) bool { return a.UserID == userID }, false), nil
}

func (m *memoryAppointments) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	return m.list(func(a model.Appointment) bool {
		return a.UserID == userID && a.Status == model.StatusBooked
	}, true), nil
}

func (m *memoryAppointments) ListAll(context.Context) ([]model.Appointment, error) {
	return m.list(func(model.Appointment) bool { return true }, false), nil
}

func (m *memoryAppointments) MarkCancelled(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok || row.Status != model.StatusBooked {
		return apperrors.ErrAlreadyCancelled
	}
	row.Status = model.StatusCancelled
	row.ActiveSlot = nil
	m.rows[id] = row
	return nil
}

func (m *memoryAppointments) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memoryAppointments) CountByStatus(_ context.Context, status model.AppointmentStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, row := range m.rows {
		if row.Status == status {
			n++
		}
	}
	return n, nil
}

// status returns the stored status of an appointment.
func (m *memoryAppointments) status(id uuid.UUID) model.AppointmentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Status
}
