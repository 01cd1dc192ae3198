package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "medibook/internal/errors"
	"medibook/internal/model"
)

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newUser(email string) *model.User {
	return &model.User{ID: uuid.New(), FirstName: "Test", LastName: "User", Email: email, Role: model.RoleUser}
}

func newDoctor(name string, lat, lon float64) *model.Doctor {
	return &model.Doctor{
		ID:        uuid.New(),
		Name:      name,
		Specialty: "Cardiology",
		Latitude:  decimal.NewFromFloat(lat),
		Longitude: decimal.NewFromFloat(lon),
	}
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustTime(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	tod, err := model.ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func TestLedger_BookThenConflictThenCancelThenRebook(t *testing.T) {
	ctx := context.Background()
	store := newMemoryAppointments()
	l := NewLedger(store, clock, zerolog.Nop())

	userA := newUser("a@example.com")
	userB := newUser("b@example.com")
	doctor := newDoctor("Dr. D", 40.0, -74.0)
	date := mustDate(t, "2099-01-01")
	at := mustTime(t, "10:00")

	first, err := l.Book(ctx, userA, doctor, date, at)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, first.Status)
	assert.Equal(t, fixedNow, first.CreatedAt)
	assert.Equal(t, userA.ID, first.UserID)
	assert.Equal(t, doctor.ID, first.DoctorID)

	_, err = l.Book(ctx, userA, doctor, date, at)
	assert.ErrorIs(t, err, apperrors.ErrSlotTaken)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	cancelled, err := l.Cancel(ctx, first.ID, userA)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Equal(t, first.CreatedAt, cancelled.CreatedAt)
	assert.Equal(t, date, cancelled.Date)
	assert.Equal(t, at, cancelled.Time)

	second, err := l.Book(ctx, userB, doctor, date, at)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, second.Status)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLedger_DoubleBookingAcrossDates(t *testing.T) {
	ctx := context.Background()
	store := newMemoryAppointments()
	l := NewLedger(store, clock, zerolog.Nop())
	user := newUser("a@example.com")
	doctor := newDoctor("Dr. D", 40.0, -74.0)
	at := mustTime(t, "09:30")

	for days := 0; days <= 14; days++ {
		date := model.DateOf(fixedNow.AddDate(0, 0, days))

		appt, err := l.Book(ctx, user, doctor, date, at)
		require.NoError(t, err, "day %d", days)

		_, err = l.Book(ctx, newUser("other@example.com"), doctor, date, at)
		assert.ErrorIs(t, err, apperrors.ErrSlotTaken, "day %d", days)

		_, err = l.Cancel(ctx, appt.ID, user)
		require.NoError(t, err)

		_, err = l.Book(ctx, user, doctor, date, at)
		assert.NoError(t, err, "day %d rebook", days)
	}
}

func TestLedger_BookValidation(t *testing.T) {
	ctx := context.Background()
	user := newUser("a@example.com")
	doctor := newDoctor("Dr. D", 40.0, -74.0)

	tests := []struct {
		name    string
		user    *model.User
		doctor  *model.Doctor
		date    string
		time    string
		wantErr error
	}{
		{"yesterday morning", user, doctor, "2025-06-14", "08:00", apperrors.ErrPastDate},
		{"yesterday late", user, doctor, "2025-06-14", "23:59", apperrors.ErrPastDate},
		{"last year", user, doctor, "2024-12-31", "10:00", apperrors.ErrPastDate},
		{"today earlier than now", user, doctor, "2025-06-15", "08:00", nil},
		{"tomorrow", user, doctor, "2025-06-16", "08:00", nil},
		{"missing doctor", user, nil, "2099-01-01", "10:00", apperrors.ErrDoctorNotFound},
		{"missing user", nil, doctor, "2099-01-01", "10:00", apperrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(newMemoryAppointments(), clock, zerolog.Nop())
			_, err := l.Book(ctx, tt.user, tt.doctor, mustDate(t, tt.date), mustTime(t, tt.time))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLedger_PastDateIsInvalidRequest(t *testing.T) {
	l := NewLedger(newMemoryAppointments(), clock, zerolog.Nop())
	_, err := l.Book(context.Background(), newUser("a@example.com"), newDoctor("Dr. D", 0, 0),
		mustDate(t, "2025-06-14"), mustTime(t, "10:00"))
	assert.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))
}

func TestLedger_StorageConstraintIsFinalAuthority(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAppointmentRepository)
	l := NewLedger(repo, clock, zerolog.Nop())
	doctor := newDoctor("Dr. D", 40.0, -74.0)
	date := mustDate(t, "2099-01-01")
	at := mustTime(t, "10:00")

	// The pre-check passes but a concurrent writer wins the insert.
	repo.On("FindBookedSlot", mock.Anything, doctor.ID, date, at).Return(nil, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Appointment) bool {
		return a.Status == model.StatusBooked && a.ActiveSlot != nil && *a.ActiveSlot
	})).Return(apperrors.ErrSlotTaken)

	_, err := l.Book(ctx, newUser("a@example.com"), doctor, date, at)
	assert.ErrorIs(t, err, apperrors.ErrSlotTaken)
	repo.AssertExpectations(t)
}

func TestLedger_ConcurrentBookingsOneWinner(t *testing.T) {
	ctx := context.Background()
	store := newMemoryAppointments()
	l := NewLedger(store, clock, zerolog.Nop())
	doctor := newDoctor("Dr. D", 40.0, -74.0)
	date := mustDate(t, "2099-01-01")
	at := mustTime(t, "10:00")

	const callers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Book(ctx, newUser("c@example.com"), doctor, date, at)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperrors.ErrSlotTaken):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)
	booked, _ := store.CountByStatus(ctx, model.StatusBooked)
	assert.Equal(t, int64(1), booked)
}

func TestLedger_Cancel(t *testing.T) {
	ctx := context.Background()
	doctor := newDoctor("Dr. D", 40.0, -74.0)
	date := mustDate(t, "2099-01-01")
	at := mustTime(t, "10:00")

	t.Run("other user is forbidden and status is unchanged", func(t *testing.T) {
		store := newMemoryAppointments()
		l := NewLedger(store, clock, zerolog.Nop())
		owner, intruder := newUser("b@example.com"), newUser("a@example.com")

		appt, err := l.Book(ctx, owner, doctor, date, at)
		require.NoError(t, err)

		_, err = l.Cancel(ctx, appt.ID, intruder)
		assert.ErrorIs(t, err, apperrors.ErrNotOwner)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
		assert.Equal(t, model.StatusBooked, store.status(appt.ID))
	})

	t.Run("re-cancel is a conflict for every caller", func(t *testing.T) {
		store := newMemoryAppointments()
		l := NewLedger(store, clock, zerolog.Nop())
		owner := newUser("a@example.com")

		appt, err := l.Book(ctx, owner, doctor, date, at)
		require.NoError(t, err)
		_, err = l.Cancel(ctx, appt.ID, owner)
		require.NoError(t, err)

		for _, caller := range []*model.User{owner, newUser("x@example.com")} {
			_, err = l.Cancel(ctx, appt.ID, caller)
			assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled)
			assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
		}
	})

	t.Run("unknown appointment", func(t *testing.T) {
		l := NewLedger(newMemoryAppointments(), clock, zerolog.Nop())
		_, err := l.Cancel(ctx, uuid.New(), newUser("a@example.com"))
		assert.ErrorIs(t, err, apperrors.ErrAppointmentNotFound)
	})

	t.Run("completed appointment cannot be cancelled", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		l := NewLedger(repo, clock, zerolog.Nop())
		owner := newUser("a@example.com")
		id := uuid.New()

		repo.On("FindByID", mock.Anything, id).
			Return(&model.Appointment{ID: id, UserID: owner.ID, Status: model.StatusCompleted}, nil)

		_, err := l.Cancel(ctx, id, owner)
		assert.ErrorIs(t, err, apperrors.ErrNotCancellable)
		repo.AssertNotCalled(t, "MarkCancelled", mock.Anything, mock.Anything)
	})

	t.Run("losing a concurrent cancel is a conflict", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		l := NewLedger(repo, clock, zerolog.Nop())
		owner := newUser("a@example.com")
		id := uuid.New()

		repo.On("FindByID", mock.Anything, id).
			Return(&model.Appointment{ID: id, UserID: owner.ID, Status: model.StatusBooked}, nil)
		repo.On("MarkCancelled", mock.Anything, id).Return(apperrors.ErrAlreadyCancelled)

		_, err := l.Cancel(ctx, id, owner)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled)
		repo.AssertExpectations(t)
	})
}

func TestLedger_ListForUser(t *testing.T) {
	ctx := context.Background()
	store := newMemoryAppointments()
	l := NewLedger(store, clock, zerolog.Nop())
	user := newUser("a@example.com")
	doctor := newDoctor("Dr. D", 40.0, -74.0)

	slots := []struct{ date, time string }{
		{"2099-01-02", "09:00"},
		{"2099-01-01", "15:00"},
		{"2099-01-01", "10:00"},
		{"2099-01-03", "11:00"},
	}
	var ids []uuid.UUID
	for _, s := range slots {
		appt, err := l.Book(ctx, user, doctor, mustDate(t, s.date), mustTime(t, s.time))
		require.NoError(t, err)
		ids = append(ids, appt.ID)
	}
	_, err := l.Cancel(ctx, ids[3], user)
	require.NoError(t, err)

	history, err := l.ListForUser(ctx, user, false)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, []uuid.UUID{ids[3], ids[0], ids[1], ids[2]},
		[]uuid.UUID{history[0].ID, history[1].ID, history[2].ID, history[3].ID})

	active, err := l.ListForUser(ctx, user, true)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]},
		[]uuid.UUID{active[0].ID, active[1].ID, active[2].ID})
	for _, a := range active {
		assert.Equal(t, model.StatusBooked, a.Status)
		assert.Same(t, user, a.User)
	}

	others, err := l.ListForUser(ctx, newUser("b@example.com"), false)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestLedger_Get(t *testing.T) {
	ctx := context.Background()
	store := newMemoryAppointments()
	l := NewLedger(store, clock, zerolog.Nop())
	owner := newUser("a@example.com")
	admin := newUser("admin@example.com")
	admin.Role = model.RoleAdmin

	appt, err := l.Book(ctx, owner, newDoctor("Dr. D", 40.0, -74.0), mustDate(t, "2099-01-01"), mustTime(t, "10:00"))
	require.NoError(t, err)

	got, err := l.Get(ctx, appt.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, got.ID)

	_, err = l.Get(ctx, appt.ID, admin)
	assert.NoError(t, err)

	_, err = l.Get(ctx, appt.ID, newUser("b@example.com"))
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = l.Get(ctx, uuid.New(), owner)
	assert.ErrorIs(t, err, apperrors.ErrAppointmentNotFound)
}
