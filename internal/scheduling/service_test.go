package scheduling

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medpro/clinic-scheduling/internal/directory"
	redisclient "github.com/medpro/clinic-scheduling/internal/redis"
)

// 2026-09-01 is a Tuesday, 2026-09-06 a Sunday.
var testNow = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

type fakeDir struct {
	doctors  map[int64]*directory.Doctor
	patients map[int64]*directory.Patient
}

func (f *fakeDir) GetDoctorByID(_ context.Context, id int64) (*directory.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, directory.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDir) GetPatientByID(_ context.Context, id int64) (*directory.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, directory.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeRepo struct {
	dir          *fakeDir
	appointments map[int64]*Appointment
	nextID       int64
	freeDoctors  []directory.Doctor
	createErr    error

	lastListLimit  int
	lastListOffset int
}

func newFakeRepo(dir *fakeDir) *fakeRepo {
	return &fakeRepo{dir: dir, appointments: make(map[int64]*Appointment), nextID: 1}
}

func (f *fakeRepo) HasDoctorAppointmentAt(_ context.Context, doctorID int64, at time.Time) (bool, error) {
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && a.ScheduledAt.Equal(at) && a.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) HasPatientAppointmentAt(_ context.Context, patientID int64, at time.Time) (bool, error) {
	for _, a := range f.appointments {
		if a.PatientID == patientID && a.ScheduledAt.Equal(at) && a.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) HasPatientAppointmentBetween(_ context.Context, patientID int64, from, to time.Time) (bool, error) {
	for _, a := range f.appointments {
		if a.PatientID == patientID && a.Status != StatusCancelled &&
			!a.ScheduledAt.Before(from) && !a.ScheduledAt.After(to) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListFreeDoctorsBySpecialty(_ context.Context, specialty directory.Specialty, at time.Time) ([]directory.Doctor, error) {
	var out []directory.Doctor
	for _, d := range f.freeDoctors {
		if d.Specialty != specialty {
			continue
		}
		if taken, _ := f.HasDoctorAppointmentAt(context.Background(), d.ID, at); taken {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRepo) CreateAppointment(_ context.Context, a *Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = f.nextID
	a.CreatedAt = testNow
	f.nextID++
	cp := *a
	f.appointments[a.ID] = &cp
	return nil
}

func (f *fakeRepo) CancelAppointment(_ context.Context, id int64, reason *string) error {
	a, ok := f.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	if a.Status != StatusScheduled {
		return ErrAlreadyCancelled
	}
	a.Status = StatusCancelled
	if reason != nil {
		a.CancellationReason = reason
	}
	return nil
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id int64) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error) {
	a, err := f.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doctor, err := f.dir.GetDoctorByID(ctx, a.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := f.dir.GetPatientByID(ctx, a.PatientID)
	if err != nil {
		return nil, err
	}
	return &AppointmentDetail{Appointment: *a, Doctor: doctor, Patient: patient}, nil
}

func (f *fakeRepo) ListAppointments(_ context.Context, limit, offset int) ([]AppointmentSummary, error) {
	f.lastListLimit = limit
	f.lastListOffset = offset
	return nil, nil
}

func (f *fakeRepo) CountAppointments(_ context.Context) (int64, error) {
	return int64(len(f.appointments)), nil
}

type noopLocker struct{}

func (noopLocker) WithBookingLock(ctx context.Context, _ int64, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type contendedLocker struct{}

func (contendedLocker) WithBookingLock(context.Context, int64, time.Time, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func newTestDir() *fakeDir {
	return &fakeDir{
		doctors: map[int64]*directory.Doctor{
			5: {ID: 5, Name: "Dr. Silva", CRM: "123456", Specialty: directory.SpecialtyCardiology, Active: true},
			6: {ID: 6, Name: "Dr. Souza", CRM: "654321", Specialty: directory.SpecialtyCardiology, Active: false},
		},
		patients: map[int64]*directory.Patient{
			1: {ID: 1, Name: "Ana", CPF: "11122233344", Active: true},
			2: {ID: 2, Name: "Bruno", CPF: "55566677788", Active: false},
		},
	}
}

func newTestService(t *testing.T, repo *fakeRepo, dir *fakeDir, policy Policy) *Service {
	t.Helper()
	svc := NewService(repo, dir, noopLocker{}, policy, zap.NewNop())
	return svc.WithClock(func() time.Time { return testNow }).WithRand(rand.New(rand.NewSource(1)))
}

func doctorID(id int64) *int64 { return &id }

// Thursday at the given clock time, comfortably past every lead time.
func thursdayAt(hour, min int) time.Time {
	return time.Date(2026, 9, 3, hour, min, 0, 0, time.UTC)
}

func TestScheduleBusinessHours(t *testing.T) {
	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"before opening", thursdayAt(6, 30), ErrOutsideBusinessHours},
		{"at opening", thursdayAt(7, 0), nil},
		{"mid morning", thursdayAt(10, 0), nil},
		{"last start", thursdayAt(18, 0), nil},
		{"after last start", thursdayAt(18, 1), ErrOutsideBusinessHours},
		{"evening", thursdayAt(19, 0), ErrOutsideBusinessHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newTestDir()
			svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)

			_, err := svc.Schedule(context.Background(), ScheduleRequest{
				PatientID:   1,
				DoctorID:    doctorID(5),
				ScheduledAt: tt.at,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduleClosedDay(t *testing.T) {
	sunday := time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC)
	dir := newTestDir()

	strict := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
	_, err := strict.Schedule(context.Background(), ScheduleRequest{
		PatientID: 1, DoctorID: doctorID(5), ScheduledAt: sunday,
	})
	assert.ErrorIs(t, err, ErrClosedDay)

	lenient := newTestService(t, newFakeRepo(dir), dir, LenientPolicy)
	_, err = lenient.Schedule(context.Background(), ScheduleRequest{
		PatientID: 1, DoctorID: doctorID(5), ScheduledAt: sunday,
	})
	assert.NoError(t, err)
}

func TestScheduleLeadTime(t *testing.T) {
	dir := newTestDir()

	t.Run("under the minimum", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(5), ScheduledAt: testNow.Add(20 * time.Minute),
		})
		assert.ErrorIs(t, err, ErrInsufficientLeadTime)
	})

	t.Run("past instant", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(5), ScheduledAt: testNow.Add(-2 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrPastDateTime)
	})

	t.Run("just over the minimum", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(5), ScheduledAt: testNow.Add(31 * time.Minute),
		})
		assert.NoError(t, err)
	})

	t.Run("lenient requires a day of notice", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo(dir), dir, LenientPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(5), ScheduledAt: testNow.Add(2 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrInsufficientLeadTime)
	})
}

func TestSchedulePatientChecks(t *testing.T) {
	at := thursdayAt(10, 0)
	dir := newTestDir()

	t.Run("unknown patient", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 99, DoctorID: doctorID(5), ScheduledAt: at,
		})
		assert.ErrorIs(t, err, directory.ErrPatientNotFound)
	})

	t.Run("inactive patient rejected under strict", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 2, DoctorID: doctorID(5), ScheduledAt: at,
		})
		assert.ErrorIs(t, err, ErrPatientInactive)
	})

	t.Run("inactive patient allowed under lenient", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo(dir), dir, LenientPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 2, DoctorID: doctorID(5), ScheduledAt: at,
		})
		assert.NoError(t, err)
	})
}

func TestSchedulePatientConflictGranularity(t *testing.T) {
	morning := thursdayAt(9, 0)
	afternoon := thursdayAt(15, 0)
	dir := newTestDir()

	t.Run("strict rejects a second booking on the same day", func(t *testing.T) {
		repo := newFakeRepo(dir)
		svc := newTestService(t, repo, dir, StrictPolicy)

		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(5), ScheduledAt: morning,
		})
		require.NoError(t, err)

		_, err = svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(5), ScheduledAt: afternoon,
		})
		assert.ErrorIs(t, err, ErrPatientAlreadyBooked)
	})

	t.Run("lenient only rejects the exact instant", func(t *testing.T) {
		repo := newFakeRepo(dir)
		svc := newTestService(t, repo, dir, LenientPolicy)

		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(5), ScheduledAt: morning,
		})
		require.NoError(t, err)

		_, err = svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(5), ScheduledAt: afternoon,
		})
		assert.NoError(t, err)
	})
}

func TestScheduleDoctorResolution(t *testing.T) {
	at := thursdayAt(10, 0)

	t.Run("unknown doctor", func(t *testing.T) {
		dir := newTestDir()
		svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(99), ScheduledAt: at,
		})
		assert.ErrorIs(t, err, directory.ErrDoctorNotFound)
	})

	t.Run("inactive doctor", func(t *testing.T) {
		dir := newTestDir()
		svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(6), ScheduledAt: at,
		})
		assert.ErrorIs(t, err, ErrDoctorInactive)
	})

	t.Run("doctor already booked at the instant", func(t *testing.T) {
		dir := newTestDir()
		dir.patients[3] = &directory.Patient{ID: 3, Name: "Carla", Active: true}
		repo := newFakeRepo(dir)
		svc := newTestService(t, repo, dir, StrictPolicy)

		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, DoctorID: doctorID(5), ScheduledAt: at,
		})
		require.NoError(t, err)

		_, err = svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 3, DoctorID: doctorID(5), ScheduledAt: at,
		})
		assert.ErrorIs(t, err, ErrDoctorAlreadyBooked)
	})

	t.Run("specialty required without a chosen doctor", func(t *testing.T) {
		dir := newTestDir()
		svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, ScheduledAt: at,
		})
		assert.ErrorIs(t, err, ErrSpecialtyRequired)
	})

	t.Run("no free doctor of the specialty", func(t *testing.T) {
		dir := newTestDir()
		svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)
		_, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, Specialty: directory.SpecialtyDermatology, ScheduledAt: at,
		})
		assert.ErrorIs(t, err, ErrNoDoctorAvailable)
	})

	t.Run("random pick lands on an eligible candidate", func(t *testing.T) {
		dir := newTestDir()
		repo := newFakeRepo(dir)
		repo.freeDoctors = []directory.Doctor{
			{ID: 10, Name: "Dr. A", Specialty: directory.SpecialtyCardiology, Active: true},
			{ID: 11, Name: "Dr. B", Specialty: directory.SpecialtyCardiology, Active: true},
			{ID: 12, Name: "Dr. C", Specialty: directory.SpecialtyCardiology, Active: true},
		}
		svc := newTestService(t, repo, dir, StrictPolicy)

		detail, err := svc.Schedule(context.Background(), ScheduleRequest{
			PatientID: 1, Specialty: directory.SpecialtyCardiology, ScheduledAt: at,
		})
		require.NoError(t, err)
		assert.Contains(t, []int64{10, 11, 12}, detail.Doctor.ID)
	})
}

func TestScheduleLockContention(t *testing.T) {
	dir := newTestDir()
	svc := NewService(newFakeRepo(dir), dir, contendedLocker{}, StrictPolicy, zap.NewNop()).
		WithClock(func() time.Time { return testNow })

	_, err := svc.Schedule(context.Background(), ScheduleRequest{
		PatientID: 1, DoctorID: doctorID(5), ScheduledAt: thursdayAt(10, 0),
	})
	assert.ErrorIs(t, err, ErrBookingInProgress)
}

func TestScheduleInsertConflictSurfaces(t *testing.T) {
	dir := newTestDir()
	repo := newFakeRepo(dir)
	repo.createErr = ErrDoctorAlreadyBooked
	svc := newTestService(t, repo, dir, StrictPolicy)

	_, err := svc.Schedule(context.Background(), ScheduleRequest{
		PatientID: 1, DoctorID: doctorID(5), ScheduledAt: thursdayAt(10, 0),
	})
	assert.ErrorIs(t, err, ErrDoctorAlreadyBooked)
	assert.Empty(t, repo.appointments)
}

func TestScheduleReasonTooLong(t *testing.T) {
	dir := newTestDir()
	svc := newTestService(t, newFakeRepo(dir), dir, StrictPolicy)

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}

	_, err := svc.Schedule(context.Background(), ScheduleRequest{
		PatientID: 1, DoctorID: doctorID(5), ScheduledAt: thursdayAt(10, 0),
		ReasonForVisit: string(long),
	})
	assert.ErrorIs(t, err, ErrReasonTooLong)
}

func TestScheduleRoundTrip(t *testing.T) {
	dir := newTestDir()
	repo := newFakeRepo(dir)
	svc := newTestService(t, repo, dir, StrictPolicy)

	at := thursdayAt(10, 0)
	detail, err := svc.Schedule(context.Background(), ScheduleRequest{
		PatientID:      1,
		DoctorID:       doctorID(5),
		ScheduledAt:    at,
		ReasonForVisit: "checkup",
	})
	require.NoError(t, err)
	require.NotZero(t, detail.ID)

	got, err := svc.Get(context.Background(), detail.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(5), got.Doctor.ID)
	assert.Equal(t, int64(1), got.Patient.ID)
	assert.True(t, got.ScheduledAt.Equal(at))
	assert.Equal(t, StatusScheduled, got.Status)
	require.NotNil(t, got.Reason)
	assert.Equal(t, "checkup", *got.Reason)
}

func cancelFixture(t *testing.T, policy Policy, scheduledAt time.Time) (*Service, *fakeRepo, int64) {
	t.Helper()
	dir := newTestDir()
	repo := newFakeRepo(dir)
	svc := newTestService(t, repo, dir, policy)

	appt := &Appointment{DoctorID: 5, PatientID: 1, ScheduledAt: scheduledAt, Status: StatusScheduled}
	require.NoError(t, repo.CreateAppointment(context.Background(), appt))
	return svc, repo, appt.ID
}

func TestCancel(t *testing.T) {
	t.Run("unknown consultation", func(t *testing.T) {
		svc, _, _ := cancelFixture(t, StrictPolicy, testNow.Add(48*time.Hour))
		err := svc.Cancel(context.Background(), 999, "")
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})

	t.Run("already cancelled", func(t *testing.T) {
		svc, repo, id := cancelFixture(t, StrictPolicy, testNow.Add(48*time.Hour))
		repo.appointments[id].Status = StatusCancelled

		err := svc.Cancel(context.Background(), id, "again")
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	})

	t.Run("too close to the consultation", func(t *testing.T) {
		svc, _, id := cancelFixture(t, StrictPolicy, testNow.Add(6*time.Hour))
		err := svc.Cancel(context.Background(), id, "")
		assert.ErrorIs(t, err, ErrCancellationTooLate)
	})

	t.Run("stores a trimmed non-blank reason", func(t *testing.T) {
		svc, repo, id := cancelFixture(t, StrictPolicy, testNow.Add(48*time.Hour))
		require.NoError(t, svc.Cancel(context.Background(), id, "  patient request  "))

		stored := repo.appointments[id]
		assert.Equal(t, StatusCancelled, stored.Status)
		require.NotNil(t, stored.CancellationReason)
		assert.Equal(t, "patient request", *stored.CancellationReason)
	})

	t.Run("blank reason is not stored", func(t *testing.T) {
		svc, repo, id := cancelFixture(t, StrictPolicy, testNow.Add(48*time.Hour))
		require.NoError(t, svc.Cancel(context.Background(), id, "   "))

		stored := repo.appointments[id]
		assert.Equal(t, StatusCancelled, stored.Status)
		assert.Nil(t, stored.CancellationReason)
	})
}

func TestListClampsPaging(t *testing.T) {
	dir := newTestDir()
	repo := newFakeRepo(dir)
	svc := newTestService(t, repo, dir, StrictPolicy)

	_, _, err := svc.List(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 10, repo.lastListLimit)
	assert.Equal(t, 0, repo.lastListOffset)

	_, _, err = svc.List(context.Background(), 500, 20)
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastListLimit)
	assert.Equal(t, 20, repo.lastListOffset)
}
