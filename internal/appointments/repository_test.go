package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/bdang10/Carely-AI/pkg/logging"
)

var appointmentCols = []string{
	"id", "patient_id", "doctor_name", "appointment_type", "scheduled_time",
	"duration_minutes", "status", "reason", "notes", "location", "is_virtual",
	"created_at", "updated_at",
}

func appointmentRow(id int64, status string, scheduled time.Time) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows(appointmentCols).AddRow(
		id, int64(7), "Dr. Sarah Johnson", "consultation", scheduled,
		30, status, "annual check-up", "", "Main Clinic", false, now, now,
	)
}

func TestCreateDefaultsDurationAndType(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	scheduled := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(int64(7), "Dr. Sarah Johnson", "consultation", scheduled, 30, StatusScheduled, "annual check-up", "Main Clinic", false).
		WillReturnRows(appointmentRow(1, StatusScheduled, scheduled))

	repo := NewRepository(mock, logging.New("error"))
	appointment, err := repo.Create(context.Background(), CreateAppointmentRequest{
		PatientID:     7,
		DoctorName:    "Dr. Sarah Johnson",
		ScheduledTime: scheduled,
		Reason:        "annual check-up",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appointment.ID != 1 || appointment.Status != StatusScheduled {
		t.Errorf("appointment = %+v", appointment)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListForPatientExcludesCancelled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	scheduled := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(int64(7), StatusCancelled, 10).
		WillReturnRows(appointmentRow(3, StatusScheduled, scheduled))

	repo := NewRepository(mock, logging.New("error"))
	list, err := repo.ListForPatient(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != 3 {
		t.Errorf("list = %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetForPatientNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(int64(99), int64(7)).
		WillReturnRows(pgxmock.NewRows(appointmentCols))

	repo := NewRepository(mock, logging.New("error"))
	if _, err := repo.GetForPatient(context.Background(), 7, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCancelAlreadyCancelledIsIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	scheduled := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(int64(5), int64(7)).
		WillReturnRows(appointmentRow(5, StatusCancelled, scheduled))

	repo := NewRepository(mock, logging.New("error"))
	appointment, err := repo.Cancel(context.Background(), 7, 5)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if appointment.Status != StatusCancelled {
		t.Errorf("status = %q", appointment.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCancelUpdatesStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	scheduled := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(int64(5), int64(7)).
		WillReturnRows(appointmentRow(5, StatusScheduled, scheduled))
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(StatusCancelled, pgxmock.AnyArg(), int64(5), int64(7)).
		WillReturnRows(appointmentRow(5, StatusCancelled, scheduled))

	repo := NewRepository(mock, logging.New("error"))
	appointment, err := repo.Cancel(context.Background(), 7, 5)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if appointment.Status != StatusCancelled {
		t.Errorf("status = %q", appointment.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	scheduled := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	newTime := time.Date(2026, 9, 15, 15, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(int64(5), int64(7)).
		WillReturnRows(appointmentRow(5, StatusScheduled, scheduled))
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(newTime, 30, "", false, "Main Clinic", pgxmock.AnyArg(), int64(5), int64(7)).
		WillReturnRows(appointmentRow(5, StatusScheduled, newTime))

	repo := NewRepository(mock, logging.New("error"))
	appointment, err := repo.Update(context.Background(), 7, 5, UpdateAppointmentRequest{ScheduledTime: &newTime})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !appointment.ScheduledTime.Equal(newTime) {
		t.Errorf("scheduled_time = %v", appointment.ScheduledTime)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNewRepositoryDefaultsLogger(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	scheduled := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(int64(5), int64(7)).
		WillReturnRows(appointmentRow(5, StatusScheduled, scheduled))

	repo := NewRepository(mock, nil)
	if _, err := repo.GetForPatient(context.Background(), 7, 5); err != nil {
		t.Fatalf("get: %v", err)
	}
}
