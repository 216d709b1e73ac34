package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bdang10/Carely-AI/pkg/logging"
)

// ErrNotFound is returned when an appointment does not exist for the patient.
var ErrNotFound = errors.New("appointments: appointment not found")

// Querier is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores appointments in Postgres.
type Repository struct {
	db     Querier
	logger *logging.Logger
}

// NewRepository creates a repository backed by a pgx pool or mock.
func NewRepository(db Querier, logger *logging.Logger) *Repository {
	if db == nil {
		panic("appointments: querier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger.Component("appointments")}
}

const appointmentColumns = `id, patient_id, doctor_name, appointment_type, scheduled_time,
	duration_minutes, status, reason, notes, location, is_virtual, created_at, updated_at`

// Create inserts a scheduled appointment and returns the stored row.
func (r *Repository) Create(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 30
	}
	if req.AppointmentType == "" {
		req.AppointmentType = "consultation"
	}
	location := "Main Clinic"
	if req.IsVirtual {
		location = "Virtual"
	}

	query := `
		INSERT INTO appointments (patient_id, doctor_name, appointment_type, scheduled_time,
			duration_minutes, status, reason, location, is_virtual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + appointmentColumns
	row := r.db.QueryRow(ctx, query,
		req.PatientID,
		req.DoctorName,
		req.AppointmentType,
		req.ScheduledTime,
		req.DurationMinutes,
		StatusScheduled,
		req.Reason,
		location,
		req.IsVirtual,
	)
	appointment, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}
	return appointment, nil
}

// GetForPatient returns an appointment scoped to the patient.
func (r *Repository) GetForPatient(ctx context.Context, patientID, appointmentID int64) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND patient_id = $2`
	appointment, err := scanAppointment(r.db.QueryRow(ctx, query, appointmentID, patientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select: %w", err)
	}
	return appointment, nil
}

// ListForPatient returns the patient's non-cancelled appointments, newest
// scheduled time first.
func (r *Repository) ListForPatient(ctx context.Context, patientID int64, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1 AND status <> $2
		ORDER BY scheduled_time DESC
		LIMIT $3`
	rows, err := r.db.Query(ctx, query, patientID, StatusCancelled, limit)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

// Cancel marks the appointment cancelled. Returns the prior status so callers
// can report it.
func (r *Repository) Cancel(ctx context.Context, patientID, appointmentID int64) (*Appointment, error) {
	existing, err := r.GetForPatient(ctx, patientID, appointmentID)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusCancelled {
		return existing, nil
	}

	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND patient_id = $4
		RETURNING ` + appointmentColumns
	appointment, err := scanAppointment(r.db.QueryRow(ctx, query, StatusCancelled, time.Now().UTC(), appointmentID, patientID))
	if err != nil {
		return nil, fmt.Errorf("appointments: cancel: %w", err)
	}
	return appointment, nil
}

// Update applies the non-nil fields of req to the appointment.
func (r *Repository) Update(ctx context.Context, patientID, appointmentID int64, req UpdateAppointmentRequest) (*Appointment, error) {
	existing, err := r.GetForPatient(ctx, patientID, appointmentID)
	if err != nil {
		return nil, err
	}

	scheduledTime := existing.ScheduledTime
	if req.ScheduledTime != nil {
		scheduledTime = *req.ScheduledTime
	}
	duration := existing.DurationMinutes
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	notes := existing.Notes
	if req.Notes != nil {
		notes = *req.Notes
	}
	isVirtual := existing.IsVirtual
	location := existing.Location
	if req.IsVirtual != nil {
		isVirtual = *req.IsVirtual
		location = "Main Clinic"
		if isVirtual {
			location = "Virtual"
		}
	}

	query := `
		UPDATE appointments
		SET scheduled_time = $1, duration_minutes = $2, notes = $3, is_virtual = $4, location = $5, updated_at = $6
		WHERE id = $7 AND patient_id = $8
		RETURNING ` + appointmentColumns
	appointment, err := scanAppointment(r.db.QueryRow(ctx, query,
		scheduledTime, duration, notes, isVirtual, location, time.Now().UTC(), appointmentID, patientID))
	if err != nil {
		return nil, fmt.Errorf("appointments: update: %w", err)
	}
	return appointment, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	if err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorName,
		&a.AppointmentType,
		&a.ScheduledTime,
		&a.DurationMinutes,
		&a.Status,
		&a.Reason,
		&a.Notes,
		&a.Location,
		&a.IsVirtual,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
