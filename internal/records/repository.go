package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bdang10/Carely-AI/pkg/logging"
)

// ErrNotFound is returned when a record does not exist for the patient.
var ErrNotFound = errors.New("medical record not found")

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists medical records in Postgres.
type Repository struct {
	db     Querier
	logger *logging.Logger
}

func NewRepository(db Querier, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger.Component("records")}
}

const recordColumns = `id, patient_id, record_type, record_date, doctor_name, diagnosis,
	symptoms, treatment, medications_prescribed, lab_results, vital_signs,
	height_cm, weight_kg, blood_pressure, heart_rate, temperature, notes,
	follow_up_required, follow_up_date, created_at, updated_at`

// Create inserts a new medical record and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, req CreateRecordRequest) (*MedicalRecord, error) {
	query := `
		INSERT INTO medical_records (
			patient_id, record_type, record_date, doctor_name, diagnosis,
			symptoms, treatment, medications_prescribed, lab_results, vital_signs,
			height_cm, weight_kg, blood_pressure, heart_rate, temperature, notes,
			follow_up_required, follow_up_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + recordColumns

	row := r.db.QueryRow(ctx, query,
		req.PatientID, req.RecordType, req.RecordDate, req.DoctorName, req.Diagnosis,
		req.Symptoms, req.Treatment, req.MedicationsPrescribed, req.LabResults, req.VitalSigns,
		req.HeightCm, req.WeightKg, req.BloodPressure, req.HeartRate, req.Temperature, req.Notes,
		req.FollowUpRequired, req.FollowUpDate,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("insert medical record: %w", err)
	}
	return rec, nil
}

// GetForPatient fetches a single record scoped to the owning patient.
func (r *Repository) GetForPatient(ctx context.Context, recordID, patientID int64) (*MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1 AND patient_id = $2`

	rec, err := scanRecord(r.db.QueryRow(ctx, query, recordID, patientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get medical record: %w", err)
	}
	return rec, nil
}

// ListForPatient returns the patient's records, most recent first.
func (r *Repository) ListForPatient(ctx context.Context, patientID int64, limit int) ([]*MedicalRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + recordColumns + `
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY record_date DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	var out []*MedicalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var rec MedicalRecord
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.RecordType, &rec.RecordDate, &rec.DoctorName, &rec.Diagnosis,
		&rec.Symptoms, &rec.Treatment, &rec.MedicationsPrescribed, &rec.LabResults, &rec.VitalSigns,
		&rec.HeightCm, &rec.WeightKg, &rec.BloodPressure, &rec.HeartRate, &rec.Temperature, &rec.Notes,
		&rec.FollowUpRequired, &rec.FollowUpDate, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
