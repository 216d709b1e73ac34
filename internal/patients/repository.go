package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no patient matches.
	ErrNotFound = errors.New("patients: patient not found")
	// ErrEmailTaken is returned when registering a duplicate email.
	ErrEmailTaken = errors.New("patients: email already registered")
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores patients in Postgres.
type Repository struct {
	db Querier
}

// NewRepository creates a repository backed by a pgx pool or mock.
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("patients: querier required")
	}
	return &Repository{db: db}
}

const patientColumns = `id, email, hashed_password, first_name, last_name, date_of_birth,
	phone_number, address, emergency_contact_name, emergency_contact_phone, blood_type,
	allergies, medical_conditions, medications, insurance_provider, insurance_policy_number,
	preferred_language, is_active, created_at, updated_at`

// Create registers a new patient account.
func (r *Repository) Create(ctx context.Context, req CreatePatientRequest) (*Patient, error) {
	query := `
		INSERT INTO patients (email, hashed_password, first_name, last_name, date_of_birth, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + patientColumns
	patient, err := scanPatient(r.db.QueryRow(ctx, query,
		strings.ToLower(strings.TrimSpace(req.Email)),
		req.HashedPassword,
		req.FirstName,
		req.LastName,
		req.DateOfBirth,
		req.PhoneNumber,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("patients: insert: %w", err)
	}
	return patient, nil
}

// GetByEmail loads a patient by email for login.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE email = $1 AND is_active`
	patient, err := scanPatient(r.db.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: select by email: %w", err)
	}
	return patient, nil
}

// GetByID loads a patient by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND is_active`
	patient, err := scanPatient(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: select by id: %w", err)
	}
	return patient, nil
}

// UpdateProfileRequest carries optional profile changes. Nil fields stay
// untouched.
type UpdateProfileRequest struct {
	PhoneNumber           *string `json:"phone_number,omitempty"`
	Address               *string `json:"address,omitempty"`
	EmergencyContactName  *string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string `json:"emergency_contact_phone,omitempty"`
	BloodType             *string `json:"blood_type,omitempty"`
	Allergies             *string `json:"allergies,omitempty"`
	MedicalConditions     *string `json:"medical_conditions,omitempty"`
	Medications           *string `json:"medications,omitempty"`
	InsuranceProvider     *string `json:"insurance_provider,omitempty"`
	InsurancePolicyNumber *string `json:"insurance_policy_number,omitempty"`
	PreferredLanguage     *string `json:"preferred_language,omitempty"`
}

// UpdateProfile applies the non-nil fields to the patient's profile.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*Patient, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apply := func(current string, update *string) string {
		if update != nil {
			return *update
		}
		return current
	}

	query := `
		UPDATE patients
		SET phone_number = $1, address = $2, emergency_contact_name = $3, emergency_contact_phone = $4,
			blood_type = $5, allergies = $6, medical_conditions = $7, medications = $8,
			insurance_provider = $9, insurance_policy_number = $10, preferred_language = $11, updated_at = $12
		WHERE id = $13
		RETURNING ` + patientColumns
	patient, err := scanPatient(r.db.QueryRow(ctx, query,
		apply(existing.PhoneNumber, req.PhoneNumber),
		apply(existing.Address, req.Address),
		apply(existing.EmergencyContactName, req.EmergencyContactName),
		apply(existing.EmergencyContactPhone, req.EmergencyContactPhone),
		apply(existing.BloodType, req.BloodType),
		apply(existing.Allergies, req.Allergies),
		apply(existing.MedicalConditions, req.MedicalConditions),
		apply(existing.Medications, req.Medications),
		apply(existing.InsuranceProvider, req.InsuranceProvider),
		apply(existing.InsurancePolicyNumber, req.InsurancePolicyNumber),
		apply(existing.PreferredLanguage, req.PreferredLanguage),
		time.Now().UTC(),
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("patients: update profile: %w", err)
	}
	return patient, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(
		&p.ID,
		&p.Email,
		&p.HashedPassword,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&p.PhoneNumber,
		&p.Address,
		&p.EmergencyContactName,
		&p.EmergencyContactPhone,
		&p.BloodType,
		&p.Allergies,
		&p.MedicalConditions,
		&p.Medications,
		&p.InsuranceProvider,
		&p.InsurancePolicyNumber,
		&p.PreferredLanguage,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
