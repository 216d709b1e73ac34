package patients

import "time"

// Patient is a registered patient account with their intake profile.
type Patient struct {
	ID                    int64     `json:"id"`
	Email                 string    `json:"email"`
	HashedPassword        string    `json:"-"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	DateOfBirth           time.Time `json:"date_of_birth"`
	PhoneNumber           string    `json:"phone_number,omitempty"`
	Address               string    `json:"address,omitempty"`
	EmergencyContactName  string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string    `json:"emergency_contact_phone,omitempty"`
	BloodType             string    `json:"blood_type,omitempty"`
	Allergies             string    `json:"allergies,omitempty"`
	MedicalConditions     string    `json:"medical_conditions,omitempty"`
	Medications           string    `json:"medications,omitempty"`
	InsuranceProvider     string    `json:"insurance_provider,omitempty"`
	InsurancePolicyNumber string    `json:"insurance_policy_number,omitempty"`
	PreferredLanguage     string    `json:"preferred_language"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// CreatePatientRequest carries the fields needed to register an account.
type CreatePatientRequest struct {
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
}
