package records

import "time"

// MedicalRecord is one clinical entry in a patient's history.
type MedicalRecord struct {
	ID                    int64      `json:"id"`
	PatientID             int64      `json:"patient_id"`
	RecordType            string     `json:"record_type"`
	RecordDate            time.Time  `json:"record_date"`
	DoctorName            string     `json:"doctor_name,omitempty"`
	Diagnosis             string     `json:"diagnosis,omitempty"`
	Symptoms              string     `json:"symptoms,omitempty"`
	Treatment             string     `json:"treatment,omitempty"`
	MedicationsPrescribed string     `json:"medications_prescribed,omitempty"`
	LabResults            string     `json:"lab_results,omitempty"`
	VitalSigns            string     `json:"vital_signs,omitempty"` // JSON blob as recorded
	HeightCm              *float64   `json:"height_cm,omitempty"`
	WeightKg              *float64   `json:"weight_kg,omitempty"`
	BloodPressure         string     `json:"blood_pressure,omitempty"`
	HeartRate             *int       `json:"heart_rate,omitempty"`
	Temperature           *float64   `json:"temperature,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	FollowUpRequired      bool       `json:"follow_up_required"`
	FollowUpDate          *time.Time `json:"follow_up_date,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CreateRecordRequest carries the fields for a new record.
type CreateRecordRequest struct {
	PatientID             int64      `json:"patient_id"`
	RecordType            string     `json:"record_type"`
	RecordDate            time.Time  `json:"record_date"`
	DoctorName            string     `json:"doctor_name,omitempty"`
	Diagnosis             string     `json:"diagnosis,omitempty"`
	Symptoms              string     `json:"symptoms,omitempty"`
	Treatment             string     `json:"treatment,omitempty"`
	MedicationsPrescribed string     `json:"medications_prescribed,omitempty"`
	LabResults            string     `json:"lab_results,omitempty"`
	VitalSigns            string     `json:"vital_signs,omitempty"`
	HeightCm              *float64   `json:"height_cm,omitempty"`
	WeightKg              *float64   `json:"weight_kg,omitempty"`
	BloodPressure         string     `json:"blood_pressure,omitempty"`
	HeartRate             *int       `json:"heart_rate,omitempty"`
	Temperature           *float64   `json:"temperature,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	FollowUpRequired      bool       `json:"follow_up_required"`
	FollowUpDate          *time.Time `json:"follow_up_date,omitempty"`
}
