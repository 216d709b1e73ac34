package appointments

import "time"

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment is one scheduled visit for a patient.
type Appointment struct {
	ID              int64     `json:"id"`
	PatientID       int64     `json:"patient_id"`
	DoctorName      string    `json:"doctor_name"`
	AppointmentType string    `json:"appointment_type"`
	ScheduledTime   time.Time `json:"scheduled_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason"`
	Notes           string    `json:"notes"`
	Location        string    `json:"location"`
	IsVirtual       bool      `json:"is_virtual"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateAppointmentRequest carries the fields needed to book a visit.
type CreateAppointmentRequest struct {
	PatientID       int64     `json:"patient_id"`
	DoctorName      string    `json:"doctor_name"`
	AppointmentType string    `json:"appointment_type"`
	ScheduledTime   time.Time `json:"scheduled_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Reason          string    `json:"reason"`
	IsVirtual       bool      `json:"is_virtual"`
}

// UpdateAppointmentRequest carries optional changes to an existing visit.
// Nil fields stay untouched.
type UpdateAppointmentRequest struct {
	ScheduledTime   *time.Time `json:"scheduled_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	IsVirtual       *bool      `json:"is_virtual,omitempty"`
}
