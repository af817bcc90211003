package domain

import "time"

// ============================================================
// Prescriptions & eye examination readings
// ============================================================

// PrescribedMedicine is one line of a prescription.
type PrescribedMedicine struct {
	Name      string `json:"name" validate:"required"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Eye       string `json:"eye,omitempty"` // right, left, both
}

// Prescription is a doctor's prescription for a patient (prescriptions table).
type Prescription struct {
	ID        string               `json:"id,omitempty"`
	PatientID string               `json:"patient_id" validate:"required"`
	Doctor    string               `json:"doctor,omitempty"`
	Medicines []PrescribedMedicine `json:"medicines" validate:"required,min=1,dive"`
	Notes     string               `json:"notes,omitempty"`
	CreatedBy string               `json:"created_by,omitempty"`
	CreatedAt *time.Time           `json:"created_at,omitempty"`
}

// EyeReading holds the refraction and pressure values for one eye.
// Values are stored as entered; clinical range checks happen upstream.
type EyeReading struct {
	Sphere       string `json:"sphere,omitempty"`
	Cylinder     string `json:"cylinder,omitempty"`
	Axis         string `json:"axis,omitempty"`
	Add          string `json:"add,omitempty"`
	VisualAcuity string `json:"visual_acuity,omitempty"`
	NearVision   string `json:"near_vision,omitempty"`
	IOP          string `json:"iop,omitempty"`
}

// EyeExamination is one set of readings taken at a visit (eye_readings table).
type EyeExamination struct {
	ID         string     `json:"id,omitempty"`
	PatientID  string     `json:"patient_id" validate:"required"`
	RightEye   EyeReading `json:"right_eye"`
	LeftEye    EyeReading `json:"left_eye"`
	Examiner   string     `json:"examiner,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedBy  string     `json:"created_by,omitempty"`
	ExaminedAt *time.Time `json:"examined_at,omitempty"`
}
