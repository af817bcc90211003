package domain

import "time"

// Patient is a registered hospital patient (patients table).
type Patient struct {
	ID                 string     `json:"id,omitempty"`
	RegistrationNumber string     `json:"registration_number" validate:"required"`
	Name               string     `json:"name" validate:"required"`
	Age                int        `json:"age,omitempty" validate:"gte=0,lte=150"`
	Gender             string     `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Phone              string     `json:"phone,omitempty"`
	Address            string     `json:"address,omitempty"`
	CreatedBy          string     `json:"created_by,omitempty"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}
