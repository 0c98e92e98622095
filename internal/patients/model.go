// Package patients is the reference tenant-owned collaborator: a thin
// patient-record surface whose every read flows through the scoped layer.
package patients

import "time"

type Patient struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Appointment struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	PatientID string    `json:"patient_id"`
	Service   string    `json:"service"`
	StartsAt  time.Time `json:"starts_at"`
}
