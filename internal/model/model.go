package model

import "time"

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentExpired = "expired"
)

type Event struct {
	ID                    int64     `db:"id" json:"id"`
	Name                  string    `db:"name" json:"name"`
	Description           string    `db:"description,omitempty" json:"description,omitempty"`
	StartTime             time.Time `db:"start_time" json:"start_time"`
	EndTime               time.Time `db:"end_time,omitempty" json:"end_time,omitempty"`
	Venue                 string    `db:"venue" json:"venue"`
	Department            string    `db:"department" json:"department"`
	ContactInfo           string    `db:"contact_info,omitempty" json:"contact_info,omitempty"`
	RegFee                int64     `db:"reg_fee" json:"reg_fee"`
	Capacity              int       `db:"capacity" json:"capacity"`
	PaymentTimeoutMinutes int       `db:"payment_timeout_minutes" json:"payment_timeout_minutes"`
	Approved              bool      `db:"approved" json:"approved"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

type Registration struct {
	ID            int64         `db:"id" json:"id"`
	EventID       int64         `db:"event_id" json:"event_id"`
	UserID        int64         `db:"user_id" json:"user_id"`
	OrderID       string        `db:"order_id" json:"order_id,omitempty"`
	PaymentID     string        `db:"payment_id" json:"payment_id,omitempty"`
	Signature     string        `db:"signature" json:"-"`
	PaymentStatus string        `db:"payment_status" json:"payment_status"`
	Participants  []Participant `db:"-" json:"participants"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Participant rows are write-once: captured when the registration is
// created, never updated afterwards.
type Participant struct {
	ID             int64  `db:"id" json:"id"`
	RegistrationID int64  `db:"registration_id" json:"registration_id"`
	Name           string `db:"name" json:"name"`
	Email          string `db:"email" json:"email"`
	Mobile         string `db:"mobile" json:"mobile"`
	AltMobile      string `db:"alt_mobile,omitempty" json:"alt_mobile,omitempty"`
	College        string `db:"college" json:"college"`
	Branch         string `db:"branch" json:"branch"`
	Semester       string `db:"semester" json:"semester"`
}
