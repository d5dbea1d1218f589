package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"google_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Profile struct {
	UserID        string  `json:"user_id"`
	Phone         string  `json:"phone"`
	Location      string  `json:"location"`
	Bio           string  `json:"bio"`
	AvatarURL     string  `json:"avatar_url"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

type JobIndustry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type JobSubCategory struct {
	ID         int64  `json:"id"`
	IndustryID int64  `json:"industry_id"`
	Name       string `json:"name"`
}

type JobStatus string

const (
	JobStatusOpen      JobStatus = "open"
	JobStatusAssigned  JobStatus = "assigned"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

type PaymentType string

const (
	PaymentTypeFixed  PaymentType = "fixed"
	PaymentTypeHourly PaymentType = "hourly"
)

type Job struct {
	ID               string      `json:"id"`
	PostedByID       string      `json:"posted_by_id"`
	IndustryID       int64       `json:"industry_id"`
	SubCategoryID    int64       `json:"subcategory_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Location         string      `json:"location"`
	RateAmount       float64     `json:"rate_amount"`
	RateCurrency     string      `json:"rate_currency"`
	PaymentType      PaymentType `json:"payment_type"`
	Status           JobStatus   `json:"status"`
	ApplicantsNeeded int         `json:"applicants_needed"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`

	// Eager-loaded relations, populated by the store on detail reads.
	PostedBy    *User           `json:"posted_by,omitempty"`
	Industry    *JobIndustry    `json:"industry,omitempty"`
	SubCategory *JobSubCategory `json:"subcategory,omitempty"`
}

func (j Job) MarshalBinary() ([]byte, error) {
	return json.Marshal(j)
}

func (j *Job) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, j)
}

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

type Application struct {
	ID          int64             `json:"id"`
	JobID       string            `json:"job_id"`
	ApplicantID string            `json:"applicant_id"`
	CoverNote   string            `json:"cover_note"`
	Status      ApplicationStatus `json:"status"`
	AppliedAt   time.Time         `json:"applied_at"`

	Applicant *User `json:"applicant,omitempty"`
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type Payment struct {
	ID          string        `json:"id"`
	PayerID     string        `json:"payer_id"`
	RecipientID string        `json:"recipient_id"`
	JobID       string        `json:"job_id"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency"`
	Reference   string        `json:"reference"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	VerifiedAt  *time.Time    `json:"verified_at,omitempty"`

	Payer     *User  `json:"payer,omitempty"`
	Recipient *User  `json:"recipient,omitempty"`
	JobTitle  string `json:"job_title,omitempty"`
}

type PaymentList struct {
	Payments []Payment `json:"payments"`
}

func (l PaymentList) MarshalBinary() ([]byte, error) {
	return json.Marshal(l)
}

func (l *PaymentList) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, l)
}

type Review struct {
	ID         int64     `json:"id"`
	ReviewerID string    `json:"reviewer_id"`
	ReviewedID string    `json:"reviewed_id"`
	JobID      string    `json:"job_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`

	Reviewer *User `json:"reviewer,omitempty"`
}
