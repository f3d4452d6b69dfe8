package models

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type DocumentType string

const (
	DocPassport       DocumentType = "passport"
	DocNationalID     DocumentType = "national_id"
	DocDrivingLicense DocumentType = "driving_license"
)

type VerificationRequest struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	DocumentType   DocumentType       `json:"document_type"`
	DocumentNumber string             `json:"document_number"`
	Country        string             `json:"country"`
	Status         VerificationStatus `json:"status"`
	Reason         string             `json:"reason,omitempty"`
	ReviewedBy     *string            `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time         `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}
