package services

import (
	"context"
	"errors"
	"strings"

	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

type VerificationService struct {
	runner  repo.TxRunner
	ver     repo.Verifications
	users   repo.Users
	auditor *Auditor
	notify  *Notifier
}

func NewVerificationService(runner repo.TxRunner, ver repo.Verifications, users repo.Users, auditor *Auditor, notify *Notifier) *VerificationService {
	return &VerificationService{runner: runner, ver: ver, users: users, auditor: auditor, notify: notify}
}

func validDocType(t models.DocumentType) bool {
	switch t {
	case models.DocPassport, models.DocNationalID, models.DocDrivingLicense:
		return true
	}
	return false
}

// Submit opens a verification request and flips the user's KYC flag to
// pending. One open request per user.
func (s *VerificationService) Submit(ctx context.Context, userID string, docType models.DocumentType, docNumber, country string) (models.VerificationRequest, error) {
	if !validDocType(docType) {
		return models.VerificationRequest{}, errors.New("invalid document type")
	}
	docNumber = strings.TrimSpace(docNumber)
	country = strings.ToUpper(strings.TrimSpace(country))
	if docNumber == "" || country == "" {
		return models.VerificationRequest{}, errors.New("document number and country required")
	}

	if latest, err := s.ver.LatestByUser(ctx, userID); err == nil && latest.Status == models.VerificationPending {
		return models.VerificationRequest{}, ErrOpenVerification
	} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return models.VerificationRequest{}, err
	}

	var created models.VerificationRequest
	err := s.runner.WithTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.ver.Create(ctx, models.VerificationRequest{
			UserID:         userID,
			DocumentType:   docType,
			DocumentNumber: docNumber,
			Country:        country,
			Status:         models.VerificationPending,
		})
		if err != nil {
			return err
		}
		return s.users.SetKYCStatus(ctx, userID, models.KYCPending)
	})
	if err != nil {
		return models.VerificationRequest{}, err
	}

	s.auditor.Record("verification", created.ID, userID, "kyc.submitted", map[string]any{"document_type": string(docType)})
	return created, nil
}

func (s *VerificationService) Mine(ctx context.Context, userID string) (models.VerificationRequest, error) {
	return s.ver.LatestByUser(ctx, userID)
}

func (s *VerificationService) ListPending(ctx context.Context, limit, offset int) ([]models.VerificationRequest, error) {
	return s.ver.ListPending(ctx, limit, offset)
}

func (s *VerificationService) Approve(ctx context.Context, reviewerID, id string) error {
	return s.review(ctx, reviewerID, id, models.VerificationApproved, "")
}

func (s *VerificationService) Reject(ctx context.Context, reviewerID, id, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return errors.New("rejection reason required")
	}
	return s.review(ctx, reviewerID, id, models.VerificationRejected, reason)
}

func (s *VerificationService) review(ctx context.Context, reviewerID, id string, status models.VerificationStatus, reason string) error {
	v, err := s.ver.GetByID(ctx, id)
	if err != nil {
		return err
	}

	userStatus := models.KYCApproved
	if status == models.VerificationRejected {
		userStatus = models.KYCRejected
	}
	err = s.runner.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ver.Review(ctx, id, status, reason, reviewerID); err != nil {
			return err
		}
		return s.users.SetKYCStatus(ctx, v.UserID, userStatus)
	})
	if err != nil {
		return err
	}

	s.auditor.Record("verification", id, reviewerID, "kyc."+string(status), map[string]any{"user_id": v.UserID, "reason": reason})
	if u, err := s.users.GetByID(ctx, v.UserID); err == nil {
		s.notify.KYCDecision(u.Email, status == models.VerificationApproved, reason)
	}
	return nil
}
