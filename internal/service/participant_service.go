package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eventmgr/checkin-api/internal/credential"
	"github.com/eventmgr/checkin-api/internal/models"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
)

type participantStore interface {
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error)
	FindByID(ctx context.Context, id int64) (*models.Participant, error)
	EmailExists(ctx context.Context, eventID int64, email string) (bool, error)
	Create(ctx context.Context, p *models.Participant) error
	Update(ctx context.Context, p *models.Participant) error
	SoftDelete(ctx context.Context, id int64, deletedBy string) error
}

// ParticipantService manages permanent attendee records. Every participant
// gets its credential pair issued exactly once, at creation; edits never
// touch it.
type ParticipantService struct {
	participants participantStore
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewParticipantService constructs the service.
func NewParticipantService(participants participantStore, validate *validator.Validate, logger *zap.Logger) *ParticipantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParticipantService{participants: participants, validator: validate, logger: logger}
}

// CreateParticipantRequest registers one attendee manually.
type CreateParticipantRequest struct {
	FirstName    string  `json:"first_name" validate:"required,max=100"`
	LastName     string  `json:"last_name" validate:"required,max=100"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" validate:"omitempty,max=50"`
	Company      *string `json:"company" validate:"omitempty,max=200"`
	Department   *string `json:"department" validate:"omitempty,max=200"`
	Notes        *string `json:"notes"`
	TicketTypeID *int64  `json:"ticket_type_id"`
}

// UpdateParticipantRequest edits the mutable fields of an attendee.
type UpdateParticipantRequest struct {
	FirstName    string  `json:"first_name" validate:"required,max=100"`
	LastName     string  `json:"last_name" validate:"required,max=100"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" validate:"omitempty,max=50"`
	Company      *string `json:"company" validate:"omitempty,max=200"`
	Department   *string `json:"department" validate:"omitempty,max=200"`
	Notes        *string `json:"notes"`
	TicketTypeID *int64  `json:"ticket_type_id"`
	Active       *bool   `json:"active"`
}

// List returns participants matching the filter plus the total match count.
func (s *ParticipantService) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error) {
	participants, total, err := s.participants.List(ctx, filter)
	if err != nil {
		return nil, 0, storeFailure(err, "participant listing failed")
	}
	return participants, total, nil
}

// Get returns one participant.
func (s *ParticipantService) Get(ctx context.Context, id int64) (*models.Participant, error) {
	participant, err := s.participants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, storeFailure(err, "participant lookup failed")
	}
	return participant, nil
}

// Create registers a participant and issues its immutable credential pair.
func (s *ParticipantService) Create(ctx context.Context, eventID int64, createdBy string, req CreateParticipantRequest) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participant payload")
	}
	if err := s.ensureEmailFree(ctx, eventID, req.Email); err != nil {
		return nil, err
	}

	participant := &models.Participant{
		EventID:         eventID,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           req.Email,
		Phone:           req.Phone,
		Company:         req.Company,
		Department:      req.Department,
		Notes:           req.Notes,
		ParticipantCode: credential.GenerateCode(),
		QRCodeHash:      credential.NewQRHash(),
		TicketTypeID:    req.TicketTypeID,
		Active:          true,
		CreatedBy:       createdBy,
	}
	if err := s.participants.Create(ctx, participant); err != nil {
		return nil, storeFailure(err, "participant create failed")
	}
	s.logger.Info("participant created",
		zap.Int64("event_id", eventID), zap.Int64("participant_id", participant.ID))
	return participant, nil
}

// Update edits the mutable fields. The credential pair stays untouched.
func (s *ParticipantService) Update(ctx context.Context, id int64, updatedBy string, req UpdateParticipantRequest) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participant payload")
	}
	participant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sameEmail(participant.Email, req.Email) {
		if err := s.ensureEmailFree(ctx, participant.EventID, req.Email); err != nil {
			return nil, err
		}
	}

	participant.FirstName = strings.TrimSpace(req.FirstName)
	participant.LastName = strings.TrimSpace(req.LastName)
	participant.Email = req.Email
	participant.Phone = req.Phone
	participant.Company = req.Company
	participant.Department = req.Department
	participant.Notes = req.Notes
	participant.TicketTypeID = req.TicketTypeID
	if req.Active != nil {
		participant.Active = *req.Active
	}
	participant.UpdatedBy = &updatedBy

	if err := s.participants.Update(ctx, participant); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, storeFailure(err, "participant update failed")
	}
	return participant, nil
}

// Delete soft-deletes the participant; its scan history stays in the ledger.
func (s *ParticipantService) Delete(ctx context.Context, id int64, deletedBy string) error {
	if err := s.participants.SoftDelete(ctx, id, deletedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return storeFailure(err, "participant delete failed")
	}
	return nil
}

// CredentialToken returns the scannable token for a participant.
func (s *ParticipantService) CredentialToken(ctx context.Context, id int64) (string, error) {
	participant, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return credential.Encode(participant.ParticipantCode, participant.EventID), nil
}

func (s *ParticipantService) ensureEmailFree(ctx context.Context, eventID int64, email *string) error {
	if email == nil || strings.TrimSpace(*email) == "" {
		return nil
	}
	exists, err := s.participants.EmailExists(ctx, eventID, strings.TrimSpace(*email))
	if err != nil {
		return storeFailure(err, "email check failed")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered for this event")
	}
	return nil
}

func sameEmail(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(strings.TrimSpace(*a), strings.TrimSpace(*b))
}
