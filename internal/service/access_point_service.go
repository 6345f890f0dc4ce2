package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eventmgr/checkin-api/internal/models"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
)

type accessPointStore interface {
	ListByEvent(ctx context.Context, eventID int64) ([]models.AccessPoint, error)
	FindByID(ctx context.Context, id int64) (*models.AccessPoint, error)
	Create(ctx context.Context, point *models.AccessPoint) error
	Update(ctx context.Context, point *models.AccessPoint) error
	Deactivate(ctx context.Context, id int64, updatedBy string) error
}

// AccessPointService manages event checkpoints.
type AccessPointService struct {
	accessPoints accessPointStore
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAccessPointService constructs the service.
func NewAccessPointService(accessPoints accessPointStore, validate *validator.Validate, logger *zap.Logger) *AccessPointService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessPointService{accessPoints: accessPoints, validator: validate, logger: logger}
}

// AccessPointRequest creates or edits one checkpoint.
type AccessPointRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Active      *bool   `json:"active"`
}

// List returns every checkpoint for the event, inactive ones included so
// organizers can reactivate them.
func (s *AccessPointService) List(ctx context.Context, eventID int64) ([]models.AccessPoint, error) {
	points, err := s.accessPoints.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, storeFailure(err, "access point listing failed")
	}
	return points, nil
}

// Get returns one checkpoint.
func (s *AccessPointService) Get(ctx context.Context, id int64) (*models.AccessPoint, error) {
	point, err := s.accessPoints.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "access point not found")
		}
		return nil, storeFailure(err, "access point lookup failed")
	}
	return point, nil
}

// Create adds a checkpoint to the event. New checkpoints start active unless
// the request says otherwise.
func (s *AccessPointService) Create(ctx context.Context, eventID int64, createdBy string, req AccessPointRequest) (*models.AccessPoint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access point payload")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	point := &models.AccessPoint{
		EventID:     eventID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Active:      active,
		CreatedBy:   &createdBy,
	}
	if err := s.accessPoints.Create(ctx, point); err != nil {
		return nil, storeFailure(err, "access point create failed")
	}
	return point, nil
}

// Update edits name, description and active state.
func (s *AccessPointService) Update(ctx context.Context, id int64, updatedBy string, req AccessPointRequest) (*models.AccessPoint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access point payload")
	}
	point, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	point.Name = strings.TrimSpace(req.Name)
	point.Description = req.Description
	if req.Active != nil {
		point.Active = *req.Active
	}
	point.UpdatedBy = &updatedBy

	if err := s.accessPoints.Update(ctx, point); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "access point not found")
		}
		return nil, storeFailure(err, "access point update failed")
	}
	return point, nil
}

// Deactivate soft-deletes the checkpoint. Scans against it are refused from
// then on, but its ledger history stays intact.
func (s *AccessPointService) Deactivate(ctx context.Context, id int64, updatedBy string) error {
	if err := s.accessPoints.Deactivate(ctx, id, updatedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "access point not found")
		}
		return storeFailure(err, "access point deactivate failed")
	}
	return nil
}
