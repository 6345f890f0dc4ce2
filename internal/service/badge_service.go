package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmgr/checkin-api/internal/credential"
	"github.com/eventmgr/checkin-api/internal/models"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
	"github.com/eventmgr/checkin-api/pkg/export"
	"github.com/eventmgr/checkin-api/pkg/storage"
)

type eventReader interface {
	FindByID(ctx context.Context, id int64) (*models.Event, error)
}

type badgeRenderer interface {
	Render(b export.Badge) ([]byte, error)
}

type badgeStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

// BadgeService renders participant ID cards on demand for print-mode scans
// and hands out short-lived signed download links.
type BadgeService struct {
	events    eventReader
	renderer  badgeRenderer
	storage   badgeStorage
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	apiPrefix string
}

// NewBadgeService constructs the service.
func NewBadgeService(events eventReader, renderer badgeRenderer, store badgeStorage, signer *storage.SignedURLSigner, apiPrefix string, logger *zap.Logger) *BadgeService {
	if renderer == nil {
		renderer = export.NewBadgeExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeService{
		events:    events,
		renderer:  renderer,
		storage:   store,
		signer:    signer,
		logger:    logger,
		apiPrefix: apiPrefix,
	}
}

// Issue renders the participant's badge, stores it and returns a signed
// download URL.
func (s *BadgeService) Issue(ctx context.Context, participant *models.Participant) (string, error) {
	eventName := ""
	event, err := s.events.FindByID(ctx, participant.EventID)
	if err != nil {
		s.logger.Warn("event lookup for badge failed",
			zap.Int64("event_id", participant.EventID), zap.Error(err))
	} else {
		eventName = event.Name
	}

	payload, err := s.renderer.Render(export.Badge{
		EventName:  eventName,
		HolderName: participant.FullName(),
		Company:    deref(participant.Company),
		Department: deref(participant.Department),
		Code:       participant.ParticipantCode,
		Token:      credential.Encode(participant.ParticipantCode, participant.EventID),
	})
	if err != nil {
		return "", fmt.Errorf("render badge: %w", err)
	}

	badgeID := uuid.NewString()
	relPath := filepath.Join("badges", fmt.Sprintf("badge_%s_%s.pdf", participant.ParticipantCode, badgeID))
	if _, err := s.storage.Save(relPath, payload); err != nil {
		return "", fmt.Errorf("store badge: %w", err)
	}
	token, _, err := s.signer.Generate(badgeID, relPath)
	if err != nil {
		return "", fmt.Errorf("sign badge url: %w", err)
	}
	return fmt.Sprintf("%s/scans/badges?token=%s", s.apiPrefix, token), nil
}

// Open validates a signed badge token and opens the stored PDF.
func (s *BadgeService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired badge link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "badge no longer available")
	}
	return file, filepath.Base(relPath), nil
}
