package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmgr/checkin-api/internal/credential"
	"github.com/eventmgr/checkin-api/internal/models"
	"github.com/eventmgr/checkin-api/pkg/jobs"
)

// MailMessage is one outbound email.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers outbound mail. Implementations wrap whatever transport the
// deployment uses.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// LogMailer writes mail to the log instead of sending it. Used in
// development and whenever delivery is disabled.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a log-only mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(_ context.Context, msg MailMessage) error {
	m.logger.Info("mail suppressed (delivery disabled)",
		zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

const (
	jobTypeCredentialEmail = "credential_email"
	jobTypeCredentialBatch = "credential_batch"
)

type credentialEmailJob struct {
	ParticipantID int64
}

type credentialBatchJob struct {
	EventID   int64
	CreatedBy string
}

// CommunicationService delivers credential emails through a background
// worker queue, so imports and scans never block on the mail transport.
type CommunicationService struct {
	participants participantStore
	events       eventReader
	mailer       Mailer
	logger       *zap.Logger
	queue        *jobs.Queue
	from         string
}

// NewCommunicationService constructs the service and its worker queue. Call
// Start before enqueueing and Stop on shutdown.
func NewCommunicationService(participants participantStore, events eventReader, mailer Mailer, from string, workers, maxRetries int, logger *zap.Logger) *CommunicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	s := &CommunicationService{
		participants: participants,
		events:       events,
		mailer:       mailer,
		logger:       logger,
		from:         from,
	}
	s.queue = jobs.NewQueue("credential-mail", s.handle, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: maxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the mail workers.
func (s *CommunicationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *CommunicationService) Stop() {
	s.queue.Stop()
}

// EnqueueCredential queues one credential email.
func (s *CommunicationService) EnqueueCredential(_ context.Context, participantID int64) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeCredentialEmail,
		Payload: credentialEmailJob{ParticipantID: participantID},
	})
}

// EnqueueBatch queues credential emails for every participant the uploader
// just imported. Fan-out to individual jobs happens on a worker.
func (s *CommunicationService) EnqueueBatch(_ context.Context, eventID int64, createdBy string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeCredentialBatch,
		Payload: credentialBatchJob{EventID: eventID, CreatedBy: createdBy},
	})
}

func (s *CommunicationService) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypeCredentialEmail:
		payload, ok := job.Payload.(credentialEmailJob)
		if !ok {
			s.logger.Error("unexpected payload for credential email job", zap.String("job_id", job.ID))
			return nil
		}
		return s.sendCredential(ctx, payload.ParticipantID)
	case jobTypeCredentialBatch:
		payload, ok := job.Payload.(credentialBatchJob)
		if !ok {
			s.logger.Error("unexpected payload for credential batch job", zap.String("job_id", job.ID))
			return nil
		}
		return s.fanOutBatch(ctx, payload)
	default:
		s.logger.Warn("unknown mail job type", zap.String("type", job.Type))
		return nil
	}
}

func (s *CommunicationService) fanOutBatch(ctx context.Context, payload credentialBatchJob) error {
	page := 1
	for {
		participants, total, err := s.participants.List(ctx, models.ParticipantFilter{
			EventID:   payload.EventID,
			CreatedBy: payload.CreatedBy,
			Page:      page,
			PageSize:  200,
		})
		if err != nil {
			return fmt.Errorf("list batch participants: %w", err)
		}
		for _, participant := range participants {
			if participant.Email == nil || *participant.Email == "" {
				continue
			}
			if err := s.EnqueueCredential(ctx, participant.ID); err != nil {
				return fmt.Errorf("enqueue credential email: %w", err)
			}
		}
		if page*200 >= total || len(participants) == 0 {
			return nil
		}
		page++
	}
}

func (s *CommunicationService) sendCredential(ctx context.Context, participantID int64) error {
	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		return fmt.Errorf("load participant %d: %w", participantID, err)
	}
	if participant.Email == nil || *participant.Email == "" {
		return nil
	}

	eventName := "your event"
	if event, err := s.events.FindByID(ctx, participant.EventID); err == nil {
		eventName = event.Name
	}

	token := credential.Encode(participant.ParticipantCode, participant.EventID)
	msg := MailMessage{
		To:      *participant.Email,
		Subject: fmt.Sprintf("Your entry credential for %s", eventName),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour registration for %s is confirmed.\n\nParticipant code: %s\nCredential token: %s\n\nPresent this credential at any entrance.\n",
			participant.FullName(), eventName, participant.ParticipantCode, token),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send credential email to participant %d: %w", participantID, err)
	}
	s.logger.Info("credential email sent",
		zap.Int64("participant_id", participantID), zap.String("from", s.from))
	return nil
}
