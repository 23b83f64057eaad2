package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/internal/metrics"
	"github.com/sandevgo/piichat/internal/service/conversation"
	"github.com/sandevgo/piichat/internal/service/redactor"
	"github.com/sandevgo/piichat/pkg/log"
)

type Redactor interface {
	Apply(ctx context.Context, text string) (redactor.Result, error)
}

type namedProvider interface {
	Name() string
}

// Reply describes one completed exchange.
type Reply struct {
	// Redacted is the user text exactly as it was sent to the model.
	Redacted   string
	Assistant  string
	Counts     map[core.EntityKind]int
	Transcript []core.Exchange
}

// Service runs the redact, send, record cycle for every user submission.
type Service struct {
	redactor Redactor
	ai       core.AIProvider
	sessions *conversation.Sessions
	repo     core.TurnsRepository
	metrics  *metrics.Metrics
}

// NewService wires the orchestrator. repo may be nil, in which case
// conversations live in memory only.
func NewService(
	redactor Redactor,
	ai core.AIProvider,
	sessions *conversation.Sessions,
	repo core.TurnsRepository,
	m *metrics.Metrics,
) *Service {
	return &Service{
		redactor: redactor,
		ai:       ai,
		sessions: sessions,
		repo:     repo,
		metrics:  m,
	}
}

// HandleUserMessage redacts raw, sends the conversation to the model and
// returns the visible transcript.
func (s *Service) HandleUserMessage(ctx context.Context, sessionID, raw string) ([]core.Exchange, error) {
	reply, err := s.Submit(ctx, sessionID, raw)
	if err != nil {
		return nil, err
	}
	return reply.Transcript, nil
}

// Submit is HandleUserMessage with the details of the exchange. The raw text
// never leaves this function: only the redacted form is stored or sent.
func (s *Service) Submit(ctx context.Context, sessionID, raw string) (Reply, error) {
	logger := log.FromCtx(ctx).With().Str("session", sessionID).Logger()

	if strings.TrimSpace(raw) == "" {
		s.metrics.RecordMessage(metrics.OutcomeEmpty)
		return Reply{}, core.ErrEmptyMessage
	}

	sess := s.sessions.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()
	s.load(ctx, sess)

	redacted, err := s.redactor.Apply(ctx, raw)
	if err != nil {
		s.metrics.RecordMessage(metrics.OutcomeDetectionError)
		logger.Error().Err(err).Msg("Redaction failed, message dropped")

		var detErr *core.DetectionError
		if !errors.As(err, &detErr) {
			err = &core.DetectionError{Err: err}
		}
		return Reply{}, err
	}

	before := sess.State.Len()
	userTurn := sess.State.Append(core.RoleUser, redacted.Text)

	started := time.Now()
	answer, err := s.ai.Chat(ctx, sess.State.Turns())
	s.metrics.RecordLLMRequest(s.providerName(), time.Since(started))
	if err != nil {
		sess.State.Rollback(before)
		s.metrics.RecordMessage(metrics.OutcomeTransportError)
		logger.Error().Err(err).Msg("Language model request failed")

		var trErr *core.TransportError
		if !errors.As(err, &trErr) {
			err = &core.TransportError{Provider: s.providerName(), Err: err}
		}
		return Reply{}, err
	}

	assistantTurn := sess.State.Append(core.RoleAssistant, answer.Content)
	s.persist(ctx, sessionID, userTurn, assistantTurn)
	s.metrics.RecordMessage(metrics.OutcomeOK)

	logger.Debug().
		Int("redacted", total(redacted.Counts)).
		Int("turns", sess.State.Len()).
		Msg("Exchange completed")

	return Reply{
		Redacted:   redacted.Text,
		Assistant:  answer.Content,
		Counts:     redacted.Counts,
		Transcript: sess.State.VisibleTranscript(),
	}, nil
}

// Reset clears the session back to its preamble and forgets stored turns.
func (s *Service) Reset(ctx context.Context, sessionID string) []core.Exchange {
	sess := s.sessions.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()

	sess.State.Reset()
	sess.MarkLoaded()

	if s.repo != nil {
		if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
			log.FromCtx(ctx).Error().Err(err).Str("session", sessionID).Msg("Failed to delete stored turns")
		}
	}
	return sess.State.VisibleTranscript()
}

func (s *Service) Transcript(ctx context.Context, sessionID string) []core.Exchange {
	sess := s.sessions.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()

	s.load(ctx, sess)
	return sess.State.VisibleTranscript()
}

// load replays stored turns into a session the first time it is used.
func (s *Service) load(ctx context.Context, sess *conversation.Session) {
	if sess.Loaded() {
		return
	}
	sess.MarkLoaded()
	if s.repo == nil {
		return
	}

	turns, err := s.repo.GetTurns(ctx, sess.ID)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("session", sess.ID).Msg("Failed to load stored turns")
		return
	}
	for _, t := range turns {
		sess.State.Append(t.Role, t.Content)
	}
	if len(turns) > 0 {
		log.FromCtx(ctx).Debug().Str("session", sess.ID).Int("turns", len(turns)).Msg("Restored conversation")
	}
}

func (s *Service) persist(ctx context.Context, sessionID string, turns ...core.Turn) {
	if s.repo == nil {
		return
	}
	if err := s.repo.AddTurns(ctx, sessionID, turns...); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("session", sessionID).Msg("Failed to store turns")
	}
}

func (s *Service) providerName() string {
	if p, ok := s.ai.(namedProvider); ok {
		return p.Name()
	}
	return ""
}

func total(counts map[core.EntityKind]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
