package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/prep-deck-be/internal/models"
	"github.com/rs/zerolog/log"
)

// QuestionInput is one generated question/answer pair supplied on creation.
type QuestionInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CreateSessionInput carries the fields of a new session.
type CreateSessionInput struct {
	Role          string          `json:"role"`
	Experience    string          `json:"experience"`
	TopicsToFocus string          `json:"topicsToFocus"`
	Description   string          `json:"description"`
	Questions     []QuestionInput `json:"questions"`
}

// SessionServiceProvider defines the interface for session services.
type SessionServiceProvider interface {
	CreateSession(ctx context.Context, ownerID string, input CreateSessionInput) (models.Session, error)
	ListSessionsForOwner(ctx context.Context, ownerID string) ([]models.Session, error)
	GetSessionByID(ctx context.Context, sessionID string) (models.Session, error)
	DeleteSession(ctx context.Context, sessionID, requesterID string) error
}

// SessionService orchestrates sessions and the questions they own.
type SessionService struct {
	db           *sql.DB
	eventService EventServiceProvider
	notifier     Notifier
}

// NewSessionService creates a new SessionService. notifier may be nil.
func NewSessionService(db *sql.DB, eventService EventServiceProvider, notifier Notifier) *SessionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &SessionService{db: db, eventService: eventService, notifier: notifier}
}

const sessionColumns = "id, user_id, role, experience, topics_to_focus, description, created_at, updated_at"

func scanSession(scanner interface{ Scan(...interface{}) error }) (models.Session, error) {
	var s models.Session
	err := scanner.Scan(&s.ID, &s.UserID, &s.Role, &s.Experience, &s.TopicsToFocus, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func getSession(ctx context.Context, db queryer, id string) (models.Session, error) {
	session, err := scanSession(db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return models.Session{}, err
	}
	return session, nil
}

// CreateSession stores a new session owned by ownerID together with its
// questions. The session row and every question are written in one
// transaction; on any failure nothing is persisted.
func (s *SessionService) CreateSession(ctx context.Context, ownerID string, input CreateSessionInput) (models.Session, error) {
	if strings.TrimSpace(ownerID) == "" {
		return models.Session{}, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	now := time.Now().UTC()
	session := models.Session{
		ID:            uuid.New().String(),
		UserID:        ownerID,
		Role:          input.Role,
		Experience:    input.Experience,
		TopicsToFocus: input.TopicsToFocus,
		Description:   input.Description,
		Questions:     []models.Question{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO sessions ("+sessionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			session.ID, session.UserID, session.Role, session.Experience, session.TopicsToFocus,
			session.Description, session.CreatedAt, session.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		// Ids and positions are assigned in input order, so the stored order
		// does not depend on how the inserts are scheduled.
		questions := make([]models.Question, len(input.Questions))
		for i, in := range input.Questions {
			questions[i] = models.Question{
				ID:        uuid.New().String(),
				SessionID: session.ID,
				Position:  i,
				Question:  in.Question,
				Answer:    in.Answer,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := insertQuestion(ctx, tx, questions[i]); err != nil {
				return fmt.Errorf("failed to insert question %d: %w", i, err)
			}
		}

		session.Questions = questions
		session.UpdatedAt = time.Now().UTC()
		_, err = tx.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", session.UpdatedAt, session.ID)
		return err
	})
	if err != nil {
		return models.Session{}, err
	}

	log.Info().Str("session_id", session.ID).Str("user_id", ownerID).Int("questions", len(session.Questions)).Msg("Session created")
	s.record(ctx, ownerID, "session.create", "info", fmt.Sprintf("Session '%s' created with %d questions.", session.Role, len(session.Questions)), session.ID)
	s.notifier.NotifyUser(ownerID, "session.created", session)
	return session, nil
}

// ListSessionsForOwner returns the owner's sessions newest first, each with
// its questions in creation order.
func (s *SessionService) ListSessionsForOwner(ctx context.Context, ownerID string) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id = ? ORDER BY created_at DESC, rowid DESC", ownerID)
	if err != nil {
		return nil, err
	}

	sessions := []models.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sessions = append(sessions, session)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	grouped, err := findQuestionsBySessions(ctx, s.db, ids, OrderCreated)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	for i := range sessions {
		sessions[i].Questions = grouped[sessions[i].ID]
		if sessions[i].Questions == nil {
			sessions[i].Questions = []models.Question{}
		}
	}
	return sessions, nil
}

// GetSessionByID returns one session with pinned questions first, then
// oldest first.
func (s *SessionService) GetSessionByID(ctx context.Context, sessionID string) (models.Session, error) {
	session, err := getSession(ctx, s.db, sessionID)
	if err != nil {
		return models.Session{}, err
	}

	session.Questions, err = findQuestionsBySession(ctx, s.db, sessionID, OrderPinnedFirst)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load questions: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session and all of its questions if requesterID
// owns it. Both deletes happen in a single transaction.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID, requesterID string) error {
	var removed int64
	var role string
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		session, err := getSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.UserID != requesterID {
			return fmt.Errorf("session %s belongs to another user: %w", sessionID, ErrUnauthorized)
		}
		role = session.Role

		if removed, err = deleteQuestionsBySession(ctx, tx, sessionID); err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("session_id", sessionID).Int64("questions_removed", removed).Msg("Session deleted")
	s.record(ctx, requesterID, "session.delete", "warn", fmt.Sprintf("Session '%s' was deleted.", role), sessionID)
	s.notifier.NotifyUser(requesterID, "session.deleted", map[string]string{"id": sessionID})
	return nil
}

func (s *SessionService) record(ctx context.Context, userID, eventType, level, message, sessionID string) {
	if err := s.eventService.CreateEvent(ctx, userID, eventType, level, message, &sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Str("type", eventType).Msg("Failed to record event")
	}
}
