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

// QuestionOrder selects how a session's questions are sorted when fetched.
type QuestionOrder int

const (
	// OrderCreated keeps the order the questions were attached in.
	OrderCreated QuestionOrder = iota
	// OrderPinnedFirst puts pinned questions first, then oldest first.
	OrderPinnedFirst
)

func (o QuestionOrder) clause() string {
	if o == OrderPinnedFirst {
		return "is_pinned DESC, created_at ASC, position ASC"
	}
	return "position ASC"
}

// QuestionServiceProvider defines the interface for question services.
type QuestionServiceProvider interface {
	AddQuestions(ctx context.Context, sessionID, requesterID string, inputs []QuestionInput) ([]models.Question, error)
	TogglePin(ctx context.Context, id, requesterID string) (models.Question, error)
	UpdateNote(ctx context.Context, id, requesterID, note string) (models.Question, error)
}

// QuestionService is the data access layer for questions.
type QuestionService struct {
	db           *sql.DB
	eventService EventServiceProvider
	notifier     Notifier
}

// NewQuestionService creates a new QuestionService. notifier may be nil.
func NewQuestionService(db *sql.DB, eventService EventServiceProvider, notifier Notifier) *QuestionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &QuestionService{db: db, eventService: eventService, notifier: notifier}
}

const questionColumns = "id, session_id, position, question, answer, note, is_pinned, created_at, updated_at"

func scanQuestion(scanner interface{ Scan(...interface{}) error }) (models.Question, error) {
	var q models.Question
	err := scanner.Scan(&q.ID, &q.SessionID, &q.Position, &q.Question, &q.Answer, &q.Note, &q.IsPinned, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func insertQuestion(ctx context.Context, db queryer, q models.Question) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO questions ("+questionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		q.ID, q.SessionID, q.Position, q.Question, q.Answer, q.Note, q.IsPinned, q.CreatedAt, q.UpdatedAt)
	return err
}

func deleteQuestionsBySession(ctx context.Context, db queryer, sessionID string) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM questions WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// findQuestionsBySessions loads the questions of every given session in a
// single query, grouped by session id.
func findQuestionsBySessions(ctx context.Context, db queryer, sessionIDs []string, order QuestionOrder) (map[string][]models.Question, error) {
	grouped := make(map[string][]models.Question, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return grouped, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(sessionIDs)), ", ")
	args := make([]interface{}, len(sessionIDs))
	for i, id := range sessionIDs {
		args[i] = id
	}

	query := fmt.Sprintf("SELECT %s FROM questions WHERE session_id IN (%s) ORDER BY session_id, %s",
		questionColumns, placeholders, order.clause())
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		grouped[q.SessionID] = append(grouped[q.SessionID], q)
	}
	return grouped, rows.Err()
}

func findQuestionsBySession(ctx context.Context, db queryer, sessionID string, order QuestionOrder) ([]models.Question, error) {
	grouped, err := findQuestionsBySessions(ctx, db, []string{sessionID}, order)
	if err != nil {
		return nil, err
	}
	if qs := grouped[sessionID]; qs != nil {
		return qs, nil
	}
	return []models.Question{}, nil
}

// AddQuestions appends questions to a session owned by requesterID. They
// are stored after the existing ones, in input order, in one transaction.
func (s *QuestionService) AddQuestions(ctx context.Context, sessionID, requesterID string, inputs []QuestionInput) ([]models.Question, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrValidation)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", ErrValidation)
	}

	created := make([]models.Question, len(inputs))
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		session, err := getSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.UserID != requesterID {
			return fmt.Errorf("session %s belongs to another user: %w", sessionID, ErrUnauthorized)
		}

		var next int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM questions WHERE session_id = ?", sessionID).Scan(&next); err != nil {
			return err
		}

		now := time.Now().UTC()
		for i, in := range inputs {
			created[i] = models.Question{
				ID:        uuid.New().String(),
				SessionID: sessionID,
				Position:  next + i,
				Question:  in.Question,
				Answer:    in.Answer,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := insertQuestion(ctx, tx, created[i]); err != nil {
				return fmt.Errorf("failed to insert question %d: %w", i, err)
			}
		}
		_, err = tx.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", now, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("session_id", sessionID).Int("questions", len(created)).Msg("Questions added")
	if err := s.eventService.CreateEvent(ctx, requesterID, "question.add", "info",
		fmt.Sprintf("%d question(s) added.", len(created)), &sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to record question event")
	}
	s.notifier.NotifyUser(requesterID, "questions.added", created)
	return created, nil
}

// TogglePin flips the pinned flag of a question owned by requesterID.
func (s *QuestionService) TogglePin(ctx context.Context, id, requesterID string) (models.Question, error) {
	q, err := s.updateOwned(ctx, id, requesterID, "is_pinned = NOT is_pinned")
	if err != nil {
		return models.Question{}, err
	}

	verb := "unpinned"
	if q.IsPinned {
		verb = "pinned"
	}
	s.afterUpdate(ctx, requesterID, "question.pin", fmt.Sprintf("Question %s.", verb), q)
	return q, nil
}

// UpdateNote replaces the free-form note on a question owned by requesterID.
func (s *QuestionService) UpdateNote(ctx context.Context, id, requesterID, note string) (models.Question, error) {
	q, err := s.updateOwned(ctx, id, requesterID, "note = ?", note)
	if err != nil {
		return models.Question{}, err
	}
	s.afterUpdate(ctx, requesterID, "question.note", "Question note updated.", q)
	return q, nil
}

// updateOwned applies set to the question after checking that requesterID
// owns the parent session, returning the updated record.
func (s *QuestionService) updateOwned(ctx context.Context, id, requesterID, set string, args ...interface{}) (models.Question, error) {
	var updated models.Question
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var ownerID string
		err := tx.QueryRowContext(ctx,
			"SELECT s.user_id FROM questions q JOIN sessions s ON s.id = q.session_id WHERE q.id = ?", id).Scan(&ownerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("question %s: %w", id, ErrNotFound)
			}
			return err
		}
		if ownerID != requesterID {
			return fmt.Errorf("question %s belongs to another user: %w", id, ErrUnauthorized)
		}

		args = append(args, time.Now().UTC(), id)
		if _, err := tx.ExecContext(ctx, "UPDATE questions SET "+set+", updated_at = ? WHERE id = ?", args...); err != nil {
			return err
		}

		updated, err = scanQuestion(tx.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id))
		return err
	})
	if err != nil {
		return models.Question{}, err
	}
	return updated, nil
}

func (s *QuestionService) afterUpdate(ctx context.Context, userID, eventType, message string, q models.Question) {
	if err := s.eventService.CreateEvent(ctx, userID, eventType, "info", message, &q.SessionID); err != nil {
		log.Warn().Err(err).Str("question_id", q.ID).Msg("Failed to record question event")
	}
	s.notifier.NotifyUser(userID, "question.updated", q)
}
