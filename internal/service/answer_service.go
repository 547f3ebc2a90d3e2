package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dailyprompt/internal/middleware"
	"dailyprompt/internal/models"
	"dailyprompt/internal/observability"
	"dailyprompt/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxAnonymousAttempts bounds retries after an anonymous username collision.
const maxAnonymousAttempts = 3

// AnonymousUsername builds a name such as "anonymous brave 4821".
func AnonymousUsername() string {
	return fmt.Sprintf("%s %s %d", models.AnonymousPrefix, strings.ToLower(gofakeit.Adjective()), gofakeit.Number(1000, 9999))
}

// AnswerService stores and lists answers.
type AnswerService struct {
	db      *gorm.DB
	users   repository.UserRepository
	prompts repository.PromptRepository
	answers repository.AnswerRepository
	// active resolves the default prompt when a submission names none.
	active func(ctx context.Context) (*models.Prompt, error)
	// anonName generates usernames for implicitly created users.
	anonName func() string
}

// NewAnswerService returns an AnswerService. Submissions without a prompt id
// go to the prompt returned by promptSvc.Active.
func NewAnswerService(db *gorm.DB, users repository.UserRepository, prompts repository.PromptRepository, answers repository.AnswerRepository, promptSvc *PromptService) *AnswerService {
	s := &AnswerService{
		db:       db,
		users:    users,
		prompts:  prompts,
		answers:  answers,
		anonName: AnonymousUsername,
	}
	if promptSvc != nil {
		s.active = promptSvc.Active
	} else {
		s.active = prompts.GetActive
	}
	return s
}

// SubmitAnswerInput is a new answer. PromptID and UserID are optional.
type SubmitAnswerInput struct {
	Answer   string
	PromptID *uuid.UUID
	UserID   *uuid.UUID
}

// List returns answers with their authors populated.
func (s *AnswerService) List(ctx context.Context, filter repository.AnswerFilter) ([]models.Answer, error) {
	return s.answers.List(ctx, filter)
}

// Submit validates and stores an answer. Without a user id a fresh anonymous
// user is created; that user and the answer are written in one transaction,
// which is retried when the generated username collides.
func (s *AnswerService) Submit(ctx context.Context, in SubmitAnswerInput) (*models.Answer, error) {
	ctx, span := observability.StartServiceSpan(ctx, "answer", "Submit")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = models.ValidateAnswerText(in.Answer); err != nil {
		return nil, err
	}

	promptID, err := s.resolvePrompt(ctx, in.PromptID)
	if err != nil {
		return nil, err
	}

	if in.UserID != nil {
		if _, err = s.users.GetByID(ctx, *in.UserID); err != nil {
			return nil, err
		}
	}

	var answerID uuid.UUID
	for attempt := 1; attempt <= maxAnonymousAttempts; attempt++ {
		answerID, err = s.store(ctx, in, promptID)
		if in.UserID != nil || !errors.Is(err, models.ErrUsernameTaken) {
			break
		}
		middleware.Logger.WarnContext(ctx, "anonymous username collision, retrying", slog.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	if in.UserID == nil {
		observability.AnswersSubmitted.WithLabelValues("anonymous").Inc()
	} else {
		observability.AnswersSubmitted.WithLabelValues("registered").Inc()
	}

	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	return answer, nil
}

func (s *AnswerService) resolvePrompt(ctx context.Context, id *uuid.UUID) (uuid.UUID, error) {
	if id != nil {
		p, err := s.prompts.GetByID(ctx, *id)
		if err != nil {
			return uuid.Nil, err
		}
		return p.ID, nil
	}

	p, err := s.active(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoActivePrompt) {
			return uuid.Nil, models.NewRequiredFieldError("promptId")
		}
		return uuid.Nil, err
	}
	return p.ID, nil
}

// store runs one unit of work: optionally create the anonymous author, then the answer.
func (s *AnswerService) store(ctx context.Context, in SubmitAnswerInput, promptID uuid.UUID) (uuid.UUID, error) {
	answer := &models.Answer{Answer: in.Answer, PromptID: promptID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.UserID != nil {
			answer.UserID = *in.UserID
		} else {
			anon := &models.User{Username: s.anonName()}
			if err := s.users.WithTx(tx).Create(ctx, anon); err != nil {
				return err
			}
			answer.UserID = anon.ID
		}
		return s.answers.WithTx(tx).Create(ctx, answer)
	})
	if err != nil {
		return uuid.Nil, err
	}
	if in.UserID == nil {
		observability.AnonymousUsersCreated.Inc()
	}
	return answer.ID, nil
}
