package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"dailyprompt/internal/cache"
	"dailyprompt/internal/middleware"
	"dailyprompt/internal/models"
	"dailyprompt/internal/observability"
	"dailyprompt/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromptService reads prompts and manages which one is active.
type PromptService struct {
	db      *gorm.DB
	prompts repository.PromptRepository
	answers repository.AnswerRepository
	cache   *cache.Store
}

// NewPromptService returns a PromptService. store may wrap a nil client.
func NewPromptService(db *gorm.DB, prompts repository.PromptRepository, answers repository.AnswerRepository, store *cache.Store) *PromptService {
	return &PromptService{db: db, prompts: prompts, answers: answers, cache: store}
}

// List returns all prompts, or only active/inactive ones when active is set.
func (s *PromptService) List(ctx context.Context, active *bool) ([]models.Prompt, error) {
	return s.prompts.List(ctx, active)
}

// Get returns a prompt by id.
func (s *PromptService) Get(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	var prompt models.Prompt
	_, err := s.cache.Aside(ctx, cache.PromptKey(id), &prompt, func() error {
		p, err := s.prompts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		prompt = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

// Active returns the active prompt or repository.ErrNoActivePrompt.
func (s *PromptService) Active(ctx context.Context) (*models.Prompt, error) {
	var prompt models.Prompt
	hit, err := s.cache.Aside(ctx, cache.ActivePromptKey, &prompt, func() error {
		p, err := s.prompts.GetActive(ctx)
		if err != nil {
			return err
		}
		prompt = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.cache.Enabled() {
		if hit {
			observability.PromptCacheLookups.WithLabelValues("hit").Inc()
		} else {
			observability.PromptCacheLookups.WithLabelValues("miss").Inc()
		}
	}
	return &prompt, nil
}

// ActiveWithAnswers returns the active prompt along with the answers userID
// gave to it. A nil userID yields an empty answer list.
func (s *PromptService) ActiveWithAnswers(ctx context.Context, userID *uuid.UUID) (*models.ActivePromptView, error) {
	ctx, span := observability.StartServiceSpan(ctx, "prompt", "ActiveWithAnswers")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	prompt, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}

	view := &models.ActivePromptView{Prompt: *prompt, Answers: []models.AnswerView{}}
	if userID == nil {
		return view, nil
	}

	answers, err := s.answers.List(ctx, repository.AnswerFilter{PromptID: &prompt.ID, UserID: userID})
	if err != nil {
		return nil, err
	}
	view.Answers = models.AnswerViews(answers)
	return view, nil
}

// SetActivePrompt makes id the only active prompt. The switch is atomic.
func (s *PromptService) SetActivePrompt(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	ctx, span := observability.StartServiceSpan(ctx, "prompt", "SetActivePrompt")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var previous *models.Prompt
	var activated *models.Prompt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prompts := s.prompts.WithTx(tx)

		prev, err := prompts.GetActive(ctx)
		switch {
		case err == nil:
			previous = prev
		case !errors.Is(err, repository.ErrNoActivePrompt):
			return err
		}

		if err := prompts.SetActive(ctx, id); err != nil {
			return err
		}
		activated, err = prompts.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	keys := []string{cache.ActivePromptKey, cache.PromptKey(id)}
	if previous != nil {
		keys = append(keys, cache.PromptKey(previous.ID))
	}
	s.cache.Invalidate(ctx, keys...)

	if previous == nil || previous.ID != id {
		observability.ActivePromptRotations.Inc()
	}
	middleware.Logger.InfoContext(ctx, "active prompt changed", slog.String("prompt_id", id.String()))
	return activated, nil
}

// DailyIndex maps a calendar day to a position in a catalog of n prompts.
// Every UTC day since the Unix epoch advances the position by one.
func DailyIndex(date time.Time, n int64) int {
	if n <= 0 {
		return 0
	}
	d := date.UTC()
	days := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
	idx := days % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

// RotateDaily activates the prompt scheduled for date.
func (s *PromptService) RotateDaily(ctx context.Context, date time.Time) (*models.Prompt, error) {
	n, err := s.prompts.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.NewNotFoundError("prompt", "any")
	}

	target, err := s.prompts.NthOldest(ctx, DailyIndex(date, n))
	if err != nil {
		return nil, err
	}
	return s.SetActivePrompt(ctx, target.ID)
}

// SeedPrompt is one catalog entry.
type SeedPrompt struct {
	Content string `yaml:"content" json:"content"`
	Tag     string `yaml:"tag" json:"tag"`
}

// Seed inserts the catalog as inactive prompts. With clean set, existing
// answers and prompts are removed first in the same transaction.
func (s *PromptService) Seed(ctx context.Context, entries []SeedPrompt, clean bool) (int, error) {
	prompts := make([]*models.Prompt, 0, len(entries))
	for _, e := range entries {
		content := strings.TrimSpace(e.Content)
		if content == "" {
			return 0, models.NewValidationError("prompt content cannot be empty")
		}
		prompts = append(prompts, &models.Prompt{
			Content: content,
			Tag:     strings.TrimSpace(e.Tag),
		})
	}

	var stale []models.Prompt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		promptRepo := s.prompts.WithTx(tx)
		if clean {
			var err error
			if stale, err = promptRepo.List(ctx, nil); err != nil {
				return err
			}
			if err := s.answers.WithTx(tx).DeleteAll(ctx); err != nil {
				return err
			}
			if err := promptRepo.DeleteAll(ctx); err != nil {
				return err
			}
		}
		return promptRepo.Create(ctx, prompts...)
	})
	if err != nil {
		return 0, err
	}

	keys := []string{cache.ActivePromptKey}
	for _, p := range stale {
		keys = append(keys, cache.PromptKey(p.ID))
	}
	s.cache.Invalidate(ctx, keys...)

	return len(prompts), nil
}
