package repository

import (
	"context"
	"errors"

	"dailyprompt/internal/models"
	"dailyprompt/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNoActivePrompt is returned by GetActive when no prompt is active.
var ErrNoActivePrompt = &models.AppError{Code: models.CodeNotFound, Message: "no active prompt"}

// PromptRepository defines persistence operations for prompts.
type PromptRepository interface {
	List(ctx context.Context, active *bool) ([]models.Prompt, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prompt, error)
	GetActive(ctx context.Context) (*models.Prompt, error)
	Count(ctx context.Context) (int64, error)
	// NthOldest returns the prompt at offset n in (created_at, id) order.
	NthOldest(ctx context.Context, n int) (*models.Prompt, error)
	Create(ctx context.Context, prompts ...*models.Prompt) error
	// SetActive deactivates every prompt and activates id. Callers wrap it in a transaction.
	SetActive(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
	WithTx(tx *gorm.DB) PromptRepository
}

type promptRepository struct {
	db *gorm.DB
}

// NewPromptRepository returns a new PromptRepository implementation.
func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &promptRepository{db: db}
}

func (r *promptRepository) WithTx(tx *gorm.DB) PromptRepository {
	return &promptRepository{db: tx}
}

func (r *promptRepository) List(ctx context.Context, active *bool) ([]models.Prompt, error) {
	defer observability.TrackQuery("select", "prompts")()

	q := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if active != nil {
		q = q.Where("active_prompt = ?", *active)
	}

	prompts := []models.Prompt{}
	if err := q.Find(&prompts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return prompts, nil
}

func (r *promptRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	defer observability.TrackQuery("select", "prompts")()

	var prompt models.Prompt
	if err := r.db.WithContext(ctx).First(&prompt, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "prompt", id)
	}
	return &prompt, nil
}

func (r *promptRepository) GetActive(ctx context.Context) (*models.Prompt, error) {
	defer observability.TrackQuery("select", "prompts")()

	var prompt models.Prompt
	if err := r.db.WithContext(ctx).Where("active_prompt = ?", true).First(&prompt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActivePrompt
		}
		return nil, models.NewInternalError(err)
	}
	return &prompt, nil
}

func (r *promptRepository) Count(ctx context.Context) (int64, error) {
	defer observability.TrackQuery("count", "prompts")()

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Prompt{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *promptRepository) NthOldest(ctx context.Context, n int) (*models.Prompt, error) {
	defer observability.TrackQuery("select", "prompts")()

	var prompt models.Prompt
	err := r.db.WithContext(ctx).
		Order("created_at ASC").Order("id ASC").
		Offset(n).Limit(1).
		Take(&prompt).Error
	if err != nil {
		return nil, notFoundOr(err, "prompt", n)
	}
	return &prompt, nil
}

func (r *promptRepository) Create(ctx context.Context, prompts ...*models.Prompt) error {
	if len(prompts) == 0 {
		return nil
	}
	defer observability.TrackQuery("insert", "prompts")()

	if err := r.db.WithContext(ctx).Create(prompts).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("only one prompt can be active")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *promptRepository) SetActive(ctx context.Context, id uuid.UUID) error {
	defer observability.TrackQuery("update", "prompts")()

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Prompt{}).
		Where("active_prompt = ?", true).
		Update("active_prompt", false).Error; err != nil {
		return models.NewInternalError(err)
	}

	res := db.Model(&models.Prompt{}).Where("id = ?", id).Update("active_prompt", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("prompt", id)
	}
	return nil
}

func (r *promptRepository) DeleteAll(ctx context.Context) error {
	defer observability.TrackQuery("delete", "prompts")()

	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Prompt{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
