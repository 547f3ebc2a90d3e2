package repository

import (
	"context"

	"dailyprompt/internal/models"
	"dailyprompt/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnswerFilter narrows List. Nil ids match everything.
type AnswerFilter struct {
	PromptID *uuid.UUID
	UserID   *uuid.UUID
	Limit    int
	Offset   int
}

// AnswerRepository defines persistence operations for answers.
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	// GetByID returns the answer with its author preloaded.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Answer, error)
	List(ctx context.Context, filter AnswerFilter) ([]models.Answer, error)
	DeleteAll(ctx context.Context) error
	WithTx(tx *gorm.DB) AnswerRepository
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository returns a new AnswerRepository implementation.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) WithTx(tx *gorm.DB) AnswerRepository {
	return &answerRepository{db: tx}
}

// Create inserts answer. Validation errors from the model hook pass through typed.
func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	defer observability.TrackQuery("insert", "answers")()

	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		return internal(err)
	}
	return nil
}

func (r *answerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Answer, error) {
	defer observability.TrackQuery("select", "answers")()

	var answer models.Answer
	if err := r.db.WithContext(ctx).Preload("User").First(&answer, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "answer", id)
	}
	return &answer, nil
}

func (r *answerRepository) List(ctx context.Context, filter AnswerFilter) ([]models.Answer, error) {
	defer observability.TrackQuery("select", "answers")()

	q := r.db.WithContext(ctx).Preload("User").Order("created_at ASC").Order("id ASC")
	if filter.PromptID != nil {
		q = q.Where("prompt_id = ?", *filter.PromptID)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	answers := []models.Answer{}
	if err := q.Find(&answers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return answers, nil
}

func (r *answerRepository) DeleteAll(ctx context.Context) error {
	defer observability.TrackQuery("delete", "answers")()

	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Answer{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
