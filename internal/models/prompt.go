package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Prompt is a daily question users answer. At most one prompt is active.
type Prompt struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Content string    `gorm:"type:text;not null" json:"content"`
	Tag     string    `gorm:"size:64;index" json:"tag"`
	// The partial unique index rejects a second active row.
	ActivePrompt bool      `gorm:"not null;default:false;uniqueIndex:idx_prompts_single_active,where:active_prompt = true" json:"activePrompt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a fresh identifier when none is set.
func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ActivePromptView is the active prompt enriched with the requester's own answers.
type ActivePromptView struct {
	Prompt
	Answers []AnswerView `json:"answers"`
}
