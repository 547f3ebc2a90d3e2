package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Answer length bounds, counted in runes: MinAnswerLength <= n < MaxAnswerLength.
const (
	MinAnswerLength = 100
	MaxAnswerLength = 1500
)

// Answer is one user's response to a prompt.
type Answer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	PromptID  uuid.UUID `gorm:"type:uuid;not null;index" json:"promptId"`
	Prompt    *Prompt   `gorm:"foreignKey:PromptID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidateAnswerText checks the answer body against the length rules.
func ValidateAnswerText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrAnswerRequired
	}
	n := utf8.RuneCountInString(text)
	if n < MinAnswerLength {
		return ErrAnswerTooShort
	}
	if n >= MaxAnswerLength {
		return ErrAnswerTooLong
	}
	return nil
}

// Validate checks the answer text and its references.
func (a *Answer) Validate() error {
	if err := ValidateAnswerText(a.Answer); err != nil {
		return err
	}
	if a.PromptID == uuid.Nil {
		return NewRequiredFieldError("promptId")
	}
	if a.UserID == uuid.Nil {
		return NewRequiredFieldError("user")
	}
	return nil
}

// BeforeCreate validates the answer and assigns a fresh identifier.
func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AnswerView is the serialized answer with its author populated.
type AnswerView struct {
	ID        uuid.UUID `json:"id"`
	Answer    string    `json:"answer"`
	PromptID  uuid.UUID `json:"promptId"`
	User      *UserRef  `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// View returns the serialized form of a. The author is populated when preloaded.
func (a *Answer) View() AnswerView {
	v := AnswerView{
		ID:        a.ID,
		Answer:    a.Answer,
		PromptID:  a.PromptID,
		CreatedAt: a.CreatedAt,
	}
	if a.User != nil {
		v.User = &UserRef{ID: a.User.ID, Username: a.User.Username}
	} else if a.UserID != uuid.Nil {
		v.User = &UserRef{ID: a.UserID}
	}
	return v
}

// AnswerViews maps a slice of answers to their serialized form.
func AnswerViews(answers []Answer) []AnswerView {
	views := make([]AnswerView, 0, len(answers))
	for i := range answers {
		views = append(views, answers[i].View())
	}
	return views
}
