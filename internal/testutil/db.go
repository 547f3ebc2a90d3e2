// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"dailyprompt/internal/database"
	"dailyprompt/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with the schema applied.
// It is closed when the test ends.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	dialector, err := database.Dialector("sqlite", dsn)
	if err != nil {
		t.Fatalf("sqlite dialector: %v", err)
	}

	cfg := database.GormConfig()
	cfg.Logger = cfg.Logger.LogMode(logger.Silent)

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// AnswerText returns an answer body of exactly n runes.
func AnswerText(n int) string {
	return gofakeit.LetterN(uint(n))
}

// ValidAnswer returns an answer body within the accepted length range.
func ValidAnswer() string {
	return AnswerText(models.MinAnswerLength + 50)
}

// CreateUser inserts a registered user with a placeholder hash.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	if username == "" {
		username = gofakeit.Username() + "_" + uuid.NewString()[:6]
	}
	u := &models.User{Username: username, PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderpla"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreatePrompt inserts a prompt with the given active flag.
func CreatePrompt(t testing.TB, db *gorm.DB, active bool) *models.Prompt {
	t.Helper()
	p := &models.Prompt{
		Content:      gofakeit.Question(),
		Tag:          gofakeit.Word(),
		ActivePrompt: active,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create prompt: %v", err)
	}
	return p
}

// CreateAnswer inserts an answer by user to prompt.
func CreateAnswer(t testing.TB, db *gorm.DB, userID, promptID uuid.UUID) *models.Answer {
	t.Helper()
	a := &models.Answer{Answer: ValidAnswer(), UserID: userID, PromptID: promptID}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}
	return a
}
