package models

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAnswerText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "", ErrAnswerRequired},
		{"whitespace only", "   \n\t", ErrAnswerRequired},
		{"99 runes", gofakeit.LetterN(99), ErrAnswerTooShort},
		{"100 runes", gofakeit.LetterN(100), nil},
		{"1499 runes", gofakeit.LetterN(1499), nil},
		{"1500 runes", gofakeit.LetterN(1500), ErrAnswerTooLong},
		{"multibyte counts runes not bytes", strings.Repeat("é", 100), nil},
		{"multibyte below minimum", strings.Repeat("日", 99), ErrAnswerTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswerText(tt.text)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnswer_Validate_References(t *testing.T) {
	a := &Answer{Answer: gofakeit.LetterN(150)}
	err := a.Validate()
	require.Error(t, err)
	assert.Equal(t, `property "promptId" is required`, err.Error())

	a.PromptID = uuid.New()
	err = a.Validate()
	require.Error(t, err)
	assert.Equal(t, `property "user" is required`, err.Error())

	a.UserID = uuid.New()
	assert.NoError(t, a.Validate())
}

func TestAnswer_View(t *testing.T) {
	user := &User{ID: uuid.New(), Username: "alice"}
	a := Answer{ID: uuid.New(), Answer: "text", PromptID: uuid.New(), UserID: user.ID, User: user}

	v := a.View()
	require.NotNil(t, v.User)
	assert.Equal(t, user.ID, v.User.ID)
	assert.Equal(t, "alice", v.User.Username)

	a.User = nil
	v = a.View()
	require.NotNil(t, v.User)
	assert.Equal(t, user.ID, v.User.ID)
	assert.Empty(t, v.User.Username)
}

func TestUser_IsAnonymous(t *testing.T) {
	assert.True(t, (&User{Username: "anonymous brave 1234"}).IsAnonymous())
	assert.False(t, (&User{Username: "anonymous brave 1234", PasswordHash: "x"}).IsAnonymous())
	assert.False(t, (&User{Username: "anonymously"}).IsAnonymous())
	assert.False(t, (&User{Username: "alice", PasswordHash: "x"}).IsAnonymous())
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("repository: %w", NewNotFoundError("prompt", "abc"))

	assert.True(t, errors.Is(wrapped, &AppError{Code: CodeNotFound}))
	assert.False(t, errors.Is(wrapped, ErrMalformedID))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "prompt not found", appErr.Message)
}

func TestRespondWithError_HidesCause(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: connection refused")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Internal server error")
	assert.NotContains(t, string(body), "connection refused")
}
