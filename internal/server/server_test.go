package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dailyprompt/internal/config"
	"dailyprompt/internal/models"
	"dailyprompt/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "integration-test-secret-of-32-chars!"

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                   "test",
		Port:                  "0",
		JWTSecret:             testSecret,
		TokenTTLHours:         1,
		BcryptCost:            bcrypt.MinCost,
		PromptCacheTTLSeconds: 60,
	}
}

func newTestEnv(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	s, err := NewServer(testConfig(), db, rdb)
	require.NoError(t, err)
	return &testEnv{app: s.App(), db: db}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func errorOf(t *testing.T, raw []byte) models.ErrorResponse {
	return decode[models.ErrorResponse](t, raw)
}

func (e *testEnv) register(t *testing.T, username, password string) models.PublicUser {
	t.Helper()
	status, raw := e.do(t, http.MethodPost, "/api/users", CredentialsRequest{Username: username, Password: password}, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[models.PublicUser](t, raw)
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	status, raw := e.do(t, http.MethodPost, "/api/login", CredentialsRequest{Username: username, Password: password}, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	return decode[LoginResponse](t, raw).Token
}

func TestAliceScenario(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, http.MethodPost, "/api/users", map[string]string{"username": "alice", "password": "secret123"}, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	body := decode[map[string]any](t, raw)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "password")
	aliceID := body["id"].(string)

	status, raw = env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	wrongPassword := errorOf(t, raw)
	assert.Equal(t, "invalid username or password", wrongPassword.Error)

	status, raw = env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	login := decode[LoginResponse](t, raw)
	assert.Equal(t, "alice", login.Username)
	require.NotEmpty(t, login.Token)

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(login.Token, claims, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["username"])
	assert.Equal(t, aliceID, claims["id"])
	assert.Equal(t, aliceID, claims["sub"])

	status, raw = env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "mallory", "password": "secret123"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, wrongPassword, errorOf(t, raw), "unknown user and wrong password are indistinguishable")
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t, nil)

	env.register(t, "bob", "hunter22")

	status, raw := env.do(t, http.MethodPost, "/api/users", CredentialsRequest{Username: "bob", Password: "other"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	dup := errorOf(t, raw)
	assert.Equal(t, "this username is already taken.", dup.Error)
	assert.Equal(t, string(models.CodeUsernameTaken), dup.Code)

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"missing password", map[string]string{"username": "carol"}, `property "password" is required`},
		{"missing username", map[string]string{"password": "pw"}, `property "username" is required`},
		{"malformed body", `{"username":`, "malformed request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := env.do(t, http.MethodPost, "/api/users", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.message, errorOf(t, raw).Error)
		})
	}
}

func TestCreateUser_AnyUniqueName(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, name := range []string{"anonymous bob", strings.Repeat("n", 65), " spaced "} {
		created := env.register(t, name, "secret123")
		assert.Equal(t, name, created.Username)

		status, raw := env.do(t, http.MethodPost, "/api/login", CredentialsRequest{Username: name, Password: "secret123"}, "")
		require.Equal(t, http.StatusOK, status, string(raw))
		assert.Equal(t, name, decode[LoginResponse](t, raw).Username)
	}
}

func TestGetPrompt(t *testing.T) {
	env := newTestEnv(t, nil)
	p := testutil.CreatePrompt(t, env.db, false)

	status, raw := env.do(t, http.MethodGet, "/api/prompts/"+p.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, status)
	got := decode[models.Prompt](t, raw)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Content, got.Content)

	for _, bad := range []string{"not-an-id", "123", "5f9c1b2a"} {
		status, raw = env.do(t, http.MethodGet, "/api/prompts/"+bad, nil, "")
		assert.Equal(t, http.StatusBadRequest, status, bad)
		assert.Equal(t, "malformed ID", errorOf(t, raw).Error)
	}

	status, raw = env.do(t, http.MethodGet, "/api/prompts/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "prompt not found", errorOf(t, raw).Error)
}

func TestGetPrompts_ActiveFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	active := testutil.CreatePrompt(t, env.db, true)
	inactive := testutil.CreatePrompt(t, env.db, false)

	tests := []struct {
		query string
		want  []uuid.UUID
	}{
		{"", []uuid.UUID{active.ID, inactive.ID}},
		{"?active=true", []uuid.UUID{active.ID}},
		{"?active=false", []uuid.UUID{inactive.ID}},
		{"?active=maybe", []uuid.UUID{active.ID, inactive.ID}},
	}
	for _, tt := range tests {
		status, raw := env.do(t, http.MethodGet, "/api/prompts"+tt.query, nil, "")
		require.Equal(t, http.StatusOK, status)
		prompts := decode[[]models.Prompt](t, raw)
		var ids []uuid.UUID
		for _, p := range prompts {
			ids = append(ids, p.ID)
		}
		assert.ElementsMatch(t, tt.want, ids, "query %q", tt.query)
	}
}

func TestGetActivePrompt(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, http.MethodGet, "/api/prompts/active", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "no active prompt", errorOf(t, raw).Error)

	p := testutil.CreatePrompt(t, env.db, true)
	alice := env.register(t, "alice", "secret123")
	token := env.login(t, "alice", "secret123")
	other := testutil.CreateUser(t, env.db, "")
	testutil.CreateAnswer(t, env.db, alice.ID, p.ID)
	testutil.CreateAnswer(t, env.db, other.ID, p.ID)

	status, raw = env.do(t, http.MethodGet, "/api/prompts/active", nil, "")
	require.Equal(t, http.StatusOK, status)
	anon := decode[map[string]any](t, raw)
	assert.Equal(t, p.ID.String(), anon["id"])
	assert.Equal(t, []any{}, anon["answers"], "unauthenticated callers get an empty list")

	status, raw = env.do(t, http.MethodGet, "/api/prompts/active", nil, token)
	require.Equal(t, http.StatusOK, status)
	mine := decode[models.ActivePromptView](t, raw)
	require.Len(t, mine.Answers, 1)
	assert.Equal(t, "alice", mine.Answers[0].User.Username)

	status, raw = env.do(t, http.MethodGet, "/api/prompts/active", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", errorOf(t, raw).Error)
}

func TestCreateAnswer_LengthBoundaries(t *testing.T) {
	env := newTestEnv(t, nil)
	p := testutil.CreatePrompt(t, env.db, true)

	tests := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{"omitted", map[string]any{"promptId": p.ID}, http.StatusBadRequest, "answer is required"},
		{"99 runes", map[string]any{"promptId": p.ID, "answer": testutil.AnswerText(99)}, http.StatusBadRequest, "answer is too short"},
		{"100 runes", map[string]any{"promptId": p.ID, "answer": testutil.AnswerText(100)}, http.StatusCreated, ""},
		{"1499 runes", map[string]any{"promptId": p.ID, "answer": testutil.AnswerText(1499)}, http.StatusCreated, ""},
		{"1500 runes", map[string]any{"promptId": p.ID, "answer": testutil.AnswerText(1500)}, http.StatusBadRequest, "answer is too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := env.do(t, http.MethodPost, "/api/answers", tt.body, "")
			assert.Equal(t, tt.status, status, string(raw))
			if tt.message != "" {
				assert.Equal(t, tt.message, errorOf(t, raw).Error)
			}
		})
	}
}

func TestCreateAnswer_AnonymousUser(t *testing.T) {
	env := newTestEnv(t, nil)
	p := testutil.CreatePrompt(t, env.db, true)

	status, raw := env.do(t, http.MethodPost, "/api/answers", map[string]any{
		"answer":   testutil.ValidAnswer(),
		"promptId": p.ID,
	}, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	created := decode[models.AnswerView](t, raw)
	require.NotNil(t, created.User)
	assert.True(t, strings.HasPrefix(created.User.Username, "anonymous"), created.User.Username)

	status, raw = env.do(t, http.MethodGet, "/api/answers?promptId="+p.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, status)
	answers := decode[[]models.AnswerView](t, raw)
	require.Len(t, answers, 1)
	assert.Equal(t, created.ID, answers[0].ID)
	assert.Equal(t, created.User.Username, answers[0].User.Username)
}

func TestCreateAnswer_ExistingUser(t *testing.T) {
	env := newTestEnv(t, nil)
	p := testutil.CreatePrompt(t, env.db, true)
	dana := env.register(t, "dana", "pw123456")

	status, raw := env.do(t, http.MethodPost, "/api/answers", map[string]any{
		"answer":   testutil.ValidAnswer(),
		"promptId": p.ID,
		"user":     dana.ID,
	}, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	created := decode[models.AnswerView](t, raw)
	assert.Equal(t, "dana", created.User.Username)
	assert.Equal(t, dana.ID, created.User.ID)

	token := env.login(t, "dana", "pw123456")
	status, raw = env.do(t, http.MethodPost, "/api/answers", map[string]any{"answer": testutil.ValidAnswer()}, token)
	require.Equal(t, http.StatusCreated, status, string(raw))
	fromToken := decode[models.AnswerView](t, raw)
	assert.Equal(t, "dana", fromToken.User.Username, "the caller's token identifies the author")
	assert.Equal(t, p.ID, fromToken.PromptID, "the active prompt is the default")
}

func TestCreateAnswer_References(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, http.MethodPost, "/api/answers", map[string]any{"answer": testutil.ValidAnswer()}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, `property "promptId" is required`, errorOf(t, raw).Error)

	p := testutil.CreatePrompt(t, env.db, false)
	tests := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{"malformed prompt", map[string]any{"answer": testutil.ValidAnswer(), "promptId": "xyz"}, http.StatusBadRequest, "malformed ID"},
		{"unknown prompt", map[string]any{"answer": testutil.ValidAnswer(), "promptId": uuid.New()}, http.StatusNotFound, "prompt not found"},
		{"malformed user", map[string]any{"answer": testutil.ValidAnswer(), "promptId": p.ID, "user": "42"}, http.StatusBadRequest, "malformed ID"},
		{"unknown user", map[string]any{"answer": testutil.ValidAnswer(), "promptId": p.ID, "user": uuid.New()}, http.StatusNotFound, "user not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := env.do(t, http.MethodPost, "/api/answers", tt.body, "")
			assert.Equal(t, tt.status, status, string(raw))
			assert.Equal(t, tt.message, errorOf(t, raw).Error)
		})
	}

	status, raw = env.do(t, http.MethodGet, "/api/answers?promptId=nope", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "malformed ID", errorOf(t, raw).Error)
}

func TestGetAnswers_Pagination(t *testing.T) {
	env := newTestEnv(t, nil)
	p := testutil.CreatePrompt(t, env.db, true)
	for i := 0; i < 3; i++ {
		u := testutil.CreateUser(t, env.db, "")
		testutil.CreateAnswer(t, env.db, u.ID, p.ID)
	}

	status, raw := env.do(t, http.MethodGet, "/api/answers", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.AnswerView](t, raw), 3)

	status, raw = env.do(t, http.MethodGet, "/api/answers?limit=2&offset=2", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.AnswerView](t, raw), 1)
}

func TestUnknownEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/api/nothing-here", "/nothing", "/api/prompts/active/extra"} {
		status, raw := env.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, status, path)
		assert.Equal(t, "unknown endpoint", errorOf(t, raw).Error, path)
	}

	status, _ := env.do(t, http.MethodDelete, "/api/prompts", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUnknownEndpoint_IgnoresBadToken(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, http.MethodGet, "/api/nope", nil, "garbage")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "unknown endpoint", errorOf(t, raw).Error)

	status, raw = env.do(t, http.MethodPost, "/api/answers", map[string]string{"answer": testutil.ValidAnswer()}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", errorOf(t, raw).Error)
}

func TestMetricsDashboard_RequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, http.MethodGet, "/api/metrics/dashboard", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "authorization required", errorOf(t, raw).Error)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, raw := env.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	body := decode[map[string]any](t, raw)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])
}

func TestActivePromptIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := newTestEnv(t, rdb)
	p := testutil.CreatePrompt(t, env.db, true)

	status, _ := env.do(t, http.MethodGet, "/api/prompts/active", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, mr.Exists("prompt:active"))

	status, raw := env.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decode[map[string]any](t, raw)["checks"].(map[string]any)["redis"])

	status, raw = env.do(t, http.MethodGet, "/api/prompts/"+p.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, p.ID, decode[models.Prompt](t, raw).ID)
	assert.True(t, mr.Exists("prompt:"+p.ID.String()))
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(nil, nil, nil)
	assert.Error(t, err)
	_, err = NewServer(testConfig(), nil, nil)
	assert.Error(t, err)
}
