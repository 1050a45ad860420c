package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkotelnikov/accountd/internal/logging"
	"github.com/dkotelnikov/accountd/internal/server/account"
	"github.com/dkotelnikov/accountd/internal/server/config"
	"github.com/dkotelnikov/accountd/internal/server/passwd"
	"github.com/dkotelnikov/accountd/internal/server/store/memory"
	"github.com/dkotelnikov/accountd/internal/server/tokens"
)

var tokenInLink = regexp.MustCompile(`token=([0-9a-f]{64})`)

type captureSink struct {
	mails []string
}

func (c *captureSink) Send(_ context.Context, _, htmlContent string) error {
	c.mails = append(c.mails, htmlContent)
	return nil
}

func (c *captureSink) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.mails)
	m := tokenInLink.FindStringSubmatch(c.mails[len(c.mails)-1])
	require.Len(t, m, 2)
	return m[1]
}

func newTestRouter(t *testing.T) (http.Handler, *captureSink) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	hasher, err := passwd.New(passwd.StrategyFixed, 10)
	require.NoError(t, err)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	sink := &captureSink{}
	svc := account.NewService(cfg, memory.New(), sink, hasher, tokens.NewIssuer(), logger)
	return NewHandler(svc, logger).Router(), sink
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", rec.Body.String())
}

func TestRegistration(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/auth/account-registration",
		`{"firstName":"Alice","lastName":"Liddell","emailAddress":"alice@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// duplicate registration conflicts
	rec = do(t, router, http.MethodPost, "/auth/account-registration",
		`{"firstName":"Alice","lastName":"Liddell","emailAddress":"alice@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email_already_used")
}

func TestRegistration_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/auth/account-registration", `{"firstName":"Alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/account-registration", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenIssuanceAndStatusMapping(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/auth/account-registration",
		`{"firstName":"Alice","lastName":"Liddell","emailAddress":"alice@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// unknown user is 404
	rec = do(t, router, http.MethodPost, "/auth/token",
		`{"emailAddress":"nobody@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// wrong password is 401
	rec = do(t, router, http.MethodPost, "/auth/token",
		`{"emailAddress":"alice@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// neither credential is 400
	rec = do(t, router, http.MethodPost, "/auth/token",
		`{"emailAddress":"alice@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/token",
		`{"emailAddress":"alice@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["jwt"])
	assert.NotEmpty(t, body["refreshToken"])

	// logout consumes the refresh token; second logout is 400
	logout := `{"emailAddress":"alice@example.com","refreshToken":"` + body["refreshToken"] + `"}`
	rec = do(t, router, http.MethodDelete, "/auth/token", logout)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodDelete, "/auth/token", logout)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}

func TestEmailVerificationRequest(t *testing.T) {
	router, sink := newTestRouter(t)

	// unknown user is 404
	rec := do(t, router, http.MethodPost, "/auth/email-verification-request",
		`{"emailAddress":"nobody@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/account-registration",
		`{"firstName":"Alice","lastName":"Liddell","emailAddress":"alice@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// the re-issued token verifies the account
	rec = do(t, router, http.MethodPost, "/auth/email-verification-request",
		`{"emailAddress":"alice@example.com"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/email-verification",
		`{"emailAddress":"alice@example.com","token":"`+sink.lastToken(t)+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmailVerificationAndPasswordResetFlow(t *testing.T) {
	router, sink := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/auth/account-registration",
		`{"firstName":"Alice","lastName":"Liddell","emailAddress":"alice@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// reset before verification is rejected
	rec = do(t, router, http.MethodPost, "/auth/password-reset-request",
		`{"emailAddress":"alice@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email_not_verified")

	rec = do(t, router, http.MethodPost, "/auth/email-verification",
		`{"emailAddress":"alice@example.com","token":"`+sink.lastToken(t)+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/password-reset-request",
		`{"emailAddress":"alice@example.com"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/password-reset",
		`{"emailAddress":"alice@example.com","password":"pw2","token":"`+sink.lastToken(t)+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/token",
		`{"emailAddress":"alice@example.com","password":"pw2"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
