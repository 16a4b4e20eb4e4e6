package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/exam-access-service/internal/api/http/handlers"
	"github.com/spec-kit/exam-access-service/internal/auth"
	"github.com/spec-kit/exam-access-service/internal/domain"
	"github.com/spec-kit/exam-access-service/internal/observability"
	"github.com/spec-kit/exam-access-service/internal/service"
	apperrors "github.com/spec-kit/exam-access-service/pkg/util/errorutil"
)

const (
	testOrigin    = "https://community.example.org"
	adminPassword = "hunter2"
)

type fakeIssuer struct {
	rec   *domain.TokenRecord
	err   error
	calls int
}

func (f *fakeIssuer) Issue(context.Context) (*domain.TokenRecord, error) {
	f.calls++
	return f.rec, f.err
}

type fakeExchanger struct {
	result *service.ExchangeResult
	err    error
}

func (f *fakeExchanger) Exchange(_ context.Context, token, testID string) (*service.ExchangeResult, error) {
	if token == "" || testID == "" {
		return nil, apperrors.NewBadRequest("token and testId are required", nil)
	}
	return f.result, f.err
}

type fakeSecrets struct {
	values map[string]string
}

func (f *fakeSecrets) Get(_ context.Context, name string) (string, bool, error) {
	value, ok := f.values[name]
	return value, ok, nil
}

type fakeCatalog struct {
	payload []byte
	err     error
}

func (f *fakeCatalog) ListTests(context.Context, string) ([]byte, error) {
	return f.payload, f.err
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type testEnv struct {
	app     *fiber.App
	issuer  *fakeIssuer
	secrets *fakeSecrets
	catalog *fakeCatalog
}

func newTestEnv(t *testing.T, exchanger *fakeExchanger) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	env := &testEnv{
		issuer: &fakeIssuer{rec: &domain.TokenRecord{
			Token:     "0f47ac10b58cc4372a5670e02b2c3d47",
			CreatedAt: time.Now().Unix(),
			ExpiresAt: time.Now().Add(15 * time.Minute).Unix(),
		}},
		secrets: &fakeSecrets{values: map[string]string{
			"ADMIN_PASSWORD_HASH": string(hash),
			"PROVIDER_API_KEY":    "vendor-key",
		}},
		catalog: &fakeCatalog{payload: []byte(`[{"id":"t1"}]`)},
	}
	if exchanger == nil {
		exchanger = &fakeExchanger{result: &service.ExchangeResult{AccessCode: "REAL42"}}
	}

	sessions := auth.NewAdminTokenManager("test-signing-key", time.Minute)
	gate := auth.NewAdminGate(env.secrets, "ADMIN_PASSWORD_HASH", sessions)
	adminService := service.NewAdminService(service.AdminDependencies{
		Gate:             gate,
		Sessions:         sessions,
		Secrets:          env.secrets,
		Provider:         env.catalog,
		CredentialSecret: "PROVIDER_API_KEY",
		Logger:           zap.NewNop(),
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("exam-access-service", "test", "redis", &fakePinger{}),
		Tokens:    handlers.NewTokensHandler(env.issuer, exchanger),
		Admin:     handlers.NewAdminHandler(adminService),
		AdminGate: gate,
		WebOrigin: testOrigin,
	})
	env.app = app
	return env
}

func doRequest(t *testing.T, app *fiber.App, method, target, origin, body string, header map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if origin != "" {
		req.Header.Set(fiber.HeaderOrigin, origin)
	}
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func errorCode(t *testing.T, payload []byte) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(payload, &body))
	return body.Error.Code
}

func TestIssueToken(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, payload := doRequest(t, env.app, fiber.MethodPost, "/tokens", testOrigin, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Equal(t, env.issuer.rec.Token, body["token"])
}

func TestIssueRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, origin := range []string{"https://evil.example.com", ""} {
		resp, payload := doRequest(t, env.app, fiber.MethodPost, "/tokens", origin, "", nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", errorCode(t, payload))
	}
	assert.Equal(t, 0, env.issuer.calls, "rejected requests never reach the issuer")
}

func TestIssueStoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.issuer.rec = nil
	env.issuer.err = errors.New("store down")

	resp, payload := doRequest(t, env.app, fiber.MethodPost, "/tokens", testOrigin, "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, payload))
}

func TestPreflightProbe(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, target := range []string{"/tokens", "/access-codes"} {
		resp, payload := doRequest(t, env.app, fiber.MethodOptions, target, testOrigin, "", nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, payload)
		assert.Equal(t, testOrigin, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	}
}

func TestRejectsWrongMethod(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := doRequest(t, env.app, fiber.MethodGet, "/tokens", testOrigin, "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestExchange(t *testing.T) {
	env := newTestEnv(t, &fakeExchanger{result: &service.ExchangeResult{AccessCode: "REAL42"}})

	resp, payload := doRequest(t, env.app, fiber.MethodPost, "/access-codes", testOrigin,
		`{"token":"sometoken","testId":"test-1"}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"accessCode":"REAL42"}`, string(payload))
}

func TestExchangeDevModeFlagVisible(t *testing.T) {
	env := newTestEnv(t, &fakeExchanger{result: &service.ExchangeResult{AccessCode: service.MockAccessCode, DevMode: true}})

	resp, payload := doRequest(t, env.app, fiber.MethodPost, "/access-codes", testOrigin,
		`{"token":"sometoken","testId":"bogus"}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"accessCode":"ABC123MOCK","_dev":true}`, string(payload))
}

func TestExchangeMalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []string{
		`{not json`,
		`{"token":123,"testId":"t"}`,
		`{"testId":"t"}`,
		`{}`,
	}
	for _, body := range cases {
		resp, payload := doRequest(t, env.app, fiber.MethodPost, "/access-codes", testOrigin, body, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)
		assert.Equal(t, "BAD_REQUEST", errorCode(t, payload))
	}
}

func TestExchangeUnauthorizedToken(t *testing.T) {
	env := newTestEnv(t, &fakeExchanger{err: apperrors.NewUnauthorized("invalid or expired token")})

	resp, payload := doRequest(t, env.app, fiber.MethodPost, "/access-codes", testOrigin,
		`{"token":"neverissued","testId":"test-1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, payload))
}

func TestExchangeUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, &fakeExchanger{err: apperrors.NewUpstreamUnavailable("provider request failed",
		map[string]any{"upstreamStatus": 500}, nil)})

	resp, payload := doRequest(t, env.app, fiber.MethodPost, "/access-codes", testOrigin,
		`{"token":"sometoken","testId":"test-1"}`, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", errorCode(t, payload))
}

func TestAdminListTestsRequiresCredentials(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, payload := doRequest(t, env.app, fiber.MethodGet, "/admin/tests", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, payload))

	resp, payload = doRequest(t, env.app, fiber.MethodGet, "/admin/tests", "", "",
		map[string]string{"X-Admin-Password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, payload))
}

func TestAdminListTestsWithPassword(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, payload := doRequest(t, env.app, fiber.MethodGet, "/admin/tests", "", "",
		map[string]string{"X-Admin-Password": adminPassword})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `[{"id":"t1"}]`, string(payload), "provider JSON is proxied verbatim")
}

func TestAdminListTestsMisconfiguredWithoutSecret(t *testing.T) {
	env := newTestEnv(t, nil)
	delete(env.secrets.values, "ADMIN_PASSWORD_HASH")

	resp, payload := doRequest(t, env.app, fiber.MethodGet, "/admin/tests", "", "",
		map[string]string{"X-Admin-Password": adminPassword})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "MISCONFIGURED", errorCode(t, payload))
}

func TestAdminLoginAndBearerSession(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, payload := doRequest(t, env.app, fiber.MethodPost, "/admin/login", "",
		`{"password":"`+adminPassword+`"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(payload, &login))
	require.NotEmpty(t, login.Token)

	resp, payload = doRequest(t, env.app, fiber.MethodGet, "/admin/tests", "", "",
		map[string]string{fiber.HeaderAuthorization: "Bearer " + login.Token})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `[{"id":"t1"}]`, string(payload))

	resp, payload = doRequest(t, env.app, fiber.MethodGet, "/admin/tests", "", "",
		map[string]string{fiber.HeaderAuthorization: "Bearer not-a-session"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, payload))
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := doRequest(t, env.app, fiber.MethodGet, "/health/live", "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, env.app, fiber.MethodGet, "/health/ready", "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
