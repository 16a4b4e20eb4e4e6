package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/exam-access-service/internal/config"
	apperrors "github.com/spec-kit/exam-access-service/pkg/util/errorutil"
)

const maxResponseBytes = 1 << 20

// accessCodeFields lists the response field names the provider has been
// observed to use, in priority order. The first present wins; a response
// carrying none of them is a provider-contract error.
var accessCodeFields = []string{"accessCode", "access_code", "code"}

// Client adapts the external testing provider's HTTP API. Every call carries
// a bounded timeout; the client never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds the provider adapter.
func NewClient(cfg config.ProviderConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		logger: logger,
	}
}

// CreateAccessCode allocates a one-time access code for the given test.
// The exchange is keyed by testID only; no learner identity is sent upstream.
func (c *Client) CreateAccessCode(ctx context.Context, credential, testID string) (string, error) {
	endpoint := fmt.Sprintf("%s/tests/%s/access-codes/add", c.baseURL, url.PathEscape(testID))

	body, err := json.Marshal(map[string]string{"testId": testID})
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewUpstreamUnavailable("provider unreachable", nil, err)
	}
	defer resp.Body.Close()

	payload, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("provider rejected access code request",
			zap.Int("status", resp.StatusCode),
			zap.String("test_id", testID))
		return "", apperrors.NewUpstreamUnavailable("provider request failed",
			map[string]any{"upstreamStatus": resp.StatusCode}, nil)
	}
	if readErr != nil {
		return "", apperrors.NewUpstreamUnavailable("read provider response", nil, readErr)
	}

	code, err := parseAccessCode(payload)
	if err != nil {
		return "", err
	}
	return code, nil
}

// ListTests proxies the provider's test list, returning its JSON verbatim.
func (c *Client) ListTests(ctx context.Context, credential string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tests", nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("provider unreachable", nil, err)
	}
	defer resp.Body.Close()

	payload, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewUpstreamUnavailable("provider request failed",
			map[string]any{"upstreamStatus": resp.StatusCode}, nil)
	}
	if readErr != nil {
		return nil, apperrors.NewUpstreamUnavailable("read provider response", nil, readErr)
	}
	return payload, nil
}

// parseAccessCode extracts the access code, trying each candidate field name
// in priority order. The provider has shipped all three spellings.
func parseAccessCode(payload []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", apperrors.NewUpstreamUnavailable("malformed provider response", nil, err)
	}

	for _, name := range accessCodeFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var code string
		if err := json.Unmarshal(raw, &code); err != nil || code == "" {
			continue
		}
		return code, nil
	}

	return "", apperrors.NewUpstreamUnavailable("provider response missing access code",
		map[string]any{"checkedFields": accessCodeFields}, nil)
}
