package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/polisai/codeforge/pkg/domain"
)

// DefaultSessionHeader carries the session token when no header is configured.
const DefaultSessionHeader = "X-Session-Token"

// HTTPFetcherConfig describes the account-info endpoint.
type HTTPFetcherConfig struct {
	Endpoint      string
	SessionHeader string
	SessionToken  string
	// TTL is the credential lifetime when the response carries no expires_in.
	TTL time.Duration
}

// HTTPFetcher obtains credentials from an account-info endpoint.
type HTTPFetcher struct {
	config HTTPFetcherConfig
	client *http.Client
	now    func() time.Time
}

// accountInfo is the response body of the account-info endpoint.
type accountInfo struct {
	User *struct {
		ID any `json:"id"`
	} `json:"user"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

// NewHTTPFetcher creates a fetcher. A nil client gets an instrumented default
// client; per-attempt timeouts come from the caller's context.
func NewHTTPFetcher(config HTTPFetcherConfig, client *http.Client) *HTTPFetcher {
	if config.SessionHeader == "" {
		config.SessionHeader = DefaultSessionHeader
	}
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &HTTPFetcher{config: config, client: client, now: time.Now}
}

// Fetch issues GET Endpoint with the session header and maps the account info
// onto a credential. A response without user.id is a failure.
func (f *HTTPFetcher) Fetch(ctx context.Context) (domain.Credential, error) {
	if f.config.Endpoint == "" {
		return domain.Credential{}, fmt.Errorf("credential endpoint is not configured")
	}
	if f.config.SessionToken == "" {
		return domain.Credential{}, fmt.Errorf("session token is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.Endpoint, nil)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("build account request: %w", err)
	}
	req.Header.Set(f.config.SessionHeader, f.config.SessionToken)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("account request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Credential{}, fmt.Errorf("account endpoint returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info accountInfo
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&info); err != nil {
		return domain.Credential{}, fmt.Errorf("failed to decode account info: %w", err)
	}

	subject := subjectID(info)
	if subject == "" {
		return domain.Credential{}, fmt.Errorf("account info has no user.id")
	}

	fetchedAt := f.now()
	ttl := f.config.TTL
	if info.ExpiresIn > 0 {
		ttl = time.Duration(info.ExpiresIn) * time.Second
	}
	value := info.Token
	if value == "" {
		value = f.config.SessionToken
	}

	return domain.Credential{
		Value:     value,
		FetchedAt: fetchedAt,
		ExpiresAt: fetchedAt.Add(ttl),
		SubjectID: subject,
	}, nil
}

func subjectID(info accountInfo) string {
	if info.User == nil {
		return ""
	}
	switch id := info.User.ID.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}
