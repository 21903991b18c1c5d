package dirsurvey

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// TokenSource supplies bearer tokens for API requests. Refresh is invoked at
// most once per request, when the service answers 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource backed by a fixed token. Refresh fails: a
// static token cannot be renewed, so a 401 surfaces as AuthError immediately.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

func (s StaticToken) Refresh(ctx context.Context) (string, error) {
	return "", eris.New("dirsurvey: static token cannot be refreshed")
}

// RefreshableToken is a TokenSource that holds the current token and renews
// it through a caller-supplied function. Safe for concurrent use.
type RefreshableToken struct {
	mu        sync.Mutex
	current   string
	refreshFn func(ctx context.Context) (string, error)
}

// NewRefreshableToken builds a TokenSource from an initial token and a
// refresh function.
func NewRefreshableToken(initial string, refreshFn func(ctx context.Context) (string, error)) *RefreshableToken {
	return &RefreshableToken{current: initial, refreshFn: refreshFn}
}

func (r *RefreshableToken) Token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == "" {
		return "", eris.New("dirsurvey: no session token")
	}
	return r.current, nil
}

func (r *RefreshableToken) Refresh(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, err := r.refreshFn(ctx)
	if err != nil {
		return "", eris.Wrap(err, "dirsurvey: refresh token")
	}
	r.current = tok
	return tok, nil
}

// RefreshEndpoint returns a refresh function that exchanges a long-lived
// refresh token for a new access token at the server's token refresh route.
func RefreshEndpoint(hc *http.Client, baseURL, refreshToken string) func(ctx context.Context) (string, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	url := strings.TrimSuffix(baseURL, "/") + "/api/v1/auth/refresh/"

	return func(ctx context.Context) (string, error) {
		payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
		if err != nil {
			return "", eris.Wrap(err, "dirsurvey: marshal refresh request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", eris.Wrap(err, "dirsurvey: build refresh request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := hc.Do(req)
		if err != nil {
			return "", &NetworkError{Err: eris.Wrap(err, "refresh token")}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", &NetworkError{Err: eris.Wrap(err, "read refresh response")}
		}
		if resp.StatusCode != http.StatusOK {
			return "", statusError(resp.StatusCode, "", body)
		}

		var out struct {
			Access string `json:"access"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", eris.Wrap(err, "dirsurvey: decode refresh response")
		}
		if out.Access == "" {
			return "", eris.New("dirsurvey: refresh response missing access token")
		}
		return out.Access, nil
	}
}
