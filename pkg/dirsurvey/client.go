// Package dirsurvey provides bearer-authenticated REST access to the
// directional-survey calculation service.
package dirsurvey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/drillops/survey-cli/internal/model"
)

// Default base URL for a locally running calculation service.
const defaultBaseURL = "http://localhost:8000"

const basePath = "/api/v1/extrapolations"

// Client defines the extrapolation operations of the calculation service.
type Client interface {
	// Calculate computes an extrapolation without persisting it. The returned
	// result carries no id.
	Calculate(ctx context.Context, req CalculateRequest) (*model.ExtrapolationResult, error)
	// Create computes and persists an extrapolation. Not idempotent: two
	// identical calls create two stored results.
	Create(ctx context.Context, req CalculateRequest) (*model.ExtrapolationResult, error)
	Get(ctx context.Context, id string) (*model.ExtrapolationResult, error)
	ListByRun(ctx context.Context, runID string) ([]model.ExtrapolationResult, error)
	Delete(ctx context.Context, id string) error
}

// CalculateRequest is the body for both the calculate and create endpoints.
type CalculateRequest struct {
	SurveyDataID string `json:"survey_data_id"`
	RunID        string `json:"run_id"`
	model.Params
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second request rate limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	tokens  TokenSource
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new calculation-service client. All configuration comes
// in through the TokenSource and options; there is no package-level state.
func NewClient(tokens TokenSource, opts ...Option) Client {
	c := &httpClient{
		tokens:  tokens,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Calculate(ctx context.Context, req CalculateRequest) (*model.ExtrapolationResult, error) {
	var result model.ExtrapolationResult
	if err := c.call(ctx, http.MethodPost, basePath+"/calculate/", "", req, &result); err != nil {
		return nil, eris.Wrap(err, "dirsurvey: calculate")
	}
	return &result, nil
}

func (c *httpClient) Create(ctx context.Context, req CalculateRequest) (*model.ExtrapolationResult, error) {
	var result model.ExtrapolationResult
	if err := c.call(ctx, http.MethodPost, basePath+"/", "", req, &result); err != nil {
		return nil, eris.Wrap(err, "dirsurvey: create")
	}
	return &result, nil
}

func (c *httpClient) Get(ctx context.Context, id string) (*model.ExtrapolationResult, error) {
	var result model.ExtrapolationResult
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("%s/%s/", basePath, id), id, nil, &result); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("dirsurvey: get %s", id))
	}
	return &result, nil
}

func (c *httpClient) ListByRun(ctx context.Context, runID string) ([]model.ExtrapolationResult, error) {
	var results []model.ExtrapolationResult
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("%s/by-run/%s/", basePath, runID), runID, nil, &results); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("dirsurvey: list by run %s", runID))
	}
	return results, nil
}

func (c *httpClient) Delete(ctx context.Context, id string) error {
	if err := c.call(ctx, http.MethodDelete, fmt.Sprintf("%s/%s/", basePath, id), id, nil, nil); err != nil {
		return eris.Wrap(err, fmt.Sprintf("dirsurvey: delete %s", id))
	}
	return nil
}

// call executes one API operation: marshal, authorize, send, and normalize
// any failure into the package error taxonomy. On a 401 the token is
// refreshed and the request retried exactly once.
func (c *httpClient) call(ctx context.Context, method, path, resourceID string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit")
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &AuthError{Detail: err.Error()}
	}

	resp, data, err := c.send(ctx, method, path, token, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		token, err = c.tokens.Refresh(ctx)
		if err != nil {
			return &AuthError{Detail: err.Error()}
		}
		resp, data, err = c.send(ctx, method, path, token, payload)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, resourceID, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

// send performs a single HTTP exchange. Transport failures come back as
// *NetworkError; any received response is returned with its body drained.
func (c *httpClient) send(ctx context.Context, method, path, token string, payload []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, eris.Wrap(err, "create request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, eris.Wrap(ctx.Err(), "request cancelled")
		}
		return nil, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}
	return resp, data, nil
}

// statusError maps a non-2xx response to the error taxonomy.
func statusError(status int, resourceID string, body []byte) error {
	switch {
	case status == http.StatusNotFound:
		return &NotFoundError{ID: resourceID}
	case status == http.StatusUnauthorized:
		return &AuthError{Detail: string(body)}
	case status == http.StatusForbidden:
		return &PermissionError{Detail: string(body)}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if fields := parseFieldErrors(body); len(fields) > 0 {
			return &ValidationError{Fields: fields}
		}
		return &RequestError{Status: status, Details: string(body)}
	case status >= 500:
		return &ServerError{Status: status, Body: string(body)}
	default:
		return &RequestError{Status: status, Details: string(body)}
	}
}

// parseFieldErrors extracts field-level messages from a validation response.
// The service answers in the usual form {"field": ["msg", ...]}; plain string
// values are accepted too. Fields are sorted for stable rendering.
func parseFieldErrors(body []byte) []FieldError {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	var fields []FieldError
	for name, v := range raw {
		switch msgs := v.(type) {
		case string:
			fields = append(fields, FieldError{Field: name, Message: msgs})
		case []any:
			for _, m := range msgs {
				if s, ok := m.(string); ok {
					fields = append(fields, FieldError{Field: name, Message: s})
				}
			}
		}
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].Field != fields[j].Field {
			return fields[i].Field < fields[j].Field
		}
		return fields[i].Message < fields[j].Message
	})
	return fields
}
