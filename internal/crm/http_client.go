package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 15 * time.Second

// HTTPClient talks to the CRM REST API. Endpoints are scoped to a workspace:
//
//	GET    /workspaces/{ws}/deals
//	POST   /workspaces/{ws}/deals
//	PUT    /workspaces/{ws}/deals/{id}
//	DELETE /workspaces/{ws}/deals/{id}
//	PUT    /workspaces/{ws}/deals/{id}/move
//	GET    /workspaces/{ws}/pipeline
//	PUT    /workspaces/{ws}/pipeline
//	GET    /workspaces/{ws}/contacts/{id}
type HTTPClient struct {
	baseURL     string
	workspaceID string
	token       string
	httpClient  *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) HTTPOption {
	return func(c *HTTPClient) {
		c.token = token
	}
}

// WithHTTPDoer overrides the underlying http.Client, mainly for tests.
func WithHTTPDoer(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

// NewHTTPClient constructs a client for the given API base URL and workspace.
func NewHTTPClient(baseURL, workspaceID string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		workspaceID: workspaceID,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the server's error envelope.
type apiError struct {
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

func (c *HTTPClient) workspacePath(parts ...string) string {
	segments := append([]string{"workspaces", c.workspaceID}, parts...)
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c *HTTPClient) do(ctx context.Context, op, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return requestError(op, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return requestError(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return requestError(op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return requestError(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusNotFound {
		return notFoundError(op, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope apiError
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
			return requestError(op, fmt.Errorf("server: %s (%s)", envelope.Message, resp.Status))
		}
		return requestError(op, fmt.Errorf("unexpected status %s", resp.Status))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return decodeError(op, err)
	}
	return nil
}

// ListPipeline implements Client.
func (c *HTTPClient) ListPipeline(ctx context.Context) (PipelineSnapshot, error) {
	var snapshot PipelineSnapshot
	err := c.do(ctx, "list pipeline", http.MethodGet, c.workspacePath("deals"), nil, &snapshot)
	return snapshot, err
}

// CreateDeal implements Client.
func (c *HTTPClient) CreateDeal(ctx context.Context, req CreateDealRequest) (Deal, error) {
	var deal Deal
	err := c.do(ctx, "create deal", http.MethodPost, c.workspacePath("deals"), req, &deal)
	return deal, err
}

// UpdateDeal implements Client.
func (c *HTTPClient) UpdateDeal(ctx context.Context, id string, req UpdateDealRequest) (Deal, error) {
	var deal Deal
	err := c.do(ctx, "update deal", http.MethodPut, c.workspacePath("deals", id), req, &deal)
	return deal, err
}

// MoveDeal implements Client.
func (c *HTTPClient) MoveDeal(ctx context.Context, id, stage string, position int) (Deal, error) {
	body := struct {
		Stage    string `json:"stage"`
		Position int    `json:"position"`
	}{Stage: stage, Position: position}
	var deal Deal
	err := c.do(ctx, "move deal", http.MethodPut, c.workspacePath("deals", id, "move"), body, &deal)
	return deal, err
}

// DeleteDeal implements Client.
func (c *HTTPClient) DeleteDeal(ctx context.Context, id string) error {
	return c.do(ctx, "delete deal", http.MethodDelete, c.workspacePath("deals", id), nil, nil)
}

// ReplaceStages implements Client.
func (c *HTTPClient) ReplaceStages(ctx context.Context, stages []string) ([]string, error) {
	body := struct {
		Stages []string `json:"stages"`
	}{Stages: stages}
	var out struct {
		Stages []string `json:"stages"`
	}
	if err := c.do(ctx, "replace stages", http.MethodPut, c.workspacePath("pipeline"), body, &out); err != nil {
		return nil, err
	}
	return out.Stages, nil
}

// LookupContactName implements Client. A missing contact is not an error.
func (c *HTTPClient) LookupContactName(ctx context.Context, contactID string) (string, error) {
	var contact struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	err := c.do(ctx, "lookup contact", http.MethodGet, c.workspacePath("contacts", contactID), nil, &contact)
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	name := strings.TrimSpace(strings.TrimSpace(contact.FirstName) + " " + strings.TrimSpace(contact.LastName))
	if name == "" {
		name = contact.Email
	}
	return name, nil
}

var _ Client = (*HTTPClient)(nil)
