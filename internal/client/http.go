package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/search"
)

// HTTPClient implements ProjectsClient using the qube web API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:9000"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Projects ---

func (c *HTTPClient) CreateProject(ctx context.Context, req CreateRequest) (*model.WireComponent, error) {
	params := url.Values{}
	params.Set("project", req.Key())
	params.Set("name", req.Name())
	if req.Organization() != "" {
		params.Set("organization", req.Organization())
	}
	if req.Branch() != "" {
		params.Set("branch", req.Branch())
	}
	if v, ok := req.Visibility(); ok {
		params.Set("visibility", v)
	}

	var resp struct {
		Project *model.WireComponent `json:"project"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/projects/create", params, &resp); err != nil {
		return nil, err
	}
	return resp.Project, nil
}

func (c *HTTPClient) ChangeVisibility(ctx context.Context, project string, visibility model.Visibility) error {
	params := url.Values{}
	params.Set("project", project)
	params.Set("visibility", visibility.String())
	return c.do(ctx, http.MethodPost, "/api/projects/change_visibility", params, nil)
}

// --- Organizations ---

func (c *HTTPClient) UpdateProjectVisibility(ctx context.Context, organization string, visibility model.Visibility) error {
	params := url.Values{}
	params.Set("organization", organization)
	params.Set("projectVisibility", visibility.String())
	return c.do(ctx, http.MethodPost, "/api/organizations/update_project_visibility", params, nil)
}

// --- Components ---

func (c *HTTPClient) ShowComponent(ctx context.Context, key string) (*model.WireComponent, error) {
	params := url.Values{}
	params.Set("component", key)
	var resp struct {
		Component *model.WireComponent `json:"component"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/components/show", params, &resp); err != nil {
		return nil, err
	}
	return resp.Component, nil
}

func (c *HTTPClient) SuggestComponents(ctx context.Context, q search.ComponentIndexQuery) ([]*model.WireComponent, error) {
	params := url.Values{}
	params.Set("s", q.Query())
	params.Set("limit", strconv.Itoa(q.Limit()))
	if qs := q.Qualifiers(); len(qs) > 0 {
		params.Set("qualifiers", strings.Join(qs, ","))
	}
	if keys := q.RecentlyBrowsedKeys(); len(keys) > 0 {
		params.Set("recentlyBrowsed", strings.Join(keys, ","))
	}
	if keys := q.FavoriteKeys(); len(keys) > 0 {
		params.Set("favorites", strings.Join(keys, ","))
	}
	var resp struct {
		Components []*model.WireComponent `json:"components"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/components/suggestions", params, &resp); err != nil {
		return nil, err
	}
	return resp.Components, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// do performs an HTTP request and decodes the JSON response into result.
// Parameters go in the query string for GET and form-encoded in the body
// otherwise. If result is nil, the response body is discarded.
func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, result any) error {
	target := c.baseURL + path
	var bodyReader io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			target += "?" + params.Encode()
		}
	} else if params != nil {
		bodyReader = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Errors []struct {
				Msg string `json:"msg"`
			} `json:"errors"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && len(errResp.Errors) > 0 {
			msgs := make([]string, len(errResp.Errors))
			for i, e := range errResp.Errors {
				msgs[i] = e.Msg
			}
			return &APIError{StatusCode: resp.StatusCode, Message: strings.Join(msgs, "; ")}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
