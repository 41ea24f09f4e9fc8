package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const defaultTravisBaseURL = "https://api.travis-ci.com"

// TravisProvider rotates the token on Travis CI (API v3). Travis addresses
// repositories by an internal numeric id that has to be looked up from the
// user/project slug first, and existing variables are updated by their own
// opaque id.
type TravisProvider struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewTravisProvider creates a Travis rotator authenticated with token.
func NewTravisProvider(token string) *TravisProvider {
	return &TravisProvider{
		httpClient: &http.Client{},
		baseURL:    defaultTravisBaseURL,
		token:      token,
	}
}

// Name returns the provider name.
func (p *TravisProvider) Name() string {
	return "travis"
}

// travisEnvVarPayload uses the flattened field names the v3 API expects.
type travisEnvVarPayload struct {
	Name   string `json:"env_var.name"`
	Value  string `json:"env_var.value"`
	Public string `json:"env_var.public"`
}

// Rotate resolves the repository id, lists its environment variables, and
// patches or creates the reserved entry.
func (p *TravisProvider) Rotate(ctx context.Context, req Request) error {
	repoID, err := p.repoID(ctx, req.User, req.Project)
	if err != nil {
		return err
	}
	req.Log.Debug("travis repo id for %s/%s is %d", req.User, req.Project, repoID)

	resp, err := p.do(ctx, http.MethodGet, fmt.Sprintf("/repo/%d/env_vars", repoID), nil)
	if err != nil {
		return &APIError{Provider: "travis", Op: "list", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("travis", "list", resp)
	}

	var listing struct {
		EnvVars []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"env_vars"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	evID := ""
	for _, ev := range listing.EnvVars {
		if ev.Name == SecretName {
			evID = ev.ID
		}
	}

	payload := travisEnvVarPayload{
		Name:   SecretName,
		Value:  req.Token,
		Public: "false",
	}

	if evID != "" {
		req.Log.Debug("updating existing %s on travis (env var %s)", SecretName, evID)
		updateResp, err := p.do(ctx, http.MethodPatch,
			fmt.Sprintf("/repo/%d/env_var/%s", repoID, evID), payload)
		if err != nil {
			return &APIError{Provider: "travis", Op: "update", Err: err}
		}
		defer updateResp.Body.Close()
		if !success(updateResp.StatusCode) {
			return statusError("travis", "update", updateResp)
		}
		return nil
	}

	req.Log.Debug("creating %s on travis", SecretName)
	createResp, err := p.do(ctx, http.MethodPost,
		fmt.Sprintf("/repo/%d/env_vars", repoID), payload)
	if err != nil {
		return &APIError{Provider: "travis", Op: "create", Err: err}
	}
	defer createResp.Body.Close()

	if createResp.StatusCode != http.StatusCreated {
		return statusError("travis", "create", createResp)
	}
	return nil
}

// repoID resolves the repository's internal numeric id from its slug.
func (p *TravisProvider) repoID(ctx context.Context, user, project string) (int64, error) {
	slug := url.PathEscape(user + "/" + project)
	resp, err := p.do(ctx, http.MethodGet, "/repo/"+slug, nil)
	if err != nil {
		return 0, &APIError{Provider: "travis", Op: "lookup", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError("travis", "lookup", resp)
	}

	var repo struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&repo); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return repo.ID, nil
}

// do issues one request with the Travis v3 headers. A non-nil body is sent
// as JSON.
func (p *TravisProvider) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	buf := &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Travis-API-Version", "3")
	req.Header.Set("Authorization", "token "+p.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return p.httpClient.Do(req)
}
