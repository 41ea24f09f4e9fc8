package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultCircleBaseURL = "https://circleci.com/api/v1.1"

// CircleProvider rotates the token on CircleCI. Circle has no update
// endpoint for environment variables, so an existing entry is deleted and
// recreated. Authentication is a circle-token query parameter.
type CircleProvider struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewCircleProvider creates a CircleCI rotator authenticated with token.
func NewCircleProvider(token string) *CircleProvider {
	return &CircleProvider{
		httpClient: &http.Client{},
		baseURL:    defaultCircleBaseURL,
		token:      token,
	}
}

// Name returns the provider name.
func (p *CircleProvider) Name() string {
	return "circle"
}

// Rotate lists the project's environment variables, deletes a pre-existing
// entry, and creates a fresh one with the new value.
func (p *CircleProvider) Rotate(ctx context.Context, req Request) error {
	req.Log.Debug("listing circle environment variables for %s/%s", req.User, req.Project)

	listURL := p.envvarURL(req.User, req.Project, "")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return &APIError{Provider: "circle", Op: "list", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("circle", "list", resp)
	}

	var envVars []struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envVars); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	exists := false
	for _, ev := range envVars {
		if ev.Name == SecretName {
			exists = true
		}
	}

	if exists {
		req.Log.Debug("deleting existing %s on circle", SecretName)
		if err := p.deleteVariable(ctx, req.User, req.Project); err != nil {
			return err
		}
	}

	req.Log.Debug("creating %s on circle", SecretName)
	form := url.Values{}
	form.Set("name", SecretName)
	form.Set("value", req.Token)

	createReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.envvarURL(req.User, req.Project, ""), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	createReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	createResp, err := p.httpClient.Do(createReq)
	if err != nil {
		return &APIError{Provider: "circle", Op: "create", Err: err}
	}
	defer createResp.Body.Close()

	if createResp.StatusCode != http.StatusCreated {
		return statusError("circle", "create", createResp)
	}
	return nil
}

func (p *CircleProvider) deleteVariable(ctx context.Context, user, project string) error {
	deleteReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		p.envvarURL(user, project, "/"+SecretName), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(deleteReq)
	if err != nil {
		return &APIError{Provider: "circle", Op: "delete", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("circle", "delete", resp)
	}
	return nil
}

// envvarURL builds the envvar endpoint with the circle-token query
// parameter. extra is appended to the envvar path for addressing a single
// variable.
func (p *CircleProvider) envvarURL(user, project, extra string) string {
	return fmt.Sprintf("%s/project/github/%s/%s/envvar%s?circle-token=%s",
		p.baseURL, user, project, extra, url.QueryEscape(p.token))
}
