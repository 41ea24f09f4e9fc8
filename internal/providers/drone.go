package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultDroneBaseURL = "https://cloud.drone.io"

// DroneProvider rotates the token on Drone CI with bearer authentication.
// Drone addresses secrets by name, so an existing entry is patched in place.
type DroneProvider struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewDroneProvider creates a Drone rotator authenticated with token.
func NewDroneProvider(token string) *DroneProvider {
	return &DroneProvider{
		httpClient: &http.Client{},
		baseURL:    defaultDroneBaseURL,
		token:      token,
	}
}

// Name returns the provider name.
func (p *DroneProvider) Name() string {
	return "drone"
}

// droneSecretPayload is the request body for secret create and update.
type droneSecretPayload struct {
	Name        string `json:"name,omitempty"`
	Data        string `json:"data"`
	PullRequest bool   `json:"pull_request"`
}

// Rotate lists the repo's secrets and patches or creates the reserved entry.
func (p *DroneProvider) Rotate(ctx context.Context, req Request) error {
	req.Log.Debug("listing drone secrets for %s/%s", req.User, req.Project)

	secretsPath := fmt.Sprintf("/api/repos/%s/%s/secrets", req.User, req.Project)

	resp, err := p.do(ctx, http.MethodGet, secretsPath, nil)
	if err != nil {
		return &APIError{Provider: "drone", Op: "list", Err: err}
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return statusError("drone", "list", resp)
	}

	var secrets []struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&secrets); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	exists := false
	for _, s := range secrets {
		if s.Name == SecretName {
			exists = true
		}
	}

	if exists {
		req.Log.Debug("updating existing %s on drone", SecretName)
		body := droneSecretPayload{Data: req.Token, PullRequest: false}
		resp, err := p.do(ctx, http.MethodPatch, secretsPath+"/"+SecretName, body)
		if err != nil {
			return &APIError{Provider: "drone", Op: "update", Err: err}
		}
		defer resp.Body.Close()
		if !success(resp.StatusCode) {
			return statusError("drone", "update", resp)
		}
		return nil
	}

	req.Log.Debug("creating %s on drone", SecretName)
	body := droneSecretPayload{Name: SecretName, Data: req.Token, PullRequest: false}
	createResp, err := p.do(ctx, http.MethodPost, secretsPath, body)
	if err != nil {
		return &APIError{Provider: "drone", Op: "create", Err: err}
	}
	defer createResp.Body.Close()

	if createResp.StatusCode != http.StatusOK {
		return statusError("drone", "create", createResp)
	}
	return nil
}

// do issues one authenticated request against the drone API. A non-nil body
// is sent as JSON.
func (p *DroneProvider) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
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
	req.Header.Set("Authorization", "Bearer "+p.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return p.httpClient.Do(req)
}
