package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const (
	defaultAzureBaseURL = "https://dev.azure.com/conda-forge"

	// defaultAzureProject is the Azure DevOps project holding every
	// feedstock build definition.
	defaultAzureProject = "feedstock-builds"

	azureAPIVersion = "5.1"
)

// AzureProvider rotates the token on Azure DevOps Pipelines. The variable
// lives on the repo's build definition, and the definitions API has no
// partial update: the full definition object is fetched, its variables
// mapping mutated, and the whole object submitted back.
type AzureProvider struct {
	httpClient *http.Client
	baseURL    string
	project    string
	token      string
}

// NewAzureProvider creates an Azure DevOps rotator authenticated with a
// personal access token.
func NewAzureProvider(token string) *AzureProvider {
	return &AzureProvider{
		httpClient: &http.Client{},
		baseURL:    defaultAzureBaseURL,
		project:    defaultAzureProject,
		token:      token,
	}
}

// Name returns the provider name.
func (p *AzureProvider) Name() string {
	return "azure"
}

// Rotate finds the repo's build definition, fetches it whole, replaces the
// reserved variable with a secret entry, and submits the definition back.
func (p *AzureProvider) Rotate(ctx context.Context, req Request) error {
	defID, err := p.findDefinition(ctx, req)
	if err != nil {
		return err
	}

	definition, err := p.getDefinition(ctx, defID)
	if err != nil {
		return err
	}

	variables, ok := definition["variables"].(map[string]interface{})
	if !ok || variables == nil {
		variables = map[string]interface{}{}
	}
	variables[SecretName] = map[string]interface{}{
		"value":         req.Token,
		"isSecret":      true,
		"allowOverride": false,
	}
	definition["variables"] = variables

	req.Log.Debug("submitting updated build definition %d on azure", defID)
	return p.putDefinition(ctx, defID, definition)
}

// findDefinition resolves the single build definition registered for the
// project's repository.
func (p *AzureProvider) findDefinition(ctx context.Context, req Request) (int64, error) {
	listURL := fmt.Sprintf("%s/%s/_apis/build/definitions?name=%s&api-version=%s",
		p.baseURL, p.project, url.QueryEscape(req.Project), azureAPIVersion)

	resp, err := p.do(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return 0, &APIError{Provider: "azure", Op: "lookup", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError("azure", "lookup", resp)
	}

	var listing struct {
		Count int `json:"count"`
		Value []struct {
			ID int64 `json:"id"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(listing.Value) == 0 {
		return 0, &APIError{
			Provider: "azure",
			Op:       "lookup",
			Message:  fmt.Sprintf("cannot rotate %s on a repo that is not registered on azure CI", SecretName),
		}
	}
	if len(listing.Value) > 1 {
		return 0, &APIError{
			Provider: "azure",
			Op:       "lookup",
			Message:  fmt.Sprintf("expected exactly one build definition named %q, found %d", req.Project, len(listing.Value)),
		}
	}
	return listing.Value[0].ID, nil
}

// getDefinition fetches the full definition object. It is decoded into a
// generic mapping so every field round-trips unchanged through the update.
func (p *AzureProvider) getDefinition(ctx context.Context, id int64) (map[string]interface{}, error) {
	resp, err := p.do(ctx, http.MethodGet, p.definitionURL(id), nil)
	if err != nil {
		return nil, &APIError{Provider: "azure", Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("azure", "fetch", resp)
	}

	var definition map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&definition); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return definition, nil
}

func (p *AzureProvider) putDefinition(ctx context.Context, id int64, definition map[string]interface{}) error {
	body := &bytes.Buffer{}
	if err := json.NewEncoder(body).Encode(definition); err != nil {
		return fmt.Errorf("failed to encode build definition: %w", err)
	}

	resp, err := p.do(ctx, http.MethodPut, p.definitionURL(id), body)
	if err != nil {
		return &APIError{Provider: "azure", Op: "update", Err: err}
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return statusError("azure", "update", resp)
	}
	return nil
}

func (p *AzureProvider) definitionURL(id int64) string {
	return fmt.Sprintf("%s/%s/_apis/build/definitions/%d?api-version=%s",
		p.baseURL, p.project, id, azureAPIVersion)
}

// do issues one request with PAT basic authentication.
func (p *AzureProvider) do(ctx context.Context, method, rawURL string, body *bytes.Buffer) (*http.Response, error) {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth("", p.token)
	if body.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	return p.httpClient.Do(req)
}
