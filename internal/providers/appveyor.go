package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/condaops/cirotate/internal/feedstock"
)

const defaultAppveyorBaseURL = "https://ci.appveyor.com"

// AppveyorProvider rotates the token for AppVeyor. AppVeyor has no remote
// variable store for this setup: the token is run through the account's
// one-way encryption endpoint and the resulting ciphertext is written into
// the feedstock's conda-forge.yml under appveyor → secure.
type AppveyorProvider struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewAppveyorProvider creates an AppVeyor rotator authenticated with token.
func NewAppveyorProvider(token string) *AppveyorProvider {
	return &AppveyorProvider{
		httpClient: &http.Client{},
		baseURL:    defaultAppveyorBaseURL,
		token:      token,
	}
}

// Name returns the provider name.
func (p *AppveyorProvider) Name() string {
	return "appveyor"
}

// Rotate encrypts the new token via the AppVeyor API and patches the
// ciphertext into conda-forge.yml in the feedstock directory.
func (p *AppveyorProvider) Rotate(ctx context.Context, req Request) error {
	req.Log.Debug("encrypting %s via appveyor", SecretName)

	form := url.Values{}
	form.Set("plainValue", req.Token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/api/account/encrypt", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.token)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return &APIError{Provider: "appveyor", Op: "encrypt", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("appveyor", "encrypt", resp)
	}

	ciphertext, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	req.Log.Debug("writing appveyor ciphertext into %s", feedstock.ConfigFileName)
	return feedstock.SetSecureVariable(req.FeedstockDir, "appveyor", SecretName, string(ciphertext))
}
