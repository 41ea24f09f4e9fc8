package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// azureDefinition is the fake build definition served by the test API. The
// adapter must round-trip unknown fields untouched.
const azureDefinition = `{
	"id": 77,
	"revision": 12,
	"name": "p",
	"queue": {"name": "Default"},
	"variables": {
		"OTHER_VAR": {"value": "keep", "isSecret": false}
	}
}`

func newAzureTestServer(t *testing.T, calls *[]string, listing string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, r.Method+" "+r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "requests must carry basic auth")
		assert.Empty(t, user)
		assert.Equal(t, "azure-pat", pass)
		require.Equal(t, "5.1", r.URL.Query().Get("api-version"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/feedstock-builds/_apis/build/definitions":
			assert.Equal(t, "p", r.URL.Query().Get("name"))
			w.Write([]byte(listing))
		case r.Method == http.MethodGet && r.URL.Path == "/feedstock-builds/_apis/build/definitions/77":
			w.Write([]byte(azureDefinition))
		case r.Method == http.MethodPut && r.URL.Path == "/feedstock-builds/_apis/build/definitions/77":
			var def map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&def))

			// untouched fields survive the round trip
			assert.Equal(t, float64(77), def["id"])
			assert.Equal(t, float64(12), def["revision"])
			assert.Equal(t, map[string]interface{}{"name": "Default"}, def["queue"])

			variables := def["variables"].(map[string]interface{})
			assert.Equal(t, map[string]interface{}{
				"value": "keep", "isSecret": false,
			}, variables["OTHER_VAR"])
			assert.Equal(t, map[string]interface{}{
				"value":         "new-binstar-token",
				"isSecret":      true,
				"allowOverride": false,
			}, variables["BINSTAR_TOKEN"])
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
	}))
}

func TestAzureRotateSubmitsWholeDefinition(t *testing.T) {
	t.Parallel()

	var calls []string
	server := newAzureTestServer(t, &calls, `{"count": 1, "value": [{"id": 77}]}`)
	defer server.Close()

	p := NewAzureProvider("azure-pat")
	p.baseURL = server.URL

	err := p.Rotate(context.Background(), testRequest("u", "p"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GET /feedstock-builds/_apis/build/definitions",
		"GET /feedstock-builds/_apis/build/definitions/77",
		"PUT /feedstock-builds/_apis/build/definitions/77",
	}, calls)
}

func TestAzureRotateDefinitionLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		listing string
		wantMsg string
	}{
		{
			name:    "unregistered repo",
			listing: `{"count": 0, "value": []}`,
			wantMsg: "not registered on azure CI",
		},
		{
			name:    "ambiguous definitions",
			listing: `{"count": 2, "value": [{"id": 1}, {"id": 2}]}`,
			wantMsg: "exactly one build definition",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls []string
			server := newAzureTestServer(t, &calls, tt.listing)
			defer server.Close()

			p := NewAzureProvider("azure-pat")
			p.baseURL = server.URL

			err := p.Rotate(context.Background(), testRequest("u", "p"))
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "azure", apiErr.Provider)
			assert.Equal(t, "lookup", apiErr.Op)
			assert.Contains(t, apiErr.Message, tt.wantMsg)
		})
	}
}

func TestAzureRotateDefinitionWithoutVariables(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/feedstock-builds/_apis/build/definitions":
			w.Write([]byte(`{"count": 1, "value": [{"id": 5}]}`))
		case r.Method == http.MethodGet:
			w.Write([]byte(`{"id": 5, "name": "p"}`))
		case r.Method == http.MethodPut:
			var def map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&def))
			variables, ok := def["variables"].(map[string]interface{})
			require.True(t, ok, "variables mapping created when absent")
			assert.Contains(t, variables, "BINSTAR_TOKEN")
			fmt.Fprint(w, `{}`)
		}
	}))
	defer server.Close()

	p := NewAzureProvider("azure-pat")
	p.baseURL = server.URL

	require.NoError(t, p.Rotate(context.Background(), testRequest("u", "p")))
}
