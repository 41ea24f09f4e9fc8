package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condaops/cirotate/internal/logging"
)

func testRequest(user, project string) Request {
	return Request{
		User:    user,
		Project: project,
		Token:   "new-binstar-token",
		Log:     logging.New(io.Discard, false, true),
	}
}

func TestCircleRotateCreatesWhenAbsent(t *testing.T) {
	t.Parallel()

	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)

		require.Equal(t, "circle-secret", r.URL.Query().Get("circle-token"))

		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/project/github/conda-forge/pkg-feedstock/envvar", r.URL.Path)
			w.Write([]byte(`[{"name":"OTHER_VAR"}]`))
		case http.MethodPost:
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "BINSTAR_TOKEN", r.PostForm.Get("name"))
			assert.Equal(t, "new-binstar-token", r.PostForm.Get("value"))
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	p := NewCircleProvider("circle-secret")
	p.baseURL = server.URL

	err := p.Rotate(context.Background(), testRequest("conda-forge", "pkg-feedstock"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GET /project/github/conda-forge/pkg-feedstock/envvar",
		"POST /project/github/conda-forge/pkg-feedstock/envvar",
	}, calls, "exactly one create call, no delete")
}

func TestCircleRotateDeletesThenCreatesWhenPresent(t *testing.T) {
	t.Parallel()

	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)

		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[{"name":"BINSTAR_TOKEN"},{"name":"OTHER_VAR"}]`))
		case http.MethodDelete:
			assert.Equal(t, "/project/github/u/p/envvar/BINSTAR_TOKEN", r.URL.Path)
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer server.Close()

	p := NewCircleProvider("circle-secret")
	p.baseURL = server.URL

	err := p.Rotate(context.Background(), testRequest("u", "p"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GET /project/github/u/p/envvar",
		"DELETE /project/github/u/p/envvar/BINSTAR_TOKEN",
		"POST /project/github/u/p/envvar",
	}, calls)
}

func TestCircleRotateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantOp  string
	}{
		{
			name: "list failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantOp: "list",
		},
		{
			name: "delete failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodGet:
					w.Write([]byte(`[{"name":"BINSTAR_TOKEN"}]`))
				case http.MethodDelete:
					w.WriteHeader(http.StatusInternalServerError)
				}
			},
			wantOp: "delete",
		},
		{
			name: "create returns 200 instead of 201",
			handler: func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodGet:
					w.Write([]byte(`[]`))
				case http.MethodPost:
					w.WriteHeader(http.StatusOK)
				}
			},
			wantOp: "create",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			p := NewCircleProvider("circle-secret")
			p.baseURL = server.URL

			err := p.Rotate(context.Background(), testRequest("u", "p"))
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "circle", apiErr.Provider)
			assert.Equal(t, tt.wantOp, apiErr.Op)
		})
	}
}
