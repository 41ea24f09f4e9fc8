// Package credentials resolves the CI tokens the rotation needs. Each token
// is looked up in the environment first, then in a conda-smithy token file
// under ~/.conda-smithy/, then in the OS keyring. Resolved values are held
// in protected memory until used.
package credentials

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"

	dserrors "github.com/condaops/cirotate/internal/errors"
	"github.com/condaops/cirotate/internal/secure"
)

// Token names. Anaconda is the secret being rotated; the rest authenticate
// against the provider APIs.
const (
	Anaconda = "anaconda"
	Circle   = "circle"
	Drone    = "drone"
	Travis   = "travis"
	Azure    = "azure"
	Appveyor = "appveyor"
)

// Names lists every token in resolution/reporting order.
var Names = []string{Anaconda, Circle, Drone, Travis, Azure, Appveyor}

var envVars = map[string]string{
	Anaconda: "BINSTAR_TOKEN",
	Circle:   "CIRCLE_TOKEN",
	Drone:    "DRONE_TOKEN",
	Travis:   "TRAVIS_TOKEN",
	Azure:    "AZURE_TOKEN",
	Appveyor: "APPVEYOR_TOKEN",
}

// keyringService is the service name tokens are filed under in the OS keyring.
const keyringService = "conda-smithy"

// Source identifies where a token was found.
type Source string

const (
	SourceEnv     Source = "environment"
	SourceFile    Source = "token file"
	SourceKeyring Source = "keyring"
	SourceNone    Source = "unresolved"
)

// Token is one resolved (or unresolved) CI credential.
type Token struct {
	Name   string
	EnvVar string
	Path   string // token file location, for diagnostics only
	Source Source
	buf    *secure.TokenBuffer
}

// Resolved reports whether a value was found in any source.
func (t *Token) Resolved() bool {
	return t.buf != nil
}

// Value reveals the token value. Unresolved tokens return a CredentialError
// naming every source that was tried.
func (t *Token) Value() (string, error) {
	if t.buf == nil {
		return "", dserrors.CredentialError{
			Name:    t.Name,
			Sources: []string{"$" + t.EnvVar, t.Path, "keyring"},
		}
	}
	return t.buf.Reveal()
}

// Destroy wipes the held value.
func (t *Token) Destroy() {
	if t.buf != nil {
		t.buf.Destroy()
	}
}

// Bundle holds every credential a rotation can need.
type Bundle struct {
	tokens map[string]*Token
}

// Token returns the named token, or an unresolved placeholder for unknown names.
func (b *Bundle) Token(name string) *Token {
	if t, ok := b.tokens[name]; ok {
		return t
	}
	return &Token{Name: name, Source: SourceNone}
}

// Anaconda returns the token being rotated.
func (b *Bundle) Anaconda() *Token {
	return b.Token(Anaconda)
}

// Destroy wipes all held values.
func (b *Bundle) Destroy() {
	for _, t := range b.tokens {
		t.Destroy()
	}
}

// Resolver finds tokens. The lookup functions are injectable for tests.
type Resolver struct {
	LookupEnv  func(key string) (string, bool)
	Home       string
	KeyringGet func(service, user string) (string, error)
}

// NewResolver creates a resolver backed by the real environment, home
// directory, and OS keyring.
func NewResolver() *Resolver {
	home, _ := os.UserHomeDir()
	return &Resolver{
		LookupEnv:  os.LookupEnv,
		Home:       home,
		KeyringGet: keyring.Get,
	}
}

// Load resolves every known token. Missing tokens are recorded as
// unresolved rather than failing the whole load; callers decide which
// tokens are mandatory.
func (r *Resolver) Load() *Bundle {
	b := &Bundle{tokens: make(map[string]*Token, len(Names))}
	for _, name := range Names {
		b.tokens[name] = r.resolve(name)
	}
	return b
}

func (r *Resolver) resolve(name string) *Token {
	t := &Token{
		Name:   name,
		EnvVar: envVars[name],
		Path:   filepath.Join(r.Home, ".conda-smithy", name+".token"),
		Source: SourceNone,
	}

	if v, ok := r.LookupEnv(t.EnvVar); ok && v != "" {
		t.buf = secure.NewTokenBuffer(v)
		t.Source = SourceEnv
		return t
	}

	if data, err := os.ReadFile(t.Path); err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			t.buf = secure.NewTokenBuffer(v)
			t.Source = SourceFile
			return t
		}
	}

	if r.KeyringGet != nil {
		if v, err := r.KeyringGet(keyringService, name); err == nil && v != "" {
			t.buf = secure.NewTokenBuffer(v)
			t.Source = SourceKeyring
			return t
		}
	}

	return t
}
