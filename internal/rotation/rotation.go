// Package rotation orchestrates one anaconda token rotation across the CI
// providers. It is the containment boundary of the tool: provider output is
// routed to a discard sink and provider failures are replaced with sanitized,
// provider-attributed messages, because raw errors and response bodies can
// embed the token being rotated.
package rotation

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/condaops/cirotate/internal/credentials"
	dserrors "github.com/condaops/cirotate/internal/errors"
	"github.com/condaops/cirotate/internal/logging"
	"github.com/condaops/cirotate/internal/providers"
)

// DebugEnvVar enables debug passthrough: provider output reaches the real
// diagnostics stream and provider errors propagate unmodified. Only for
// local troubleshooting.
const DebugEnvVar = "DEBUG_ANACONDA_TOKENS"

// Error is the sanitized failure raised for a provider that could not be
// rotated. It names the provider and project but never carries the
// underlying error, whose text might embed the token.
type Error struct {
	User     string
	Project  string
	Provider string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Failed to rotate token for %s/%s on %s!", e.User, e.Project, e.Provider)
}

// Options selects what to rotate. A nil Providers slice means every
// provider, in the fixed order.
type Options struct {
	User         string
	Project      string
	FeedstockDir string
	Providers    []string
}

// Orchestrator runs rotations against a credential bundle. The build and
// lookupEnv hooks exist for tests; zero values use the real registry and
// process environment.
type Orchestrator struct {
	creds     *credentials.Bundle
	build     func(name string, creds *credentials.Bundle) (providers.Rotator, error)
	lookupEnv func(key string) (string, bool)
	debugSink io.Writer
}

// New creates an orchestrator over creds.
func New(creds *credentials.Bundle) *Orchestrator {
	return &Orchestrator{
		creds:     creds,
		build:     providers.New,
		lookupEnv: os.LookupEnv,
		debugSink: os.Stderr,
	}
}

// Rotate pushes the anaconda token to every selected provider in the fixed
// order, stopping at the first failure.
//
// The anaconda token is resolved before entering the containment boundary:
// without it no provider call is meaningful, so that failure is raised
// immediately and visibly. Everything after that point is contained — in
// production mode adapters write to a discard sink and any failure comes
// back as a sanitized Error (or a generic fallback advising DEBUG_ANACONDA_TOKENS
// when the failure cannot be attributed to a provider).
func (o *Orchestrator) Rotate(ctx context.Context, opts Options) (err error) {
	token, tokenErr := o.creds.Anaconda().Value()
	if tokenErr != nil {
		return dserrors.UserError{
			Message:    "You must have the anaconda token defined to do token rotation!",
			Suggestion: "Set BINSTAR_TOKEN in the environment or create ~/.conda-smithy/anaconda.token",
			Err:        tokenErr,
		}
	}

	names := opts.Providers
	if names == nil {
		names = providers.Order
	}
	for _, name := range names {
		if !providers.Known(name) {
			return dserrors.UserError{
				Message:    fmt.Sprintf("Unknown provider: %s", name),
				Suggestion: fmt.Sprintf("Choose from %v", providers.Order),
			}
		}
	}

	debug := o.debugEnabled()

	sink := io.Discard
	if debug {
		sink = o.debugSink
	}
	log := logging.New(sink, debug, true)

	// The generic fallback for failures that escape the per-provider
	// handling, e.g. a panic inside an adapter.
	fallback := dserrors.UserError{
		Message: fmt.Sprintf("Rotating the anaconda token in providers for %s/%s failed!", opts.User, opts.Project),
		Suggestion: fmt.Sprintf("Run the command locally with %s defined in the environment to investigate",
			DebugEnvVar),
	}
	defer func() {
		if r := recover(); r != nil {
			if debug {
				panic(r)
			}
			err = fallback
		}
	}()

	for _, name := range ordered(names) {
		if rotErr := o.rotateOne(ctx, name, token, opts, log); rotErr != nil {
			if debug {
				// passthrough: the original error, unmodified
				return rotErr
			}
			return &Error{User: opts.User, Project: opts.Project, Provider: name}
		}
		log.Info("rotated token on %s", name)
	}
	return nil
}

// rotateOne builds and runs a single provider adapter. Credential resolution
// happens here, inside the containment boundary, so a missing provider token
// is attributed to that provider like any other failure.
func (o *Orchestrator) rotateOne(ctx context.Context, name, token string, opts Options, log *logging.Logger) error {
	rot, err := o.build(name, o.creds)
	if err != nil {
		return err
	}
	return rot.Rotate(ctx, providers.Request{
		User:         opts.User,
		Project:      opts.Project,
		FeedstockDir: opts.FeedstockDir,
		Token:        token,
		Log:          log,
	})
}

func (o *Orchestrator) debugEnabled() bool {
	_, ok := o.lookupEnv(DebugEnvVar)
	return ok
}

// ordered filters the fixed rotation order down to the selected names, so
// the sequence never depends on caller-supplied ordering.
func ordered(names []string) []string {
	selected := make(map[string]bool, len(names))
	for _, n := range names {
		selected[n] = true
	}
	out := make([]string, 0, len(names))
	for _, n := range providers.Order {
		if selected[n] {
			out = append(out, n)
		}
	}
	return out
}
