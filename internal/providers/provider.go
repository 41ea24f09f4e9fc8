// Package providers contains one rotation adapter per CI provider. Each
// adapter speaks its provider's own API dialect but follows the same
// three-step protocol: list existing variables, detect the reserved secret,
// then create or update it.
package providers

import (
	"context"

	"github.com/condaops/cirotate/internal/logging"
)

// SecretName is the reserved variable name carrying the anaconda token at
// every provider and in conda-forge.yml.
const SecretName = "BINSTAR_TOKEN"

// Request carries the inputs for one provider rotation. FeedstockDir is only
// consumed by the appveyor adapter, whose secret lives in a local file.
type Request struct {
	User         string
	Project      string
	FeedstockDir string
	Token        string
	Log          *logging.Logger
}

// Rotator rotates the anaconda token at one CI provider.
type Rotator interface {
	Name() string
	Rotate(ctx context.Context, req Request) error
}
