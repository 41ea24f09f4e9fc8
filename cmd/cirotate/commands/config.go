package commands

import (
	"github.com/condaops/cirotate/internal/logging"
)

// Config carries the parsed global flags and the shared logger into each
// command constructor.
type Config struct {
	Logger  *logging.Logger
	Debug   bool
	NoColor bool
}
