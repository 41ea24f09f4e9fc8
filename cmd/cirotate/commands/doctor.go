package commands

import (
	"github.com/spf13/cobra"

	"github.com/condaops/cirotate/internal/credentials"
	dserrors "github.com/condaops/cirotate/internal/errors"
	"github.com/condaops/cirotate/internal/logging"
)

func NewDoctorCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check which CI tokens can be resolved",
		Long: `Verify that the credentials a rotation needs are resolvable.

Each token is looked up in the environment, then in ~/.conda-smithy/, then in
the OS keyring. Values are never printed, only the source they came from.

The anaconda token is mandatory; a provider token missing here means that
provider would fail during rotation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle := credentials.NewResolver().Load()
			defer bundle.Destroy()
			return runDoctor(cfg.Logger, bundle)
		},
	}
	return cmd
}

// runDoctor reports every token's resolution status. It fails only when the
// anaconda token itself is missing, since nothing can be rotated without it.
func runDoctor(log *logging.Logger, bundle *credentials.Bundle) error {
	ok := true
	for _, name := range credentials.Names {
		tok := bundle.Token(name)
		switch {
		case tok.Resolved():
			log.Info("%s token resolved from %s", name, tok.Source)
		case name == credentials.Anaconda:
			ok = false
			log.Error("%s token missing (tried $%s, %s, keyring)", name, tok.EnvVar, tok.Path)
		default:
			log.Warn("%s token missing; rotation on %s would fail", name, name)
		}
	}

	if !ok {
		return dserrors.UserError{
			Message:    "You must have the anaconda token defined to do token rotation!",
			Suggestion: "Set BINSTAR_TOKEN in the environment or create ~/.conda-smithy/anaconda.token",
		}
	}
	return nil
}
