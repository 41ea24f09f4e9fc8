package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/condaops/cirotate/internal/credentials"
	dserrors "github.com/condaops/cirotate/internal/errors"
	"github.com/condaops/cirotate/internal/providers"
	"github.com/condaops/cirotate/internal/rotation"
)

func NewRotateCommand(cfg *Config) *cobra.Command {
	var (
		user          string
		project       string
		feedstockDir  string
		providerNames []string
	)

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the anaconda token on the selected CI providers",
		Long: `Rotate the anaconda (binstar) token for user/project on every selected CI
provider, in a fixed order: circle, drone, travis, azure, appveyor.

The new token is read from BINSTAR_TOKEN, ~/.conda-smithy/anaconda.token, or
the OS keyring. Each provider API is authenticated with its own token,
resolved the same way.

Rotation stops at the first provider failure. The failure message names the
provider but never carries the token or the provider's raw response; define
DEBUG_ANACONDA_TOKENS in the environment to see the unredacted error.

Examples:
  # Rotate everywhere
  cirotate rotate --user conda-forge --project pkg-feedstock --feedstock-dir ./pkg-feedstock

  # Only circle and travis
  cirotate rotate --user conda-forge --project pkg-feedstock --provider circle,travis`,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range providerNames {
				if !providers.Known(name) {
					return dserrors.UserError{
						Message:    fmt.Sprintf("Unknown provider: %s", name),
						Suggestion: fmt.Sprintf("Choose from %v", providers.Order),
					}
				}
			}

			bundle := credentials.NewResolver().Load()
			defer bundle.Destroy()

			opts := rotation.Options{
				User:         user,
				Project:      project,
				FeedstockDir: feedstockDir,
				Providers:    providerNames,
			}
			if len(providerNames) == 0 {
				opts.Providers = nil // all, in the fixed order
			}

			if err := rotation.New(bundle).Rotate(cmd.Context(), opts); err != nil {
				return err
			}
			cfg.Logger.Info("Rotated anaconda token for %s/%s", user, project)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Repository owner (required)")
	cmd.Flags().StringVar(&project, "project", "", "Repository / feedstock name (required)")
	cmd.Flags().StringVar(&feedstockDir, "feedstock-dir", ".", "Feedstock checkout holding conda-forge.yml (appveyor only)")
	cmd.Flags().StringSliceVar(&providerNames, "provider", nil, "Provider(s) to rotate (default: all)")

	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}
