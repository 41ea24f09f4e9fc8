package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/condaops/cirotate/internal/providers"
)

func NewProvidersCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the supported CI providers",
		Long: `List every CI provider the rotation covers, in rotation order, with its
API endpoint, authentication scheme, and upsert semantics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tENDPOINT\tAUTH\tUPSERT")
			for _, info := range providers.Infos() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, info.Endpoint, info.Auth, info.Upsert)
			}
			return w.Flush()
		},
	}
	return cmd
}
