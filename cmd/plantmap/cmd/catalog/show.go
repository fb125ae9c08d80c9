package catalog

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/appcontext"
	"github.com/agentstation/plantmap/internal/cmd/cmdutil"
	"github.com/agentstation/plantmap/pkg/catalog"
)

func newShowCommand(appCtx appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one catalog plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cmdutil.ParsePlantID(args[0])
			if err != nil {
				return err
			}
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			entry, err := pm.FindEntry(cmd.Context(), id)
			if err != nil {
				return err
			}
			return cmdutil.Print(cmd, appCtx, toRows([]catalog.Entry{entry})[0])
		},
	}
}
