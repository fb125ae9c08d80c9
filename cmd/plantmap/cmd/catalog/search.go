package catalog

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/appcontext"
	"github.com/agentstation/plantmap/internal/cmd/cmdutil"
	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/errors"
)

func newSearchCommand(appCtx appcontext.Interface) *cobra.Command {
	var (
		fuzzy bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the loaded catalog by name",
		Long: `Search filters the plants already loaded, or the local mirror when
nothing is loaded, without touching the network. Names match when they
contain the query, ignoring case; --fuzzy ranks looser matches instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}

			entries := catalog.Snapshot(pm.Loader().State().Entries)
			if len(entries) == 0 {
				entries, err = pm.Mirror().Load(cmd.Context())
				if err != nil {
					return err
				}
			}
			if len(entries) == 0 {
				return errors.NewNotFoundError("catalog", "local")
			}

			var matches catalog.Snapshot
			if fuzzy {
				matches = catalog.Rank(entries, args[0])
			} else {
				matches = catalog.Filter(entries, args[0])
			}
			return cmdutil.Print(cmd, appCtx, toRows(cmdutil.Truncate(matches, limit)))
		},
	}
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Rank fuzzy matches instead of substring filtering")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Show at most this many plants (0 for all)")
	return cmd
}
