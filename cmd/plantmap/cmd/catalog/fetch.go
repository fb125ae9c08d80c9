package catalog

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/appcontext"
	"github.com/agentstation/plantmap/internal/cmd/cmdutil"
	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/errors"
)

func newFetchCommand(appCtx appcontext.Interface) *cobra.Command {
	var (
		pages int
		flags *cmdutil.QueryFlags
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Load catalog pages from the network",
		Long: `Fetch loads the next pages of the catalog, the same way scrolling to
the end of the list does. A query restricts the catalog to matching
names and starts again from the first page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pages < 1 {
				return errors.NewValidationError("pages", pages, "must be at least 1")
			}

			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			ld := pm.Loader()
			logger := appCtx.Logger()

			ld.OnPageLoaded(func(page int, entries []catalog.Entry) {
				logger.Info().Int("page", page).Int("plants", len(entries)).Msg("Loaded catalog page")
			})

			if ld.State().FromCache {
				fmt.Fprintln(cmd.ErrOrStderr(), "Serving the downloaded catalog; run 'plantmap catalog cache clear' to page from the network again.")
			}

			for i := 0; i < pages; i++ {
				if err := ld.LoadNextPage(cmd.Context(), flags.Query); err != nil {
					return err
				}
				if !ld.State().CanLoadMore {
					break
				}
			}

			state := ld.State()
			entries := state.Entries
			if state.FromCache && flags.Query != "" {
				entries = ld.SearchLocally(flags.Query)
			}
			return cmdutil.Print(cmd, appCtx, toRows(cmdutil.Truncate(entries, flags.Limit)))
		},
	}
	cmd.Flags().IntVarP(&pages, "pages", "n", 1, "Number of pages to load")
	flags = cmdutil.AddQueryFlags(cmd)
	return cmd
}
