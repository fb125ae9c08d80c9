package catalog

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/appcontext"
	"github.com/agentstation/plantmap/internal/cmd/output"
	"github.com/agentstation/plantmap/pkg/loader"
)

// downloadSummary reports a finished download.
type downloadSummary struct {
	Query    string `json:"query" yaml:"query"`
	Plants   int    `json:"plants" yaml:"plants"`
	Pages    int    `json:"pages" yaml:"pages"`
	Snapshot string `json:"snapshot" yaml:"snapshot"`
}

func newDownloadCommand(appCtx appcontext.Interface) *cobra.Command {
	var (
		query      string
		noProgress bool
	)
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the whole catalog",
		Long: `Download fetches every catalog page in order. A complete download
without a query is saved as the local snapshot and mirrored into the
local store, so later runs work offline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			ld := pm.Loader()

			if !noProgress {
				ld.OnStateChange(progressPrinter(cmd))
			}

			if err := ld.LoadAllPages(cmd.Context(), query); err != nil {
				return err
			}
			pm.Snapshots().Wait()

			state := ld.State()
			summary := downloadSummary{
				Query:  query,
				Plants: len(state.Entries),
				Pages:  state.CurrentPage - 1,
			}
			if query == "" {
				summary.Snapshot = pm.Snapshots().Path()
			}
			return printSummary(cmd, appCtx, summary)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "Q", "", "Download only names matching this search (not cached)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not print download progress")
	return cmd
}

// progressPrinter prints a line to stderr every time the download
// progress crosses a 10% step.
func progressPrinter(cmd *cobra.Command) loader.StateChangeHook {
	var (
		mu   sync.Mutex
		last = -1
	)
	return func(s loader.State) {
		if !s.IsDownloadingAll {
			return
		}
		step := int(s.DownloadProgress * 10)
		mu.Lock()
		defer mu.Unlock()
		if step == last {
			return
		}
		last = step
		fmt.Fprintf(cmd.ErrOrStderr(), "Downloading... %3.0f%% (%d plants)\n", s.DownloadProgress*100, len(s.Entries))
	}
}

func printSummary(cmd *cobra.Command, appCtx appcontext.Interface, summary downloadSummary) error {
	format := output.DetectFormat(appCtx.OutputFormat())
	if format == output.FormatJSON || format == output.FormatYAML {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d plants in %d pages.\n", summary.Plants, summary.Pages)
	if summary.Snapshot != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot saved to %s\n", summary.Snapshot)
	}
	return nil
}
