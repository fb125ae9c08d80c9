// Package catalog provides the commands that page through, download and
// search the plant catalog.
package catalog

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/appcontext"
	"github.com/agentstation/plantmap/pkg/catalog"
)

// NewCommand creates the catalog command using app context.
func NewCommand(appCtx appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"plants"},
		GroupID: "core",
		Short:   "Browse the plant catalog",
		Long: `Catalog pages through the remote plant catalog, downloads all of it
for offline use and searches whatever is loaded.

Once a full download exists the catalog is served from the local snapshot
and paging no longer touches the network.`,
		Example: `  plantmap catalog fetch --pages 3
  plantmap catalog fetch --query fir
  plantmap catalog download
  plantmap catalog search "silver fir" --fuzzy`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newFetchCommand(appCtx))
	cmd.AddCommand(newDownloadCommand(appCtx))
	cmd.AddCommand(newSearchCommand(appCtx))
	cmd.AddCommand(newShowCommand(appCtx))
	cmd.AddCommand(newMirrorCommand(appCtx))
	cmd.AddCommand(newCacheCommand(appCtx))

	return cmd
}

// entryRow is the table view of a catalog entry.
type entryRow struct {
	ID             int    `json:"id" yaml:"id"`
	CommonName     string `json:"common_name" yaml:"common_name"`
	ScientificName string `json:"scientific_name" yaml:"scientific_name"`
	Watering       string `json:"watering" yaml:"watering"`
	ImageURL       string `json:"image_url" yaml:"image_url" table:"wide"`
}

func toRows(entries []catalog.Entry) []entryRow {
	rows := make([]entryRow, len(entries))
	for i, e := range entries {
		rows[i] = entryRow{
			ID:             e.ID,
			CommonName:     e.DisplayName(),
			ScientificName: e.ScientificNames(),
			Watering:       e.Watering,
			ImageURL:       e.ImageURL,
		}
	}
	return rows
}
