package catalog

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/appcontext"
	"github.com/agentstation/plantmap/internal/cmd/cmdutil"
)

func newMirrorCommand(appCtx appcontext.Interface) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "List the catalog mirrored in the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			entries, err := pm.Mirror().Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "The local mirror is empty; run 'plantmap catalog download' first.")
			}
			return cmdutil.Print(cmd, appCtx, toRows(cmdutil.Truncate(entries, limit)))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Show at most this many plants (0 for all)")
	return cmd
}

func newCacheCommand(appCtx appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the downloaded catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the catalog snapshot and the local mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			if err := pm.ClearCache(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Catalog cache cleared.")
			return nil
		},
	})
	return cmd
}
