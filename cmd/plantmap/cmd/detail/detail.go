// Package detail provides the commands that look up plant care details.
package detail

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/appcontext"
	"github.com/agentstation/plantmap/internal/cmd/cmdutil"
	"github.com/agentstation/plantmap/internal/cmd/output"
	"github.com/agentstation/plantmap/internal/sources/plantbook"
)

// NewCommand creates the detail command using app context.
func NewCommand(appCtx appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "detail",
		GroupID: "core",
		Short:   "Look up plant care details",
		Long: `Detail searches Open Plantbook for care thresholds such as light,
temperature, humidity and soil moisture.

Requires PLANTBOOK_CLIENT_ID and PLANTBOOK_CLIENT_SECRET.`,
		Example: `  plantmap detail search "silver fir"
  plantmap detail show abies-alba`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSearchCommand(appCtx))
	cmd.AddCommand(newShowCommand(appCtx))
	return cmd
}

func newSearchCommand(appCtx appcontext.Interface) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search ALIAS",
		Short: "Find plant IDs by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			results, err := pm.Details().Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cmdutil.Print(cmd, appCtx, cmdutil.Truncate(results, limit))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Show at most this many results (0 for all)")
	return cmd
}

func newShowCommand(appCtx appcontext.Interface) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "show PID",
		Short: "Show care thresholds for a plant ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			if refresh {
				if err := pm.Details().Forget(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			d, err := pm.Details().Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			format := output.DetectFormat(appCtx.OutputFormat())
			if format == output.FormatJSON || format == output.FormatYAML {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), d)
			}
			return cmdutil.Print(cmd, appCtx, thresholds(d))
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass cached details")
	return cmd
}

// thresholds lays a detail out as one row per measurement.
func thresholds(d *plantbook.Detail) output.Data {
	rows := [][]string{
		{"Light (lux)", value(d.MinLightLux), value(d.MaxLightLux)},
		{"Temperature (°C)", value(d.MinTemp), value(d.MaxTemp)},
		{"Humidity (%)", value(d.MinEnvHumid), value(d.MaxEnvHumid)},
		{"Soil moisture (%)", value(d.MinSoilMoist), value(d.MaxSoilMoist)},
		{"Soil EC (μS/cm)", value(d.MinSoilEC), value(d.MaxSoilEC)},
	}
	return output.Data{
		Headers:         []string{d.DisplayPID, "Min", "Max"},
		Rows:            rows,
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight, output.AlignRight},
	}
}

func value(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
