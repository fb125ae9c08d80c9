// Package cmdutil provides flags and helpers shared by plantmap commands.
package cmdutil

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/appcontext"
	"github.com/agentstation/plantmap/internal/cmd/output"
	"github.com/agentstation/plantmap/pkg/errors"
)

// QueryFlags holds the catalog scope flags.
type QueryFlags struct {
	Query string
	Limit int
}

// AddQueryFlags adds --query and --limit to a command.
func AddQueryFlags(cmd *cobra.Command) *QueryFlags {
	flags := &QueryFlags{}
	cmd.Flags().StringVarP(&flags.Query, "query", "Q", "",
		"Restrict the catalog to names matching this search")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0,
		"Show at most this many plants (0 for all)")
	return flags
}

// Truncate applies Limit to items.
func Truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// ParsePlantID parses a positional catalog ID argument.
func ParsePlantID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError("id", arg, "must be a positive plant ID")
	}
	return id, nil
}

// ParseSwitch parses on/off style arguments.
func ParseSwitch(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true", "yes", "enable", "enabled":
		return true, nil
	case "off", "false", "no", "disable", "disabled":
		return false, nil
	default:
		return false, errors.NewValidationError("state", arg, "must be on or off")
	}
}

// Print writes data to the command's stdout in the app's output format.
func Print(cmd *cobra.Command, appCtx appcontext.Interface, data any) error {
	format, err := output.ParseFormat(appCtx.OutputFormat())
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(output.DetectFormat(string(format)))
	return formatter.Format(cmd.OutOrStdout(), data)
}
