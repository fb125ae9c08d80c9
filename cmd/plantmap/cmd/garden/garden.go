// Package garden provides the commands that manage favorited plants and
// their watering schedule.
package garden

import (
	"fmt"
	"os"
	"strconv"

	"github.com/agentstation/utc"
	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/appcontext"
	"github.com/agentstation/plantmap/internal/cmd/cmdutil"
	"github.com/agentstation/plantmap/internal/cmd/output"
	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/garden"
)

// NewCommand creates the garden command using app context.
func NewCommand(appCtx appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "garden",
		GroupID: "core",
		Short:   "Manage your favorite plants",
		Long: `Garden keeps the plants you favorite from the catalog, when you last
watered them and when they need water next.`,
		Example: `  plantmap garden add 1
  plantmap garden water 1
  plantmap garden schedule --markdown schedule.md`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newAddCommand(appCtx),
		newRemoveCommand(appCtx),
		newListCommand(appCtx),
		recordCommand(appCtx, "water ID", "Record a watering now", 1,
			func(cmd *cobra.Command, svc *garden.Service, id int, _ []string) (garden.SavedRecord, error) {
				return svc.Water(cmd.Context(), id)
			}),
		recordCommand(appCtx, "notes ID TEXT", "Replace a plant's notes", 2,
			func(cmd *cobra.Command, svc *garden.Service, id int, args []string) (garden.SavedRecord, error) {
				return svc.SetNotes(cmd.Context(), id, args[0])
			}),
		recordCommand(appCtx, "interval ID DAYS", "Set the watering interval in days", 2,
			func(cmd *cobra.Command, svc *garden.Service, id int, args []string) (garden.SavedRecord, error) {
				days, err := strconv.Atoi(args[0])
				if err != nil {
					return garden.SavedRecord{}, errors.NewValidationError("days", args[0], "must be a whole number")
				}
				return svc.SetInterval(cmd.Context(), id, days)
			}),
		recordCommand(appCtx, "remind ID on|off", "Turn watering reminders on or off", 2,
			func(cmd *cobra.Command, svc *garden.Service, id int, args []string) (garden.SavedRecord, error) {
				enabled, err := cmdutil.ParseSwitch(args[0])
				if err != nil {
					return garden.SavedRecord{}, err
				}
				return svc.SetReminders(cmd.Context(), id, enabled)
			}),
		newScheduleCommand(appCtx),
		newRemindersCommand(appCtx),
	)

	return cmd
}

// recordRow is the table view of a saved record.
type recordRow struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Scientific  string `json:"scientific_name" yaml:"scientific_name"`
	Interval    int    `json:"interval_days" yaml:"interval_days"`
	LastWatered string `json:"last_watered" yaml:"last_watered"`
	Reminders   bool   `json:"reminders" yaml:"reminders"`
	Notes       string `json:"notes" yaml:"notes" table:"wide"`
}

func toRow(rec garden.SavedRecord) recordRow {
	return recordRow{
		ID:          rec.ID,
		Name:        rec.CommonName,
		Scientific:  rec.ScientificName,
		Interval:    rec.WateringIntervalDays,
		LastWatered: formatDate(rec.LastWatered),
		Reminders:   rec.RemindersEnabled,
		Notes:       rec.Notes,
	}
}

func formatDate(t *utc.Time) string {
	if t == nil {
		return "never"
	}
	return t.Time.Format(constants.TimeFormatDate)
}

// printRecord prints a single record, as JSON or YAML when requested.
func printRecord(cmd *cobra.Command, appCtx appcontext.Interface, rec garden.SavedRecord) error {
	format := output.DetectFormat(appCtx.OutputFormat())
	if format == output.FormatJSON || format == output.FormatYAML {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), rec)
	}
	return cmdutil.Print(cmd, appCtx, toRow(rec))
}

// recordCommand builds a command that updates one record by ID and
// prints the result. nargs counts the ID.
func recordCommand(
	appCtx appcontext.Interface,
	use, short string,
	nargs int,
	apply func(cmd *cobra.Command, svc *garden.Service, id int, rest []string) (garden.SavedRecord, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cmdutil.ParsePlantID(args[0])
			if err != nil {
				return err
			}
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			rec, err := apply(cmd, pm.Garden(), id, args[1:])
			if err != nil {
				return err
			}
			return printRecord(cmd, appCtx, rec)
		},
	}
}

func newAddCommand(appCtx appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "add ID",
		Short: "Favorite a catalog plant",
		Long: `Add saves a catalog plant to your garden. The plant must be loaded or
mirrored locally; its watering label sets the default interval.`,
		Args: cobra.ExactArgs(1),
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
			rec, err := pm.Garden().Favorite(cmd.Context(), entry)
			if err != nil {
				return err
			}
			return printRecord(cmd, appCtx, rec)
		},
	}
}

func newRemoveCommand(appCtx appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a plant from your garden",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cmdutil.ParsePlantID(args[0])
			if err != nil {
				return err
			}
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			if err := pm.Garden().Unfavorite(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed plant %d.\n", id)
			return nil
		},
	}
}

func newListCommand(appCtx appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your favorite plants",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			records, err := pm.Garden().List(cmd.Context())
			if err != nil {
				return err
			}
			format := output.DetectFormat(appCtx.OutputFormat())
			if format == output.FormatJSON || format == output.FormatYAML {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Your garden is empty.")
				return nil
			}
			rows := make([]recordRow, len(records))
			for i, rec := range records {
				rows[i] = toRow(rec)
			}
			return cmdutil.Print(cmd, appCtx, rows)
		},
	}
}

// scheduleRow is the table view of a schedule item.
type scheduleRow struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Due    string `json:"due" yaml:"due"`
	Status string `json:"status" yaml:"status"`
}

func newScheduleCommand(appCtx appcontext.Interface) *cobra.Command {
	var markdownPath string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show when each plant needs water next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			items, err := pm.Garden().Schedule(cmd.Context())
			if err != nil {
				return err
			}

			switch markdownPath {
			case "":
			case "-":
				return output.WriteScheduleMarkdown(cmd.OutOrStdout(), items)
			default:
				return writeMarkdownFile(markdownPath, items)
			}

			format := output.DetectFormat(appCtx.OutputFormat())
			if format == output.FormatJSON || format == output.FormatYAML {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No watered plants yet.")
				return nil
			}
			rows := make([]scheduleRow, len(items))
			for i, item := range items {
				status := "upcoming"
				if item.Overdue {
					status = "overdue"
				}
				rows[i] = scheduleRow{
					ID:     item.Plant.ID,
					Name:   item.Plant.CommonName,
					Due:    item.Due.Time.Format(constants.TimeFormatDate),
					Status: status,
				}
			}
			return cmdutil.Print(cmd, appCtx, rows)
		},
	}
	cmd.Flags().StringVar(&markdownPath, "markdown", "", "Write the schedule as markdown to this file (- for stdout)")
	return cmd
}

func writeMarkdownFile(path string, items []garden.ScheduleItem) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := output.WriteScheduleMarkdown(f, items); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}

func newRemindersCommand(appCtx appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "List pending watering reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pm, err := appCtx.Plantmap()
			if err != nil {
				return err
			}
			reminders, err := pm.Garden().Reminders(cmd.Context())
			if err != nil {
				return err
			}
			if len(reminders) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No reminders pending.")
				return nil
			}
			return cmdutil.Print(cmd, appCtx, reminders)
		},
	}
}
