package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/plantmap/internal/cmd/output"
)

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("plantmap %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}

// NewConfigCommand creates the config command, which prints the resolved
// configuration with secrets masked.
func (a *App) NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		GroupID: "management",
		Short:   "Show the resolved configuration",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := configView{
				ConfigFile:        a.config.ConfigFile,
				DataDir:           a.config.DataDir,
				StoreDriver:       a.config.StoreDriver,
				PerenualBaseURL:   a.config.PerenualBaseURL,
				PerenualAPIKey:    mask(a.config.PerenualAPIKey),
				PlantbookBaseURL:  a.config.PlantbookBaseURL,
				PlantbookClientID: mask(a.config.PlantbookClientID),
				HTTPTimeout:       a.config.HTTPTimeout.String(),
			}
			formatter := output.NewFormatter(output.DetectFormat(a.config.Format))
			return formatter.Format(cmd.OutOrStdout(), view)
		},
	}
}

type configView struct {
	ConfigFile        string `json:"config_file" yaml:"config_file"`
	DataDir           string `json:"data_dir" yaml:"data_dir"`
	StoreDriver       string `json:"store_driver" yaml:"store_driver"`
	PerenualBaseURL   string `json:"perenual_base_url" yaml:"perenual_base_url"`
	PerenualAPIKey    string `json:"perenual_api_key" yaml:"perenual_api_key"`
	PlantbookBaseURL  string `json:"plantbook_base_url" yaml:"plantbook_base_url"`
	PlantbookClientID string `json:"plantbook_client_id" yaml:"plantbook_client_id"`
	HTTPTimeout       string `json:"http_timeout" yaml:"http_timeout"`
}

// mask hides all but the last four characters of a secret.
func mask(secret string) string {
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) <= 4:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}
