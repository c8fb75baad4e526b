package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/output"
)

// VersionInfo holds version information
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

// NewVersionCommand creates the version command
func NewVersionCommand(getCfg func() *config.Config, version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display the version, commit hash, and build date of the BytePass client",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()
			out := cmd.OutOrStdout()

			if cfg.Format == "text" {
				fmt.Fprintf(out, "BytePass CLI\n")
				fmt.Fprintf(out, "Version:    %s\n", version)
				fmt.Fprintf(out, "Commit:     %s\n", commit)
				fmt.Fprintf(out, "Build Date: %s\n", buildDate)
				return nil
			}

			formatter, err := output.NewFormatter(cfg.Format)
			if err != nil {
				return err
			}

			text, err := formatter.Format(VersionInfo{
				Version:   version,
				Commit:    commit,
				BuildDate: buildDate,
			})
			if err != nil {
				return fmt.Errorf("failed to format version info: %w", err)
			}

			fmt.Fprint(out, text)
			return nil
		},
	}
}
