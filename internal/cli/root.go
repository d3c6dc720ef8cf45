package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xform-labs/xform/internal/branding"
	"github.com/xform-labs/xform/internal/config"
	"github.com/xform-labs/xform/internal/logging"
	"github.com/xform-labs/xform/internal/updater"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	logLevelFlag string

	// log is the shared logger, configured in PersistentPreRun.
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` runs XML transformations through an extensible engine.
Extension functions are packaged as plugin archives (.xfp) and picked up
from the configured plugin directories at startup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()

		level := config.LogLevel()
		if logLevelFlag != "" {
			level = logLevelFlag
		}
		log = logging.New(level)

		// Skip the banner for the command that manages its own state.
		if cmd.Name() == "update" || cmd.Name() == "self-update" {
			return
		}

		// Non-blocking banner from cached version check.
		u := updater.New(buildVersion)
		u.CheckAndPrintBanner(os.Stderr, config.Dir())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
