// Package cli implements the kennel command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath  string
	driverName  string
	ownerID     string
	jsonOutput  bool
	verboseLogs bool
)

// rootCmd is the root command for kennel.
var rootCmd = &cobra.Command{
	Use:     "kennel",
	Version: "dev",
	Short:   "Manage dogs, schedules and certificates in the document store",
	Long: `kennel reads and writes an owner's dogs and their schedules and
certificates, and can watch them change live.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", os.Getenv("KENNEL_CONFIG"), "Path to the YAML configuration file")
	flags.StringVar(&driverName, "driver", "", "Store driver (memory or dynamodb), overrides the configuration")
	flags.StringVar(&ownerID, "owner", "", "Owner id")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVarP(&verboseLogs, "verbose", "v", false, "Log at debug level")

	rootCmd.AddGroup(&cobra.Group{ID: "read", Title: "Read:"})
	rootCmd.AddGroup(&cobra.Group{ID: "write", Title: "Write:"})
	rootCmd.AddGroup(&cobra.Group{ID: "admin", Title: "Administration:"})

	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the kennel CLI version",
		Args:    cobra.NoArgs,
		GroupID: "admin",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

// requireOwner fails when --owner was not given.
func requireOwner() error {
	if ownerID == "" {
		return fmt.Errorf("--owner is required")
	}
	return nil
}
