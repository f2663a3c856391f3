// Package cli implements the lockfleet command surface. Every core
// operation is exposed as a named subcommand; every mutating command
// records one audit trail entry.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lockfleet/lockfleet/internal/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "lockfleet",
	Short: "Lockfleet - AppLocker compliance administration for fleets",
	Long: `Lockfleet administers Windows AppLocker execution-control policy
across a fleet: compiling inventory into rule documents, scoring policy
health against the rollout phase, and producing certifiable compliance
evidence packages backed by an append-only audit trail.

Example:
  lockfleet rules generate --inventory scan.yaml --type Publisher --group-by-publisher`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Set version for --version flag
	rootCmd.Version = version.Short()
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .lockfleet.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	rootCmd.PersistentFlags().String("actor", "", "actor recorded in audit entries (default $USER)")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error getting working directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lockfleet")
	}

	viper.SetEnvPrefix("LOCKFLEET")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// actor resolves the audit actor: flag, env, then OS user.
func actor() string {
	if a := viper.GetString("actor"); a != "" {
		return a
	}
	return os.Getenv("USER")
}
