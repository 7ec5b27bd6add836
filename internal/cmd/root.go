package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/halverson/dispatch/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Workflow task-execution coordinator",
	Long: `Dispatch sits between a workflow scheduler and an execution backend:
it accepts ready-to-run task attempts, enforces a concurrency ceiling,
submits attempts to the backend, and buffers terminal outcomes until
they are collected. In standalone mode it ingests task manifests from
a spool directory and runs them on a local backend.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/dispatch/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/dispatch")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DISPATCH")
	// Replace dots with underscores for nested keys in env vars
	// e.g., DISPATCH_EXECUTOR_PARALLELISM for executor.parallelism
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
