package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "releasetrain",
	Short: "Multi-repository release trains for composer packages",
	Long: `releasetrain releases a composer package together with every package it
depends on that has unreleased changes.

Starting from a root package it discovers the dependency graph from
composer.json manifests, decides which packages need a release, orders the
releases so dependencies go first, and then creates maintenance branches,
rewrites manifests and publishes releases in that order.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.releasetrain.yaml)")
	flags.String("train-file", "", "YAML file describing the train (owner, package, allow, deny, type, source_ref, mode)")
	flags.String("owner", "", "GitHub owner of every repository in the train")
	flags.String("token", "", "GitHub token (or set GITHUB_TOKEN env var)")
	flags.String("base-url", "", "GitHub API base URL for GitHub Enterprise")
	flags.String("package", "", "Root repository to release")
	flags.StringSlice("allow", nil, "Only follow requirements whose name contains one of these")
	flags.StringSlice("deny", nil, "Never follow requirements whose name contains one of these")
	flags.String("type", "minor", "Release type: major, minor, patch")
	flags.String("source-ref", "master", "Ref of the root package to release")
	flags.String("format", "table", "Output format: table, json, yaml, markdown, csv")
	flags.Int("max-passes", 0, "Discovery pass ceiling (default 100)")
	flags.Int("concurrency", 4, "Parallel repository reads per discovery pass")
	flags.String("metrics-file", "", "Write run metrics in node exporter textfile format")
	flags.Bool("progress", false, "Show discovery progress on stderr")
	flags.Bool("verbose", false, "Enable verbose output")
	flags.String("log-format", "text", "Log format: text, json")

	for _, name := range []string{
		"train-file", "owner", "token", "base-url", "package", "allow", "deny", "type",
		"source-ref", "format", "max-passes", "concurrency", "metrics-file", "progress",
		"verbose", "log-format",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".releasetrain")
	}

	viper.SetEnvPrefix("RELEASETRAIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Also check GITHUB_TOKEN directly
	if viper.GetString("token") == "" {
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			viper.Set("token", token)
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
