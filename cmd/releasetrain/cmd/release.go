package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/releasetrain/internal/policy"
	"github.com/grokify/releasetrain/internal/prompt"
	"github.com/grokify/releasetrain/internal/report"
	"github.com/grokify/releasetrain/internal/train"
	"github.com/grokify/releasetrain/pkg/model"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release a package and every dependency that needs it",
	Long: `Discover the dependency graph of a root package, plan the release train
and execute it.

By default the plan is printed and you are asked once before anything is
changed. Use --mode sandbox to only print the plan and --mode non-interactive
to release without asking.

Examples:
  # Plan and confirm a minor release train
  releasetrain release --owner acme --package app --allow acme/

  # Patch releases from a train file, unattended
  releasetrain release --train-file train.yaml --type patch --mode non-interactive`,
	RunE: runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)

	releaseCmd.Flags().String("mode", string(policy.ModeInteractive), "Mode: sandbox, interactive, non-interactive")
	releaseCmd.Flags().Bool("tui", false, "Confirm with a full-screen dialog instead of a y/N line")
	releaseCmd.Flags().String("commit-message", "", "Commit message of manifest rewrites")
	releaseCmd.Flags().String("attribution", "", "Attribution line of release notes")

	_ = viper.BindPFlag("mode", releaseCmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("release.tui", releaseCmd.Flags().Lookup("tui"))
	_ = viper.BindPFlag("release.commit-message", releaseCmd.Flags().Lookup("commit-message"))
	_ = viper.BindPFlag("release.attribution", releaseCmd.Flags().Lookup("attribution"))
}

func runRelease(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := applyTrainFile(); err != nil {
		return err
	}

	mode, err := policy.ParseMode(viper.GetString("mode"))
	if err != nil {
		return err
	}

	formatter, err := report.NewFormatter(viper.GetString("format"))
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	cfg, err := trainConfig(mode)
	if err != nil {
		return err
	}
	cfg.CommitMessage = viper.GetString("release.commit-message")
	cfg.Attribution = viper.GetString("release.attribution")

	if viper.GetBool("release.tui") {
		cfg.Confirmer = &prompt.TUIConfirmer{In: os.Stdin, Out: os.Stderr}
	} else {
		cfg.Confirmer = &prompt.LineConfirmer{In: os.Stdin, Out: os.Stderr}
	}

	cfg.OnPlan = func(plan *model.ReleasePlan) {
		if out, err := formatter.FormatPlan(plan); err == nil {
			fmt.Println(out)
		}
	}

	result, err := train.New(client, cfg).Run(ctx)
	writeMetrics(cfg.Recorder)
	if err != nil {
		printFailedPlan(err)
		return err
	}

	if !result.Executed {
		fmt.Fprintln(os.Stderr, report.Summary(result.Plan))
		if len(result.Plan.Releases) > 0 {
			fmt.Fprintf(os.Stderr, "Nothing released (%s mode)\n", mode)
		}
		return nil
	}

	output, err := formatter.FormatResult(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Println(output)
	return nil
}

// printFailedPlan writes whatever was planned before a failure to stderr.
func printFailedPlan(err error) {
	var te *train.Error
	if !errors.As(err, &te) || te.Plan == nil {
		return
	}
	out, ferr := report.NewTableFormatter().FormatPlan(te.Plan)
	if ferr != nil {
		return
	}
	fmt.Fprintln(os.Stderr, out)
	for _, c := range te.Created {
		fmt.Fprintf(os.Stderr, "Released before the failure: %s %s\n", c.Repo.FullName(), c.Version)
	}
}
