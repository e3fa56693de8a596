package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/releasetrain/internal/graph"
	"github.com/grokify/releasetrain/internal/policy"
	"github.com/grokify/releasetrain/internal/report"
	"github.com/grokify/releasetrain/internal/train"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the release train without changing anything",
	Long: `Discover the dependency graph and print what a release would do.

Besides the report formats, --format dot and --format mermaid render the
discovered graph with the release set highlighted.

Examples:
  # Show the plan as a table
  releasetrain plan --owner acme --package app --allow acme/

  # Render the graph
  releasetrain plan --owner acme --package app --format dot | dot -Tsvg > train.svg`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().Bool("show-constraints", true, "Label graph edges with the required version (dot only)")
	_ = viper.BindPFlag("plan.show-constraints", planCmd.Flags().Lookup("show-constraints"))
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := applyTrainFile(); err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	cfg, err := trainConfig(policy.ModeSandbox)
	if err != nil {
		return err
	}

	planned, err := train.New(client, cfg).Plan(ctx)
	writeMetrics(cfg.Recorder)
	if err != nil {
		printFailedPlan(err)
		return err
	}

	switch format := viper.GetString("format"); format {
	case "dot":
		dc := graph.DefaultDOTConfig()
		dc.ReleaseType = cfg.ReleaseType
		dc.ShowConstraints = viper.GetBool("plan.show-constraints")
		return planned.Graph.WriteDOT(os.Stdout, dc)
	case "mermaid":
		mc := graph.DefaultMermaidConfig()
		mc.ReleaseType = cfg.ReleaseType
		return planned.Graph.WriteMermaid(os.Stdout, mc)
	default:
		formatter, err := report.NewFormatter(format)
		if err != nil {
			return err
		}
		output, err := formatter.FormatPlan(planned.Plan)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Println(output)
	}

	if issues := planned.Graph.Validate(); len(issues) > 0 && viper.GetBool("verbose") {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "Warning: %s %s: %s\n", issue.Type, issue.Repo, issue.Message)
		}
	}
	return nil
}
