package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/grokify/releasetrain/internal/graph"
	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/internal/manifest"
	"github.com/grokify/releasetrain/internal/metrics"
	"github.com/grokify/releasetrain/internal/policy"
	"github.com/grokify/releasetrain/internal/train"
	"github.com/grokify/releasetrain/internal/version"
)

// applyTrainFile makes the train file's values the defaults that explicit
// flags, env vars and the config file override.
func applyTrainFile() error {
	path := viper.GetString("train-file")
	if path == "" {
		return nil
	}
	t, err := policy.LoadTrainFile(path)
	if err != nil {
		return err
	}

	set := func(key, value string) {
		if value != "" {
			viper.SetDefault(key, value)
		}
	}
	set("owner", t.Owner)
	set("package", t.Package)
	set("type", t.ReleaseType)
	set("source-ref", t.SourceRef)
	set("mode", t.Mode)
	if len(t.Allow) > 0 {
		viper.SetDefault("allow", t.Allow)
	}
	if len(t.Deny) > 0 {
		viper.SetDefault("deny", t.Deny)
	}
	return nil
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if viper.GetString("log-format") == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, PadLevelText: true})
	}

	if viper.GetBool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func newClient() (hosting.Client, error) {
	token := viper.GetString("token")
	if token == "" {
		return nil, errors.New("GitHub token required. Set GITHUB_TOKEN or use --token flag")
	}
	return hosting.NewGitHubWithConfig(hosting.GitHubConfig{
		Token:   token,
		BaseURL: viper.GetString("base-url"),
	})
}

// trainConfig builds the run configuration shared by every command.
func trainConfig(mode policy.Mode) (train.Config, error) {
	owner := viper.GetString("owner")
	pkg := viper.GetString("package")
	if owner == "" || pkg == "" {
		return train.Config{}, errors.New("--owner and --package are required")
	}

	rt, err := version.ParseReleaseType(viper.GetString("type"))
	if err != nil {
		return train.Config{}, err
	}

	cfg := train.Config{
		Owner:       owner,
		Package:     pkg,
		SourceRef:   viper.GetString("source-ref"),
		ReleaseType: rt,
		Mode:        mode,
		Filter: manifest.NameFilter{
			Allow: viper.GetStringSlice("allow"),
			Deny:  viper.GetStringSlice("deny"),
		},
		MaxPasses:   viper.GetInt("max-passes"),
		Concurrency: viper.GetInt("concurrency"),
		Logger:      newLogger(),
	}

	if viper.GetBool("progress") {
		cfg.Progress = graph.NewProgress(graph.ProgressConfig{Enabled: true})
	}
	if viper.GetString("metrics-file") != "" {
		cfg.Recorder = metrics.NewRecorder()
	}
	return cfg, nil
}

func writeMetrics(rec *metrics.Recorder) {
	path := viper.GetString("metrics-file")
	if rec == nil || path == "" {
		return
	}
	if err := rec.WriteTextfile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}
