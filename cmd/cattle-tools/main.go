package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/cattle-tools/pkg/client"
	"github.com/cuemby/cattle-tools/pkg/config"
	"github.com/cuemby/cattle-tools/pkg/log"
	"github.com/cuemby/cattle-tools/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cattle-tools",
	Short: "cattle-tools - deployment helpers for Rancher Cattle environments",
	Long: `cattle-tools drives services in a Rancher 1.x (Cattle) environment
from scripts and CI pipelines: look services up, create or clone them,
roll out new images, restart them, rewire load balancer rules and wait
until they settle.

Credentials come from ~/.rancher/cli.json, or from CATTLE_URL,
CATTLE_ACCESS_KEY and CATTLE_SECRET_KEY when that file is missing.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOutput, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{
			Level:      log.ParseLevel(level),
			JSONOutput: jsonOutput,
			Output:     os.Stderr,
		})
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("metrics-textfile")
		if path == "" {
			return nil
		}
		return metrics.WriteTextfile(path)
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"cattle-tools version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Rancher CLI config file (default ~/.rancher/cli.json)")
	rootCmd.PersistentFlags().StringP("project", "p", "", "Project (environment) id (default from the config file)")
	rootCmd.PersistentFlags().StringP("output", "o", "yaml", "Output format: yaml or json")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().String("metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(stackCmd)
	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(lbCmd)
}

// session bundles what every command needs
type session struct {
	client    *client.Client
	projectID string
}

func newSession(cmd *cobra.Command) (*session, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	c, err := client.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	projectID, _ := cmd.Flags().GetString("project")
	if projectID == "" {
		projectID = cfg.Environment
	}
	if projectID == "" {
		return nil, fmt.Errorf("no project id: pass --project or set an environment in %s", config.DefaultPath())
	}

	log.Logger.Debug().
		Str("url", c.BaseURL()).
		Str("source", cfg.Source).
		Str("project_id", projectID).
		Msg("Using cattle endpoint")

	return &session{client: c, projectID: projectID}, nil
}
