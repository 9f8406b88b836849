// Command pubindex builds the writing site's relationship artifact, feed and
// sitemap, previews them locally, and scaffolds new posts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pubindex"
	"github.com/eringen/pubindex/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globals are the flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:   "pubindex",
		Short: "Content relationship builder for a file-based writing site",
		Long: `pubindex scans MDX/Markdown posts, orders them newest first, and writes
previous/next navigation and tag-related posts to a static JSON artifact,
together with an RSS feed and a sitemap.

Examples:
  pubindex build
  pubindex build --force --config site.yaml
  pubindex serve --watch
  pubindex new "My next post"
  pubindex fetch my-next-post --base-url https://example.com`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "pubindex.yaml", "YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level override: debug, info, warn, error")

	cmd.AddCommand(buildCmd(g), serveCmd(g), newCmd(g), fetchCmd(g), versionCmd())
	return cmd
}

// setup loads the config and builds the logger for a subcommand.
func (g *globals) setup() (pubindex.Config, *zap.Logger, error) {
	cfg, err := pubindex.LoadConfig(g.configPath)
	if err != nil {
		return pubindex.Config{}, nil, err
	}
	level := cfg.Logging.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	log, err := logger.NewLogger(cfg.Logging.Env, level)
	if err != nil {
		return pubindex.Config{}, nil, err
	}
	return cfg, log, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pubindex version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pubindex %s\n", version)
		},
	}
}
