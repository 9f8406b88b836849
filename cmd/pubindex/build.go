package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pubindex"
)

func buildCmd(g *globals) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write blog-data.json, notes-data.json, rss.xml and sitemap.xml",
		Long: `Index the posts and notes directories and write every artifact into the
output directory. Unchanged content within the cache TTL skips the work
unless --force is given. A failure to read the content or write an artifact
exits non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := pubindex.NewBuilder(cfg, log).Run(ctx, pubindex.BuildOptions{Force: force})
			if err != nil {
				log.Error("build failed", zap.Error(err))
				return err
			}
			log.Info("build complete",
				zap.Int("posts", report.Posts),
				zap.Int("notes", report.Notes),
				zap.Bool("cache_hit", report.CacheHit),
				zap.Duration("took", report.Duration),
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Ignore the change cache and rebuild everything")
	return cmd
}
