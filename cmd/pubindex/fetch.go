package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/pubindex/client"
)

func fetchCmd(g *globals) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "fetch <slug>",
		Short: "Fetch one slug's entry from a deployed artifact",
		Long: `Request the deployed blog-data.json and print the navigation and related
posts for one slug, exactly as a page would see them. Failures print the
empty default rather than an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if baseURL != "" {
				cfg.Client.BaseURL = baseURL
			}
			if timeout > 0 {
				cfg.Client.Timeout = timeout
			}
			c := client.FromConfig(cfg.Client, cfg.Build.ArtifactName, client.WithLogger(log))
			entry := c.Fetch(cmd.Context(), args[0])

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Site URL hosting the artifact (default client.base_url)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-attempt timeout (default client.timeout)")
	return cmd
}
