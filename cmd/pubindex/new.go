package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/pubindex/scaffold"
)

func newCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "new <title>",
		Short: "Create a new post in the posts directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.setup()
			if err != nil {
				return err
			}
			path, err := scaffold.NewPost(cfg.Content.PostsDir, args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
			return nil
		},
	}
}
