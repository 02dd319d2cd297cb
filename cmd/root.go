// Package cmd contains the CLI entry points.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "migbot",
	Short: "migbot - Slack to Teams migration assistant service",
	Long: `migbot serves a retrieval-augmented chatbot for Slack to Microsoft
Teams migration questions. It ingests local documents (PDF, Excel,
Word) and blog content into a vector index on startup, then answers
questions over HTTP with streaming support.

Running migbot without a subcommand starts the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
