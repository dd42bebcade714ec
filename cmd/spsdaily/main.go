package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spsdaily",
		Short: "Collect and curate longform science, philosophy, and society writing",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./spsdaily.yaml)")

	root.AddCommand(collectCmd())
	root.AddCommand(reviewCmd())
	root.AddCommand(curateCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func collectCmd() *cobra.Command {
	var categories []string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass and stage candidates for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), categories)
		},
	}

	cmd.Flags().StringSliceVar(&categories, "category", nil, "specific categories to collect (e.g., science,books)")
	return cmd
}

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Send pending candidates to the review chat once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd.Context())
		},
	}
}

func curateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curate",
		Short: "Run the interactive review bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurate()
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending and live article counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler, review bot, and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
