package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/postgen/internal/version"
)

var (
	configPath string
	envFiles   []string
	portFlag   int
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "postgen",
		Short:         "LinkedIn post generator with a daily free quota",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running the binary without a subcommand starts the server.
		RunE: runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: config/<ENV>.yaml)")
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"},
		"dotenv files loaded before the config; missing files are ignored")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server with graceful shutdown.

SIGINT or SIGTERM stops accepting new requests and waits for in-flight
generations up to http.shutdown_timeout_sec.`,
		RunE: runServe,
	}
	serve.Flags().IntVarP(&portFlag, "port", "p", 0, "override http.port")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	root.AddCommand(serve, versionCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "postgen:", err)
		os.Exit(1)
	}
}
