package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:8420"

type rootOptions struct {
	configFile string
	serverURL  string
	json       bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "agentcomm",
		Short:         "Message hub for coordinating agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// A missing .env file is not an error.
			_ = godotenv.Load()

			// The flag default was read before .env was loaded.
			if f := cmd.Flag("server"); f != nil && !f.Changed {
				if v := os.Getenv("AGENTCOMM_SERVER_URL"); v != "" {
					opts.serverURL = v
				}
			}
		},
	}

	serverURL := os.Getenv("AGENTCOMM_SERVER_URL")
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to a JSON or YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.serverURL, "server", "s", serverURL, "Base URL of a running hub")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newServeCommand(opts),
		newRegisterCommand(opts),
		newUnregisterCommand(opts),
		newSendCommand(opts),
		newBroadcastCommand(opts),
		newReplyCommand(opts),
		newInboxCommand(opts),
		newWatchCommand(opts),
		newThreadCommand(opts),
		newStatsCommand(opts),
		newHistoryCommand(opts),
	)

	return cmd
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln(errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
