package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/agentcomm/archive"
	"github.com/tailored-agentic-units/agentcomm/config"
	"github.com/tailored-agentic-units/agentcomm/messaging"
)

// newHistoryCommand reads the archive directly, so it works while the hub
// is down.
func newHistoryCommand(root *rootOptions) *cobra.Command {
	var agent, thread string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(root.configFile)
			if err != nil {
				return err
			}

			store, err := archive.NewStore(cmd.Context(), &cfg.Archive)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("archive is disabled; set archive.backend")
			}
			defer store.Close()

			messages, err := archive.NewRecorder(store).History(cmd.Context())
			if err != nil {
				return err
			}
			messages = filterHistory(messages, agent, thread)

			if root.json {
				return writeJSON(cmd.OutOrStdout(), messages)
			}
			renderMessages(cmd.OutOrStdout(), messages)
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "Only messages sent by or delivered to this agent")
	cmd.Flags().StringVar(&thread, "thread", "", "Only messages in this thread")

	return cmd
}

func filterHistory(messages []*messaging.Message, agent, thread string) []*messaging.Message {
	filtered := messages[:0:0]
	for _, msg := range messages {
		if thread != "" && msg.ThreadID != thread {
			continue
		}
		if agent != "" && msg.From != agent && msg.To != agent && !msg.IsBroadcast() {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered
}
