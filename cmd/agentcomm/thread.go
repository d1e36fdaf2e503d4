package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/agentcomm/transport"
)

func newThreadCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thread",
		Short: "Create, join and inspect threads",
	}

	cmd.AddCommand(
		newThreadCreateCommand(root),
		newThreadJoinCommand(root),
		newThreadShowCommand(root),
	)

	return cmd
}

func newThreadCreateCommand(root *rootOptions) *cobra.Command {
	var (
		req         transport.CreateThreadRequest
		contextJSON string
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Open a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = args[0]
			if contextJSON != "" {
				if err := json.Unmarshal([]byte(contextJSON), &req.Context); err != nil {
					return fmt.Errorf("context must be a JSON object: %w", err)
				}
			}

			id, err := root.client().CreateThread(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd, root, map[string]string{"id": id}, "created thread "+id)
		},
	}

	cmd.Flags().StringVar(&req.ID, "id", "", "Thread id (generated when empty)")
	cmd.Flags().StringSliceVar(&req.Participants, "participant", nil, "Participant agent id (repeatable)")
	cmd.Flags().StringVar(&req.CreatedBy, "created-by", "", "Creating agent id")
	cmd.Flags().StringVar(&contextJSON, "context", "", "Thread context as a JSON object")

	return cmd
}

func newThreadJoinCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "join <thread-id> <agent-id>...",
		Short: "Add participants to a thread",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := root.client().JoinThread(cmd.Context(), args[0], args[1:]...); err != nil {
				return err
			}
			return printResult(cmd, root, map[string]any{"thread": args[0], "joined": args[1:]},
				fmt.Sprintf("joined %d agent(s) to %s", len(args)-1, args[0]))
		},
	}
}

func newThreadShowCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <thread-id>",
		Short: "Show a thread and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thread, messages, err := root.client().GetThread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if root.json {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"thread": thread, "messages": messages})
			}
			renderThread(cmd.OutOrStdout(), thread)
			renderMessages(cmd.OutOrStdout(), messages)
			return nil
		},
	}
}
