package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/agentcomm/messaging"
	"github.com/tailored-agentic-units/agentcomm/transport"
)

func (o *rootOptions) client() *transport.Client {
	return transport.NewClient(nil, o.serverURL)
}

// messageFlags are shared by send, broadcast and reply.
type messageFlags struct {
	kind       string
	priority   string
	subject    string
	thread     string
	content    string
	structured bool
}

func (f *messageFlags) register(cmd *cobra.Command, withThread bool) {
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "", "Message kind")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "normal, high or urgent")
	cmd.Flags().StringVar(&f.subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&f.content, "content", "", "Content as a JSON object")
	cmd.Flags().BoolVar(&f.structured, "structured", false, "Decode content as the kind's typed variant")
	if withThread {
		cmd.Flags().StringVarP(&f.thread, "thread", "t", "", "Send within this thread")
	}
}

func (f *messageFlags) parseContent(kind messaging.Kind) (messaging.Content, error) {
	fields := map[string]any{}
	if f.content != "" {
		if err := json.Unmarshal([]byte(f.content), &fields); err != nil {
			return nil, fmt.Errorf("content must be a JSON object: %w", err)
		}
	}

	if f.structured {
		return messaging.DecodeContent(kind, fields)
	}
	return messaging.Payload(fields), nil
}

func (f *messageFlags) draft(from, to string) (*messaging.Message, error) {
	kind := messaging.Kind(f.kind)
	if kind == "" {
		kind = messaging.KindStatusUpdate
	}

	priority, err := messaging.ParsePriority(f.priority)
	if err != nil {
		return nil, err
	}

	content, err := f.parseContent(kind)
	if err != nil {
		return nil, err
	}

	return messaging.NewMessage(from, to, kind, content).
		Subject(f.subject).
		Thread(f.thread).
		Priority(priority).
		Build(), nil
}

func newRegisterCommand(root *rootOptions) *cobra.Command {
	var (
		agentType    string
		capabilities []string
	)

	cmd := &cobra.Command{
		Use:   "register <agent-id>",
		Short: "Register an agent with the hub",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent := messaging.Agent{ID: args[0], Type: agentType, Capabilities: capabilities}
			if err := root.client().Register(cmd.Context(), agent); err != nil {
				return err
			}
			return printResult(cmd, root, map[string]string{"agent": args[0]}, "registered "+args[0])
		},
	}

	cmd.Flags().StringVar(&agentType, "type", "", "Agent type")
	cmd.Flags().StringSliceVar(&capabilities, "capability", nil, "Agent capability (repeatable)")

	return cmd
}

func newUnregisterCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <agent-id>",
		Short: "Remove an agent and its inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := root.client().Unregister(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printResult(cmd, root, map[string]string{"agent": args[0]}, "unregistered "+args[0])
		},
	}
}

func newSendCommand(root *rootOptions) *cobra.Command {
	flags := &messageFlags{}

	cmd := &cobra.Command{
		Use:   "send <from> <to>",
		Short: "Send a message to one agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendDraft(cmd, root, flags, args[0], args[1])
		},
	}
	flags.register(cmd, true)

	return cmd
}

func newBroadcastCommand(root *rootOptions) *cobra.Command {
	flags := &messageFlags{}

	cmd := &cobra.Command{
		Use:   "broadcast <from>",
		Short: "Send a message to every registered agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendDraft(cmd, root, flags, args[0], "")
		},
	}
	flags.register(cmd, true)

	return cmd
}

func sendDraft(cmd *cobra.Command, root *rootOptions, flags *messageFlags, from, to string) error {
	draft, err := flags.draft(from, to)
	if err != nil {
		return err
	}

	id, err := root.client().Send(cmd.Context(), draft)
	if err != nil {
		return err
	}
	return printResult(cmd, root, map[string]string{"id": id}, "sent "+id)
}

func newReplyCommand(root *rootOptions) *cobra.Command {
	flags := &messageFlags{}

	cmd := &cobra.Command{
		Use:   "reply <from> <parent-id>",
		Short: "Reply to a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := transport.ReplyRequest{
				From:     args[0],
				ParentID: args[1],
				Subject:  flags.subject,
				Kind:     messaging.Kind(flags.kind),
			}

			if flags.priority != "" {
				priority, err := messaging.ParsePriority(flags.priority)
				if err != nil {
					return err
				}
				req.Priority = &priority
			}

			if flags.structured && req.Kind == "" {
				return fmt.Errorf("--structured replies need --kind")
			}
			content, err := flags.parseContent(req.Kind)
			if err != nil {
				return err
			}
			req.Content = content

			id, err := root.client().Reply(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd, root, map[string]string{"id": id}, "replied "+id)
		},
	}
	flags.register(cmd, false)

	return cmd
}

func newInboxCommand(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inbox <agent-id>",
		Short: "Show the newest messages in an agent's inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := root.client().GetMessages(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if root.json {
				return writeJSON(cmd.OutOrStdout(), messages)
			}
			renderMessages(cmd.OutOrStdout(), messages)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Newest messages to show; 0 for all")

	return cmd
}

func newWatchCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <agent-id>",
		Short: "Stream deliveries to an agent until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return root.client().Stream(ctx, args[0], func(msg *messaging.Message) error {
				if root.json {
					return writeJSON(cmd.OutOrStdout(), msg)
				}
				renderMessages(cmd.OutOrStdout(), []*messaging.Message{msg})
				return nil
			})
		},
	}
}

func newStatsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show hub communication statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := root.client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if root.json {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func printResult(cmd *cobra.Command, root *rootOptions, v any, text string) error {
	if root.json {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(text))
	return nil
}
