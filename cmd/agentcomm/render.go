package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tailored-agentic-units/agentcomm/hub"
	"github.com/tailored-agentic-units/agentcomm/messaging"
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	priorityStyle = map[messaging.Priority]lipgloss.Style{
		messaging.PriorityNormal: lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
		messaging.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		messaging.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderMessages(w io.Writer, messages []*messaging.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, detailStyle.Render("no messages"))
		return
	}

	for _, msg := range messages {
		to := msg.To
		if msg.IsBroadcast() {
			to = "*"
		}

		header := fmt.Sprintf("%s → %s  [%s]", msg.From, to, msg.Kind)
		fmt.Fprintf(w, "%s %s %s\n",
			headerStyle.Render(header),
			priorityStyle[msg.Priority].Render(msg.Priority.String()),
			idStyle.Render(msg.ID))

		var details []string
		if msg.Subject != "" {
			details = append(details, "subject: "+msg.Subject)
		}
		if msg.ThreadID != "" {
			details = append(details, "thread: "+msg.ThreadID)
		}
		if msg.ReplyTo != "" {
			details = append(details, "reply to: "+msg.ReplyTo)
		}
		details = append(details, msg.Timestamp.Format(time.RFC3339))
		fmt.Fprintln(w, "  "+detailStyle.Render(strings.Join(details, "  ")))

		if msg.Content != nil {
			if data, err := json.Marshal(msg.Content.Fields()); err == nil {
				fmt.Fprintln(w, "  "+string(data))
			}
		}
	}
}

func renderThread(w io.Writer, thread messaging.Thread) {
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(thread.Title), idStyle.Render(thread.ID))
	fmt.Fprintln(w, "  "+detailStyle.Render("participants: "+strings.Join(thread.Participants, ", ")))
	if thread.CreatedBy != "" {
		fmt.Fprintln(w, "  "+detailStyle.Render("created by: "+thread.CreatedBy))
	}
}

func renderStats(w io.Writer, stats hub.CommunicationStats) {
	row := func(label string, value any) {
		fmt.Fprintf(w, "  %-16s %v\n", label, value)
	}

	fmt.Fprintln(w, headerStyle.Render("Messages"))
	row("total", stats.Messages.Total)
	for _, kind := range slices.Sorted(maps.Keys(stats.Messages.ByKind)) {
		row(string(kind), stats.Messages.ByKind[kind])
	}
	for _, priority := range slices.Sorted(maps.Keys(stats.Messages.ByPriority)) {
		row(priority.String(), stats.Messages.ByPriority[priority])
	}

	fmt.Fprintln(w, headerStyle.Render("Senders"))
	for _, sender := range slices.Sorted(maps.Keys(stats.Messages.BySender)) {
		row(sender, stats.Messages.BySender[sender])
	}

	fmt.Fprintln(w, headerStyle.Render("Hub"))
	row("agents", stats.Agents)
	row("threads", stats.Threads.Total)
	row("participants", stats.Threads.Participants)
	row("subscriptions", stats.Subscriptions)
	row("deliveries", stats.Deliveries)
	row("handler errors", stats.HandlerErrors)
	row("avg latency", stats.AverageLatency)
}
