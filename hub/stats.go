package hub

import (
	"maps"
	"time"

	"github.com/tailored-agentic-units/agentcomm/messaging"
)

// CommunicationStats aggregates hub activity since Start.
type CommunicationStats struct {
	Messages       MessageStats  `json:"messages"`
	Threads        ThreadStats   `json:"threads"`
	Agents         int           `json:"agents"`
	Subscriptions  int           `json:"subscriptions"`
	Deliveries     int64         `json:"deliveries"`
	HandlerErrors  int64         `json:"handler_errors"`
	AverageLatency time.Duration `json:"average_latency"`
}

type MessageStats struct {
	Total      int64                        `json:"total"`
	ByKind     map[messaging.Kind]int64     `json:"by_kind"`
	BySender   map[string]int64             `json:"by_sender"`
	ByPriority map[messaging.Priority]int64 `json:"by_priority"`
}

// ThreadStats counts threads and the distinct agents participating in any
// of them.
type ThreadStats struct {
	Total        int `json:"total"`
	Participants int `json:"participants"`
}

type messageCounts struct {
	total      int64
	byKind     map[messaging.Kind]int64
	bySender   map[string]int64
	byPriority map[messaging.Priority]int64
}

func newMessageCounts() messageCounts {
	return messageCounts{
		byKind:     make(map[messaging.Kind]int64),
		bySender:   make(map[string]int64),
		byPriority: make(map[messaging.Priority]int64),
	}
}

func (c *messageCounts) add(msg *messaging.Message) {
	c.total++
	c.byKind[msg.Kind]++
	c.bySender[msg.From]++
	c.byPriority[msg.Priority]++
}

// Stats is available in every lifecycle state.
func (h *hub) Stats() CommunicationStats {
	snapshot := h.metrics.Snapshot()

	h.mu.RLock()
	defer h.mu.RUnlock()

	participants := make(map[string]struct{})
	for _, ts := range h.threads {
		for _, id := range ts.thread.Participants {
			participants[id] = struct{}{}
		}
	}

	return CommunicationStats{
		Messages: MessageStats{
			Total:      h.counts.total,
			ByKind:     maps.Clone(h.counts.byKind),
			BySender:   maps.Clone(h.counts.bySender),
			ByPriority: maps.Clone(h.counts.byPriority),
		},
		Threads: ThreadStats{
			Total:        len(h.threads),
			Participants: len(participants),
		},
		Agents:         len(h.agents),
		Subscriptions:  h.subCount,
		Deliveries:     snapshot.Deliveries,
		HandlerErrors:  snapshot.HandlerErrors,
		AverageLatency: snapshot.AverageLatency,
	}
}
