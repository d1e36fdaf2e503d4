package messaging

import (
	"slices"
	"time"
)

// Thread is a snapshot of a participant-scoped conversation.
type Thread struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Participants []string       `json:"participants"`
	Context      map[string]any `json:"context,omitempty"`
	CreatedBy    string         `json:"created_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (t Thread) HasParticipant(agentID string) bool {
	_, found := slices.BinarySearch(t.Participants, agentID)
	return found
}

func (t Thread) Clone() Thread {
	t.Participants = slices.Clone(t.Participants)
	t.Context = cloneMap(t.Context)
	return t
}

// Agent is the registration record of a participant. Capabilities are
// descriptive only.
type Agent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type,omitempty"`
	Capabilities []string  `json:"capabilities,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (a Agent) Clone() Agent {
	a.Capabilities = slices.Clone(a.Capabilities)
	return a
}
