package messaging

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind categorizes a message by its coordination purpose.
type Kind string

const (
	KindStatusUpdate         Kind = "status_update"
	KindTaskAssignment       Kind = "task_assignment"
	KindKnowledgeShare       Kind = "knowledge_share"
	KindCollaborationRequest Kind = "collaboration_request"
	KindHelpRequest          Kind = "help_request"
	KindResultNotification   Kind = "result_notification"
	KindSystemAlert          Kind = "system_alert"
	KindErrorReport          Kind = "error_report"
)

// Kinds lists every message kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindStatusUpdate,
		KindTaskAssignment,
		KindKnowledgeShare,
		KindCollaborationRequest,
		KindHelpRequest,
		KindResultNotification,
		KindSystemAlert,
		KindErrorReport,
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindStatusUpdate,
		KindTaskAssignment,
		KindKnowledgeShare,
		KindCollaborationRequest,
		KindHelpRequest,
		KindResultNotification,
		KindSystemAlert,
		KindErrorReport:
		return true
	}
	return false
}

type Message struct {
	ID        string
	From      string
	To        string
	Kind      Kind
	Priority  Priority
	Content   Content
	Subject   string
	ThreadID  string
	ReplyTo   string
	Timestamp time.Time
}

func (msg *Message) IsBroadcast() bool {
	return msg.To == ""
}

func (msg *Message) IsReply() bool {
	return msg.ReplyTo != ""
}

// Clone returns a copy of the message whose content can be modified without
// affecting the original.
func (msg *Message) Clone() *Message {
	clone := *msg
	clone.Content = CloneContent(msg.Content)
	return &clone
}

func (msg *Message) String() string {
	to := msg.To
	if to == "" {
		to = "*"
	}
	return fmt.Sprintf(
		"Message{ID: %s, From: %s, To: %s, Kind: %s, Priority: %s, Thread: %s}",
		msg.ID,
		msg.From,
		to,
		msg.Kind,
		msg.Priority,
		msg.ThreadID,
	)
}

// NewID returns a time-sortable unique identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
