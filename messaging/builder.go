package messaging

import "time"

type MessageBuilder struct {
	message *Message
}

func NewMessage(from, to string, kind Kind, content Content) *MessageBuilder {
	return &MessageBuilder{
		message: &Message{
			ID:        NewID(),
			From:      from,
			To:        to,
			Kind:      kind,
			Content:   content,
			Timestamp: time.Now(),
			Priority:  PriorityNormal,
		},
	}
}

func NewBroadcast(from string, kind Kind, content Content) *MessageBuilder {
	return NewMessage(from, "", kind, content)
}

// NewReply addresses a message back to the sender of parent, in parent's
// thread, inheriting its kind and priority.
func NewReply(from string, parent *Message, content Content) *MessageBuilder {
	return NewMessage(from, parent.From, parent.Kind, content).
		Thread(parent.ThreadID).
		Priority(parent.Priority).
		ReplyTo(parent.ID)
}

func (mb *MessageBuilder) Subject(subject string) *MessageBuilder {
	mb.message.Subject = subject
	return mb
}

func (mb *MessageBuilder) Thread(threadID string) *MessageBuilder {
	mb.message.ThreadID = threadID
	return mb
}

func (mb *MessageBuilder) ReplyTo(parentID string) *MessageBuilder {
	mb.message.ReplyTo = parentID
	return mb
}

func (mb *MessageBuilder) Priority(priority Priority) *MessageBuilder {
	mb.message.Priority = priority
	return mb
}

func (mb *MessageBuilder) Kind(kind Kind) *MessageBuilder {
	mb.message.Kind = kind
	return mb
}

func (mb *MessageBuilder) Build() *Message {
	return mb.message
}
