package transport

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/agentcomm/messaging"
)

type registerRequest struct {
	Agent messaging.Agent `json:"agent"`
}

type agentRequest struct {
	AgentID string `json:"agent_id"`
}

// sendRequest carries a draft message. Its id and timestamp are ignored;
// the hub assigns fresh ones.
type sendRequest struct {
	Message *messaging.Message `json:"message"`
}

// ReplyRequest answers ParentID. Kind and Priority override the values
// inherited from the parent when set.
type ReplyRequest struct {
	From     string
	ParentID string
	Subject  string
	Kind     messaging.Kind
	Priority *messaging.Priority
	Content  messaging.Content
}

type wireReply struct {
	From          string              `json:"from"`
	ParentID      string              `json:"parent_id"`
	Subject       string              `json:"subject,omitempty"`
	Kind          messaging.Kind      `json:"kind,omitempty"`
	Priority      *messaging.Priority `json:"priority,omitempty"`
	ContentFormat string              `json:"content_format,omitempty"`
	Content       map[string]any      `json:"content,omitempty"`
}

func (r ReplyRequest) MarshalJSON() ([]byte, error) {
	wire := wireReply{
		From:     r.From,
		ParentID: r.ParentID,
		Subject:  r.Subject,
		Kind:     r.Kind,
		Priority: r.Priority,
	}
	if r.Content != nil {
		fields, err := messaging.EncodeFields(r.Content)
		if err != nil {
			return nil, err
		}
		wire.ContentFormat = messaging.ContentFormat(r.Content)
		wire.Content = fields
	}
	return json.Marshal(wire)
}

// CreateThreadRequest describes a new thread. An empty ID lets the hub
// generate one.
type CreateThreadRequest struct {
	ID           string         `json:"id,omitempty"`
	Title        string         `json:"title"`
	Participants []string       `json:"participants,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
	CreatedBy    string         `json:"created_by,omitempty"`
}

type joinThreadRequest struct {
	ThreadID string   `json:"thread_id"`
	AgentIDs []string `json:"agent_ids"`
}

type getMessagesRequest struct {
	AgentID string `json:"agent_id"`
	Limit   int    `json:"limit,omitempty"`
}

type threadRequest struct {
	ThreadID string `json:"thread_id"`
}

type idResponse struct {
	ID string `json:"id"`
}

type messagesResponse struct {
	Messages []*messaging.Message `json:"messages"`
}

type threadResponse struct {
	Thread   messaging.Thread     `json:"thread"`
	Messages []*messaging.Message `json:"messages"`
}

type empty struct{}

// encode converts v to a Struct through its JSON form.
func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("body must encode as a JSON object: %w", err)
	}
	return structpb.NewStruct(fields)
}

// decode fills v from s through its JSON form.
func decode(s *structpb.Struct, v any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
