package messaging

import (
	"encoding/json"
	"fmt"
)

// Content is the payload carried by a message. Every variant can be flattened
// to a JSON-compatible field map.
type Content interface {
	Fields() map[string]any
}

// Structured is implemented by the typed content variants. Kind reports the
// message kind the variant belongs to.
type Structured interface {
	Content
	Kind() Kind
}

// Payload is the free-form content variant. It accepts any JSON-compatible
// key-value data and is valid for every kind.
type Payload map[string]any

func (p Payload) Fields() map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}

type StatusUpdate struct {
	Status   string         `json:"status,omitempty"`
	Task     string         `json:"task,omitempty"`
	Progress float64        `json:"progress,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

func (StatusUpdate) Kind() Kind { return KindStatusUpdate }

func (c StatusUpdate) Fields() map[string]any { return toFields(c) }

type TaskAssignment struct {
	Task         string         `json:"task,omitempty"`
	Description  string         `json:"description,omitempty"`
	Deadline     string         `json:"deadline,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

func (TaskAssignment) Kind() Kind { return KindTaskAssignment }

func (c TaskAssignment) Fields() map[string]any { return toFields(c) }

type KnowledgeShare struct {
	Topic    string         `json:"topic,omitempty"`
	Summary  string         `json:"summary,omitempty"`
	Insights []string       `json:"insights,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

func (KnowledgeShare) Kind() Kind { return KindKnowledgeShare }

func (c KnowledgeShare) Fields() map[string]any { return toFields(c) }

type CollaborationRequest struct {
	Topic   string         `json:"topic,omitempty"`
	Request string         `json:"request,omitempty"`
	Needs   []string       `json:"needs,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func (CollaborationRequest) Kind() Kind { return KindCollaborationRequest }

func (c CollaborationRequest) Fields() map[string]any { return toFields(c) }

type HelpRequest struct {
	Issue    string         `json:"issue,omitempty"`
	Blockers []string       `json:"blockers,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

func (HelpRequest) Kind() Kind { return KindHelpRequest }

func (c HelpRequest) Fields() map[string]any { return toFields(c) }

type ResultNotification struct {
	Task         string         `json:"task,omitempty"`
	Outcome      string         `json:"outcome,omitempty"`
	Deliverables []string       `json:"deliverables,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

func (ResultNotification) Kind() Kind { return KindResultNotification }

func (c ResultNotification) Fields() map[string]any { return toFields(c) }

type SystemAlert struct {
	Alert   string         `json:"alert,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func (SystemAlert) Kind() Kind { return KindSystemAlert }

func (c SystemAlert) Fields() map[string]any { return toFields(c) }

type ErrorReport struct {
	Error     string         `json:"error,omitempty"`
	Component string         `json:"component,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func (ErrorReport) Kind() Kind { return KindErrorReport }

func (c ErrorReport) Fields() map[string]any { return toFields(c) }

// DecodeContent rebuilds the typed variant for kind from a field map.
func DecodeContent(kind Kind, fields map[string]any) (Structured, error) {
	var target Structured
	var err error

	switch kind {
	case KindStatusUpdate:
		var c StatusUpdate
		err = fromFields(fields, &c)
		target = c
	case KindTaskAssignment:
		var c TaskAssignment
		err = fromFields(fields, &c)
		target = c
	case KindKnowledgeShare:
		var c KnowledgeShare
		err = fromFields(fields, &c)
		target = c
	case KindCollaborationRequest:
		var c CollaborationRequest
		err = fromFields(fields, &c)
		target = c
	case KindHelpRequest:
		var c HelpRequest
		err = fromFields(fields, &c)
		target = c
	case KindResultNotification:
		var c ResultNotification
		err = fromFields(fields, &c)
		target = c
	case KindSystemAlert:
		var c SystemAlert
		err = fromFields(fields, &c)
		target = c
	case KindErrorReport:
		var c ErrorReport
		err = fromFields(fields, &c)
		target = c
	default:
		return nil, fmt.Errorf("unknown message kind: %q", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s content: %w", kind, err)
	}
	return target, nil
}

// CloneContent returns a deep copy of c. Nil content clones to nil.
func CloneContent(c Content) Content {
	switch v := c.(type) {
	case nil:
		return nil
	case Payload:
		if v == nil {
			return Payload(nil)
		}
		return Payload(cloneMap(v))
	case StatusUpdate:
		v.Details = cloneMap(v.Details)
		return v
	case TaskAssignment:
		v.Dependencies = cloneStrings(v.Dependencies)
		v.Details = cloneMap(v.Details)
		return v
	case KnowledgeShare:
		v.Insights = cloneStrings(v.Insights)
		v.Details = cloneMap(v.Details)
		return v
	case CollaborationRequest:
		v.Needs = cloneStrings(v.Needs)
		v.Details = cloneMap(v.Details)
		return v
	case HelpRequest:
		v.Blockers = cloneStrings(v.Blockers)
		v.Details = cloneMap(v.Details)
		return v
	case ResultNotification:
		v.Deliverables = cloneStrings(v.Deliverables)
		v.Details = cloneMap(v.Details)
		return v
	case SystemAlert:
		v.Details = cloneMap(v.Details)
		return v
	case ErrorReport:
		v.Details = cloneMap(v.Details)
		return v
	default:
		return Payload(cloneMap(c.Fields()))
	}
}

// EncodeFields flattens c like Fields but reports content that has no JSON
// form, such as a non-finite float, instead of returning an empty map. Nil
// content encodes to nil.
func EncodeFields(c Content) (map[string]any, error) {
	switch v := c.(type) {
	case nil:
		return nil, nil
	case Structured:
		return encodeFields(v)
	default:
		fields := c.Fields()
		if _, err := json.Marshal(fields); err != nil {
			return nil, fmt.Errorf("encode content: %w", err)
		}
		return fields, nil
	}
}

func encodeFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	return fields, nil
}

func toFields(v any) map[string]any {
	fields, err := encodeFields(v)
	if err != nil {
		return map[string]any{}
	}
	return fields
}

func fromFields(fields map[string]any, target any) error {
	if len(fields) == 0 {
		return nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	clone := make(map[string]any, len(m))
	for k, v := range m {
		clone[k] = cloneValue(v)
	}
	return clone
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return cloneStrings(val)
	default:
		return val
	}
}
