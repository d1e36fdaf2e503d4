package archive

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/tailored-agentic-units/agentcomm/messaging"
)

// Key namespaces for archived documents.
const (
	NamespaceMessages = "messages"
	NamespaceThreads  = "threads"
)

func MessageKey(id string) string {
	return path.Join(NamespaceMessages, id+".json")
}

func ThreadKey(id string) string {
	return path.Join(NamespaceThreads, id+".json")
}

// Recorder writes hub traffic to a Store. Thread documents are overwritten
// with each membership change, so the archive holds the latest snapshot.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) RecordMessage(ctx context.Context, msg *messaging.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", msg.ID, err)
	}
	return r.store.Save(ctx, Entry{Key: MessageKey(msg.ID), Value: data})
}

func (r *Recorder) RecordThread(ctx context.Context, thread messaging.Thread) error {
	data, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", thread.ID, err)
	}
	return r.store.Save(ctx, Entry{Key: ThreadKey(thread.ID), Value: data})
}

// Message loads one archived message.
func (r *Recorder) Message(ctx context.Context, id string) (*messaging.Message, error) {
	entries, err := r.store.Load(ctx, MessageKey(id))
	if err != nil {
		return nil, err
	}
	return decodeMessage(entries[0])
}

// History returns every archived message ordered by timestamp.
func (r *Recorder) History(ctx context.Context) ([]*messaging.Message, error) {
	entries, err := r.loadNamespace(ctx, NamespaceMessages)
	if err != nil {
		return nil, err
	}

	messages := make([]*messaging.Message, 0, len(entries))
	for _, entry := range entries {
		msg, err := decodeMessage(entry)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	slices.SortStableFunc(messages, func(a, b *messaging.Message) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return messages, nil
}

// Threads returns every archived thread ordered by creation time.
func (r *Recorder) Threads(ctx context.Context) ([]messaging.Thread, error) {
	entries, err := r.loadNamespace(ctx, NamespaceThreads)
	if err != nil {
		return nil, err
	}

	threads := make([]messaging.Thread, 0, len(entries))
	for _, entry := range entries {
		var thread messaging.Thread
		if err := json.Unmarshal(entry.Value, &thread); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, entry.Key, err)
		}
		threads = append(threads, thread)
	}

	slices.SortStableFunc(threads, func(a, b messaging.Thread) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return threads, nil
}

func (r *Recorder) loadNamespace(ctx context.Context, namespace string) ([]Entry, error) {
	keys, err := r.store.List(ctx, namespace+"/")
	if err != nil {
		return nil, err
	}
	return r.store.Load(ctx, keys...)
}

func decodeMessage(entry Entry) (*messaging.Message, error) {
	var msg messaging.Message
	if err := json.Unmarshal(entry.Value, &msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, entry.Key, err)
	}
	return &msg, nil
}
