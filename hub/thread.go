package hub

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/tailored-agentic-units/agentcomm/messaging"
	"github.com/tailored-agentic-units/agentcomm/observability"
)

// Thread ids end up in archive keys, so explicit ids are limited to a single
// path-safe segment.
var threadIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validThreadID(id string) bool {
	return threadIDPattern.MatchString(id) && id != "." && id != ".."
}

// CreateThread opens a thread with the given participants and returns its
// id. Participants need not be registered.
func (h *hub) CreateThread(ctx context.Context, title string, participants []string, threadContext map[string]any, opts ...ThreadOption) (string, error) {
	o := threadOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	id := o.id
	if id == "" {
		id = messaging.NewID()
	} else if !validThreadID(id) {
		return "", fmt.Errorf("%w: thread id %q", ErrInvalidArgument, id)
	}

	thread := messaging.Thread{
		ID:           id,
		Title:        title,
		Participants: mergeParticipants(nil, participants),
		Context:      threadContext,
		CreatedBy:    o.createdBy,
		CreatedAt:    time.Now(),
	}
	thread = thread.Clone()

	h.mu.Lock()
	if err := h.requireRunning(); err != nil {
		h.mu.Unlock()
		return "", err
	}

	if _, exists := h.threads[id]; exists {
		h.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrDuplicateThread, id)
	}

	if h.recorder != nil {
		if err := h.recorder.RecordThread(ctx, thread); err != nil {
			h.mu.Unlock()
			return "", fmt.Errorf("failed to record thread: %w", err)
		}
	}

	h.threadSeq++
	h.threads[id] = &threadState{thread: thread, seq: h.threadSeq}
	h.metrics.SetThreads(len(h.threads))
	h.mu.Unlock()

	h.emit(ctx, EventThreadCreate, observability.LevelInfo, "hub.CreateThread", map[string]any{
		"thread_id":    id,
		"participants": len(thread.Participants),
		"created_by":   thread.CreatedBy,
	})
	return id, nil
}

// JoinThread adds agentIDs to the thread's participants. Agents already
// participating are ignored.
func (h *hub) JoinThread(ctx context.Context, threadID string, agentIDs ...string) error {
	h.mu.Lock()
	if err := h.requireRunning(); err != nil {
		h.mu.Unlock()
		return err
	}

	ts, exists := h.threads[threadID]
	if !exists {
		h.mu.Unlock()
		return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}

	joined := ts.missing(agentIDs...)
	if len(joined) == 0 {
		h.mu.Unlock()
		return nil
	}

	updated := ts.thread.Clone()
	updated.Participants = mergeParticipants(updated.Participants, joined)

	if h.recorder != nil {
		if err := h.recorder.RecordThread(ctx, updated); err != nil {
			h.mu.Unlock()
			return fmt.Errorf("failed to record thread: %w", err)
		}
	}

	ts.thread.Participants = updated.Participants
	h.mu.Unlock()

	h.emit(ctx, EventThreadJoin, observability.LevelInfo, "hub.JoinThread", map[string]any{
		"thread_id": threadID,
		"joined":    joined,
	})
	return nil
}

func (h *hub) Thread(id string) (messaging.Thread, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ts, exists := h.threads[id]
	if !exists {
		return messaging.Thread{}, fmt.Errorf("%w: thread %s", ErrNotFound, id)
	}
	return ts.thread.Clone(), nil
}

// Threads returns every thread ordered by creation time.
func (h *hub) Threads() []messaging.Thread {
	h.mu.RLock()
	defer h.mu.RUnlock()

	states := make([]*threadState, 0, len(h.threads))
	for _, ts := range h.threads {
		states = append(states, ts)
	}
	slices.SortFunc(states, func(a, b *threadState) int {
		return cmp.Compare(a.seq, b.seq)
	})

	threads := make([]messaging.Thread, len(states))
	for i, ts := range states {
		threads[i] = ts.thread.Clone()
	}
	return threads
}

// ThreadMessages returns the thread's messages in send order.
func (h *hub) ThreadMessages(threadID string) ([]*messaging.Message, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ts, exists := h.threads[threadID]
	if !exists {
		return nil, fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	return cloneMessages(ts.messages), nil
}

// missing returns the non-empty ids not yet participating, deduplicated.
func (ts *threadState) missing(agentIDs ...string) []string {
	var out []string
	for _, id := range agentIDs {
		if id == "" || ts.thread.HasParticipant(id) || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// mergeParticipants returns the sorted union of current and add. current
// must already be sorted.
func mergeParticipants(current, add []string) []string {
	merged := append(make([]string, 0, len(current)+len(add)), current...)
	for _, id := range add {
		if id == "" {
			continue
		}
		if i, found := slices.BinarySearch(merged, id); !found {
			merged = slices.Insert(merged, i, id)
		}
	}
	return merged
}
