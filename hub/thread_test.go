package hub_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/agentcomm/hub"
	"github.com/tailored-agentic-units/agentcomm/messaging"
)

func TestHub_ThreadBroadcastScenario(t *testing.T) {
	h := startTestHub(t, []string{"A", "B", "C"})
	ctx := context.Background()

	threadID, err := h.CreateThread(ctx, "T", []string{"A", "B"}, nil, hub.WithThreadID("T1"))
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}
	if threadID != "T1" {
		t.Fatalf("CreateThread() = %q, want T1", threadID)
	}

	id, err := h.Send(ctx, "A", "", messaging.KindKnowledgeShare, messaging.KnowledgeShare{Topic: "patterns"},
		hub.InThread("T1"))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	for _, agent := range []string{"A", "B", "C"} {
		inbox, err := h.GetMessages(agent, 10)
		if err != nil {
			t.Fatalf("GetMessages(%s) error = %v", agent, err)
		}
		if len(inbox) != 1 || inbox[0].ID != id || inbox[0].ThreadID != "T1" {
			t.Errorf("GetMessages(%s) = %v, want thread message %s", agent, messageIDs(inbox), id)
		}
	}

	messages, err := h.ThreadMessages("T1")
	if err != nil {
		t.Fatalf("ThreadMessages() error = %v", err)
	}
	if diff := cmp.Diff([]string{id}, messageIDs(messages)); diff != "" {
		t.Errorf("ThreadMessages() mismatch (-want +got):\n%s", diff)
	}
}

func TestHub_CreateThread(t *testing.T) {
	h := startTestHub(t, nil)
	ctx := context.Background()

	id, err := h.CreateThread(ctx, "design", []string{"C", "A", "B", "A", ""},
		map[string]any{"phase": 2}, hub.CreatedBy("coordinator"))
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}
	if id == "" {
		t.Fatal("CreateThread() returned empty id")
	}

	thread, err := h.Thread(id)
	if err != nil {
		t.Fatalf("Thread() error = %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, thread.Participants); diff != "" {
		t.Errorf("Participants mismatch (-want +got):\n%s", diff)
	}
	if thread.Title != "design" || thread.CreatedBy != "coordinator" {
		t.Errorf("Thread = %+v, want title design created by coordinator", thread)
	}
	if thread.Context["phase"] != 2 {
		t.Errorf("Context = %v, want phase 2", thread.Context)
	}
	if thread.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestHub_CreateThread_Duplicate(t *testing.T) {
	h := startTestHub(t, nil)
	ctx := context.Background()

	if _, err := h.CreateThread(ctx, "first", nil, nil, hub.WithThreadID("T1")); err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}
	_, err := h.CreateThread(ctx, "second", nil, nil, hub.WithThreadID("T1"))
	if !errors.Is(err, hub.ErrDuplicateThread) {
		t.Errorf("CreateThread() error = %v, want ErrDuplicateThread", err)
	}

	thread, _ := h.Thread("T1")
	if thread.Title != "first" {
		t.Errorf("Title = %q, want first", thread.Title)
	}
}

func TestHub_CreateThread_GeneratedIDsUnique(t *testing.T) {
	h := startTestHub(t, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := h.CreateThread(context.Background(), "t", nil, nil)
		if err != nil {
			t.Fatalf("CreateThread() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate generated thread id %s", id)
		}
		seen[id] = true
	}

	if got := len(h.Threads()); got != 50 {
		t.Errorf("Threads() = %d, want 50", got)
	}
}

func TestHub_ParticipantsOnlyGrow(t *testing.T) {
	h := startTestHub(t, []string{"A", "B", "C", "D"})
	ctx := context.Background()

	id, err := h.CreateThread(ctx, "T", []string{"A", "B"}, nil)
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	steps := []struct {
		name string
		do   func() error
		want []string
	}{
		{
			name: "join new agent",
			do:   func() error { return h.JoinThread(ctx, id, "C") },
			want: []string{"A", "B", "C"},
		},
		{
			name: "join existing is a no-op",
			do:   func() error { return h.JoinThread(ctx, id, "A", "C") },
			want: []string{"A", "B", "C"},
		},
		{
			name: "send in thread adds recipient",
			do: func() error {
				_, err := h.Send(ctx, "A", "D", messaging.KindStatusUpdate, nil, hub.InThread(id))
				return err
			},
			want: []string{"A", "B", "C", "D"},
		},
		{
			name: "send from outsider adds sender",
			do: func() error {
				_, err := h.Broadcast(ctx, "E", messaging.KindSystemAlert, nil, hub.InThread(id))
				return err
			},
			want: []string{"A", "B", "C", "D", "E"},
		},
	}

	previous := []string{"A", "B"}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			if err := step.do(); err != nil {
				t.Fatalf("error = %v", err)
			}
			thread, err := h.Thread(id)
			if err != nil {
				t.Fatalf("Thread() error = %v", err)
			}
			if diff := cmp.Diff(step.want, thread.Participants); diff != "" {
				t.Errorf("Participants mismatch (-want +got):\n%s", diff)
			}
			for _, p := range previous {
				if !thread.HasParticipant(p) {
					t.Errorf("participant %s was dropped", p)
				}
			}
			previous = thread.Participants
		})
	}
}

func TestHub_JoinThread_NotFound(t *testing.T) {
	h := startTestHub(t, nil)

	if err := h.JoinThread(context.Background(), "missing", "A"); !errors.Is(err, hub.ErrNotFound) {
		t.Errorf("JoinThread() error = %v, want ErrNotFound", err)
	}
	if _, err := h.Thread("missing"); !errors.Is(err, hub.ErrNotFound) {
		t.Errorf("Thread() error = %v, want ErrNotFound", err)
	}
	if _, err := h.ThreadMessages("missing"); !errors.Is(err, hub.ErrNotFound) {
		t.Errorf("ThreadMessages() error = %v, want ErrNotFound", err)
	}
}

func TestHub_Threads_CreationOrder(t *testing.T) {
	h := startTestHub(t, nil)
	ctx := context.Background()

	var want []string
	for _, id := range []string{"z", "m", "a"} {
		if _, err := h.CreateThread(ctx, id, nil, nil, hub.WithThreadID(id)); err != nil {
			t.Fatalf("CreateThread() error = %v", err)
		}
		want = append(want, id)
	}

	var got []string
	for _, thread := range h.Threads() {
		got = append(got, thread.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Threads() order mismatch (-want +got):\n%s", diff)
	}
}

func TestHub_CreateThread_InvalidID(t *testing.T) {
	recorder := &fakeRecorder{}
	h := startTestHub(t, []string{"A"}, hub.WithRecorder(recorder))
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
	}{
		{"parent traversal", "../../escaped"},
		{"slash", "threads/t1"},
		{"backslash", `threads\t1`},
		{"dot", "."},
		{"dot dot", ".."},
		{"space", "my thread"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.CreateThread(ctx, "T", []string{"A"}, nil, hub.WithThreadID(tt.id))
			if !errors.Is(err, hub.ErrInvalidArgument) {
				t.Errorf("CreateThread(%q) error = %v, want ErrInvalidArgument", tt.id, err)
			}
		})
	}

	if _, threads := recorder.counts(); threads != 0 {
		t.Errorf("recorded %d threads, want 0", threads)
	}
	if got := len(h.Threads()); got != 0 {
		t.Errorf("Threads() = %d, want 0", got)
	}

	id, err := h.CreateThread(ctx, "T", []string{"A"}, nil, hub.WithThreadID("canvas-v1.2_final"))
	if err != nil {
		t.Fatalf("CreateThread(valid) error = %v", err)
	}
	if id != "canvas-v1.2_final" {
		t.Errorf("CreateThread() id = %v, want canvas-v1.2_final", id)
	}
}
