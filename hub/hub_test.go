package hub_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/agentcomm/config"
	"github.com/tailored-agentic-units/agentcomm/hub"
	"github.com/tailored-agentic-units/agentcomm/messaging"
)

func TestNew_UnknownObserver(t *testing.T) {
	cfg := config.DefaultHubConfig()
	cfg.Observer = "nonexistent"

	if _, err := hub.New(cfg); err == nil {
		t.Error("New() should fail for an unknown observer")
	}
}

func TestHub_SendBeforeStart(t *testing.T) {
	h := createTestHub(t)

	_, err := h.Send(context.Background(), "A", "B", messaging.KindStatusUpdate, messaging.Payload{"x": 1})
	if !errors.Is(err, hub.ErrInvalidState) {
		t.Errorf("Send() before Start error = %v, want ErrInvalidState", err)
	}
}

func TestHub_Lifecycle(t *testing.T) {
	h := createTestHub(t)
	ctx := context.Background()

	if h.State() != hub.StateCreated {
		t.Fatalf("State() = %v, want created", h.State())
	}
	if err := h.Stop(time.Second); !errors.Is(err, hub.ErrInvalidState) {
		t.Errorf("Stop() before Start error = %v, want ErrInvalidState", err)
	}

	if err := h.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := h.Start(ctx); !errors.Is(err, hub.ErrInvalidState) {
		t.Errorf("second Start() error = %v, want ErrInvalidState", err)
	}
	if err := h.RegisterAgent(ctx, messaging.Agent{ID: "A"}); err != nil {
		t.Fatalf("RegisterAgent() error = %v", err)
	}
	if _, err := h.Send(ctx, "A", "A", messaging.KindStatusUpdate, nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if err := h.Stop(time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if h.State() != hub.StateStopped {
		t.Errorf("State() = %v, want stopped", h.State())
	}
	if err := h.Start(ctx); !errors.Is(err, hub.ErrInvalidState) {
		t.Errorf("Start() after Stop error = %v, want ErrInvalidState", err)
	}

	if got := h.Stats().Messages.Total; got != 1 {
		t.Errorf("Stats() after Stop total = %d, want 1", got)
	}
	if got := len(h.Agents()); got != 1 {
		t.Errorf("Agents() after Stop = %d, want 1", got)
	}
}

func TestHub_OperationsRequireRunning(t *testing.T) {
	h := startTestHub(t, []string{"A", "B"})
	ctx := context.Background()

	parentID, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := h.Stop(time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	ops := map[string]func() error{
		"RegisterAgent":   func() error { return h.RegisterAgent(ctx, messaging.Agent{ID: "C"}) },
		"UnregisterAgent": func() error { return h.UnregisterAgent(ctx, "A") },
		"Send": func() error {
			_, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, nil)
			return err
		},
		"Broadcast": func() error {
			_, err := h.Broadcast(ctx, "A", messaging.KindSystemAlert, nil)
			return err
		},
		"Reply": func() error {
			_, err := h.Reply(ctx, "B", parentID, nil)
			return err
		},
		"CreateThread": func() error {
			_, err := h.CreateThread(ctx, "T", nil, nil)
			return err
		},
		"GetMessages": func() error {
			_, err := h.GetMessages("B", 10)
			return err
		},
		"Subscribe": func() error {
			_, err := h.Subscribe("B", func(context.Context, *messaging.Message) error { return nil })
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, hub.ErrInvalidState) {
				t.Errorf("%s() after Stop error = %v, want ErrInvalidState", name, err)
			}
		})
	}

	if _, err := h.Message(parentID); err != nil {
		t.Errorf("Message() after Stop error = %v", err)
	}
}

func TestHub_SendDirect(t *testing.T) {
	h := startTestHub(t, []string{"A", "B", "C"})

	id, err := h.Send(context.Background(), "A", "B", messaging.KindStatusUpdate, messaging.Payload{"x": 1})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	inbox, err := h.GetMessages("B", 10)
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("GetMessages(B) returned %d messages, want 1", len(inbox))
	}
	if inbox[0].ID != id {
		t.Errorf("ID = %v, want %v", inbox[0].ID, id)
	}
	if diff := cmp.Diff(map[string]any{"x": 1}, inbox[0].Content.Fields()); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}

	for _, other := range []string{"A", "C"} {
		msgs, err := h.GetMessages(other, 10)
		if err != nil {
			t.Fatalf("GetMessages(%s) error = %v", other, err)
		}
		if len(msgs) != 0 {
			t.Errorf("GetMessages(%s) = %d messages, want 0", other, len(msgs))
		}
	}
}

func TestHub_SendCopiesContent(t *testing.T) {
	h := startTestHub(t, []string{"A", "B"})

	content := messaging.Payload{"x": 1}
	if _, err := h.Send(context.Background(), "A", "B", messaging.KindStatusUpdate, content); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	content["x"] = 2

	inbox, _ := h.GetMessages("B", 1)
	inbox[0].Content.(messaging.Payload)["x"] = 3

	again, _ := h.GetMessages("B", 1)
	if got := again[0].Content.Fields()["x"]; got != 1 {
		t.Errorf("stored content x = %v, want 1", got)
	}
}

func TestHub_SendErrors(t *testing.T) {
	h := startTestHub(t, []string{"A", "B"})
	ctx := context.Background()

	tests := []struct {
		name    string
		send    func() error
		wantErr error
	}{
		{
			name: "unknown recipient",
			send: func() error {
				_, err := h.Send(ctx, "A", "Z", messaging.KindStatusUpdate, nil)
				return err
			},
			wantErr: hub.ErrUnknownRecipient,
		},
		{
			name: "empty sender",
			send: func() error {
				_, err := h.Send(ctx, "", "B", messaging.KindStatusUpdate, nil)
				return err
			},
			wantErr: hub.ErrInvalidMessage,
		},
		{
			name: "invalid kind",
			send: func() error {
				_, err := h.Send(ctx, "A", "B", "task_completion", nil)
				return err
			},
			wantErr: hub.ErrInvalidMessage,
		},
		{
			name: "invalid priority",
			send: func() error {
				_, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, nil, hub.WithPriority(9))
				return err
			},
			wantErr: hub.ErrInvalidMessage,
		},
		{
			name: "content kind mismatch",
			send: func() error {
				_, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, messaging.HelpRequest{Issue: "x"})
				return err
			},
			wantErr: hub.ErrInvalidMessage,
		},
		{
			name: "non-finite progress",
			send: func() error {
				_, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, messaging.StatusUpdate{Status: "rendering", Progress: math.Inf(1)})
				return err
			},
			wantErr: hub.ErrInvalidMessage,
		},
		{
			name: "non-finite payload value",
			send: func() error {
				_, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, messaging.Payload{"score": math.NaN()})
				return err
			},
			wantErr: hub.ErrInvalidMessage,
		},
		{
			name: "unknown thread",
			send: func() error {
				_, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, nil, hub.InThread("missing"))
				return err
			},
			wantErr: hub.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.send(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got := h.Stats().Messages.Total; got != 0 {
		t.Errorf("Stats().Messages.Total = %d, want 0 after failed sends", got)
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := startTestHub(t, []string{"A", "B", "C"})

	id, err := h.Broadcast(context.Background(), "A", messaging.KindSystemAlert, messaging.SystemAlert{Alert: "go"})
	if err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	for _, agent := range []string{"A", "B", "C"} {
		inbox, err := h.GetMessages(agent, 0)
		if err != nil {
			t.Fatalf("GetMessages(%s) error = %v", agent, err)
		}
		if len(inbox) != 1 || inbox[0].ID != id {
			t.Errorf("GetMessages(%s) = %v, want [%s]", agent, messageIDs(inbox), id)
		}
		if !inbox[0].IsBroadcast() {
			t.Errorf("message to %s should be a broadcast", agent)
		}
	}

	stats := h.Stats()
	if stats.Messages.Total != 1 {
		t.Errorf("Messages.Total = %d, want 1", stats.Messages.Total)
	}
	if stats.Deliveries != 3 {
		t.Errorf("Deliveries = %d, want 3", stats.Deliveries)
	}
}

func TestHub_GetMessages_PeekAndLimit(t *testing.T) {
	h := startTestHub(t, []string{"A", "B"})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, messaging.Payload{"n": i})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		ids = append(ids, id)
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "newest three oldest first", limit: 3, want: ids[2:]},
		{name: "limit above size", limit: 10, want: ids},
		{name: "zero returns all", limit: 0, want: ids},
		{name: "negative returns all", limit: -1, want: ids},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inbox, err := h.GetMessages("B", tt.limit)
			if err != nil {
				t.Fatalf("GetMessages() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, messageIDs(inbox)); diff != "" {
				t.Errorf("GetMessages() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := h.GetMessages("Z", 1); !errors.Is(err, hub.ErrUnknownRecipient) {
		t.Errorf("GetMessages(Z) error = %v, want ErrUnknownRecipient", err)
	}
}

func TestHub_Reply(t *testing.T) {
	h := startTestHub(t, []string{"A", "B"})
	ctx := context.Background()

	threadID, err := h.CreateThread(ctx, "help", []string{"A"}, nil)
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	parentID, err := h.Send(ctx, "A", "B", messaging.KindHelpRequest, messaging.HelpRequest{Issue: "stuck"},
		hub.InThread(threadID), hub.WithPriority(messaging.PriorityUrgent))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	replyID, err := h.Reply(ctx, "B", parentID, messaging.Payload{"answer": "retry"}, hub.WithSubject("re: stuck"))
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	reply, err := h.Message(replyID)
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}

	if reply.To != "A" {
		t.Errorf("To = %v, want A", reply.To)
	}
	if reply.ThreadID != threadID {
		t.Errorf("ThreadID = %v, want %v", reply.ThreadID, threadID)
	}
	if reply.ReplyTo != parentID {
		t.Errorf("ReplyTo = %v, want %v", reply.ReplyTo, parentID)
	}
	if reply.Kind != messaging.KindHelpRequest || reply.Priority != messaging.PriorityUrgent {
		t.Errorf("Kind/Priority = %v/%v, want inherited", reply.Kind, reply.Priority)
	}
	if reply.Subject != "re: stuck" {
		t.Errorf("Subject = %q, want %q", reply.Subject, "re: stuck")
	}

	inbox, _ := h.GetMessages("A", 0)
	if diff := cmp.Diff([]string{replyID}, messageIDs(inbox)); diff != "" {
		t.Errorf("GetMessages(A) mismatch (-want +got):\n%s", diff)
	}

	override, err := h.Reply(ctx, "B", parentID, nil,
		hub.WithKind(messaging.KindResultNotification), hub.WithPriority(messaging.PriorityNormal))
	if err != nil {
		t.Fatalf("Reply() with overrides error = %v", err)
	}
	msg, _ := h.Message(override)
	if msg.Kind != messaging.KindResultNotification || msg.Priority != messaging.PriorityNormal {
		t.Errorf("Kind/Priority = %v/%v, want overrides", msg.Kind, msg.Priority)
	}
}

func TestHub_Reply_UnknownParent(t *testing.T) {
	h := startTestHub(t, []string{"A"})

	_, err := h.Reply(context.Background(), "A", "missing", nil)
	if !errors.Is(err, hub.ErrNotFound) {
		t.Errorf("Reply() error = %v, want ErrNotFound", err)
	}
}

func TestHub_RegisterAgent(t *testing.T) {
	h := startTestHub(t, nil)
	ctx := context.Background()

	if err := h.RegisterAgent(ctx, messaging.Agent{}); !errors.Is(err, hub.ErrInvalidArgument) {
		t.Errorf("RegisterAgent(empty) error = %v, want ErrInvalidArgument", err)
	}

	if err := h.RegisterAgent(ctx, messaging.Agent{ID: "dev", Type: "developer", Capabilities: []string{"go"}}); err != nil {
		t.Fatalf("RegisterAgent() error = %v", err)
	}
	if _, err := h.Send(ctx, "lead", "dev", messaging.KindStatusUpdate, nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	first := h.Agents()[0]
	if err := h.RegisterAgent(ctx, messaging.Agent{ID: "dev", Type: "reviewer"}); err != nil {
		t.Fatalf("re-RegisterAgent() error = %v", err)
	}

	agents := h.Agents()
	if len(agents) != 1 {
		t.Fatalf("Agents() = %d, want 1", len(agents))
	}
	if agents[0].Type != "reviewer" {
		t.Errorf("Type = %q, want reviewer", agents[0].Type)
	}
	if !agents[0].RegisteredAt.Equal(first.RegisteredAt) {
		t.Errorf("RegisteredAt changed on re-registration")
	}

	inbox, _ := h.GetMessages("dev", 0)
	if len(inbox) != 1 {
		t.Errorf("inbox after re-registration = %d, want 1", len(inbox))
	}
}

func TestHub_UnregisterAgent(t *testing.T) {
	h := startTestHub(t, []string{"A", "B"})
	ctx := context.Background()

	if err := h.UnregisterAgent(ctx, "Z"); !errors.Is(err, hub.ErrUnknownRecipient) {
		t.Errorf("UnregisterAgent(Z) error = %v, want ErrUnknownRecipient", err)
	}

	if _, err := h.Subscribe("B", func(context.Context, *messaging.Message) error { return nil }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := h.UnregisterAgent(ctx, "B"); err != nil {
		t.Fatalf("UnregisterAgent() error = %v", err)
	}

	if _, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, nil); !errors.Is(err, hub.ErrUnknownRecipient) {
		t.Errorf("Send() to unregistered error = %v, want ErrUnknownRecipient", err)
	}

	stats := h.Stats()
	if stats.Agents != 1 || stats.Subscriptions != 0 {
		t.Errorf("Agents/Subscriptions = %d/%d, want 1/0", stats.Agents, stats.Subscriptions)
	}
}

func TestHub_Stats(t *testing.T) {
	h := startTestHub(t, []string{"A", "B"})
	ctx := context.Background()

	sends := []struct {
		from     string
		to       string
		kind     messaging.Kind
		priority messaging.Priority
	}{
		{"A", "B", messaging.KindStatusUpdate, messaging.PriorityNormal},
		{"A", "", messaging.KindSystemAlert, messaging.PriorityUrgent},
		{"B", "A", messaging.KindStatusUpdate, messaging.PriorityHigh},
	}
	for _, s := range sends {
		if _, err := h.Send(ctx, s.from, s.to, s.kind, nil, hub.WithPriority(s.priority)); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	if _, err := h.CreateThread(ctx, "T", []string{"A", "B", "C"}, nil); err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	stats := h.Stats()

	want := hub.MessageStats{
		Total:    3,
		ByKind:   map[messaging.Kind]int64{messaging.KindStatusUpdate: 2, messaging.KindSystemAlert: 1},
		BySender: map[string]int64{"A": 2, "B": 1},
		ByPriority: map[messaging.Priority]int64{
			messaging.PriorityNormal: 1,
			messaging.PriorityHigh:   1,
			messaging.PriorityUrgent: 1,
		},
	}
	if diff := cmp.Diff(want, stats.Messages); diff != "" {
		t.Errorf("Stats().Messages mismatch (-want +got):\n%s", diff)
	}
	if stats.Threads.Total != 1 || stats.Threads.Participants != 3 {
		t.Errorf("Threads = %+v, want total 1 participants 3", stats.Threads)
	}
	if stats.Deliveries != 4 {
		t.Errorf("Deliveries = %d, want 4", stats.Deliveries)
	}
	if stats.AverageLatency < 0 {
		t.Errorf("AverageLatency = %v, want >= 0", stats.AverageLatency)
	}
	if got := h.Metrics().Messages; got != 3 {
		t.Errorf("Metrics().Messages = %d, want 3", got)
	}
}

func TestHub_Recorder(t *testing.T) {
	recorder := &fakeRecorder{}
	h := startTestHub(t, []string{"A", "B"}, hub.WithRecorder(recorder))
	ctx := context.Background()

	threadID, err := h.CreateThread(ctx, "T", []string{"A"}, nil)
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}
	if _, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, nil, hub.InThread(threadID)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	messages, threads := recorder.counts()
	if messages != 1 {
		t.Errorf("recorded messages = %d, want 1", messages)
	}
	if threads != 2 {
		t.Errorf("recorded thread snapshots = %d, want 2 (create + join)", threads)
	}
	if got := recorder.threads[1].Participants; !cmp.Equal(got, []string{"A", "B"}) {
		t.Errorf("recorded participants = %v, want [A B]", got)
	}
}

func TestHub_RecorderFailureCommitsNothing(t *testing.T) {
	recorder := &fakeRecorder{messageErr: errDiskFull}
	h := startTestHub(t, []string{"A", "B"}, hub.WithRecorder(recorder))
	ctx := context.Background()

	if _, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, nil); !errors.Is(err, errDiskFull) {
		t.Fatalf("Send() error = %v, want %v", err, errDiskFull)
	}

	inbox, _ := h.GetMessages("B", 0)
	if len(inbox) != 0 {
		t.Errorf("inbox = %d, want 0", len(inbox))
	}
	if stats := h.Stats(); stats.Messages.Total != 0 || stats.Deliveries != 0 {
		t.Errorf("Stats() = %+v, want no messages or deliveries", stats)
	}

	recorder.threadErr = errDiskFull
	if _, err := h.CreateThread(ctx, "T", nil, nil, hub.WithThreadID("T1")); !errors.Is(err, errDiskFull) {
		t.Fatalf("CreateThread() error = %v, want %v", err, errDiskFull)
	}
	if _, err := h.Thread("T1"); !errors.Is(err, hub.ErrNotFound) {
		t.Errorf("Thread(T1) error = %v, want ErrNotFound", err)
	}
}

func TestHub_UnencodableContentRecordsNothing(t *testing.T) {
	recorder := &fakeRecorder{}
	h := startTestHub(t, []string{"A", "B"}, hub.WithRecorder(recorder))
	ctx := context.Background()

	parentID, err := h.Send(ctx, "A", "B", messaging.KindStatusUpdate, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if _, err := h.Reply(ctx, "B", parentID, messaging.StatusUpdate{Progress: math.NaN()}); !errors.Is(err, hub.ErrInvalidMessage) {
		t.Errorf("Reply() error = %v, want ErrInvalidMessage", err)
	}
	if _, err := h.Broadcast(ctx, "A", messaging.KindStatusUpdate, messaging.StatusUpdate{Progress: math.Inf(-1)}); !errors.Is(err, hub.ErrInvalidMessage) {
		t.Errorf("Broadcast() error = %v, want ErrInvalidMessage", err)
	}

	if messages, _ := recorder.counts(); messages != 1 {
		t.Errorf("recorded messages = %d, want 1", messages)
	}
	if got := h.Stats().Messages.Total; got != 1 {
		t.Errorf("Stats().Messages.Total = %d, want 1", got)
	}
}

func TestHub_Message_NotFound(t *testing.T) {
	h := startTestHub(t, nil)

	if _, err := h.Message("missing"); !errors.Is(err, hub.ErrNotFound) {
		t.Errorf("Message() error = %v, want ErrNotFound", err)
	}
}
