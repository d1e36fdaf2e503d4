// Package messaging defines the message primitives exchanged through the hub.
//
// A Message is addressed from one agent to another, or to every registered
// agent when To is empty. Each message carries a Kind describing its
// coordination purpose, a Priority hint, optional subject and thread, and a
// Content payload.
//
// # Content
//
// Content is a tagged union. Each kind has a typed variant:
//
//	msg := messaging.NewMessage("coordinator", "developer-3",
//	    messaging.KindTaskAssignment,
//	    messaging.TaskAssignment{Task: "pressure input", Deadline: "2d"}).
//	    Priority(messaging.PriorityHigh).
//	    Build()
//
// Payload is the free-form fallback that any kind accepts:
//
//	messaging.NewBroadcast("developer-3", messaging.KindStatusUpdate,
//	    messaging.Payload{"progress": 40}).Build()
//
// Messages encode to JSON with a content_format marker so that typed and
// free-form content both survive a round trip.
package messaging
