// Package transport exposes a hub over HTTP so agents in other processes
// can take part.
//
// Unary operations are Connect procedures under /agentcomm.v1.HubService/
// whose request and response bodies are google.protobuf.Struct documents,
// so any Connect, gRPC-Web, or plain JSON client can call them:
//
//	curl -H 'Content-Type: application/json' \
//	    -d '{"agent_id": "developer-3", "limit": 10}' \
//	    http://localhost:8420/agentcomm.v1.HubService/GetMessages
//
// Deliveries are pushed over a WebSocket at GET /agents/{id}/stream; each
// frame is one message in its JSON encoding. The server also serves
// /healthz and /metrics.
//
// Client wraps the procedures with typed methods. Hub errors survive the
// round trip: errors.Is(err, hub.ErrUnknownRecipient) holds on the client
// side as it does in process.
package transport
