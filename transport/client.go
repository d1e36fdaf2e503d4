package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/agentcomm/hub"
	"github.com/tailored-agentic-units/agentcomm/messaging"
)

type rpc = *connect.Client[structpb.Struct, structpb.Struct]

// Client calls a remote hub. Its methods return the same hub errors an
// in-process hub would.
type Client struct {
	baseURL string
	dialer  *websocket.Dialer

	register     rpc
	unregister   rpc
	send         rpc
	reply        rpc
	createThread rpc
	joinThread   rpc
	getMessages  rpc
	getThread    rpc
	stats        rpc
}

// NewClient targets the server at baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")

	newRPC := func(procedure string) rpc {
		return connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+procedure, opts...)
	}

	return &Client{
		baseURL:      baseURL,
		dialer:       websocket.DefaultDialer,
		register:     newRPC(ProcedureRegister),
		unregister:   newRPC(ProcedureUnregister),
		send:         newRPC(ProcedureSend),
		reply:        newRPC(ProcedureReply),
		createThread: newRPC(ProcedureCreateThread),
		joinThread:   newRPC(ProcedureJoinThread),
		getMessages:  newRPC(ProcedureGetMessages),
		getThread:    newRPC(ProcedureGetThread),
		stats:        newRPC(ProcedureStats),
	}
}

func call[Res any](ctx context.Context, client rpc, in any) (*Res, error) {
	body, err := encode(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := client.CallUnary(ctx, connect.NewRequest(body))
	if err != nil {
		return nil, fromConnectError(err)
	}

	out := new(Res)
	if err := decode(resp.Msg, out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, agent messaging.Agent) error {
	_, err := call[empty](ctx, c.register, registerRequest{Agent: agent})
	return err
}

func (c *Client) Unregister(ctx context.Context, agentID string) error {
	_, err := call[empty](ctx, c.unregister, agentRequest{AgentID: agentID})
	return err
}

// Send posts draft and returns the id the hub assigned. A draft without a
// recipient is broadcast. The draft's id and timestamp are not sent on.
func (c *Client) Send(ctx context.Context, draft *messaging.Message) (string, error) {
	out, err := call[idResponse](ctx, c.send, sendRequest{Message: draft})
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) Reply(ctx context.Context, req ReplyRequest) (string, error) {
	out, err := call[idResponse](ctx, c.reply, req)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) CreateThread(ctx context.Context, req CreateThreadRequest) (string, error) {
	out, err := call[idResponse](ctx, c.createThread, req)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) JoinThread(ctx context.Context, threadID string, agentIDs ...string) error {
	_, err := call[empty](ctx, c.joinThread, joinThreadRequest{ThreadID: threadID, AgentIDs: agentIDs})
	return err
}

// GetMessages returns the newest limit messages in agentID's inbox, oldest
// first. A limit of zero returns the whole inbox.
func (c *Client) GetMessages(ctx context.Context, agentID string, limit int) ([]*messaging.Message, error) {
	out, err := call[messagesResponse](ctx, c.getMessages, getMessagesRequest{AgentID: agentID, Limit: limit})
	if err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) GetThread(ctx context.Context, threadID string) (messaging.Thread, []*messaging.Message, error) {
	out, err := call[threadResponse](ctx, c.getThread, threadRequest{ThreadID: threadID})
	if err != nil {
		return messaging.Thread{}, nil, err
	}
	return out.Thread, out.Messages, nil
}

func (c *Client) Stats(ctx context.Context) (hub.CommunicationStats, error) {
	out, err := call[hub.CommunicationStats](ctx, c.stats, empty{})
	if err != nil {
		return hub.CommunicationStats{}, err
	}
	return *out, nil
}

// Stream calls fn for every message delivered to agentID until ctx is done,
// fn returns an error, or the server closes the stream. Cancellation returns
// nil.
func (c *Client) Stream(ctx context.Context, agentID string, fn func(*messaging.Message) error) error {
	target, err := c.streamURL(agentID)
	if err != nil {
		return err
	}

	conn, resp, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return &RemoteError{
				sentinel: hub.ErrUnknownRecipient,
				message:  fmt.Sprintf("unknown recipient: %s", agentID),
			}
		}
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var msg messaging.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if err := fn(&msg); err != nil {
			return err
		}
	}
}

func (c *Client) streamURL(agentID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("base url must be http or https")
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/agents/" + url.PathEscape(agentID) + "/stream"
	return u.String(), nil
}
