package transport

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/agentcomm/hub"
	"github.com/tailored-agentic-units/agentcomm/messaging"
)

// Service implements the HubService procedures against a hub.
type Service struct {
	hub hub.Hub
}

func NewService(h hub.Hub) *Service {
	return &Service{hub: h}
}

// Mount registers every procedure on r.
func (s *Service) Mount(r chi.Router, opts ...connect.HandlerOption) {
	r.Handle(ProcedureRegister, connect.NewUnaryHandler(ProcedureRegister, unary(s.register), opts...))
	r.Handle(ProcedureUnregister, connect.NewUnaryHandler(ProcedureUnregister, unary(s.unregister), opts...))
	r.Handle(ProcedureSend, connect.NewUnaryHandler(ProcedureSend, unary(s.send), opts...))
	r.Handle(ProcedureReply, connect.NewUnaryHandler(ProcedureReply, unary(s.reply), opts...))
	r.Handle(ProcedureCreateThread, connect.NewUnaryHandler(ProcedureCreateThread, unary(s.createThread), opts...))
	r.Handle(ProcedureJoinThread, connect.NewUnaryHandler(ProcedureJoinThread, unary(s.joinThread), opts...))
	r.Handle(ProcedureGetMessages, connect.NewUnaryHandler(ProcedureGetMessages, unary(s.getMessages), opts...))
	r.Handle(ProcedureGetThread, connect.NewUnaryHandler(ProcedureGetThread, unary(s.getThread), opts...))
	r.Handle(ProcedureStats, connect.NewUnaryHandler(ProcedureStats, unary(s.stats), opts...))
}

type unaryFunc = func(context.Context, *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error)

// unary adapts a typed procedure to the Struct wire form.
func unary[Req, Res any](fn func(context.Context, *Req) (*Res, error)) unaryFunc {
	return func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
		in := new(Req)
		if err := decode(req.Msg, in); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("decode request: %w", err))
		}

		out, err := fn(ctx, in)
		if err != nil {
			return nil, toConnectError(err)
		}

		body, err := encode(out)
		if err != nil {
			return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode response: %w", err))
		}
		return connect.NewResponse(body), nil
	}
}

func (s *Service) register(ctx context.Context, req *registerRequest) (*empty, error) {
	return &empty{}, s.hub.RegisterAgent(ctx, req.Agent)
}

func (s *Service) unregister(ctx context.Context, req *agentRequest) (*empty, error) {
	return &empty{}, s.hub.UnregisterAgent(ctx, req.AgentID)
}

func (s *Service) send(ctx context.Context, req *sendRequest) (*idResponse, error) {
	draft := req.Message
	if draft == nil {
		return nil, fmt.Errorf("%w: message is required", hub.ErrInvalidArgument)
	}

	opts := []hub.SendOption{
		hub.WithSubject(draft.Subject),
		hub.WithPriority(draft.Priority),
		hub.InThread(draft.ThreadID),
	}

	var (
		id  string
		err error
	)
	if draft.IsBroadcast() {
		id, err = s.hub.Broadcast(ctx, draft.From, draft.Kind, draft.Content, opts...)
	} else {
		id, err = s.hub.Send(ctx, draft.From, draft.To, draft.Kind, draft.Content, opts...)
	}
	if err != nil {
		return nil, err
	}
	return &idResponse{ID: id}, nil
}

func (s *Service) reply(ctx context.Context, req *wireReply) (*idResponse, error) {
	kind := req.Kind
	if kind == "" && req.ContentFormat == messaging.FormatStructured {
		parent, err := s.hub.Message(req.ParentID)
		if err != nil {
			return nil, err
		}
		kind = parent.Kind
	}

	content, err := messaging.RestoreContent(kind, req.ContentFormat, req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hub.ErrInvalidMessage, err)
	}

	var opts []hub.SendOption
	if req.Subject != "" {
		opts = append(opts, hub.WithSubject(req.Subject))
	}
	if req.Kind != "" {
		opts = append(opts, hub.WithKind(req.Kind))
	}
	if req.Priority != nil {
		opts = append(opts, hub.WithPriority(*req.Priority))
	}

	id, err := s.hub.Reply(ctx, req.From, req.ParentID, content, opts...)
	if err != nil {
		return nil, err
	}
	return &idResponse{ID: id}, nil
}

func (s *Service) createThread(ctx context.Context, req *CreateThreadRequest) (*idResponse, error) {
	opts := []hub.ThreadOption{hub.CreatedBy(req.CreatedBy)}
	if req.ID != "" {
		opts = append(opts, hub.WithThreadID(req.ID))
	}

	id, err := s.hub.CreateThread(ctx, req.Title, req.Participants, req.Context, opts...)
	if err != nil {
		return nil, err
	}
	return &idResponse{ID: id}, nil
}

func (s *Service) joinThread(ctx context.Context, req *joinThreadRequest) (*empty, error) {
	return &empty{}, s.hub.JoinThread(ctx, req.ThreadID, req.AgentIDs...)
}

func (s *Service) getMessages(_ context.Context, req *getMessagesRequest) (*messagesResponse, error) {
	messages, err := s.hub.GetMessages(req.AgentID, req.Limit)
	if err != nil {
		return nil, err
	}
	return &messagesResponse{Messages: messages}, nil
}

func (s *Service) getThread(_ context.Context, req *threadRequest) (*threadResponse, error) {
	thread, err := s.hub.Thread(req.ThreadID)
	if err != nil {
		return nil, err
	}

	messages, err := s.hub.ThreadMessages(req.ThreadID)
	if err != nil {
		return nil, err
	}
	return &threadResponse{Thread: thread, Messages: messages}, nil
}

func (s *Service) stats(_ context.Context, _ *empty) (*hub.CommunicationStats, error) {
	stats := s.hub.Stats()
	return &stats, nil
}
