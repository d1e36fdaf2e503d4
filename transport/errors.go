package transport

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/agentcomm/hub"
)

// ErrorKindHeader names the hub error carried by a failed call. Connect
// codes alone cannot tell ErrNotFound from ErrUnknownRecipient.
const ErrorKindHeader = "Agentcomm-Error"

type errorKind struct {
	err  error
	name string
	code connect.Code
}

var errorKinds = []errorKind{
	{hub.ErrInvalidState, "invalid_state", connect.CodeFailedPrecondition},
	{hub.ErrUnknownRecipient, "unknown_recipient", connect.CodeNotFound},
	{hub.ErrNotFound, "not_found", connect.CodeNotFound},
	{hub.ErrDuplicateThread, "duplicate_thread", connect.CodeAlreadyExists},
	{hub.ErrInvalidMessage, "invalid_message", connect.CodeInvalidArgument},
	{hub.ErrInvalidArgument, "invalid_argument", connect.CodeInvalidArgument},
}

func toConnectError(err error) error {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.err) {
			connectErr := connect.NewError(kind.code, err)
			connectErr.Meta().Set(ErrorKindHeader, kind.name)
			return connectErr
		}
	}
	return connect.NewError(connect.CodeInternal, err)
}

// RemoteError is a hub error returned by the server. It unwraps to the
// matching hub sentinel.
type RemoteError struct {
	sentinel error
	message  string
	cause    *connect.Error
}

func (e *RemoteError) Error() string {
	return e.message
}

func (e *RemoteError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.sentinel}
	}
	return []error{e.sentinel, e.cause}
}

func fromConnectError(err error) error {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return err
	}

	name := connectErr.Meta().Get(ErrorKindHeader)
	for _, kind := range errorKinds {
		if kind.name == name {
			return &RemoteError{
				sentinel: kind.err,
				message:  connectErr.Message(),
				cause:    connectErr,
			}
		}
	}
	return err
}
