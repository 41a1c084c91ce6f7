package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/expensetracker/internal/expenses"
	"github.com/mmynk/expensetracker/internal/validation"
)

var errInternal = errors.New("internal error")

// invalidArgument wraps err as CodeInvalidArgument and attaches fields as a
// struct detail mapping field name to message.
func invalidArgument(err error, fields map[string]string) *connect.Error {
	connectErr := connect.NewError(connect.CodeInvalidArgument, err)

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	if s, serr := structpb.NewStruct(values); serr == nil {
		if detail, derr := connect.NewErrorDetail(s); derr == nil {
			connectErr.AddDetail(detail)
		}
	}
	return connectErr
}

// FieldErrors extracts the per-field messages of an InvalidArgument error.
// Returns nil if err carries none.
func FieldErrors(err error) map[string]string {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return nil
	}
	for _, detail := range connectErr.Details() {
		msg, derr := detail.Value()
		if derr != nil {
			continue
		}
		s, ok := msg.(*structpb.Struct)
		if !ok {
			continue
		}
		fields := make(map[string]string, len(s.GetFields()))
		for k, v := range s.GetFields() {
			fields[k] = v.GetStringValue()
		}
		return fields
	}
	return nil
}

// expenseError maps a Manager error to a connect error. Unexpected errors are
// logged and hidden from the client.
func expenseError(ctx context.Context, logger *slog.Logger, err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return invalidArgument(err, verrs)
	case errors.Is(err, expenses.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, expenses.ErrNotFound)
	case errors.Is(err, expenses.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		logger.ErrorContext(ctx, "Expense operation failed", "error", err)
		return connect.NewError(connect.CodeInternal, errInternal)
	}
}
