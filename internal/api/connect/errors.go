package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/ytbeats/internal/app/download"
	"github.com/osa030/ytbeats/internal/app/playback"
	"github.com/osa030/ytbeats/internal/app/resolve"
	"github.com/osa030/ytbeats/internal/app/session"
	model "github.com/osa030/ytbeats/internal/domain/download"
	"github.com/osa030/ytbeats/internal/infra/mpv"
)

// toConnectError maps domain errors to Connect codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var code connect.Code
	switch {
	case errors.Is(err, session.ErrPlaybackUnavailable),
		errors.Is(err, mpv.ErrEngineUnavailable),
		errors.Is(err, session.ErrSearchUnavailable):
		code = connect.CodeUnavailable
	case errors.Is(err, session.ErrSessionNotRunning):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, model.ErrDuplicate):
		code = connect.CodeAlreadyExists
	case errors.Is(err, playback.ErrEndOfQueue),
		errors.Is(err, playback.ErrAtStart):
		code = connect.CodeOutOfRange
	case errors.Is(err, resolve.ErrNoMatch),
		errors.Is(err, session.ErrLibraryEmpty):
		code = connect.CodeNotFound
	case errors.Is(err, download.ErrInvalidGroup),
		errors.Is(err, download.ErrEmptyLocator):
		code = connect.CodeInvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
