package pipeline

import (
	"context"
	stderrors "errors"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/errors"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
)

// ComputeLayout runs the layout engine once over g. It does not touch any
// cache; see [Runner.Layout] for the cached variant.
func ComputeLayout(ctx context.Context, g *graph.Graph, opts Options) (*layout.Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	res, err := layout.New(g, opts.Layout).Refresh(ctx)
	if err != nil {
		return nil, Classify(err)
	}
	return res, nil
}

// Classify maps errors from the graph and layout packages onto coded errors
// for the CLI and HTTP surfaces. Errors that already carry a code are
// returned unchanged; anything unrecognized becomes INTERNAL_ERROR.
func Classify(err error) error {
	if err == nil || errors.GetCode(err) != "" {
		return err
	}
	switch {
	case stderrors.Is(err, layout.ErrCycle), stderrors.Is(err, graph.ErrCycle):
		return errors.Wrap(errors.ErrCodeGraphCycle, err, "graph contains a cycle")
	case stderrors.Is(err, layout.ErrRetryLimit):
		return errors.Wrap(errors.ErrCodeRoutingLimit, err, "routing did not converge")
	case stderrors.Is(err, graph.ErrIncompatible), stderrors.Is(err, graph.ErrPhysicalInput):
		return errors.Wrap(errors.ErrCodeIncompatiblePort, err, "cannot connect")
	case stderrors.Is(err, graph.ErrUnknownBlock):
		return errors.Wrap(errors.ErrCodeNotFound, err, "unknown block")
	case stderrors.Is(err, graph.ErrPortRange),
		stderrors.Is(err, graph.ErrDuplicateID),
		stderrors.Is(err, graph.ErrInvalidID),
		stderrors.Is(err, graph.ErrUnknownKind):
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "invalid graph")
	case stderrors.Is(err, layout.ErrInvalidOptions):
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid layout options")
	case stderrors.Is(err, layout.ErrReadOnly):
		return errors.Wrap(errors.ErrCodeUnsupported, err, "graph cannot be edited")
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, "timed out")
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, "internal error")
	}
}
