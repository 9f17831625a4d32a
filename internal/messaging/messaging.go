// Package messaging is the request/response channel between a page session
// and the definition resolver. The two sides share no memory; every request
// gets exactly one response.
package messaging

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/lexhover/internal/resolver"
)

// ActionGetDefinition asks for the definition of Request.Term.
const ActionGetDefinition = "getDefinition"

// ErrClosed is returned by clients used after Close.
var ErrClosed = errors.New("messaging: channel closed")

// Request is sent by the page side.
type Request struct {
	ID       string `json:"id,omitempty"`
	Action   string `json:"action"`
	Term     string `json:"term"`
	LocalDef string `json:"localDef,omitempty"`
}

// Response answers one Request. Either Error is set or Definition and
// Source are.
type Response struct {
	ID         string          `json:"id,omitempty"`
	Definition string          `json:"definition,omitempty"`
	Source     resolver.Source `json:"source,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Client sends a request and waits for its response. A returned error means
// the channel itself failed; resolution failures arrive as a Response.
type Client interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// Resolver is the background side's definition source.
type Resolver interface {
	Resolve(ctx context.Context, term, localDef string) resolver.Result
}

// Handler dispatches requests to the resolver.
type Handler struct {
	resolver Resolver
	logger   *zap.Logger
}

// NewHandler creates a Handler. A nil logger discards output.
func NewHandler(r Resolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{resolver: r, logger: logger}
}

// Handle answers req. It never fails; rejected requests get an Error.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	resp := Response{ID: req.ID}
	if req.Action != ActionGetDefinition {
		resp.Error = fmt.Sprintf("unknown action %q", req.Action)
		return resp
	}
	if req.Term == "" {
		resp.Error = "term is required"
		return resp
	}

	h.logger.Debug("request received", zap.String("term", req.Term), zap.Bool("local", req.LocalDef != ""))
	res := h.resolver.Resolve(ctx, req.Term, req.LocalDef)
	resp.Definition = res.Definition
	resp.Source = res.Source
	return resp
}
