package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/coinledger/internal/adapter/command"
	"github.com/iho/coinledger/internal/adapter/http/dto"
	"github.com/iho/coinledger/internal/adapter/http/middleware"
	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/metrics"
)

// IdempotencyKeyHeader names the chat message a command came from. Requests repeating
// the key are answered with the first reply.
const IdempotencyKeyHeader = "Idempotency-Key"

// CommandRouter runs parsed commands.
type CommandRouter interface {
	Handle(ctx context.Context, cmd command.Command) command.Reply
}

// CommandHandler exposes the command router over HTTP for chat bridges.
type CommandHandler struct {
	router CommandRouter
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(router CommandRouter) *CommandHandler {
	return &CommandHandler{router: router}
}

// Handle runs one chat message as a command. The reply text is always returned; the
// status reflects the outcome so bridges can tell retryable failures apart.
func (h *CommandHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req dto.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	// An authenticated caller always speaks as the token's identity.
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		if req.CallerID != "" && req.CallerID != claims.CallerID {
			writeError(w, http.StatusForbidden, "caller_id does not match token", "")
			return
		}
		req.CallerID = claims.CallerID
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	cmd, ok := command.Parse(req.CallerID, req.Text)
	if !ok {
		writeError(w, http.StatusBadRequest, "not a command", "commands start with "+command.Prefix)
		return
	}
	cmd.Privileged = middleware.IsPrivileged(r.Context())
	cmd.MessageID = r.Header.Get(IdempotencyKeyHeader)

	reply := h.router.Handle(r.Context(), cmd)

	if errors.Is(reply.Err, domain.ErrKindBusy) {
		w.Header().Set("Retry-After", RetryAfterSeconds)
	}
	if reply.Replayed {
		w.Header().Set("X-Idempotency-Replay", "true")
	}

	writeJSON(w, mapDomainError(reply.Err), dto.CommandResponse{
		Reply:    reply.Text,
		Outcome:  metrics.Outcome(reply.Err),
		Replayed: reply.Replayed,
	})
}
