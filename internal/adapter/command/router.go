package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/logging"
	"github.com/iho/coinledger/internal/infrastructure/metrics"
	"github.com/iho/coinledger/internal/usecase"
)

// Ledger is the set of ledger operations the Router dispatches to.
type Ledger interface {
	Register(ctx context.Context, externalID string) (*domain.Account, error)
	GetBalance(ctx context.Context, externalID string) (int64, error)
	Credit(ctx context.Context, input usecase.AmountInput) (int64, error)
	Debit(ctx context.Context, input usecase.AmountInput) (int64, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
	Purchase(ctx context.Context, input usecase.PurchaseInput) (*usecase.PurchaseResult, error)
	AddItem(ctx context.Context, input usecase.AddItemInput) (*domain.CatalogItem, error)
	ListCatalog(ctx context.Context) ([]*domain.CatalogItem, error)
	ListInventory(ctx context.Context, externalID string) ([]domain.InventoryLine, error)
}

// Reply is the rendered outcome of a command.
type Reply struct {
	Text string
	// Err is the failure behind Text, nil on success.
	Err error
	// Replayed is set when Text was answered from the idempotency store.
	Replayed bool
}

// Router dispatches commands to the ledger.
type Router struct {
	ledger         Ledger
	idempotency    usecase.IdempotencyStore
	idempotencyTTL time.Duration
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithIdempotencyStore deduplicates mutating commands that carry a MessageID.
func WithIdempotencyStore(store usecase.IdempotencyStore, ttl time.Duration) RouterOption {
	return func(r *Router) {
		r.idempotency = store
		r.idempotencyTTL = ttl
	}
}

// WithMetrics records command outcomes.
func WithMetrics(m *metrics.Metrics) RouterOption {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter creates a new Router.
func NewRouter(ledger Ledger, opts ...RouterOption) *Router {
	r := &Router{
		ledger:         ledger,
		idempotencyTTL: usecase.IdempotencyKeyTTL,
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Handle runs cmd and renders its reply. It never returns an empty reply.
func (r *Router) Handle(ctx context.Context, cmd Command) Reply {
	ctx = logging.WithCallerID(ctx, cmd.CallerID)
	ctx = logging.WithCommand(ctx, cmd.Verb, cmd.MessageID)
	start := time.Now()

	reply := r.dedupe(ctx, cmd)

	if r.metrics != nil {
		if reply.Replayed {
			r.metrics.ObserveReplay()
		} else {
			r.metrics.ObserveCommand(cmd.Verb, reply.Err, time.Since(start))
		}
	}

	event := r.logger.Info()
	if reply.Err != nil {
		if domain.KindOf(reply.Err) == nil {
			event = r.logger.Error()
		} else {
			event = r.logger.Warn()
		}
		event = event.Err(reply.Err)
	}
	event.
		Str("caller_id", cmd.CallerID).
		Str("verb", cmd.Verb).
		Str("message_id", cmd.MessageID).
		Bool("replayed", reply.Replayed).
		Dur("duration", time.Since(start)).
		Msg("command handled")

	return reply
}

func (r *Router) dedupe(ctx context.Context, cmd Command) Reply {
	if r.idempotency == nil || cmd.MessageID == "" || !mutates(cmd.Verb) {
		return r.dispatch(ctx, cmd)
	}

	key := dedupeKey(cmd)

	exists, cached, err := r.idempotency.CheckAndSet(ctx, key, nil, r.idempotencyTTL)
	if err != nil {
		err = fmt.Errorf("%w: idempotency check: %w", domain.ErrStoreUnavailable, err)
		return Reply{Text: renderError(cmd.Verb, err), Err: err}
	}

	if exists {
		if cached != nil {
			return r.replay(cmd, cached)
		}
		return Reply{Text: "That command is already being processed.", Err: domain.ErrBusy}
	}

	reply := r.dispatch(ctx, cmd)

	// Transient and unclassified failures changed nothing, so the same message may be retried.
	if reply.Err != nil && (domain.IsTransient(reply.Err) || replyCode(reply.Err) == "") {
		if err := r.idempotency.Delete(ctx, key); err != nil {
			r.logger.Warn().Err(err).Str("message_id", cmd.MessageID).Msg("failed to release idempotency key")
		}
		return reply
	}

	record, err := json.Marshal(newStoredReply(reply))
	if err == nil {
		err = r.idempotency.Update(ctx, key, record, r.idempotencyTTL)
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("message_id", cmd.MessageID).Msg("failed to store command reply")
	}

	return reply
}

// dedupeKey scopes a message id to its caller. The caller length prefix keeps ids
// containing ':' from colliding.
func dedupeKey(cmd Command) string {
	return fmt.Sprintf("cmd:%d:%s:%s", len(cmd.CallerID), cmd.CallerID, cmd.MessageID)
}

// storedReply is the idempotency record of a handled command.
type storedReply struct {
	Text  string `json:"text"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

func newStoredReply(reply Reply) storedReply {
	rec := storedReply{Text: reply.Text}
	if reply.Err != nil {
		rec.Code = replyCode(reply.Err)
		rec.Error = reply.Err.Error()
	}
	return rec
}

const codeNotPrivileged = "not_privileged"

func replyCode(err error) string {
	if errors.Is(err, ErrNotPrivileged) {
		return codeNotPrivileged
	}
	return domain.ErrorCode(err)
}

func errorForCode(code string) error {
	if code == codeNotPrivileged {
		return ErrNotPrivileged
	}
	return domain.ErrorForCode(code)
}

// replayedError carries the message of the original failure and matches its sentinel.
type replayedError struct {
	msg   string
	cause error
}

func (e *replayedError) Error() string { return e.msg }

func (e *replayedError) Unwrap() error { return e.cause }

func (r *Router) replay(cmd Command, cached []byte) Reply {
	var rec storedReply
	if err := json.Unmarshal(cached, &rec); err != nil {
		r.logger.Error().Err(err).Str("message_id", cmd.MessageID).Msg("unreadable stored reply")
		return Reply{
			Text:     renderError(cmd.Verb, err),
			Err:      fmt.Errorf("stored reply for message %s: %w", cmd.MessageID, err),
			Replayed: true,
		}
	}

	reply := Reply{Text: rec.Text, Replayed: true}
	if rec.Code != "" {
		cause := errorForCode(rec.Code)
		if cause == nil {
			cause = errors.New(rec.Code)
		}
		reply.Err = &replayedError{msg: rec.Error, cause: cause}
	}

	return reply
}

func mutates(verb string) bool {
	switch verb {
	case VerbRegister, VerbAddMoney, VerbRemoveMoney, VerbAddItem, VerbSend, VerbBuy:
		return true
	}
	return false
}

func (r *Router) dispatch(ctx context.Context, cmd Command) Reply {
	switch cmd.Verb {
	case VerbRegister:
		return r.register(ctx, cmd)
	case VerbBalance:
		return r.balance(ctx, cmd)
	case VerbAddMoney, VerbRemoveMoney:
		return r.adjust(ctx, cmd)
	case VerbAddItem:
		return r.addItem(ctx, cmd)
	case VerbSend:
		return r.send(ctx, cmd)
	case VerbBuy:
		return r.buy(ctx, cmd)
	case VerbShop:
		return r.shop(ctx, cmd)
	case VerbInventory:
		return r.inventory(ctx, cmd)
	default:
		return Reply{
			Text: fmt.Sprintf("Unknown command %q. Try %s%s, %s%s or %s%s.", cmd.Verb, Prefix, VerbRegister, Prefix, VerbShop, Prefix, VerbBalance),
			Err:  fmt.Errorf("%w: unknown verb %q", domain.ErrKindInvalidArgument, cmd.Verb),
		}
	}
}

func failed(verb string, err error) Reply {
	return Reply{Text: renderError(verb, err), Err: err}
}

func usage(text string) Reply {
	return Reply{Text: "Usage: " + text, Err: domain.ErrKindInvalidArgument}
}

// ErrNotPrivileged is returned when a member runs an admin command.
var ErrNotPrivileged = fmt.Errorf("%w: privileged command", domain.ErrKindInvalidArgument)

func (r *Router) register(ctx context.Context, cmd Command) Reply {
	account, err := r.ledger.Register(ctx, cmd.CallerID)
	if err != nil {
		return failed(cmd.Verb, err)
	}

	if r.metrics != nil {
		r.metrics.ObserveRegistration()
	}

	return Reply{Text: fmt.Sprintf("Registered with %d coins!", account.Balance)}
}

func (r *Router) balance(ctx context.Context, cmd Command) Reply {
	balance, err := r.ledger.GetBalance(ctx, cmd.CallerID)
	if err != nil {
		return failed(cmd.Verb, err)
	}

	return Reply{Text: fmt.Sprintf("Your balance is %d", balance)}
}

func (r *Router) adjust(ctx context.Context, cmd Command) Reply {
	if !cmd.Privileged {
		return Reply{Text: "Only admins can do this.", Err: ErrNotPrivileged}
	}

	target, amount, ok := mentionAndAmount(cmd.Args)
	if !ok {
		return usage(fmt.Sprintf("%s%s @user amount", Prefix, cmd.Verb))
	}

	input := usecase.AmountInput{ExternalID: target, Amount: amount}

	if cmd.Verb == VerbAddMoney {
		if _, err := r.ledger.Credit(ctx, input); err != nil {
			return failed(cmd.Verb, err)
		}
		r.observeAmount(cmd.Verb, amount)
		return Reply{Text: fmt.Sprintf("Added %d to %s", amount, Mention(target))}
	}

	if _, err := r.ledger.Debit(ctx, input); err != nil {
		return failed(cmd.Verb, err)
	}
	r.observeAmount(cmd.Verb, amount)

	return Reply{Text: fmt.Sprintf("Removed %d from %s", amount, Mention(target))}
}

func (r *Router) addItem(ctx context.Context, cmd Command) Reply {
	if !cmd.Privileged {
		return Reply{Text: "Only admins can add items.", Err: ErrNotPrivileged}
	}

	if len(cmd.Args) != 2 {
		return usage(Prefix + VerbAddItem + " <name> <price>")
	}

	price, ok := parseAmount(cmd.Args[1])
	if !ok {
		return usage(Prefix + VerbAddItem + " <name> <price>")
	}

	item, err := r.ledger.AddItem(ctx, usecase.AddItemInput{Name: cmd.Args[0], Price: price})
	if err != nil {
		return failed(cmd.Verb, err)
	}

	return Reply{Text: fmt.Sprintf("Added item **%s** with price %d", item.Name, item.Price)}
}

func (r *Router) send(ctx context.Context, cmd Command) Reply {
	target, amount, ok := mentionAndAmount(cmd.Args)
	if !ok {
		return usage(Prefix + VerbSend + " @user amount")
	}

	result, err := r.ledger.Transfer(ctx, usecase.TransferInput{
		FromID: cmd.CallerID,
		ToID:   target,
		Amount: amount,
	})
	if err != nil {
		return failed(cmd.Verb, err)
	}
	r.observeAmount(cmd.Verb, amount)

	return Reply{Text: fmt.Sprintf("Sent %d to %s. Your balance is %d", amount, Mention(target), result.FromBalance)}
}

func (r *Router) buy(ctx context.Context, cmd Command) Reply {
	if len(cmd.Args) == 0 {
		return usage(Prefix + VerbBuy + " itemname")
	}

	result, err := r.ledger.Purchase(ctx, usecase.PurchaseInput{
		ExternalID: cmd.CallerID,
		ItemName:   strings.Join(cmd.Args, " "),
	})
	if err != nil {
		return failed(cmd.Verb, err)
	}

	if r.metrics != nil {
		r.metrics.ObservePurchase(result.Item.Name)
	}
	r.observeAmount(cmd.Verb, result.Item.Price)

	return Reply{Text: fmt.Sprintf("You bought **%s** for %d", result.Item.Name, result.Item.Price)}
}

func (r *Router) shop(ctx context.Context, cmd Command) Reply {
	items, err := r.ledger.ListCatalog(ctx)
	if err != nil {
		return failed(cmd.Verb, err)
	}

	if len(items) == 0 {
		return Reply{Text: "No items available in the shop."}
	}

	var b strings.Builder
	b.WriteString("**Marketplace Items:**")
	for _, item := range items {
		fmt.Fprintf(&b, "\n**%s** - %d", item.Name, item.Price)
	}

	return Reply{Text: b.String()}
}

func (r *Router) inventory(ctx context.Context, cmd Command) Reply {
	lines, err := r.ledger.ListInventory(ctx, cmd.CallerID)
	if err != nil {
		return failed(cmd.Verb, err)
	}

	if len(lines) == 0 {
		return Reply{Text: "Your inventory is empty."}
	}

	var b strings.Builder
	b.WriteString("**Your Inventory:**")
	for _, line := range lines {
		fmt.Fprintf(&b, "\n%s x%d", line.ItemName, line.Quantity)
	}

	return Reply{Text: b.String()}
}

func (r *Router) observeAmount(verb string, amount int64) {
	if r.metrics != nil {
		r.metrics.ObserveAmount(verb, amount)
	}
}

func mentionAndAmount(args []string) (string, int64, bool) {
	if len(args) != 2 {
		return "", 0, false
	}

	target, ok := MentionID(args[0])
	if !ok {
		return "", 0, false
	}

	amount, ok := parseAmount(args[1])
	if !ok {
		return "", 0, false
	}

	return target, amount, true
}

// renderError turns a failed operation into reply text. Messages depend on the verb
// where the same kind means different things to the caller.
func renderError(verb string, err error) string {
	switch {
	case errors.Is(err, domain.ErrNotRegistered):
		switch verb {
		case VerbSend:
			return "Both users must be registered."
		case VerbAddMoney, VerbRemoveMoney:
			return "User not registered."
		}
		return "You are not registered. Use " + Prefix + VerbRegister + " first."
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return "You are already registered!"
	case errors.Is(err, domain.ErrInsufficientFunds):
		switch verb {
		case VerbBuy:
			return "Not enough money."
		case VerbRemoveMoney:
			return "User does not have that many coins."
		}
		return "Insufficient balance."
	case errors.Is(err, domain.ErrItemNotFound):
		return "Item not found."
	case errors.Is(err, domain.ErrItemAlreadyExists):
		return "Item already exists."
	case errors.Is(err, domain.ErrSameAccount):
		return "You cannot send coins to yourself."
	case errors.Is(err, domain.ErrAmountTooLarge):
		return fmt.Sprintf("Amount is too large, the maximum is %d.", domain.MaxAmount)
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Amount must be a positive whole number."
	case errors.Is(err, domain.ErrInvalidPrice):
		return "Price must be a positive whole number."
	case errors.Is(err, domain.ErrInvalidItemName):
		return fmt.Sprintf("Item names are a single word of at most %d characters.", domain.MaxItemNameLength)
	case errors.Is(err, domain.ErrInvalidExternalID):
		return "That user id is not valid."
	case errors.Is(err, domain.ErrKindBusy):
		return "The ledger is busy right now, please try again."
	case errors.Is(err, domain.ErrKindStoreUnavailable):
		return "The ledger is unavailable right now, please try again later."
	default:
		return "Something went wrong, please try again later."
	}
}
