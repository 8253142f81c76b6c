// Package cartsync implements the guest/session cart synchronizer: a state
// container that mirrors the server-side cart, attributes it to a guest token,
// and funnels every mutation through the storefront backend. The server is
// the sole source of truth; local state is replaced, never patched.
package cartsync

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/storefront-go/api"
	apperrors "github.com/utafrali/storefront-go/errors"
	"github.com/utafrali/storefront-go/event"
	"github.com/utafrali/storefront-go/storage"
	"github.com/utafrali/storefront-go/token"
	"github.com/utafrali/storefront-go/validator"
)

// SnapshotKey is the storage key under which the cart snapshot is persisted.
const SnapshotKey = "cart_state"

// CartAPI is the backend surface the synchronizer depends on. *api.Client
// satisfies it; tests substitute a mock.
type CartAPI interface {
	GetCart(ctx context.Context, cartToken string) (*api.CartEnvelope, error)
	AddToCart(ctx context.Context, cartToken string, req api.AddToCartRequest) (*api.CartEnvelope, error)
	UpdateItemQuantity(ctx context.Context, cartToken string, itemID int64, quantity int) (*api.CartEnvelope, error)
	RemoveItem(ctx context.Context, cartToken string, itemID int64) (*api.CartEnvelope, error)
	ClearCart(ctx context.Context, cartToken string) (*api.CartEnvelope, error)
	MergeCart(ctx context.Context, cartToken string) (*api.CartEnvelope, error)
}

// Synchronizer owns the local cart state and reconciles it with the backend.
//
// Mutating operations are serialized through an internal queue lock, so two
// concurrent quantity updates cannot land out of order: each request only
// starts after the previous response has been applied.
type Synchronizer struct {
	client   CartAPI
	tokens   *token.Manager
	store    storage.Store
	logger   *slog.Logger
	notifier Notifier
	events   *event.Producer
	timeout  time.Duration

	// opMu serializes dispatched actions; mu guards state reads/writes.
	opMu sync.Mutex
	mu   sync.RWMutex

	state State
}

// Option customizes a Synchronizer.
type Option func(*Synchronizer)

// WithNotifier sets the sink for user-facing notifications. When set, each
// error is delivered to it exactly once and cleared from state.
func WithNotifier(n Notifier) Option {
	return func(s *Synchronizer) { s.notifier = n }
}

// WithEvents sets an analytics event producer invoked after successful
// mutations. Publish failures are logged and never fail the cart operation.
func WithEvents(p *event.Producer) Option {
	return func(s *Synchronizer) { s.events = p }
}

// WithRequestTimeout bounds each backend round trip. Defaults to 15s.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Synchronizer) { s.timeout = d }
}

// NewSynchronizer creates a synchronizer and rehydrates any persisted cart
// snapshot from the store. The snapshot only seeds the display state; the
// first Fetch still replaces it with the server's view.
func NewSynchronizer(client CartAPI, tokens *token.Manager, store storage.Store, logger *slog.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		client:  client,
		tokens:  tokens,
		store:   store,
		logger:  logger,
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := store.Get(context.Background(), SnapshotKey)
	if err == nil {
		if restoreErr := s.state.restoreSnapshot(raw); restoreErr != nil {
			logger.Warn("discarding unreadable cart snapshot",
				slog.String("error", restoreErr.Error()),
			)
		}
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		logger.Warn("cart snapshot read failed",
			slog.String("error", err.Error()),
		)
	}

	return s
}

// Init performs the one-time session startup work: the initial fetch, guarded
// by the initialized flag, and lazy guest token creation when no token exists
// and the cart is empty. Safe to call more than once.
func (s *Synchronizer) Init(ctx context.Context) error {
	var fetchErr error
	if !s.Initialized() {
		_, fetchErr = s.Fetch(ctx)
	}

	if s.tokens.Get(ctx) == "" && s.ItemCount() == 0 {
		tok := s.tokens.GetOrCreate(ctx)
		s.mu.Lock()
		if s.state.GuestCartToken == "" {
			s.state.GuestCartToken = tok
		}
		s.mu.Unlock()
	}

	return fetchErr
}

// Fetch loads the current cart from the backend, adopting any server-issued
// guest token. The initialized flag settles regardless of outcome.
func (s *Synchronizer) Fetch(ctx context.Context) (*api.CartEnvelope, error) {
	return s.dispatch(ctx, ActionFetch, func(ctx context.Context) (*api.CartEnvelope, error) {
		return s.client.GetCart(ctx, s.tokens.Get(ctx))
	})
}

// AddToCart adds quantity units of the product, creating a guest token first
// if the session has none. No optimistic local mutation is applied; state
// changes only when the server confirms.
func (s *Synchronizer) AddToCart(ctx context.Context, productID int64, quantity int) (*api.CartEnvelope, error) {
	req := api.AddToCartRequest{ProductID: productID, Quantity: quantity}
	return s.dispatch(ctx, ActionAdd, func(ctx context.Context) (*api.CartEnvelope, error) {
		if err := validator.Validate(req); err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		return s.client.AddToCart(ctx, s.tokens.GetOrCreate(ctx), req)
	})
}

// UpdateQuantity sets the quantity of an existing line item. A quantity of
// zero or less is translated to a remove so a stored item can never have
// quantity zero.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (*api.CartEnvelope, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, itemID)
	}
	return s.dispatch(ctx, ActionUpdateQuantity, func(ctx context.Context) (*api.CartEnvelope, error) {
		if !s.hasItem(itemID) {
			return nil, apperrors.NotFound("cart item", strconv.FormatInt(itemID, 10))
		}
		return s.client.UpdateItemQuantity(ctx, s.tokens.Get(ctx), itemID, quantity)
	})
}

// RemoveItem deletes a line item from the cart.
func (s *Synchronizer) RemoveItem(ctx context.Context, itemID int64) (*api.CartEnvelope, error) {
	return s.dispatch(ctx, ActionRemove, func(ctx context.Context) (*api.CartEnvelope, error) {
		if !s.hasItem(itemID) {
			return nil, apperrors.NotFound("cart item", strconv.FormatInt(itemID, 10))
		}
		return s.client.RemoveItem(ctx, s.tokens.Get(ctx), itemID)
	})
}

// ClearCart removes every item from the cart.
func (s *Synchronizer) ClearCart(ctx context.Context) (*api.CartEnvelope, error) {
	return s.dispatch(ctx, ActionClear, func(ctx context.Context) (*api.CartEnvelope, error) {
		return s.client.ClearCart(ctx, s.tokens.Get(ctx))
	})
}

// MergeGuestCart merges the guest cart into the authenticated customer's cart
// after login. On success the guest token is cleared; on failure it is kept
// so the merge can be retried.
func (s *Synchronizer) MergeGuestCart(ctx context.Context) (*api.CartEnvelope, error) {
	return s.dispatch(ctx, ActionMerge, func(ctx context.Context) (*api.CartEnvelope, error) {
		tok := s.tokens.Get(ctx)
		if tok == "" {
			return nil, apperrors.InvalidInput("no guest cart to merge")
		}
		return s.client.MergeCart(ctx, tok)
	})
}

// Reset discards all local cart state: items, token, error flags and the
// persisted snapshot. The next Init performs a fresh fetch.
func (s *Synchronizer) Reset(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	s.tokens.Clear(ctx)
	if err := s.store.Delete(ctx, SnapshotKey); err != nil {
		s.logger.WarnContext(ctx, "cart snapshot delete failed",
			slog.String("error", err.Error()),
		)
	}
}

// dispatch runs one action through the pending/fulfilled/rejected cycle. The
// queue lock guarantees responses apply in issue order.
func (s *Synchronizer) dispatch(ctx context.Context, kind ActionKind, call func(ctx context.Context) (*api.CartEnvelope, error)) (*api.CartEnvelope, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	timer := prometheus.NewTimer(actionDuration.WithLabelValues(kind.String()))
	defer timer.ObserveDuration()

	// Capture the token before the call; merge clears it on success but the
	// analytics event should still be attributable to the session.
	aggregateTok := s.tokens.Get(ctx)

	s.apply(transition{kind: kind, phase: phasePending})

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	env, err := call(ctx)
	if err != nil {
		actionsTotal.WithLabelValues(kind.String(), "rejected").Inc()
		msg := apperrors.UserMessage(err, "an unexpected error occurred")
		s.apply(transition{kind: kind, phase: phaseRejected, errMsg: msg})
		s.logger.WarnContext(ctx, "cart action rejected",
			slog.String("action", kind.String()),
			slog.String("error", err.Error()),
		)
		s.deliverError()
		return nil, err
	}

	actionsTotal.WithLabelValues(kind.String(), "fulfilled").Inc()
	s.apply(transition{kind: kind, phase: phaseFulfilled, envelope: env})

	switch kind {
	case ActionFetch, ActionAdd:
		if env.GuestCartToken != "" {
			s.tokens.Set(ctx, env.GuestCartToken)
		}
	case ActionMerge:
		s.tokens.Clear(ctx)
	}

	s.persistSnapshot(ctx)
	s.publish(ctx, kind, aggregateTok)

	if s.notifier != nil {
		if msg, ok := successMessages[kind]; ok {
			s.notifier.Notify(LevelSuccess, msg)
		}
	}

	s.logger.DebugContext(ctx, "cart action fulfilled",
		slog.String("action", kind.String()),
		slog.Int("items", len(env.Data)),
		slog.Int64("total", env.Total),
	)

	return env, nil
}

var successMessages = map[ActionKind]string{
	ActionAdd:            "item added to cart",
	ActionUpdateQuantity: "cart quantity updated",
	ActionRemove:         "item removed from cart",
	ActionClear:          "cart cleared",
	ActionMerge:          "guest cart merged",
}

// apply funnels a transition through the reducer under the state lock.
func (s *Synchronizer) apply(t transition) {
	s.mu.Lock()
	reduce(&s.state, t)
	s.mu.Unlock()
}

// deliverError hands the recorded error to the notifier exactly once and
// clears it, so a later read cannot observe (and re-display) it. Without a
// notifier the error stays until ConsumeError is called.
func (s *Synchronizer) deliverError() {
	if s.notifier == nil {
		return
	}

	s.mu.Lock()
	msg := s.state.Error
	s.state.Error = ""
	s.mu.Unlock()

	if msg != "" {
		s.notifier.Notify(LevelError, msg)
	}
}

// ConsumeError returns the pending error message and clears it. Used by
// embedders that poll state instead of registering a Notifier.
func (s *Synchronizer) ConsumeError() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Error == "" {
		return "", false
	}
	msg := s.state.Error
	s.state.Error = ""
	return msg, true
}

// persistSnapshot writes the current cart state to durable storage. Failures
// are logged, never surfaced; the server remains the source of truth.
func (s *Synchronizer) persistSnapshot(ctx context.Context) {
	s.mu.RLock()
	raw, err := s.state.marshalSnapshot()
	s.mu.RUnlock()
	if err != nil {
		s.logger.WarnContext(ctx, "cart snapshot marshal failed",
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.store.Set(ctx, SnapshotKey, raw); err != nil {
		s.logger.WarnContext(ctx, "cart snapshot write failed",
			slog.String("error", err.Error()),
		)
	}
}

// publish emits the analytics event for a fulfilled mutation.
func (s *Synchronizer) publish(ctx context.Context, kind ActionKind, cartToken string) {
	if s.events == nil {
		return
	}

	s.mu.RLock()
	items := make([]api.CartItem, len(s.state.Items))
	copy(items, s.state.Items)
	total := s.state.Total
	s.mu.RUnlock()

	var err error
	switch kind {
	case ActionAdd, ActionUpdateQuantity, ActionRemove, ActionMerge:
		err = s.events.CartUpdated(ctx, cartToken, items, total)
	case ActionClear:
		err = s.events.CartCleared(ctx, cartToken)
	case ActionFetch:
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart event",
			slog.String("action", kind.String()),
			slog.String("error", err.Error()),
		)
	}
}

// hasItem reports whether the line item is present in local state. This is
// the only client-side precondition check; everything else is validated by
// the server.
func (s *Synchronizer) hasItem(itemID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.findItem(itemID) >= 0
}

// Items returns a copy of the current line items in server order.
func (s *Synchronizer) Items() []api.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]api.CartItem, len(s.state.Items))
	copy(items, s.state.Items)
	return items
}

// Total returns the server-computed cart total in cents.
func (s *Synchronizer) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Total
}

// ItemCount returns the sum of line quantities.
func (s *Synchronizer) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ItemCount()
}

// QuantityOf returns the quantity of the product in the cart, or 0.
func (s *Synchronizer) QuantityOf(productID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.state.findByProduct(productID); i >= 0 {
		return s.state.Items[i].Quantity
	}
	return 0
}

// Contains reports whether the product has a line item in the cart.
func (s *Synchronizer) Contains(productID int64) bool {
	return s.QuantityOf(productID) > 0
}

// ItemByProduct returns the line item for the product, if present.
func (s *Synchronizer) ItemByProduct(productID int64) (api.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.state.findByProduct(productID); i >= 0 {
		return s.state.Items[i], true
	}
	return api.CartItem{}, false
}

// Loading reports whether an action is currently in flight. Advisory only;
// it is not a lock.
func (s *Synchronizer) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

// Initialized reports whether the first fetch has settled.
func (s *Synchronizer) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Initialized
}

// GuestToken returns the guest cart token currently in state, or empty.
func (s *Synchronizer) GuestToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GuestCartToken
}

// Snapshot returns a copy of the full state for read-only inspection.
func (s *Synchronizer) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.state
	out.Items = make([]api.CartItem, len(s.state.Items))
	copy(out.Items, s.state.Items)
	return out
}
