package cartsync

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-go/api"
	apperrors "github.com/utafrali/storefront-go/errors"
	"github.com/utafrali/storefront-go/storage"
	"github.com/utafrali/storefront-go/token"
)

// --- Mock backend ---

type mockCartAPI struct {
	mock.Mock
}

func (m *mockCartAPI) GetCart(ctx context.Context, cartToken string) (*api.CartEnvelope, error) {
	args := m.Called(ctx, cartToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CartEnvelope), args.Error(1)
}

func (m *mockCartAPI) AddToCart(ctx context.Context, cartToken string, req api.AddToCartRequest) (*api.CartEnvelope, error) {
	args := m.Called(ctx, cartToken, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CartEnvelope), args.Error(1)
}

func (m *mockCartAPI) UpdateItemQuantity(ctx context.Context, cartToken string, itemID int64, quantity int) (*api.CartEnvelope, error) {
	args := m.Called(ctx, cartToken, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CartEnvelope), args.Error(1)
}

func (m *mockCartAPI) RemoveItem(ctx context.Context, cartToken string, itemID int64) (*api.CartEnvelope, error) {
	args := m.Called(ctx, cartToken, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CartEnvelope), args.Error(1)
}

func (m *mockCartAPI) ClearCart(ctx context.Context, cartToken string) (*api.CartEnvelope, error) {
	args := m.Called(ctx, cartToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CartEnvelope), args.Error(1)
}

func (m *mockCartAPI) MergeCart(ctx context.Context, cartToken string) (*api.CartEnvelope, error) {
	args := m.Called(ctx, cartToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CartEnvelope), args.Error(1)
}

// recordingNotifier captures notifications in order.
type recordingNotifier struct {
	mu      sync.Mutex
	entries []string
}

func (n *recordingNotifier) Notify(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, string(level)+": "+message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.entries))
	copy(out, n.entries)
	return out
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSync(t *testing.T, backend CartAPI, opts ...Option) (*Synchronizer, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()
	tokens := token.NewManager(store, newTestLogger())
	return NewSynchronizer(backend, tokens, store, newTestLogger(), opts...), store
}

func itemEnvelope(total int64, tok string, items ...api.CartItem) *api.CartEnvelope {
	return &api.CartEnvelope{Data: items, Total: total, GuestCartToken: tok}
}

func organizerLine(qty int) api.CartItem {
	return api.CartItem{
		ID:        1,
		ProductID: 42,
		Quantity:  qty,
		Product:   api.CartProduct{ID: 42, Name: "Walnut Desk Organizer", SellPrice: 5000, Stock: 10},
	}
}

// --- Fetch ---

func TestFetch_ReplacesStateAndAdoptsToken(t *testing.T) {
	backend := new(mockCartAPI)
	s, store := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)

	env, err := s.Fetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(100), env.Total)
	assert.Equal(t, int64(100), s.Total())
	assert.Equal(t, 2, s.ItemCount())
	assert.Equal(t, "tok-abc", s.GuestToken())
	assert.True(t, s.Initialized())
	assert.False(t, s.Loading())

	// The server-issued token is persisted for the next session.
	persisted, err := store.Get(ctx, token.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", persisted)

	backend.AssertExpectations(t)
}

func TestFetch_CallerMutationOfEnvelopeDoesNotLeakIntoState(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(10000, "tok-abc", organizerLine(2)), nil)

	env, err := s.Fetch(context.Background())
	require.NoError(t, err)

	env.Data[0].Quantity = 99

	assert.Equal(t, 2, s.QuantityOf(42))
	assert.Equal(t, 2, s.ItemCount())
}

func TestFetch_FailureSettlesInitializedAndKeepsState(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "", organizerLine(2)), nil).Once()
	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	backend.On("GetCart", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, apperrors.NoResponse(context.DeadlineExceeded)).Once()
	_, err = s.Fetch(ctx)
	require.Error(t, err)

	assert.True(t, s.Initialized())
	assert.False(t, s.Loading())

	// Failure leaves the last known good cart on display.
	assert.Equal(t, int64(100), s.Total())
	assert.Equal(t, 2, s.ItemCount())

	msg, ok := s.ConsumeError()
	require.True(t, ok)
	assert.Equal(t, "no response from server", msg)
}

// --- Init ---

func TestInit_FetchesOnceAndCreatesGuestToken(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(0, ""), nil).Once()

	require.NoError(t, s.Init(ctx))

	// An empty session without a server-issued token mints one locally.
	assert.NotEmpty(t, s.GuestToken())
	assert.True(t, s.Initialized())

	// A second Init is a no-op: the fetch is guarded by the initialized flag.
	require.NoError(t, s.Init(ctx))
	backend.AssertNumberOfCalls(t, "GetCart", 1)
}

func TestInit_DoesNotMintTokenWhenCartHasItems(t *testing.T) {
	backend := new(mockCartAPI)
	store := storage.NewMemoryStore()
	tokens := token.NewManager(store, newTestLogger())
	s := NewSynchronizer(backend, tokens, store, newTestLogger())
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "", organizerLine(2)), nil).Once()

	require.NoError(t, s.Init(ctx))

	// Items imply an existing server cart keyed some other way, so no guest
	// token is invented for it.
	assert.Empty(t, tokens.Get(ctx))
}

// --- AddToCart ---

func TestAddToCart_CreatesTokenAndReplacesState(t *testing.T) {
	backend := new(mockCartAPI)
	s, store := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("AddToCart", mock.Anything, mock.AnythingOfType("string"), api.AddToCartRequest{ProductID: 42, Quantity: 2}).
		Return(itemEnvelope(100, "", organizerLine(2)), nil)

	env, err := s.AddToCart(ctx, 42, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(100), env.Total)
	assert.Equal(t, 2, s.QuantityOf(42))
	assert.True(t, s.Contains(42))

	// A guest token was minted before the request went out.
	tok, err := store.Get(ctx, token.StorageKey)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, tok, backend.Calls[0].Arguments.String(1))

	backend.AssertExpectations(t)
}

func TestAddToCart_RejectsInvalidInputBeforeRequest(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)

	_, err := s.AddToCart(context.Background(), 42, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	backend.AssertNotCalled(t, "AddToCart", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddToCart_FailureKeepsLocalState(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("AddToCart", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(itemEnvelope(100, "", organizerLine(2)), nil).Once()
	_, err := s.AddToCart(ctx, 42, 2)
	require.NoError(t, err)

	backend.On("AddToCart", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, apperrors.InvalidInput("not enough stock for this product")).Once()
	_, err = s.AddToCart(ctx, 42, 99)
	require.Error(t, err)

	assert.Equal(t, 2, s.QuantityOf(42))
	assert.Equal(t, int64(100), s.Total())

	msg, ok := s.ConsumeError()
	require.True(t, ok)
	assert.Equal(t, "not enough stock for this product", msg)
}

// --- UpdateQuantity ---

func TestUpdateQuantity_ReplacesStateWithServerResponse(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)
	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	backend.On("UpdateItemQuantity", mock.Anything, "tok-abc", int64(1), 5).
		Return(itemEnvelope(250, "", organizerLine(5)), nil)

	_, err = s.UpdateQuantity(ctx, 1, 5)
	require.NoError(t, err)

	assert.Equal(t, 5, s.QuantityOf(42))
	assert.Equal(t, int64(250), s.Total())

	backend.AssertExpectations(t)
}

func TestUpdateQuantity_ZeroBecomesRemove(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)
	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	backend.On("RemoveItem", mock.Anything, "tok-abc", int64(1)).
		Return(itemEnvelope(0, ""), nil)

	_, err = s.UpdateQuantity(ctx, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, s.ItemCount())
	assert.Equal(t, int64(0), s.Total())

	backend.AssertNotCalled(t, "UpdateItemQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)

	_, err := s.UpdateQuantity(context.Background(), 99, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	backend.AssertNotCalled(t, "UpdateItemQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- RemoveItem / ClearCart ---

func TestRemoveItem(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)
	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	backend.On("RemoveItem", mock.Anything, "tok-abc", int64(1)).
		Return(itemEnvelope(0, ""), nil)

	_, err = s.RemoveItem(ctx, 1)
	require.NoError(t, err)

	assert.False(t, s.Contains(42))
	assert.Equal(t, int64(0), s.Total())
}

func TestClearCart(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)
	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	backend.On("ClearCart", mock.Anything, "tok-abc").
		Return(itemEnvelope(0, ""), nil)

	_, err = s.ClearCart(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, s.ItemCount())
	assert.Equal(t, int64(0), s.Total())
	// Clearing items does not clear the session token.
	assert.Equal(t, "tok-abc", s.GuestToken())
}

// --- MergeGuestCart ---

func TestMergeGuestCart_ClearsTokenOnSuccess(t *testing.T) {
	backend := new(mockCartAPI)
	s, store := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)
	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	customerID := int64(1)
	merged := organizerLine(2)
	merged.CustomerID = &customerID
	backend.On("MergeCart", mock.Anything, "tok-abc").
		Return(itemEnvelope(100, "", merged), nil)

	_, err = s.MergeGuestCart(ctx)
	require.NoError(t, err)

	assert.Empty(t, s.GuestToken())
	_, err = store.Get(ctx, token.StorageKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	assert.Equal(t, 2, s.ItemCount())
}

func TestMergeGuestCart_NoToken(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)

	_, err := s.MergeGuestCart(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	backend.AssertNotCalled(t, "MergeCart", mock.Anything, mock.Anything)
}

func TestMergeGuestCart_FailureKeepsToken(t *testing.T) {
	backend := new(mockCartAPI)
	s, store := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)
	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	backend.On("MergeCart", mock.Anything, "tok-abc").
		Return(nil, apperrors.NoResponse(context.DeadlineExceeded))

	_, err = s.MergeGuestCart(ctx)
	require.Error(t, err)

	// Merge can be retried with the same token.
	assert.Equal(t, "tok-abc", s.GuestToken())
	persisted, serr := store.Get(ctx, token.StorageKey)
	require.NoError(t, serr)
	assert.Equal(t, "tok-abc", persisted)
}

// --- Error delivery ---

func TestConsumeError_OneShot(t *testing.T) {
	backend := new(mockCartAPI)
	s, _ := newTestSync(t, backend)

	backend.On("GetCart", mock.Anything, "").
		Return(nil, apperrors.NoResponse(context.DeadlineExceeded))

	_, err := s.Fetch(context.Background())
	require.Error(t, err)

	msg, ok := s.ConsumeError()
	require.True(t, ok)
	assert.Equal(t, "no response from server", msg)

	_, ok = s.ConsumeError()
	assert.False(t, ok, "a consumed error is not re-delivered")
}

func TestNotifier_ErrorDeliveredExactlyOnce(t *testing.T) {
	backend := new(mockCartAPI)
	notifier := &recordingNotifier{}
	s, _ := newTestSync(t, backend, WithNotifier(notifier))

	backend.On("GetCart", mock.Anything, "").
		Return(nil, apperrors.NoResponse(context.DeadlineExceeded))

	_, err := s.Fetch(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"error: no response from server"}, notifier.all())

	// The notifier consumed the error; polling finds nothing.
	_, ok := s.ConsumeError()
	assert.False(t, ok)
}

func TestNotifier_SuccessMessages(t *testing.T) {
	backend := new(mockCartAPI)
	notifier := &recordingNotifier{}
	s, _ := newTestSync(t, backend, WithNotifier(notifier))
	ctx := context.Background()

	backend.On("AddToCart", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)
	backend.On("ClearCart", mock.Anything, "tok-abc").
		Return(itemEnvelope(0, ""), nil)

	_, err := s.AddToCart(ctx, 42, 2)
	require.NoError(t, err)
	_, err = s.ClearCart(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"success: item added to cart",
		"success: cart cleared",
	}, notifier.all())
}

func TestNotifier_NoSuccessMessageForFetch(t *testing.T) {
	backend := new(mockCartAPI)
	notifier := &recordingNotifier{}
	s, _ := newTestSync(t, backend, WithNotifier(notifier))

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(0, ""), nil)

	_, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notifier.all())
}

// --- Persistence ---

func TestSnapshot_PersistedAndRehydrated(t *testing.T) {
	backend := new(mockCartAPI)
	store := storage.NewMemoryStore()
	tokens := token.NewManager(store, newTestLogger())
	s := NewSynchronizer(backend, tokens, store, newTestLogger())
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)
	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	// A new synchronizer over the same store sees the last known cart.
	s2 := NewSynchronizer(new(mockCartAPI), token.NewManager(store, newTestLogger()), store, newTestLogger())

	assert.Equal(t, int64(100), s2.Total())
	assert.Equal(t, 2, s2.ItemCount())
	assert.Equal(t, "tok-abc", s2.GuestToken())
	assert.False(t, s2.Initialized(), "rehydrated state still requires a fetch")
}

func TestNewSynchronizer_DiscardsCorruptSnapshot(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), SnapshotKey, "{corrupt"))

	s := NewSynchronizer(new(mockCartAPI), token.NewManager(store, newTestLogger()), store, newTestLogger())

	assert.Equal(t, 0, s.ItemCount())
	assert.Equal(t, int64(0), s.Total())
}

func TestReset_DiscardsEverything(t *testing.T) {
	backend := new(mockCartAPI)
	s, store := newTestSync(t, backend)
	ctx := context.Background()

	backend.On("GetCart", mock.Anything, "").
		Return(itemEnvelope(100, "tok-abc", organizerLine(2)), nil)
	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	s.Reset(ctx)

	assert.Equal(t, 0, s.ItemCount())
	assert.Equal(t, int64(0), s.Total())
	assert.Empty(t, s.GuestToken())
	assert.False(t, s.Initialized())

	_, err = store.Get(ctx, SnapshotKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	_, err = store.Get(ctx, token.StorageKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

// --- Serialization ---

// overlapDetector fails the test if two backend calls are ever in flight at
// the same time.
type overlapDetector struct {
	t        *testing.T
	mu       sync.Mutex
	inFlight int
	calls    int
}

func (d *overlapDetector) enter() {
	d.mu.Lock()
	d.inFlight++
	d.calls++
	if d.inFlight > 1 {
		d.t.Error("concurrent backend calls detected")
	}
	d.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	d.mu.Lock()
	d.inFlight--
	d.mu.Unlock()
}

func (d *overlapDetector) GetCart(context.Context, string) (*api.CartEnvelope, error) {
	d.enter()
	return itemEnvelope(100, "tok-abc", organizerLine(2)), nil
}

func (d *overlapDetector) AddToCart(context.Context, string, api.AddToCartRequest) (*api.CartEnvelope, error) {
	d.enter()
	return itemEnvelope(100, "tok-abc", organizerLine(2)), nil
}

func (d *overlapDetector) UpdateItemQuantity(_ context.Context, _ string, _ int64, quantity int) (*api.CartEnvelope, error) {
	d.enter()
	return itemEnvelope(int64(quantity)*5000, "", organizerLine(quantity)), nil
}

func (d *overlapDetector) RemoveItem(context.Context, string, int64) (*api.CartEnvelope, error) {
	d.enter()
	return itemEnvelope(0, ""), nil
}

func (d *overlapDetector) ClearCart(context.Context, string) (*api.CartEnvelope, error) {
	d.enter()
	return itemEnvelope(0, ""), nil
}

func (d *overlapDetector) MergeCart(context.Context, string) (*api.CartEnvelope, error) {
	d.enter()
	return itemEnvelope(0, ""), nil
}

func TestDispatch_SerializesConcurrentMutations(t *testing.T) {
	detector := &overlapDetector{t: t}
	s, _ := newTestSync(t, detector)
	ctx := context.Background()

	_, err := s.Fetch(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_, _ = s.UpdateQuantity(ctx, 1, qty)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 9, detector.calls)

	// Whatever order won, state matches the last applied server response.
	assert.Equal(t, int64(s.QuantityOf(42))*5000, s.Total())
}
