// Package stubapi implements an in-memory storefront backend speaking the
// same contract as the production API. It backs the SDK's integration tests
// and the local development server; it is not a production service.
package stubapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/utafrali/storefront-go/api"
)

// Server is the in-memory storefront backend.
type Server struct {
	logger *slog.Logger

	mu         sync.Mutex
	products   map[int64]api.Product
	promos     map[string]api.PromoCode
	carts      map[string][]api.CartItem // keyed by cart token
	orders     map[string]api.Order      // keyed by order code
	nextItemID int64
	nextOrdID  int64

	// static site content, read-only after seeding
	faqCategories []api.FAQCategory
	faqs          []api.FAQ
	policies      []api.Policy
	testimonials  []api.Testimonial
}

// New creates a stub backend seeded with a small catalog.
func New(logger *slog.Logger) *Server {
	s := &Server{
		logger:     logger,
		products:   make(map[int64]api.Product),
		promos:     make(map[string]api.PromoCode),
		carts:      make(map[string][]api.CartItem),
		orders:     make(map[string]api.Order),
		nextItemID: 1,
		nextOrdID:  1,
	}
	s.seed()
	return s
}

// Router returns the HTTP handler for the stub backend.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", s.getCart)
		r.Post("/", s.addToCart)
		r.Post("/clear", s.clearCart)
		r.Post("/merge", s.mergeCart)
		r.Put("/items/{itemID}", s.updateItem)
		r.Delete("/items/{itemID}", s.removeItem)
	})

	r.Get("/products", s.listProducts)
	r.Get("/products/{productID}", s.getProduct)
	r.Get("/promo-codes", s.listPromoCodes)
	r.Post("/promo-codes/redeem-code", s.redeemPromoCode)
	r.Post("/orders", s.createOrder)
	r.Post("/track-order", s.trackOrder)
	r.Post("/contact-messages", s.contactMessage)
	r.Get("/settings", s.getSettings)
	r.Get("/faq-categories", s.listFAQCategories)
	r.Get("/faqs", s.listFAQs)
	r.Get("/policies", s.listPolicies)
	r.Get("/policies/by-slug/{slug}", s.getPolicyBySlug)
	r.Get("/testimonials", s.listTestimonials)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		s.logger.Debug("stub request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	})
}

// --- cart handlers ---

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	tok := r.Header.Get(api.CartTokenHeader)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[tok]
	writeCart(w, items, s.cartTotal(items), "")
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req api.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "quantity must be at least 1")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[req.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "product not found")
		return
	}
	if product.Stock < req.Quantity {
		writeError(w, http.StatusUnprocessableEntity, "OUT_OF_STOCK", "not enough stock for this product")
		return
	}

	tok := r.Header.Get(api.CartTokenHeader)
	issued := ""
	if tok == "" {
		tok = uuid.NewString()
		issued = tok
	}

	items := s.carts[tok]
	now := time.Now().UTC()
	found := false
	for i := range items {
		if items[i].ProductID == req.ProductID {
			items[i].Quantity += req.Quantity
			items[i].UpdatedAt = now
			found = true
			break
		}
	}
	if !found {
		t := tok
		items = append(items, api.CartItem{
			ID:             s.nextItemID,
			ProductID:      req.ProductID,
			Quantity:       req.Quantity,
			GuestCartToken: &t,
			Product:        snapshotOf(product),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		s.nextItemID++
	}
	s.carts[tok] = items

	writeCart(w, items, s.cartTotal(items), issued)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid item id")
		return
	}

	var req api.UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tok := r.Header.Get(api.CartTokenHeader)
	items := s.carts[tok]
	idx := indexOfItem(items, itemID)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found")
		return
	}

	if req.Quantity < 1 {
		items = append(items[:idx], items[idx+1:]...)
	} else {
		items[idx].Quantity = req.Quantity
		items[idx].UpdatedAt = time.Now().UTC()
	}
	s.carts[tok] = items

	writeCart(w, items, s.cartTotal(items), "")
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid item id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tok := r.Header.Get(api.CartTokenHeader)
	items := s.carts[tok]
	idx := indexOfItem(items, itemID)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found")
		return
	}

	items = append(items[:idx], items[idx+1:]...)
	s.carts[tok] = items

	writeCart(w, items, s.cartTotal(items), "")
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok := r.Header.Get(api.CartTokenHeader)
	s.carts[tok] = nil

	writeCart(w, nil, 0, "")
}

func (s *Server) mergeCart(w http.ResponseWriter, r *http.Request) {
	tok := r.Header.Get(api.CartTokenHeader)
	if tok == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "cart token is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[tok]
	delete(s.carts, tok)

	// The guest lines now belong to the authenticated customer.
	customerID := int64(1)
	for i := range items {
		items[i].CustomerID = &customerID
		items[i].GuestCartToken = nil
	}
	s.carts["customer:1"] = append(s.carts["customer:1"], items...)

	merged := s.carts["customer:1"]
	writeCart(w, merged, s.cartTotal(merged), "")
}

// --- helpers ---

func (s *Server) cartTotal(items []api.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Product.SellPrice * int64(item.Quantity)
	}
	return total
}

func indexOfItem(items []api.CartItem, itemID int64) int {
	for i := range items {
		if items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func snapshotOf(p api.Product) api.CartProduct {
	img := p.Image
	return api.CartProduct{
		ID:        p.ID,
		Name:      p.Name.EN,
		Image:     &img,
		SellPrice: p.Price,
		Stock:     p.Stock,
		IsPublic:  true,
		Status:    p.Status,
	}
}

func writeCart(w http.ResponseWriter, items []api.CartItem, total int64, issuedToken string) {
	if items == nil {
		items = []api.CartItem{}
	}
	writeJSON(w, http.StatusOK, api.CartEnvelope{
		Data:           items,
		Total:          total,
		GuestCartToken: issuedToken,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}
