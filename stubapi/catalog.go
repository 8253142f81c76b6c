package stubapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront-go/api"
	"github.com/utafrali/storefront-go/validator"
)

// seed populates the catalog with a few products and promo codes.
func (s *Server) seed() {
	now := time.Now().UTC()

	s.products[42] = api.Product{
		ID:          42,
		Name:        api.LocalizedText{EN: "Walnut Desk Organizer", AR: "منظم مكتب من خشب الجوز"},
		Description: api.LocalizedText{EN: "Handmade walnut organizer with felt lining.", AR: "منظم يدوي الصنع من خشب الجوز"},
		Image:       "https://img.example.com/products/42.jpg",
		Price:       5000,
		Stock:       25,
		Status:      "active",
		Specifications: map[string]string{
			"material": "walnut",
			"finish":   "oil",
		},
		Variants:  []api.ProductVariant{{ID: 1, Color: "natural", Image: "https://img.example.com/products/42-natural.jpg"}},
		CreatedAt: now,
	}
	s.products[7] = api.Product{
		ID:          7,
		Name:        api.LocalizedText{EN: "Ceramic Mug", AR: "كوب سيراميك"},
		Description: api.LocalizedText{EN: "Stoneware mug, 350ml.", AR: "كوب من الفخار الحجري"},
		Image:       "https://img.example.com/products/7.jpg",
		Price:       1500,
		Stock:       100,
		Status:      "active",
		Variants:    []api.ProductVariant{{ID: 2, Color: "white", Image: "https://img.example.com/products/7-white.jpg"}},
		CreatedAt:   now,
	}

	s.promos["WELCOME10"] = api.PromoCode{
		ID:        1,
		Code:      "WELCOME10",
		Type:      api.PromoTypePercentage,
		Value:     10,
		Uses:      0,
		IsActive:  true,
		CreatedAt: now,
	}

	s.seedContent()
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]api.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid product id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

func (s *Server) listPromoCodes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]api.PromoCode, 0, len(s.promos))
	for _, p := range s.promos {
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) redeemPromoCode(w http.ResponseWriter, r *http.Request) {
	var req api.RedeemPromoCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	promo, ok := s.promos[req.Code]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "promo code not found")
		return
	}
	if !promo.IsActive {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "promo code is no longer active")
		return
	}
	if promo.ExpiresAt != nil && promo.ExpiresAt.Before(time.Now().UTC()) {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "promo code has expired")
		return
	}

	promo.Uses++
	s.promos[req.Code] = promo
	writeJSON(w, http.StatusOK, map[string]any{"data": promo})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req api.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}
	if err := validator.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tok := r.Header.Get(api.CartTokenHeader)
	items := s.carts[tok]
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "cart is empty")
		return
	}

	now := time.Now().UTC()
	orderItems := make([]api.OrderItem, len(items))
	var total int64
	for i, item := range items {
		image := ""
		if item.Product.Image != nil {
			image = *item.Product.Image
		}
		orderItems[i] = api.OrderItem{
			ID:           item.ID,
			ProductName:  item.Product.Name,
			ProductImage: image,
			Price:        item.Product.SellPrice,
			Quantity:     item.Quantity,
		}
		total += item.Product.SellPrice * int64(item.Quantity)
	}

	order := api.Order{
		ID:        s.nextOrdID,
		OrderCode: fmt.Sprintf("ORD-%06d", s.nextOrdID),
		Status:    api.OrderPending,
		TrackingHistory: []api.OrderTracking{
			{ID: 1, Status: api.OrderPending, Description: "order received", EventDate: now},
		},
		Customer: api.OrderCustomer{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		},
		ShippingAddress: api.OrderAddress{Address: req.Address, City: req.City},
		Financials:      api.OrderFinancials{GrandTotal: total},
		Items:           orderItems,
		CreatedAt:       now,
	}
	s.nextOrdID++
	s.orders[order.OrderCode] = order

	// Checkout consumes the cart.
	delete(s.carts, tok)

	writeJSON(w, http.StatusCreated, map[string]any{"data": order})
}

func (s *Server) trackOrder(w http.ResponseWriter, r *http.Request) {
	var req api.TrackOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[req.OrderCode]
	if !ok || order.Customer.Email != req.Email {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no order matches that code and email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": order})
}

func (s *Server) contactMessage(w http.ResponseWriter, r *http.Request) {
	var req api.ContactMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}
	if err := validator.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "thanks, we received your message"})
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": api.AppSettings{
		General: api.GeneralSettings{
			AppName:      "Storefront",
			AppURL:       "https://store.example.com",
			SupportEmail: "support@store.example.com",
		},
		Contact: api.ContactSettings{
			PublicEmail:    "hello@store.example.com",
			WhatsappNumber: "+200000000000",
		},
		Store: api.StoreSettings{
			EnablePromoCodes: true,
			DeliveryFee:      500,
		},
	}})
}
