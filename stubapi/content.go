package stubapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront-go/api"
)

// seedContent populates the static site content: FAQ entries, policy
// documents and testimonials.
func (s *Server) seedContent() {
	now := time.Now().UTC()

	s.faqCategories = []api.FAQCategory{
		{ID: 1, Name: "Orders & Shipping", Position: 1},
		{ID: 2, Name: "Returns", Position: 2},
	}
	s.faqs = []api.FAQ{
		{ID: 1, Question: "How long does delivery take?", Answer: "Orders ship within 2 business days and arrive within 5.", Position: "1", FAQCategoryID: 1},
		{ID: 2, Question: "Do you ship internationally?", Answer: "Not yet; we currently deliver domestically only.", Position: "2", FAQCategoryID: 1},
		{ID: 3, Question: "How do I return an item?", Answer: "Contact support within 14 days of delivery with your order code.", Position: "1", FAQCategoryID: 2},
	}

	s.policies = []api.Policy{
		{ID: 1, Slug: "shipping-policy", Title: "Shipping Policy", Content: "We ship every order within 2 business days.", UpdatedAt: now},
		{ID: 2, Slug: "return-policy", Title: "Return Policy", Content: "Items can be returned within 14 days of delivery.", UpdatedAt: now},
		{ID: 3, Slug: "privacy-policy", Title: "Privacy Policy", Content: "We only store the data needed to fulfil your order.", UpdatedAt: now},
	}

	productID := int64(42)
	s.testimonials = []api.Testimonial{
		{
			ID:      1,
			Name:    "Nora Hassan",
			Review:  "The desk organizer is beautifully finished.",
			Product: api.TestimonialProduct{ID: &productID, Name: "Walnut Desk Organizer", IsActive: true},
		},
		{
			ID:      2,
			Name:    "Omar Said",
			Review:  "Fast delivery and great packaging.",
			Product: api.TestimonialProduct{Name: "Discontinued Tray", IsActive: false},
		},
	}
}

func (s *Server) listFAQCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.faqCategories})
}

func (s *Server) listFAQs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.faqs})
}

func (s *Server) listPolicies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.policies})
}

func (s *Server) getPolicyBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	for _, p := range s.policies {
		if p.Slug == slug {
			writeJSON(w, http.StatusOK, map[string]any{"data": p})
			return
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "policy not found")
}

func (s *Server) listTestimonials(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.testimonials})
}
