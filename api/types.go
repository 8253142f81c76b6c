package api

import "time"

// CartProduct is the product display snapshot embedded in a cart line item at
// read time. Prices are in cents.
type CartProduct struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Image     *string `json:"image"`
	SellPrice int64   `json:"sell_price"`
	Stock     int     `json:"stock"`
	IsPublic  bool    `json:"is_public"`
	Status    string  `json:"status"`
}

// CartItem is one product line in a cart. Exactly one of CustomerID and
// GuestCartToken is set, depending on whether the cart has been merged into
// an authenticated account.
type CartItem struct {
	ID             int64       `json:"id"`
	ProductID      int64       `json:"product_id"`
	Quantity       int         `json:"quantity"`
	CustomerID     *int64      `json:"customer_id"`
	GuestCartToken *string     `json:"guest_cart_token"`
	Product        CartProduct `json:"product"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// CartEnvelope is the response shape shared by every cart endpoint: the full
// server-side view of the cart plus a guest token when the server issued one.
type CartEnvelope struct {
	Data           []CartItem `json:"data"`
	Total          int64      `json:"total"`
	GuestCartToken string     `json:"guest_cart_token,omitempty"`
}

// AddToCartRequest is the body for POST /cart.
type AddToCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityRequest is the body for PUT /cart/items/{id}.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

// LocalizedText holds a string in the storefront's supported languages.
type LocalizedText struct {
	EN string `json:"en"`
	AR string `json:"ar"`
}

// ProductVariant is a color/image variant of a product.
type ProductVariant struct {
	ID    int64  `json:"id"`
	Color string `json:"color"`
	Image string `json:"image"`
}

// Product is a storefront catalog entry.
type Product struct {
	ID             int64             `json:"id"`
	Name           LocalizedText     `json:"name"`
	Description    LocalizedText     `json:"description"`
	Image          string            `json:"image"`
	Price          int64             `json:"price"`
	Discount       *int64            `json:"discount,omitempty"`
	DiscountType   string            `json:"discount_type,omitempty"`
	Stock          int               `json:"stock"`
	Status         string            `json:"status"`
	Specifications map[string]string `json:"specifications"`
	Variants       []ProductVariant  `json:"variants"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Promo code discount kinds.
const (
	PromoTypePercentage = "percentage"
	PromoTypeFixed      = "fixed"
)

// PromoCode is a redeemable discount code.
type PromoCode struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Type      string     `json:"type"`
	Value     int64      `json:"value"`
	MaxUses   *int       `json:"max_uses,omitempty"`
	Uses      int        `json:"uses"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// RedeemPromoCodeRequest is the body for POST /promo-codes/redeem-code.
type RedeemPromoCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderItem is one product line in a placed order.
type OrderItem struct {
	ID           int64  `json:"id"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
	Color        string `json:"color,omitempty"`
	Size         string `json:"size,omitempty"`
}

// OrderTracking is one event in an order's tracking history.
type OrderTracking struct {
	ID          int64       `json:"id"`
	Status      OrderStatus `json:"status"`
	Location    string      `json:"location,omitempty"`
	Description string      `json:"description"`
	EventDate   time.Time   `json:"event_date"`
}

// OrderCustomer is the customer contact block of an order.
type OrderCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// OrderAddress is the shipping destination of an order.
type OrderAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
}

// OrderFinancials holds the computed money fields of an order.
type OrderFinancials struct {
	GrandTotal int64 `json:"grand_total"`
}

// Order is a placed order with its tracking history.
type Order struct {
	ID              int64           `json:"id"`
	OrderCode       string          `json:"order_code"`
	Status          OrderStatus     `json:"status"`
	TrackingHistory []OrderTracking `json:"tracking_history"`
	Customer        OrderCustomer   `json:"customer"`
	ShippingAddress OrderAddress    `json:"shipping_address"`
	Financials      OrderFinancials `json:"financials"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CreateOrderRequest is the checkout payload for POST /orders. The order is
// built server-side from the cart attached to the request's cart token.
type CreateOrderRequest struct {
	FirstName        string  `json:"first_name" validate:"required"`
	LastName         string  `json:"last_name" validate:"required"`
	Email            string  `json:"email" validate:"required,email"`
	Phone            string  `json:"phone" validate:"required"`
	SecondaryPhone   *string `json:"secondary_phone"`
	Address          string  `json:"address" validate:"required"`
	SecondaryAddress *string `json:"secondary_address"`
	City             string  `json:"city" validate:"required"`
	SpecialMark      *string `json:"special_mark"`
	PromoCode        *string `json:"promo_code"`
}

// TrackOrderRequest is the body for POST /track-order.
type TrackOrderRequest struct {
	Email     string `json:"email" validate:"required,email"`
	OrderCode string `json:"order_code" validate:"required"`
}

// ContactMessageRequest is the body for POST /contact-messages.
type ContactMessageRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Subject  string `json:"subject" validate:"required"`
	Message  string `json:"message" validate:"required,min=10"`
}

// FAQCategory groups FAQ entries for display ordering.
type FAQCategory struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// FAQ is one question/answer entry on the FAQ page. Position is served as a
// string by the backend.
type FAQ struct {
	ID            int64  `json:"id"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Position      string `json:"position"`
	FAQCategoryID int64  `json:"faq_category_id"`
}

// Policy is a store policy document (shipping, returns, privacy), addressed
// by slug.
type Policy struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TestimonialProduct is the product reference attached to a testimonial.
// The product may have been removed since the review was written.
type TestimonialProduct struct {
	ID       *int64 `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// Testimonial is a published customer review shown on the public site.
type Testimonial struct {
	ID       int64              `json:"id"`
	Name     string             `json:"name"`
	Location *string            `json:"location"`
	Review   string             `json:"review"`
	Product  TestimonialProduct `json:"product"`
}

// GeneralSettings holds store-wide settings.
type GeneralSettings struct {
	AppName            string `json:"app_name"`
	AppURL             string `json:"app_url"`
	LogoURL            string `json:"logo_url,omitempty"`
	SupportEmail       string `json:"support_email"`
	MaintenanceMode    bool   `json:"maintenance_mode"`
	MaintenanceMessage string `json:"maintenance_message,omitempty"`
	CopyrightText      string `json:"copyright_text,omitempty"`
}

// ContactSettings holds the store's public contact channels.
type ContactSettings struct {
	PublicEmail    string `json:"public_email"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	WhatsappNumber string `json:"whatsapp_number,omitempty"`
	AddressLine1   string `json:"address_line_1,omitempty"`
	WorkingHours   string `json:"working_hours,omitempty"`
}

// StoreSettings holds commerce behavior switches.
type StoreSettings struct {
	EnablePromoCodes bool  `json:"enable_promo_codes"`
	DeliveryFee      int64 `json:"delivery_fee"`
}

// AppSettings is the full settings document served by GET /settings.
type AppSettings struct {
	General GeneralSettings `json:"general"`
	Contact ContactSettings `json:"contact"`
	Store   StoreSettings   `json:"store"`
}
