package upstream

import "time"

// User is the canonical account shape returned by the auth endpoints.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	LoyaltyPoints int    `json:"loyaltyPoints"`
}

type AuthResult struct {
	User  User
	Token string
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// MenuFilter narrows ListMenuItems. Empty fields are not sent.
type MenuFilter struct {
	Category string
	Search   string
}

// CartItem is one line of the server-side cart.
type CartItem struct {
	ItemID         string
	Name           string
	Description    string
	Price          float64
	Image          string
	Category       string
	Quantity       int
	Customizations map[string]string
	AddedAt        *time.Time
}

// CartLineRequest is the merge payload entry sent to the cart sync endpoint.
type CartLineRequest struct {
	ItemID         string            `json:"itemId"`
	Quantity       int               `json:"quantity"`
	Customizations map[string]string `json:"customizations"`
	AddedAt        time.Time         `json:"addedAt"`
}

type OrderItem struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderRequest is sent both to order creation and to payment session creation.
type OrderRequest struct {
	Items               []OrderItem `json:"items"`
	OrderType           string      `json:"orderType"`
	CustomerName        string      `json:"customerName"`
	ContactPhone        string      `json:"contactPhone"`
	DeliveryAddress     string      `json:"deliveryAddress,omitempty"`
	Notes               string      `json:"notes,omitempty"`
	PaymentMethod       string      `json:"paymentMethod"`
	Status              string      `json:"status,omitempty"`
	Subtotal            float64     `json:"subtotal"`
	Total               float64     `json:"total"`
	UseLoyaltyPoints    bool        `json:"useLoyaltyPoints"`
	PointsUsed          int         `json:"pointsUsed"`
	DiscountAmount      float64     `json:"discountAmount"`
	LoyaltyPointsEarned int         `json:"loyaltyPointsEarned"`
	SuccessURL          string      `json:"successUrl,omitempty"`
	CancelURL           string      `json:"cancelUrl,omitempty"`
}

type Order struct {
	ID                  string      `json:"id"`
	Status              string      `json:"status"`
	Items               []OrderItem `json:"items"`
	OrderType           string      `json:"orderType,omitempty"`
	PaymentMethod       string      `json:"paymentMethod,omitempty"`
	CustomerName        string      `json:"customerName,omitempty"`
	ContactPhone        string      `json:"contactPhone,omitempty"`
	DeliveryAddress     string      `json:"deliveryAddress,omitempty"`
	Notes               string      `json:"notes,omitempty"`
	Subtotal            float64     `json:"subtotal"`
	Total               float64     `json:"total"`
	PointsUsed          int         `json:"pointsUsed"`
	DiscountAmount      float64     `json:"discountAmount"`
	LoyaltyPointsEarned int         `json:"loyaltyPointsEarned"`
	CreatedAt           *time.Time  `json:"createdAt,omitempty"`
}

type PaymentSession struct {
	URL     string `json:"url"`
	OrderID string `json:"orderId"`
}

type PaymentStatus struct {
	Paid   bool   `json:"paid"`
	Status string `json:"status,omitempty"`
	Order  *Order `json:"order,omitempty"`
}
