package upstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnrecognizedShape is returned when a payload matches none of the accepted
// upstream shapes.
var ErrUnrecognizedShape = errors.New("unrecognized upstream payload shape")

type object map[string]json.RawMessage

func shapeError(family string, raw json.RawMessage) error {
	snippet := strings.TrimSpace(string(raw))
	if len(snippet) > 80 {
		snippet = snippet[:80] + "..."
	}
	return fmt.Errorf("%w: %s: %s", ErrUnrecognizedShape, family, snippet)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func asObject(raw json.RawMessage) (object, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj object
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if !isArray(raw) {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// str reads the first key holding a string or number.
func (o object) str(keys ...string) string {
	for _, key := range keys {
		raw, ok := o[key]
		if !ok || isNull(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// num reads the first key holding a number or numeric string.
func (o object) num(keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := o[key]
		if !ok || isNull(raw) {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return f, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

func (o object) integer(keys ...string) int {
	f, _ := o.num(keys...)
	return int(f)
}

func (o object) boolean(key string) (bool, bool) {
	raw, ok := o[key]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

func (o object) timestamp(keys ...string) *time.Time {
	for _, key := range keys {
		raw, ok := o[key]
		if !ok || isNull(raw) {
			continue
		}
		var t time.Time
		if err := json.Unmarshal(raw, &t); err == nil && !t.IsZero() {
			return &t
		}
	}
	return nil
}

// nested returns the first key that holds an object.
func (o object) nested(keys ...string) (object, bool) {
	for _, key := range keys {
		if raw, ok := o[key]; ok {
			if inner, ok := asObject(raw); ok {
				return inner, true
			}
		}
	}
	return nil, false
}

// list returns the first key that holds an array.
func (o object) list(keys ...string) ([]json.RawMessage, bool) {
	for _, key := range keys {
		if raw, ok := o[key]; ok {
			if items, ok := asArray(raw); ok {
				return items, true
			}
		}
	}
	return nil, false
}

func (o object) id() string {
	return o.str("_id", "id")
}

// NormalizeUser accepts {user:{...}}, {data:{...}} and a flat user object.
func NormalizeUser(raw json.RawMessage) (User, error) {
	obj, ok := asObject(raw)
	if !ok {
		return User{}, shapeError("user", raw)
	}
	if inner, ok := obj.nested("user", "data"); ok {
		if nestedUser, ok := inner.nested("user"); ok {
			inner = nestedUser
		}
		obj = inner
	}
	user := User{
		ID:            obj.id(),
		Username:      obj.str("username", "name"),
		Email:         obj.str("email"),
		Phone:         obj.str("phone"),
		Address:       obj.str("address"),
		LoyaltyPoints: obj.integer("loyaltyPoints", "points"),
	}
	if user.ID == "" && user.Email == "" {
		return User{}, shapeError("user", raw)
	}
	if user.LoyaltyPoints < 0 {
		user.LoyaltyPoints = 0
	}
	return user, nil
}

// NormalizeAuth accepts a token next to a nested or flat user, optionally
// wrapped in a data envelope.
func NormalizeAuth(raw json.RawMessage) (AuthResult, error) {
	obj, ok := asObject(raw)
	if !ok {
		return AuthResult{}, shapeError("auth", raw)
	}
	if inner, ok := obj.nested("data"); ok && inner.str("token", "accessToken") != "" {
		obj = inner
	}
	token := obj.str("token", "accessToken")
	if token == "" {
		return AuthResult{}, shapeError("auth", raw)
	}
	encoded, err := json.Marshal(obj)
	if err != nil {
		return AuthResult{}, err
	}
	user, err := NormalizeUser(encoded)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Token: token}, nil
}

// NormalizeCart accepts {cart:{items}}, {cart:[...]}, {items}, {lines}, a bare
// array and null. Entries reference the menu item either by id or by an
// embedded menuItem object.
func NormalizeCart(raw json.RawMessage) ([]CartItem, error) {
	if isNull(raw) {
		return []CartItem{}, nil
	}
	entries, err := cartEntries(raw, 0)
	if err != nil {
		return nil, err
	}
	items := make([]CartItem, 0, len(entries))
	for _, entry := range entries {
		obj, ok := asObject(entry)
		if !ok {
			return nil, shapeError("cart item", entry)
		}
		item := cartItemFrom(obj)
		if item.ItemID == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func cartEntries(raw json.RawMessage, depth int) ([]json.RawMessage, error) {
	if isNull(raw) {
		return nil, nil
	}
	if items, ok := asArray(raw); ok {
		return items, nil
	}
	obj, ok := asObject(raw)
	if !ok || depth > 2 {
		return nil, shapeError("cart", raw)
	}
	if items, ok := obj.list("items", "lines", "cartItems"); ok {
		return items, nil
	}
	for _, key := range []string{"cart", "data"} {
		if inner, ok := obj[key]; ok {
			return cartEntries(inner, depth+1)
		}
	}
	if _, ok := obj["items"]; ok {
		// {items: null} is an empty cart.
		return nil, nil
	}
	return nil, shapeError("cart", raw)
}

func cartItemFrom(obj object) CartItem {
	item := CartItem{
		ItemID:      obj.str("itemId", "menuItemId"),
		Name:        obj.str("name"),
		Description: obj.str("description"),
		Image:       obj.str("image"),
		Category:    categoryName(obj),
		Quantity:    obj.integer("quantity", "qty"),
		AddedAt:     obj.timestamp("addedAt"),
	}
	if price, ok := obj.num("price", "unitPrice"); ok {
		item.Price = price
	}

	if menu, ok := obj.nested("menuItem", "item"); ok {
		if item.ItemID == "" {
			item.ItemID = menu.id()
		}
		if item.Name == "" {
			item.Name = menu.str("name")
		}
		if item.Description == "" {
			item.Description = menu.str("description")
		}
		if item.Image == "" {
			item.Image = menu.str("image")
		}
		if item.Category == "" {
			item.Category = categoryName(menu)
		}
		if item.Price == 0 {
			item.Price, _ = menu.num("price")
		}
	} else if item.ItemID == "" {
		item.ItemID = obj.str("menuItem", "item")
	}
	if item.ItemID == "" {
		item.ItemID = obj.id()
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	item.Customizations = customizationsFrom(obj["customizations"])
	return item
}

func customizationsFrom(raw json.RawMessage) map[string]string {
	obj, ok := asObject(raw)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for key := range obj {
		if value := obj.str(key); value != "" {
			out[key] = value
			continue
		}
		if b, ok := obj.boolean(key); ok {
			out[key] = strconv.FormatBool(b)
		}
	}
	return out
}

func categoryName(obj object) string {
	if inner, ok := obj.nested("category"); ok {
		return inner.str("name", "_id", "id")
	}
	return obj.str("category")
}

// NormalizeMenuItems accepts a bare array or {items|menuItems|menu|data}.
func NormalizeMenuItems(raw json.RawMessage) ([]MenuItem, error) {
	entries, err := listEntries("menu items", raw, "items", "menuItems", "menu", "data")
	if err != nil {
		return nil, err
	}
	items := make([]MenuItem, 0, len(entries))
	for _, entry := range entries {
		obj, ok := asObject(entry)
		if !ok {
			return nil, shapeError("menu item", entry)
		}
		item := MenuItem{
			ID:          obj.id(),
			Name:        obj.str("name"),
			Description: obj.str("description"),
			Image:       obj.str("image"),
			Category:    categoryName(obj),
		}
		item.Price, _ = obj.num("price")
		if item.ID == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// NormalizeCategories accepts a bare array or {categories|data}.
func NormalizeCategories(raw json.RawMessage) ([]Category, error) {
	entries, err := listEntries("categories", raw, "categories", "data")
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(entries))
	for _, entry := range entries {
		var name string
		if err := json.Unmarshal(entry, &name); err == nil {
			name = strings.TrimSpace(name)
			if name != "" {
				out = append(out, Category{ID: name, Name: name})
			}
			continue
		}
		obj, ok := asObject(entry)
		if !ok {
			return nil, shapeError("category", entry)
		}
		cat := Category{ID: obj.id(), Name: obj.str("name"), Image: obj.str("image")}
		if cat.ID == "" {
			cat.ID = cat.Name
		}
		if cat.ID == "" {
			continue
		}
		out = append(out, cat)
	}
	return out, nil
}

// NormalizeOrder accepts {order:{...}}, {data:{...}} and a flat order object.
func NormalizeOrder(raw json.RawMessage) (Order, error) {
	obj, ok := asObject(raw)
	if !ok {
		return Order{}, shapeError("order", raw)
	}
	if inner, ok := obj.nested("order", "data"); ok {
		obj = inner
	}
	order := orderFrom(obj)
	if order.ID == "" {
		return Order{}, shapeError("order", raw)
	}
	return order, nil
}

// NormalizeOrders accepts a bare array or {orders|data}.
func NormalizeOrders(raw json.RawMessage) ([]Order, error) {
	entries, err := listEntries("orders", raw, "orders", "data")
	if err != nil {
		return nil, err
	}
	orders := make([]Order, 0, len(entries))
	for _, entry := range entries {
		obj, ok := asObject(entry)
		if !ok {
			return nil, shapeError("order", entry)
		}
		order := orderFrom(obj)
		if order.ID == "" {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func orderFrom(obj object) Order {
	order := Order{
		ID:                  obj.str("orderId", "_id", "id"),
		Status:              obj.str("status"),
		OrderType:           obj.str("orderType"),
		PaymentMethod:       obj.str("paymentMethod"),
		CustomerName:        obj.str("customerName"),
		ContactPhone:        obj.str("contactPhone", "phone"),
		DeliveryAddress:     obj.str("deliveryAddress", "address"),
		Notes:               obj.str("notes"),
		PointsUsed:          obj.integer("pointsUsed"),
		LoyaltyPointsEarned: obj.integer("loyaltyPointsEarned", "pointsEarned"),
		CreatedAt:           obj.timestamp("createdAt"),
	}
	order.Subtotal, _ = obj.num("subtotal")
	order.Total, _ = obj.num("total", "totalAmount")
	order.DiscountAmount, _ = obj.num("discountAmount", "discount")

	entries, _ := obj.list("items")
	order.Items = make([]OrderItem, 0, len(entries))
	for _, entry := range entries {
		itemObj, ok := asObject(entry)
		if !ok {
			continue
		}
		line := cartItemFrom(itemObj)
		order.Items = append(order.Items, OrderItem{
			ItemID:    line.ItemID,
			Name:      line.Name,
			UnitPrice: line.Price,
			Quantity:  line.Quantity,
		})
	}
	return order
}

// NormalizePaymentSession requires a redirect url; the order id may be named
// orderId or order_id.
func NormalizePaymentSession(raw json.RawMessage) (PaymentSession, error) {
	obj, ok := asObject(raw)
	if !ok {
		return PaymentSession{}, shapeError("payment session", raw)
	}
	if inner, ok := obj.nested("data", "session"); ok {
		obj = inner
	}
	session := PaymentSession{
		URL:     obj.str("url", "sessionUrl", "checkoutUrl"),
		OrderID: obj.str("orderId", "order_id"),
	}
	if session.URL == "" || session.OrderID == "" {
		return PaymentSession{}, shapeError("payment session", raw)
	}
	return session, nil
}

// NormalizePaymentStatus treats {paid:true} and {status:"paid"} as paid.
func NormalizePaymentStatus(raw json.RawMessage) (PaymentStatus, error) {
	obj, ok := asObject(raw)
	if !ok {
		return PaymentStatus{}, shapeError("payment status", raw)
	}
	if inner, ok := obj.nested("data"); ok {
		obj = inner
	}
	status := PaymentStatus{Status: obj.str("status", "paymentStatus")}
	paid, hasPaid := obj.boolean("paid")
	switch {
	case hasPaid:
		status.Paid = paid
	case status.Status != "":
		status.Paid = strings.EqualFold(status.Status, "paid")
	default:
		return PaymentStatus{}, shapeError("payment status", raw)
	}
	if orderObj, ok := obj.nested("order"); ok {
		order := orderFrom(orderObj)
		if order.ID != "" {
			status.Order = &order
		}
	}
	return status, nil
}

func listEntries(family string, raw json.RawMessage, keys ...string) ([]json.RawMessage, error) {
	if isNull(raw) {
		return nil, nil
	}
	if items, ok := asArray(raw); ok {
		return items, nil
	}
	obj, ok := asObject(raw)
	if !ok {
		return nil, shapeError(family, raw)
	}
	if items, ok := obj.list(keys...); ok {
		return items, nil
	}
	return nil, shapeError(family, raw)
}
