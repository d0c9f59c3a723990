package cart

// AddItemRequest adds Quantity units of a menu item. Quantity defaults to 1.
type AddItemRequest struct {
	ItemID   string `json:"itemId" validate:"required,max=128"`
	Quantity int    `json:"quantity" validate:"gte=0,lte=99"`
}

// SetQuantityRequest sets the exact quantity of a line; 0 removes it.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=99"`
}
