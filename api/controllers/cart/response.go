package cart

import (
	"time"

	cartmodel "github.com/burgnice/storefront/internal/cart"
	"github.com/burgnice/storefront/internal/cartsync"
)

// CartResponse is the cart as rendered by the storefront.
type CartResponse struct {
	Lines         []CartLine `json:"lines"`
	Count         int        `json:"count"`
	Total         float64    `json:"total"`
	DisplayTotal  string     `json:"displayTotal"`
	Authenticated bool       `json:"authenticated"`
	Merged        bool       `json:"merged,omitempty"`
	Skipped       bool       `json:"skipped,omitempty"`
}

type CartLine struct {
	ItemID           string            `json:"itemId"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	UnitPrice        float64           `json:"unitPrice"`
	Image            string            `json:"image,omitempty"`
	Category         string            `json:"category,omitempty"`
	Quantity         int               `json:"quantity"`
	Customizations   map[string]string `json:"customizations,omitempty"`
	AddedAt          *time.Time        `json:"addedAt,omitempty"`
	LineTotal        float64           `json:"lineTotal"`
	DisplayLineTotal string            `json:"displayLineTotal"`
}

// ItemQuantityResponse answers how many units of an item are in the cart.
type ItemQuantityResponse struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func newCartResponse(res *cartsync.Result) CartResponse {
	if res == nil {
		res = &cartsync.Result{}
	}
	lines := make([]CartLine, 0, len(res.Lines))
	for _, line := range res.Lines {
		total := line.LineTotal()
		lines = append(lines, CartLine{
			ItemID:           line.ItemID,
			Name:             line.Name,
			Description:      line.Description,
			UnitPrice:        line.UnitPrice,
			Image:            line.Image,
			Category:         line.Category,
			Quantity:         line.Quantity,
			Customizations:   line.Customizations,
			AddedAt:          line.AddedAt,
			LineTotal:        cartmodel.RoundAmount(total),
			DisplayLineTotal: cartmodel.FormatAmount(total),
		})
	}
	return CartResponse{
		Lines:         lines,
		Count:         res.Totals.Count,
		Total:         cartmodel.RoundAmount(res.Totals.Total),
		DisplayTotal:  res.Totals.DisplayTotal(),
		Authenticated: res.Authenticated,
		Merged:        res.Merged,
		Skipped:       res.Skipped,
	}
}
