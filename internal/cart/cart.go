// Package cart shapes cart contents: it folds repeated guest-cart units into
// quantity-aggregated lines and back, and derives counts and totals.
package cart

import (
	"encoding/json"
	"strings"
	"time"
)

// Unit is one raw guest-cart entry. The guest cart stores one Unit per purchased
// unit; Quantity is only set by older payloads that carried their own count.
type Unit struct {
	ItemID      string  `json:"itemId"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category,omitempty"`
	Quantity    int     `json:"quantity,omitempty"`
}

// UnmarshalJSON accepts the legacy "_id"/"id" spellings of the item identifier.
func (u *Unit) UnmarshalJSON(data []byte) error {
	type plain Unit
	var raw struct {
		plain
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = Unit(raw.plain)
	if u.ItemID == "" {
		u.ItemID = raw.MongoID
	}
	if u.ItemID == "" {
		u.ItemID = raw.ID
	}
	u.ItemID = strings.TrimSpace(u.ItemID)
	return nil
}

// Line is one aggregated cart entry for a distinct item.
type Line struct {
	ItemID         string            `json:"itemId"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	UnitPrice      float64           `json:"unitPrice"`
	Image          string            `json:"image,omitempty"`
	Category       string            `json:"category,omitempty"`
	Quantity       int               `json:"quantity"`
	Customizations map[string]string `json:"customizations,omitempty"`
	AddedAt        *time.Time        `json:"addedAt,omitempty"`
}

// LineTotal is the undiscounted price of the line.
func (l Line) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

func (l Line) clone() Line {
	out := l
	if l.Customizations != nil {
		out.Customizations = make(map[string]string, len(l.Customizations))
		for k, v := range l.Customizations {
			out.Customizations[k] = v
		}
	}
	if l.AddedAt != nil {
		at := *l.AddedAt
		out.AddedAt = &at
	}
	return out
}

// Aggregate folds units into one line per item id, summing quantities and
// keeping the order in which items were first seen. Units without an item id
// are dropped.
func Aggregate(units []Unit) []Line {
	lines := make([]Line, 0, len(units))
	index := make(map[string]int, len(units))
	for _, unit := range units {
		id := strings.TrimSpace(unit.ItemID)
		if id == "" {
			continue
		}
		qty := unit.Quantity
		if qty <= 0 {
			qty = 1
		}
		if pos, ok := index[id]; ok {
			lines[pos].Quantity += qty
			continue
		}
		index[id] = len(lines)
		lines = append(lines, Line{
			ItemID:      id,
			Name:        unit.Name,
			Description: unit.Description,
			UnitPrice:   unit.Price,
			Image:       unit.Image,
			Category:    unit.Category,
			Quantity:    qty,
		})
	}
	return lines
}

// Flatten expands lines into one unit per purchased unit, carrying only the
// display fields.
func Flatten(lines []Line) []Unit {
	units := make([]Unit, 0, len(lines))
	for _, line := range lines {
		for i := 0; i < line.Quantity; i++ {
			units = append(units, Unit{
				ItemID:      line.ItemID,
				Name:        line.Name,
				Description: line.Description,
				Price:       line.UnitPrice,
				Image:       line.Image,
				Category:    line.Category,
			})
		}
	}
	return units
}

// SetQuantity returns a new line list with itemID's quantity replaced. A
// quantity of zero or less removes the line.
func SetQuantity(lines []Line, itemID string, quantity int) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.ItemID != itemID {
			out = append(out, line.clone())
			continue
		}
		if quantity <= 0 {
			continue
		}
		updated := line.clone()
		updated.Quantity = quantity
		out = append(out, updated)
	}
	return out
}

// AddUnits appends quantity copies of unit to units. Quantities below one add a
// single unit.
func AddUnits(units []Unit, unit Unit, quantity int) []Unit {
	if quantity <= 0 {
		quantity = 1
	}
	unit.ItemID = strings.TrimSpace(unit.ItemID)
	unit.Quantity = 0
	out := make([]Unit, 0, len(units)+quantity)
	out = append(out, units...)
	for i := 0; i < quantity; i++ {
		out = append(out, unit)
	}
	return out
}

// QuantityOf returns the quantity held for itemID, or zero.
func QuantityOf(lines []Line, itemID string) int {
	for _, line := range lines {
		if line.ItemID == itemID {
			return line.Quantity
		}
	}
	return 0
}

// MergeLines folds lines sharing an item id into the first occurrence, summing
// quantities. Lines without an item id or with a non-positive quantity are
// dropped.
func MergeLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.ItemID)
		if id == "" || line.Quantity <= 0 {
			continue
		}
		if pos, ok := index[id]; ok {
			out[pos].Quantity += line.Quantity
			continue
		}
		merged := line.clone()
		merged.ItemID = id
		index[id] = len(out)
		out = append(out, merged)
	}
	return out
}
