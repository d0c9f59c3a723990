package cart

import (
	"encoding/json"
	"reflect"
	"testing"
)

func unit(id string) Unit {
	return Unit{ItemID: id, Name: "item " + id, Price: 5.5, Category: "burgers"}
}

func TestAggregateMergesDuplicatesInFirstSeenOrder(t *testing.T) {
	t.Parallel()

	lines := Aggregate([]Unit{unit("A"), unit("A"), unit("B")})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ItemID != "A" || lines[0].Quantity != 2 {
		t.Fatalf("expected A x2 first, got %+v", lines[0])
	}
	if lines[1].ItemID != "B" || lines[1].Quantity != 1 {
		t.Fatalf("expected B x1 second, got %+v", lines[1])
	}
}

func TestAggregateSumsCarriedQuantitiesAndDropsMissingIDs(t *testing.T) {
	t.Parallel()

	withQty := unit("A")
	withQty.Quantity = 3
	lines := Aggregate([]Unit{unit("B"), withQty, {ItemID: ""}, {ItemID: "   "}, unit("A")})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", lines)
	}
	if lines[0].ItemID != "B" || lines[1].ItemID != "A" {
		t.Fatalf("unexpected order %+v", lines)
	}
	if lines[1].Quantity != 4 {
		t.Fatalf("expected A quantity 4, got %d", lines[1].Quantity)
	}
}

func TestAggregateFlattenRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := [][]Unit{
		nil,
		{unit("A")},
		{unit("A"), unit("B"), unit("A"), unit("C"), unit("B")},
		{{ItemID: "X", Price: 1, Quantity: 5}, {ItemID: ""}, {ItemID: "Y", Price: 2}},
	}
	for _, units := range inputs {
		first := Aggregate(units)
		second := Aggregate(Flatten(first))
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("round trip changed lines:\nfirst=%+v\nsecond=%+v", first, second)
		}
	}
}

func TestFlattenRepeatsUnitsPerQuantity(t *testing.T) {
	t.Parallel()

	units := Flatten([]Line{{ItemID: "A", UnitPrice: 2, Quantity: 3}, {ItemID: "B", Quantity: 0}})
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	for _, u := range units {
		if u.ItemID != "A" || u.Quantity != 0 || u.Price != 2 {
			t.Fatalf("unexpected unit %+v", u)
		}
	}
}

func TestSetQuantity(t *testing.T) {
	t.Parallel()

	lines := Aggregate([]Unit{unit("A"), unit("B")})

	removed := SetQuantity(lines, "A", 0)
	if len(removed) != 1 || removed[0].ItemID != "B" {
		t.Fatalf("expected A removed, got %+v", removed)
	}
	negative := SetQuantity(lines, "A", -3)
	if !reflect.DeepEqual(removed, negative) {
		t.Fatalf("negative quantity should behave like zero: %+v vs %+v", negative, removed)
	}

	updated := SetQuantity(lines, "B", 7)
	if QuantityOf(updated, "B") != 7 {
		t.Fatalf("expected B quantity 7, got %+v", updated)
	}
	if QuantityOf(lines, "B") != 1 {
		t.Fatalf("input lines must not be mutated, got %+v", lines)
	}
	if len(lines) != 2 {
		t.Fatalf("input slice must keep both lines")
	}
}

func TestSetQuantityDoesNotShareCustomizations(t *testing.T) {
	t.Parallel()

	lines := []Line{{ItemID: "A", Quantity: 1, Customizations: map[string]string{"sauce": "bbq"}}}
	updated := SetQuantity(lines, "A", 2)
	updated[0].Customizations["sauce"] = "ranch"
	if lines[0].Customizations["sauce"] != "bbq" {
		t.Fatalf("customizations leaked between snapshots")
	}
}

func TestAddUnits(t *testing.T) {
	t.Parallel()

	units := AddUnits(nil, unit("A"), 2)
	units = AddUnits(units, unit("B"), 0)
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	lines := Aggregate(units)
	if QuantityOf(lines, "A") != 2 || QuantityOf(lines, "B") != 1 {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{ItemID: "A", UnitPrice: 0.1, Quantity: 3},
		{ItemID: "B", UnitPrice: 12.99, Quantity: 2},
	}
	totals := ComputeTotals(lines)
	if totals.Count != 5 {
		t.Fatalf("expected count 5, got %d", totals.Count)
	}
	if totals.DisplayTotal() != "26.28" {
		t.Fatalf("expected display total 26.28, got %s", totals.DisplayTotal())
	}
	if got := RoundAmount(totals.Total); got != 26.28 {
		t.Fatalf("expected rounded 26.28, got %v", got)
	}

	empty := ComputeTotals(nil)
	if empty.Count != 0 || empty.Total != 0 || empty.DisplayTotal() != "0.00" {
		t.Fatalf("unexpected empty totals %+v", empty)
	}
}

func TestUnitUnmarshalAcceptsLegacyIDs(t *testing.T) {
	t.Parallel()

	var units []Unit
	payload := `[{"_id":"m1","name":"Classic","price":8},{"id":"m2","price":3},{"itemId":" m3 ","price":1}]`
	if err := json.Unmarshal([]byte(payload), &units); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ids := []string{units[0].ItemID, units[1].ItemID, units[2].ItemID}
	if !reflect.DeepEqual(ids, []string{"m1", "m2", "m3"}) {
		t.Fatalf("unexpected ids %v", ids)
	}
	if units[0].Name != "Classic" || units[0].Price != 8 {
		t.Fatalf("expected fields preserved, got %+v", units[0])
	}
}

func TestMergeLinesFoldsDuplicates(t *testing.T) {
	lines := MergeLines([]Line{
		{ItemID: "a", UnitPrice: 2, Quantity: 1},
		{ItemID: "b", UnitPrice: 3, Quantity: 2},
		{ItemID: "a", UnitPrice: 2, Quantity: 4},
		{ItemID: "", Quantity: 1},
		{ItemID: "c", Quantity: 0},
	})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", lines)
	}
	if lines[0].ItemID != "a" || lines[0].Quantity != 5 || lines[1].ItemID != "b" {
		t.Fatalf("unexpected merge %+v", lines)
	}
}
