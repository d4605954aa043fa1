package loot

import (
	"math/rand"
	"testing"
)

func TestResolveWeightedDistribution(t *testing.T) {
	table := Table{
		Entries: []Entry{
			{ItemID: "common", Weight: 99},
			{ItemID: "rare", Weight: 1},
		},
	}

	rng := rand.New(rand.NewSource(42))
	common := 0
	for i := 0; i < 1000; i++ {
		result := Resolve(table, rng)
		if len(result.Items) != 1 {
			t.Fatalf("expected exactly one item per roll, got %d", len(result.Items))
		}
		if result.Items[0].DefinitionID == "common" {
			common++
		}
	}
	if common <= 900 {
		t.Fatalf("expected common selected >90%% of draws, got %d/1000", common)
	}
}

func TestResolveDeterministicPerSeed(t *testing.T) {
	table := Table{
		Rolls: 5,
		Entries: []Entry{
			{ItemID: "wood", Weight: 3, MinQty: 1, MaxQty: 4},
			{CurrencyType: "coins", Weight: 2, MinQty: 2, MaxQty: 6},
			{TaskID: "quiz-7", Weight: 1},
		},
	}

	first := Resolve(table, rand.New(rand.NewSource(7)))
	second := Resolve(table, rand.New(rand.NewSource(7)))

	if len(first.Items) != len(second.Items) {
		t.Fatalf("item counts diverged: %d vs %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i] != second.Items[i] {
			t.Fatalf("item %d diverged: %+v vs %+v", i, first.Items[i], second.Items[i])
		}
	}
	for currency, amount := range first.Currency {
		if second.Currency[currency] != amount {
			t.Fatalf("currency %s diverged: %d vs %d", currency, amount, second.Currency[currency])
		}
	}
}

func TestResolveFilteredByTierAndTag(t *testing.T) {
	table := Table{
		Entries: []Entry{
			{ItemID: "basic", Weight: 1, Tier: 1, Tags: []string{"wood"}},
			{ItemID: "fancy", Weight: 1000, Tier: 3, Tags: []string{"gem"}},
		},
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		result := ResolveFiltered(table, rng, 1, "")
		if len(result.Items) != 1 || result.Items[0].DefinitionID != "basic" {
			t.Fatalf("tier filter leaked a higher-tier entry: %+v", result.Items)
		}
	}
	for i := 0; i < 50; i++ {
		result := ResolveFiltered(table, rng, 0, "gem")
		if len(result.Items) != 1 || result.Items[0].DefinitionID != "fancy" {
			t.Fatalf("tag filter failed: %+v", result.Items)
		}
	}
}

func TestResolveEmptyTable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	result := Resolve(Table{}, rng)
	if !result.Empty() {
		t.Fatalf("expected empty result for empty table, got %+v", result)
	}
}

func TestResolveQuantityBounds(t *testing.T) {
	table := Table{
		Rolls:   200,
		Entries: []Entry{{ItemID: "stone", Weight: 1, MinQty: 2, MaxQty: 5}},
	}
	result := Resolve(table, rand.New(rand.NewSource(99)))
	for _, item := range result.Items {
		if item.Quantity < 2 || item.Quantity > 5 {
			t.Fatalf("quantity %d escaped [2,5]", item.Quantity)
		}
	}
}
