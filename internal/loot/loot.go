// Package loot evaluates weighted drop tables. Resolution is a pure function
// of the table and the supplied RNG so world layouts and tests stay
// reproducible from a fixed seed.
package loot

import "math/rand"

// Entry is one weighted outcome in a drop table. Exactly one of ItemID,
// CurrencyType, or TaskID should be set; empty entries resolve to nothing,
// which is how tables express a chance of no drop.
type Entry struct {
	ItemID       string   `json:"itemId,omitempty"`
	CurrencyType string   `json:"currencyType,omitempty"`
	TaskID       string   `json:"taskId,omitempty"`
	Weight       int      `json:"weight"`
	MinQty       int      `json:"minQty,omitempty"`
	MaxQty       int      `json:"maxQty,omitempty"`
	Tier         int      `json:"tier,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Table is a weighted drop table evaluated once per roll.
type Table struct {
	Rolls   int     `json:"rolls"`
	Entries []Entry `json:"entries"`
}

// ItemGrant is a resolved item drop awaiting an inventory grant.
type ItemGrant struct {
	DefinitionID string `json:"definitionId"`
	Quantity     int    `json:"quantity"`
}

// Result aggregates everything a table resolution produced.
type Result struct {
	Items        []ItemGrant
	Currency     map[string]int
	PendingTasks []string
}

// Empty reports whether the resolution produced nothing to grant.
func (r Result) Empty() bool {
	return len(r.Items) == 0 && len(r.Currency) == 0 && len(r.PendingTasks) == 0
}

// Resolve rolls the table. Each roll selects one entry with probability
// proportional to its weight. Quantities are uniform in [MinQty, MaxQty].
func Resolve(table Table, rng *rand.Rand) Result {
	return ResolveFiltered(table, rng, 0, "")
}

// ResolveFiltered rolls the table considering only entries at or below
// maxTier (when positive) and carrying requiredTag (when non-empty).
func ResolveFiltered(table Table, rng *rand.Rand, maxTier int, requiredTag string) Result {
	result := Result{}
	rolls := table.Rolls
	if rolls <= 0 {
		rolls = 1
	}

	eligible := make([]Entry, 0, len(table.Entries))
	total := 0
	for _, entry := range table.Entries {
		if entry.Weight <= 0 {
			continue
		}
		if maxTier > 0 && entry.Tier > maxTier {
			continue
		}
		if requiredTag != "" && !hasTag(entry.Tags, requiredTag) {
			continue
		}
		eligible = append(eligible, entry)
		total += entry.Weight
	}
	if total == 0 {
		return result
	}

	for i := 0; i < rolls; i++ {
		pick := rng.Intn(total)
		for _, entry := range eligible {
			pick -= entry.Weight
			if pick >= 0 {
				continue
			}
			applyEntry(&result, entry, rng)
			break
		}
	}
	return result
}

func applyEntry(result *Result, entry Entry, rng *rand.Rand) {
	qty := rollQuantity(entry, rng)
	switch {
	case entry.ItemID != "":
		result.Items = append(result.Items, ItemGrant{DefinitionID: entry.ItemID, Quantity: qty})
	case entry.CurrencyType != "":
		if result.Currency == nil {
			result.Currency = make(map[string]int)
		}
		result.Currency[entry.CurrencyType] += qty
	case entry.TaskID != "":
		result.PendingTasks = append(result.PendingTasks, entry.TaskID)
	}
}

func rollQuantity(entry Entry, rng *rand.Rand) int {
	lo := entry.MinQty
	if lo < 1 {
		lo = 1
	}
	hi := entry.MaxQty
	if hi < lo {
		hi = lo
	}
	if hi == lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
