package rules

// ActionType identifies the interaction a client requests with its held tool.
type ActionType string

const (
	ActionChop  ActionType = "chop"
	ActionWater ActionType = "water"
	ActionPlant ActionType = "plant"
)

// HandStats is the stat map of the equipped hand item's Equippable component,
// e.g. {chop: 1} for an axe or {water: 1} for a watering can.
type HandStats map[string]int

// Tile is the rule table's view of a target tile. Interaction rules validate
// and mutate this copy; the room commits the result through its mutators.
type Tile struct {
	Kind         string
	Tilled       bool
	Watered      bool
	HasCrop      bool
	ObjectHealth int
}

const (
	TileKindGrass      = "grass"
	TileKindTilledSoil = "tilled_soil"
	TileKindTree       = "tree"
	TileKindRock       = "rock"
)

// ToolRule captures the preconditions and tile mutation for one
// (actionType, required hand stat) pairing.
type ToolRule struct {
	Action       ActionType
	RequiredStat string
	StaminaCost  int
	// ChargeDivisorMs adds floor(chargeMs/divisor) to the stamina cost when
	// positive. Only water-capable hands charge.
	ChargeDivisorMs int
	ValidTarget     func(Tile) bool
	Apply           func(*Tile)
}

type ruleKey struct {
	action ActionType
	stat   string
}

// ruleIndex is built once at init so lookups never rescan a list.
var ruleIndex = buildRuleIndex()

func buildRuleIndex() map[ruleKey]ToolRule {
	rules := []ToolRule{
		{
			Action:       ActionChop,
			RequiredStat: "chop",
			StaminaCost:  2,
			ValidTarget: func(t Tile) bool {
				return (t.Kind == TileKindTree || t.Kind == TileKindRock) && t.ObjectHealth > 0
			},
			Apply: func(t *Tile) {
				t.ObjectHealth--
				if t.ObjectHealth <= 0 {
					t.Kind = TileKindGrass
					t.ObjectHealth = 0
					t.Tilled = false
					t.Watered = false
					t.HasCrop = false
				}
			},
		},
		{
			Action:          ActionWater,
			RequiredStat:    "water",
			StaminaCost:     1,
			ChargeDivisorMs: 400,
			ValidTarget: func(t Tile) bool {
				return t.Tilled
			},
			Apply: func(t *Tile) {
				t.Watered = true
			},
		},
		{
			Action:       ActionPlant,
			RequiredStat: "plant",
			StaminaCost:  1,
			ValidTarget: func(t Tile) bool {
				return t.Tilled && !t.HasCrop
			},
			Apply: func(t *Tile) {
				t.HasCrop = true
				t.Watered = false
			},
		},
	}

	index := make(map[ruleKey]ToolRule, len(rules))
	for _, rule := range rules {
		index[ruleKey{action: rule.Action, stat: rule.RequiredStat}] = rule
	}
	return index
}

// LookupRule resolves the tool rule for an action and the equipped hand's
// stats. A hand with no matching stat has no rule (wrong tool or no tool).
func LookupRule(action ActionType, hand HandStats) (ToolRule, bool) {
	for stat, level := range hand {
		if level <= 0 {
			continue
		}
		if rule, ok := ruleIndex[ruleKey{action: action, stat: stat}]; ok {
			return rule, true
		}
	}
	return ToolRule{}, false
}

// TotalStaminaCost computes the rule's base cost plus any charge surcharge.
func (r ToolRule) TotalStaminaCost(chargeMs int) int {
	cost := r.StaminaCost
	if r.ChargeDivisorMs > 0 && chargeMs > 0 {
		cost += chargeMs / r.ChargeDivisorMs
	}
	return cost
}
