package items

import (
	"sort"

	"croplands/server/internal/loot"
	"croplands/server/internal/rules"
)

// Catalog resolves item definitions by id. The room core depends on this
// narrow interface so content loading stays an external concern.
type Catalog interface {
	Definition(id string) (Definition, bool)
}

// StaticCatalog is the built-in content set used by the server and tests.
type StaticCatalog struct {
	defs map[string]Definition
}

// Definition implements Catalog.
func (c *StaticCatalog) Definition(id string) (Definition, bool) {
	def, ok := c.defs[id]
	return def, ok
}

// Definitions returns all definitions sorted by identifier.
func (c *StaticCatalog) Definitions() []Definition {
	defs := make([]Definition, 0, len(c.defs))
	for _, def := range c.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].ID < defs[j].ID
	})
	return defs
}

const (
	ItemIronAxe     = "iron_axe"
	ItemWateringCan = "watering_can"
	ItemTurnipSeeds = "turnip_seeds"
	ItemStrawHat    = "straw_hat"
	ItemWoodLog     = "wood_log"
	ItemStoneChunk  = "stone_chunk"
	ItemTurnip      = "turnip"

	ObjectOakTree     = "oak_tree"
	ObjectGraniteRock = "granite_rock"
	ObjectSupplyCrate = "supply_crate"

	CurrencyCoins = "coins"
)

// DefaultCatalog builds the reference content set.
func DefaultCatalog() *StaticCatalog {
	defs := []Definition{
		mustDefine(DefinitionParams{
			ID:          ItemIronAxe,
			Name:        "Iron Axe",
			Description: "Fells trees and cracks rock, slowly.",
			Tags:        []string{"tool"},
			Equippable: &Equippable{
				Slot:  EquipSlotHand,
				Stats: map[string]int{"chop": 1},
				Damage: rules.DamageParams{
					BaseDamage:   1,
					Rate:         2,
					Range:        1,
					TagModifiers: map[string]float64{"wood": 3, "stone": 1.5},
				},
			},
		}),
		mustDefine(DefinitionParams{
			ID:          ItemWateringCan,
			Name:        "Watering Can",
			Description: "Holds enough water for a long charge.",
			Tags:        []string{"tool"},
			Equippable: &Equippable{
				Slot:  EquipSlotHand,
				Stats: map[string]int{"water": 1},
			},
		}),
		mustDefine(DefinitionParams{
			ID:          ItemTurnipSeeds,
			Name:        "Turnip Seeds",
			Description: "Plant in tilled soil.",
			Tags:        []string{"seed"},
			Stackable:   true,
			Equippable: &Equippable{
				Slot:  EquipSlotHand,
				Stats: map[string]int{"plant": 1},
			},
		}),
		mustDefine(DefinitionParams{
			ID:          ItemStrawHat,
			Name:        "Straw Hat",
			Description: "Keeps the sun off. Purely cosmetic.",
			Tags:        []string{"hat"},
			Equippable: &Equippable{
				Slot: EquipSlotHead,
			},
		}),
		mustDefine(DefinitionParams{
			ID:          ItemWoodLog,
			Name:        "Wood Log",
			Description: "Raw timber from a felled tree.",
			Tags:        []string{"material", "wood"},
			Stackable:   true,
		}),
		mustDefine(DefinitionParams{
			ID:          ItemStoneChunk,
			Name:        "Stone Chunk",
			Description: "A rough piece of granite.",
			Tags:        []string{"material", "stone"},
			Stackable:   true,
		}),
		mustDefine(DefinitionParams{
			ID:          ItemTurnip,
			Name:        "Turnip",
			Description: "A fresh harvest.",
			Tags:        []string{"crop"},
			Stackable:   true,
		}),
		mustDefine(DefinitionParams{
			ID:          ObjectOakTree,
			Name:        "Oak Tree",
			Description: "A sturdy oak. Blocks the path until felled.",
			Tags:        []string{"wood", "tree"},
			Destroyable: &Destroyable{
				Health:     3,
				Collidable: true,
				Drops: loot.Table{
					Rolls: 2,
					Entries: []loot.Entry{
						{ItemID: ItemWoodLog, Weight: 80, MinQty: 1, MaxQty: 2},
						{CurrencyType: CurrencyCoins, Weight: 15, MinQty: 1, MaxQty: 3},
						{TaskID: "botany-1", Weight: 5},
					},
				},
			},
		}),
		mustDefine(DefinitionParams{
			ID:          ObjectGraniteRock,
			Name:        "Granite Rock",
			Description: "Dense stone. Blocks the path until broken.",
			Tags:        []string{"stone", "rock"},
			Destroyable: &Destroyable{
				Health:     2,
				Collidable: true,
				Drops: loot.Table{
					Entries: []loot.Entry{
						{ItemID: ItemStoneChunk, Weight: 90, MinQty: 1, MaxQty: 2},
						{CurrencyType: CurrencyCoins, Weight: 10, MinQty: 1, MaxQty: 2},
					},
				},
			},
		}),
		mustDefine(DefinitionParams{
			ID:          ObjectSupplyCrate,
			Name:        "Supply Crate",
			Description: "A sealed crate. Open it to see what is inside.",
			Tags:        []string{"container"},
			Destroyable: &Destroyable{
				Health:     1,
				Collidable: true,
			},
			Container: &Container{
				Contents: loot.Table{
					Rolls: 2,
					Entries: []loot.Entry{
						{ItemID: ItemTurnipSeeds, Weight: 60, MinQty: 2, MaxQty: 5},
						{ItemID: ItemWoodLog, Weight: 30, MinQty: 1, MaxQty: 2},
						{ItemID: ItemStrawHat, Weight: 10},
					},
				},
				CurrencyRewards: map[string]int{CurrencyCoins: 5},
			},
		}),
	}

	catalog := make(map[string]Definition, len(defs))
	for _, def := range defs {
		catalog[def.ID] = def
	}
	return &StaticCatalog{defs: catalog}
}

func mustDefine(params DefinitionParams) Definition {
	def, err := NewDefinition(params)
	if err != nil {
		panic(err)
	}
	return def
}
