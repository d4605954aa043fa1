package items

import (
	"errors"
	"fmt"

	"croplands/server/internal/loot"
	"croplands/server/internal/rules"
)

// EquipSlot names the equipment slots the room replicates for each player.
type EquipSlot string

const (
	EquipSlotHand EquipSlot = "hand"
	EquipSlotHead EquipSlot = "head"
)

// Equippable marks a definition as wearable and carries the stat map the
// interaction rule table resolves against.
type Equippable struct {
	Slot   EquipSlot
	Stats  map[string]int
	Damage rules.DamageParams
}

// Destroyable marks a definition as a simulated world object. Placements
// whose definition lacks this component are decorative and never spawned.
type Destroyable struct {
	Health     int
	Collidable bool
	Drops      loot.Table
}

// Container marks a definition as an openable loot container claimed with a
// one-time nonce.
type Container struct {
	Contents        loot.Table
	CurrencyRewards map[string]int
}

// Definition describes one content item: tools, drops, world objects, and
// containers all share this shape.
type Definition struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	Stackable   bool
	Equippable  *Equippable
	Destroyable *Destroyable
	Container   *Container
}

// DefinitionParams is the constructor input for a Definition.
type DefinitionParams struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	Stackable   bool
	Equippable  *Equippable
	Destroyable *Destroyable
	Container   *Container
}

var errMissingID = errors.New("item definition requires an id")

// NewDefinition validates the params and builds an immutable definition.
func NewDefinition(params DefinitionParams) (Definition, error) {
	if params.ID == "" {
		return Definition{}, errMissingID
	}
	if params.Name == "" {
		return Definition{}, fmt.Errorf("item %s requires a name", params.ID)
	}
	if params.Equippable != nil {
		switch params.Equippable.Slot {
		case EquipSlotHand, EquipSlotHead:
		default:
			return Definition{}, fmt.Errorf("item %s has unknown equip slot %q", params.ID, params.Equippable.Slot)
		}
	}
	if params.Destroyable != nil && params.Destroyable.Health <= 0 {
		return Definition{}, fmt.Errorf("item %s destroyable health must be positive", params.ID)
	}
	return Definition(params), nil
}

// HandStats returns the equippable stat map, or nil for bare hands and
// non-equippable definitions.
func (d Definition) HandStats() rules.HandStats {
	if d.Equippable == nil {
		return nil
	}
	return rules.HandStats(d.Equippable.Stats)
}

// DestroyableHealth reports the spawn health for destroyable definitions and
// zero for everything else, matching the world-object spawn filter contract.
func (d Definition) DestroyableHealth() int {
	if d.Destroyable == nil {
		return 0
	}
	return d.Destroyable.Health
}
