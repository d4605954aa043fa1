package services

import (
	"context"
	"errors"
	"fmt"

	"croplands/server/internal/items"
	"croplands/server/internal/room"
)

// Equipment owns the durable equipped loadout per user. Equip validates
// ownership and resolves the target slot from the item's definition.
type Equipment struct {
	store     *Store
	catalog   items.Catalog
	inventory *Inventory
}

func NewEquipment(store *Store, catalog items.Catalog, inventory *Inventory) *Equipment {
	return &Equipment{store: store, catalog: catalog, inventory: inventory}
}

// Loadout reads the user's equipped slots.
func (e *Equipment) Loadout(ctx context.Context, userID string) (items.Loadout, error) {
	rows, err := e.store.db.QueryContext(ctx,
		`SELECT slot, instance_id, definition_id FROM equipment WHERE user_id = ?`, userID)
	if err != nil {
		return items.Loadout{}, fmt.Errorf("load equipment: %w", err)
	}
	defer rows.Close()

	var loadout items.Loadout
	for rows.Next() {
		var slot, instanceID, definitionID string
		if err := rows.Scan(&slot, &instanceID, &definitionID); err != nil {
			return items.Loadout{}, err
		}
		inst := items.Instance{InstanceID: instanceID, DefinitionID: definitionID, Quantity: 1}
		switch items.EquipSlot(slot) {
		case items.EquipSlotHand:
			loadout.Hand = inst
		case items.EquipSlotHead:
			loadout.Head = inst
		}
	}
	return loadout, rows.Err()
}

// Equip places an owned, equippable instance into its definition's slot,
// replacing whatever occupied it.
func (e *Equipment) Equip(ctx context.Context, userID, instanceID string) (items.Loadout, error) {
	inst, owned, err := e.inventory.Owns(ctx, userID, instanceID)
	if err != nil {
		return items.Loadout{}, err
	}
	if !owned {
		return items.Loadout{}, room.ErrNotOwned
	}
	def, ok := e.catalog.Definition(inst.DefinitionID)
	if !ok || def.Equippable == nil {
		return items.Loadout{}, fmt.Errorf("item %s: %w", inst.DefinitionID, errNotEquippable)
	}

	_, err = e.store.db.ExecContext(ctx,
		`INSERT INTO equipment (user_id, slot, instance_id, definition_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, slot) DO UPDATE SET instance_id = excluded.instance_id,
		   definition_id = excluded.definition_id`,
		userID, string(def.Equippable.Slot), inst.InstanceID, inst.DefinitionID)
	if err != nil {
		return items.Loadout{}, fmt.Errorf("equip %s: %w", instanceID, err)
	}
	return e.Loadout(ctx, userID)
}

// Unequip clears a slot. Clearing an empty slot is a no-op.
func (e *Equipment) Unequip(ctx context.Context, userID string, slot items.EquipSlot) (items.Loadout, error) {
	_, err := e.store.db.ExecContext(ctx,
		`DELETE FROM equipment WHERE user_id = ? AND slot = ?`, userID, string(slot))
	if err != nil {
		return items.Loadout{}, err
	}
	return e.Loadout(ctx, userID)
}

// UnequipInstance clears whichever slot holds the instance, used when the
// underlying item leaves the inventory.
func (e *Equipment) UnequipInstance(ctx context.Context, userID, instanceID string) error {
	_, err := e.store.db.ExecContext(ctx,
		`DELETE FROM equipment WHERE user_id = ? AND instance_id = ?`, userID, instanceID)
	return err
}

var errNotEquippable = errors.New("item is not equippable")
