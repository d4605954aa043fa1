package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"croplands/server/internal/items"
	"croplands/server/internal/loot"
	"croplands/server/internal/room"
)

// Inventory owns durable item instances per user. Stackable definitions
// merge into a single row; everything else gets its own instance id.
type Inventory struct {
	store   *Store
	catalog items.Catalog
}

func NewInventory(store *Store, catalog items.Catalog) *Inventory {
	return &Inventory{store: store, catalog: catalog}
}

// Items lists a user's instances ordered by instance id.
func (inv *Inventory) Items(ctx context.Context, userID string) ([]items.Instance, error) {
	rows, err := inv.store.db.QueryContext(ctx,
		`SELECT instance_id, definition_id, quantity FROM inventory_items
		 WHERE user_id = ? ORDER BY instance_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var owned []items.Instance
	for rows.Next() {
		var inst items.Instance
		if err := rows.Scan(&inst.InstanceID, &inst.DefinitionID, &inst.Quantity); err != nil {
			return nil, err
		}
		owned = append(owned, inst)
	}
	return owned, rows.Err()
}

// AddItems applies loot grants and returns the updated inventory.
func (inv *Inventory) AddItems(ctx context.Context, userID string, grants []loot.ItemGrant) ([]items.Instance, error) {
	tx, err := inv.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, grant := range grants {
		quantity := grant.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		if inv.isStackable(grant.DefinitionID) {
			if err := addStacked(ctx, tx, userID, grant.DefinitionID, quantity); err != nil {
				return nil, err
			}
			continue
		}
		for i := 0; i < quantity; i++ {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO inventory_items (instance_id, user_id, definition_id, quantity)
				 VALUES (?, ?, ?, 1)`,
				uuid.NewString(), userID, grant.DefinitionID); err != nil {
				return nil, fmt.Errorf("grant %s: %w", grant.DefinitionID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return inv.Items(ctx, userID)
}

func addStacked(ctx context.Context, tx *sql.Tx, userID, definitionID string, quantity int) error {
	var instanceID string
	err := tx.QueryRowContext(ctx,
		`SELECT instance_id FROM inventory_items
		 WHERE user_id = ? AND definition_id = ? LIMIT 1`,
		userID, definitionID).Scan(&instanceID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO inventory_items (instance_id, user_id, definition_id, quantity)
			 VALUES (?, ?, ?, ?)`,
			uuid.NewString(), userID, definitionID, quantity)
		return err
	case err != nil:
		return err
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE inventory_items SET quantity = quantity + ? WHERE instance_id = ?`,
			quantity, instanceID)
		return err
	}
}

func (inv *Inventory) isStackable(definitionID string) bool {
	def, ok := inv.catalog.Definition(definitionID)
	return ok && def.Stackable
}

// RemoveItem deletes one instance, or decrements a stack by one.
func (inv *Inventory) RemoveItem(ctx context.Context, userID, instanceID string) (items.Instance, error) {
	var inst items.Instance
	err := inv.store.db.QueryRowContext(ctx,
		`SELECT instance_id, definition_id, quantity FROM inventory_items
		 WHERE user_id = ? AND instance_id = ?`,
		userID, instanceID).Scan(&inst.InstanceID, &inst.DefinitionID, &inst.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return items.Instance{}, room.ErrNotOwned
	}
	if err != nil {
		return items.Instance{}, err
	}

	if inst.Quantity > 1 {
		_, err = inv.store.db.ExecContext(ctx,
			`UPDATE inventory_items SET quantity = quantity - 1 WHERE instance_id = ?`, instanceID)
	} else {
		_, err = inv.store.db.ExecContext(ctx,
			`DELETE FROM inventory_items WHERE instance_id = ?`, instanceID)
	}
	if err != nil {
		return items.Instance{}, err
	}
	inst.Quantity = 1
	return inst, nil
}

// Owns reports whether the user holds the instance.
func (inv *Inventory) Owns(ctx context.Context, userID, instanceID string) (items.Instance, bool, error) {
	var inst items.Instance
	err := inv.store.db.QueryRowContext(ctx,
		`SELECT instance_id, definition_id, quantity FROM inventory_items
		 WHERE user_id = ? AND instance_id = ?`,
		userID, instanceID).Scan(&inst.InstanceID, &inst.DefinitionID, &inst.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return items.Instance{}, false, nil
	}
	if err != nil {
		return items.Instance{}, false, err
	}
	return inst, true, nil
}
