package services

import (
	"croplands/server/internal/items"
	"croplands/server/internal/room"
)

// Bundle wires every durable collaborator over one store.
type Bundle struct {
	Classrooms *Classrooms
	Inventory  *Inventory
	Equipment  *Equipment
	Currency   *Currency
	Containers *Containers
	Tasks      *Tasks
}

// NewBundle builds the full service set the room controller consumes.
func NewBundle(store *Store, catalog items.Catalog, lootSeed int64) *Bundle {
	inventory := NewInventory(store, catalog)
	currency := NewCurrency(store)
	return &Bundle{
		Classrooms: NewClassrooms(store),
		Inventory:  inventory,
		Equipment:  NewEquipment(store, catalog, inventory),
		Currency:   currency,
		Containers: NewContainers(store, catalog, inventory, currency, lootSeed),
		Tasks:      NewTasks(store, DefaultTaskDefinitions()),
	}
}

// RoomDeps projects the bundle onto the room's collaborator interfaces.
func (b *Bundle) RoomDeps() room.Deps {
	return room.Deps{
		Classrooms: b.Classrooms,
		Inventory:  b.Inventory,
		Equipment:  b.Equipment,
		Currency:   b.Currency,
		Containers: b.Containers,
		Tasks:      b.Tasks,
	}
}
