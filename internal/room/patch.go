package room

// PatchKind identifies the type of diff entry replicated to clients.
type PatchKind string

const (
	// PatchPlayerPos updates a player's tile position.
	PatchPlayerPos PatchKind = "player_pos"
	// PatchPlayerMap updates a player's current map key.
	PatchPlayerMap PatchKind = "player_map"
	// PatchPlayerStamina updates a player's stamina pool.
	PatchPlayerStamina PatchKind = "player_stamina"
	// PatchPlayerEquipment updates a player's cached equipment fields.
	PatchPlayerEquipment PatchKind = "player_equipment"
	// PatchPlayerHotbar updates a player's selected hotbar slot.
	PatchPlayerHotbar PatchKind = "player_hotbar"
	// PatchPlayerJoined announces a new player with its full state.
	PatchPlayerJoined PatchKind = "player_joined"
	// PatchPlayerRemoved signals a player left the room.
	PatchPlayerRemoved PatchKind = "player_removed"

	// PatchTileState replaces the full state of one tile.
	PatchTileState PatchKind = "tile_state"

	// PatchWorldObjectSpawned announces a new destructible object.
	PatchWorldObjectSpawned PatchKind = "world_object_spawned"
	// PatchWorldObjectHealth updates a destructible object's health.
	PatchWorldObjectHealth PatchKind = "world_object_health"
	// PatchWorldObjectRemoved signals an object was destroyed.
	PatchWorldObjectRemoved PatchKind = "world_object_removed"
)

// Patch is one diff entry applied by the client to its replicated view.
type Patch struct {
	Kind     PatchKind `json:"kind"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload,omitempty"`
}

// PlayerPayload carries the full state of a joining player.
type PlayerPayload struct {
	Player PlayerState `json:"player"`
}

// PositionPayload carries a tile coordinate for a player position patch.
type PositionPayload struct {
	GridX int `json:"gridX"`
	GridY int `json:"gridY"`
}

// MapPayload carries a player's new map key.
type MapPayload struct {
	MapKey string `json:"mapKey"`
}

// StaminaPayload carries a player's stamina pool.
type StaminaPayload struct {
	Stamina    int `json:"stamina"`
	MaxStamina int `json:"maxStamina"`
}

// EquipmentPayload carries a player's equipped instance and definition ids.
type EquipmentPayload struct {
	HandItemID string `json:"handItemId"`
	HeadItemID string `json:"headItemId"`
	HandDefID  string `json:"handDefId"`
	HeadDefID  string `json:"headDefId"`
}

// HotbarPayload carries a player's selected hotbar slot.
type HotbarPayload struct {
	SlotIndex int `json:"slotIndex"`
}

// TilePayload carries the full replacement state of one tile.
type TilePayload struct {
	Tile TileState `json:"tile"`
}

// WorldObjectPayload carries the full state of a spawned object.
type WorldObjectPayload struct {
	Object WorldObjectState `json:"object"`
}

// ObjectHealthPayload carries a destructible object's health.
type ObjectHealthPayload struct {
	Health    int `json:"health"`
	MaxHealth int `json:"maxHealth"`
}
