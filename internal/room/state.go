package room

import (
	"croplands/server/internal/grid"
	"croplands/server/internal/rules"
)

// RoomState is the authoritative, replicated schema for one classroom shard.
// Removal from a map is the only destruction signal for its entities.
type RoomState struct {
	ClassroomID  string                               `json:"classroomId"`
	Players      map[string]*PlayerState              `json:"players"`
	Tiles        map[grid.TileKey]*TileState          `json:"tiles"`
	WorldObjects map[grid.ObjectKey]*WorldObjectState `json:"worldObjects"`
}

// PlayerState is the per-session replicated player record. It is created on
// join, destroyed on leave, and mutated only by the room controller.
type PlayerState struct {
	SessionID     string `json:"sessionId"`
	CurrentMapKey string `json:"currentMapKey"`
	GridX         int    `json:"gridX"`
	GridY         int    `json:"gridY"`
	Stamina       int    `json:"stamina"`
	MaxStamina    int    `json:"maxStamina"`

	LastAttackAtMs   int64 `json:"-"`
	LastInteractAtMs int64 `json:"-"`

	// Equipped instance ids plus cached definition ids so observers can
	// render and compute damage without an inventory round trip.
	EquippedHandItemID string `json:"equippedHandItemId"`
	EquippedHeadItemID string `json:"equippedHeadItemId"`
	EquippedHandDefID  string `json:"equippedHandDefId"`
	EquippedHeadDefID  string `json:"equippedHeadDefId"`

	HotbarSlot int `json:"hotbarSlot"`
}

// TileState is one cell of the 32x32 grid.
type TileState struct {
	Kind         string `json:"kind"`
	Tilled       bool   `json:"tilled"`
	Watered      bool   `json:"watered"`
	HasCrop      bool   `json:"hasCrop"`
	ObjectHealth int    `json:"objectHealth"`
}

// Rule converts the tile into the rule table's value view.
func (t TileState) Rule() rules.Tile {
	return rules.Tile{
		Kind:         t.Kind,
		Tilled:       t.Tilled,
		Watered:      t.Watered,
		HasCrop:      t.HasCrop,
		ObjectHealth: t.ObjectHealth,
	}
}

func tileFromRule(t rules.Tile) TileState {
	return TileState{
		Kind:         t.Kind,
		Tilled:       t.Tilled,
		Watered:      t.Watered,
		HasCrop:      t.HasCrop,
		ObjectHealth: t.ObjectHealth,
	}
}

// WorldObjectState is one destructible object. ObjectID equals its map key.
type WorldObjectState struct {
	ObjectID     string `json:"objectId"`
	MapKey       string `json:"mapKey"`
	DefinitionID string `json:"definitionId"`
	GridX        int    `json:"gridX"`
	GridY        int    `json:"gridY"`
	Health       int    `json:"health"`
	MaxHealth    int    `json:"maxHealth"`
}

// NewRoomState builds an empty schema bound to a classroom.
func NewRoomState(classroomID string) *RoomState {
	return &RoomState{
		ClassroomID:  classroomID,
		Players:      make(map[string]*PlayerState),
		Tiles:        make(map[grid.TileKey]*TileState),
		WorldObjects: make(map[grid.ObjectKey]*WorldObjectState),
	}
}

// SeedTiles fills the full grid with grass so every coordinate resolves.
func (s *RoomState) SeedTiles() {
	for y := 0; y < grid.Size; y++ {
		for x := 0; x < grid.Size; x++ {
			s.Tiles[grid.KeyFor(x, y)] = &TileState{Kind: rules.TileKindGrass}
		}
	}
}

func (s *RoomState) clonePlayers() []PlayerState {
	players := make([]PlayerState, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, *p)
	}
	return players
}

func (s *RoomState) cloneTiles() map[string]TileState {
	tiles := make(map[string]TileState, len(s.Tiles))
	for key, tile := range s.Tiles {
		tiles[string(key)] = *tile
	}
	return tiles
}

func (s *RoomState) cloneWorldObjects() []WorldObjectState {
	objects := make([]WorldObjectState, 0, len(s.WorldObjects))
	for _, obj := range s.WorldObjects {
		objects = append(objects, *obj)
	}
	return objects
}
