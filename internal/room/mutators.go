package room

import "croplands/server/internal/grid"

// Mutators are the only write path into the replicated schema: each compares
// against the current value, applies the change, bumps the room version, and
// appends the matching patch. Callers hold the room lock.

func (r *Room) setPlayerPositionLocked(p *PlayerState, x, y int) {
	if p.GridX == x && p.GridY == y {
		return
	}
	p.GridX = x
	p.GridY = y
	r.version++
	r.journal.AppendPatch(Patch{
		Kind:     PatchPlayerPos,
		EntityID: p.SessionID,
		Payload:  PositionPayload{GridX: x, GridY: y},
	})
}

func (r *Room) setPlayerMapLocked(p *PlayerState, mapKey string) {
	if p.CurrentMapKey == mapKey {
		return
	}
	p.CurrentMapKey = mapKey
	r.version++
	r.journal.AppendPatch(Patch{
		Kind:     PatchPlayerMap,
		EntityID: p.SessionID,
		Payload:  MapPayload{MapKey: mapKey},
	})
}

func (r *Room) setPlayerStaminaLocked(p *PlayerState, stamina int) {
	if stamina < 0 {
		stamina = 0
	}
	if stamina > p.MaxStamina {
		stamina = p.MaxStamina
	}
	if p.Stamina == stamina {
		return
	}
	p.Stamina = stamina
	r.version++
	r.journal.AppendPatch(Patch{
		Kind:     PatchPlayerStamina,
		EntityID: p.SessionID,
		Payload:  StaminaPayload{Stamina: stamina, MaxStamina: p.MaxStamina},
	})
}

func (r *Room) setPlayerEquipmentLocked(p *PlayerState, handItem, headItem, handDef, headDef string) {
	if p.EquippedHandItemID == handItem && p.EquippedHeadItemID == headItem &&
		p.EquippedHandDefID == handDef && p.EquippedHeadDefID == headDef {
		return
	}
	p.EquippedHandItemID = handItem
	p.EquippedHeadItemID = headItem
	p.EquippedHandDefID = handDef
	p.EquippedHeadDefID = headDef
	r.version++
	r.journal.AppendPatch(Patch{
		Kind:     PatchPlayerEquipment,
		EntityID: p.SessionID,
		Payload: EquipmentPayload{
			HandItemID: handItem,
			HeadItemID: headItem,
			HandDefID:  handDef,
			HeadDefID:  headDef,
		},
	})
}

func (r *Room) setPlayerHotbarLocked(p *PlayerState, slot int) {
	if p.HotbarSlot == slot {
		return
	}
	p.HotbarSlot = slot
	r.version++
	r.journal.AppendPatch(Patch{
		Kind:     PatchPlayerHotbar,
		EntityID: p.SessionID,
		Payload:  HotbarPayload{SlotIndex: slot},
	})
}

func (r *Room) removePlayerLocked(sessionID string) {
	if _, ok := r.state.Players[sessionID]; !ok {
		return
	}
	delete(r.state.Players, sessionID)
	r.version++
	r.journal.PurgeEntity(sessionID)
	r.journal.AppendPatch(Patch{Kind: PatchPlayerRemoved, EntityID: sessionID})
}

func (r *Room) setTileLocked(key grid.TileKey, tile TileState) {
	current, ok := r.state.Tiles[key]
	if ok && *current == tile {
		return
	}
	stored := tile
	r.state.Tiles[key] = &stored
	r.version++
	r.journal.AppendPatch(Patch{
		Kind:     PatchTileState,
		EntityID: string(key),
		Payload:  TilePayload{Tile: tile},
	})
}

func (r *Room) spawnWorldObjectLocked(obj *WorldObjectState) {
	key := grid.ObjectKey(obj.ObjectID)
	if _, ok := r.state.WorldObjects[key]; ok {
		return
	}
	r.state.WorldObjects[key] = obj
	r.version++
	r.journal.AppendPatch(Patch{
		Kind:     PatchWorldObjectSpawned,
		EntityID: obj.ObjectID,
		Payload:  WorldObjectPayload{Object: *obj},
	})
}

func (r *Room) setWorldObjectHealthLocked(obj *WorldObjectState, health int) {
	if health < 0 {
		health = 0
	}
	if obj.Health == health {
		return
	}
	obj.Health = health
	r.version++
	r.journal.AppendPatch(Patch{
		Kind:     PatchWorldObjectHealth,
		EntityID: obj.ObjectID,
		Payload:  ObjectHealthPayload{Health: health, MaxHealth: obj.MaxHealth},
	})
}

func (r *Room) removeWorldObjectLocked(obj *WorldObjectState) {
	key := grid.ObjectKey(obj.ObjectID)
	if _, ok := r.state.WorldObjects[key]; !ok {
		return
	}
	delete(r.state.WorldObjects, key)
	r.version++
	r.journal.PurgeEntity(obj.ObjectID)
	r.journal.AppendPatch(Patch{Kind: PatchWorldObjectRemoved, EntityID: obj.ObjectID})
}
