package room

import (
	"croplands/server/internal/grid"
	"croplands/server/internal/rules"
)

// InteractCooldownMs is the minimum spacing between tool interactions.
const InteractCooldownMs = 90

// Rejection reasons surfaced by the interaction validator. Rejections are
// expected, frequent no-op outcomes, never errors.
const (
	ReasonOK              = "ok"
	ReasonOutOfBounds     = "Target out of bounds"
	ReasonCooldown        = "Interaction cooldown"
	ReasonUnsupportedTool = "Unsupported tool or wrong equipment"
	ReasonInvalidTile     = "Invalid target tile"
	ReasonNotEnoughStam   = "Not enough stamina"
)

// InteractionResult reports whether an interaction was applied and why not.
type InteractionResult struct {
	Accepted bool
	Reason   string
}

// ApplyInteraction validates and applies one tool interaction. On success it
// deducts stamina, stamps the cooldown, and mutates the target tile in
// place. Rejection paths mutate nothing and are idempotent. The function
// depends only on its explicit arguments.
func ApplyInteraction(player *PlayerState, tiles map[grid.TileKey]*TileState, payload InteractPayload, nowMs int64, hand rules.HandStats) InteractionResult {
	tile, ok := tiles[grid.KeyFor(payload.Target.GridX, payload.Target.GridY)]
	if !ok {
		return InteractionResult{Reason: ReasonOutOfBounds}
	}

	if nowMs-player.LastInteractAtMs < InteractCooldownMs {
		return InteractionResult{Reason: ReasonCooldown}
	}

	rule, ok := rules.LookupRule(rules.ActionType(payload.ActionType), hand)
	if !ok {
		return InteractionResult{Reason: ReasonUnsupportedTool}
	}

	view := tile.Rule()
	if !rule.ValidTarget(view) {
		return InteractionResult{Reason: ReasonInvalidTile}
	}

	cost := rule.TotalStaminaCost(payload.ChargeMs)
	if player.Stamina < cost {
		return InteractionResult{Reason: ReasonNotEnoughStam}
	}

	player.Stamina -= cost
	player.LastInteractAtMs = nowMs
	rule.Apply(&view)
	*tile = tileFromRule(view)
	return InteractionResult{Accepted: true, Reason: ReasonOK}
}
