// Package gameplay publishes simulation events: joins, movement corrections,
// interactions, attacks, and object destruction.
package gameplay

import (
	"context"

	"croplands/server/logging"
)

const (
	EventPlayerJoined    logging.EventType = "player_joined"
	EventPlayerLeft      logging.EventType = "player_left"
	EventPlayerExpired   logging.EventType = "player_expired"
	EventInteraction     logging.EventType = "interaction"
	EventInteractionDeny logging.EventType = "interaction_denied"
	EventAttack          logging.EventType = "attack"
	EventObjectDestroyed logging.EventType = "object_destroyed"
	EventMapChanged      logging.EventType = "map_changed"
)

func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, playerID, roomID string) {
	publish(ctx, pub, logging.Event{
		Type:  EventPlayerJoined,
		Tick:  tick,
		Actor: playerRef(playerID),
		Extra: map[string]any{"room": roomID},
	})
}

func PlayerLeft(ctx context.Context, pub logging.Publisher, tick uint64, playerID, roomID string) {
	publish(ctx, pub, logging.Event{
		Type:  EventPlayerLeft,
		Tick:  tick,
		Actor: playerRef(playerID),
		Extra: map[string]any{"room": roomID},
	})
}

func PlayerExpired(ctx context.Context, pub logging.Publisher, tick uint64, playerID, roomID string) {
	publish(ctx, pub, logging.Event{
		Type:     EventPlayerExpired,
		Tick:     tick,
		Actor:    playerRef(playerID),
		Severity: logging.SeverityWarn,
		Extra:    map[string]any{"room": roomID},
	})
}

func Interaction(ctx context.Context, pub logging.Publisher, tick uint64, playerID, action, tileKey string) {
	publish(ctx, pub, logging.Event{
		Type:    EventInteraction,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Targets: []logging.EntityRef{{ID: tileKey, Kind: logging.EntityKindTile}},
		Payload: map[string]any{"action": action},
	})
}

func InteractionDenied(ctx context.Context, pub logging.Publisher, tick uint64, playerID, action, reason string) {
	publish(ctx, pub, logging.Event{
		Type:     EventInteractionDeny,
		Tick:     tick,
		Actor:    playerRef(playerID),
		Severity: logging.SeverityDebug,
		Payload:  map[string]any{"action": action, "reason": reason},
	})
}

func Attack(ctx context.Context, pub logging.Publisher, tick uint64, playerID, objectKey string, damage int) {
	publish(ctx, pub, logging.Event{
		Type:    EventAttack,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Targets: []logging.EntityRef{{ID: objectKey, Kind: logging.EntityKindObject}},
		Payload: map[string]any{"damage": damage},
	})
}

func ObjectDestroyed(ctx context.Context, pub logging.Publisher, tick uint64, playerID, objectKey, defID string) {
	publish(ctx, pub, logging.Event{
		Type:    EventObjectDestroyed,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Targets: []logging.EntityRef{{ID: objectKey, Kind: logging.EntityKindObject}},
		Payload: map[string]any{"definition": defID},
	})
}

func MapChanged(ctx context.Context, pub logging.Publisher, tick uint64, playerID, mapKey string) {
	publish(ctx, pub, logging.Event{
		Type:    EventMapChanged,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Payload: map[string]any{"map": mapKey},
	})
}

func playerRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer}
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryGameplay
	pub.Publish(ctx, event)
}
