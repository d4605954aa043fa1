// Package economy publishes item, currency, and container events.
package economy

import (
	"context"

	"croplands/server/logging"
)

const (
	EventLootGranted      logging.EventType = "loot_granted"
	EventCurrencyGranted  logging.EventType = "currency_granted"
	EventItemDropped      logging.EventType = "item_dropped"
	EventContainerOpened  logging.EventType = "container_opened"
	EventContainerClaimed logging.EventType = "container_claimed"
	EventTaskGranted      logging.EventType = "task_granted"
	EventTaskResolved     logging.EventType = "task_resolved"
)

func LootGranted(ctx context.Context, pub logging.Publisher, tick uint64, playerID, itemID string, quantity int) {
	publish(ctx, pub, logging.Event{
		Type:    EventLootGranted,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Payload: map[string]any{"item": itemID, "quantity": quantity},
	})
}

func CurrencyGranted(ctx context.Context, pub logging.Publisher, tick uint64, playerID, currency string, amount int) {
	publish(ctx, pub, logging.Event{
		Type:    EventCurrencyGranted,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Payload: map[string]any{"currency": currency, "amount": amount},
	})
}

func ItemDropped(ctx context.Context, pub logging.Publisher, tick uint64, playerID, instanceID string) {
	publish(ctx, pub, logging.Event{
		Type:    EventItemDropped,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Payload: map[string]any{"instance": instanceID},
	})
}

func ContainerOpened(ctx context.Context, pub logging.Publisher, tick uint64, playerID, objectKey string) {
	publish(ctx, pub, logging.Event{
		Type:    EventContainerOpened,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Targets: []logging.EntityRef{{ID: objectKey, Kind: logging.EntityKindObject}},
	})
}

func ContainerClaimed(ctx context.Context, pub logging.Publisher, tick uint64, playerID, objectKey, nonce string) {
	publish(ctx, pub, logging.Event{
		Type:    EventContainerClaimed,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Targets: []logging.EntityRef{{ID: objectKey, Kind: logging.EntityKindObject}},
		Payload: map[string]any{"nonce": nonce},
	})
}

func TaskGranted(ctx context.Context, pub logging.Publisher, tick uint64, playerID, taskID string) {
	publish(ctx, pub, logging.Event{
		Type:    EventTaskGranted,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Payload: map[string]any{"task": taskID},
	})
}

func TaskResolved(ctx context.Context, pub logging.Publisher, tick uint64, playerID, taskID string, correct bool) {
	publish(ctx, pub, logging.Event{
		Type:    EventTaskResolved,
		Tick:    tick,
		Actor:   playerRef(playerID),
		Payload: map[string]any{"task": taskID, "correct": correct},
	})
}

func playerRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer}
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryEconomy
	pub.Publish(ctx, event)
}
