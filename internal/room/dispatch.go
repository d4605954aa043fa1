package room

import (
	"context"
	"errors"
	"sort"

	"croplands/server/internal/grid"
	"croplands/server/internal/items"
	"croplands/server/internal/loot"
	"croplands/server/internal/rules"
	"croplands/server/logging"
	"croplands/server/logging/economy"
	"croplands/server/logging/gameplay"
)

// guard isolates one message handler's failure domain: a panic is logged
// and swallowed so the room and its other sessions keep running. The
// recovery path must stay lock-free; every locked section below releases
// the mutex with defer before a panic can reach this recover.
func (r *Room) guard(handler, sessionID string, fn func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.deps.Publisher.Publish(context.Background(), logging.Event{
				Type:     "handler_panic",
				Tick:     r.currentTick(),
				Actor:    logging.EntityRef{ID: sessionID, Kind: logging.EntityKindPlayer},
				Severity: logging.SeverityError,
				Category: logging.CategorySystem,
				Payload:  map[string]any{"handler": handler, "panic": recovered},
			})
		}
	}()
	fn()
}

func (r *Room) currentTick() uint64 {
	return r.tick.Load()
}

// HandleMove clamps the proposed position to the grid and commits it
// through the mutator. Out-of-range input is never rejected, only clamped;
// a blocked clamped target rejects the whole move and the next broadcast
// corrects the client.
func (r *Room) HandleMove(sessionID string, payload MovePayload) {
	r.guard("move", sessionID, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		p, ok := r.state.Players[sessionID]
		if !ok {
			return
		}
		x := grid.ClampToGrid(payload.GridX)
		y := grid.ClampToGrid(payload.GridY)
		if r.isBlockedLocked(p.CurrentMapKey, x, y) {
			return
		}
		r.setPlayerPositionLocked(p, x, y)
	})
}

// HandleSetMap switches the player's logical map and lazily seeds that
// map's world objects on first entry.
func (r *Room) HandleSetMap(sessionID string, payload SetMapPayload) {
	r.guard("set_map", sessionID, func() {
		if payload.MapKey == "" {
			return
		}
		if !r.applyMapChange(sessionID, payload.MapKey) {
			return
		}
		gameplay.MapChanged(context.Background(), r.deps.Publisher, r.currentTick(), sessionID, payload.MapKey)
	})
}

func (r *Room) applyMapChange(sessionID, mapKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.Players[sessionID]
	if !ok {
		return false
	}
	r.seedMapLocked(mapKey)
	r.setPlayerMapLocked(p, mapKey)
	return true
}

// HandleInteract validates a tool interaction and reports the outcome.
func (r *Room) HandleInteract(sessionID string, payload InteractPayload) {
	r.guard("interact", sessionID, func() {
		result, ok := r.applyInteraction(sessionID, payload, r.nowMs())
		if !ok {
			return
		}
		ctx := context.Background()
		tick := r.currentTick()
		if result.Accepted {
			key := grid.KeyFor(payload.Target.GridX, payload.Target.GridY)
			gameplay.Interaction(ctx, r.deps.Publisher, tick, sessionID, payload.ActionType, string(key))
		} else {
			gameplay.InteractionDenied(ctx, r.deps.Publisher, tick, sessionID, payload.ActionType, result.Reason)
		}
	})
}

// applyInteraction validates against copies of the player and target tile,
// then commits both through the mutators on acceptance.
func (r *Room) applyInteraction(sessionID string, payload InteractPayload, nowMs int64) (InteractionResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.Players[sessionID]
	if !ok {
		return InteractionResult{}, false
	}
	hand := r.handStatsLocked(p)

	key := grid.KeyFor(payload.Target.GridX, payload.Target.GridY)
	scratch := make(map[grid.TileKey]*TileState, 1)
	if tile, found := r.state.Tiles[key]; found {
		copied := *tile
		scratch[key] = &copied
	}
	work := *p
	result := ApplyInteraction(&work, scratch, payload, nowMs, hand)
	if result.Accepted {
		p.LastInteractAtMs = work.LastInteractAtMs
		r.setPlayerStaminaLocked(p, work.Stamina)
		r.setTileLocked(key, *scratch[key])
	}
	return result, true
}

type attackOutcome struct {
	objectID    string
	targetDefID string
	damage      int
	destroyed   bool
	drops       loot.Result
}

// HandleAttack resolves damage against the world object on the targeted
// tile of the player's current map, then publishes the outcome and grants
// any drops outside the lock.
func (r *Room) HandleAttack(sessionID string, payload AttackPayload) {
	r.guard("attack", sessionID, func() {
		outcome, ok := r.applyAttack(sessionID, payload, r.nowMs())
		if !ok {
			return
		}
		ctx := context.Background()
		tick := r.currentTick()
		gameplay.Attack(ctx, r.deps.Publisher, tick, sessionID, outcome.objectID, outcome.damage)
		if !outcome.destroyed {
			return
		}
		gameplay.ObjectDestroyed(ctx, r.deps.Publisher, tick, sessionID, outcome.objectID, outcome.targetDefID)
		r.grantLoot(ctx, sessionID, tick, outcome.drops)
	})
}

// applyAttack runs the gate checks and applies damage. Destruction removes
// the object and resolves its drop table exactly once before any service
// call runs.
func (r *Room) applyAttack(sessionID string, payload AttackPayload, nowMs int64) (attackOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.Players[sessionID]
	if !ok {
		return attackOutcome{}, false
	}
	handDef, found := items.Definition{}, false
	if p.EquippedHandDefID != "" {
		handDef, found = r.deps.Catalog.Definition(p.EquippedHandDefID)
	}
	if !found || handDef.Equippable == nil {
		return attackOutcome{}, false
	}
	params := handDef.Equippable.Damage
	if !rules.CanAttack(p.LastAttackAtMs, params.Rate, nowMs) {
		return attackOutcome{}, false
	}
	if !rules.InRange(p.GridX, p.GridY, payload.GridX, payload.GridY, params.Range) {
		return attackOutcome{}, false
	}
	obj, ok := r.state.WorldObjects[grid.ObjectKeyFor(p.CurrentMapKey, payload.GridX, payload.GridY)]
	if !ok {
		return attackOutcome{}, false
	}
	targetDef, ok := r.deps.Catalog.Definition(obj.DefinitionID)
	if !ok || targetDef.Destroyable == nil {
		return attackOutcome{}, false
	}

	p.LastAttackAtMs = nowMs
	damage := rules.CalculateDamage(params, targetDef.Tags)
	if damage <= 0 {
		return attackOutcome{}, false
	}

	outcome := attackOutcome{objectID: obj.ObjectID, targetDefID: targetDef.ID, damage: damage}
	r.setWorldObjectHealthLocked(obj, obj.Health-damage)
	if obj.Health <= 0 {
		r.removeWorldObjectLocked(obj)
		outcome.destroyed = true
		outcome.drops = loot.Resolve(targetDef.Destroyable.Drops, r.lootRNG)
	}
	return outcome, true
}

// grantLoot pushes a resolved drop result through the durable services and
// notifies the attacker. The player may have left mid-grant; persistence
// still completes against the user account and sends simply no-op.
func (r *Room) grantLoot(ctx context.Context, sessionID string, tick uint64, drops loot.Result) {
	if drops.Empty() {
		return
	}
	userID, connected := r.sessionUser(sessionID)
	if !connected {
		return
	}

	if len(drops.Items) > 0 {
		inventory, err := r.deps.Inventory.AddItems(ctx, userID, drops.Items)
		if err == nil {
			for _, grant := range drops.Items {
				economy.LootGranted(ctx, r.deps.Publisher, tick, sessionID, grant.DefinitionID, grant.Quantity)
			}
			r.sendTo(sessionID, NewInventoryUpdate(inventory))
		}
	}

	currencies := make([]string, 0, len(drops.Currency))
	for currency := range drops.Currency {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	for _, currency := range currencies {
		amount := drops.Currency[currency]
		balance, err := r.deps.Currency.Add(ctx, userID, currency, amount)
		if err != nil {
			continue
		}
		economy.CurrencyGranted(ctx, r.deps.Publisher, tick, sessionID, currency, amount)
		r.sendTo(sessionID, NewCurrencyUpdate(currency, balance))
	}

	for _, taskID := range drops.PendingTasks {
		if err := r.deps.Tasks.Grant(ctx, userID, taskID); err != nil {
			continue
		}
		economy.TaskGranted(ctx, r.deps.Publisher, tick, sessionID, taskID)
		r.sendTo(sessionID, NewTaskTrigger(taskID))
	}
}

// HandleSelectHotbar replicates the selected hotbar slot.
func (r *Room) HandleSelectHotbar(sessionID string, payload SelectHotbarPayload) {
	r.guard("select_hotbar", sessionID, func() {
		if payload.SlotIndex < 0 || payload.SlotIndex > 9 {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		p, ok := r.state.Players[sessionID]
		if !ok {
			return
		}
		r.setPlayerHotbarLocked(p, payload.SlotIndex)
	})
}

// HandleEquipItem equips an owned instance through the equipment service,
// then commits the cached definition ids if the player is still connected.
func (r *Room) HandleEquipItem(ctx context.Context, sessionID string, payload EquipItemPayload) {
	r.guard("equip_item", sessionID, func() {
		userID, ok := r.sessionUser(sessionID)
		if !ok || payload.InstanceID == "" {
			return
		}
		loadout, err := r.deps.Equipment.Equip(ctx, userID, payload.InstanceID)
		if err != nil {
			if errors.Is(err, ErrNotOwned) {
				r.sendTo(sessionID, NewNotification("You do not have that item."))
			}
			return
		}
		r.commitLoadout(sessionID, loadout)
	})
}

// HandleUnequipItem clears a slot through the equipment service.
func (r *Room) HandleUnequipItem(ctx context.Context, sessionID string, payload UnequipItemPayload) {
	r.guard("unequip_item", sessionID, func() {
		slot := items.EquipSlot(payload.Slot)
		if slot != items.EquipSlotHand && slot != items.EquipSlotHead {
			return
		}
		userID, ok := r.sessionUser(sessionID)
		if !ok {
			return
		}
		loadout, err := r.deps.Equipment.Unequip(ctx, userID, slot)
		if err != nil {
			return
		}
		r.commitLoadout(sessionID, loadout)
	})
}

// commitLoadout re-validates the player after the service round trip and
// replicates the cached equipment fields.
func (r *Room) commitLoadout(sessionID string, loadout items.Loadout) {
	if !r.applyLoadout(sessionID, loadout) {
		return
	}
	r.sendTo(sessionID, NewEquipmentUpdate(loadout))
}

func (r *Room) applyLoadout(sessionID string, loadout items.Loadout) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.Players[sessionID]
	if !ok {
		return false
	}
	r.setPlayerEquipmentLocked(p,
		loadout.Hand.InstanceID, loadout.Head.InstanceID,
		loadout.Hand.DefinitionID, loadout.Head.DefinitionID)
	return true
}

// HandleDropItem removes an instance from the inventory. Dropping an
// equipped item unequips it first so the cache never references a removed
// instance.
func (r *Room) HandleDropItem(ctx context.Context, sessionID string, payload DropItemPayload) {
	r.guard("drop_item", sessionID, func() {
		if payload.InstanceID == "" {
			return
		}
		userID, ok := r.sessionUser(sessionID)
		if !ok {
			return
		}

		if slot := r.equippedSlotOf(sessionID, payload.InstanceID); slot != "" {
			loadout, err := r.deps.Equipment.Unequip(ctx, userID, slot)
			if err != nil {
				return
			}
			r.commitLoadout(sessionID, loadout)
		}

		if _, err := r.deps.Inventory.RemoveItem(ctx, userID, payload.InstanceID); err != nil {
			if errors.Is(err, ErrNotOwned) {
				r.sendTo(sessionID, NewNotification("You do not have that item."))
			}
			return
		}
		economy.ItemDropped(ctx, r.deps.Publisher, r.currentTick(), sessionID, payload.InstanceID)

		if inventory, err := r.deps.Inventory.Items(ctx, userID); err == nil {
			r.sendTo(sessionID, NewInventoryUpdate(inventory))
		}
	})
}

func (r *Room) equippedSlotOf(sessionID, instanceID string) items.EquipSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, found := r.state.Players[sessionID]
	if !found {
		return ""
	}
	switch instanceID {
	case p.EquippedHandItemID:
		return items.EquipSlotHand
	case p.EquippedHeadItemID:
		return items.EquipSlotHead
	}
	return ""
}

// HandleOpenContainer offers a container's contents under a fresh nonce.
func (r *Room) HandleOpenContainer(ctx context.Context, sessionID string, payload OpenContainerPayload) {
	r.guard("open_container", sessionID, func() {
		definitionID, ok := r.containerTarget(sessionID, payload.ObjectID)
		if !ok {
			return
		}
		def, ok := r.deps.Catalog.Definition(definitionID)
		if !ok || def.Container == nil {
			return
		}
		userID, ok := r.sessionUser(sessionID)
		if !ok {
			return
		}
		offer, err := r.deps.Containers.Open(ctx, userID, payload.ObjectID, definitionID)
		if err != nil {
			if errors.Is(err, ErrAlreadyClaimed) {
				r.sendTo(sessionID, NewNotification("The container is empty."))
			}
			return
		}
		economy.ContainerOpened(ctx, r.deps.Publisher, r.currentTick(), sessionID, payload.ObjectID)
		r.sendTo(sessionID, ContainerContents{
			Type:            "container_contents",
			ObjectID:        payload.ObjectID,
			Nonce:           offer.Nonce,
			Items:           offer.Items,
			CurrencyRewards: offer.Currency,
		})
	})
}

// containerTarget resolves the object's definition when it sits on the
// player's map within reach.
func (r *Room) containerTarget(sessionID, objectID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.Players[sessionID]
	if !ok {
		return "", false
	}
	obj, ok := r.state.WorldObjects[grid.ObjectKey(objectID)]
	if !ok || obj.MapKey != p.CurrentMapKey {
		return "", false
	}
	if !rules.InRange(p.GridX, p.GridY, obj.GridX, obj.GridY, 1) {
		return "", false
	}
	return obj.DefinitionID, true
}

// HandleClaimContainer grants an open offer. Claims are idempotent by
// nonce; a successful claim removes the container object from the world.
func (r *Room) HandleClaimContainer(ctx context.Context, sessionID string, payload ClaimContainerPayload) {
	r.guard("claim_container", sessionID, func() {
		userID, ok := r.sessionUser(sessionID)
		if !ok {
			return
		}
		claim, err := r.deps.Containers.Claim(ctx, userID, payload.ObjectID, payload.Nonce)
		if err != nil {
			switch {
			case errors.Is(err, ErrAlreadyClaimed):
				r.sendTo(sessionID, NewNotification("The container is empty."))
			case errors.Is(err, ErrNoOffer):
				r.sendTo(sessionID, NewNotification("Open the container first."))
			}
			return
		}

		r.removeWorldObject(payload.ObjectID)

		economy.ContainerClaimed(ctx, r.deps.Publisher, r.currentTick(), sessionID, payload.ObjectID, payload.Nonce)
		r.sendTo(sessionID, NewInventoryUpdate(claim.Items))
		currencies := make([]string, 0, len(claim.Balances))
		for currency := range claim.Balances {
			currencies = append(currencies, currency)
		}
		sort.Strings(currencies)
		for _, currency := range currencies {
			r.sendTo(sessionID, NewCurrencyUpdate(currency, claim.Balances[currency]))
		}
	})
}

func (r *Room) removeWorldObject(objectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if obj, found := r.state.WorldObjects[grid.ObjectKey(objectID)]; found {
		r.removeWorldObjectLocked(obj)
	}
}

// HandleSubmitTask evaluates a task answer and reports the outcome.
func (r *Room) HandleSubmitTask(ctx context.Context, sessionID string, payload SubmitTaskPayload) {
	r.guard("submit_task", sessionID, func() {
		userID, ok := r.sessionUser(sessionID)
		if !ok {
			return
		}
		outcome, err := r.deps.Tasks.Submit(ctx, userID, payload.TaskID, payload.Answer)
		if err != nil {
			if errors.Is(err, ErrUnknownTask) {
				r.sendTo(sessionID, NewNotification("That task is not active."))
			}
			return
		}
		economy.TaskResolved(ctx, r.deps.Publisher, r.currentTick(), sessionID, outcome.TaskID, outcome.Correct)
		r.sendTo(sessionID, TaskResult{
			Type:    "task_result",
			TaskID:  outcome.TaskID,
			Correct: outcome.Correct,
			Detail:  outcome.Detail,
		})
	})
}
