package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"croplands/server/internal/items"
	"croplands/server/internal/loot"
	"croplands/server/internal/room"
)

func newTestBundle(t *testing.T) *Bundle {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "croplands.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewBundle(store, items.DefaultCatalog(), 11)
}

func TestClassroomMembership(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()

	member, err := b.Classrooms.IsUserInClassroom(ctx, "alice", "class-1")
	if err != nil || member {
		t.Fatalf("expected non-member, got member=%v err=%v", member, err)
	}

	if err := b.Classrooms.AddMember(ctx, "alice", "class-1"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := b.Classrooms.AddMember(ctx, "alice", "class-1"); err != nil {
		t.Fatalf("re-enrolling must be idempotent: %v", err)
	}
	member, err = b.Classrooms.IsUserInClassroom(ctx, "alice", "class-1")
	if err != nil || !member {
		t.Fatalf("expected member, got member=%v err=%v", member, err)
	}

	if err := b.Classrooms.RemoveMember(ctx, "alice", "class-1"); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	member, _ = b.Classrooms.IsUserInClassroom(ctx, "alice", "class-1")
	if member {
		t.Fatalf("removed member must not pass the check")
	}
}

func TestInventoryStacksStackables(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()

	owned, err := b.Inventory.AddItems(ctx, "alice", []loot.ItemGrant{
		{DefinitionID: items.ItemWoodLog, Quantity: 2},
		{DefinitionID: items.ItemWoodLog, Quantity: 3},
		{DefinitionID: items.ItemIronAxe, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("add items: %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("wood must stack into one row, got %d rows", len(owned))
	}
	for _, inst := range owned {
		if inst.DefinitionID == items.ItemWoodLog && inst.Quantity != 5 {
			t.Fatalf("expected wood quantity 5, got %d", inst.Quantity)
		}
		if inst.DefinitionID == items.ItemIronAxe && inst.Quantity != 1 {
			t.Fatalf("expected axe quantity 1, got %d", inst.Quantity)
		}
	}
}

func TestInventoryRemoveDecrementsStacks(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()

	owned, _ := b.Inventory.AddItems(ctx, "alice", []loot.ItemGrant{
		{DefinitionID: items.ItemWoodLog, Quantity: 3},
	})
	stackID := owned[0].InstanceID

	if _, err := b.Inventory.RemoveItem(ctx, "alice", stackID); err != nil {
		t.Fatalf("remove from stack: %v", err)
	}
	owned, _ = b.Inventory.Items(ctx, "alice")
	if len(owned) != 1 || owned[0].Quantity != 2 {
		t.Fatalf("expected stack of 2, got %+v", owned)
	}

	if _, err := b.Inventory.RemoveItem(ctx, "bob", stackID); !errors.Is(err, room.ErrNotOwned) {
		t.Fatalf("foreign instance must be rejected, got %v", err)
	}
	if _, err := b.Inventory.RemoveItem(ctx, "alice", "missing"); !errors.Is(err, room.ErrNotOwned) {
		t.Fatalf("unknown instance must be rejected, got %v", err)
	}
}

func TestEquipResolvesSlotAndValidatesOwnership(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()

	owned, _ := b.Inventory.AddItems(ctx, "alice", []loot.ItemGrant{
		{DefinitionID: items.ItemIronAxe, Quantity: 1},
		{DefinitionID: items.ItemStrawHat, Quantity: 1},
	})
	var axeID, hatID string
	for _, inst := range owned {
		switch inst.DefinitionID {
		case items.ItemIronAxe:
			axeID = inst.InstanceID
		case items.ItemStrawHat:
			hatID = inst.InstanceID
		}
	}

	loadout, err := b.Equipment.Equip(ctx, "alice", axeID)
	if err != nil {
		t.Fatalf("equip axe: %v", err)
	}
	if loadout.Hand.DefinitionID != items.ItemIronAxe {
		t.Fatalf("axe must land in the hand slot: %+v", loadout)
	}

	loadout, err = b.Equipment.Equip(ctx, "alice", hatID)
	if err != nil {
		t.Fatalf("equip hat: %v", err)
	}
	if loadout.Head.DefinitionID != items.ItemStrawHat || loadout.Hand.DefinitionID != items.ItemIronAxe {
		t.Fatalf("hat must land in the head slot without clearing the hand: %+v", loadout)
	}

	if _, err := b.Equipment.Equip(ctx, "bob", axeID); !errors.Is(err, room.ErrNotOwned) {
		t.Fatalf("equipping someone else's item must fail, got %v", err)
	}

	loadout, err = b.Equipment.Unequip(ctx, "alice", items.EquipSlotHand)
	if err != nil {
		t.Fatalf("unequip: %v", err)
	}
	if loadout.Hand.InstanceID != "" || loadout.Head.DefinitionID != items.ItemStrawHat {
		t.Fatalf("unequip must clear only the hand: %+v", loadout)
	}

	reloaded, err := b.Equipment.Loadout(ctx, "alice")
	if err != nil || reloaded.Head.DefinitionID != items.ItemStrawHat {
		t.Fatalf("loadout must persist: %+v err=%v", reloaded, err)
	}
}

func TestCurrencyBalancesClampAtZero(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()

	balance, err := b.Currency.Add(ctx, "alice", items.CurrencyCoins, 7)
	if err != nil || balance != 7 {
		t.Fatalf("expected balance 7, got %d err=%v", balance, err)
	}
	balance, _ = b.Currency.Add(ctx, "alice", items.CurrencyCoins, -10)
	if balance != 0 {
		t.Fatalf("balance must clamp at zero, got %d", balance)
	}
	if got, _ := b.Currency.Balance(ctx, "alice", items.CurrencyCoins); got != 0 {
		t.Fatalf("stored balance mismatch: %d", got)
	}
	if got, _ := b.Currency.Balance(ctx, "bob", items.CurrencyCoins); got != 0 {
		t.Fatalf("unknown user balance must read zero, got %d", got)
	}
}

func TestContainerClaimIdempotentByNonce(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()
	objectID := "farm:8,8"

	offer, err := b.Containers.Open(ctx, "alice", objectID, items.ObjectSupplyCrate)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if offer.Nonce == "" {
		t.Fatalf("offer must carry a nonce")
	}
	if offer.Currency[items.CurrencyCoins] < 5 {
		t.Fatalf("crate must include its fixed coin reward, got %+v", offer.Currency)
	}

	claim, err := b.Containers.Claim(ctx, "alice", objectID, offer.Nonce)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	replay, err := b.Containers.Claim(ctx, "alice", objectID, offer.Nonce)
	if err != nil {
		t.Fatalf("nonce replay must return the stored claim: %v", err)
	}
	if len(replay.Items) != len(claim.Items) {
		t.Fatalf("replayed claim must match: %+v vs %+v", replay, claim)
	}

	owned, _ := b.Inventory.Items(ctx, "alice")
	total := 0
	for _, inst := range owned {
		total += inst.Quantity
	}
	granted := 0
	for _, inst := range claim.Items {
		granted += inst.Quantity
	}
	if total != granted {
		t.Fatalf("replay must not double-grant: inventory %d vs claim %d", total, granted)
	}

	if _, err := b.Containers.Claim(ctx, "bob", objectID, offer.Nonce); !errors.Is(err, room.ErrAlreadyClaimed) {
		t.Fatalf("other users must see already-claimed, got %v", err)
	}
	if _, err := b.Containers.Open(ctx, "bob", objectID, items.ObjectSupplyCrate); !errors.Is(err, room.ErrAlreadyClaimed) {
		t.Fatalf("claimed container must not reopen, got %v", err)
	}
}

func TestContainerClaimRequiresOpenOffer(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()

	if _, err := b.Containers.Claim(ctx, "alice", "farm:1,1", "made-up"); !errors.Is(err, room.ErrNoOffer) {
		t.Fatalf("claim without open must fail, got %v", err)
	}
}

func TestTaskGrantAndSubmit(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()

	if err := b.Tasks.Grant(ctx, "alice", "nope"); !errors.Is(err, room.ErrUnknownTask) {
		t.Fatalf("unknown task grant must fail, got %v", err)
	}
	if _, err := b.Tasks.Submit(ctx, "alice", "botany-1", "3"); !errors.Is(err, room.ErrUnknownTask) {
		t.Fatalf("submitting an ungranted task must fail, got %v", err)
	}

	if err := b.Tasks.Grant(ctx, "alice", "botany-1"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	pending, _ := b.Tasks.Pending(ctx, "alice")
	if len(pending) != 1 || pending[0] != "botany-1" {
		t.Fatalf("expected pending botany-1, got %v", pending)
	}

	outcome, err := b.Tasks.Submit(ctx, "alice", "botany-1", " 3 ")
	if err != nil || !outcome.Correct {
		t.Fatalf("trimmed answer must pass, got %+v err=%v", outcome, err)
	}
	pending, _ = b.Tasks.Pending(ctx, "alice")
	if len(pending) != 0 {
		t.Fatalf("completed task must leave pending, got %v", pending)
	}
}
