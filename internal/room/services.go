package room

import (
	"context"
	"errors"

	"croplands/server/internal/items"
	"croplands/server/internal/loot"
)

// Named domain errors the dispatch sites translate into notifications or
// silent drops. A service error never crashes the room.
var (
	ErrAccessDenied   = errors.New("classroom access denied")
	ErrNotOwned       = errors.New("item not found or not owned")
	ErrAlreadyClaimed = errors.New("container already claimed")
	ErrNoOffer        = errors.New("no open container offer")
	ErrUnknownTask    = errors.New("unknown task")
)

// Authorizer resolves a join token into a verified user identity.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (userID string, err error)
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, token string) (string, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// ClassroomService answers membership checks for join gating.
type ClassroomService interface {
	IsUserInClassroom(ctx context.Context, userID, classroomID string) (bool, error)
}

// InventoryService owns durable item instances per user.
type InventoryService interface {
	Items(ctx context.Context, userID string) ([]items.Instance, error)
	AddItems(ctx context.Context, userID string, grants []loot.ItemGrant) ([]items.Instance, error)
	RemoveItem(ctx context.Context, userID, instanceID string) (items.Instance, error)
}

// EquipmentService owns the durable equipped loadout per user. Equip
// validates ownership and slot compatibility internally.
type EquipmentService interface {
	Loadout(ctx context.Context, userID string) (items.Loadout, error)
	Equip(ctx context.Context, userID, instanceID string) (items.Loadout, error)
	Unequip(ctx context.Context, userID string, slot items.EquipSlot) (items.Loadout, error)
}

// CurrencyService owns durable currency balances per user.
type CurrencyService interface {
	Add(ctx context.Context, userID, currency string, amount int) (balance int, err error)
}

// ContainerOffer is the one-time claimable contents of an opened container.
type ContainerOffer struct {
	Nonce    string
	Items    []loot.ItemGrant
	Currency map[string]int
}

// ContainerClaim is the durable result of claiming an offer. Replaying the
// same nonce returns the original claim unchanged.
type ContainerClaim struct {
	Items    []items.Instance
	Balances map[string]int
}

// ContainerService resolves container contents and enforces claim-once
// semantics by nonce.
type ContainerService interface {
	Open(ctx context.Context, userID, objectID, definitionID string) (ContainerOffer, error)
	Claim(ctx context.Context, userID, objectID, nonce string) (ContainerClaim, error)
}

// TaskOutcome is the evaluation of a submitted task answer.
type TaskOutcome struct {
	TaskID  string
	Correct bool
	Detail  string
}

// TaskService grants pending tasks from loot and evaluates submissions.
type TaskService interface {
	Grant(ctx context.Context, userID, taskID string) error
	Submit(ctx context.Context, userID, taskID, answer string) (TaskOutcome, error)
}

// Sender is the transport half of one connected client session.
type Sender interface {
	Send(message any) error
	Close()
}
