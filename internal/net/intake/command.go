// Package intake routes decoded client messages onto the owning room.
// It is the single place the wire vocabulary maps to room operations, so
// the websocket loop stays a dumb pump.
package intake

import (
	"context"

	"croplands/server/internal/net/proto"
	"croplands/server/internal/room"
)

// Dispatch applies one decoded message to the room on behalf of a
// session. It reports false when the message type carries no room
// operation. Heartbeats are answered through the room's own send path.
func Dispatch(ctx context.Context, r *room.Room, sessionID string, msg proto.ClientMessage) bool {
	switch msg.Type {
	case proto.TypeMove:
		r.HandleMove(sessionID, room.MovePayload{GridX: msg.GridX, GridY: msg.GridY})
	case proto.TypeSetMap:
		r.HandleSetMap(sessionID, room.SetMapPayload{MapKey: msg.MapKey})
	case proto.TypeInteract:
		if msg.Target == nil {
			return false
		}
		r.HandleInteract(sessionID, room.InteractPayload{
			Target:     room.InteractTarget{GridX: msg.Target.GridX, GridY: msg.Target.GridY},
			ToolID:     msg.ToolID,
			ActionType: msg.ActionType,
			ChargeMs:   msg.ChargeMs,
		})
	case proto.TypeAttack:
		r.HandleAttack(sessionID, room.AttackPayload{GridX: msg.GridX, GridY: msg.GridY})
	case proto.TypeSelectHotbar:
		r.HandleSelectHotbar(sessionID, room.SelectHotbarPayload{SlotIndex: msg.SlotIndex})
	case proto.TypeEquipItem:
		r.HandleEquipItem(ctx, sessionID, room.EquipItemPayload{InstanceID: msg.InstanceID})
	case proto.TypeUnequipItem:
		r.HandleUnequipItem(ctx, sessionID, room.UnequipItemPayload{Slot: msg.Slot})
	case proto.TypeDropItem:
		r.HandleDropItem(ctx, sessionID, room.DropItemPayload{InstanceID: msg.InstanceID})
	case proto.TypeOpenContainer:
		r.HandleOpenContainer(ctx, sessionID, room.OpenContainerPayload{ObjectID: msg.ObjectID})
	case proto.TypeClaimContainer:
		r.HandleClaimContainer(ctx, sessionID, room.ClaimContainerPayload{ObjectID: msg.ObjectID, Nonce: msg.Nonce})
	case proto.TypeSubmitTask:
		r.HandleSubmitTask(ctx, sessionID, room.SubmitTaskPayload{TaskID: msg.TaskID, Answer: msg.Answer})
	case proto.TypeKeyframeRequest:
		if msg.KeyframeSeq == nil {
			return false
		}
		r.RequestKeyframe(sessionID, *msg.KeyframeSeq)
	default:
		return false
	}
	return true
}
