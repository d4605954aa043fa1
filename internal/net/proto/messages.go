// Package proto defines the client wire envelope and validates every
// inbound frame against a JSON schema before anything downstream trusts
// its shape. Gameplay validators assume well-typed input; this boundary
// is what makes that assumption safe.
package proto

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client message type identifiers.
const (
	TypeMove            = "move"
	TypeSetMap          = "set_map"
	TypeInteract        = "interact"
	TypeAttack          = "attack"
	TypeSelectHotbar    = "select_hotbar"
	TypeEquipItem       = "equip_item"
	TypeUnequipItem     = "unequip_item"
	TypeDropItem        = "drop_item"
	TypeOpenContainer   = "open_container"
	TypeClaimContainer  = "claim_container"
	TypeSubmitTask      = "submit_task"
	TypeHeartbeat       = "heartbeat"
	TypeKeyframeRequest = "keyframe_request"
)

// Target is the tile coordinate carried by an interact message.
type Target struct {
	GridX int `json:"gridX"`
	GridY int `json:"gridY"`
}

// ClientMessage captures an inbound websocket message from the client.
// Which fields are meaningful depends on Type; the schema enforces the
// required set per type.
type ClientMessage struct {
	Ver  int    `json:"ver,omitempty"`
	Type string `json:"type"`

	GridX int `json:"gridX,omitempty"`
	GridY int `json:"gridY,omitempty"`

	MapKey string `json:"mapKey,omitempty"`

	Target     *Target `json:"target,omitempty"`
	ToolID     string  `json:"toolId,omitempty"`
	ActionType string  `json:"actionType,omitempty"`
	ChargeMs   int     `json:"chargeMs,omitempty"`

	SlotIndex  int    `json:"slotIndex,omitempty"`
	InstanceID string `json:"instanceId,omitempty"`
	Slot       string `json:"slot,omitempty"`

	ObjectID string `json:"objectId,omitempty"`
	Nonce    string `json:"nonce,omitempty"`

	TaskID string `json:"taskId,omitempty"`
	Answer string `json:"answer,omitempty"`

	SentAt      int64   `json:"sentAt,omitempty"`
	KeyframeSeq *uint64 `json:"keyframeSeq,omitempty"`
}

const clientMessageSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "ver": {"type": "integer", "minimum": 0},
    "type": {"enum": [
      "move", "set_map", "interact", "attack", "select_hotbar",
      "equip_item", "unequip_item", "drop_item", "open_container",
      "claim_container", "submit_task", "heartbeat", "keyframe_request"
    ]},
    "gridX": {"type": "integer", "minimum": -1048576, "maximum": 1048576},
    "gridY": {"type": "integer", "minimum": -1048576, "maximum": 1048576},
    "mapKey": {"type": "string", "minLength": 1, "maxLength": 64},
    "target": {
      "type": "object",
      "properties": {
        "gridX": {"type": "integer", "minimum": -1048576, "maximum": 1048576},
        "gridY": {"type": "integer", "minimum": -1048576, "maximum": 1048576}
      },
      "required": ["gridX", "gridY"]
    },
    "toolId": {"type": "string", "maxLength": 64},
    "actionType": {"type": "string", "minLength": 1, "maxLength": 32},
    "chargeMs": {"type": "integer", "minimum": 0, "maximum": 60000},
    "slotIndex": {"type": "integer", "minimum": 0, "maximum": 9},
    "instanceId": {"type": "string", "minLength": 1, "maxLength": 64},
    "slot": {"enum": ["hand", "head"]},
    "objectId": {"type": "string", "minLength": 1, "maxLength": 96},
    "nonce": {"type": "string", "minLength": 1, "maxLength": 64},
    "taskId": {"type": "string", "minLength": 1, "maxLength": 64},
    "answer": {"type": "string", "maxLength": 256},
    "sentAt": {"type": "integer", "minimum": 0},
    "keyframeSeq": {"type": "integer", "minimum": 0}
  },
  "required": ["type"],
  "allOf": [
    {"if": {"properties": {"type": {"const": "move"}}, "required": ["type"]},
     "then": {"required": ["gridX", "gridY"]}},
    {"if": {"properties": {"type": {"const": "set_map"}}, "required": ["type"]},
     "then": {"required": ["mapKey"]}},
    {"if": {"properties": {"type": {"const": "interact"}}, "required": ["type"]},
     "then": {"required": ["target", "actionType"]}},
    {"if": {"properties": {"type": {"const": "attack"}}, "required": ["type"]},
     "then": {"required": ["gridX", "gridY"]}},
    {"if": {"properties": {"type": {"const": "select_hotbar"}}, "required": ["type"]},
     "then": {"required": ["slotIndex"]}},
    {"if": {"properties": {"type": {"const": "equip_item"}}, "required": ["type"]},
     "then": {"required": ["instanceId"]}},
    {"if": {"properties": {"type": {"const": "unequip_item"}}, "required": ["type"]},
     "then": {"required": ["slot"]}},
    {"if": {"properties": {"type": {"const": "drop_item"}}, "required": ["type"]},
     "then": {"required": ["instanceId"]}},
    {"if": {"properties": {"type": {"const": "open_container"}}, "required": ["type"]},
     "then": {"required": ["objectId"]}},
    {"if": {"properties": {"type": {"const": "claim_container"}}, "required": ["type"]},
     "then": {"required": ["objectId", "nonce"]}},
    {"if": {"properties": {"type": {"const": "submit_task"}}, "required": ["type"]},
     "then": {"required": ["taskId", "answer"]}},
    {"if": {"properties": {"type": {"const": "keyframe_request"}}, "required": ["type"]},
     "then": {"required": ["keyframeSeq"]}}
  ]
}`

var compiledClientMessage = jsonschema.MustCompileString("client_message.json", clientMessageSchema)

// DecodeClientMessage parses and schema-validates one client frame.
// Malformed or adversarial frames are rejected here so validators never
// see them.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return ClientMessage{}, fmt.Errorf("malformed frame: %w", err)
	}
	if err := compiledClientMessage.Validate(generic); err != nil {
		return ClientMessage{}, fmt.Errorf("invalid frame: %w", err)
	}
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("malformed frame: %w", err)
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return ClientMessage{}, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}
