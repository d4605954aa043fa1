package room

import (
	"croplands/server/internal/items"
	"croplands/server/internal/loot"
)

// Client intent payloads. Each message is validated independently on every
// receipt; no payload implies any prior message was processed.

type MovePayload struct {
	GridX int `json:"gridX"`
	GridY int `json:"gridY"`
}

type SetMapPayload struct {
	MapKey string `json:"mapKey"`
}

type InteractTarget struct {
	GridX int `json:"gridX"`
	GridY int `json:"gridY"`
}

type InteractPayload struct {
	Target     InteractTarget `json:"target"`
	ToolID     string         `json:"toolId"`
	ActionType string         `json:"actionType"`
	ChargeMs   int            `json:"chargeMs"`
}

type AttackPayload struct {
	GridX int `json:"gridX"`
	GridY int `json:"gridY"`
}

type SelectHotbarPayload struct {
	SlotIndex int `json:"slotIndex"`
}

type EquipItemPayload struct {
	InstanceID string `json:"instanceId"`
}

type UnequipItemPayload struct {
	Slot string `json:"slot"`
}

type DropItemPayload struct {
	InstanceID string `json:"instanceId"`
}

type OpenContainerPayload struct {
	ObjectID string `json:"objectId"`
}

type ClaimContainerPayload struct {
	ObjectID string `json:"objectId"`
	Nonce    string `json:"nonce"`
}

type SubmitTaskPayload struct {
	TaskID string `json:"taskId"`
	Answer string `json:"answer"`
}

// One-shot server->client messages. These travel outside the replicated
// state path and are never diffed or retained.

type Notification struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewNotification(message string) Notification {
	return Notification{Type: "notification", Message: message}
}

type InventoryUpdate struct {
	Type  string           `json:"type"`
	Items []items.Instance `json:"items"`
}

func NewInventoryUpdate(list []items.Instance) InventoryUpdate {
	return InventoryUpdate{Type: "inventory_update", Items: list}
}

type EquipmentUpdate struct {
	Type    string        `json:"type"`
	Loadout items.Loadout `json:"loadout"`
}

func NewEquipmentUpdate(loadout items.Loadout) EquipmentUpdate {
	return EquipmentUpdate{Type: "equipment_update", Loadout: loadout}
}

type CurrencyUpdate struct {
	Type     string `json:"type"`
	Currency string `json:"currency"`
	Balance  int    `json:"balance"`
}

func NewCurrencyUpdate(currency string, balance int) CurrencyUpdate {
	return CurrencyUpdate{Type: "currency_update", Currency: currency, Balance: balance}
}

type ContainerContents struct {
	Type            string           `json:"type"`
	ObjectID        string           `json:"objectId"`
	Nonce           string           `json:"nonce"`
	Items           []loot.ItemGrant `json:"items"`
	CurrencyRewards map[string]int   `json:"currencyRewards,omitempty"`
}

type TaskTrigger struct {
	Type   string `json:"type"`
	TaskID string `json:"taskId"`
}

func NewTaskTrigger(taskID string) TaskTrigger {
	return TaskTrigger{Type: "task_trigger", TaskID: taskID}
}

type TaskResult struct {
	Type    string `json:"type"`
	TaskID  string `json:"taskId"`
	Correct bool   `json:"correct"`
	Detail  string `json:"detail,omitempty"`
}

// Replication stream messages.

type StateMessage struct {
	Type     string  `json:"type"`
	Tick     uint64  `json:"tick"`
	Sequence uint64  `json:"sequence"`
	Patches  []Patch `json:"patches"`
}

type KeyframeMessage struct {
	Type     string   `json:"type"`
	Keyframe Keyframe `json:"keyframe"`
}

type KeyframeNack struct {
	Type      string `json:"type"`
	Requested uint64 `json:"requested"`
	Oldest    uint64 `json:"oldest"`
	Newest    uint64 `json:"newest"`
}

type JoinAck struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionId"`
	Keyframe  Keyframe `json:"keyframe"`
}

type HeartbeatAck struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}
