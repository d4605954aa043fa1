package items

// Instance is one owned copy of an item definition. Stackable definitions
// carry a quantity; unique items always have Quantity 1.
type Instance struct {
	InstanceID   string `json:"instanceId"`
	DefinitionID string `json:"definitionId"`
	Quantity     int    `json:"quantity"`
}

// Loadout is a player's equipped items. An empty InstanceID means the slot
// is unoccupied.
type Loadout struct {
	Hand Instance `json:"hand"`
	Head Instance `json:"head"`
}

// Slot returns the instance equipped in the named slot.
func (l Loadout) Slot(slot EquipSlot) Instance {
	switch slot {
	case EquipSlotHand:
		return l.Hand
	case EquipSlotHead:
		return l.Head
	default:
		return Instance{}
	}
}
