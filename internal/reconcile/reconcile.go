// Package reconcile turns replicated room snapshots into create/update/
// destroy decisions for a render layer, and decides when a locally
// predicted position needs correcting against the authoritative one.
package reconcile

import (
	"sort"

	"croplands/server/internal/grid"
)

// Entry is one key/value pair from a replicated map, whatever shape the
// transport delivered it in.
type Entry struct {
	Key   string
	Value map[string]any
}

// EntrySource is the narrow adapter over replicated collections. It is
// implemented once at the transport boundary so nothing downstream branches
// on representation.
type EntrySource interface {
	Entries() []Entry
}

type mapSource map[string]any

func (s mapSource) Entries() []Entry {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(s))
	for _, key := range keys {
		if value, ok := s[key].(map[string]any); ok {
			entries = append(entries, Entry{Key: key, Value: value})
		}
	}
	return entries
}

type listSource struct {
	items []any
	idKey string
}

func (s listSource) Entries() []Entry {
	entries := make([]Entry, 0, len(s.items))
	for _, item := range s.items {
		value, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, _ := value[s.idKey].(string)
		if key == "" {
			continue
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
	return entries
}

type emptySource struct{}

func (emptySource) Entries() []Entry { return nil }

// SourceFor adapts whatever shape a replicated collection decoded into:
// a keyed map, or a list of objects identified by idKey. Unknown shapes
// yield an empty source rather than an error.
func SourceFor(value any, idKey string) EntrySource {
	switch v := value.(type) {
	case map[string]any:
		return mapSource(v)
	case []any:
		return listSource{items: v, idKey: idKey}
	default:
		return emptySource{}
	}
}

// PlayerSnapshot is the per-player tuple the render layer consumes.
type PlayerSnapshot struct {
	SessionID string
	GridX     int
	GridY     int
}

// ReadPlayerSnapshots extracts position tuples from a replicated player
// collection.
func ReadPlayerSnapshots(source EntrySource) []PlayerSnapshot {
	if source == nil {
		return nil
	}
	entries := source.Entries()
	snapshots := make([]PlayerSnapshot, 0, len(entries))
	for _, entry := range entries {
		snapshots = append(snapshots, PlayerSnapshot{
			SessionID: entry.Key,
			GridX:     intField(entry.Value, "gridX"),
			GridY:     intField(entry.Value, "gridY"),
		})
	}
	return snapshots
}

// PlayerDiff partitions a snapshot set against the currently rendered ids.
type PlayerDiff struct {
	Upserts  []PlayerSnapshot
	Removals []string
}

// DiffRemotePlayers computes the render delta. The local session is never
// upserted; removals are exactly the tracked ids missing from the
// snapshot set.
func DiffRemotePlayers(snapshots []PlayerSnapshot, localSessionID string, existingIDs []string) PlayerDiff {
	present := make(map[string]bool, len(snapshots))
	var diff PlayerDiff
	for _, snap := range snapshots {
		present[snap.SessionID] = true
		if snap.SessionID == localSessionID {
			continue
		}
		diff.Upserts = append(diff.Upserts, snap)
	}
	for _, id := range existingIDs {
		if !present[id] {
			diff.Removals = append(diff.Removals, id)
		}
	}
	return diff
}

// CorrectionThreshold is how far prediction may drift, in tiles, before the
// render layer snaps to the server position.
const CorrectionThreshold = 1

// ShouldCorrect reports whether the predicted position has diverged from
// the authoritative one by more than the threshold.
func ShouldCorrect(predictedX, predictedY, serverX, serverY int) bool {
	return grid.Chebyshev(predictedX, predictedY, serverX, serverY) > CorrectionThreshold
}

// ObjectSnapshot is the per-world-object tuple the render layer consumes.
// ShowHealthBar toggles the damage indicator only once health has dropped.
type ObjectSnapshot struct {
	ObjectID      string
	DefinitionID  string
	GridX         int
	GridY         int
	Health        int
	MaxHealth     int
	ShowHealthBar bool
}

// ReadObjectSnapshots extracts world-object tuples from a replicated
// collection.
func ReadObjectSnapshots(source EntrySource) []ObjectSnapshot {
	if source == nil {
		return nil
	}
	entries := source.Entries()
	snapshots := make([]ObjectSnapshot, 0, len(entries))
	for _, entry := range entries {
		health := intField(entry.Value, "health")
		maxHealth := intField(entry.Value, "maxHealth")
		definitionID, _ := entry.Value["definitionId"].(string)
		snapshots = append(snapshots, ObjectSnapshot{
			ObjectID:      entry.Key,
			DefinitionID:  definitionID,
			GridX:         intField(entry.Value, "gridX"),
			GridY:         intField(entry.Value, "gridY"),
			Health:        health,
			MaxHealth:     maxHealth,
			ShowHealthBar: health < maxHealth,
		})
	}
	return snapshots
}

// ObjectDiff partitions an object snapshot set against rendered ids.
type ObjectDiff struct {
	Upserts  []ObjectSnapshot
	Removals []string
}

// DiffWorldObjects computes the render delta for world objects.
func DiffWorldObjects(snapshots []ObjectSnapshot, existingIDs []string) ObjectDiff {
	present := make(map[string]bool, len(snapshots))
	var diff ObjectDiff
	for _, snap := range snapshots {
		present[snap.ObjectID] = true
		diff.Upserts = append(diff.Upserts, snap)
	}
	for _, id := range existingIDs {
		if !present[id] {
			diff.Removals = append(diff.Removals, id)
		}
	}
	return diff
}

// intField tolerates both float64 (JSON numbers) and int values.
func intField(value map[string]any, key string) int {
	switch v := value[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
