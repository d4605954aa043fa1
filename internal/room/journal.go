package room

import (
	"sync"
	"time"
)

const (
	defaultKeyframeCapacity = 8
	defaultKeyframeMaxAge   = 5 * time.Second
)

// Keyframe is a full-state snapshot clients can resync from when they fall
// behind the patch stream.
type Keyframe struct {
	Sequence     uint64               `json:"sequence"`
	Tick         uint64               `json:"tick"`
	RecordedAt   time.Time            `json:"recordedAt"`
	Players      []PlayerState        `json:"players"`
	Tiles        map[string]TileState `json:"tiles"`
	WorldObjects []WorldObjectState   `json:"worldObjects"`
}

// KeyframeEviction records why a keyframe left the journal window.
type KeyframeEviction struct {
	Sequence uint64
	Reason   string
}

// Journal accumulates patches between broadcasts and retains a bounded
// window of keyframes for resync requests.
type Journal struct {
	mu        sync.Mutex
	patches   []Patch
	keyframes []Keyframe
	capacity  int
	maxAge    time.Duration
}

// NewJournal builds a journal with the given keyframe retention policy.
// Non-positive arguments fall back to the defaults.
func NewJournal(capacity int, maxAge time.Duration) *Journal {
	if capacity <= 0 {
		capacity = defaultKeyframeCapacity
	}
	if maxAge <= 0 {
		maxAge = defaultKeyframeMaxAge
	}
	return &Journal{capacity: capacity, maxAge: maxAge}
}

// AppendPatch queues a diff entry for the next broadcast.
func (j *Journal) AppendPatch(p Patch) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.patches = append(j.patches, p)
}

// DrainPatches returns the queued diff entries and resets the buffer.
func (j *Journal) DrainPatches() []Patch {
	j.mu.Lock()
	defer j.mu.Unlock()
	drained := j.patches
	j.patches = nil
	return drained
}

// RestorePatches puts drained patches back, ahead of anything queued since.
// Used when a broadcast fails before any subscriber received it.
func (j *Journal) RestorePatches(p []Patch) {
	if len(p) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.patches) == 0 {
		j.patches = p
		return
	}
	j.patches = append(p, j.patches...)
}

// PurgeEntity drops queued patches for a removed entity so stale updates
// never trail its removal patch.
func (j *Journal) PurgeEntity(entityID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	kept := j.patches[:0]
	for _, p := range j.patches {
		if p.EntityID == entityID && p.Kind != PatchPlayerRemoved && p.Kind != PatchWorldObjectRemoved {
			continue
		}
		kept = append(kept, p)
	}
	j.patches = kept
}

// RecordKeyframe stores a snapshot and evicts frames that fall outside the
// count or age window.
func (j *Journal) RecordKeyframe(frame Keyframe) []KeyframeEviction {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.keyframes = append(j.keyframes, frame)

	var evicted []KeyframeEviction
	cutoff := frame.RecordedAt.Add(-j.maxAge)
	for len(j.keyframes) > 0 && j.keyframes[0].RecordedAt.Before(cutoff) {
		evicted = append(evicted, KeyframeEviction{Sequence: j.keyframes[0].Sequence, Reason: "age"})
		j.keyframes = j.keyframes[1:]
	}
	for len(j.keyframes) > j.capacity {
		evicted = append(evicted, KeyframeEviction{Sequence: j.keyframes[0].Sequence, Reason: "capacity"})
		j.keyframes = j.keyframes[1:]
	}
	return evicted
}

// KeyframeBySequence finds a retained snapshot by its sequence number.
func (j *Journal) KeyframeBySequence(sequence uint64) (Keyframe, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.keyframes) - 1; i >= 0; i-- {
		if j.keyframes[i].Sequence == sequence {
			return j.keyframes[i], true
		}
	}
	return Keyframe{}, false
}

// LatestKeyframe returns the newest retained snapshot.
func (j *Journal) LatestKeyframe() (Keyframe, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.keyframes) == 0 {
		return Keyframe{}, false
	}
	return j.keyframes[len(j.keyframes)-1], true
}

// KeyframeWindow reports the retained snapshot count and sequence bounds.
func (j *Journal) KeyframeWindow() (size int, oldest, newest uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	size = len(j.keyframes)
	if size > 0 {
		oldest = j.keyframes[0].Sequence
		newest = j.keyframes[size-1].Sequence
	}
	return size, oldest, newest
}
