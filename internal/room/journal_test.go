package room

import (
	"testing"
	"time"
)

func TestJournalDrainResetsBuffer(t *testing.T) {
	j := NewJournal(4, time.Minute)
	j.AppendPatch(Patch{Kind: PatchPlayerPos, EntityID: "p1"})
	j.AppendPatch(Patch{Kind: PatchPlayerStamina, EntityID: "p1"})

	drained := j.DrainPatches()
	if len(drained) != 2 {
		t.Fatalf("expected 2 patches, got %d", len(drained))
	}
	if again := j.DrainPatches(); len(again) != 0 {
		t.Fatalf("drain must reset the buffer, got %d", len(again))
	}
}

func TestJournalRestoreKeepsOrder(t *testing.T) {
	j := NewJournal(4, time.Minute)
	j.AppendPatch(Patch{Kind: PatchPlayerPos, EntityID: "a"})
	drained := j.DrainPatches()
	j.AppendPatch(Patch{Kind: PatchPlayerPos, EntityID: "b"})
	j.RestorePatches(drained)

	patches := j.DrainPatches()
	if len(patches) != 2 || patches[0].EntityID != "a" || patches[1].EntityID != "b" {
		t.Fatalf("restored patches must precede newer ones, got %+v", patches)
	}
}

func TestJournalPurgeEntityKeepsRemoval(t *testing.T) {
	j := NewJournal(4, time.Minute)
	j.AppendPatch(Patch{Kind: PatchPlayerPos, EntityID: "p1"})
	j.AppendPatch(Patch{Kind: PatchPlayerPos, EntityID: "p2"})
	j.AppendPatch(Patch{Kind: PatchPlayerStamina, EntityID: "p1"})
	j.PurgeEntity("p1")
	j.AppendPatch(Patch{Kind: PatchPlayerRemoved, EntityID: "p1"})

	patches := j.DrainPatches()
	if len(patches) != 2 {
		t.Fatalf("expected p2 update and p1 removal, got %+v", patches)
	}
	for _, p := range patches {
		if p.EntityID == "p1" && p.Kind != PatchPlayerRemoved {
			t.Fatalf("purged entity must only retain its removal patch, got %+v", p)
		}
	}
}

func TestJournalKeyframeCapacityEviction(t *testing.T) {
	j := NewJournal(2, time.Hour)
	base := time.Now()
	for seq := uint64(1); seq <= 3; seq++ {
		j.RecordKeyframe(Keyframe{Sequence: seq, RecordedAt: base})
	}

	size, oldest, newest := j.KeyframeWindow()
	if size != 2 || oldest != 2 || newest != 3 {
		t.Fatalf("expected window [2,3], got size=%d oldest=%d newest=%d", size, oldest, newest)
	}
	if _, found := j.KeyframeBySequence(1); found {
		t.Fatalf("evicted keyframe must not resolve")
	}
}

func TestJournalKeyframeAgeEviction(t *testing.T) {
	j := NewJournal(8, 5*time.Second)
	base := time.Now()
	j.RecordKeyframe(Keyframe{Sequence: 1, RecordedAt: base.Add(-10 * time.Second)})
	evicted := j.RecordKeyframe(Keyframe{Sequence: 2, RecordedAt: base})

	if len(evicted) != 1 || evicted[0].Sequence != 1 || evicted[0].Reason != "age" {
		t.Fatalf("expected age eviction of sequence 1, got %+v", evicted)
	}
	if frame, found := j.LatestKeyframe(); !found || frame.Sequence != 2 {
		t.Fatalf("latest keyframe must be sequence 2")
	}
}
