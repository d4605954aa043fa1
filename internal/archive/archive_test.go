package archive

import (
	"testing"
	"time"

	"croplands/server/internal/room"
)

func sampleKeyframe(sequence uint64) room.Keyframe {
	return room.Keyframe{
		Sequence:   sequence,
		Tick:       sequence * 15,
		RecordedAt: time.UnixMilli(1_700_000_000_000).UTC(),
		Players: []room.PlayerState{
			{SessionID: "sess-1", CurrentMapKey: "farm", GridX: 16, GridY: 16, Stamina: 20, MaxStamina: 20},
		},
		Tiles: map[string]room.TileState{
			"4,4": {Kind: "tilled_soil", Tilled: true},
		},
		WorldObjects: []room.WorldObjectState{
			{ObjectID: "farm:2,3", MapKey: "farm", DefinitionID: "oak_tree", GridX: 2, GridY: 3, Health: 3, MaxHealth: 3},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	a := NewArchiver(t.TempDir())

	path, err := a.WriteKeyframe("class-1", sampleKeyframe(42))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	header, frame, err := ReadKeyframe(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if header.Version != Version || header.ClassroomID != "class-1" || header.Sequence != 42 {
		t.Fatalf("unexpected header: %+v", header)
	}
	if frame.Sequence != 42 || len(frame.Players) != 1 || frame.Players[0].SessionID != "sess-1" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if tile, ok := frame.Tiles["4,4"]; !ok || !tile.Tilled {
		t.Fatalf("tile state must survive the round trip: %+v", frame.Tiles)
	}
	if len(frame.WorldObjects) != 1 || frame.WorldObjects[0].ObjectID != "farm:2,3" {
		t.Fatalf("world objects must survive the round trip: %+v", frame.WorldObjects)
	}
}

func TestLatestAndPrune(t *testing.T) {
	a := NewArchiver(t.TempDir())

	for _, seq := range []uint64{3, 1, 7, 5} {
		if _, err := a.WriteKeyframe("class-1", sampleKeyframe(seq)); err != nil {
			t.Fatalf("write %d: %v", seq, err)
		}
	}
	if _, err := a.WriteKeyframe("class-2", sampleKeyframe(99)); err != nil {
		t.Fatalf("write other classroom: %v", err)
	}

	path, ok, err := a.Latest("class-1")
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	header, _, err := ReadKeyframe(path)
	if err != nil || header.Sequence != 7 {
		t.Fatalf("latest must be the highest sequence, got %+v err=%v", header, err)
	}

	if err := a.Prune("class-1", 2); err != nil {
		t.Fatalf("prune: %v", err)
	}
	paths, err := a.list("class-1")
	if err != nil || len(paths) != 2 {
		t.Fatalf("expected 2 survivors, got %v err=%v", paths, err)
	}
	if others, _ := a.list("class-2"); len(others) != 1 {
		t.Fatalf("pruning one classroom must not touch another, got %v", others)
	}

	if _, _, err := ReadKeyframe(paths[0]); err != nil {
		t.Fatalf("surviving archives must stay readable: %v", err)
	}
}

func TestLatestEmptyDirectory(t *testing.T) {
	a := NewArchiver(t.TempDir() + "/missing")
	if _, ok, err := a.Latest("class-1"); ok || err != nil {
		t.Fatalf("missing directory must read empty, ok=%v err=%v", ok, err)
	}
}
