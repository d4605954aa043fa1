package room

import (
	"reflect"
	"testing"

	"croplands/server/internal/grid"
)

func TestSpawnSkipsNonDestroyablePlacements(t *testing.T) {
	placements := []Placement{
		{DefinitionID: "oak_tree", GridX: 3, GridY: 4},
		{DefinitionID: "flower_bed", GridX: 5, GridY: 6},
	}
	health := map[string]int{"oak_tree": 3}
	objects := SpawnWorldObjectsForMap("farm", placements, func(id string) int {
		return health[id]
	})

	if len(objects) != 1 {
		t.Fatalf("decorative placements must be skipped, got %d objects", len(objects))
	}
	key := grid.ObjectKeyFor("farm", 3, 4)
	obj, ok := objects[key]
	if !ok {
		t.Fatalf("missing object at %s", key)
	}
	if obj.ObjectID != string(key) || obj.Health != 3 || obj.MaxHealth != 3 {
		t.Fatalf("unexpected object %+v", obj)
	}
}

func TestProceduralPlacementsDeterministicPerSeed(t *testing.T) {
	placementRules := []PlacementRule{
		{DefinitionID: "oak_tree", Density: 0.1, MinSpacing: 2},
		{DefinitionID: "granite_rock", Density: 0.05, MinSpacing: 3},
	}

	first := GenerateProceduralPlacements(placementRules, 42, nil)
	second := GenerateProceduralPlacements(placementRules, 42, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed must reproduce the same layout")
	}
	if len(first) == 0 {
		t.Fatalf("expected placements at density 0.1")
	}

	other := GenerateProceduralPlacements(placementRules, 43, nil)
	if reflect.DeepEqual(first, other) {
		t.Fatalf("different seeds should diverge")
	}
}

func TestProceduralPlacementsRespectMinSpacing(t *testing.T) {
	placementRules := []PlacementRule{
		{DefinitionID: "oak_tree", Density: 0.5, MinSpacing: 3},
	}
	placements := GenerateProceduralPlacements(placementRules, 7, nil)

	for i := range placements {
		for k := i + 1; k < len(placements); k++ {
			d := grid.Chebyshev(placements[i].GridX, placements[i].GridY, placements[k].GridX, placements[k].GridY)
			if d < 3 {
				t.Fatalf("placements %d and %d are %d apart, want >= 3", i, k, d)
			}
		}
	}
}

func TestSortPlacementsRowMajor(t *testing.T) {
	placements := []Placement{
		{DefinitionID: "granite_rock", GridX: 4, GridY: 2},
		{DefinitionID: "oak_tree", GridX: 1, GridY: 2},
		{DefinitionID: "oak_tree", GridX: 9, GridY: 0},
		{DefinitionID: "granite_rock", GridX: 1, GridY: 2},
	}
	SortPlacements(placements)

	want := []Placement{
		{DefinitionID: "oak_tree", GridX: 9, GridY: 0},
		{DefinitionID: "granite_rock", GridX: 1, GridY: 2},
		{DefinitionID: "oak_tree", GridX: 1, GridY: 2},
		{DefinitionID: "granite_rock", GridX: 4, GridY: 2},
	}
	if !reflect.DeepEqual(placements, want) {
		t.Fatalf("unexpected order: %+v", placements)
	}
}

func TestProceduralPlacementsAvoidOccupied(t *testing.T) {
	occupied := make(map[grid.TileKey]struct{})
	for y := 0; y < grid.Size; y++ {
		for x := 0; x < 16; x++ {
			occupied[grid.KeyFor(x, y)] = struct{}{}
		}
	}
	placementRules := []PlacementRule{{DefinitionID: "oak_tree", Density: 1}}
	placements := GenerateProceduralPlacements(placementRules, 9, occupied)

	for _, p := range placements {
		if p.GridX < 16 {
			t.Fatalf("placement at (%d,%d) is inside the occupied region", p.GridX, p.GridY)
		}
	}
	if len(placements) == 0 {
		t.Fatalf("open half of the grid should still receive placements")
	}
}
