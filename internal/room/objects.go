package room

import (
	"hash/fnv"
	"math/rand"
	"sort"

	"croplands/server/internal/grid"
)

// Placement is one intended world-object position, from authored map data or
// procedural generation.
type Placement struct {
	DefinitionID string
	GridX        int
	GridY        int
}

// PlacementRule drives procedural generation for one definition.
type PlacementRule struct {
	DefinitionID string
	// Density is the per-cell spawn probability in [0,1].
	Density float64
	// MinSpacing rejects a cell when any earlier placement lies within this
	// Chebyshev distance.
	MinSpacing int
}

// SpawnWorldObjectsForMap materialises placements whose definition resolves
// a positive destroyable health. Anything else is decorative and skipped.
func SpawnWorldObjectsForMap(mapKey string, placements []Placement, getHealth func(definitionID string) int) map[grid.ObjectKey]*WorldObjectState {
	objects := make(map[grid.ObjectKey]*WorldObjectState)
	for _, placement := range placements {
		health := getHealth(placement.DefinitionID)
		if health <= 0 {
			continue
		}
		key := grid.ObjectKeyFor(mapKey, placement.GridX, placement.GridY)
		objects[key] = &WorldObjectState{
			ObjectID:     string(key),
			MapKey:       mapKey,
			DefinitionID: placement.DefinitionID,
			GridX:        placement.GridX,
			GridY:        placement.GridY,
			Health:       health,
			MaxHealth:    health,
		}
	}
	return objects
}

// GenerateProceduralPlacements scans the grid row-major per rule with a
// seeded RNG, so a fixed seed always reproduces the same layout. Cells in
// the occupied set (spawns, NPC tiles) and cells within MinSpacing of any
// earlier placement are skipped.
func GenerateProceduralPlacements(placementRules []PlacementRule, seed int64, occupied map[grid.TileKey]struct{}) []Placement {
	var placements []Placement
	for _, rule := range placementRules {
		if rule.Density <= 0 {
			continue
		}
		rng := rand.New(rand.NewSource(ruleSeed(seed, rule)))
		for y := 0; y < grid.Size; y++ {
			for x := 0; x < grid.Size; x++ {
				if rng.Float64() >= rule.Density {
					continue
				}
				if _, taken := occupied[grid.KeyFor(x, y)]; taken {
					continue
				}
				if tooClose(placements, x, y, rule.MinSpacing) {
					continue
				}
				placements = append(placements, Placement{
					DefinitionID: rule.DefinitionID,
					GridX:        x,
					GridY:        y,
				})
			}
		}
	}
	return placements
}

func ruleSeed(seed int64, rule PlacementRule) int64 {
	h := fnv.New64a()
	h.Write([]byte(rule.DefinitionID))
	return seed ^ int64(h.Sum64())
}

func tooClose(placed []Placement, x, y, minSpacing int) bool {
	if minSpacing <= 0 {
		return false
	}
	for _, p := range placed {
		if grid.Chebyshev(p.GridX, p.GridY, x, y) < minSpacing {
			return true
		}
	}
	return false
}

// SortPlacements orders placements row-major so seeded spawns replicate
// their patches in the same order for every observer.
func SortPlacements(placements []Placement) {
	sort.Slice(placements, func(i, j int) bool {
		if placements[i].GridY != placements[j].GridY {
			return placements[i].GridY < placements[j].GridY
		}
		if placements[i].GridX != placements[j].GridX {
			return placements[i].GridX < placements[j].GridX
		}
		return placements[i].DefinitionID < placements[j].DefinitionID
	})
}
