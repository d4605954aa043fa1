package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the side length of the square tile grid every room simulates.
const Size = 32

// TileKey identifies a tile inside a room as "x,y".
type TileKey string

// ObjectKey identifies a world object as "mapKey:x,y". Multiple maps share a
// room's object namespace and are disambiguated by the mapKey component.
type ObjectKey string

// KeyFor builds the canonical tile key for a coordinate pair.
func KeyFor(x, y int) TileKey {
	return TileKey(strconv.Itoa(x) + "," + strconv.Itoa(y))
}

// Coords parses a tile key back into coordinates.
func (k TileKey) Coords() (int, int, bool) {
	raw := string(k)
	sep := strings.IndexByte(raw, ',')
	if sep <= 0 || sep == len(raw)-1 {
		return 0, 0, false
	}
	x, err := strconv.Atoi(raw[:sep])
	if err != nil {
		return 0, 0, false
	}
	y, err := strconv.Atoi(raw[sep+1:])
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}

// ObjectKeyFor builds the composite world-object key for a map and coordinate.
func ObjectKeyFor(mapKey string, x, y int) ObjectKey {
	return ObjectKey(fmt.Sprintf("%s:%d,%d", mapKey, x, y))
}

// Parts splits an object key into its map key and coordinates.
func (k ObjectKey) Parts() (string, int, int, bool) {
	raw := string(k)
	sep := strings.LastIndexByte(raw, ':')
	if sep <= 0 {
		return "", 0, 0, false
	}
	x, y, ok := TileKey(raw[sep+1:]).Coords()
	if !ok {
		return "", 0, 0, false
	}
	return raw[:sep], x, y, true
}

// Clamp bounds v to the inclusive range [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampToGrid bounds a coordinate to [0, Size-1].
func ClampToGrid(v int) int {
	return Clamp(v, 0, Size-1)
}

// InBounds reports whether the coordinate lies on the grid.
func InBounds(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

// Chebyshev returns max(|dx|,|dy|), the range metric used for interactions
// and attacks. Diagonal neighbours count as one step.
func Chebyshev(ax, ay, bx, by int) int {
	dx := ax - bx
	if dx < 0 {
		dx = -dx
	}
	dy := ay - by
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
