package rules

import (
	"math"

	"croplands/server/internal/grid"
)

// DamageParams describes the combat parameters of an equipped item definition.
type DamageParams struct {
	BaseDamage int
	// Rate is attacks per second. Zero or negative means the item cannot
	// attack at all.
	Rate float64
	// Range is the Chebyshev reach in tiles. Zero defaults to adjacent.
	Range int
	// TagModifiers multiply BaseDamage when the target carries the tag. Only
	// the highest matching modifier applies.
	TagModifiers map[string]float64
}

// CalculateDamage returns the damage an attack deals to a target with the
// given tags. Items without a positive base damage (watering cans, seed
// pouches) never deal damage regardless of modifiers.
func CalculateDamage(params DamageParams, targetTags []string) int {
	if params.BaseDamage <= 0 {
		return 0
	}
	modifier := 1.0
	for _, tag := range targetTags {
		if m, ok := params.TagModifiers[tag]; ok && m > modifier {
			modifier = m
		}
	}
	damage := int(math.Floor(float64(params.BaseDamage) * modifier))
	if damage < 0 {
		return 0
	}
	return damage
}

// CanAttack reports whether enough time has passed since the last attack for
// the given attack rate. A non-positive rate always denies.
func CanAttack(lastAttackAtMs int64, rate float64, nowMs int64) bool {
	if rate <= 0 {
		return false
	}
	return float64(nowMs-lastAttackAtMs) >= 1000.0/rate
}

// InRange reports whether the target tile lies within Chebyshev range of the
// attacker. The boundary is inclusive, so range == distance is accepted.
func InRange(playerX, playerY, targetX, targetY, reach int) bool {
	if reach <= 0 {
		reach = 1
	}
	return grid.Chebyshev(playerX, playerY, targetX, targetY) <= reach
}
