package matcher

import (
	"strings"

	"github.com/ZanzyTHEbar/resbundle/resbundle/qualifiers"
)

// Pick selects the candidate that best matches runtime. candidates must be in
// canonical order (sorted by padded qualifier string).
//
// Runtime tokens are applied in order. Each token narrows the surviving
// candidates to those carrying it, unless none does. A candidate eliminated
// on an earlier dimension never comes back, however many later tokens it
// matches. When more than one candidate survives and runtime carries a
// version, the candidate with the closest version not above it wins.
// Otherwise the canonically first survivor wins, which makes the default
// variant the fallback.
func Pick(candidates []QualifiedValue, runtime qualifiers.Qualifiers) (QualifiedValue, bool) {
	if len(candidates) == 0 {
		return QualifiedValue{}, false
	}

	ws := fullWorkingSet(len(candidates))
	for _, tok := range runtime.Texts() {
		if ws.size() == 1 {
			break
		}
		padded := qualifiers.PadToken(tok)
		matched := ws.subset(func(i int) bool {
			return strings.Contains(candidates[i].padded, padded)
		})
		if !matched.empty() {
			ws = matched
		}
	}

	if ws.size() > 1 {
		if target, ok := runtime.Version(); ok {
			if best := closestVersion(candidates, ws, target); best >= 0 {
				return candidates[best], true
			}
		}
	}
	return candidates[ws.first()], true
}

// closestVersion returns the surviving candidate with the smallest
// non-negative distance target-version, or -1 when no candidate qualifies.
// Ties go to the canonically first candidate.
func closestVersion(candidates []QualifiedValue, ws workingSet, target int) int {
	best, bestDistance := -1, 0
	ws.each(func(i int) bool {
		v, ok := candidates[i].Version()
		if !ok {
			return true
		}
		distance := target - v
		if distance < 0 {
			return true
		}
		if best < 0 || distance < bestDistance {
			best, bestDistance = i, distance
		}
		return distance != 0
	})
	return best
}
