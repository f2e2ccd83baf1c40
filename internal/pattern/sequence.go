package pattern

import (
	"log"
	"regexp"
	"sort"
	"strconv"
)

// Hole ID grammars. Human-assigned IDs usually follow one of two shapes:
// a bare number ("101") or a letter-prefixed number ("A12", "BB3").
var (
	numericIDRe = regexp.MustCompile(`^\d+$`)
	alphaNumRe  = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)
)

type idKind int

const (
	idOther idKind = iota
	idNumeric
	idAlphaNumeric
)

// dominanceThreshold is the share of holes that must carry the same ID
// shape before sequence-based detection trusts the IDs.
const dominanceThreshold = 0.7

// parsedID is one hole ID broken into its grammar parts.
type parsedID struct {
	kind   idKind
	prefix string // letter prefix for alphanumeric IDs
	number int    // numeric value, or trailing number for alphanumeric IDs
}

func parseHoleID(id string) parsedID {
	if numericIDRe.MatchString(id) {
		n, err := strconv.Atoi(id)
		if err != nil {
			return parsedID{kind: idOther}
		}
		return parsedID{kind: idNumeric, number: n}
	}
	if m := alphaNumRe.FindStringSubmatch(id); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return parsedID{kind: idOther}
		}
		return parsedID{kind: idAlphaNumeric, prefix: m[1], number: n}
	}
	return parsedID{kind: idOther}
}

// classifyIDs parses every hole ID and returns the parsed IDs together
// with the dominant kind and its share of the population.
func classifyIDs(holes []*Hole) (ids []parsedID, dominant idKind, share float64) {
	ids = make([]parsedID, len(holes))
	counts := map[idKind]int{}
	for i, h := range holes {
		ids[i] = parseHoleID(h.ID)
		counts[ids[i].kind]++
	}
	if len(holes) == 0 {
		return ids, idOther, 0
	}
	dominant = idOther
	best := 0
	for _, k := range []idKind{idNumeric, idAlphaNumeric, idOther} {
		if counts[k] > best {
			best = counts[k]
			dominant = k
		}
	}
	return ids, dominant, float64(best) / float64(len(holes))
}

// numericIDOrder returns hole indices sorted by numeric ID value, or nil
// when any hole lacks a parsable numeric ID. Ties break on slice order.
func numericIDOrder(holes []*Hole) []int {
	order := make([]int, len(holes))
	nums := make([]int, len(holes))
	for i, h := range holes {
		p := parseHoleID(h.ID)
		if p.kind != idNumeric {
			return nil
		}
		order[i] = i
		nums[i] = p.number
	}
	sort.SliceStable(order, func(a, b int) bool {
		return nums[order[a]] < nums[order[b]]
	})
	return order
}

// detectRowsBySequence exploits human-assigned hole IDs when one grammar
// dominates the population (> 70%). Alphanumeric IDs encode rows directly:
// one row per letter prefix, ordered by trailing number. Pure numeric IDs
// order the traversal but do not separate rows, so row grouping is
// delegated to line fitting over the ID-sorted holes. Returns nil when no
// grammar dominates.
func detectRowsBySequence(holes []*Hole, p Params) [][]int {
	if len(holes) < 2 {
		return nil
	}

	ids, dominant, share := classifyIDs(holes)
	if share <= dominanceThreshold {
		return nil
	}

	switch dominant {
	case idAlphaNumeric:
		byPrefix := make(map[string][]int)
		for i, id := range ids {
			if id.kind != idAlphaNumeric {
				continue
			}
			byPrefix[id.prefix] = append(byPrefix[id.prefix], i)
		}
		if len(byPrefix) == 0 {
			return nil
		}

		prefixes := make([]string, 0, len(byPrefix))
		for pfx := range byPrefix {
			prefixes = append(prefixes, pfx)
		}
		sort.Strings(prefixes)

		rows := make([][]int, 0, len(prefixes))
		for _, pfx := range prefixes {
			members := byPrefix[pfx]
			sort.SliceStable(members, func(a, b int) bool {
				return ids[members[a]].number < ids[members[b]].number
			})
			rows = append(rows, members)
		}

		// Holes outside the dominant grammar attach to the last row so the
		// assignment stays complete.
		var leftovers []int
		for i, id := range ids {
			if id.kind != idAlphaNumeric {
				leftovers = append(leftovers, i)
			}
		}
		if len(leftovers) > 0 {
			log.Printf("pattern: sequence detection attaching %d non-alphanumeric holes to last row", len(leftovers))
			rows[len(rows)-1] = append(rows[len(rows)-1], leftovers...)
		}
		return rows

	case idNumeric:
		// Numeric IDs alone cannot separate rows. Sort by ID and let line
		// fitting group the ordered holes.
		order := make([]int, 0, len(holes))
		for i, id := range ids {
			if id.kind == idNumeric {
				order = append(order, i)
			}
		}
		sort.SliceStable(order, func(a, b int) bool {
			return ids[order[a]].number < ids[order[b]].number
		})
		var trailing []int
		for i, id := range ids {
			if id.kind != idNumeric {
				trailing = append(trailing, i)
			}
		}
		order = append(order, trailing...)
		return fitRowsInOrder(holes, order, p)
	}

	return nil
}
