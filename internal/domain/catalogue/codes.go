package catalogue

import (
	"sort"
	"strings"
)

// CodePath is one fully specified six-level path produced by tree walk.
type CodePath struct {
	ProductCode string
	Description string
}

// BuildCodes projects the active component tree of one category into the
// set of complete codes. A code exists iff a full chain of active
// level-1..level-6 nodes exists, children joined to parents by parent_path.
// Output is sorted by product code.
func BuildCodes(nodes []ComponentNode) []CodePath {
	// Index active nodes by (level, parent_path).
	byParent := make(map[int]map[string][]*ComponentNode)
	for l := MinLevel; l <= MaxLevel; l++ {
		byParent[l] = make(map[string][]*ComponentNode)
	}
	for i := range nodes {
		n := &nodes[i]
		if !n.IsActive || n.Level < MinLevel || n.Level > MaxLevel {
			continue
		}
		byParent[n.Level][n.ParentPath] = append(byParent[n.Level][n.ParentPath], n)
	}

	var out []CodePath
	var walk func(level int, path string, descs []string)
	walk = func(level int, path string, descs []string) {
		for _, n := range byParent[level][path] {
			full := n.Path()
			next := append(descs, nodeDescription(n))
			if level == MaxLevel {
				out = append(out, CodePath{
					ProductCode: full,
					Description: strings.Join(next, " / "),
				})
				continue
			}
			walk(level+1, full, next)
		}
	}
	walk(MinLevel, "", nil)

	sort.Slice(out, func(i, j int) bool { return out[i].ProductCode < out[j].ProductCode })
	return out
}

func nodeDescription(n *ComponentNode) string {
	if n.Description != "" {
		return n.Description
	}
	return n.ComponentName
}

// DiffCodes compares the freshly generated set against stored codes and
// returns the regeneration plan. Regeneration is idempotent:
//   - paths absent from the store are inserted as available
//   - available codes whose path disappeared are removed
//   - used codes are always preserved; those whose path disappeared are
//     flagged as orphaned, those whose path reappeared are unflagged
type CodeDiff struct {
	Insert  []CodePath
	Remove  []string // product codes, status available only
	Orphan  []string // used codes to flag
	Restore []string // used codes to unflag
}

func DiffCodes(generated []CodePath, existing []GeneratedCode) CodeDiff {
	want := make(map[string]CodePath, len(generated))
	for _, g := range generated {
		want[g.ProductCode] = g
	}

	var diff CodeDiff
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c.ProductCode] = true
		_, stillValid := want[c.ProductCode]
		switch {
		case stillValid && c.Status == CodeUsed && c.Orphaned:
			diff.Restore = append(diff.Restore, c.ProductCode)
		case !stillValid && c.Status == CodeAvailable:
			diff.Remove = append(diff.Remove, c.ProductCode)
		case !stillValid && c.Status == CodeUsed && !c.Orphaned:
			diff.Orphan = append(diff.Orphan, c.ProductCode)
		}
	}
	for _, g := range generated {
		if !seen[g.ProductCode] {
			diff.Insert = append(diff.Insert, g)
		}
	}
	return diff
}
