package catalog

import (
	"sort"
	"strings"

	"github.com/medsafe-engine/pkg/similarity"
)

// Longest contiguous token run tried for exact matches inside a longer query
const maxRunTokens = 4

type indexKey struct {
	key string
	pos int
}

type scoredPos struct {
	pos   int
	score float64
}

// nameIndex maps normalised patterns and aliases to record positions.
// It is built once during load and only read afterwards.
type nameIndex struct {
	keys  []indexKey
	exact map[string][]int
}

func newNameIndex() *nameIndex {
	return &nameIndex{exact: make(map[string][]int)}
}

func (ix *nameIndex) add(pos int, names ...string) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		key := NormalizeDrugName(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ix.keys = append(ix.keys, indexKey{key: key, pos: pos})
		ix.exact[key] = append(ix.exact[key], pos)
	}
}

// lookup returns the matching positions in ascending order. Exact hits on the whole query or
// on a contiguous token run win outright; only when there are none is fuzzy scoring used.
func (ix *nameIndex) lookup(query string, strategy similarity.Strategy, threshold float64) []scoredPos {
	if query == "" {
		return nil
	}

	if hits := ix.exactHits(query); len(hits) > 0 {
		return hits
	}

	tokens := strings.Fields(query)
	best := make(map[int]float64)
	for _, k := range ix.keys {
		score := strategy.Similar(query, k.key)
		if len(tokens) > 1 && !strings.Contains(k.key, " ") {
			for _, tok := range tokens {
				if s := strategy.Similar(tok, k.key); s > score {
					score = s
				}
			}
		}
		if score >= threshold && score > best[k.pos] {
			best[k.pos] = score
		}
	}
	return sortedPositions(best)
}

// exactHits returns positions whose key equals the query or one of its contiguous token runs
func (ix *nameIndex) exactHits(query string) []scoredPos {
	if query == "" {
		return nil
	}
	found := make(map[int]float64)
	for _, pos := range ix.exact[query] {
		found[pos] = 1.0
	}

	tokens := strings.Fields(query)
	for size := 1; size <= maxRunTokens && size < len(tokens); size++ {
		for start := 0; start+size <= len(tokens); start++ {
			run := strings.Join(tokens[start:start+size], " ")
			for _, pos := range ix.exact[run] {
				found[pos] = 1.0
			}
		}
	}
	return sortedPositions(found)
}

func sortedPositions(m map[int]float64) []scoredPos {
	if len(m) == 0 {
		return nil
	}
	out := make([]scoredPos, 0, len(m))
	for pos, score := range m {
		out = append(out, scoredPos{pos: pos, score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}
