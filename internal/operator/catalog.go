package operator

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// CatalogSource serves operators from an in-memory catalog. Search is fuzzy:
// a name matches when it contains the term or one of its words is within a
// small edit distance of it. Closer matches come first.
type CatalogSource struct {
	Operators []Operator
	PageSize  int
}

type scored struct {
	op    Operator
	score int
}

func (c *CatalogSource) Fetch(ctx context.Context, page int, search string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	size := c.PageSize
	if size <= 0 {
		size = 10
	}
	if page < 1 {
		page = 1
	}

	matches := c.match(search)
	total := (len(matches) + size - 1) / size
	if total < 1 {
		total = 1
	}
	start := (page - 1) * size
	end := start + size
	if start > len(matches) {
		start = len(matches)
	}
	if end > len(matches) {
		end = len(matches)
	}
	return Page{Items: matches[start:end], Page: page, TotalPages: total, Search: search}, nil
}

func (c *CatalogSource) match(search string) []Operator {
	term := strings.ToLower(strings.TrimSpace(search))
	var hits []scored
	for _, op := range c.Operators {
		if s, ok := score(op, term); ok {
			hits = append(hits, scored{op: op, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score < hits[j].score
		}
		return hits[i].op.Name < hits[j].op.Name
	})
	out := make([]Operator, len(hits))
	for i, h := range hits {
		out[i] = h.op
	}
	return out
}

// score is 0 for substring hits and the edit distance for fuzzy hits.
func score(op Operator, term string) (int, bool) {
	if term == "" {
		return 0, true
	}
	name := strings.ToLower(op.Name)
	if strings.Contains(name, term) || strings.Contains(strings.ToLower(op.ANSCode), term) {
		return 0, true
	}
	allowed := maxDistance(term)
	best := -1
	for _, word := range strings.Fields(name) {
		d := levenshtein.ComputeDistance(word, term)
		if d <= allowed && (best < 0 || d < best) {
			best = d
		}
	}
	return best, best >= 0
}

func maxDistance(term string) int {
	switch n := len([]rune(term)); {
	case n <= 3:
		return 0
	case n <= 6:
		return 1
	default:
		return 2
	}
}
