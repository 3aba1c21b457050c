package resolver

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/domain/entities"
)

// Result is the outcome of resolving one detection batch
type Result struct {
	Accepted  []entities.ResolvedOrderItem
	Unmatched []entities.DetectedItem
}

// Resolver maps free-text item mentions to canonical catalog entries by
// fuzzy matching against item names and aliases. It is deterministic for a
// given catalog snapshot and event sequence.
type Resolver struct {
	catalog *entities.Catalog
	logger  *zap.Logger

	// lastCategoryID backs the locality tie-break: on exact score ties the
	// item in the category most recently ordered this session wins.
	lastCategoryID string
}

// New creates a resolver over one immutable catalog snapshot
func New(catalog *entities.Catalog, logger *zap.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		logger:  logger,
	}
}

type candidate struct {
	item       *entities.CatalogItem
	categoryID string
	score      float64
}

// Resolve maps a batch of detected items. Items scoring at or above the
// acceptance threshold resolve to their best catalog match; the rest are
// returned unmatched for human correction, never guessed.
func (r *Resolver) Resolve(detected []entities.DetectedItem) Result {
	var result Result
	for _, d := range detected {
		best, ok := r.bestMatch(d.Name)
		if !ok || best.score < entities.MinResolveConfidence {
			r.logger.Info("Detected item did not match catalog",
				zap.String("name", d.Name))
			result.Unmatched = append(result.Unmatched, d)
			continue
		}

		resolved := entities.ResolvedOrderItem{
			CatalogItemID:  best.item.ID,
			CategoryID:     best.categoryID,
			Name:           best.item.Name,
			Quantity:       d.Quantity,
			UnitPriceCents: best.item.PriceCents,
			Modifications:  r.resolveModifiers(best.item, d.Modifiers),
			Confidence:     best.score,
		}
		r.lastCategoryID = best.categoryID
		result.Accepted = append(result.Accepted, resolved)
	}
	return result
}

// bestMatch scans the catalog in menu order. Highest score wins; on exact
// ties the locality heuristic prefers the most recently ordered category,
// then catalog order (the earlier candidate is kept).
func (r *Resolver) bestMatch(name string) (candidate, bool) {
	query := normalize(name)
	if query == "" {
		return candidate{}, false
	}

	var best candidate
	found := false
	for ci := range r.catalog.Categories {
		category := &r.catalog.Categories[ci]
		for ii := range category.Items {
			item := &category.Items[ii]
			score := itemScore(query, item)
			switch {
			case !found || score > best.score:
				best = candidate{item: item, categoryID: category.ID, score: score}
				found = true
			case score == best.score && category.ID == r.lastCategoryID && best.categoryID != r.lastCategoryID:
				best = candidate{item: item, categoryID: category.ID, score: score}
			}
		}
	}
	return best, found
}

// itemScore is the best similarity across the item's name and aliases
func itemScore(query string, item *entities.CatalogItem) float64 {
	score := similarity(query, normalize(item.Name))
	for _, alias := range item.Aliases {
		if s := similarity(query, normalize(alias)); s > score {
			score = s
		}
	}
	return score
}

// resolveModifiers matches each spoken modifier against the candidate's
// allowed options by the same mechanism. Unmatched modifiers do not
// invalidate the item; they are appended verbatim as free text.
func (r *Resolver) resolveModifiers(item *entities.CatalogItem, spoken []string) []string {
	if len(spoken) == 0 {
		return nil
	}
	out := make([]string, 0, len(spoken))
	for _, raw := range spoken {
		out = append(out, r.resolveModifier(item, raw))
	}
	return out
}

func (r *Resolver) resolveModifier(item *entities.CatalogItem, raw string) string {
	query := normalize(raw)
	bestScore := 0.0
	bestOption := ""
	for _, def := range item.Modifiers {
		for _, option := range def.Options {
			if s := similarity(query, normalize(option)); s > bestScore {
				bestScore = s
				bestOption = option
			}
		}
	}
	if bestScore >= entities.MinResolveConfidence {
		return bestOption
	}
	return raw
}

// similarity is edit distance normalized into [0,1]
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1 - float64(distance)/float64(longest)
}

// normalize lowercases and strips punctuation so that "Mom's" and "moms"
// compare equal, collapsing runs of whitespace.
func normalize(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}
