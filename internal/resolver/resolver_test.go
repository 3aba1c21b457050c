package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/domain/entities"
)

func testCatalog() *entities.Catalog {
	return &entities.Catalog{
		RestaurantID: "rst-1",
		Categories: []entities.CatalogCategory{
			{
				ID:   "cat-bowls",
				Name: "Bowls",
				Items: []entities.CatalogItem{
					{ID: "it-soul", Name: "Soul Bowl", PriceCents: 1100},
					{ID: "it-harvest", Name: "Harvest Bowl", PriceCents: 1200},
				},
			},
			{
				ID:   "cat-salads",
				Name: "Salads",
				Items: []entities.CatalogItem{
					{
						ID:         "it-chicken-salad",
						Name:       "Mom's Chicken Salad",
						PriceCents: 950,
						Modifiers: []entities.ModifierDefinition{
							{Name: "choice of dressing", Required: true, Options: []string{"ranch", "italian", "honey mustard"}},
						},
					},
				},
			},
			{
				ID:   "cat-sides",
				Name: "Sides",
				Items: []entities.CatalogItem{
					{ID: "it-combo-side", Name: "Side Combo", Aliases: []string{"combo"}, PriceCents: 600},
				},
			},
			{
				ID:   "cat-plates",
				Name: "Plates",
				Items: []entities.CatalogItem{
					{ID: "it-combo-plate", Name: "Plate Combo", Aliases: []string{"combo"}, PriceCents: 1400},
				},
			},
		},
	}
}

func newTestResolver() *Resolver {
	return New(testCatalog(), zap.NewNop())
}

func TestResolveExactMatch(t *testing.T) {
	r := newTestResolver()

	result := r.Resolve([]entities.DetectedItem{{Name: "soul bowl", Quantity: 2}})
	require.Len(t, result.Accepted, 1)
	assert.Empty(t, result.Unmatched)

	item := result.Accepted[0]
	assert.Equal(t, "it-soul", item.CatalogItemID)
	assert.Equal(t, "Soul Bowl", item.Name)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, int64(1100), item.UnitPriceCents)
	assert.GreaterOrEqual(t, item.Confidence, 0.9)
}

func TestResolveMisspelling(t *testing.T) {
	r := newTestResolver()

	result := r.Resolve([]entities.DetectedItem{{Name: "mom's chiken salad", Quantity: 1}})
	require.Len(t, result.Accepted, 1)

	item := result.Accepted[0]
	assert.Equal(t, "it-chicken-salad", item.CatalogItemID)
	assert.Greater(t, item.Confidence, 0.5)
}

func TestResolveNoMatch(t *testing.T) {
	r := newTestResolver()

	result := r.Resolve([]entities.DetectedItem{{Name: "flying saucer", Quantity: 1}})
	assert.Empty(t, result.Accepted)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "flying saucer", result.Unmatched[0].Name)
}

func TestResolveMixedBatch(t *testing.T) {
	r := newTestResolver()

	result := r.Resolve([]entities.DetectedItem{
		{Name: "soul bowl", Quantity: 1},
		{Name: "flying saucer", Quantity: 1},
	})
	assert.Len(t, result.Accepted, 1)
	assert.Len(t, result.Unmatched, 1)
}

func TestResolveModifiers(t *testing.T) {
	r := newTestResolver()

	result := r.Resolve([]entities.DetectedItem{{
		Name:      "moms chicken salad",
		Quantity:  1,
		Modifiers: []string{"ranch", "extra pickles"},
	}})
	require.Len(t, result.Accepted, 1)

	mods := result.Accepted[0].Modifications
	require.Len(t, mods, 2)
	// Matched modifier canonicalized, unmatched kept verbatim
	assert.Equal(t, "ranch", mods[0])
	assert.Equal(t, "extra pickles", mods[1])
}

func TestResolveModifierFuzzyMatch(t *testing.T) {
	r := newTestResolver()

	result := r.Resolve([]entities.DetectedItem{{
		Name:      "moms chicken salad",
		Quantity:  1,
		Modifiers: []string{"itallian"},
	}})
	require.Len(t, result.Accepted, 1)
	assert.Equal(t, []string{"italian"}, result.Accepted[0].Modifications)
}

func TestTieBreakCatalogOrder(t *testing.T) {
	r := newTestResolver()

	// "combo" is an exact alias of items in two categories; with no ordering
	// history the earlier catalog entry wins.
	result := r.Resolve([]entities.DetectedItem{{Name: "combo", Quantity: 1}})
	require.Len(t, result.Accepted, 1)
	assert.Equal(t, "it-combo-side", result.Accepted[0].CatalogItemID)
}

func TestTieBreakLocality(t *testing.T) {
	r := newTestResolver()

	// Order from the plates category first, then the ambiguous "combo"
	// prefers the category most recently ordered this session.
	first := r.Resolve([]entities.DetectedItem{{Name: "plate combo", Quantity: 1}})
	require.Len(t, first.Accepted, 1)
	require.Equal(t, "it-combo-plate", first.Accepted[0].CatalogItemID)

	second := r.Resolve([]entities.DetectedItem{{Name: "combo", Quantity: 1}})
	require.Len(t, second.Accepted, 1)
	assert.Equal(t, "it-combo-plate", second.Accepted[0].CatalogItemID)
}

func TestResolveDeterministic(t *testing.T) {
	batch := []entities.DetectedItem{
		{Name: "soul bowl", Quantity: 2},
		{Name: "harvest bowl", Quantity: 1},
		{Name: "mom's chiken salad", Quantity: 1, Modifiers: []string{"ranch"}},
	}

	a := New(testCatalog(), zap.NewNop()).Resolve(batch)
	b := New(testCatalog(), zap.NewNop()).Resolve(batch)
	assert.Equal(t, a, b)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "moms chicken salad", normalize("Mom's  Chicken   Salad!"))
	assert.Equal(t, "soul bowl", normalize("  Soul Bowl  "))
	assert.Equal(t, "", normalize("  ...  "))
}
