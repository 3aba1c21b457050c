package entities

// ModifierDefinition describes one follow-up question for a catalog item,
// such as "choice of dressing" with its allowed answers.
type ModifierDefinition struct {
	Name     string   `json:"name" bson:"name"`
	Required bool     `json:"required" bson:"required"`
	Options  []string `json:"options" bson:"options"`
}

// CatalogItem is one sellable item on the menu
type CatalogItem struct {
	ID         string               `json:"id" bson:"id"`
	Name       string               `json:"name" bson:"name"`
	Aliases    []string             `json:"aliases,omitempty" bson:"aliases,omitempty"`
	PriceCents int64                `json:"price_cents" bson:"price_cents"`
	Allergens  []string             `json:"allergens,omitempty" bson:"allergens,omitempty"`
	Modifiers  []ModifierDefinition `json:"modifiers,omitempty" bson:"modifiers,omitempty"`
}

// CatalogCategory groups catalog items, in menu order
type CatalogCategory struct {
	ID    string        `json:"id" bson:"id"`
	Name  string        `json:"name" bson:"name"`
	Items []CatalogItem `json:"items" bson:"items"`
}

// Catalog is one restaurant's menu snapshot. It is treated as an immutable
// value for the lifetime of a voice session; a menu change requires a new
// session with a freshly minted credential.
type Catalog struct {
	RestaurantID string            `json:"restaurant_id" bson:"restaurant_id"`
	Categories   []CatalogCategory `json:"categories" bson:"categories"`
}

// ItemCount returns the total number of items across all categories
func (c *Catalog) ItemCount() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Items)
	}
	return n
}

// FindItem returns the item and its category id by catalog item id
func (c *Catalog) FindItem(itemID string) (*CatalogItem, string, bool) {
	for ci := range c.Categories {
		for ii := range c.Categories[ci].Items {
			if c.Categories[ci].Items[ii].ID == itemID {
				return &c.Categories[ci].Items[ii], c.Categories[ci].ID, true
			}
		}
	}
	return nil, "", false
}
