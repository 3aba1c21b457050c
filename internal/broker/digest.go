package broker

import (
	"fmt"
	"strings"

	"github.com/tabletalk/tabletalk/domain/entities"
)

const truncationMarker = "... (menu truncated)"

// RenderDigest produces the size-bounded, model-readable menu summary that
// is embedded in the realtime session configuration. Categories render in
// menu order; when the full rendering would exceed the bound, trailing items
// and then trailing categories are dropped and a truncation marker is
// appended. The result is deterministic for a given catalog snapshot.
func RenderDigest(restaurantName string, catalog *entities.Catalog) string {
	budget := entities.MaxDigestBytes - len(truncationMarker) - 1

	var b strings.Builder
	truncated := false

	header := fmt.Sprintf("MENU for %s\n", restaurantName)
	if len(header) > budget {
		header = strings.ToValidUTF8(header[:budget-1], "") + "\n"
		truncated = true
	}
	b.WriteString(header)
	for _, category := range catalog.Categories {
		header := fmt.Sprintf("== %s ==\n", category.Name)
		if b.Len()+len(header) > budget {
			truncated = true
			break
		}
		b.WriteString(header)

		for _, item := range category.Items {
			line := renderItem(item)
			if b.Len()+len(line) > budget {
				truncated = true
				break
			}
			b.WriteString(line)
		}
		if truncated {
			break
		}
	}

	if truncated {
		b.WriteString(truncationMarker)
		b.WriteString("\n")
	}
	return b.String()
}

func renderItem(item entities.CatalogItem) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("- %s $%d.%02d", item.Name, item.PriceCents/100, item.PriceCents%100))
	if len(item.Allergens) > 0 {
		b.WriteString(fmt.Sprintf(" (allergens: %s)", strings.Join(item.Allergens, ", ")))
	}
	for _, mod := range item.Modifiers {
		if mod.Required {
			b.WriteString(fmt.Sprintf(" [ask: %s: %s]", mod.Name, strings.Join(mod.Options, "/")))
		}
	}
	b.WriteString("\n")
	return b.String()
}
