package lookup

import (
	"context"
	"strings"

	"github.com/skotsonis/paperflow/internal/catalog/domain"
)

// Resolver matches descriptions against catalog names without any external
// backend: exact match, then case-insensitive match, then substring and
// alias lookup. It never returns an error, so a miss is always a terminal
// Unresolved for the line.
type Resolver struct {
	aliases map[string]string
}

// Common customer phrasings that don't contain the catalog name. Keys are
// lowercase.
var defaultAliases = map[string]string{
	"printer paper":      "A4 paper",
	"copy paper":         "Standard copy paper",
	"construction paper": "Colored paper",
	"washi tape":         "Patterned paper",
	"streamers":          "Crepe paper",
	"banner paper":       "Poster paper",
}

func NewResolver() *Resolver {
	return &Resolver{aliases: defaultAliases}
}

// NewResolverWithAliases overrides the alias table, for catalogs with
// their own vocabulary.
func NewResolverWithAliases(aliases map[string]string) *Resolver {
	m := make(map[string]string, len(aliases))
	for k, v := range aliases {
		m[strings.ToLower(k)] = v
	}
	return &Resolver{aliases: m}
}

func (r *Resolver) Resolve(ctx context.Context, rawDescription string, catalog domain.Catalog) (domain.Item, bool, error) {
	term := strings.TrimSpace(rawDescription)
	if term == "" {
		return domain.Item{}, false, nil
	}

	for _, it := range catalog.Items() {
		if it.Name == term {
			return it, true, nil
		}
	}

	lower := strings.ToLower(term)
	for _, it := range catalog.Items() {
		if strings.ToLower(it.Name) == lower {
			return it, true, nil
		}
	}

	if alias, ok := r.aliases[lower]; ok {
		if it, ok := r.findByName(catalog, alias); ok {
			return it, true, nil
		}
	}

	// Substring in either direction: "glossy" finds "Glossy paper",
	// "reams of A4 paper" finds "A4 paper".
	for _, it := range catalog.Items() {
		name := strings.ToLower(it.Name)
		if strings.Contains(name, lower) || strings.Contains(lower, name) {
			return it, true, nil
		}
	}

	return domain.Item{}, false, nil
}

func (r *Resolver) findByName(catalog domain.Catalog, name string) (domain.Item, bool) {
	lower := strings.ToLower(name)
	for _, it := range catalog.Items() {
		if strings.ToLower(it.Name) == lower {
			return it, true
		}
	}
	return domain.Item{}, false
}
