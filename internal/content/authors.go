package content

import "strings"

// AuthorNames maps known aliases to a canonical author name. It is built
// once per invocation from configuration and handed to whatever needs it.
// A nil *AuthorNames performs no aliasing.
type AuthorNames struct {
	aliases map[string]string
}

// NewAuthorNames builds the alias table from canonical -> aliases.
func NewAuthorNames(aliases map[string][]string) *AuthorNames {
	n := &AuthorNames{aliases: make(map[string]string)}
	for canonical, list := range aliases {
		n.aliases[strings.ToLower(strings.TrimSpace(canonical))] = canonical
		for _, a := range list {
			n.aliases[strings.ToLower(strings.TrimSpace(a))] = canonical
		}
	}
	return n
}

// Normalize returns the canonical name for author, or author itself
// (trimmed) if no alias is known. Blank names become Unknown.
func (n *AuthorNames) Normalize(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return Unknown
	}
	if n == nil {
		return author
	}
	if c, ok := n.aliases[strings.ToLower(author)]; ok {
		return c
	}
	return author
}
