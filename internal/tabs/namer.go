package tabs

import (
	"fmt"
	"strings"

	"github.com/vk/chartbook/internal/book"
)

// maxNameLen caps a chunk name before disambiguation suffixes.
const maxNameLen = 50

// Sanitize converts free text to a chunk-name segment: lowercase, every
// run of non-alphanumeric characters collapsed to a single dash, leading
// and trailing dashes trimmed, truncated to 50 characters. Sanitizing an
// already-sanitized name is a no-op.
func Sanitize(s string) string {
	var sb strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingDash = sb.Len() > 0
			continue
		}
		if pendingDash {
			sb.WriteByte('-')
			pendingDash = false
		}
		sb.WriteRune(r)
	}
	name := sb.String()
	if len(name) > maxNameLen {
		name = strings.TrimRight(name[:maxNameLen], "-")
	}
	return name
}

// Namer issues unique chunk names within one compiled page. Collisions
// are tracked case-insensitively and disambiguated with -2, -3, ... in
// first-seen order; an already-issued name is never reused.
type Namer struct {
	taken map[string]bool
}

// NewNamer returns a namer with no names issued.
func NewNamer() *Namer {
	return &Namer{taken: make(map[string]bool)}
}

// Issue derives and reserves the chunk name for the given hints, applied
// in priority order: the first hint that sanitizes to something non-empty
// wins, then collision suffixes apply.
func (n *Namer) Issue(hints ...string) string {
	base := ""
	for _, hint := range hints {
		if s := Sanitize(hint); s != "" {
			base = s
			break
		}
	}
	if base == "" {
		base = "item"
	}

	candidate := base
	for i := 2; n.taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	n.taken[candidate] = true
	return candidate
}

// NameItem derives and reserves the chunk name for an item. Priority:
// the full sanitized group path, then kind-specific field extraction,
// then a generic kind-and-position fallback that can never be empty.
func (n *Namer) NameItem(it book.Item) string {
	return n.Issue(itemHints(it)...)
}

// itemHints lists name candidates for an item in priority order.
func itemHints(it book.Item) []string {
	var hints []string
	if len(it.GroupPath) > 0 {
		hints = append(hints, strings.Join(it.GroupPath, "-"))
	}
	switch it.Kind {
	case book.KindChart:
		x, y := it.Str("x"), it.Str("y")
		switch {
		case x != "" && y != "":
			hints = append(hints, x+"-"+y)
		case x != "":
			hints = append(hints, x)
		}
	case book.KindControl:
		hints = append(hints, it.Str("field"))
	case book.KindImage:
		hints = append(hints, it.Title(), it.Str("src"))
	default:
		hints = append(hints, it.Title())
	}
	hints = append(hints, fmt.Sprintf("%s-%d", it.Kind, it.Index))
	return hints
}
