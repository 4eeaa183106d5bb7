package css

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// Matches reports whether the simple selector (a single compound
// selector: tag, #id, .class, or a concatenation like "p.note") matches
// element n. Combinators (descendant, child, sibling) are not
// supported; a comma-separated selector list matches if any branch
// matches.
func Matches(selector string, n *xmlquery.Node) bool {
	for _, branch := range strings.Split(selector, ",") {
		if matchesCompound(strings.TrimSpace(branch), n) {
			return true
		}
	}
	return false
}

func matchesCompound(sel string, n *xmlquery.Node) bool {
	if sel == "" || sel == "*" {
		return true
	}
	// Strip a trailing :link pseudo-class, the only one CSSFlattener
	// understands; it matches unconditionally since the IR has no
	// notion of visited/unvisited links.
	sel = strings.TrimSuffix(sel, ":link")

	tag := ""
	i := 0
	for i < len(sel) && sel[i] != '.' && sel[i] != '#' {
		i++
	}
	tag = sel[:i]
	if tag != "" && !strings.EqualFold(tag, localNameOf(n.Data)) {
		return false
	}

	rest := sel[i:]
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			j := 1
			for j < len(rest) && rest[j] != '.' && rest[j] != '#' {
				j++
			}
			class := rest[1:j]
			if !hasClass(n, class) {
				return false
			}
			rest = rest[j:]
		case '#':
			j := 1
			for j < len(rest) && rest[j] != '.' && rest[j] != '#' {
				j++
			}
			id := rest[1:j]
			if n.SelectAttr("id") != id {
				return false
			}
			rest = rest[j:]
		default:
			return false
		}
	}
	return true
}

func hasClass(n *xmlquery.Node, class string) bool {
	for _, c := range strings.Fields(n.SelectAttr("class")) {
		if c == class {
			return true
		}
	}
	return false
}

func localNameOf(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Specificity approximates CSS specificity for the supported selector
// subset (ids > classes > tag), used to order rule application when
// several rules match the same element.
func Specificity(selector string) int {
	ids, classes, tags := 0, 0, 0
	for _, branch := range strings.Split(selector, ",") {
		branch = strings.TrimSuffix(strings.TrimSpace(branch), ":link")
		for i := 0; i < len(branch); i++ {
			switch branch[i] {
			case '#':
				ids++
			case '.':
				classes++
			}
		}
		if len(branch) > 0 && branch[0] != '.' && branch[0] != '#' {
			tags++
		}
	}
	return ids*100 + classes*10 + tags
}
