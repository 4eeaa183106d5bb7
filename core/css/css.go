// Package css provides the small CSS subset CSSFlattener needs: parsing
// a stylesheet into rules and declarations, resolving @import, and
// computing font sizes from named and relative keywords.
//
// This is not a general CSS engine. Selector matching (selector.go)
// supports tag, class, and id selectors and their simple combinations;
// it does not implement combinators, pseudo-classes (other than
// :link, which CSSFlattener special-cases), or specificity beyond
// "later declarations win, then more specific selectors win".
package css

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Declaration is a single "property: value" pair.
type Declaration struct {
	Property string
	Value    string
}

// Rule is a selector and the declarations it carries.
type Rule struct {
	Selector string
	Declarations []Declaration
}

// Stylesheet is a parsed CSS document: import statements, ordinary
// rules, and any at-rule blocks (media queries, keyframes, font-face)
// that are retained verbatim because CSSFlattener cannot inline them.
type Stylesheet struct {
	Imports      []string // raw url() targets, in source order
	Rules        []Rule
	VerbatimAtRules []string // e.g. "@media (...) { ... }", kept as-is
}

var declLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `/\*[^*]*\*+([^/*][^*]*\*+)*/`},
	{Name: "Property", Pattern: `[a-zA-Z-]+`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Rest", Pattern: `[^\n]+`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

type rawDeclaration struct {
	Property string `@Property`
	_        string `Colon`
	Value    string `@Rest`
}

var declParser = participle.MustBuild[rawDeclaration](
	participle.Lexer(declLexer),
	participle.Elide("Whitespace", "Comment"),
)

// ParseDeclarationBlock parses the text between { and } of a rule (or
// an inline style attribute) into declarations. Statements that do not
// match "property: value" are skipped rather than failing the whole
// block, since a single malformed declaration should not poison an
// entire stylesheet.
func ParseDeclarationBlock(block string) []Declaration {
	var out []Declaration
	for _, stmt := range splitTopLevel(block, ';') {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		parsed, err := declParser.ParseString("", stmt)
		if err != nil || parsed == nil {
			continue
		}
		out = append(out, Declaration{
			Property: strings.ToLower(strings.TrimSpace(parsed.Property)),
			Value:    strings.TrimSpace(parsed.Value),
		})
	}
	return out
}

// splitTopLevel splits s on sep, ignoring occurrences of sep inside
// parentheses (so `background: url(a;b)` isn't split in the wrong
// place — rare in practice, but cheap to get right).
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// ParseStylesheet parses a full CSS document. @import statements are
// recorded in Imports; ordinary rule blocks are parsed into Rules;
// any other at-rule block (media queries, keyframes, font-face) and
// any rule whose selector has a pseudo-class other than :link is
// preserved verbatim in VerbatimAtRules because CSSFlattener cannot
// inline it onto an element. Semicolon-terminated at-rules other than
// @import (e.g. @charset) are dropped.
func ParseStylesheet(src string) (*Stylesheet, error) {
	sheet := &Stylesheet{}
	i := 0
	n := len(src)
	for i < n {
		for i < n && isCSSSpace(src[i]) {
			i++
		}
		if i >= n {
			break
		}
		if strings.HasPrefix(src[i:], "/*") {
			end := strings.Index(src[i:], "*/")
			if end < 0 {
				break
			}
			i += end + 2
			continue
		}
		if src[i] == '@' {
			// Find the end of the prelude: either ';' (statement) or
			// the matching '}' of a brace block.
			j := i
			for j < n && src[j] != ';' && src[j] != '{' {
				j++
			}
			prelude := src[i:j]
			if j < n && src[j] == ';' {
				handleAtStatement(sheet, prelude)
				i = j + 1
				continue
			}
			if j < n && src[j] == '{' {
				blockEnd := matchBrace(src, j)
				if blockEnd < 0 {
					blockEnd = n
				}
				sheet.VerbatimAtRules = append(sheet.VerbatimAtRules, src[i:blockEnd+1])
				i = blockEnd + 1
				continue
			}
			break
		}
		// Ordinary rule: selector { declarations }
		brace := strings.IndexByte(src[i:], '{')
		if brace < 0 {
			break
		}
		selector := strings.TrimSpace(src[i : i+brace])
		blockStart := i + brace
		blockEnd := matchBrace(src, blockStart)
		if blockEnd < 0 {
			break
		}
		body := src[blockStart+1 : blockEnd]
		if hasUnsupportedSelector(selector) {
			sheet.VerbatimAtRules = append(sheet.VerbatimAtRules, fmt.Sprintf("%s {%s}", selector, body))
		} else {
			sheet.Rules = append(sheet.Rules, Rule{Selector: selector, Declarations: ParseDeclarationBlock(body)})
		}
		i = blockEnd + 1
	}
	return sheet, nil
}

func handleAtStatement(sheet *Stylesheet, prelude string) {
	p := strings.TrimSpace(prelude)
	if !strings.HasPrefix(strings.ToLower(p), "@import") {
		return
	}
	rest := strings.TrimSpace(p[len("@import"):])
	rest = strings.TrimPrefix(rest, "url(")
	rest = strings.TrimSuffix(rest, ")")
	rest = strings.Trim(rest, `"'`)
	rest = strings.TrimSpace(rest)
	if rest != "" {
		sheet.Imports = append(sheet.Imports, rest)
	}
}

func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isCSSSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// hasUnsupportedSelector reports whether selector contains a
// pseudo-class other than :link, which CSSFlattener cannot inline and
// must retain in the stylesheet instead.
func hasUnsupportedSelector(selector string) bool {
	for _, part := range strings.Split(selector, ",") {
		idx := strings.IndexByte(part, ':')
		if idx < 0 {
			continue
		}
		if !strings.HasPrefix(part[idx:], ":link") {
			return true
		}
	}
	return false
}
