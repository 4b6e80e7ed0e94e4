package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Readability-style main-content detection: prefer semantic landmarks
// (<article>, <main>, role=main), then fall back to scoring candidate
// blocks by text density, penalizing link-heavy subtrees.

const minContentLen = 140

// mainContent returns the DOM subtree judged to hold the article body, or
// nil when nothing substantial was found.
func mainContent(doc *html.Node) *html.Node {
	for _, a := range []atom.Atom{atom.Article, atom.Main} {
		if n := firstElement(doc, a); n != nil && !isBoilerplate(n) {
			if len(collectText(n)) >= minContentLen {
				return n
			}
		}
	}
	if n := findByAttr(doc, "role", "main"); n != nil && len(collectText(n)) >= minContentLen {
		return n
	}

	body := firstElement(doc, atom.Body)
	if body == nil {
		body = doc
	}
	return densestBlock(body)
}

// densestBlock scores candidate container blocks by text-to-markup density
// scaled by text length, discounting link-dominated regions.
func densestBlock(root *html.Node) *html.Node {
	var best *html.Node
	var bestScore float64

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && isBoilerplate(n) {
			return
		}
		if n.Type == html.ElementNode && isCandidateBlock(n.DataAtom) {
			text := collectText(n)
			if len(text) >= minContentLen {
				markup := len(renderNode(n))
				if markup == 0 {
					markup = 1
				}
				linkDens := linkDensity(n, len(text))
				if linkDens <= 0.5 {
					score := float64(len(text)) / float64(markup) * lengthScale(len(text)) * (1 - linkDens)
					if score > bestScore {
						bestScore = score
						best = n
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	return best
}

func isCandidateBlock(a atom.Atom) bool {
	switch a {
	case atom.Article, atom.Main, atom.Section, atom.Div, atom.Td:
		return true
	}
	return false
}

// boilerplateHints flags navigation chrome by class/id substring.
var boilerplateHints = []string{
	"nav", "menu", "sidebar", "footer", "header", "comment", "share",
	"related", "promo", "advert", "banner",
}

func isBoilerplate(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Nav, atom.Header, atom.Footer, atom.Aside, atom.Form,
		atom.Script, atom.Style, atom.Noscript, atom.Iframe:
		return true
	}
	marker := strings.ToLower(attrValue(n, "class") + " " + attrValue(n, "id"))
	if marker == " " {
		return false
	}
	for _, hint := range boilerplateHints {
		if strings.Contains(marker, hint) {
			return true
		}
	}
	return false
}

// lengthScale grows slowly with text length so long articles beat short
// dense fragments without dwarfing the density term.
func lengthScale(n int) float64 {
	scale := 1.0
	for n > 100 {
		scale++
		n /= 2
	}
	return scale
}

// linkDensity is the fraction of a subtree's text living inside <a> tags.
func linkDensity(n *html.Node, textLen int) float64 {
	if textLen == 0 {
		return 1
	}
	var linked int
	var f func(*html.Node, bool)
	f = func(n *html.Node, inLink bool) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			inLink = true
		}
		if n.Type == html.TextNode && inLink {
			linked += len(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c, inLink)
		}
	}
	f(n, false)
	return float64(linked) / float64(textLen)
}

// collectText concatenates a subtree's text nodes, skipping script/style,
// with single-space separators.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}

// renderNode serializes a subtree back to HTML.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}
