package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fallback chains below follow a "most specific wins" precedence:
// Open Graph, then Twitter Card, then standard meta/HTML tags, then a
// heuristic first-element guess. Each step failing just moves to the next.

// pageTitle resolves og:title → twitter:title → <title> → first <h1> →
// hostname.
func pageTitle(doc *html.Node, pageURL *url.URL) string {
	if t := metaContent(doc, "property", "og:title"); t != "" {
		return t
	}
	if t := metaContent(doc, "name", "twitter:title"); t != "" {
		return t
	}
	if n := firstElement(doc, atom.Title); n != nil {
		if t := strings.TrimSpace(collectText(n)); t != "" {
			return t
		}
	}
	if n := firstElement(doc, atom.H1); n != nil {
		if t := strings.TrimSpace(collectText(n)); t != "" {
			return t
		}
	}
	return pageURL.Hostname()
}

// pageExcerpt resolves og:description → twitter:description → meta
// description → first paragraph (truncated to 300 chars). Capped at 500.
func pageExcerpt(doc *html.Node) string {
	excerpt := metaContent(doc, "property", "og:description")
	if excerpt == "" {
		excerpt = metaContent(doc, "name", "twitter:description")
	}
	if excerpt == "" {
		excerpt = metaContent(doc, "name", "description")
	}
	if excerpt == "" {
		if p := firstParagraph(doc); p != nil {
			excerpt = truncate(strings.TrimSpace(collectText(p)), 300)
		}
	}
	return truncate(strings.TrimSpace(excerpt), 500)
}

// pageAuthor resolves meta author → article:author → rel=author text.
func pageAuthor(doc *html.Node) string {
	if a := metaContent(doc, "name", "author"); a != "" {
		return a
	}
	if a := metaContent(doc, "property", "article:author"); a != "" {
		return a
	}
	if n := findByAttr(doc, "rel", "author"); n != nil {
		return strings.TrimSpace(collectText(n))
	}
	return ""
}

// pagePublishedDate resolves article:published_time → publish-date meta →
// first <time datetime>. The value is free-form, extractor-supplied.
func pagePublishedDate(doc *html.Node) string {
	if d := metaContent(doc, "property", "article:published_time"); d != "" {
		return d
	}
	if d := metaContent(doc, "name", "publish-date"); d != "" {
		return d
	}
	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Time {
			if dt := attrValue(n, "datetime"); dt != "" {
				found = dt
				return false
			}
		}
		return true
	})
	return found
}

// faviconURL resolves explicit icon links (rel=icon, shortcut icon,
// apple-touch-icon) and falls back to /favicon.ico, always absolute.
func faviconURL(doc *html.Node, pageURL *url.URL) string {
	var href string
	for _, rel := range []string{"icon", "shortcut icon", "apple-touch-icon"} {
		walk(doc, func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.DataAtom == atom.Link &&
				strings.EqualFold(attrValue(n, "rel"), rel) {
				if h := attrValue(n, "href"); h != "" {
					href = h
					return false
				}
			}
			return true
		})
		if href != "" {
			break
		}
	}
	if href == "" {
		return pageURL.Scheme + "://" + pageURL.Host + "/favicon.ico"
	}
	if u, err := pageURL.Parse(href); err == nil {
		return u.String()
	}
	return ""
}

// firstParagraph prefers a <p> inside <article> or <main>, else any <p>.
func firstParagraph(doc *html.Node) *html.Node {
	for _, scope := range []atom.Atom{atom.Article, atom.Main} {
		if container := firstElement(doc, scope); container != nil {
			if p := firstElement(container, atom.P); p != nil {
				return p
			}
		}
	}
	return firstElement(doc, atom.P)
}

// metaContent returns the content attribute of the first <meta> whose
// attrKey attribute equals attrVal.
func metaContent(doc *html.Node, attrKey, attrVal string) string {
	var content string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta &&
			strings.EqualFold(attrValue(n, attrKey), attrVal) {
			if c := strings.TrimSpace(attrValue(n, "content")); c != "" {
				content = c
				return false
			}
		}
		return true
	})
	return content
}

// firstElement returns the first element with the given atom, in document
// order.
func firstElement(root *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

// findByAttr returns the first element carrying attr=val.
func findByAttr(root *html.Node, attr, val string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && strings.EqualFold(attrValue(n, attr), val) {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits nodes depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
