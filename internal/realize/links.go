package realize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var linkMarkerRe = regexp.MustCompile(`\[LINK:[^\]]*\]`)

// RemoveLinks drops [LINK:...] markers and unwraps <a> elements, keeping
// their content
func RemoveLinks(text string) (string, error) {
	text = linkMarkerRe.ReplaceAllString(text, "")
	if !strings.Contains(text, "<a") {
		return text, nil
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(text), container)
	if err != nil {
		return "", err
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			walk(c)
			if c.Type == html.ElementNode && c.DataAtom == atom.A {
				for gc := c.FirstChild; gc != nil; gc = c.FirstChild {
					c.RemoveChild(gc)
					n.InsertBefore(gc, c)
				}
				n.RemoveChild(c)
			}
			c = next
		}
	}
	walk(container)

	var b strings.Builder
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}
