// Package markup inspects the HTML fragments Mealie stores in instruction text
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Image is an <img> element found in a fragment
type Image struct {
	Src string
	Alt string
}

// Images returns the <img> elements embedded in an HTML fragment, in document order
func Images(fragment string) []Image {
	if !strings.Contains(fragment, "<") {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var images []Image
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			img := Image{}
			for _, attr := range n.Attr {
				switch attr.Key {
				case "src":
					img.Src = strings.TrimSpace(attr.Val)
				case "alt":
					img.Alt = strings.TrimSpace(attr.Val)
				}
			}
			images = append(images, img)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return images
}

// HasImage reports whether the fragment embeds at least one image
func HasImage(fragment string) bool {
	return len(Images(fragment)) > 0
}
