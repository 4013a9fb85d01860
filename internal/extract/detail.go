package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Detail holds the fields only available on a book's detail page. All
// three are optional and extracted independently of one another.
type Detail struct {
	Description *string
	UPC         *string
	Category    *string
}

// ParseDetail extracts description, UPC and category from a detail page.
// Absence of any one field never affects the others; malformed input
// yields an all-absent Detail.
func ParseDetail(html []byte) Detail {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Detail{}
	}

	return Detail{
		Description: parseDescription(doc),
		UPC:         parseUPC(doc),
		Category:    parseCategory(doc),
	}
}

// parseDescription locates the description section marker and takes the
// first paragraph that follows it.
func parseDescription(doc *goquery.Document) *string {
	marker := doc.Find("#product_description").First()
	if marker.Length() == 0 {
		return nil
	}
	p := marker.NextAllFiltered("p").First()
	if p.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(p.Text())
	return &text
}

// parseUPC scans the product information table for the row labeled
// exactly "UPC". First match wins.
func parseUPC(doc *goquery.Document) *string {
	var upc *string
	doc.Find("table.table.table-striped tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		th := row.Find("th").First()
		td := row.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return true
		}
		if strings.TrimSpace(th.Text()) != "UPC" {
			return true
		}
		text := strings.TrimSpace(td.Text())
		upc = &text
		return false
	})
	return upc
}

// parseCategory takes the last breadcrumb link as the category, but only
// when the trail has at least three entries (Home / Books / Category);
// shorter trails carry no specific category.
func parseCategory(doc *goquery.Document) *string {
	links := doc.Find("ul.breadcrumb li a")
	if links.Length() < 3 {
		return nil
	}
	text := strings.TrimSpace(links.Eq(links.Length() - 1).Text())
	return &text
}
