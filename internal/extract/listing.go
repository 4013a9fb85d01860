// Package extract turns fetched catalog HTML into book records. Every
// field is extracted independently and defensively: a missing node yields
// an absent field, never an error for the unit or the page.
package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/bookcatalog-crawler/internal/catalog"
)

// ListingParser extracts partial book records from catalog listing pages.
// Relative image and detail addresses are resolved against the site base.
type ListingParser struct {
	base   *url.URL
	logger *zap.Logger
}

// NewListingParser builds a ListingParser rooted at the given base URL.
func NewListingParser(base *url.URL, logger *zap.Logger) *ListingParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingParser{base: base, logger: logger}
}

// Parse returns the partial records found on a listing page, in document
// order. Malformed or empty input yields an empty slice.
func (p *ListingParser) Parse(html []byte) []catalog.Book {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		p.logger.Warn("listing page did not parse", zap.Error(err))
		return nil
	}

	var books []catalog.Book
	doc.Find("article.product_pod").Each(func(_ int, unit *goquery.Selection) {
		books = append(books, p.parseUnit(unit))
	})
	return books
}

func (p *ListingParser) parseUnit(unit *goquery.Selection) catalog.Book {
	book := catalog.Book{}

	link := unit.Find("h3 a").First()
	book.Title = strings.TrimSpace(link.AttrOr("title", ""))

	if priceText := strings.TrimSpace(unit.Find("p.price_color").First().Text()); priceText != "" {
		if v, ok := catalog.NormalizePrice(priceText); ok {
			book.Price = &v
		} else {
			p.logger.Warn("could not normalize price",
				zap.String("title", book.Title),
				zap.String("raw", priceText),
			)
		}
	}

	if avail := unit.Find("p.instock.availability").First(); avail.Length() > 0 {
		text := strings.TrimSpace(avail.Text())
		book.Availability = &text
	}

	book.Rating = ratingFromClasses(unit.Find("p.star-rating").First())

	if src, ok := unit.Find("div.image_container img").First().Attr("src"); ok {
		if abs := p.resolve(src); abs != "" {
			book.ImageURL = &abs
		}
	}

	if href, ok := link.Attr("href"); ok {
		if abs := p.resolve(href); abs != "" {
			book.DetailURL = &abs
		}
	}

	return book
}

// ratingFromClasses scans the star-rating element's class list and takes
// the first class that resolves through the label map. First match wins;
// there is no check that only one class matches.
func ratingFromClasses(sel *goquery.Selection) *int {
	if sel.Length() == 0 {
		return nil
	}
	for _, class := range strings.Fields(sel.AttrOr("class", "")) {
		if r, ok := catalog.RatingFromLabel(class); ok {
			return &r
		}
	}
	return nil
}

func (p *ListingParser) resolve(ref string) string {
	if p.base == nil {
		return ref
	}
	abs, err := p.base.Parse(ref)
	if err != nil {
		return ""
	}
	return abs.String()
}
