package extract

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type unitSpec struct {
	title     string
	price     string
	rating    string
	avail     string
	image     string
	href      string
	noImage   bool
	noLink    bool
	noRating  bool
	noAvail   bool
	noPrice   bool
	noTitleAt bool
}

func buildListingPage(units ...unitSpec) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><section>`)
	for _, u := range units {
		b.WriteString(`<article class="product_pod">`)
		if !u.noLink {
			if u.noTitleAt {
				fmt.Fprintf(&b, `<h3><a href=%q>%s</a></h3>`, u.href, u.title)
			} else {
				fmt.Fprintf(&b, `<h3><a href=%q title=%q>%s</a></h3>`, u.href, u.title, u.title)
			}
		}
		if !u.noImage {
			fmt.Fprintf(&b, `<div class="image_container"><img src=%q/></div>`, u.image)
		}
		if !u.noRating {
			fmt.Fprintf(&b, `<p class="star-rating %s"></p>`, u.rating)
		}
		if !u.noPrice {
			fmt.Fprintf(&b, `<p class="price_color">%s</p>`, u.price)
		}
		if !u.noAvail {
			fmt.Fprintf(&b, `<p class="instock availability">%s</p>`, u.avail)
		}
		b.WriteString(`</article>`)
	}
	b.WriteString(`</section></body></html>`)
	return []byte(b.String())
}

func newTestParser(t *testing.T) *ListingParser {
	t.Helper()
	base, err := url.Parse("http://books.example/")
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}
	return NewListingParser(base, zap.NewNop())
}

func TestParseListingTwoUnitsWithGaps(t *testing.T) {
	t.Parallel()

	page := buildListingPage(
		unitSpec{
			title: "A Light in the Attic", price: "£51.77", rating: "Three",
			avail: "In stock", href: "catalogue/a-light/index.html", noImage: true,
		},
		unitSpec{
			title: "Tipping the Velvet", price: "£53.74", noRating: true,
			avail: "In stock", image: "media/velvet.jpg", href: "catalogue/velvet/index.html",
		},
	)

	books := newTestParser(t).Parse(page)
	if len(books) != 2 {
		t.Fatalf("records = %d, want 2", len(books))
	}

	first, second := books[0], books[1]
	if first.Title != "A Light in the Attic" || second.Title != "Tipping the Velvet" {
		t.Fatalf("order not preserved: %q, %q", first.Title, second.Title)
	}
	if first.ImageURL != nil {
		t.Fatalf("first image should be absent, got %q", *first.ImageURL)
	}
	if second.Rating != nil {
		t.Fatalf("second rating should be absent, got %d", *second.Rating)
	}
	if first.Price == nil || *first.Price != 51.77 {
		t.Fatalf("first price = %v, want 51.77", first.Price)
	}
	if second.Price == nil || *second.Price != 53.74 {
		t.Fatalf("second price = %v, want 53.74", second.Price)
	}
	if first.Rating == nil || *first.Rating != 3 {
		t.Fatalf("first rating = %v, want 3", first.Rating)
	}
	if second.ImageURL == nil || *second.ImageURL != "http://books.example/media/velvet.jpg" {
		t.Fatalf("second image = %v, want absolute media URL", second.ImageURL)
	}
}

func TestParseListingEmptyAndMalformedInput(t *testing.T) {
	t.Parallel()

	p := newTestParser(t)
	for _, input := range []string{"", "not html at all <", "<html><body></body></html>"} {
		if got := p.Parse([]byte(input)); len(got) != 0 {
			t.Fatalf("Parse(%q) = %d records, want 0", input, len(got))
		}
	}
}

func TestParseListingMissingLinkKeepsUnit(t *testing.T) {
	t.Parallel()

	page := buildListingPage(unitSpec{
		noLink: true, price: "£10.00", rating: "One",
		avail: "In stock", image: "media/x.jpg",
	})

	books := newTestParser(t).Parse(page)
	if len(books) != 1 {
		t.Fatalf("records = %d, want 1", len(books))
	}
	book := books[0]
	if book.Title != "" {
		t.Fatalf("title = %q, want empty string", book.Title)
	}
	if book.DetailURL != nil {
		t.Fatalf("detail URL should be absent, got %q", *book.DetailURL)
	}
	if book.Price == nil || *book.Price != 10.00 {
		t.Fatalf("price = %v, want 10.00", book.Price)
	}
	if book.Rating == nil || *book.Rating != 1 {
		t.Fatalf("rating = %v, want 1", book.Rating)
	}
}

func TestParseListingTitleAttributeMissing(t *testing.T) {
	t.Parallel()

	page := buildListingPage(unitSpec{
		title: "ignored", noTitleAt: true, price: "£5.00",
		rating: "Two", avail: "In stock", image: "m.jpg", href: "c/x.html",
	})

	books := newTestParser(t).Parse(page)
	if len(books) != 1 {
		t.Fatalf("records = %d, want 1", len(books))
	}
	if books[0].Title != "" {
		t.Fatalf("title = %q, want empty (title attribute missing)", books[0].Title)
	}
	if books[0].DetailURL == nil || *books[0].DetailURL != "http://books.example/c/x.html" {
		t.Fatalf("detail URL = %v, want resolved href", books[0].DetailURL)
	}
}

func TestParseListingUnparseablePriceIsAbsent(t *testing.T) {
	t.Parallel()

	page := buildListingPage(unitSpec{
		title: "Odd Pricing", price: "£1.2.3", rating: "Four",
		avail: "In stock", image: "m.jpg", href: "c/x.html",
	})

	books := newTestParser(t).Parse(page)
	if len(books) != 1 {
		t.Fatalf("records = %d, want 1", len(books))
	}
	if books[0].Price != nil {
		t.Fatalf("price = %v, want absent for unparseable text", *books[0].Price)
	}
	if books[0].Title != "Odd Pricing" {
		t.Fatalf("title = %q, extraction of other fields must survive", books[0].Title)
	}
}

func TestParseListingRatingFirstMatchWins(t *testing.T) {
	t.Parallel()

	// Two recognized labels on one element: the first in class order wins,
	// with no exclusivity validation.
	page := []byte(`<article class="product_pod">
		<h3><a href="c/x.html" title="Doubly Rated">Doubly Rated</a></h3>
		<p class="star-rating Three Five"></p>
		<p class="price_color">£9.99</p>
	</article>`)

	books := newTestParser(t).Parse(page)
	if len(books) != 1 {
		t.Fatalf("records = %d, want 1", len(books))
	}
	if books[0].Rating == nil || *books[0].Rating != 3 {
		t.Fatalf("rating = %v, want 3 (first matching label)", books[0].Rating)
	}
}

func TestParseListingAvailabilityAbsentWhenNodeMissing(t *testing.T) {
	t.Parallel()

	page := buildListingPage(unitSpec{
		title: "No Stock Info", price: "£2.00", rating: "Five",
		image: "m.jpg", href: "c/x.html", noAvail: true,
	})

	books := newTestParser(t).Parse(page)
	if len(books) != 1 {
		t.Fatalf("records = %d, want 1", len(books))
	}
	if books[0].Availability != nil {
		t.Fatalf("availability = %q, want absent", *books[0].Availability)
	}
}
