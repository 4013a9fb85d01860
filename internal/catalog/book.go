// Package catalog defines the book record model shared by the crawl,
// storage and export layers.
package catalog

// ratingLabels maps the star-rating class labels used by the catalog
// markup to their numeric value. The mapping is fixed; any label outside
// it means the rating is unknown.
var ratingLabels = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// RatingFromLabel resolves a star-rating class label to its numeric value.
func RatingFromLabel(label string) (int, bool) {
	r, ok := ratingLabels[label]
	return r, ok
}

// Book is a single catalog record. It is built in two phases: the listing
// page yields everything except Description, UPC and Category, which are
// merged in from the detail page before the commit attempt. Optional
// fields are nil when the source markup did not yield them.
type Book struct {
	Title        string
	Price        *float64
	Availability *string
	Rating       *int
	ImageURL     *string
	Description  *string
	UPC          *string
	Category     *string

	// DetailURL schedules the detail-page fetch. It is crawl-internal
	// and never persisted.
	DetailURL *string
}
