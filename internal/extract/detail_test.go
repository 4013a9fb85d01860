package extract

import (
	"fmt"
	"strings"
	"testing"
)

type detailSpec struct {
	description string
	noDescP     bool
	noDescDiv   bool
	rows        [][2]string
	noTable     bool
	breadcrumb  []string
}

func buildDetailPage(d detailSpec) []byte {
	var b strings.Builder
	b.WriteString(`<html><body>`)

	if len(d.breadcrumb) > 0 {
		b.WriteString(`<ul class="breadcrumb">`)
		for _, crumb := range d.breadcrumb {
			fmt.Fprintf(&b, `<li><a href="#">%s</a></li>`, crumb)
		}
		b.WriteString(`<li class="active">Some Title</li></ul>`)
	}

	if !d.noTable {
		b.WriteString(`<table class="table table-striped">`)
		for _, row := range d.rows {
			fmt.Fprintf(&b, `<tr><th>%s</th><td>%s</td></tr>`, row[0], row[1])
		}
		b.WriteString(`</table>`)
	}

	if !d.noDescDiv {
		b.WriteString(`<div id="product_description"><h2>Product Description</h2></div>`)
		if !d.noDescP {
			fmt.Fprintf(&b, `<p>%s</p>`, d.description)
		}
	}

	b.WriteString(`</body></html>`)
	return []byte(b.String())
}

func TestParseDetailAllFields(t *testing.T) {
	t.Parallel()

	page := buildDetailPage(detailSpec{
		description: "A deeply moving story.",
		rows: [][2]string{
			{"UPC", "a897fe39b1053632"},
			{"Product Type", "Books"},
		},
		breadcrumb: []string{"Home", "Books", "Poetry"},
	})

	d := ParseDetail(page)
	if d.Description == nil || *d.Description != "A deeply moving story." {
		t.Fatalf("description = %v, want first paragraph after marker", d.Description)
	}
	if d.UPC == nil || *d.UPC != "a897fe39b1053632" {
		t.Fatalf("upc = %v, want a897fe39b1053632", d.UPC)
	}
	if d.Category == nil || *d.Category != "Poetry" {
		t.Fatalf("category = %v, want Poetry", d.Category)
	}
}

func TestParseDetailDescriptionAbsence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec detailSpec
	}{
		{name: "no marker", spec: detailSpec{noDescDiv: true, rows: [][2]string{{"UPC", "x"}}, breadcrumb: []string{"Home", "Books", "Art"}}},
		{name: "marker without paragraph", spec: detailSpec{noDescP: true, rows: [][2]string{{"UPC", "x"}}, breadcrumb: []string{"Home", "Books", "Art"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := ParseDetail(buildDetailPage(tt.spec))
			if d.Description != nil {
				t.Fatalf("description = %q, want absent", *d.Description)
			}
			// The other two extractions are independent of the description.
			if d.UPC == nil || *d.UPC != "x" {
				t.Fatalf("upc = %v, want x", d.UPC)
			}
			if d.Category == nil || *d.Category != "Art" {
				t.Fatalf("category = %v, want Art", d.Category)
			}
		})
	}
}

func TestParseDetailUPCFirstRowWins(t *testing.T) {
	t.Parallel()

	page := buildDetailPage(detailSpec{
		description: "desc",
		rows: [][2]string{
			{"Product Type", "Books"},
			{"UPC", "first-upc"},
			{"UPC", "second-upc"},
		},
	})

	d := ParseDetail(page)
	if d.UPC == nil || *d.UPC != "first-upc" {
		t.Fatalf("upc = %v, want first matching row", d.UPC)
	}
}

func TestParseDetailUPCAbsent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec detailSpec
	}{
		{name: "no table", spec: detailSpec{description: "d", noTable: true}},
		{name: "no UPC row", spec: detailSpec{description: "d", rows: [][2]string{{"Price (incl. tax)", "£51.77"}}}},
		{name: "label is substring", spec: detailSpec{description: "d", rows: [][2]string{{"UPC Code", "x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if d := ParseDetail(buildDetailPage(tt.spec)); d.UPC != nil {
				t.Fatalf("upc = %q, want absent", *d.UPC)
			}
		})
	}
}

func TestParseDetailCategoryNeedsThreeCrumbs(t *testing.T) {
	t.Parallel()

	short := ParseDetail(buildDetailPage(detailSpec{
		description: "d",
		breadcrumb:  []string{"Home", "Books"},
	}))
	if short.Category != nil {
		t.Fatalf("category = %q, want absent for two-entry breadcrumb", *short.Category)
	}

	exact := ParseDetail(buildDetailPage(detailSpec{
		description: "d",
		breadcrumb:  []string{"Home", "Books", "Travel"},
	}))
	if exact.Category == nil || *exact.Category != "Travel" {
		t.Fatalf("category = %v, want Travel for three-entry breadcrumb", exact.Category)
	}
}

func TestParseDetailEmptyInput(t *testing.T) {
	t.Parallel()

	d := ParseDetail(nil)
	if d.Description != nil || d.UPC != nil || d.Category != nil {
		t.Fatalf("empty input should yield all-absent detail, got %+v", d)
	}
}
