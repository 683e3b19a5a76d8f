//-------------------------------------------------------------------------
//
// Retail BI Backend
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// SuperstoreHeader is the column header row of a generated sales export.
var SuperstoreHeader = []string{
	"Row ID", "Order ID", "Order Date", "Ship Date", "Ship Mode",
	"Customer ID", "Customer Name", "Segment",
	"Country", "City", "State", "Postal Code", "Region",
	"Product ID", "Category", "Sub-Category", "Product Name", "Sales",
}

var (
	shipModes       = []string{"Standard Class", "Second Class", "First Class", "Same Day"}
	shipModeWeights = []int{60, 20, 15, 5}

	segments = []string{"Consumer", "Corporate", "Home Office"}
	regions  = []string{"South", "West", "East", "Central"}

	subCategories = map[string][]string{
		"Furniture":       {"Bookcases", "Chairs", "Tables", "Furnishings"},
		"Office Supplies": {"Labels", "Paper", "Binders", "Storage", "Art", "Appliances"},
		"Technology":      {"Phones", "Accessories", "Machines", "Copiers"},
	}
	categories = []string{"Furniture", "Office Supplies", "Technology"}
)

// WriteSuperstoreCSV writes a sales export of n data rows in the shape
// the loader ingests. The output is deliberately a little messy where
// real exports are: some dates use dashes instead of slashes and large
// sales figures carry thousands separators.
func WriteSuperstoreCSV(w io.Writer, f *Faker, n int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SuperstoreHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= n; i++ {
		orderDate := f.DateRange(start, end)
		shipDate := orderDate.AddDate(0, 0, f.Int(1, 7))

		first, last := f.FirstName(), f.LastName()
		category := Choose(f, categories)

		row := []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("CA-%d-%s", orderDate.Year(), f.Digits(6)),
			formatDMY(f, orderDate),
			formatDMY(f, shipDate),
			ChooseWeighted(f, shipModes, shipModeWeights),
			fmt.Sprintf("%s%s-%s", first[:1], last[:1], f.Digits(5)),
			first + " " + last,
			Choose(f, segments),
			"United States",
			f.City(),
			f.State(),
			f.Zip(),
			Choose(f, regions),
			fmt.Sprintf("%s-%s", strings.ToUpper(category[:3]), f.Digits(8)),
			category,
			Choose(f, subCategories[category]),
			f.ProductName(),
			formatSales(f, f.Price(5, 2500)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatDMY renders a day-first date, mostly with slashes but sometimes
// with the dash separator some exports use.
func formatDMY(f *Faker, t time.Time) string {
	if f.Int(1, 10) == 1 {
		return t.Format("02-01-2006")
	}
	return t.Format("02/01/2006")
}

// formatSales renders an amount, occasionally with a thousands comma the
// way spreadsheet exports produce them.
func formatSales(f *Faker, v float64) string {
	if v >= 1000 && f.Int(1, 4) == 1 {
		thousands := int(v) / 1000
		rest := v - float64(thousands*1000)
		return fmt.Sprintf("%d,%06.2f", thousands, rest)
	}
	return fmt.Sprintf("%.2f", v)
}
