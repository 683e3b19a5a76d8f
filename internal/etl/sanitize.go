package etl

import (
	"regexp"
	"strconv"
	"strings"
)

// MinFields is the number of fields a record must carry to be imported.
// Shorter records are usually blank lines or parser debris and are
// rejected rather than defaulted.
const MinFields = 17

// Positional layout of the superstore export. Column 0 is the source
// file's own row number and is ignored. The sales column sits past the
// MinFields cutoff and defaults to zero when absent.
const (
	colOrderID = iota + 1
	colOrderDate
	colShipDate
	colShipMode
	colCustomerID
	colCustomerName
	colSegment
	colCountry
	colCity
	colState
	colPostalCode
	colRegion
	colProductID
	colCategory
	colSubCategory
	colProductName
	colSales
)

// Row is a sanitized record: positional fields mapped to names, string
// defaults applied, and the sales figure cleaned. The quantity,
// discount and profit measures are placeholders because the source
// format has no honest columns for them.
type Row struct {
	OrderID      string
	OrderDate    string
	ShipDate     string
	ShipMode     string
	CustomerID   string
	CustomerName string
	Segment      string
	Country      string
	City         string
	State        string
	PostalCode   string
	Region       string
	ProductID    string
	Category     string
	SubCategory  string
	ProductName  string
	Sales        float64
	Quantity     int
	Discount     float64
	Profit       float64
}

// Sanitize maps a raw record to a Row. It reports ok=false when the
// record has fewer than MinFields fields; every other shape problem is
// absorbed by a default.
func Sanitize(fields []string) (Row, bool) {
	if len(fields) < MinFields {
		return Row{}, false
	}

	sales := CleanSales(fieldAt(fields, colSales, ""))

	return Row{
		OrderID:      fieldAt(fields, colOrderID, "UNKNOWN"),
		OrderDate:    fieldAt(fields, colOrderDate, ""),
		ShipDate:     fieldAt(fields, colShipDate, ""),
		ShipMode:     fieldAt(fields, colShipMode, "Standard"),
		CustomerID:   fieldAt(fields, colCustomerID, "C-000"),
		CustomerName: fieldAt(fields, colCustomerName, "No Name"),
		Segment:      fieldAt(fields, colSegment, "Consumer"),
		Country:      fieldAt(fields, colCountry, "Indonesia"),
		City:         fieldAt(fields, colCity, "Unknown"),
		State:        fieldAt(fields, colState, "Unknown"),
		PostalCode:   fieldAt(fields, colPostalCode, "00000"),
		Region:       fieldAt(fields, colRegion, "None"),
		ProductID:    fieldAt(fields, colProductID, "P-000"),
		Category:     fieldAt(fields, colCategory, "Other"),
		SubCategory:  fieldAt(fields, colSubCategory, "Other"),
		ProductName:  fieldAt(fields, colProductName, "Unknown Product"),
		Sales:        sales,
		Quantity:     1,
		Discount:     0,
		Profit:       sales * 0.1,
	}, true
}

// fieldAt returns the trimmed field at index i, or def when the field
// is absent or blank.
func fieldAt(fields []string, i int, def string) string {
	if i >= len(fields) {
		return def
	}
	v := strings.TrimSpace(fields[i])
	if v == "" {
		return def
	}
	return v
}

var salesNoise = regexp.MustCompile(`[^0-9.]`)

// CleanSales strips currency symbols, thousands separators and any
// other noise from a sales figure and parses what remains. Unparsable
// or empty input yields zero.
func CleanSales(s string) float64 {
	s = salesNoise.ReplaceAllString(s, "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
