package domain

import "strconv"

// ExpectedCellCount is the fixed number of display cells a fully rendered
// catalog row carries: LastChange, Title, Developer, Reviews, Price,
// Discount, ProtonDB.
const ExpectedCellCount = 7

// TitleCellIndex is the position of the title cell inside a rendered row.
const TitleCellIndex = 1

// CapturedRow is one title's data as rendered by the compatibility grid.
// Ordinal is the stable rendering position and the dedup/resume key.
type CapturedRow struct {
	Ordinal int
	Fields  []string
	Status  CompatStatus
}

// CSVHeader is the durable sink's column set, in write order.
var CSVHeader = []string{
	"Row Number",
	"Last Change",
	"Title",
	"Developer",
	"Reviews",
	"Price",
	"Discount",
	"ProtonDB",
	"SteamOSResultStatus",
}

// Record flattens the row into the CSV column order declared by CSVHeader.
func (r CapturedRow) Record() []string {
	rec := make([]string, 0, len(r.Fields)+2)
	rec = append(rec, strconv.Itoa(r.Ordinal))
	rec = append(rec, r.Fields...)
	rec = append(rec, string(r.Status))
	return rec
}
