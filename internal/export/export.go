// Package export renders a read-only registry snapshot as a spreadsheet
// friendly CSV file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"wedding-registry/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// GuestHeader is the column header row of the guest table
var GuestHeader = []string{
	"No", "Name", "Name (Khmer)", "Phone", "Amount", "Currency",
	"Amount KHR", "Amount USD", "Payment", "Note", "Created At",
}

// WriteCSV writes the wedding details, one line per guest and a totals
// block. A UTF-8 byte order mark is written first so spreadsheet tools pick
// up Khmer text correctly.
func WriteCSV(w io.Writer, snap models.Snapshot) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	cw := csv.NewWriter(w)
	for _, rec := range infoRecords(snap.WeddingInfo) {
		cw.Write(rec)
	}

	cw.Write(GuestHeader)
	for i, g := range snap.Guests {
		cw.Write([]string{
			strconv.Itoa(i + 1),
			g.Name,
			g.NameKm,
			g.Phone,
			g.Amount.String(),
			string(g.Currency),
			g.AmountKHR.StringFixed(0),
			g.AmountUSD.StringFixed(2),
			string(g.PaymentType),
			g.Note,
			g.CreatedAt.Format(timeLayout),
		})
	}

	t := snap.Totals
	cw.Write(nil)
	cw.Write([]string{"Total Guests", strconv.FormatInt(t.TotalGuests, 10)})
	cw.Write([]string{"Total KHR", t.TotalKHR.StringFixed(0)})
	cw.Write([]string{"Total USD", t.TotalUSD.StringFixed(2)})
	cw.Write([]string{"Cash Total", t.CashTotal.String()})

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func infoRecords(info models.WeddingInfo) [][]string {
	var recs [][]string
	add := func(label, value string) {
		if value != "" {
			recs = append(recs, []string{label, value})
		}
	}

	if info.GroomName != "" || info.BrideName != "" {
		add("Wedding", info.GroomName+" & "+info.BrideName)
	}
	add("Date", info.WeddingDate)
	add("Time", info.WeddingTime)
	add("Location", info.WeddingLocation)
	if len(recs) > 0 {
		recs = append(recs, nil)
	}
	return recs
}
