package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"wedding-registry/internal/models"
)

// SheetName is the worksheet WriteXLSX fills
const SheetName = "Guests"

// WriteXLSX writes the same layout as WriteCSV as an Excel workbook with
// numeric amount cells.
func WriteXLSX(w io.Writer, snap models.Snapshot) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	row := 1
	put := func(values ...any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		if len(values) == 0 {
			return nil
		}
		return f.SetSheetRow(SheetName, cell, &values)
	}

	for _, rec := range infoRecords(snap.WeddingInfo) {
		values := make([]any, len(rec))
		for i, v := range rec {
			values[i] = v
		}
		if err := put(values...); err != nil {
			return fmt.Errorf("failed to write wedding details: %w", err)
		}
	}

	header := make([]any, len(GuestHeader))
	for i, h := range GuestHeader {
		header[i] = h
	}
	if err := f.SetRowStyle(SheetName, row, row, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := put(header...); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, g := range snap.Guests {
		err := put(
			i+1,
			g.Name,
			g.NameKm,
			g.Phone,
			g.Amount.InexactFloat64(),
			string(g.Currency),
			g.AmountKHR.Round(0).InexactFloat64(),
			g.AmountUSD.Round(2).InexactFloat64(),
			string(g.PaymentType),
			g.Note,
			g.CreatedAt.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to write guest %d: %w", g.ID, err)
		}
	}

	t := snap.Totals
	totals := [][]any{
		{},
		{"Total Guests", t.TotalGuests},
		{"Total KHR", t.TotalKHR.Round(0).InexactFloat64()},
		{"Total USD", t.TotalUSD.Round(2).InexactFloat64()},
		{"Cash Total", t.CashTotal.InexactFloat64()},
	}
	for _, rec := range totals {
		if err := put(rec...); err != nil {
			return fmt.Errorf("failed to write totals: %w", err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "K", 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
