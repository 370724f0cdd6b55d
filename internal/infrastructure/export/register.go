package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
)

const (
	SheetRequests = "Requests"
	SheetItems    = "Items"
	SheetHistory  = "History"

	timestampLayout = "2006-01-02 15:04:05"
)

var (
	requestHeaders = []string{
		"Request ID", "Module", "Owner ID", "Owner", "Department", "Division", "Description",
		"Amount", "Currency", "Status", "Approve Order", "Current Approver", "Created At", "Settled At",
	}
	itemHeaders    = []string{"Request ID", "Line", "Description", "Amount"}
	historyHeaders = []string{"Request ID", "Position", "Action", "Actor ID", "Actor", "Note", "Timestamp"}

	requestColWidths = []float64{12, 14, 14, 22, 18, 18, 36, 16, 10, 12, 14, 22, 20, 20}
)

// RegisterWriter renders settlement registers as xlsx workbooks
type RegisterWriter struct{}

// NewRegisterWriter creates an xlsx register writer
func NewRegisterWriter() *RegisterWriter {
	return &RegisterWriter{}
}

// Write renders one row per request on the Requests sheet, line items for
// petty cash on the Items sheet and the audit trail on the History sheet.
func (rw *RegisterWriter) Write(w io.Writer, module entity.Module, requests []*entity.Request) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRequests); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, SheetRequests, requestHeaders, headerStyle); err != nil {
		return err
	}
	for i, width := range requestColWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetRequests, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if module == entity.ModulePettyCash {
		if _, err := f.NewSheet(SheetItems); err != nil {
			return fmt.Errorf("failed to add items sheet: %w", err)
		}
		if err := writeHeader(f, SheetItems, itemHeaders, headerStyle); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetHistory); err != nil {
		return fmt.Errorf("failed to add history sheet: %w", err)
	}
	if err := writeHeader(f, SheetHistory, historyHeaders, headerStyle); err != nil {
		return err
	}

	reqRow, itemRow, histRow := 2, 2, 2
	for _, req := range requests {
		if err := setRow(f, SheetRequests, reqRow, requestRow(req)); err != nil {
			return err
		}
		reqRow++

		if module == entity.ModulePettyCash {
			for i, item := range req.Items {
				row := []interface{}{req.ID, i + 1, item.Description, item.Amount.InexactFloat64()}
				if err := setRow(f, SheetItems, itemRow, row); err != nil {
					return err
				}
				itemRow++
			}
		}

		for _, rec := range req.History {
			row := []interface{}{
				req.ID, rec.Position, rec.Action, rec.ActorUserID, rec.ActorName, rec.Note,
				formatTime(rec.Timestamp),
			}
			if err := setRow(f, SheetHistory, histRow, row); err != nil {
				return err
			}
			histRow++
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func requestRow(req *entity.Request) []interface{} {
	settled := ""
	if req.SettledAt != nil {
		settled = formatTime(*req.SettledAt)
	}
	return []interface{}{
		req.ID,
		req.Module.Label(),
		req.OwnerUserID,
		req.OwnerName,
		req.Department,
		req.Division,
		req.Description,
		req.Amount.InexactFloat64(),
		req.Currency,
		req.Status.String(),
		req.ApproveOrder,
		req.CurrentApproverName,
		formatTime(req.CreatedAt),
		settled,
	}
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := setRow(f, sheet, 1, row); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}
