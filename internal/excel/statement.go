package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/jobpay/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(stmt model.ClientStatement) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Best clients"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Period start")
	set("B1", formatDate(stmt.PeriodStart))
	set("A2", "Period end")
	set("B2", formatDate(stmt.PeriodEnd))
	set("A3", "Clients")
	set("B3", len(stmt.Clients))

	tableRow := 5
	headers := []string{"Client id", "First name", "Last name", "Total paid"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, client := range stmt.Clients {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), client.ID.String())
		set(fmt.Sprintf("B%d", row), client.FirstName)
		set(fmt.Sprintf("C%d", row), client.LastName)
		set(fmt.Sprintf("D%d", row), fmt.Sprintf("%.2f", client.TotalPaid))
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "C", 20)
	_ = file.SetColWidth(sheet, "D", "D", 14)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
