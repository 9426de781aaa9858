package collection

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{"ID", "Name", "Type", "Required", "Private", "Value"}

// ExportToExcel renders one row per attribute
func ExportToExcel(c *Collection) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Attributes"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, a := range c.Attributes {
		row := []interface{}{
			a.ID,
			a.Setting.Name,
			string(a.Setting.Type),
			a.Setting.Required,
			a.Setting.Private,
			exportValue(a.Content),
		}
		for colIdx, v := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 15.0
		if i == 0 || i == len(exportColumns)-1 {
			width = 40
		}
		f.SetColWidth(sheetName, col, col, width)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buffer.Bytes(), c.Slug + ".xlsx", nil
}

func exportValue(content Content) interface{} {
	switch content.Kind {
	case ContentUpload:
		if content.Upload == nil {
			return ""
		}
		urls := make([]string, 0, len(content.Upload.Files))
		for _, m := range content.Upload.Files {
			urls = append(urls, m.URL)
		}
		return strings.Join(urls, "\n")
	case ContentComment:
		if content.Comment == nil {
			return 0
		}
		return len(content.Comment.Replies)
	case ContentReaction:
		if content.Reaction == nil {
			return 0
		}
		total := 0
		for _, n := range content.Reaction.Counts {
			total += n
		}
		return total
	case ContentPlain:
	}

	switch v := content.Value.(type) {
	case nil:
		return ""
	case string, bool, int, int32, int64, float64:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
