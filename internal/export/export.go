// Package export writes the parameter sheet to JSON or an Excel workbook.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/san-kum/atsform/internal/form"
)

const (
	SheetDisturbances = "Disturbances"
	SheetInitial      = "Initial"
	SheetEquations    = "Equations"
)

// Document is the exported form: the request body plus the status line.
type Document struct {
	Status string `json:"status,omitempty"`
	form.Request
}

// JSON writes the collected form, defaults substituted, as indented JSON.
func JSON(w io.Writer, st form.State) error {
	req, _ := form.Collect(st)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{Status: st.Status, Request: req})
}

func JSONFile(path string, st form.State) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return JSON(file, st)
}

// XLSX writes one sheet per parameter group. Only rows present in the
// form's layout are written to the Initial sheet.
func XLSX(path string, st form.State) error {
	req, _ := form.Collect(st)
	layout := st.Layout()

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetDisturbances)
	if err := writeRows(f, SheetDisturbances, []any{"No", "Factor", "a", "b"}, func(add func(...any)) {
		for i, p := range req.Faks {
			add(i+1, form.FactorLabels[i], p[0], p[1])
		}
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetInitial); err != nil {
		return err
	}
	if err := writeRows(f, SheetInitial, []any{"No", "Variable", "X(0)", "Restriction"}, func(add func(...any)) {
		ini, res := 0, 0
		for i := 0; i < form.InitialCount; i++ {
			if !layout.Initial[i] && !layout.Restrictions[i] {
				continue
			}
			row := []any{i + 1, form.VariableLabels[i], "", ""}
			if layout.Initial[i] {
				row[2] = req.InitialEquations[ini]
				ini++
			}
			if layout.Restrictions[i] {
				row[3] = req.Restrictions[res]
				res++
			}
			add(row...)
		}
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetEquations); err != nil {
		return err
	}
	if err := writeRows(f, SheetEquations, []any{"No", "Argument", "k", "b"}, func(add func(...any)) {
		for i, e := range req.Equations {
			add(i+1, fmt.Sprintf("X%d", form.EquationVariable[i]), e[0], e[1])
		}
	}); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, header []any, fill func(add func(...any))) error {
	row := 1
	var err error
	add := func(values ...any) {
		if err != nil {
			return
		}
		for col, v := range values {
			cell, cerr := excelize.CoordinatesToCellName(col+1, row)
			if cerr != nil {
				err = cerr
				return
			}
			if err = f.SetCellValue(sheet, cell, v); err != nil {
				return
			}
		}
		row++
	}
	add(header...)
	fill(add)
	if err != nil {
		return fmt.Errorf("export: sheet %s: %w", sheet, err)
	}
	return nil
}
