package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/san-kum/atsform/internal/form"
)

func TestJSON(t *testing.T) {
	st := form.NewState(form.FullLayout())
	st.Status = form.StatusDone
	st.Faks[0] = form.Pair{A: "0.61", B: "-0.1"}

	var buf bytes.Buffer
	if err := JSON(&buf, st); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != form.StatusDone {
		t.Errorf("expected status, got %v", got["status"])
	}
	faks, ok := got["faks"].([]any)
	if !ok || len(faks) != form.FakCount {
		t.Fatalf("unexpected faks %v", got["faks"])
	}
	first := faks[0].([]any)
	if first[0] != 0.61 || first[1] != -0.1 {
		t.Errorf("unexpected first disturbance %v", first)
	}
	if n := len(got["equations"].([]any)); n != form.EquationCount {
		t.Errorf("expected %d equations, got %d", form.EquationCount, n)
	}
}

func TestXLSX(t *testing.T) {
	layout := form.LayoutOf([]int{1, 3}, []int{3})
	st := form.NewState(layout)
	st.Equations[17] = form.Pair{A: "-0.02", B: "0.87"}
	st.Initial[2].Value = "0.25"

	path := filepath.Join(t.TempDir(), "params.xlsx")
	if err := XLSX(path, st); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != SheetDisturbances {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(SheetDisturbances)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != form.FakCount+1 {
		t.Errorf("expected %d disturbance rows, got %d", form.FakCount+1, len(rows))
	}
	if rows[1][2] != "0.5" {
		t.Errorf("expected default a=0.5, got %s", rows[1][2])
	}

	rows, err = f.GetRows(SheetInitial)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "1" || len(rows[1]) > 3 && rows[1][3] != "" {
		t.Errorf("row 1: unexpected %v", rows[1])
	}
	if rows[2][0] != "3" || rows[2][2] != "0.25" || rows[2][3] != "1" {
		t.Errorf("row 3: unexpected %v", rows[2])
	}

	v, err := f.GetCellValue(SheetEquations, "C19")
	if err != nil {
		t.Fatal(err)
	}
	if v != "-0.02" {
		t.Errorf("expected k=-0.02 for f18, got %s", v)
	}
	arg, _ := f.GetCellValue(SheetEquations, "B2")
	if arg != "X2" {
		t.Errorf("expected f1 to depend on X2, got %s", arg)
	}
}
