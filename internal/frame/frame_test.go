package frame

import (
	"strings"
	"testing"
)

func TestLoadCSV_TypesAndOrder(t *testing.T) {
	csv := "id,name,age\n1,alice,30\n2,bob,25.5\n3,carol,n/a\n"
	f, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV returned error: %v", err)
	}
	if got, want := len(f.Columns), 3; got != want {
		t.Fatalf("columns = %d, want %d", got, want)
	}
	if f.Columns[0] != "id" || f.Columns[2] != "age" {
		t.Errorf("column order = %v", f.Columns)
	}
	if f.Len() != 3 {
		t.Fatalf("rows = %d, want 3", f.Len())
	}
	if _, ok := f.Rows[0]["age"].(int64); !ok {
		t.Errorf("integer cell stored as %T, want int64", f.Rows[0]["age"])
	}
	if _, ok := f.Rows[1]["age"].(float64); !ok {
		t.Errorf("float cell stored as %T, want float64", f.Rows[1]["age"])
	}
	if _, ok := f.Rows[2]["age"].(string); !ok {
		t.Errorf("text cell stored as %T, want string", f.Rows[2]["age"])
	}
}

func TestLoadCSV_NoHeader(t *testing.T) {
	if _, err := LoadCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestClone_Independent(t *testing.T) {
	f := New("a")
	f.Append(map[string]any{"a": int64(1)})

	c := f.Clone()
	c.Rows[0]["a"] = int64(2)
	c.WithColumn("b")

	if f.Rows[0]["a"] != int64(1) {
		t.Errorf("clone mutation leaked into original row")
	}
	if f.HasColumn("b") {
		t.Errorf("clone column leaked into original")
	}
}

func TestWithColumn_Idempotent(t *testing.T) {
	f := New("a")
	f.WithColumn("b")
	f.WithColumn("b")
	if got, want := len(f.Columns), 2; got != want {
		t.Errorf("columns = %d, want %d", got, want)
	}
}

func TestNumber(t *testing.T) {
	if n, err := Number("42"); err != nil || n != 42 {
		t.Errorf("Number(\"42\") = %v, %v", n, err)
	}
	if _, err := Number("nope"); err == nil {
		t.Error("Number(\"nope\") should error")
	}
}
