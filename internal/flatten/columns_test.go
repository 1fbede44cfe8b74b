package flatten

import (
	"reflect"
	"testing"
)

func TestColumns_PriorityFirstRestSorted(t *testing.T) {
	rows := []Row{
		{"zeta": 1, "propertyID": "p", "alpha": 2},
		{"sourceID": "s", "beta": 3},
	}
	priority := []string{"propertyID", "sourceID", "neverPresent"}

	got := Columns(rows, priority)
	want := []string{"propertyID", "sourceID", "alpha", "beta", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
}

func TestColumns_Empty(t *testing.T) {
	if got := Columns(nil, []string{"a"}); len(got) != 0 {
		t.Errorf("no rows should yield no columns, got %v", got)
	}
}

func TestColumns_IndependentOfRowOrder(t *testing.T) {
	a := []Row{{"x": 1}, {"y": 2, "z": 3}}
	b := []Row{{"y": 2, "z": 3}, {"x": 1}}
	priority := []string{"z"}

	if got, want := Columns(a, priority), Columns(b, priority); !reflect.DeepEqual(got, want) {
		t.Errorf("column order depends on row order: %v vs %v", got, want)
	}
}

func TestNormalize_FillsMissingWithEmptyString(t *testing.T) {
	rows := []Row{
		{"a": "1"},
		{"b": float64(2)},
	}
	cols := []string{"a", "b"}

	Normalize(rows, cols)

	if rows[0]["b"] != "" {
		t.Errorf("rows[0][b] = %v, want empty string", rows[0]["b"])
	}
	if rows[1]["a"] != "" {
		t.Errorf("rows[1][a] = %v, want empty string", rows[1]["a"])
	}
	// Present values are never overwritten
	if rows[1]["b"] != float64(2) {
		t.Errorf("rows[1][b] = %v, want 2", rows[1]["b"])
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	rows := []Row{{"a": "x"}}
	cols := []string{"a", "b"}

	Normalize(rows, cols)
	first := Row{}
	for k, v := range rows[0] {
		first[k] = v
	}

	Normalize(rows, cols)
	if !reflect.DeepEqual(rows[0], first) {
		t.Errorf("second Normalize changed the row: %v vs %v", rows[0], first)
	}
}
