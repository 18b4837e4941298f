package service_test

import (
	"testing"

	"github.com/talent-grid-api/internal/domain"
	"github.com/talent-grid-api/internal/service"
)

func intPtr(v int) *int {
	return &v
}

func TestDistribution_EmptyInput(t *testing.T) {
	if stats := service.Distribution(nil, false); stats != nil {
		t.Errorf("expected nil for empty input, got %+v", stats)
	}
	if stats := service.Distribution([]domain.Employee{}, true); stats != nil {
		t.Errorf("expected nil for empty input in donut mode, got %+v", stats)
	}
}

func TestDistribution_AllNineCellsPresent(t *testing.T) {
	roster := []domain.Employee{
		{EmployeeID: 1, Name: "A", GridPosition: 5},
	}

	stats := service.Distribution(roster, false)
	if stats == nil {
		t.Fatal("expected statistics for a non-empty roster")
	}
	if len(stats.Distribution) != 9 {
		t.Fatalf("expected all 9 cells, got %d", len(stats.Distribution))
	}
	for i, cell := range stats.Distribution {
		if cell.GridPosition != i+1 {
			t.Errorf("cell %d has position %d", i, cell.GridPosition)
		}
	}
	if stats.Distribution[4].Count != 1 {
		t.Errorf("expected count 1 in cell 5, got %d", stats.Distribution[4].Count)
	}
}

func TestDistribution_Percentages(t *testing.T) {
	roster := []domain.Employee{
		{EmployeeID: 1, Name: "A", GridPosition: 1},
		{EmployeeID: 2, Name: "B", GridPosition: 1},
		{EmployeeID: 3, Name: "C", GridPosition: 2},
		{EmployeeID: 4, Name: "D", GridPosition: 3},
	}

	stats := service.Distribution(roster, false)
	if stats.Total != 4 {
		t.Fatalf("expected total 4, got %d", stats.Total)
	}

	if stats.Distribution[0].Percentage != 50.0 {
		t.Errorf("expected 50.0%% in cell 1, got %v", stats.Distribution[0].Percentage)
	}
	if stats.Distribution[1].Percentage != 25.0 {
		t.Errorf("expected 25.0%% in cell 2, got %v", stats.Distribution[1].Percentage)
	}

	// Округление до одного знака: 1 из 3 это 33.3
	third := service.Distribution(roster[1:], false)
	if third.Distribution[0].Percentage != 33.3 {
		t.Errorf("expected 33.3%%, got %v", third.Distribution[0].Percentage)
	}
}

func TestDistribution_OutOfRangeExcluded(t *testing.T) {
	roster := []domain.Employee{
		{EmployeeID: 1, Name: "A", GridPosition: 0},
		{EmployeeID: 2, Name: "B", GridPosition: 10},
		{EmployeeID: 3, Name: "C", GridPosition: 9},
	}

	stats := service.Distribution(roster, false)
	if stats.Total != 1 {
		t.Errorf("out-of-range positions must not count, got total %d", stats.Total)
	}
	if stats.Distribution[8].Count != 1 || stats.Distribution[8].Percentage != 100.0 {
		t.Errorf("expected cell 9 to hold 100%%, got %+v", stats.Distribution[8])
	}
}

func TestDistribution_DonutModeEffectivePosition(t *testing.T) {
	// grid_position=5, donut_position=9: режим решает, какая позиция эффективна
	modified := domain.Employee{
		EmployeeID: 1, Name: "A",
		GridPosition: 5, DonutPosition: intPtr(9), DonutModified: true,
	}
	untouched := domain.Employee{
		EmployeeID: 2, Name: "B",
		GridPosition: 5, DonutPosition: intPtr(9), DonutModified: false,
	}

	normal := service.Distribution([]domain.Employee{modified, untouched}, false)
	if normal.Distribution[4].Count != 2 {
		t.Errorf("normal mode ignores donut fields, expected both in cell 5, got %+v", normal.Distribution[4])
	}

	donut := service.Distribution([]domain.Employee{modified, untouched}, true)
	if donut.Distribution[8].Count != 1 {
		t.Errorf("donut mode must place the modified employee in cell 9, got %+v", donut.Distribution[8])
	}
	// Без donut_modified — откат к grid_position даже при заполненном donut_position
	if donut.Distribution[4].Count != 1 {
		t.Errorf("unmodified employee must fall back to cell 5, got %+v", donut.Distribution[4])
	}
}

func TestDistribution_ModeSpecificModifiedCounters(t *testing.T) {
	roster := []domain.Employee{
		{EmployeeID: 1, Name: "A", GridPosition: 1, ModifiedInSession: true},
		{EmployeeID: 2, Name: "B", GridPosition: 2, DonutPosition: intPtr(3), DonutModified: true},
		{EmployeeID: 3, Name: "C", GridPosition: 3},
	}

	normal := service.Distribution(roster, false)
	if normal.ModifiedEmployees != 1 {
		t.Errorf("normal mode counts session modifications, expected 1, got %d", normal.ModifiedEmployees)
	}

	donut := service.Distribution(roster, true)
	if donut.ModifiedEmployees != 1 {
		t.Errorf("donut mode counts donut modifications, expected 1, got %d", donut.ModifiedEmployees)
	}
}
