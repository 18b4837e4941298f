package service

import (
	"math"

	"github.com/talent-grid-api/internal/domain"
)

// Distribution считает распределение по ячейкам сетки 1..9.
// Эффективная позиция зависит от режима: в обычном — всегда grid_position
// (donut-поля игнорируются, даже если заполнены); в donut-режиме —
// donut_position при donut_modified=true, иначе откат к grid_position.
// Позиции вне 1..9 исключаются из распределения без ошибки.
// Пустой вход даёт nil: «нечего показывать» отличимо от девяти пустых ячеек
func Distribution(employees []domain.Employee, donutModeActive bool) *domain.Statistics {
	if len(employees) == 0 {
		return nil
	}

	counts := make(map[int]int, 9)
	considered := 0
	modified := 0

	for _, emp := range employees {
		if donutModeActive {
			if emp.DonutModified {
				modified++
			}
		} else if emp.ModifiedInSession {
			modified++
		}

		position := effectivePosition(&emp, donutModeActive)
		if position < 1 || position > 9 {
			continue
		}
		counts[position]++
		considered++
	}

	stats := &domain.Statistics{
		Total:             considered,
		ModifiedEmployees: modified,
		Distribution:      make([]domain.GridCell, 0, 9),
	}

	// Все девять ячеек присутствуют всегда, в том числе с нулевым счётчиком
	for position := 1; position <= 9; position++ {
		count := counts[position]
		percentage := 0.0
		if considered > 0 {
			percentage = math.Round(100*float64(count)/float64(considered)*10) / 10
		}
		stats.Distribution = append(stats.Distribution, domain.GridCell{
			GridPosition: position,
			Count:        count,
			Percentage:   percentage,
		})
	}

	return stats
}

func effectivePosition(emp *domain.Employee, donutModeActive bool) int {
	if donutModeActive && emp.DonutModified && emp.DonutPosition != nil {
		return *emp.DonutPosition
	}
	return emp.GridPosition
}
