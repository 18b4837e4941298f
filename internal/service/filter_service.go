package service

import (
	"sort"
	"strings"

	"github.com/talent-grid-api/internal/domain"
)

// ApplyFilters применяет состояние фильтров к ростеру. Чистая функция от
// (employees, state): активные измерения сужают множество и комбинируются
// по AND. Повторное применение того же состояния ничего не меняет.
// Некорректные записи (пустые поля, отсутствующие значения) не считаются
// ошибкой — они просто не проходят соответствующее измерение
func ApplyFilters(employees []domain.Employee, state *domain.FilterState) []domain.Employee {
	result := make([]domain.Employee, 0, len(employees))
	if state == nil {
		return append(result, employees...)
	}

	for _, emp := range employees {
		if !matchesLevel(&emp, state) {
			continue
		}
		if !matchesJobFunction(&emp, state) {
			continue
		}
		if !matchesLocation(&emp, state) {
			continue
		}
		if !matchesManagers(&emp, state) {
			continue
		}
		if !matchesReportingChain(&emp, state) {
			continue
		}
		if !matchesFlags(&emp, state) {
			continue
		}
		// Исключения применяются последними и перекрывают любые совпадения
		if _, excluded := state.ExcludedEmployeeIDs[emp.EmployeeID]; excluded {
			continue
		}
		result = append(result, emp)
	}

	return result
}

// LevelCode извлекает короткий код уровня — ведущий токен job_level
// до первого пробела или дефиса (например "MT2" из "MT2 - Senior Engineer").
// Пустой job_level даёт пустой код
func LevelCode(jobLevel string) string {
	trimmed := strings.TrimSpace(jobLevel)
	if trimmed == "" {
		return ""
	}
	end := strings.IndexFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-'
	})
	if end == -1 {
		return trimmed
	}
	return trimmed[:end]
}

func matchesLevel(emp *domain.Employee, state *domain.FilterState) bool {
	if len(state.Levels) == 0 {
		return true
	}
	code := LevelCode(emp.JobLevel)
	if code == "" {
		return false
	}
	_, ok := state.Levels[code]
	return ok
}

func matchesJobFunction(emp *domain.Employee, state *domain.FilterState) bool {
	if len(state.JobFunctions) == 0 {
		return true
	}
	if emp.JobFunction == nil || strings.TrimSpace(*emp.JobFunction) == "" {
		return false
	}
	_, ok := state.JobFunctions[*emp.JobFunction]
	return ok
}

func matchesLocation(emp *domain.Employee, state *domain.FilterState) bool {
	if len(state.Locations) == 0 {
		return true
	}
	region := RegionForCode(emp.Location)
	if region == "" {
		return false
	}
	_, ok := state.Locations[region]
	return ok
}

// matchesManagers сравнивает по множеству id подчинённых, а не по имени:
// у разных менеджеров имена могут совпадать
func matchesManagers(emp *domain.Employee, state *domain.FilterState) bool {
	if len(state.Managers) == 0 {
		return true
	}
	for _, sel := range state.Managers {
		if _, ok := sel.MemberIDs[emp.EmployeeID]; ok {
			return true
		}
	}
	return false
}

// matchesReportingChain: при наличии множества id используется оно; без него
// имя сравнивается без учёта регистра с manager и management_chain[1..6] —
// это синтез из плоского ростера на случай недоступной иерархии
func matchesReportingChain(emp *domain.Employee, state *domain.FilterState) bool {
	rc := state.ReportingChain
	if rc == nil || strings.TrimSpace(rc.Name) == "" {
		return true
	}
	if len(rc.MemberIDs) > 0 {
		_, ok := rc.MemberIDs[emp.EmployeeID]
		return ok
	}

	target := strings.ToLower(strings.TrimSpace(rc.Name))
	if strings.ToLower(strings.TrimSpace(emp.ManagerName())) == target {
		return true
	}
	for _, ancestor := range emp.ManagementChain {
		if strings.ToLower(strings.TrimSpace(ancestor)) == target {
			return true
		}
	}
	return false
}

// matchesFlags: сотрудник должен нести каждый выбранный флаг (AND, не OR).
// Пустой набор флагов у сотрудника проваливает любой выбранный флаг
func matchesFlags(emp *domain.Employee, state *domain.FilterState) bool {
	if len(state.Flags) == 0 {
		return true
	}
	if len(emp.Flags) == 0 {
		return false
	}
	carried := make(map[string]struct{}, len(emp.Flags))
	for _, f := range emp.Flags {
		carried[f] = struct{}{}
	}
	for f := range state.Flags {
		if _, ok := carried[f]; !ok {
			return false
		}
	}
	return true
}

// AvailableOptions собирает значения, доступные для выбора в тулбаре, из
// переданной (уже отфильтрованной или полной) последовательности.
// Пустые и отсутствующие значения в списки не попадают. Уровни и менеджеры
// отсортированы, функции и локации идут в порядке первого появления
func AvailableOptions(employees []domain.Employee) domain.FilterOptions {
	options := domain.FilterOptions{
		Levels:       []string{},
		JobFunctions: []string{},
		Locations:    []string{},
		Managers:     []string{},
		Flags:        []domain.FlagCount{},
	}

	seenLevels := make(map[string]struct{})
	seenFunctions := make(map[string]struct{})
	seenLocations := make(map[string]struct{})
	seenManagers := make(map[string]struct{})
	flagCounts := make(map[string]int)
	flagOrder := []string{}

	for _, emp := range employees {
		if code := LevelCode(emp.JobLevel); code != "" {
			if _, ok := seenLevels[code]; !ok {
				seenLevels[code] = struct{}{}
				options.Levels = append(options.Levels, code)
			}
		}

		if emp.JobFunction != nil {
			if fn := strings.TrimSpace(*emp.JobFunction); fn != "" {
				if _, ok := seenFunctions[fn]; !ok {
					seenFunctions[fn] = struct{}{}
					options.JobFunctions = append(options.JobFunctions, fn)
				}
			}
		}

		if region := RegionForCode(emp.Location); region != "" {
			if _, ok := seenLocations[region]; !ok {
				seenLocations[region] = struct{}{}
				options.Locations = append(options.Locations, region)
			}
		}

		if manager := strings.TrimSpace(emp.ManagerName()); manager != "" {
			if _, ok := seenManagers[manager]; !ok {
				seenManagers[manager] = struct{}{}
				options.Managers = append(options.Managers, manager)
			}
		}

		for _, flag := range emp.Flags {
			flag = strings.TrimSpace(flag)
			if flag == "" {
				continue
			}
			if _, ok := flagCounts[flag]; !ok {
				flagOrder = append(flagOrder, flag)
			}
			flagCounts[flag]++
		}
	}

	sort.Strings(options.Levels)
	sort.Strings(options.Managers)

	for _, flag := range flagOrder {
		options.Flags = append(options.Flags, domain.FlagCount{Flag: flag, Count: flagCounts[flag]})
	}
	sort.Slice(options.Flags, func(i, j int) bool {
		if options.Flags[i].Count != options.Flags[j].Count {
			return options.Flags[i].Count > options.Flags[j].Count
		}
		return options.Flags[i].Flag < options.Flags[j].Flag
	})

	return options
}
