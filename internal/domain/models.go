package domain

import (
	"time"
)

// Session представляет одну сессию калибровки: ростер загружается один раз
// и дальше мутируется только перемещениями по сетке
type Session struct {
	ID            string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	RosterVersion int64     `json:"roster_version" gorm:"not null;default:1"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Session) TableName() string {
	return "sessions"
}

// Employee представляет одну строку ростера.
// Поля Manager, JobFunction, DonutPosition и Flags могут отсутствовать —
// ростер приходит из неконтролируемого импорта, отсутствие значения не ошибка
type Employee struct {
	ID                int64    `json:"-" gorm:"primaryKey;autoIncrement"`
	SessionID         string   `json:"-" gorm:"type:varchar(36);not null;index:idx_session_employee,unique"`
	EmployeeID        int64    `json:"employee_id" gorm:"not null;index:idx_session_employee,unique"`
	Name              string   `json:"name" gorm:"type:varchar(200);not null"`
	BusinessTitle     string   `json:"business_title" gorm:"type:varchar(200)"`
	JobLevel          string   `json:"job_level" gorm:"type:varchar(100)"`
	JobFunction       *string  `json:"job_function" gorm:"type:varchar(200)"`
	Location          string   `json:"location" gorm:"type:varchar(10)"`
	Manager           *string  `json:"manager" gorm:"type:varchar(200)"`
	ManagementChain   []string `json:"management_chain" gorm:"serializer:json;type:text"`
	GridPosition      int      `json:"grid_position" gorm:"not null"`
	DonutPosition     *int     `json:"donut_position"`
	DonutModified     bool     `json:"donut_modified" gorm:"not null;default:false"`
	ModifiedInSession bool     `json:"modified_in_session" gorm:"not null;default:false"`
	Flags             []string `json:"flags" gorm:"serializer:json;type:text"`
	Notes             string   `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"-" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"-" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Employee) TableName() string {
	return "employees"
}

// ManagerName возвращает имя менеджера или пустую строку, если менеджера нет
func (e *Employee) ManagerName() string {
	if e.Manager == nil {
		return ""
	}
	return *e.Manager
}

// ManagerSelection — выбранный в фильтре менеджер вместе с предвычисленным
// множеством id его подчинённых. Сравнение идёт по id, а не по имени:
// совпадающие имена менеджеров не должны давать ложные срабатывания
type ManagerSelection struct {
	EmployeeID int64
	Name       string
	MemberIDs  map[int64]struct{}
}

// ReportingChainFilter — фильтр по цепочке подчинения: одно имя менеджера
// плюс множество id, поставляемое резолвером иерархии (или синтезированное
// из плоского ростера). Множество хранится в состоянии фильтра, чтобы не
// пересчитывать его на каждое нажатие клавиши
type ReportingChainFilter struct {
	Name      string
	MemberIDs map[int64]struct{}
}

// FilterState — активный набор фильтров. Владеет им вызывающая сторона,
// движок фильтрации только читает
type FilterState struct {
	Levels              map[string]struct{}
	JobFunctions        map[string]struct{}
	Locations           map[string]struct{}
	Managers            []ManagerSelection
	ReportingChain      *ReportingChainFilter
	Flags               map[string]struct{}
	ExcludedEmployeeIDs map[int64]struct{}
}

// NewFilterState создаёт пустое состояние фильтров
func NewFilterState() *FilterState {
	return &FilterState{
		Levels:              make(map[string]struct{}),
		JobFunctions:        make(map[string]struct{}),
		Locations:           make(map[string]struct{}),
		Flags:               make(map[string]struct{}),
		ExcludedEmployeeIDs: make(map[int64]struct{}),
	}
}

// FlagCount — флаг вместе с числом сотрудников, у которых он выставлен
type FlagCount struct {
	Flag  string `json:"flag"`
	Count int    `json:"count"`
}

// FilterOptions — множества значений, доступных для выбора в тулбаре.
// Levels и Managers отсортированы, JobFunctions и Locations идут в порядке
// первого появления
type FilterOptions struct {
	Levels       []string    `json:"levels"`
	JobFunctions []string    `json:"job_functions"`
	Locations    []string    `json:"locations"`
	Managers     []string    `json:"managers"`
	Flags        []FlagCount `json:"flags"`
}

// ManagerInfo описывает менеджера в списке опций фильтра.
// Отрицательные id — синтетические, появляются только при деградированной
// реконструкции из плоского ростера и не пересекаются с настоящими id
type ManagerInfo struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	TeamSize   int    `json:"team_size"`
}

// ManagerSource — источник списка менеджеров: авторитетный сервис
// или реконструкция из плоского ростера
type ManagerSource string

const (
	ManagerSourceService   ManagerSource = "service"
	ManagerSourceDirectory ManagerSource = "directory"
)

// ManagerList — список менеджеров с пометкой происхождения, чтобы вызывающий
// код отличал «авторитетный, возможно пустой» от «как смогли из плоского списка»
type ManagerList struct {
	Managers []ManagerInfo `json:"managers"`
	Source   ManagerSource `json:"source"`
}

// OrgTreeNode — узел дерева подчинения. В нормальных данных узел не бывает
// собственным потомком, но обход обязан переживать и такие данные
type OrgTreeNode struct {
	EmployeeID    int64         `json:"employee_id"`
	Name          string        `json:"name"`
	JobTitle      string        `json:"job_title"`
	TeamSize      int           `json:"team_size"`
	DirectReports []OrgTreeNode `json:"direct_reports"`
}

// OrgTreeResult — дерево подчинения с пометкой доступности: пустое дерево при
// Available=false значит «глубина иерархии недоступна», а не «подчинённых нет»
type OrgTreeResult struct {
	Roots     []OrgTreeNode `json:"roots"`
	Available bool          `json:"available"`
}

// MatchRange — включительный диапазон символов совпадения внутри значения поля
type MatchRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FieldMatch — совпадения запроса в одном поле, используются только для подсветки
type FieldMatch struct {
	Key     string       `json:"key"`
	Indices []MatchRange `json:"indices"`
}

// SearchResult — один результат нечёткого поиска
type SearchResult struct {
	Employee Employee     `json:"employee"`
	Score    float64      `json:"score"`
	Matches  []FieldMatch `json:"matches"`
}

// GridCell — распределение по одной ячейке сетки 1..9
type GridCell struct {
	GridPosition int     `json:"grid_position"`
	Count        int     `json:"count"`
	Percentage   float64 `json:"percentage"`
}

// Statistics — распределение по ячейкам плюс счётчик изменённых сотрудников.
// Счётчик зависит от режима: в обычном считаются modified_in_session,
// в donut-режиме — donut_modified
type Statistics struct {
	Total             int        `json:"total"`
	ModifiedEmployees int        `json:"modified_employees"`
	Distribution      []GridCell `json:"distribution"`
}
