package dto

// ImportEmployee - одна строка ростера в запросе на создание сессии.
// Поля за пределами обязательного минимума могут отсутствовать: ростер
// приходит из импорта таблицы и движок обязан это переживать
type ImportEmployee struct {
	EmployeeID      int64    `json:"employee_id" validate:"required,min=1"`
	Name            string   `json:"name" validate:"required,min=1,max=200"`
	BusinessTitle   string   `json:"business_title" validate:"max=200"`
	JobLevel        string   `json:"job_level" validate:"max=100"`
	JobFunction     *string  `json:"job_function" validate:"omitempty,max=200"`
	Location        string   `json:"location" validate:"max=10"`
	Manager         *string  `json:"manager" validate:"omitempty,max=200"`
	ManagementChain []string `json:"management_chain" validate:"max=6"`
	GridPosition    int      `json:"grid_position"`
	DonutPosition   *int     `json:"donut_position"`
	Flags           []string `json:"flags"`
}

// CreateSessionRequest - запрос на загрузку ростера
type CreateSessionRequest struct {
	Employees []ImportEmployee `json:"employees" validate:"required,min=1,dive"`
}

// CreateSessionResponse - ответ с идентификатором созданной сессии
type CreateSessionResponse struct {
	SessionID     string `json:"session_id"`
	EmployeeCount int    `json:"employee_count"`
}

// ManagerFilter - выбранный менеджер с множеством id его подчинённых
type ManagerFilter struct {
	EmployeeID int64   `json:"employee_id" validate:"required"`
	Name       string  `json:"name" validate:"required,min=1,max=200"`
	MemberIDs  []int64 `json:"member_ids"`
}

// ReportingChainFilter - фильтр по цепочке подчинения
type ReportingChainFilter struct {
	Name      string  `json:"name" validate:"required,min=1,max=200"`
	MemberIDs []int64 `json:"member_ids"`
}

// FilterRequest - сериализованное состояние фильтров
type FilterRequest struct {
	Levels              []string              `json:"levels"`
	JobFunctions        []string              `json:"job_functions"`
	Locations           []string              `json:"locations"`
	Managers            []ManagerFilter       `json:"managers" validate:"dive"`
	ReportingChain      *ReportingChainFilter `json:"reporting_chain" validate:"omitempty"`
	Flags               []string              `json:"flags"`
	ExcludedEmployeeIDs []int64               `json:"excluded_employee_ids"`
}

// FilterResponse - отфильтрованный ростер плюс доступные опции тулбара
type FilterResponse struct {
	Employees []EmployeeResponse `json:"employees"`
	Options   OptionsResponse    `json:"options"`
	Total     int                `json:"total"`
}

// OptionsResponse - значения, доступные для выбора в фильтрах
type OptionsResponse struct {
	Levels       []string        `json:"levels"`
	JobFunctions []string        `json:"job_functions"`
	Locations    []string        `json:"locations"`
	Managers     []string        `json:"managers"`
	Flags        []FlagCountItem `json:"flags"`
}

// FlagCountItem - флаг с числом вхождений
type FlagCountItem struct {
	Flag  string `json:"flag"`
	Count int    `json:"count"`
}

// SearchRequest - запрос нечёткого поиска. Фильтр применяется до поиска
type SearchRequest struct {
	Query  string         `json:"query"`
	Filter *FilterRequest `json:"filter" validate:"omitempty"`
}

// MatchRangeItem - включительный диапазон символов для подсветки
type MatchRangeItem struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FieldMatchItem - совпадения в одном поле
type FieldMatchItem struct {
	Key     string           `json:"key"`
	Indices []MatchRangeItem `json:"indices"`
}

// SearchResultItem - один результат поиска
type SearchResultItem struct {
	Employee EmployeeResponse `json:"employee"`
	Matches  []FieldMatchItem `json:"matches"`
}

// SearchResponse - ранжированный список результатов
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
}

// StatisticsRequest - запрос распределения по ячейкам сетки
type StatisticsRequest struct {
	Filter    *FilterRequest `json:"filter" validate:"omitempty"`
	DonutMode bool           `json:"donut_mode"`
}

// StatisticsResponse - распределение по ячейкам 1..9
type StatisticsResponse struct {
	Total             int                `json:"total"`
	ModifiedEmployees int                `json:"modified_employees"`
	Distribution      []DistributionItem `json:"distribution"`
}

// DistributionItem - счётчик и процент одной ячейки
type DistributionItem struct {
	GridPosition int     `json:"grid_position"`
	Count        int     `json:"count"`
	Percentage   float64 `json:"percentage"`
}

// UpdateEmployeeRequest - перемещение по сетке или заметка.
// DonutMode управляет тем, какая позиция и какой счётчик меняются
type UpdateEmployeeRequest struct {
	GridPosition *int    `json:"grid_position" validate:"omitempty,min=1,max=9"`
	DonutMode    bool    `json:"donut_mode"`
	Notes        *string `json:"notes" validate:"omitempty,max=4000"`
}

// EmployeeResponse - ответ с данными сотрудника
type EmployeeResponse struct {
	EmployeeID        int64    `json:"employee_id"`
	Name              string   `json:"name"`
	BusinessTitle     string   `json:"business_title"`
	JobLevel          string   `json:"job_level"`
	JobFunction       *string  `json:"job_function"`
	Location          string   `json:"location"`
	Region            string   `json:"region"`
	Manager           *string  `json:"manager"`
	ManagementChain   []string `json:"management_chain"`
	GridPosition      int      `json:"grid_position"`
	DonutPosition     *int     `json:"donut_position,omitempty"`
	DonutModified     bool     `json:"donut_modified"`
	ModifiedInSession bool     `json:"modified_in_session"`
	Flags             []string `json:"flags,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// ManagersResponse - список менеджеров с пометкой источника
type ManagersResponse struct {
	Managers []ManagerItem `json:"managers"`
	Source   string        `json:"source"`
}

// ManagerItem - один менеджер в списке опций
type ManagerItem struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	TeamSize   int    `json:"team_size"`
}

// OrgTreeResponse - дерево подчинения с пометкой доступности
type OrgTreeResponse struct {
	Roots     []OrgTreeNodeItem `json:"roots"`
	Available bool              `json:"available"`
}

// OrgTreeNodeItem - узел дерева в ответе
type OrgTreeNodeItem struct {
	EmployeeID    int64             `json:"employee_id"`
	Name          string            `json:"name"`
	JobTitle      string            `json:"job_title"`
	TeamSize      int               `json:"team_size"`
	DirectReports []OrgTreeNodeItem `json:"direct_reports,omitempty"`
}

// ReportsResponse - id всех подчинённых менеджера
type ReportsResponse struct {
	ReportIDs []int64 `json:"report_ids"`
}

// ChainResponse - упорядоченная цепочка руководителей сотрудника
type ChainResponse struct {
	Chain []string `json:"chain"`
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
