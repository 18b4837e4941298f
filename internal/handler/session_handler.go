package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/talent-grid-api/internal/domain"
	"github.com/talent-grid-api/internal/dto"
	"github.com/talent-grid-api/internal/service"
)

type SessionHandler struct {
	rosterService    service.RosterService
	searchService    service.SearchService
	hierarchyService service.HierarchyService
	validator        *validator.Validate
	logger           *slog.Logger
}

func NewSessionHandler(
	rosterService service.RosterService,
	searchService service.SearchService,
	hierarchyService service.HierarchyService,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		rosterService:    rosterService,
		searchService:    searchService,
		hierarchyService: hierarchyService,
		validator:        validator.New(),
		logger:           logger,
	}
}

// CreateSession загружает ростер и создаёт сессию калибровки
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	session, count, err := h.rosterService.CreateSession(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, dto.CreateSessionResponse{
		SessionID:     session.ID,
		EmployeeCount: count,
	})
}

// GetEmployees возвращает полный ростер сессии в порядке загрузки
func (h *SessionHandler) GetEmployees(w http.ResponseWriter, r *http.Request, sessionID string) {
	_, employees, err := h.rosterService.Directory(r.Context(), sessionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.FilterResponse{
		Employees: h.toEmployeeResponses(employees),
		Options:   h.toOptionsResponse(service.AvailableOptions(employees)),
		Total:     len(employees),
	})
}

// FilterEmployees применяет состояние фильтров и возвращает сотрудников
// вместе с опциями, выведенными из отфильтрованного множества
func (h *SessionHandler) FilterEmployees(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req dto.FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	_, employees, err := h.rosterService.Directory(r.Context(), sessionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	filtered := service.ApplyFilters(employees, toFilterState(&req))
	h.respondJSON(w, http.StatusOK, dto.FilterResponse{
		Employees: h.toEmployeeResponses(filtered),
		Options:   h.toOptionsResponse(service.AvailableOptions(filtered)),
		Total:     len(filtered),
	})
}

// Search выполняет нечёткий поиск по (опционально отфильтрованному) ростеру
func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req dto.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	session, employees, err := h.rosterService.Directory(r.Context(), sessionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if req.Filter != nil {
		employees = service.ApplyFilters(employees, toFilterState(req.Filter))
	}

	results, err := h.searchService.Search(r.Context(), session, employees, req.Filter, req.Query)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := dto.SearchResponse{Results: make([]dto.SearchResultItem, 0, len(results))}
	for _, result := range results {
		item := dto.SearchResultItem{
			Employee: h.toEmployeeResponse(&result.Employee),
			Matches:  make([]dto.FieldMatchItem, 0, len(result.Matches)),
		}
		for _, match := range result.Matches {
			fieldMatch := dto.FieldMatchItem{Key: match.Key}
			for _, rng := range match.Indices {
				fieldMatch.Indices = append(fieldMatch.Indices, dto.MatchRangeItem{Start: rng.Start, End: rng.End})
			}
			item.Matches = append(item.Matches, fieldMatch)
		}
		resp.Results = append(resp.Results, item)
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// Statistics считает распределение по ячейкам. Пустое рассматриваемое
// множество отдаёт 204 — это не то же самое, что девять нулевых ячеек
func (h *SessionHandler) Statistics(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req dto.StatisticsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	_, employees, err := h.rosterService.Directory(r.Context(), sessionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if req.Filter != nil {
		employees = service.ApplyFilters(employees, toFilterState(req.Filter))
	}

	stats := service.Distribution(employees, req.DonutMode)
	if stats == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := dto.StatisticsResponse{
		Total:             stats.Total,
		ModifiedEmployees: stats.ModifiedEmployees,
		Distribution:      make([]dto.DistributionItem, 0, len(stats.Distribution)),
	}
	for _, cell := range stats.Distribution {
		resp.Distribution = append(resp.Distribution, dto.DistributionItem{
			GridPosition: cell.GridPosition,
			Count:        cell.Count,
			Percentage:   cell.Percentage,
		})
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// UpdateEmployee применяет перемещение по сетке или заметку
func (h *SessionHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request, sessionID string, employeeID int64) {
	var req dto.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	emp, err := h.rosterService.UpdateEmployee(r.Context(), sessionID, employeeID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.toEmployeeResponse(emp))
}

// GetManagers возвращает список менеджеров с пометкой источника
func (h *SessionHandler) GetManagers(w http.ResponseWriter, r *http.Request, sessionID string, minTeamSize int) {
	if err := h.ensureSession(r, sessionID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	list, err := h.hierarchyService.Managers(r.Context(), sessionID, minTeamSize)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := dto.ManagersResponse{
		Managers: make([]dto.ManagerItem, 0, len(list.Managers)),
		Source:   string(list.Source),
	}
	for _, m := range list.Managers {
		resp.Managers = append(resp.Managers, dto.ManagerItem{
			EmployeeID: m.EmployeeID,
			Name:       m.Name,
			TeamSize:   m.TeamSize,
		})
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetOrgTree возвращает дерево подчинения с пометкой доступности
func (h *SessionHandler) GetOrgTree(w http.ResponseWriter, r *http.Request, sessionID string, minTeamSize int) {
	if err := h.ensureSession(r, sessionID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	tree, err := h.hierarchyService.OrgTree(r.Context(), sessionID, minTeamSize)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.OrgTreeResponse{
		Roots:     toOrgTreeItems(tree.Roots),
		Available: tree.Available,
	})
}

// GetReports возвращает id всех подчинённых менеджера
func (h *SessionHandler) GetReports(w http.ResponseWriter, r *http.Request, sessionID string, employeeID int64) {
	if err := h.ensureSession(r, sessionID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	ids, err := h.hierarchyService.AllReportIDs(r.Context(), sessionID, employeeID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ReportsResponse{ReportIDs: ids})
}

// GetChain возвращает упорядоченную цепочку руководителей сотрудника
func (h *SessionHandler) GetChain(w http.ResponseWriter, r *http.Request, sessionID string, employeeID int64) {
	if err := h.ensureSession(r, sessionID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	chain, err := h.hierarchyService.ReportingChain(r.Context(), sessionID, employeeID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ChainResponse{Chain: chain})
}

func (h *SessionHandler) ensureSession(r *http.Request, sessionID string) error {
	_, _, err := h.rosterService.Directory(r.Context(), sessionID)
	return err
}

// toFilterState переводит DTO фильтра во внутреннее состояние с множествами
func toFilterState(req *dto.FilterRequest) *domain.FilterState {
	state := domain.NewFilterState()
	if req == nil {
		return state
	}

	for _, level := range req.Levels {
		state.Levels[level] = struct{}{}
	}
	for _, fn := range req.JobFunctions {
		state.JobFunctions[fn] = struct{}{}
	}
	for _, loc := range req.Locations {
		state.Locations[loc] = struct{}{}
	}
	for _, flag := range req.Flags {
		state.Flags[flag] = struct{}{}
	}
	for _, id := range req.ExcludedEmployeeIDs {
		state.ExcludedEmployeeIDs[id] = struct{}{}
	}

	for _, m := range req.Managers {
		selection := domain.ManagerSelection{
			EmployeeID: m.EmployeeID,
			Name:       m.Name,
			MemberIDs:  make(map[int64]struct{}, len(m.MemberIDs)),
		}
		for _, id := range m.MemberIDs {
			selection.MemberIDs[id] = struct{}{}
		}
		state.Managers = append(state.Managers, selection)
	}

	if req.ReportingChain != nil {
		rc := &domain.ReportingChainFilter{
			Name:      req.ReportingChain.Name,
			MemberIDs: make(map[int64]struct{}, len(req.ReportingChain.MemberIDs)),
		}
		for _, id := range req.ReportingChain.MemberIDs {
			rc.MemberIDs[id] = struct{}{}
		}
		state.ReportingChain = rc
	}

	return state
}

func (h *SessionHandler) toEmployeeResponses(employees []domain.Employee) []dto.EmployeeResponse {
	responses := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		responses = append(responses, h.toEmployeeResponse(&employees[i]))
	}
	return responses
}

func (h *SessionHandler) toEmployeeResponse(emp *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		EmployeeID:        emp.EmployeeID,
		Name:              emp.Name,
		BusinessTitle:     emp.BusinessTitle,
		JobLevel:          emp.JobLevel,
		JobFunction:       emp.JobFunction,
		Location:          emp.Location,
		Region:            service.RegionForCode(emp.Location),
		Manager:           emp.Manager,
		ManagementChain:   emp.ManagementChain,
		GridPosition:      emp.GridPosition,
		DonutPosition:     emp.DonutPosition,
		DonutModified:     emp.DonutModified,
		ModifiedInSession: emp.ModifiedInSession,
		Flags:             emp.Flags,
		Notes:             emp.Notes,
	}
}

func (h *SessionHandler) toOptionsResponse(options domain.FilterOptions) dto.OptionsResponse {
	resp := dto.OptionsResponse{
		Levels:       options.Levels,
		JobFunctions: options.JobFunctions,
		Locations:    options.Locations,
		Managers:     options.Managers,
		Flags:        make([]dto.FlagCountItem, 0, len(options.Flags)),
	}
	for _, fc := range options.Flags {
		resp.Flags = append(resp.Flags, dto.FlagCountItem{Flag: fc.Flag, Count: fc.Count})
	}
	return resp
}

func toOrgTreeItems(nodes []domain.OrgTreeNode) []dto.OrgTreeNodeItem {
	items := make([]dto.OrgTreeNodeItem, 0, len(nodes))
	for _, node := range nodes {
		items = append(items, dto.OrgTreeNodeItem{
			EmployeeID:    node.EmployeeID,
			Name:          node.Name,
			JobTitle:      node.JobTitle,
			TeamSize:      node.TeamSize,
			DirectReports: toOrgTreeItems(node.DirectReports),
		})
	}
	return items
}

func (h *SessionHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		h.respondError(w, http.StatusNotFound, "session not found", "")
	case errors.Is(err, domain.ErrEmployeeNotFound):
		h.respondError(w, http.StatusNotFound, "employee not found", "")
	case errors.Is(err, domain.ErrEmptyRoster):
		h.respondError(w, http.StatusBadRequest, "roster must contain at least one employee", "")
	case errors.Is(err, domain.ErrDuplicateEmployeeID):
		h.respondError(w, http.StatusBadRequest, "roster contains duplicate employee ids", "")
	case errors.Is(err, domain.ErrInvalidGridPosition):
		h.respondError(w, http.StatusBadRequest, "grid position must be between 1 and 9", "")
	case errors.Is(err, domain.ErrSearchUnavailable):
		h.respondError(w, http.StatusServiceUnavailable, "search unavailable", err.Error())
	case errors.Is(err, domain.ErrOrgServiceUnavailable):
		h.respondError(w, http.StatusBadGateway, "org hierarchy service unavailable", "")
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func (h *SessionHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *SessionHandler) respondError(w http.ResponseWriter, status int, errMsg, details string) {
	w.WriteHeader(status)
	resp := dto.ErrorResponse{Error: errMsg}
	if details != "" {
		resp.Message = details
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response", slog.Any("error", err))
	}
}
