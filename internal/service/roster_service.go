package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/talent-grid-api/internal/domain"
	"github.com/talent-grid-api/internal/dto"
	"github.com/talent-grid-api/internal/repository"
)

// RosterService определяет интерфейс жизненного цикла ростера
type RosterService interface {
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*domain.Session, int, error)
	Directory(ctx context.Context, sessionID string) (*domain.Session, []domain.Employee, error)
	UpdateEmployee(ctx context.Context, sessionID string, employeeID int64, req *dto.UpdateEmployeeRequest) (*domain.Employee, error)
}

type rosterService struct {
	sessionRepo repository.SessionRepository
	empRepo     repository.EmployeeRepository
}

// NewRosterService создаёт новый экземпляр сервиса
func NewRosterService(sessionRepo repository.SessionRepository, empRepo repository.EmployeeRepository) RosterService {
	return &rosterService{
		sessionRepo: sessionRepo,
		empRepo:     empRepo,
	}
}

// CreateSession загружает ростер в новую сессию. Позиции вне 1..9 допустимы —
// такие строки просто не попадают в распределение. Дубликаты employee_id
// внутри одного ростера отклоняются
func (s *rosterService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*domain.Session, int, error) {
	if len(req.Employees) == 0 {
		return nil, 0, domain.ErrEmptyRoster
	}

	seen := make(map[int64]struct{}, len(req.Employees))
	for _, emp := range req.Employees {
		if _, dup := seen[emp.EmployeeID]; dup {
			return nil, 0, domain.ErrDuplicateEmployeeID
		}
		seen[emp.EmployeeID] = struct{}{}
	}

	session := &domain.Session{
		ID:            uuid.NewString(),
		RosterVersion: 1,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, 0, err
	}

	employees := make([]domain.Employee, 0, len(req.Employees))
	for _, imp := range req.Employees {
		employees = append(employees, domain.Employee{
			SessionID:       session.ID,
			EmployeeID:      imp.EmployeeID,
			Name:            strings.TrimSpace(imp.Name),
			BusinessTitle:   strings.TrimSpace(imp.BusinessTitle),
			JobLevel:        strings.TrimSpace(imp.JobLevel),
			JobFunction:     trimOptional(imp.JobFunction),
			Location:        strings.TrimSpace(imp.Location),
			Manager:         trimOptional(imp.Manager),
			ManagementChain: imp.ManagementChain,
			GridPosition:    imp.GridPosition,
			DonutPosition:   imp.DonutPosition,
			Flags:           imp.Flags,
		})
	}

	if err := s.empRepo.BulkCreate(ctx, employees); err != nil {
		return nil, 0, err
	}

	return session, len(employees), nil
}

func (s *rosterService) Directory(ctx context.Context, sessionID string) (*domain.Session, []domain.Employee, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	employees, err := s.empRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	return session, employees, nil
}

// UpdateEmployee применяет перемещение по сетке или заметку. В обычном режиме
// меняется grid_position и взводится modified_in_session; в donut-режиме —
// donut_position и donut_modified. Счётчики режимов не смешиваются
func (s *rosterService) UpdateEmployee(ctx context.Context, sessionID string, employeeID int64, req *dto.UpdateEmployeeRequest) (*domain.Employee, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}

	emp, err := s.empRepo.GetByEmployeeID(ctx, sessionID, employeeID)
	if err != nil {
		return nil, err
	}

	if req.GridPosition != nil {
		position := *req.GridPosition
		if position < 1 || position > 9 {
			return nil, domain.ErrInvalidGridPosition
		}
		if req.DonutMode {
			emp.DonutPosition = &position
			emp.DonutModified = true
		} else {
			emp.GridPosition = position
			emp.ModifiedInSession = true
		}
	}

	if req.Notes != nil {
		emp.Notes = *req.Notes
	}

	if err := s.empRepo.Update(ctx, emp); err != nil {
		return nil, err
	}

	// Версия ростера участвует в ключе мемоизации поиска: любое изменение
	// должно инвалидировать индекс
	if err := s.sessionRepo.BumpRosterVersion(ctx, sessionID); err != nil {
		return nil, err
	}

	return emp, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
