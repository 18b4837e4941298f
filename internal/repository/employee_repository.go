package repository

import (
	"context"

	"github.com/talent-grid-api/internal/domain"
	"gorm.io/gorm"
)

// EmployeeRepository определяет интерфейс для работы с ростером
type EmployeeRepository interface {
	BulkCreate(ctx context.Context, employees []domain.Employee) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Employee, error)
	GetByEmployeeID(ctx context.Context, sessionID string, employeeID int64) (*domain.Employee, error)
	Update(ctx context.Context, emp *domain.Employee) error
}

type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository создаёт новый экземпляр репозитория
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) BulkCreate(ctx context.Context, employees []domain.Employee) error {
	if len(employees) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(employees, 500).Error
}

// ListBySession возвращает ростер в порядке вставки
func (r *employeeRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepository) GetByEmployeeID(ctx context.Context, sessionID string, employeeID int64) (*domain.Employee, error) {
	var emp domain.Employee
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND employee_id = ?", sessionID, employeeID).
		First(&emp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepository) Update(ctx context.Context, emp *domain.Employee) error {
	return r.db.WithContext(ctx).Save(emp).Error
}
