package repository

import (
	"context"

	"github.com/talent-grid-api/internal/domain"
	"gorm.io/gorm"
)

// SessionRepository определяет интерфейс для работы с сессиями калибровки
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	BumpRosterVersion(ctx context.Context, id string) error
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository создаёт новый экземпляр репозитория
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// BumpRosterVersion инкрементирует версию ростера. Версия участвует в ключе
// мемоизации поискового индекса: любое изменение ростера его инвалидирует
func (r *sessionRepository) BumpRosterVersion(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Update("roster_version", gorm.Expr("roster_version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
