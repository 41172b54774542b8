package profile

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

// Repository: 프로필 영속화 계층. List 는 생성 순서를 유지한다.
// Get/Update/Delete 는 대상이 없으면 errors.ErrNotFound 를 반환한다.
type Repository interface {
	List(ctx context.Context) ([]*domain.Profile, error)
	Get(ctx context.Context, id string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
	Update(ctx context.Context, p *domain.Profile) error
	Delete(ctx context.Context, id string) error
}

// Model: card_profiles 테이블 매핑. 검색/집계용 컬럼 외 나머지는 data(JSON)에 둔다.
type Model struct {
	Seq          int64          `gorm:"primaryKey;autoIncrement;column:seq"`
	ID           string         `gorm:"column:id;size:64;uniqueIndex"`
	Name         string         `gorm:"column:name;size:255"`
	Slug         string         `gorm:"column:slug;size:255;index"`
	Status       string         `gorm:"column:status;size:32"`
	Visits       int64          `gorm:"column:visits"`
	Interactions int64          `gorm:"column:interactions"`
	LastActive   string         `gorm:"column:last_active;size:10"`
	Data         datatypes.JSON `gorm:"column:data"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
}

// TableName: "card_profiles"
func (Model) TableName() string {
	return "card_profiles"
}

func toModel(p *domain.Profile) (*Model, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile %s: %w", p.ID, err)
	}
	return &Model{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Status:       string(p.Status),
		Visits:       p.Visits,
		Interactions: p.Interactions,
		LastActive:   p.LastActive,
		Data:         datatypes.JSON(data),
	}, nil
}

func (m *Model) toDomain() (*domain.Profile, error) {
	var p domain.Profile
	if err := json.Unmarshal(m.Data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile %s: %w", m.ID, err)
	}
	// 컬럼 값이 우선한다.
	p.ID = m.ID
	p.Name = m.Name
	p.Slug = m.Slug
	p.Status = domain.ProfileStatus(m.Status)
	p.Visits = m.Visits
	p.Interactions = m.Interactions
	p.LastActive = m.LastActive
	return &p, nil
}

// GormRepository: PostgreSQL/SQLite 공용 gorm 저장소
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository 는 gorm 저장소를 만든다. AutoMigrate 를 따로 호출해야 한다.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// AutoMigrate: 테이블 스키마 마이그레이션
func (r *GormRepository) AutoMigrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}
	if err := r.db.WithContext(ctx).AutoMigrate(&Model{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func (r *GormRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	var rows []Model
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	out := make([]*domain.Profile, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	var row Model
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return row.toDomain()
}

func (r *GormRepository) Create(ctx context.Context, p *domain.Profile) error {
	row, err := toModel(p)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create profile %s: %w", p.ID, err)
	}
	return nil
}

func (r *GormRepository) Update(ctx context.Context, p *domain.Profile) error {
	row, err := toModel(p)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&Model{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":         row.Name,
		"slug":         row.Slug,
		"status":       row.Status,
		"visits":       row.Visits,
		"interactions": row.Interactions,
		"last_active":  row.LastActive,
		"data":         row.Data,
		"updated_at":   time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update profile %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Model{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete profile %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
