package service

import (
	"context"
	"errors"

	"github.com/sst-resolve/resolve-bot/internal/errs"
	"github.com/sst-resolve/resolve-bot/internal/model"
	"gorm.io/gorm"
)

// TicketServicer: интерфейс для финализатора и хендлеров (Dependency Inversion).
type TicketServicer interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error)
	Update(ctx context.Context, id uint64, changes map[string]interface{}) (*model.Ticket, error)
	SetDetails(ctx context.Context, id uint64, details string) error
}

type TicketService struct {
	db *gorm.DB
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db}
}

func (s *TicketService) Create(ctx context.Context, t *model.Ticket) error {
	if t.Status == "" {
		t.Status = model.TicketStatusOpen
	}
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *TicketService) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *TicketService) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error) {
	var items []model.Ticket
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	for k, v := range filter {
		tx = tx.Where(k, v)
	}
	// Count total before pagination
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *TicketService) Update(ctx context.Context, id uint64, changes map[string]interface{}) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&t).Updates(changes).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// SetDetails overwrites the serialized details column. Used for the second write that
// attaches the channel message handle after the ticket already exists.
func (s *TicketService) SetDetails(ctx context.Context, id uint64, details string) error {
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", id).Update("details", details)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrTicketNotFound
	}
	return nil
}
