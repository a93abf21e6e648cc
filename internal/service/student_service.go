package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sst-resolve/resolve-bot/internal/errs"
	"github.com/sst-resolve/resolve-bot/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileUpdate carries the profile fields to write; nil fields are left untouched.
type ProfileUpdate struct {
	FullName   *string
	RoomNumber *string
	Mobile     *string
	Hostel     *string
	Email      *string
}

type StudentServicer interface {
	Get(ctx context.Context, userNumber string) (*model.StudentProfile, error)
	Upsert(ctx context.Context, userNumber string, upd ProfileUpdate) error
	Email(ctx context.Context, userNumber string) (string, error)
}

type StudentService struct {
	db *gorm.DB
}

func NewStudentService(db *gorm.DB) *StudentService {
	return &StudentService{db: db}
}

// Get возвращает errs.ErrStudentNotFound, если анкеты нет.
func (s *StudentService) Get(ctx context.Context, userNumber string) (*model.StudentProfile, error) {
	var p model.StudentProfile
	err := s.db.WithContext(ctx).Where("user_number = ?", userNumber).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrStudentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert inserts the profile or, when a row for userNumber exists, updates only the
// fields present in upd.
func (s *StudentService) Upsert(ctx context.Context, userNumber string, upd ProfileUpdate) error {
	now := time.Now().UTC()
	p := model.StudentProfile{UserNumber: userNumber, CreatedAt: now, UpdatedAt: now}
	cols := []string{"updated_at"}
	set := func(dst *string, v *string, col string) {
		if v == nil {
			return
		}
		*dst = *v
		cols = append(cols, col)
	}
	set(&p.FullName, upd.FullName, "full_name")
	set(&p.RoomNumber, upd.RoomNumber, "room_number")
	set(&p.Mobile, upd.Mobile, "mobile")
	set(&p.Hostel, upd.Hostel, "hostel")
	set(&p.Email, upd.Email, "email")

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_number"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&p).Error
}

// Email returns the stored address, or "" when the student or address is missing.
func (s *StudentService) Email(ctx context.Context, userNumber string) (string, error) {
	p, err := s.Get(ctx, userNumber)
	if err != nil {
		if errors.Is(err, errs.ErrStudentNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(p.Email), nil
}
