package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "medibook/internal/errors"
	"medibook/internal/model"
)

// DoctorRepository defines doctor persistence operations.
type DoctorRepository interface {
	List(ctx context.Context) ([]model.Doctor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	SearchBySpecialty(ctx context.Context, specialty string) ([]model.Doctor, error)
	InsertNew(ctx context.Context, doctors []model.Doctor) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type doctorRepository struct {
	db *gorm.DB
}

// NewDoctorRepository creates a new doctor repository.
func NewDoctorRepository(db *gorm.DB) DoctorRepository {
	return &doctorRepository{db: db}
}

// List returns all doctors in storage order (id ascending).
func (r *doctorRepository) List(ctx context.Context) ([]model.Doctor, error) {
	var doctors []model.Doctor
	if err := r.db.WithContext(ctx).Order("id").Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

// FindByID finds a doctor by ID.
func (r *doctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDoctorNotFound
		}
		return nil, err
	}
	return &doctor, nil
}

// SearchBySpecialty matches specialty case-insensitively as a substring.
func (r *doctorRepository) SearchBySpecialty(ctx context.Context, specialty string) ([]model.Doctor, error) {
	var doctors []model.Doctor
	if err := r.db.WithContext(ctx).
		Where("LOWER(specialty) LIKE ?", containsPattern(specialty)).
		Order("id").
		Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

// InsertNew inserts doctors whose ID is not stored yet and reports how many
// rows were added. Doctors are immutable, so existing rows are left as they are.
func (r *doctorRepository) InsertNew(ctx context.Context, doctors []model.Doctor) (int64, error) {
	if len(doctors) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&doctors)
	if res.Error != nil {
		return 0, fmt.Errorf("insert doctors: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *doctorRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Doctor{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
