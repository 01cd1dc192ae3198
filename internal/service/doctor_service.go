package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medibook/internal/cache"
	apperrors "medibook/internal/errors"
	"medibook/internal/geo"
	"medibook/internal/model"
	"medibook/internal/repository"
)

// DefaultNearbyLimit is used when a proximity query names no limit.
const DefaultNearbyLimit = 10

const doctorsCacheKey = "doctors:all"

// NearbyDoctor is a doctor annotated with its distance from the query point.
type NearbyDoctor struct {
	model.Doctor
	DistanceKm float64 `json:"distance_km"`
}

// DoctorService is the doctor directory.
type DoctorService interface {
	GetAll(ctx context.Context) ([]model.Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	SearchBySpecialty(ctx context.Context, specialty string) ([]model.Doctor, error)
	Nearby(ctx context.Context, latitude, longitude float64, limit int) ([]NearbyDoctor, error)
	Seed(ctx context.Context, doctors []model.Doctor) (int, error)
}

type doctorService struct {
	repo  repository.DoctorRepository
	cache *cache.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewDoctorService creates a doctor directory backed by repo with a
// cache-aside layer in front of reads.
func NewDoctorService(repo repository.DoctorRepository, cache *cache.Client, ttl time.Duration, log zerolog.Logger) DoctorService {
	return &doctorService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

func (s *doctorService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("doctor:%s", id.String())
}

// GetAll returns every doctor in storage order.
func (s *doctorService) GetAll(ctx context.Context) ([]model.Doctor, error) {
	var cached []model.Doctor
	if s.cache.GetJSON(ctx, doctorsCacheKey, &cached) {
		return cached, nil
	}

	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	s.cache.SetJSON(ctx, doctorsCacheKey, doctors, s.ttl)
	return doctors, nil
}

// GetDoctor retrieves a doctor by ID with caching.
func (s *doctorService) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var cached model.Doctor
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	doctor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, s.cacheKey(id), doctor, s.ttl)
	return doctor, nil
}

// SearchBySpecialty matches case-insensitively; a blank filter returns all.
func (s *doctorService) SearchBySpecialty(ctx context.Context, specialty string) ([]model.Doctor, error) {
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return s.GetAll(ctx)
	}
	doctors, err := s.repo.SearchBySpecialty(ctx, specialty)
	if err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	return doctors, nil
}

// Nearby ranks all doctors by distance from the query point and keeps the
// closest limit. Equal distances keep storage order.
func (s *doctorService) Nearby(ctx context.Context, latitude, longitude float64, limit int) ([]NearbyDoctor, error) {
	if limit <= 0 {
		return nil, apperrors.ErrInvalidLimit
	}
	origin := geo.Point{Lat: latitude, Lon: longitude}
	if !origin.Valid() {
		return nil, apperrors.ErrInvalidCoordinates
	}

	doctors, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	ranked := geo.Rank(origin, doctors, func(d model.Doctor) geo.Point {
		lat, lon := d.Coordinates()
		return geo.Point{Lat: lat, Lon: lon}
	}, limit)

	result := make([]NearbyDoctor, 0, len(ranked))
	for _, r := range ranked {
		result = append(result, NearbyDoctor{Doctor: r.Item, DistanceKm: r.DistanceKm})
	}
	return result, nil
}

// Seed inserts doctors that are not stored yet and drops the cached list.
// Doctors already present keep their stored data. It returns how many
// were added.
func (s *doctorService) Seed(ctx context.Context, doctors []model.Doctor) (int, error) {
	for i := range doctors {
		if doctors[i].ID == uuid.Nil {
			doctors[i].ID = uuid.New()
		}
	}
	added, err := s.repo.InsertNew(ctx, doctors)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		_ = s.cache.Delete(ctx, doctorsCacheKey)
	}

	s.log.Info().Int("submitted", len(doctors)).Int64("added", added).Msg("doctors seeded")
	return int(added), nil
}
