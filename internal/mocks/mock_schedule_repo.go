package mocks

import (
	"context"

	"github.com/metinatakli/screening-booking/internal/domain"
)

type MockScheduleRepo struct {
	GetByIdFunc     func(ctx context.Context, id int) (*domain.Schedule, error)
	GetByFilmIdFunc func(ctx context.Context, filmID int) ([]domain.Schedule, error)
}

func (m *MockScheduleRepo) GetById(ctx context.Context, id int) (*domain.Schedule, error) {
	return m.GetByIdFunc(ctx, id)
}

func (m *MockScheduleRepo) GetByFilmId(ctx context.Context, filmID int) ([]domain.Schedule, error) {
	return m.GetByFilmIdFunc(ctx, filmID)
}
