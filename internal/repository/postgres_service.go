package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/screening-booking/internal/domain"
)

type PostgresServiceRepository struct {
	db *pgxpool.Pool
}

func NewPostgresServiceRepository(db *pgxpool.Pool) *PostgresServiceRepository {
	return &PostgresServiceRepository{
		db: db,
	}
}

func (p *PostgresServiceRepository) GetAll(ctx context.Context) ([]domain.Service, error) {
	rows, err := conn(ctx, p.db).Query(ctx, `SELECT id, name, price FROM services ORDER BY id`)
	if err != nil {
		return nil, err
	}

	return collectServices(rows)
}

func (p *PostgresServiceRepository) GetByIds(ctx context.Context, ids []int) ([]domain.Service, error) {
	if len(ids) == 0 {
		return []domain.Service{}, nil
	}

	query := `
		SELECT id, name, price
		FROM services
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := conn(ctx, p.db).Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}

	return collectServices(rows)
}

func collectServices(rows pgx.Rows) ([]domain.Service, error) {
	defer rows.Close()

	services := make([]domain.Service, 0)

	for rows.Next() {
		var service domain.Service

		err := rows.Scan(&service.ID, &service.Name, &service.Price)
		if err != nil {
			return nil, err
		}

		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return services, nil
}
