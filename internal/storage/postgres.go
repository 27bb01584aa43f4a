package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/charstudio/internal/config"
	"github.com/your-org/charstudio/internal/models"
)

// ErrNotFound is returned when no character exists with the requested id.
var ErrNotFound = errors.New("character not found")

// pgxPool is the subset of *pgxpool.Pool the store uses.
type pgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

type PostgresStore struct {
	pool pgxPool
}

func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const characterColumns = `id, owner_id, name, description, keywords, image_url, created_at`

// CreateCharacter inserts c and fills in the server-assigned CreatedAt.
func (s *PostgresStore) CreateCharacter(ctx context.Context, c *models.Character) error {
	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO characters (id, owner_id, name, description, keywords, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		c.ID, c.OwnerID, c.Name, c.Description, keywords, c.ImageURL,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create character: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCharacter(ctx context.Context, id string) (*models.Character, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)

	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get character: %w", err)
	}
	return c, nil
}

// ListCharactersByOwner returns the owner's characters, newest first.
func (s *PostgresStore) ListCharactersByOwner(ctx context.Context, ownerID string) ([]models.Character, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var characters []models.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		characters = append(characters, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}
	return characters, nil
}

func scanCharacter(row pgx.Row) (*models.Character, error) {
	c := &models.Character{}
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Keywords, &c.ImageURL, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}
