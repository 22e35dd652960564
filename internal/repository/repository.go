package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movies-api/internal/domain"
	"github.com/Clark-Hu/movies-api/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// Movies is the data-access contract for the movies table. Every method maps
// to exactly one SQL statement with all values bound as parameters.
type Movies interface {
	// Insert stores a new movie and returns the id assigned by the database.
	Insert(ctx context.Context, in domain.MovieInput) (int64, error)
	// List returns every movie ordered by id.
	List(ctx context.Context) ([]domain.Movie, error)
	// Get returns ErrNotFound when no row has the given id.
	Get(ctx context.Context, id int64) (domain.Movie, error)
	// Update overwrites the row; an unknown id is a no-op.
	Update(ctx context.Context, id int64, in domain.MovieInput) error
	// Delete removes the row; an unknown id is a no-op.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies Movies
}

// New constructs a Repository backed by the provided postgres store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies: &MoviesRepository{pool: pool},
	}
}

// NewSQLite constructs a Repository backed by the SQLite store.
func NewSQLite(st *store.SQLiteStore) *Repository {
	return &Repository{
		Movies: &SQLiteMoviesRepository{db: st.DB()},
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
