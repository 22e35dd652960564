package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movies-api/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities on postgres.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `id, name, plot, genres, casts`

// Insert adds a movie row and returns its generated id.
func (r *MoviesRepository) Insert(ctx context.Context, in domain.MovieInput) (int64, error) {
	const query = `
        INSERT INTO movies (name, plot, genres, casts)
        VALUES ($1,$2,$3,$4)
        RETURNING id
    `
	var id int64
	err := r.pool.QueryRow(ctx, query, in.Name, in.Plot, nonNil(in.Genres), nonNil(in.Casts)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert movie: %w", err)
	}
	return id, nil
}

// List returns all movies in id order.
func (r *MoviesRepository) List(ctx context.Context) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY id`, movieColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Get fetches a movie by its identifier.
func (r *MoviesRepository) Get(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// Update rewrites every column of the row identified by id.
func (r *MoviesRepository) Update(ctx context.Context, id int64, in domain.MovieInput) error {
	const query = `
        UPDATE movies
        SET name = $2,
            plot = $3,
            genres = $4,
            casts = $5
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, query, id, in.Name, in.Plot, nonNil(in.Genres), nonNil(in.Casts)); err != nil {
		return fmt.Errorf("update movie %d: %w", id, err)
	}
	return nil
}

// Delete removes the row identified by id.
func (r *MoviesRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	return nil
}

// Count returns the number of stored movies.
func (r *MoviesRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Name,
		&movie.Plot,
		&movie.Genres,
		&movie.Casts,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	movie.Genres = nonNil(movie.Genres)
	movie.Casts = nonNil(movie.Casts)
	return movie, nil
}
