package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Clark-Hu/movies-api/internal/domain"
)

// SQLiteMoviesRepository stores movies in SQLite, keeping genres and casts as
// JSON arrays since SQLite has no array type.
type SQLiteMoviesRepository struct {
	db *sql.DB
}

// Insert adds a movie row and returns its generated id.
func (r *SQLiteMoviesRepository) Insert(ctx context.Context, in domain.MovieInput) (int64, error) {
	genres, casts, err := marshalLists(in)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (name, plot, genres, casts) VALUES (?, ?, ?, ?)`,
		in.Name, in.Plot, genres, casts)
	if err != nil {
		return 0, fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert movie: %w", err)
	}
	return id, nil
}

// List returns all movies in id order.
func (r *SQLiteMoviesRepository) List(ctx context.Context) ([]domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanSQLiteMovie(rows)
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
func (r *SQLiteMoviesRepository) Get(ctx context.Context, id int64) (domain.Movie, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	movie, err := scanSQLiteMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// Update rewrites every column of the row identified by id.
func (r *SQLiteMoviesRepository) Update(ctx context.Context, id int64, in domain.MovieInput) error {
	genres, casts, err := marshalLists(in)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE movies SET name = ?, plot = ?, genres = ?, casts = ? WHERE id = ?`,
		in.Name, in.Plot, genres, casts, id)
	if err != nil {
		return fmt.Errorf("update movie %d: %w", id, err)
	}
	return nil
}

// Delete removes the row identified by id.
func (r *SQLiteMoviesRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	return nil
}

// Count returns the number of stored movies.
func (r *SQLiteMoviesRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteMovie(row sqlScanner) (domain.Movie, error) {
	var (
		movie  domain.Movie
		genres string
		casts  string
	)
	if err := row.Scan(&movie.ID, &movie.Name, &movie.Plot, &genres, &casts); err != nil {
		return domain.Movie{}, err
	}
	if err := json.Unmarshal([]byte(genres), &movie.Genres); err != nil {
		return domain.Movie{}, fmt.Errorf("decode genres of movie %d: %w", movie.ID, err)
	}
	if err := json.Unmarshal([]byte(casts), &movie.Casts); err != nil {
		return domain.Movie{}, fmt.Errorf("decode casts of movie %d: %w", movie.ID, err)
	}
	movie.Genres = nonNil(movie.Genres)
	movie.Casts = nonNil(movie.Casts)
	return movie, nil
}

func marshalLists(in domain.MovieInput) (string, string, error) {
	genres, err := json.Marshal(nonNil(in.Genres))
	if err != nil {
		return "", "", fmt.Errorf("encode genres: %w", err)
	}
	casts, err := json.Marshal(nonNil(in.Casts))
	if err != nil {
		return "", "", fmt.Errorf("encode casts: %w", err)
	}
	return string(genres), string(casts), nil
}
