package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/movies-api/internal/domain"
	"github.com/Clark-Hu/movies-api/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

const movieNotFound = "Movie not found"

var errTrailingData = errors.New("request body must contain a single JSON value")

// errorResponse is the body of every non-2xx answer. Detail is a message for
// not-found and server errors and a list of fieldError for invalid input.
type errorResponse struct {
	Detail interface{} `json:"detail"`
}

// fieldError mirrors a pydantic error entry; Loc mixes names and list indexes.
type fieldError struct {
	Loc  []interface{} `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// movieCreateRequest decodes into pointers so required checks presence in the
// JSON document, not emptiness: "" and [] are valid values, null is not.
type movieCreateRequest struct {
	Name   *string   `json:"name" validate:"required"`
	Plot   *string   `json:"plot" validate:"required"`
	Genres []*string `json:"genres" validate:"required,dive,required"`
	Casts  []*string `json:"casts" validate:"required,dive,required"`
}

// movieUpdateRequest leaves absent (or null) fields nil so they keep their
// stored value. List items still may not be null.
type movieUpdateRequest struct {
	Name   *string   `json:"name"`
	Plot   *string   `json:"plot"`
	Genres []*string `json:"genres" validate:"omitempty,dive,required"`
	Casts  []*string `json:"casts" validate:"omitempty,dive,required"`
}

type movieResponse struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Plot   string   `json:"plot"`
	Genres []string `json:"genres"`
	Casts  []string `json:"casts"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.repo.Movies.List(r.Context())
	if err != nil {
		s.respondInternalError(w, r, "list movies", err)
		return
	}

	items := make([]movieResponse, 0, len(movies))
	for _, movie := range movies {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondValidationError(w, err)
		return
	}

	input := domain.MovieInput{
		Name:   *req.Name,
		Plot:   *req.Plot,
		Genres: derefStrings(req.Genres),
		Casts:  derefStrings(req.Casts),
	}
	id, err := s.repo.Movies.Insert(r.Context(), input)
	if err != nil {
		s.respondInternalError(w, r, "create movie", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%d", id))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(input.WithID(id)))
}

func (s *Server) handleCountMovies(w http.ResponseWriter, r *http.Request) {
	count, err := s.repo.Movies.Count(r.Context())
	if err != nil {
		s.respondInternalError(w, r, "count movies", err)
		return
	}
	s.respondJSON(w, http.StatusOK, count)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.loadMovie(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

// handleUpdateMovie merges the provided fields onto the stored row and writes
// the full row back. The fetch and the write are separate statements, so two
// concurrent updates of one id may interleave.
func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.loadMovie(w, r)
	if !ok {
		return
	}

	var req movieUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondValidationError(w, err)
		return
	}

	update := domain.MovieUpdate{
		Name:   req.Name,
		Plot:   req.Plot,
		Genres: derefStrings(req.Genres),
		Casts:  derefStrings(req.Casts),
	}
	if update.IsEmpty() {
		s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
		return
	}
	merged := update.Apply(movie.Input())
	if err := s.repo.Movies.Update(r.Context(), movie.ID, merged); err != nil {
		s.respondInternalError(w, r, "update movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(merged.WithID(movie.ID)))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.loadMovie(w, r)
	if !ok {
		return
	}
	if err := s.repo.Movies.Delete(r.Context(), movie.ID); err != nil {
		s.respondInternalError(w, r, "delete movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

// loadMovie resolves the {id} path parameter to a stored movie, answering 422
// or 404 itself when that is not possible.
func (s *Server) loadMovie(w http.ResponseWriter, r *http.Request) (domain.Movie, bool) {
	id, err := parseMovieID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: []fieldError{{
			Loc:  []interface{}{"path", "id"},
			Msg:  err.Error(),
			Type: "int_parsing",
		}}})
		return domain.Movie{}, false
	}

	movie, err := s.repo.Movies.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondJSON(w, http.StatusNotFound, errorResponse{Detail: movieNotFound})
			return domain.Movie{}, false
		}
		s.respondInternalError(w, r, "fetch movie", err)
		return domain.Movie{}, false
	}
	return movie, true
}

func parseMovieID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("missing id parameter")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be a valid integer")
	}
	return id, nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return errTrailingData
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error().
		Err(err).
		Str("op", op).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("storage failure")
	s.respondJSON(w, http.StatusInternalServerError, errorResponse{Detail: http.StatusText(http.StatusInternalServerError)})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var (
		syntaxError *json.SyntaxError
		typeError   *json.UnmarshalTypeError
		maxBytes    *http.MaxBytesError
		detail      fieldError
	)
	switch {
	case errors.As(err, &maxBytes):
		s.respondJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Detail: "Request body too large"})
		return
	case errors.Is(err, errTrailingData):
		detail = fieldError{Loc: []interface{}{"body"}, Msg: "Unexpected data after JSON payload", Type: "json_invalid"}
	case errors.As(err, &syntaxError):
		detail = fieldError{Loc: []interface{}{"body"}, Msg: "Malformed JSON payload", Type: "json_invalid"}
	case errors.As(err, &typeError):
		detail = fieldError{
			Loc:  []interface{}{"body", typeError.Field},
			Msg:  fmt.Sprintf("Invalid value for field %s", typeError.Field),
			Type: "type_error",
		}
	case errors.Is(err, io.EOF):
		detail = fieldError{Loc: []interface{}{"body"}, Msg: "Request body cannot be empty", Type: "missing"}
	default:
		detail = fieldError{Loc: []interface{}{"body"}, Msg: "Unable to parse request body", Type: "json_invalid"}
	}
	s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: []fieldError{detail}})
}

func (s *Server) respondValidationError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: []fieldError{{
			Loc: []interface{}{"body"}, Msg: err.Error(), Type: "value_error",
		}}})
		return
	}

	details := make([]fieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		loc, isItem := fieldLoc(fe.Field())
		item := fieldError{Loc: loc}
		switch {
		case fe.Tag() == "required" && isItem:
			item.Msg = "Input should be a valid string"
			item.Type = "string_type"
		case fe.Tag() == "required":
			item.Msg = "Field required"
			item.Type = "missing"
		default:
			item.Msg = fmt.Sprintf("Field failed %s validation", fe.Tag())
			item.Type = "value_error"
		}
		details = append(details, item)
	}
	s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: details})
}

// fieldLoc turns a validator field name such as "genres[2]" into
// ["body","genres",2]. isItem reports whether the name addressed a list item.
func fieldLoc(field string) (loc []interface{}, isItem bool) {
	name, rest, found := strings.Cut(field, "[")
	if found {
		if idx, err := strconv.Atoi(strings.TrimSuffix(rest, "]")); err == nil {
			return []interface{}{"body", name, idx}, true
		}
	}
	return []interface{}{"body", field}, false
}

// derefStrings keeps nil as nil so an absent list stays distinguishable from [].
// Items are assumed non-nil after validation.
func derefStrings(items []*string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}

func toMovieResponse(movie domain.Movie) movieResponse {
	resp := movieResponse{
		ID:     movie.ID,
		Name:   movie.Name,
		Plot:   movie.Plot,
		Genres: movie.Genres,
		Casts:  movie.Casts,
	}
	if resp.Genres == nil {
		resp.Genres = []string{}
	}
	if resp.Casts == nil {
		resp.Casts = []string{}
	}
	return resp
}
