package domain

// Movie represents a stored movie row. ID is assigned by the database on insert
// and never changes afterwards.
type Movie struct {
	ID     int64
	Name   string
	Plot   string
	Genres []string
	Casts  []string
}

// MovieInput is the full set of writable fields, used for inserts and for the
// merged row written back on update.
type MovieInput struct {
	Name   string
	Plot   string
	Genres []string
	Casts  []string
}

// MovieUpdate carries a partial update. A nil field was not provided by the
// caller and leaves the stored value untouched.
type MovieUpdate struct {
	Name   *string
	Plot   *string
	Genres []string
	Casts  []string
}

// Input projects a stored movie onto its writable fields.
func (m Movie) Input() MovieInput {
	return MovieInput{
		Name:   m.Name,
		Plot:   m.Plot,
		Genres: cloneStrings(m.Genres),
		Casts:  cloneStrings(m.Casts),
	}
}

// WithID pairs the input with the identifier the database assigned to it.
func (in MovieInput) WithID(id int64) Movie {
	return Movie{
		ID:     id,
		Name:   in.Name,
		Plot:   in.Plot,
		Genres: cloneStrings(in.Genres),
		Casts:  cloneStrings(in.Casts),
	}
}

// Apply overlays the provided fields of u onto base and returns the merged row.
// base is not modified.
func (u MovieUpdate) Apply(base MovieInput) MovieInput {
	merged := MovieInput{
		Name:   base.Name,
		Plot:   base.Plot,
		Genres: cloneStrings(base.Genres),
		Casts:  cloneStrings(base.Casts),
	}
	if u.Name != nil {
		merged.Name = *u.Name
	}
	if u.Plot != nil {
		merged.Plot = *u.Plot
	}
	if u.Genres != nil {
		merged.Genres = cloneStrings(u.Genres)
	}
	if u.Casts != nil {
		merged.Casts = cloneStrings(u.Casts)
	}
	return merged
}

// IsEmpty reports whether the update provides no fields at all.
func (u MovieUpdate) IsEmpty() bool {
	return u.Name == nil && u.Plot == nil && u.Genres == nil && u.Casts == nil
}

func cloneStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
