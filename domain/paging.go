package domain

// Prediction history paging bounds
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ClampPaging applies the history paging rules: a limit <= 0 becomes the
// default, limits above the maximum are capped, and a negative skip is 0.
func ClampPaging(limit, skip int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}
