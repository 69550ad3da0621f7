package domain

import "errors"

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidGeometry    = errors.New("invalid geometry")
	ErrInvalidRadius      = errors.New("radius must be a non-negative number of meters")
	ErrInvalidZoneKey     = errors.New("zone key is required")
	ErrInvalidSlug        = errors.New("zone set slug is required")
	ErrInvalidSubject     = errors.New("subject id is required")
	ErrNoPlaces           = errors.New("either a zone set or inline places is required")
	ErrTooManyPlaces      = errors.New("too many places")
	ErrZoneSetNotFound    = errors.New("zone set not found")
	ErrZoneNotFound       = errors.New("zone not found")
)
