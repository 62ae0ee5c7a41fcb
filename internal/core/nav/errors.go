package nav

import "errors"

var (
	ErrInvalidObstacle   = errors.New("invalid obstacle")
	ErrUnknownPropagator = errors.New("unknown propagator")
)
