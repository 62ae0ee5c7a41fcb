package crowd

import "errors"

var (
	ErrUnknownStrategy = errors.New("unknown steering strategy")
	ErrInvalidRoom     = errors.New("invalid room")
	ErrInvalidAgent    = errors.New("invalid agent")
)
