package sim

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrDuplicateRoom = errors.New("room name already used by different geometry")
	ErrNoActiveRoom  = errors.New("no room loaded")
	ErrBlockedPoint  = errors.New("point is outside the room or inside an obstacle")
	ErrNoFreeSpace   = errors.New("no free spawn point found")
)
