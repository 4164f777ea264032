package schema

// EventType identifies a session bus event.
type EventType string

const (
	// EventShared announces a session made available to other consumers.
	EventShared EventType = "shared"
	// EventCommitted announces a session whose arrangement was written out.
	EventCommitted EventType = "committed"
)

// NormalizeRotation folds an angle into [0, 360).
func NormalizeRotation(angle int) int {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle
}
