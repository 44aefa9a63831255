package download

// Level indicates the severity/type of a progress message.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// Event represents a progress update surfaced to the UI layer.
type Event struct {
	Message string
	Level   Level
}
