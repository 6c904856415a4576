package bridge

// EventType is the DOM event name, which doubles as the endpoint path.
type EventType string

const (
	EventKeyDown EventType = "keydown"
	EventKeyUp   EventType = "keyup"
)

// KeyEvent is the subset of a DOM KeyboardEvent the bridge forwards.
type KeyEvent struct {
	Type EventType

	// KeyCode is the modern property; Which is the legacy fallback
	KeyCode int
	Which   int

	Shift bool
	Ctrl  bool
	Alt   bool
}

// KeyPayload is the JSON body posted for every key event.
type KeyPayload struct {
	KeyCode  int `json:"keyCode"`
	HasShift int `json:"hasShift"`
	HasCtrl  int `json:"hasCtrl"`
	HasAlt   int `json:"hasAlt"`
}

// Code returns KeyCode, falling back to Which when KeyCode is unset.
func (e KeyEvent) Code() int {
	if e.KeyCode != 0 {
		return e.KeyCode
	}
	return e.Which
}

// Payload builds the wire record for the event.
func (e KeyEvent) Payload() KeyPayload {
	return KeyPayload{
		KeyCode:  e.Code(),
		HasShift: boolToInt(e.Shift),
		HasCtrl:  boolToInt(e.Ctrl),
		HasAlt:   boolToInt(e.Alt),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
