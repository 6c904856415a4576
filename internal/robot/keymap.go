package robot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned when a keymap names something that is not a
// single letter or digit.
var ErrUnknownKey = errors.New("robot: key must be a single letter or digit")

// Keymap binds DOM key codes to controls. The default layout is AZERTY,
// matching the original operator console.
type Keymap struct {
	Forward   int
	Back      int
	TurnLeft  int
	TurnRight int
	LiftUp    int
	LiftDown  int
	HeadUp    int
	HeadDown  int
}

// DefaultKeymap returns the ZQSD / RF / TG layout.
func DefaultKeymap() Keymap {
	return Keymap{
		Forward:   'Z',
		Back:      'S',
		TurnLeft:  'Q',
		TurnRight: 'D',
		LiftUp:    'R',
		LiftDown:  'F',
		HeadUp:    'T',
		HeadDown:  'G',
	}
}

// KeyCode converts a key name like "z" or "7" to its DOM keyCode.
func KeyCode(name string) (int, error) {
	name = strings.TrimSpace(name)
	if len(name) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	c := strings.ToUpper(name)[0]
	if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return int(c), nil
}

// ParseKeymap builds a Keymap from control names to key names, starting
// from the default layout.
func ParseKeymap(bindings map[string]string) (Keymap, error) {
	km := DefaultKeymap()
	slots := map[string]*int{
		"forward":    &km.Forward,
		"back":       &km.Back,
		"turn_left":  &km.TurnLeft,
		"turn_right": &km.TurnRight,
		"lift_up":    &km.LiftUp,
		"lift_down":  &km.LiftDown,
		"head_up":    &km.HeadUp,
		"head_down":  &km.HeadDown,
	}
	for control, key := range bindings {
		slot, ok := slots[control]
		if !ok {
			return Keymap{}, fmt.Errorf("robot: unknown control %q", control)
		}
		code, err := KeyCode(key)
		if err != nil {
			return Keymap{}, fmt.Errorf("control %s: %w", control, err)
		}
		*slot = code
	}
	return km, nil
}

// Binding pairs a key label with the control it drives.
type Binding struct {
	Key     string
	Control string
}

// Bindings lists the keymap in display order.
func (k Keymap) Bindings() []Binding {
	label := func(code int) string { return string(rune(code)) }
	return []Binding{
		{label(k.Forward), "forward"},
		{label(k.Back), "back"},
		{label(k.TurnLeft), "turn left"},
		{label(k.TurnRight), "turn right"},
		{label(k.LiftUp), "lift up"},
		{label(k.LiftDown), "lift down"},
		{label(k.HeadUp), "head up"},
		{label(k.HeadDown), "head down"},
	}
}
