package robot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCode(t *testing.T) {
	code, err := KeyCode("w")
	require.NoError(t, err)
	assert.Equal(t, 87, code)

	code, err = KeyCode("7")
	require.NoError(t, err)
	assert.Equal(t, 55, code)

	for _, bad := range []string{"", "ab", "!"} {
		_, err := KeyCode(bad)
		assert.ErrorIs(t, err, ErrUnknownKey, bad)
	}
}

func TestParseKeymap(t *testing.T) {
	km, err := ParseKeymap(map[string]string{
		"forward":   "w",
		"turn_left": "a",
	})
	require.NoError(t, err)
	assert.Equal(t, int('W'), km.Forward)
	assert.Equal(t, int('A'), km.TurnLeft)
	assert.Equal(t, int('S'), km.Back)

	_, err = ParseKeymap(map[string]string{"jump": "j"})
	assert.Error(t, err)

	_, err = ParseKeymap(map[string]string{"forward": "up"})
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestController_CustomKeymap(t *testing.T) {
	km, err := ParseKeymap(map[string]string{"forward": "w"})
	require.NoError(t, err)

	sim := NewSimMotors()
	c := NewController(sim, WithKeymap(km))
	c.HandleKey('W', false, false, true)
	wheels, _, _, _ := sim.Snapshot()
	assert.Equal(t, 75.0, wheels.Left)
}

func TestKeymap_Bindings(t *testing.T) {
	b := DefaultKeymap().Bindings()
	require.Len(t, b, 8)
	assert.Equal(t, Binding{"Z", "forward"}, b[0])
	assert.Equal(t, Binding{"G", "head down"}, b[7])
}
