package routes

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vecremote/internal/robot"
	"github.com/recera/vecremote/pkg/bridge"
	"github.com/recera/vecremote/pkg/renderer/html"
)

func TestIndexPage(t *testing.T) {
	page := IndexPage(IndexOptions{
		Interval: 80 * time.Millisecond,
		LogLevel: "debug",
		Width:    320,
		Height:   240,
		Bindings: robot.DefaultKeymap().Bindings(),
	})

	assert.Equal(t, "80", page.Props["data-tick-ms"])
	assert.Equal(t, "debug", page.Props["data-log-level"])

	warning := page.Find(bridge.WarningElementID)
	require.NotNil(t, warning)
	assert.Contains(t, warning.Props["style"], "display: none")

	img := page.Find(bridge.ImageElementID)
	require.NotNil(t, img)
	assert.Equal(t, "vectorImage", img.Props["src"])

	out, err := html.RenderDocument(page)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `<script src="wasm_exec.js"></script>`)
	assert.Contains(t, out, `fetch("app.wasm")`)
	assert.Contains(t, out, "<kbd>Z</kbd><div>forward</div>")
}

func TestIndexPage_Defaults(t *testing.T) {
	page := IndexPage(IndexOptions{})
	assert.Equal(t, "60", page.Props["data-tick-ms"])
}
