// Package routes holds the pages served by the vecremote host.
package routes

import (
	"strconv"
	"time"

	"github.com/recera/vecremote/internal/robot"
	"github.com/recera/vecremote/pkg/bridge"
	"github.com/recera/vecremote/pkg/vdom"
	"github.com/recera/vecremote/pkg/vex/builder"
)

// bootstrap loads the client module once wasm_exec.js has defined Go.
const bootstrap = `const go = new Go();
WebAssembly.instantiateStreaming(fetch("app.wasm"), go.importObject)
  .then((result) => go.run(result.instance))
  .catch((err) => console.error("vecremote: wasm load failed", err));`

const pageStyle = `body { font-family: sans-serif; background: #1e1e1e; color: #ddd; margin: 2em; }
#vectorImageId { image-rendering: pixelated; border: 1px solid #444; }
kbd { border: 1px solid #666; border-radius: 3px; padding: 0 4px; }
.controls { display: grid; grid-template-columns: auto auto; gap: 4px 12px; margin-top: 1em; }`

// IndexOptions parameterise the index page
type IndexOptions struct {
	Title    string
	Interval time.Duration
	LogLevel string
	Width    int
	Height   int
	Bindings []robot.Binding
}

// IndexPage renders the operator console that hosts the wasm client
func IndexPage(opts IndexOptions) *vdom.VNode {
	if opts.Title == "" {
		opts.Title = "Vector Remote Control"
	}
	if opts.Interval <= 0 {
		opts.Interval = bridge.DefaultInterval
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "info"
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 320, 240
	}

	controls := make([]*vdom.VNode, 0, 2*len(opts.Bindings))
	for _, b := range opts.Bindings {
		controls = append(controls,
			builder.Kbd().Text(b.Key).Build(),
			builder.Div().Text(b.Control).Build(),
		)
	}

	return builder.Html().
		Lang("en").
		Data("tick-ms", strconv.FormatInt(opts.Interval.Milliseconds(), 10)).
		Data("log-level", opts.LogLevel).
		Children(
			builder.Head().Children(
				builder.Meta().Charset("utf-8").Build(),
				builder.Meta().Name("viewport").Content("width=device-width, initial-scale=1").Build(),
				builder.Title().Text(opts.Title).Build(),
				builder.Style().Text(pageStyle).Build(),
			).Build(),
			builder.Body().Children(
				builder.H1().Text(opts.Title).Build(),
				builder.Div().
					ID(bridge.WarningElementID).
					Styles(map[string]string{"display": "none", "color": "#f0a040"}).
					Text("This browser does not refresh images reliably; the camera view is reloaded explicitly and may flicker.").
					Build(),
				builder.Img().
					ID(bridge.ImageElementID).
					Src(bridge.PathVectorImage).
					Alt("robot camera").
					Width(opts.Width).
					Height(opts.Height).
					Build(),
				builder.P().Text("Hold shift for fast moves, alt for slow ones.").Build(),
				builder.Div().Class("controls").Children(controls...).Build(),
				builder.Script().Src("wasm_exec.js").Build(),
				builder.Script().Text(bootstrap).Build(),
			).Build(),
		).Build()
}
