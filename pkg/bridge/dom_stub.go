//go:build !js || !wasm
// +build !js !wasm

package bridge

import "errors"

var errNotBrowser = errors.New("bridge: DOM access is only available in WASM builds")

// DOMPage implements Page over the live document (stub for non-WASM builds).
type DOMPage struct{}

// NewDOMPage binds to the global document (stub).
func NewDOMPage() *DOMPage {
	return &DOMPage{}
}

// ShowWarning implements Page (stub).
func (p *DOMPage) ShowWarning() error { return errNotBrowser }

// SetImageSource implements Page (stub).
func (p *DOMPage) SetImageSource(string) error { return errNotBrowser }

// ClearText implements Page (stub).
func (p *DOMPage) ClearText() error { return errNotBrowser }

// UserAgent returns an empty string outside the browser.
func UserAgent() string { return "" }

// BaseURL is only meaningful inside a document (stub).
func BaseURL() (string, error) { return "", errNotBrowser }

// Listen forwards document key events to b (stub).
func Listen(*Bridge) (func(), error) { return func() {}, errNotBrowser }

// ExportClear publishes ClearDisplay as a page global (stub, no-op).
func ExportClear(*Bridge, string) {}
