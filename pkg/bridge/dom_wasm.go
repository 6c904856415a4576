//go:build js && wasm
// +build js,wasm

package bridge

import (
	"fmt"
	"net/url"
	"syscall/js"

	"go.uber.org/zap"
)

// DOMPage implements Page over the live document.
type DOMPage struct {
	document js.Value
}

// NewDOMPage binds to the global document.
func NewDOMPage() *DOMPage {
	return &DOMPage{document: js.Global().Get("document")}
}

func (p *DOMPage) element(id string) (js.Value, error) {
	el := p.document.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return js.Value{}, fmt.Errorf("element #%s not found", id)
	}
	return el, nil
}

// ShowWarning implements Page.
func (p *DOMPage) ShowWarning() error {
	el, err := p.element(WarningElementID)
	if err != nil {
		return err
	}
	el.Get("style").Set("display", "block")
	return nil
}

// SetImageSource implements Page.
func (p *DOMPage) SetImageSource(src string) error {
	el, err := p.element(ImageElementID)
	if err != nil {
		return err
	}
	el.Set("src", src)
	return nil
}

// ClearText implements Page.
func (p *DOMPage) ClearText() error {
	el, err := p.element(ImageElementID)
	if err != nil {
		return err
	}
	el.Set("textContent", "")
	return nil
}

// UserAgent returns navigator.userAgent.
func UserAgent() string {
	return js.Global().Get("navigator").Get("userAgent").String()
}

// BaseURL returns the directory of the current document, which relative
// endpoint paths resolve against.
func BaseURL() (string, error) {
	base, err := url.Parse(js.Global().Get("document").Get("baseURI").String())
	if err != nil {
		return "", fmt.Errorf("parse document base: %w", err)
	}
	return base.ResolveReference(&url.URL{Path: "."}).String(), nil
}

// Listen forwards document keydown and keyup events to b. The returned
// function removes the listeners.
func Listen(b *Bridge) (func(), error) {
	document := js.Global().Get("document")
	funcs := make(map[EventType]js.Func, 2)

	for _, typ := range []EventType{EventKeyDown, EventKeyUp} {
		typ := typ
		fn := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			if len(args) == 0 {
				return nil
			}
			b.HandleKey(keyEventFromJS(typ, args[0]))
			return nil
		})
		document.Call("addEventListener", string(typ), fn)
		funcs[typ] = fn
	}

	return func() {
		for typ, fn := range funcs {
			document.Call("removeEventListener", string(typ), fn)
			fn.Release()
		}
	}, nil
}

// ExportClear publishes ClearDisplay as a page global so other scripts can
// call it.
func ExportClear(b *Bridge, name string) {
	js.Global().Set(name, js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if err := b.ClearDisplay(); err != nil {
			b.log.Error("clear display", zap.Error(err))
		}
		return nil
	}))
}

func keyEventFromJS(typ EventType, e js.Value) KeyEvent {
	return KeyEvent{
		Type:    typ,
		KeyCode: intProp(e, "keyCode"),
		Which:   intProp(e, "which"),
		Shift:   e.Get("shiftKey").Truthy(),
		Ctrl:    e.Get("ctrlKey").Truthy(),
		Alt:     e.Get("altKey").Truthy(),
	}
}

func intProp(v js.Value, name string) int {
	p := v.Get(name)
	if p.Type() != js.TypeNumber {
		return 0
	}
	return p.Int()
}
