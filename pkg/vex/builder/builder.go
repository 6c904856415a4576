// Package builder offers a fluent API for constructing vdom trees.
package builder

import "github.com/recera/vecremote/pkg/vdom"

// ElementBuilder accumulates props and children for one element
type ElementBuilder struct {
	tag      string
	props    vdom.Props
	children []*vdom.VNode
}

// New starts an element with the given tag
func New(tag string) *ElementBuilder {
	return &ElementBuilder{tag: tag, props: vdom.Props{}}
}

func Html() *ElementBuilder   { return New("html") }
func Head() *ElementBuilder   { return New("head") }
func Body() *ElementBuilder   { return New("body") }
func Meta() *ElementBuilder   { return New("meta") }
func Title() *ElementBuilder  { return New("title") }
func Style() *ElementBuilder  { return New("style") }
func Script() *ElementBuilder { return New("script") }
func Div() *ElementBuilder    { return New("div") }
func P() *ElementBuilder      { return New("p") }
func H1() *ElementBuilder     { return New("h1") }
func Img() *ElementBuilder    { return New("img") }
func Button() *ElementBuilder { return New("button") }
func Kbd() *ElementBuilder    { return New("kbd") }

// Children appends child nodes; nil children are skipped
func (b *ElementBuilder) Children(children ...*vdom.VNode) *ElementBuilder {
	b.children = append(b.children, children...)
	return b
}

// Text appends a text child
func (b *ElementBuilder) Text(text string) *ElementBuilder {
	b.children = append(b.children, vdom.NewText(text))
	return b
}

// Build returns the finished node
func (b *ElementBuilder) Build() *vdom.VNode {
	return vdom.NewElement(b.tag, b.props, b.children...)
}
