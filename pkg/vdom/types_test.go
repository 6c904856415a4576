package vdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewElement_SkipsNilChildren(t *testing.T) {
	var missing *VNode
	n := NewElement("div", nil, NewText("a"), missing, NewText("b"))
	require.Len(t, n.Kids, 2)
	assert.True(t, n.IsElement())
	assert.True(t, n.Kids[0].IsText())
	assert.Equal(t, "b", n.Kids[1].Text)
}

func TestFind(t *testing.T) {
	tree := NewElement("body", nil,
		NewElement("div", Props{"id": "outer"},
			NewFragment(
				NewElement("img", Props{"id": "cam", "src": "x.png"}),
			),
		),
	)

	img := tree.Find("cam")
	require.NotNil(t, img)
	assert.Equal(t, "img", img.Tag)
	assert.Equal(t, "x.png", img.Props["src"])

	assert.Nil(t, tree.Find("nope"))
	var empty *VNode
	assert.Nil(t, empty.Find("cam"))
}
