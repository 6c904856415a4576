// Package frames keeps the most recent camera frame for the image endpoint.
package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"
)

// ErrNoFrame is returned when the store has never held a frame.
var ErrNoFrame = errors.New("frames: no frame available")

// Frame is an encoded image ready to serve.
type Frame struct {
	Data        []byte
	ContentType string
	Updated     time.Time
	Seq         uint64
}

// Store holds the latest frame.
type Store struct {
	mu    sync.RWMutex
	frame Frame
	seq   uint64

	// closed and replaced on every Set
	changed chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{changed: make(chan struct{})}
}

// NewStoreWithPlaceholder creates a store seeded with DefaultImage.
func NewStoreWithPlaceholder(width, height int, gradient bool) (*Store, error) {
	s := NewStore()
	data, err := EncodePNG(DefaultImage(width, height, gradient))
	if err != nil {
		return nil, err
	}
	s.Set(data, "image/png")
	return s, nil
}

// Set replaces the latest frame.
func (s *Store) Set(data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.frame = Frame{
		Data:        data,
		ContentType: contentType,
		Updated:     time.Now(),
		Seq:         s.seq,
	}
	close(s.changed)
	s.changed = make(chan struct{})
}

// Latest returns the current frame.
func (s *Store) Latest() (Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seq == 0 {
		return Frame{}, ErrNoFrame
	}
	return s.frame, nil
}

// Next blocks until the store holds a frame newer than seq, or ctx is done.
// Next(ctx, 0) returns the current frame as soon as there is one.
func (s *Store) Next(ctx context.Context, seq uint64) (Frame, error) {
	for {
		s.mu.RLock()
		frame, current, changed := s.frame, s.seq, s.changed
		s.mu.RUnlock()

		if current > seq {
			return frame, nil
		}
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-changed:
		}
	}
}

// DefaultImage is the placeholder shown before any camera frame arrives:
// flat grey, or a red/green gradient across the axes.
func DefaultImage(width, height int, gradient bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{R: 0x70, G: 0x70, B: 0x70, A: 0xff}
			if gradient {
				c = color.RGBA{
					R: uint8(255 * x / width),
					G: uint8(255 * y / height),
					A: 0xff,
				}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
