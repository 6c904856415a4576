package frames

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Empty(t *testing.T) {
	_, err := NewStore().Latest()
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestStore_SetLatest(t *testing.T) {
	s := NewStore()
	s.Set([]byte("a"), "image/png")
	s.Set([]byte("b"), "image/jpeg")

	f, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), f.Data)
	assert.Equal(t, "image/jpeg", f.ContentType)
	assert.Equal(t, uint64(2), f.Seq)
}

func TestStore_Next(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got := make(chan Frame, 1)
	go func() {
		f, err := s.Next(ctx, 0)
		if err == nil {
			got <- f
		}
	}()
	s.Set([]byte("a"), "image/png")

	select {
	case f := <-got:
		assert.Equal(t, uint64(1), f.Seq)
	case <-ctx.Done():
		t.Fatal("Next did not wake on Set")
	}

	f, err := s.Next(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), f.Data)

	short, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()
	_, err = s.Next(short, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultImage(t *testing.T) {
	grey := DefaultImage(4, 3, false)
	assert.Equal(t, uint8(0x70), grey.RGBAAt(2, 1).R)
	assert.Equal(t, uint8(0x70), grey.RGBAAt(2, 1).B)

	grad := DefaultImage(4, 4, true)
	assert.Equal(t, uint8(0), grad.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(127), grad.RGBAAt(2, 0).R)
	assert.Equal(t, uint8(191), grad.RGBAAt(0, 3).G)
	assert.Equal(t, uint8(0), grad.RGBAAt(3, 3).B)
}

func TestNewStoreWithPlaceholder(t *testing.T) {
	s, err := NewStoreWithPlaceholder(32, 24, false)
	require.NoError(t, err)

	f, err := s.Latest()
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(f.Data))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestWatcher_LoadsNewFrames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.png"), []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	store := NewStore()
	w := NewWatcher(dir, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	assert.Eventually(t, func() bool {
		f, err := store.Latest()
		return err == nil && string(f.Data) == "first"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cam.jpg"), []byte("second"), 0o644))
	assert.Eventually(t, func() bool {
		f, err := store.Latest()
		return err == nil && string(f.Data) == "second" && f.ContentType == "image/jpeg"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_MissingDir(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope"), NewStore(), nil)
	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestSniff(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, DefaultImage(2, 2, false)))

	assert.Equal(t, "image/png", sniff("cam.jpg", buf.Bytes()))
	assert.Equal(t, "image/jpeg", sniff("cam.JPG", []byte("not really an image")))
	assert.Equal(t, "image/png", sniff("cam.png", []byte("text")))
}
