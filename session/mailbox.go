package session

import (
	"image"
	"sync"

	fractal "github.com/marben/fractal_nav"
)

// mailbox holds the latest published frame until the owner loop picks it up.
// Present never blocks, so the render scheduler can call it while holding its
// publish lock.
type mailbox struct {
	m     sync.Mutex
	img   *image.RGBA
	info  fractal.FrameInfo
	ready chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

func (b *mailbox) Present(img *image.RGBA, info fractal.FrameInfo) error {
	b.m.Lock()
	b.img, b.info = img, info
	b.m.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
	return nil
}

func (b *mailbox) take() (*image.RGBA, fractal.FrameInfo, bool) {
	b.m.Lock()
	defer b.m.Unlock()
	img, info := b.img, b.info
	b.img = nil
	return img, info, img != nil
}
