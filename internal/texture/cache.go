// Package texture loads images for materials asynchronously and caches them
// by path.
package texture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// State is the lifecycle of a texture request.
type State int

const (
	Pending State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Texture is a shared handle to one image. Its fields only change inside
// Cache.Poll, so readers on the polling goroutine never race.
type Texture struct {
	Path  string
	State State
	Image *image.NRGBA
	Err   error
}

// IsReady reports whether pixels are available. Nil textures are never ready.
func (t *Texture) IsReady() bool {
	return t != nil && t.State == Ready
}

// Options configures a Cache.
type Options struct {
	// Workers bounds concurrent decodes. Zero means 4.
	Workers int64
	// MaxSize caps the longest side of decoded images. Zero disables scaling.
	MaxSize int
	Logger  *zap.Logger
}

type result struct {
	tex *Texture
	img *image.NRGBA
	err error
}

// Cache deduplicates texture requests and decodes them off the render thread.
type Cache struct {
	fsys    fs.FS
	sem     *semaphore.Weighted
	maxSize int
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	textures map[string]*Texture
	done     []result

	// Stats
	hits   int
	misses int
}

// NewCache creates a cache reading files from fsys.
func NewCache(fsys fs.FS, opts Options) *Cache {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		fsys:     fsys,
		sem:      semaphore.NewWeighted(opts.Workers),
		maxSize:  opts.MaxSize,
		log:      opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
		textures: make(map[string]*Texture),
	}
}

// Request returns the texture for p, starting a decode on first use.
// A texture that failed is dropped and decoded again under a new handle;
// materials built earlier keep the failed one. An empty path yields nil.
func (c *Cache) Request(p string) *Texture {
	if p == "" {
		return nil
	}
	p = path.Clean(p)

	c.mu.Lock()
	defer c.mu.Unlock()

	if tex, ok := c.textures[p]; ok && tex.State != Failed {
		c.hits++
		return tex
	}
	c.misses++

	tex := &Texture{Path: p, State: Pending}
	c.textures[p] = tex
	c.wg.Add(1)
	go c.load(tex)
	return tex
}

func (c *Cache) load(tex *Texture) {
	defer c.wg.Done()

	if err := c.sem.Acquire(c.ctx, 1); err != nil {
		c.finish(result{tex: tex, err: err})
		return
	}
	defer c.sem.Release(1)

	data, err := fs.ReadFile(c.fsys, tex.Path)
	if err != nil {
		c.finish(result{tex: tex, err: fmt.Errorf("reading texture %s: %w", tex.Path, err)})
		return
	}
	img, err := Decode(tex.Path, data, c.maxSize)
	if err != nil {
		err = fmt.Errorf("texture %s: %w", tex.Path, err)
	}
	c.finish(result{tex: tex, img: img, err: err})
}

func (c *Cache) finish(r result) {
	c.mu.Lock()
	c.done = append(c.done, r)
	c.mu.Unlock()
}

// Poll publishes finished decodes and returns the textures that changed
// state. Call it from the render thread once per frame.
func (c *Cache) Poll() []*Texture {
	c.mu.Lock()
	done := c.done
	c.done = nil
	for _, r := range done {
		if r.err != nil {
			r.tex.State = Failed
			r.tex.Err = r.err
		} else {
			r.tex.State = Ready
			r.tex.Image = r.img
		}
	}
	c.mu.Unlock()

	if len(done) == 0 {
		return nil
	}
	changed := make([]*Texture, 0, len(done))
	for _, r := range done {
		if r.err != nil {
			if !errors.Is(r.err, context.Canceled) {
				c.log.Warn("texture load failed, rendering untextured", zap.String("path", r.tex.Path), zap.Error(r.err))
			}
		} else {
			c.log.Debug("texture ready",
				zap.String("path", r.tex.Path),
				zap.Int("width", r.img.Bounds().Dx()),
				zap.Int("height", r.img.Bounds().Dy()))
		}
		changed = append(changed, r.tex)
	}
	return changed
}

// Wait blocks until every started decode has finished or ctx is done.
// Results still need a Poll to be published.
func (c *Cache) Wait(ctx context.Context) error {
	ch := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(ch)
	}()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of requests not yet published by Poll.
func (c *Cache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, tex := range c.textures {
		if tex.State == Pending {
			n++
		}
	}
	return n
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Close abandons queued decodes and waits for running ones to stop.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}
