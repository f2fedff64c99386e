package render

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kgviz/pkg/cache"
	"github.com/matzehuels/kgviz/pkg/observability"
)

// Format is an output format of [Draw].
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatDOT Format = "dot"
)

// Drawer renders scenes, caching the output by a hash of the DOT source.
type Drawer struct {
	Engine Engine
	Cache  cache.Cache
	TTL    time.Duration
	Logger *log.Logger
}

// Draw renders scene in format. Identical scenes are served from the cache.
// Cache failures are logged and otherwise ignored.
func (d *Drawer) Draw(ctx context.Context, scene Scene, format Format, opts DOTOptions) ([]byte, error) {
	data, _, err := d.DrawCached(ctx, scene, format, opts)
	return data, err
}

// DrawCached is Draw that also reports whether the output came from the cache.
func (d *Drawer) DrawCached(ctx context.Context, scene Scene, format Format, opts DOTOptions) ([]byte, bool, error) {
	opts.Layout = false
	dot := ToDOT(scene, opts)
	if format == FormatDOT {
		return []byte(dot), false, nil
	}

	c := d.Cache
	if c == nil {
		c = cache.NewNullCache()
	}
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	engine := d.Engine
	if engine == "" {
		engine = Neato
	}

	kind := string(format)
	key := cache.Key(kind, string(engine), dot)
	hooks := observability.Cache()

	data, ok, err := c.Get(ctx, key)
	if err != nil {
		logger.Warn("render cache read failed", "err", err)
	}
	if ok {
		hooks.OnCacheHit(ctx, kind)
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, kind)

	switch format {
	case FormatPNG:
		data, err = RenderPNG(ctx, dot, engine)
	default:
		data, err = RenderSVG(ctx, dot, engine)
	}
	if err != nil {
		return nil, false, err
	}

	if err := c.Set(ctx, key, data, d.TTL); err != nil {
		logger.Warn("render cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, kind, len(data))
	}
	return data, false, nil
}
