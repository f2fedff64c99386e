package render

import (
	"context"
	"testing"

	"github.com/matzehuels/kgviz/pkg/cache"
	"github.com/matzehuels/kgviz/pkg/graph"
)

func TestDrawDOTSkipsGraphviz(t *testing.T) {
	d := &Drawer{}
	s := Scene{Nodes: []NodeElement{{Entity: graph.Entity{ID: "a", Name: "A"}, Color: FallbackColor}}}
	out, err := d.Draw(context.Background(), s, FormatDOT, DOTOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != ToDOT(s, DOTOptions{}) {
		t.Errorf("Draw(dot) = %s", out)
	}
}

func TestDrawServesFromCache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := Scene{Nodes: []NodeElement{{Entity: graph.Entity{ID: "a", Name: "A"}, Color: FallbackColor}}}

	key := cache.Key("svg", string(Neato), ToDOT(s, DOTOptions{}))
	if err := fc.Set(ctx, key, []byte("<svg>cached</svg>"), 0); err != nil {
		t.Fatal(err)
	}

	d := &Drawer{Engine: Neato, Cache: fc}
	out, err := d.Draw(ctx, s, FormatSVG, DOTOptions{Layout: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "<svg>cached</svg>" {
		t.Errorf("Draw() = %s, want cached bytes", out)
	}
}

func TestDrawCachedReportsHit(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := Scene{}
	if err := fc.Set(ctx, cache.Key("png", string(FDP), ToDOT(s, DOTOptions{})), []byte("png"), 0); err != nil {
		t.Fatal(err)
	}

	d := &Drawer{Engine: FDP, Cache: fc}
	_, hit, err := d.DrawCached(ctx, s, FormatPNG, DOTOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("DrawCached() hit = false, want true")
	}
}
