package render

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/observability"
)

// Engine is a Graphviz force-directed layout engine.
type Engine string

const (
	Neato Engine = "neato"
	FDP   Engine = "fdp"
)

// ParseEngine validates an engine name.
func ParseEngine(name string) (Engine, error) {
	switch e := Engine(strings.ToLower(name)); e {
	case Neato, FDP:
		return e, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown layout engine %q (want neato or fdp)", name)
	}
}

// plainFormat is Graphviz's line-oriented layout dump. Coordinates are in
// inches.
const plainFormat graphviz.Format = "plain"

const pointsPerInch = 72

// RenderSVG lays out a DOT graph with engine and renders it to SVG.
func RenderSVG(ctx context.Context, dot string, engine Engine) ([]byte, error) {
	start := time.Now()
	out, err := run(ctx, dot, engine, graphviz.SVG)
	if err == nil {
		out = normalizeViewBox(out)
	}
	observability.Render().OnRender(ctx, "svg", len(out), time.Since(start), err)
	return out, err
}

// RenderPNG lays out a DOT graph with engine and renders it to PNG.
func RenderPNG(ctx context.Context, dot string, engine Engine) ([]byte, error) {
	start := time.Now()
	out, err := run(ctx, dot, engine, graphviz.PNG)
	observability.Render().OnRender(ctx, "png", len(out), time.Since(start), err)
	return out, err
}

func run(ctx context.Context, dot string, engine Engine, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(engine))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// GraphvizSimulation lays out scenes with a Graphviz force-directed engine.
//
// Each Step is a full layout run seeded with the previous positions, so
// the diagram settles after the first tick and later ticks only move nodes
// that were released or added.
type GraphvizSimulation struct {
	Engine Engine
}

// NewGraphvizSimulation returns a simulation using engine (neato if empty).
func NewGraphvizSimulation(engine Engine) *GraphvizSimulation {
	if engine == "" {
		engine = Neato
	}
	return &GraphvizSimulation{Engine: engine}
}

// Restart implements [Simulation]. Scenes arrive unplaced after a rebuild,
// so there is no state to reset.
func (s *GraphvizSimulation) Restart(Scene) {}

// Step implements [Simulation].
func (s *GraphvizSimulation) Step(ctx context.Context, scene Scene) (map[string]Point, error) {
	if len(scene.Nodes) == 0 {
		return map[string]Point{}, nil
	}
	out, err := run(ctx, ToDOT(scene, DOTOptions{Layout: true}), s.Engine, plainFormat)
	if err != nil {
		return nil, err
	}
	return parsePlain(out)
}

// parsePlain reads node positions from Graphviz "plain" output:
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 ... xn yn [label xl yl] style color
//	stop
func parsePlain(data []byte) (map[string]Point, error) {
	pos := map[string]Point{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		fields := splitPlain(sc.Text())
		if len(fields) < 4 || fields[0] != "node" {
			continue
		}
		x, errX := strconv.ParseFloat(fields[2], 64)
		y, errY := strconv.ParseFloat(fields[3], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("plain output: bad position for node %s", fields[1])
		}
		pos[fields[1]] = Point{X: x * pointsPerInch, Y: y * pointsPerInch}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pos, nil
}

// splitPlain splits a plain-format line on spaces, honoring double-quoted
// fields with backslash escapes.
func splitPlain(line string) []string {
	var (
		fields []string
		cur    strings.Builder
		quoted bool
		inTok  bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quoted && c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == '"':
			quoted = !quoted
			inTok = true
		case c == ' ' && !quoted:
			if inTok {
				fields = append(fields, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteByte(c)
			inTok = true
		}
	}
	if inTok {
		fields = append(fields, cur.String())
	}
	return fields
}
