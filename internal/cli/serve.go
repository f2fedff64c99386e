package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/kgviz/pkg/command"
	"github.com/matzehuels/kgviz/pkg/observability"
	"github.com/matzehuels/kgviz/pkg/render"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the "serve" command, a local viewer for the diagram.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		engine  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an interactive diagram on localhost",
		Long: `Start a local web viewer for the graph.

The page shows the rendered SVG. Drag a node to move it; hold shift while
releasing to keep it pinned. "Step" advances the layout and "Reload" fetches
the graph from the backend again. Prometheus metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Serve.Addr
			}
			if engine == "" {
				engine = cfg.Render.Engine
			}
			eng, err := render.ParseEngine(engine)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			col := observability.NewCollector(appName)
			observability.SetHTTPHooks(col)
			observability.SetRenderHooks(col)
			observability.SetCacheHooks(col)
			defer observability.Reset()

			cmds := c.newCommands(cfg)
			unsubscribe := cmds.Store().Subscribe(col.ObserveGraph)
			defer unsubscribe()

			rc := c.newCache(ctx, cfg, noCache)
			defer rc.Close()

			v := newViewer(viewerOptions{
				Commands:  cmds,
				Sim:       render.NewGraphvizSimulation(eng),
				Drawer:    &render.Drawer{Engine: eng, Cache: rc, TTL: cfg.Cache.TTL.Duration, Logger: c.Logger},
				Collector: col,
				Logger:    c.Logger,
			})
			defer v.Close()

			// A failed first load leaves an empty diagram; /reload retries.
			if err := v.reload(ctx); err != nil {
				c.Logger.Warn("initial load failed", "err", err)
			}
			return v.listen(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVarP(&engine, "engine", "e", "", "layout engine: neato or fdp")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}

// =============================================================================
// Viewer
// =============================================================================

type viewerOptions struct {
	Commands  *command.Commands
	Sim       render.Simulation
	Drawer    *render.Drawer
	Collector *observability.Collector
	Logger    *log.Logger
}

// viewer serves one renderer over HTTP. Reloads are serialized; everything
// else relies on the renderer's own locking.
type viewer struct {
	cmds     *command.Commands
	renderer *render.Renderer
	drawer   *render.Drawer
	metrics  http.Handler
	logger   *log.Logger
	reloadMu sync.Mutex
}

func newViewer(opts viewerOptions) *viewer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	v := &viewer{
		cmds:     opts.Commands,
		renderer: render.NewRenderer(opts.Commands.Store(), opts.Sim, logger),
		drawer:   opts.Drawer,
		logger:   logger,
		metrics:  http.NotFoundHandler(),
	}
	if opts.Collector != nil {
		v.metrics = opts.Collector.Handler()
	}
	return v
}

// Close detaches the renderer from the store.
func (v *viewer) Close() { v.renderer.Close() }

// reload fetches the graph and lays it out once.
func (v *viewer) reload(ctx context.Context) error {
	v.reloadMu.Lock()
	defer v.reloadMu.Unlock()
	if err := v.cmds.Reload(ctx); err != nil {
		return err
	}
	return v.renderer.Tick(ctx)
}

func (v *viewer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(v.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", v.handleIndex)
	r.Get("/graph.json", v.handleScene)
	r.Get("/graph.svg", v.handleSVG)
	r.Post("/tick", v.handleTick)
	r.Post("/reload", v.handleReload)
	r.Post("/nodes/{id}/pin", v.handlePin)
	r.Delete("/nodes/{id}/pin", v.handleUnpin)
	r.Method(http.MethodGet, "/metrics", v.metrics)
	return r
}

// listen serves until ctx is cancelled, then shuts down gracefully.
func (v *viewer) listen(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           v.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	printSuccess("Viewer running at http://%s", addr)
	printDetail("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		return err
	}
	v.logger.Info("viewer stopped")
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

// sceneJSON is the /graph.json view of a scene.
type sceneJSON struct {
	Nodes []nodeJSON `json:"nodes"`
	Links []linkJSON `json:"links"`
}

type nodeJSON struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type,omitempty"`
	Color  string  `json:"color"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Placed bool    `json:"placed"`
	Pinned bool    `json:"pinned"`
}

type linkJSON struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Broken bool   `json:"broken,omitempty"`
}

func toSceneJSON(s render.Scene) sceneJSON {
	out := sceneJSON{
		Nodes: make([]nodeJSON, 0, len(s.Nodes)),
		Links: make([]linkJSON, 0, len(s.Links)),
	}
	for _, n := range s.Nodes {
		out.Nodes = append(out.Nodes, nodeJSON{
			ID:     n.Entity.ID,
			Name:   n.Entity.Label(),
			Type:   n.Entity.Type,
			Color:  n.Color,
			X:      n.Pos.X,
			Y:      n.Pos.Y,
			Placed: n.Placed,
			Pinned: n.Pinned(),
		})
	}
	for _, l := range s.Links {
		out.Links = append(out.Links, linkJSON{
			ID:     l.Relationship.ID.String(),
			Source: l.Relationship.Source,
			Target: l.Relationship.Target,
			Type:   l.Relationship.Type,
			Broken: l.Broken,
		})
	}
	return out
}

func (v *viewer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (v *viewer) handleScene(w http.ResponseWriter, r *http.Request) {
	v.writeJSON(w, http.StatusOK, toSceneJSON(v.renderer.Scene()))
}

func (v *viewer) handleSVG(w http.ResponseWriter, r *http.Request) {
	data, err := v.drawer.Draw(r.Context(), v.renderer.Scene(), render.FormatSVG, render.DOTOptions{
		Detailed: r.URL.Query().Get("detailed") == "1",
	})
	if err != nil {
		v.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (v *viewer) handleTick(w http.ResponseWriter, r *http.Request) {
	if err := v.renderer.Tick(r.Context()); err != nil {
		v.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	v.writeJSON(w, http.StatusOK, toSceneJSON(v.renderer.Scene()))
}

func (v *viewer) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := v.reload(r.Context()); err != nil {
		v.writeError(w, r, http.StatusBadGateway, err)
		return
	}
	v.writeJSON(w, http.StatusOK, toSceneJSON(v.renderer.Scene()))
}

// handlePin pins a node. Without x and y the node is pinned where it is.
func (v *viewer) handlePin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()

	var ok bool
	if q.Has("x") || q.Has("y") {
		x, errX := strconv.ParseFloat(q.Get("x"), 64)
		y, errY := strconv.ParseFloat(q.Get("y"), 64)
		if err := errors.Join(errX, errY); err != nil {
			v.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		if !finite(x) || !finite(y) {
			v.writeError(w, r, http.StatusBadRequest, errors.New("pin coordinates must be finite"))
			return
		}
		ok = v.renderer.Drag(id, x, y)
	} else {
		ok = v.renderer.DragStart(id)
	}
	if !ok {
		v.writeError(w, r, http.StatusNotFound, errors.New("no such node: "+id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (v *viewer) handleUnpin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !v.renderer.DragEnd(id) {
		v.writeError(w, r, http.StatusNotFound, errors.New("no such node: "+id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// writeJSON encodes body before sending the status, so an encoding failure
// becomes a 500 instead of a truncated 200.
func (v *viewer) writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		v.logger.Error("encode response", "err", err)
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		v.logger.Warn("write response", "err", err)
	}
}

func (v *viewer) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		v.logger.Error("viewer request failed", "path", r.URL.Path, "err", err,
			"request_id", middleware.GetReqID(r.Context()))
	}
	v.writeJSON(w, status, map[string]string{"error": err.Error()})
}
