package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowspace/pkg/buildinfo"
	flowerrors "github.com/matzehuels/flowspace/pkg/errors"
	"github.com/matzehuels/flowspace/pkg/frame"
	"github.com/matzehuels/flowspace/pkg/pipeline"
	"github.com/matzehuels/flowspace/pkg/render/nodelink"
)

// maxBody bounds request bodies.
const maxBody = 1 << 16

// Handler returns the HTTP API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handle(s.getHealth))
		r.Get("/frame", s.handle(s.getFrame))
		r.Put("/view", s.handle(s.putView))
		r.Route("/flowcharts", func(r chi.Router) {
			r.Get("/", s.handle(s.listFlowcharts))
			r.Get("/{id}", s.handle(s.getFlowchart))
			r.Get("/{id}/render", s.handle(s.renderFlowchart))
			r.Post("/{id}/isolate", s.handle(s.postIsolate))
		})
	})
	return r
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) error {
	var tick uint64
	if f, ok := s.Latest(); ok {
		tick = f.Tick
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    buildinfo.Read().Version,
		"tick":       tick,
		"flowcharts": s.scene.Len(),
	})
	return nil
}

func (s *Server) latestFrame() (*frame.Frame, error) {
	f, ok := s.Latest()
	if !ok {
		return nil, ErrNoFrame
	}
	return f, nil
}

func (s *Server) getFrame(w http.ResponseWriter, r *http.Request) error {
	f, err := s.latestFrame()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, f)
	return nil
}

// Summary describes one flowchart without its entities.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Index     int    `json:"index"`
	Nodes     int    `json:"nodes"`
	Subgraphs int    `json:"subgraphs"`
	Edges     int    `json:"edges"`
	Isolated  string `json:"isolated,omitempty"`
}

func (s *Server) listFlowcharts(w http.ResponseWriter, r *http.Request) error {
	out := []Summary{}
	if f, ok := s.Latest(); ok {
		for _, fc := range f.Flowcharts {
			out = append(out, Summary{
				ID:        fc.ID,
				Name:      fc.Name,
				Index:     fc.Index,
				Nodes:     len(fc.Nodes),
				Subgraphs: len(fc.Subgraphs),
				Edges:     len(fc.Edges),
				Isolated:  fc.Isolated,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) flowchart(r *http.Request) (*frame.Flowchart, error) {
	f, err := s.latestFrame()
	if err != nil {
		return nil, err
	}
	key := chi.URLParam(r, "id")
	if err := flowerrors.ValidateKey("flowchart", key); err != nil {
		return nil, err
	}
	fc, ok := f.Find(key)
	if !ok {
		return nil, errUnknownFlowchart(key)
	}
	return fc, nil
}

func (s *Server) getFlowchart(w http.ResponseWriter, r *http.Request) error {
	fc, err := s.flowchart(r)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, fc)
	return nil
}

var contentTypes = map[string]string{
	pipeline.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
}

func (s *Server) renderFlowchart(w http.ResponseWriter, r *http.Request) error {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if _, ok := contentTypes[format]; !ok {
		return badRequest("unsupported format %q (want dot, svg or png)", format)
	}
	fc, err := s.flowchart(r)
	if err != nil {
		return err
	}

	opts := pipeline.RenderOptions{
		Format:  format,
		Options: nodelink.Options{Detailed: r.URL.Query().Has("detailed"), ShowHidden: r.URL.Query().Has("hidden")},
	}
	data, err := pipeline.Render(r.Context(), frame.Frame{Flowcharts: []frame.Flowchart{*fc}}, opts)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(data)
	return nil
}

type isolateRequest struct {
	Entity string `json:"entity"`
}

func (s *Server) postIsolate(w http.ResponseWriter, r *http.Request) error {
	var req isolateRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	key := chi.URLParam(r, "id")
	if err := flowerrors.ValidateKey("flowchart", key); err != nil {
		return err
	}
	if req.Entity != "" {
		if err := flowerrors.ValidateKey("entity", req.Entity); err != nil {
			return err
		}
	}
	if err := s.Isolate(r.Context(), key, req.Entity); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type viewRequest struct {
	Orientation frame.Quat `json:"orientation"`
}

func (s *Server) putView(w http.ResponseWriter, r *http.Request) error {
	var req viewRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := s.SetView(r.Context(), req.Orientation.Number()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// decode reads a JSON body into v. An empty body leaves v zero.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
