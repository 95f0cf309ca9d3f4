package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"petrovrp/internal/broker"
	"petrovrp/internal/buildinfo"
	"petrovrp/internal/config"
	"petrovrp/internal/gen"
	"petrovrp/internal/logger"
	"petrovrp/internal/service"
)

const heartbeatInterval = 15 * time.Second

// CreateInstanceHandler generates one instance from a JSON config.
func (s *Server) CreateInstanceHandler(w http.ResponseWriter, r *http.Request) {
	var cfg gen.Config
	if err := readJSON(w, r, &cfg); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	res, err := s.Instances.Generate(r.Context(), cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/instances/"+res.ID)
	writeJSON(w, http.StatusCreated, res)
}

// CreateBatchHandler generates a batch given as JSON or, with a YAML
// content type, in the batch file format.
func (s *Server) CreateBatchHandler(w http.ResponseWriter, r *http.Request) {
	var (
		b   config.Batch
		err error
	)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/yaml", "application/x-yaml", "text/yaml":
		b, err = config.ParseBatch(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	default:
		err = readJSON(w, r, &b)
		if err == nil && len(b.Instances) == 0 {
			err = fmt.Errorf("batch has no instances")
		}
	}
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid batch", err.Error(), r.URL.Path)
		return
	}
	results, err := s.Instances.GenerateBatch(r.Context(), b.Resolved())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"items": results})
}

func (s *Server) ListInstancesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer", r.URL.Path)
			return
		}
		limit = n
	}
	items, next, err := s.Instances.List(r.Context(), q.Get("cursor"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

func (s *Server) GetInstanceHandler(w http.ResponseWriter, r *http.Request) {
	inst, err := s.Instances.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) DifficultiesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": service.Difficulties(), "minFleetSize": gen.MinFleetSize})
}

// EventsStreamHandler streams instance events as server-sent events, with
// a heartbeat when the stream is idle.
func (s *Server) EventsStreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(broker.Topic)
	defer s.Broker.Unsubscribe(broker.Topic, ch)

	writeHeartbeat(w)
	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, err := sonic.Marshal(evt.Data)
			if err != nil {
				logger.Warnf(r.Context(), "sse encode %s: %v", evt.Type, err)
				continue
			}
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-time.After(heartbeatInterval):
			writeHeartbeat(w)
			flusher.Flush()
		}
	}
}

func writeHeartbeat(w http.ResponseWriter) {
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"ts\":%q}\n\n", time.Now().UTC().Format(time.RFC3339))
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

// ReadyHandler pings every registered dependency.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	for name, p := range s.Ready {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", name+": "+err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
