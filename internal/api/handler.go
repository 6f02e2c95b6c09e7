// Package api exposes the secure storage façade over a localhost HTTP
// API and an MCP server.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/lockbox/internal/secure"
)

const maxWriteBodySize = 1 << 20 // 1MB

// Deps holds dependencies for the HTTP API.
type Deps struct {
	Store *secure.Storage
	Token string
}

// WriteRequest is the PUT body. A null value deletes the key, matching
// the façade's write semantics.
type WriteRequest struct {
	Value *string `json:"value"`
}

func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/secrets", handleReadAll(deps))
		r.Delete("/secrets", handleDeleteAll(deps))
		r.Get("/secrets/{key}", handleRead(deps))
		r.Put("/secrets/{key}", handleWrite(deps))
		r.Delete("/secrets/{key}", handleDelete(deps))
		r.Get("/secrets/{key}/exists", handleExists(deps))
		r.Get("/secrets/{key}/watch", handleWatch(deps))
	})

	return r
}

func handleReadAll(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := deps.Store.ReadAll(r.Context(), nil)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "reading secrets: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(all)
	}
}

func handleDeleteAll(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.DeleteAll(r.Context(), nil); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting secrets: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRead(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		value, err := deps.Store.Read(r.Context(), key, nil)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "reading secret: %v", err)
			return
		}
		if value == nil {
			httpError(w, http.StatusNotFound, "not_found_error", "no secret stored for key %q", key)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"key": key, "value": *value})
	}
}

func handleWrite(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		r.Body = http.MaxBytesReader(w, r.Body, maxWriteBodySize)
		defer r.Body.Close()

		var req WriteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if err := deps.Store.Write(r.Context(), key, req.Value, nil); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "writing secret: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDelete(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if err := deps.Store.Delete(r.Context(), key, nil); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting secret: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleExists(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		exists, err := deps.Store.ContainsKey(r.Context(), key, nil)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "checking secret: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"exists": exists})
	}
}

// handleWatch streams change events for a key as server-sent events.
// The first event carries the current value; subsequent events are fed
// by a listener registered for the duration of the request.
func handleWatch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		flusher, ok := w.(http.Flusher)
		if !ok {
			httpError(w, http.StatusInternalServerError, "api_error", "streaming not supported")
			return
		}

		current, err := deps.Store.Read(r.Context(), key, nil)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "reading secret: %v", err)
			return
		}

		// Buffered so listener invocation never blocks a mutation;
		// a slow client loses intermediate events, not the stream.
		events := make(chan *string, 16)
		listener := secure.Listener(func(v *string) {
			select {
			case events <- v:
			default:
			}
		})
		deps.Store.Registry().Register(key, listener)
		defer deps.Store.Registry().Unregister(key, listener)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)

		writeEvent(w, current)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case v := <-events:
				writeEvent(w, v)
				flusher.Flush()
			}
		}
	}
}

func writeEvent(w io.Writer, value *string) {
	payload, err := json.Marshal(map[string]*string{"value": value})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
