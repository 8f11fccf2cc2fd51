package api

import (
	"FlowTagger/internal/engine/aggregator"
	"FlowTagger/internal/lookup"
	"FlowTagger/internal/report"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/protobuf/encoding/protojson"
)

// Handler holds the dependencies for API handlers.
// The tables are read-only, so one Handler serves concurrent requests.
type Handler struct {
	protocols    *lookup.ProtocolTable
	classes      *lookup.ClassificationTable
	agg          *aggregator.Aggregator
	maxBodyBytes int64
}

// NewHandler creates a Handler over loaded tables. Request bodies larger than maxBodyBytes are rejected.
func NewHandler(protocols *lookup.ProtocolTable, classes *lookup.ClassificationTable, maxBodyBytes int64) (*Handler, error) {
	agg, err := aggregator.New(protocols, classes)
	if err != nil {
		return nil, err
	}
	return &Handler{protocols: protocols, classes: classes, agg: agg, maxBodyBytes: maxBodyBytes}, nil
}

// Router returns the routes served by the API.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/protocols/{id}", h.resolveProtocolHandler).Methods("GET")
	r.HandleFunc("/api/v1/classify", h.classifyHandler).Methods("GET")
	r.HandleFunc("/api/v1/aggregate", h.aggregateHandler).Methods("POST")
	r.Use(loggingMiddleware)
	return r
}

// ProtocolResponse is returned by the protocol lookup route.
type ProtocolResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClassifyResponse is returned by the classify route.
type ClassifyResponse struct {
	Port     uint16 `json:"port"`
	Protocol string `json:"protocol"`
	Tag      string `json:"tag"`
}

// resolveProtocolHandler maps a numeric protocol id to its name.
func (h *Handler) resolveProtocolHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	writeJSON(w, ProtocolResponse{ID: id, Name: h.protocols.Resolve(id)})
}

// classifyHandler looks up the tag for a port and protocol name.
func (h *Handler) classifyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	port, err := strconv.ParseUint(q.Get("port"), 10, 16)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid port %q", q.Get("port")), http.StatusBadRequest)
		return
	}
	protocol := strings.ToLower(q.Get("protocol"))
	if protocol == "" {
		http.Error(w, "protocol is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, ClassifyResponse{
		Port:     uint16(port),
		Protocol: protocol,
		Tag:      h.classes.Classify(uint16(port), protocol),
	})
}

// aggregateHandler aggregates the flow log lines in the request body.
// It answers with the text report when the client accepts text/plain and with JSON otherwise.
func (h *Handler) aggregateHandler(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	result, err := h.agg.Process(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/plain") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := report.Render(w, result); err != nil {
			log.Printf("Error writing report response: %v", err)
		}
		return
	}

	payload, err := report.ToStruct(result, "")
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to build response: %v", err), http.StatusInternalServerError)
		return
	}
	delete(payload.Fields, "run_id")

	jsonBytes, err := protojson.Marshal(payload)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
	})
}
