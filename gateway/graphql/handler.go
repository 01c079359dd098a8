package graphql

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	gql "github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// maxRequestBytes caps the size of a POST body.
const maxRequestBytes = 1 << 20

// Request is a GraphQL request as sent over HTTP.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// Handler serves GraphQL over HTTP. GET is accepted for queries only;
// mutations must be sent with POST.
type Handler struct {
	schema     *gql.Schema
	timeout    time.Duration
	logger     *slog.Logger
	playground http.Handler
}

// NewHandler creates an HTTP handler executing requests against schema.
func NewHandler(schema *gql.Schema, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		schema:  schema,
		timeout: cfg.Timeout(),
		logger:  logger.With("component", "graphql-handler"),
	}
	if cfg.EnablePlayground {
		h.playground = playground.Handler("Tasks", cfg.Path)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		req Request
		ok  bool
	)

	switch r.Method {
	case http.MethodGet:
		// A browser hitting the endpoint without a query gets the playground.
		if h.playground != nil && r.URL.Query().Get("query") == "" && acceptsHTML(r) {
			h.playground.ServeHTTP(w, r)
			return
		}
		req, ok = h.decodeGet(w, r)
	case http.MethodPost:
		req, ok = h.decodePost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeTransportError(w, http.StatusMethodNotAllowed, CodeBadRequest,
			"GraphQL only supports GET and POST requests.")
		return
	}
	if !ok {
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeTransportError(w, http.StatusBadRequest, CodeBadRequest, "Must provide query string.")
		return
	}

	if r.Method == http.MethodGet && isMutation(req) {
		w.Header().Set("Allow", "POST")
		writeTransportError(w, http.StatusMethodNotAllowed, CodeBadRequest,
			"Can only perform a mutation operation from a POST request.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := h.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)

	status := http.StatusOK
	if len(resp.Errors) > 0 && len(resp.Data) == 0 {
		status = http.StatusBadRequest
	}

	body, err := json.Marshal(resp)
	if err != nil {
		loggerFrom(ctx, h.logger).Error("Failed to encode response", "error", err)
		writeTransportError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) decodeGet(w http.ResponseWriter, r *http.Request) (Request, bool) {
	q := r.URL.Query()
	req := Request{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if vars := q.Get("variables"); vars != "" {
		if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
			writeTransportError(w, http.StatusBadRequest, CodeBadRequest, "Variables are invalid JSON.")
			return req, false
		}
	}
	return req, true
}

func (h *Handler) decodePost(w http.ResponseWriter, r *http.Request) (Request, bool) {
	var req Request
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeTransportError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "Request body too large.")
		return req, false
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/graphql":
		req.Query = string(body)
	case "application/json", "":
		if err := json.Unmarshal(body, &req); err != nil {
			writeTransportError(w, http.StatusBadRequest, CodeBadRequest, "POST body sent invalid JSON.")
			return req, false
		}
	default:
		writeTransportError(w, http.StatusUnsupportedMediaType, CodeBadRequest,
			"Unsupported content type "+mediaType+".")
		return req, false
	}

	// URL parameters fill in what the body leaves out.
	q := r.URL.Query()
	if req.Query == "" {
		req.Query = q.Get("query")
	}
	if req.OperationName == "" {
		req.OperationName = q.Get("operationName")
	}
	return req, true
}

// isMutation reports whether the selected operation is a mutation. Documents
// that do not parse are left to the executor to report.
func isMutation(req Request) bool {
	doc, err := parser.ParseQuery(&ast.Source{Input: req.Query})
	if err != nil {
		return false
	}
	op := doc.Operations.ForName(req.OperationName)
	return op != nil && op.Operation == ast.Mutation
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
