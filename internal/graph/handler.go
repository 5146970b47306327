package graph

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"shop-admin/internal/observability"
)

const maxJSONBodyBytes = 1 << 20

// Handler serves POST /graphql. Execution errors are reported inside the
// response body with status 200; only malformed requests and throttled
// credential attempts change the status code.
type Handler struct {
	schema  *Schema
	logger  *observability.Logger
	proxies *observability.TrustedProxies
}

func NewHandler(schema *Schema, logger *observability.Logger) *Handler {
	return &Handler{schema: schema, logger: logger}
}

// WithTrustedProxies sets whose X-Forwarded-For decides the client address
// that credential attempts are throttled by. By default nobody's is.
func (h *Handler) WithTrustedProxies(proxies *observability.TrustedProxies) *Handler {
	h.proxies = proxies
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer r.Body.Close()

	var request Request
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(request.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	request.Variables = normalizeNumbers(request.Variables)

	meta := &requestMeta{clientIP: h.proxies.ClientIP(r)}
	result := h.schema.Execute(withRequestMeta(r.Context(), meta), request)

	status := http.StatusOK
	if delay := meta.retryAfterDelay(); delay > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
		status = http.StatusTooManyRequests
	}

	writeJSON(w, status, result)
}

// normalizeNumbers turns json.Number variables into int or float64, which is
// what the executor coerces Int and Float arguments from.
func normalizeNumbers(variables map[string]interface{}) map[string]interface{} {
	for key, value := range variables {
		variables[key] = normalizeNumber(value)
	}
	return variables
}

func normalizeNumber(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if i, err := strconv.Atoi(v.String()); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case map[string]interface{}:
		return normalizeNumbers(v)
	case []interface{}:
		for i := range v {
			v[i] = normalizeNumber(v[i])
		}
		return v
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
