package highlight

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/scanner"
)

// MarkerCountHeader carries the number of markers in a highlighted page.
const MarkerCountHeader = "X-Legal-Terms"

const maxPageBytes = 10 << 20

// RegisterRoutes mounts the page highlighting endpoint. Each request scans
// against the glossary currently held by holder.
func RegisterRoutes(r chi.Router, holder *glossary.Holder, injectStyles bool, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.Post("/api/highlight", func(w http.ResponseWriter, req *http.Request) {
		src, err := io.ReadAll(io.LimitReader(req.Body, maxPageBytes+1))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
			return
		}
		if len(src) > maxPageBytes {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "page too large"})
			return
		}

		if mt, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type")); mt == "text/markdown" {
			if src, err = FromMarkdown(src); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
		}

		h := New(scanner.NewDetector(holder.Current()), logger)
		opts := []Option{WithLogger(logger)}
		if injectStyles {
			opts = append(opts, WithStyles())
		}
		doc, err := ParseString(string(src), h, opts...)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		doc.Scan()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set(MarkerCountHeader, strconv.Itoa(len(doc.Markers())))
		w.WriteHeader(http.StatusOK)
		if err := doc.Render(w); err != nil {
			logger.Warn("rendering highlighted page", zap.Error(err))
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
