// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"propfeed/internal/app"
	"propfeed/internal/domain"
)

const maxUploadBytes = 10 << 20

type Handlers struct {
	Imports *app.ImportService
	Q       *app.QueryService
	FX      *app.CurrencyService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/v1/feeds/template", h.template)
	s.mux.With(MaxBody(maxUploadBytes)).Post("/v1/feeds/csv", h.importCSV)
	s.mux.Get("/v1/properties", h.listProperties)
	s.mux.Get("/v1/properties/{id}", h.getProperty)
	s.mux.Get("/v1/rates", h.rates)
	s.mux.Get("/v1/convert", h.convert)
	s.mux.Get("/v1/markets", h.markets)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

func (h *Handlers) template(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="property_import_template.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, app.GenerateTemplate())
}

// readUpload accepts a raw CSV body or a multipart "file" field.
func readUpload(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			return "", err
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		return string(b), err
	}
	b, err := io.ReadAll(r.Body)
	return string(b), err
}

func (h *Handlers) importCSV(w http.ResponseWriter, r *http.Request) {
	raw, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "Upload too large", "limit is 10 MiB")
			return
		}
		writeProblem(w, http.StatusBadRequest, "Invalid upload", err.Error())
		return
	}
	if strings.TrimSpace(raw) == "" {
		writeProblem(w, http.StatusBadRequest, "Empty upload", "expected CSV with a header row")
		return
	}

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	res, err := h.Imports.Import(r.Context(), raw, dryRun)
	if err != nil {
		log.Error().Err(err).Msg("import failed")
		writeProblem(w, http.StatusInternalServerError, "Import failed", "could not store properties")
		return
	}
	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	pv, err := h.Q.GetProperty(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("currency"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
			return
		}
		log.Error().Err(err).Msg("get property failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeCacheable(w, r, pv)
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	limit := 50
	if ls := qs.Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	q := domain.PropertyQuery{
		Country:      qs.Get("country"),
		City:         qs.Get("city"),
		PropertyType: qs.Get("type"),
		Status:       qs.Get("status"),
		Limit:        limit,
	}
	out, err := h.Q.ListProperties(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("list properties failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if out.Items == nil {
		out.Items = []domain.PropertyFeedRecord{}
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) rates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"base":  domain.CanonicalCurrency,
		"rates": h.FX.Rates(r.Context()),
	})
}

type conversion struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
	Label  string  `json:"label"`
}

func (h *Handlers) convert(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	amount, err := strconv.ParseFloat(qs.Get("amount"), 64)
	if err != nil || amount < 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid amount", "amount must be a non-negative number")
		return
	}
	code := func(k string) string {
		if v := strings.ToUpper(strings.TrimSpace(qs.Get(k))); v != "" {
			return v
		}
		return domain.CanonicalCurrency
	}
	from, to := code("from"), code("to")

	aed := h.FX.ToCanonical(r.Context(), amount, from)
	res := h.FX.FromCanonical(r.Context(), aed, to)
	writeJSON(w, http.StatusOK, conversion{
		Amount: amount, From: from, To: to, Result: res,
		Label: app.FormatWithSymbol(res, to),
	})
}

func (h *Handlers) markets(w http.ResponseWriter, r *http.Request) {
	writeCacheable(w, r, domain.SupportedMarkets)
}
