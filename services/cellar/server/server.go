package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"cavescout/lib/scrapers/leclerc"
	"cavescout/services/cellar"
	"cavescout/services/enrich"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("services/cellar/server")

var wineTypes = map[string]struct{}{
	leclerc.WineTypeRed:       {},
	leclerc.WineTypeWhite:     {},
	leclerc.WineTypeRose:      {},
	leclerc.WineTypeSparkling: {},
}

type Server struct {
	service *cellar.Service
}

func Init(mux *http.ServeMux, service *cellar.Service) {
	server := Server{service: service}
	mux.HandleFunc("GET /api/wines", server.handleWines)
	mux.HandleFunc("POST /api/refresh", server.handleRefresh)
	mux.HandleFunc("GET /api/export.csv", server.handleExport)
}

func parseWineType(r *http.Request) (string, error) {
	value := r.URL.Query().Get("type")
	if value == "" {
		return leclerc.WineTypeRed, nil
	}
	if _, ok := wineTypes[value]; !ok {
		return "", fmt.Errorf("unknown wine type %q", value)
	}
	return value, nil
}

func parseQuery(r *http.Request) (cellar.Query, error) {
	values := r.URL.Query()
	query := cellar.Query{
		Search:           values.Get("q"),
		VintageConfirmed: values.Get("vintage_confirmed") == "true",
	}

	var err error
	query.Sort, err = cellar.ParseSort(values.Get("sort"))
	if err != nil {
		return cellar.Query{}, err
	}
	if raw := values.Get("price_max"); raw != "" {
		query.PriceMax, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return cellar.Query{}, fmt.Errorf("invalid price_max %q", raw)
		}
	}
	if raw := values.Get("rating_min"); raw != "" {
		query.RatingMin, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return cellar.Query{}, fmt.Errorf("invalid rating_min %q", raw)
		}
	}
	return query, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s Server) handleWines(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleWines")
	defer span.End()

	wineType, err := parseWineType(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	span.SetAttributes(attribute.String("wine_type", wineType))

	query, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.service.Wines(ctx, wineType, query)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query wines",
			"wine_type", wineType, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if result.Wines == nil {
		// serialize as [] rather than null
		result.Wines = []enrich.EnrichedListing{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleRefresh")
	defer span.End()

	wineType, err := parseWineType(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	span.SetAttributes(attribute.String("wine_type", wineType))

	enriched, err := s.service.Refresh(ctx, wineType)
	if err != nil {
		// a dead source degrades to an empty set rather than an error,
		// matching how queries behave before any snapshot exists
		slog.ErrorContext(ctx, "refresh failed",
			"wine_type", wineType, "err", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"wine_type": wineType,
			"count":     0,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"wine_type": wineType,
		"count":     len(enriched),
	})
}

func (s Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleExport")
	defer span.End()

	wineType, err := parseWineType(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	span.SetAttributes(attribute.String("wine_type", wineType))

	query, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.service.Wines(ctx, wineType, query)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query wines",
			"wine_type", wineType, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("content-type", "text/csv; charset=utf-8")
	w.Header().Set("content-disposition",
		fmt.Sprintf(`attachment; filename="%s.csv"`, wineType))
	err = cellar.WriteCSV(w, result.Wines)
	if err != nil {
		slog.ErrorContext(ctx, "failed to write csv", "err", err)
	}
}
