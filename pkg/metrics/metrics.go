// Package metrics holds the prometheus collectors for the overlay and an
// optional HTTP listener exposing them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sudorandom/dc-globe/pkg/logging"
)

var (
	MarkersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_markers_created_total",
		Help: "Markers placed on the globe, by icon kind.",
	}, []string{"icon"})

	MarkerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "globe_marker_errors_total",
		Help: "Markers skipped because the surface failed to create them.",
	})

	PopupShows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "globe_popup_shows_total",
		Help: "Popup content renders triggered by hover or region change.",
	})

	MobileSelects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "globe_mobile_selects_total",
		Help: "Marker taps routed to the mobile detail view.",
	})

	Facilities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "globe_facilities",
		Help: "Facilities with capacity in the current dataset.",
	})

	Regions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "globe_regions",
		Help: "Region groups in the current dataset.",
	})

	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "globe_fetch_errors_total",
		Help: "Failed facility fetches.",
	})

	SkippedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "globe_skipped_records_total",
		Help: "Data center records dropped because they could not be decoded.",
	})

	ZoomLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "globe_zoom_level",
		Help: "Current camera zoom level.",
	})
)

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("Metrics server shutdown")
		}
	}()

	logging.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
