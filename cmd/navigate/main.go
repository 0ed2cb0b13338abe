// Command navigate drives pipeline (b): it loads a previously linearized
// route (from routestore, falling back to the on-disk artifacts), then
// drives a FixLoop over a live vehicle-position FixStream, tracking a
// single vehicle and emitting a NavigationState per fix as JSON lines on
// stdout.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"transitline/internal/artifact"
	"transitline/internal/config"
	"transitline/internal/fixstream"
	"transitline/internal/maneuver"
	"transitline/internal/osm"
	"transitline/internal/routeline"
	"transitline/internal/routestore"
	"transitline/internal/stopindex"
	"transitline/internal/tracker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Load()

	relationID := flag.String("relation-id", "", "OSM relation id of the linearized route to navigate")
	flag.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "fallback directory holding ways_ordered.json/stops.json")
	flag.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "routestore sqlite cache path")
	flag.StringVar(&cfg.VehicleStreamURL, "vehicle-stream-url", cfg.VehicleStreamURL, "WSFixStream vehicles_info websocket URL")
	flag.StringVar(&cfg.GTFSRTURL, "gtfsrt-url", cfg.GTFSRTURL, "GTFS-RT VehiclePositions feed URL (used if set, instead of the websocket)")
	flag.DurationVar(&cfg.GTFSRTPoll, "gtfsrt-poll", cfg.GTFSRTPoll, "GTFS-RT poll interval")
	flag.StringVar(&cfg.VehicleID, "vehicle-id", cfg.VehicleID, "veh_number of the vehicle to track")
	flag.DurationVar(&cfg.UpdateInterval, "update-interval", cfg.UpdateInterval, "minimum interval between re-tracking an unchanged fix")
	flag.Parse()

	if *relationID == "" {
		logger.Error("missing required -relation-id")
		os.Exit(1)
	}
	if cfg.VehicleID == "" {
		logger.Error("missing required -vehicle-id")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	trk, directions, err := loadTracker(ctx, cfg, *relationID, logger)
	if err != nil {
		logger.Error("failed to load route", "relation_id", *relationID, "error", err)
		os.Exit(1)
	}
	for _, line := range directions {
		logger.Info("direction", "step", line)
	}

	stream := selectStream(cfg)
	loop := fixstream.NewLoop(stream, trk, cfg.VehicleID, cfg.UpdateInterval, logger)

	encoder := json.NewEncoder(os.Stdout)
	sink := func(state tracker.NavigationState) {
		if err := encoder.Encode(state); err != nil {
			logger.Warn("failed to encode navigation state", "error", err)
		}
	}

	if err := loop.Run(ctx, sink); err != nil {
		logger.Info("fix loop ended", "state", loop.State(), "error", err)
	}
}

func selectStream(cfg *config.Config) fixstream.FixStream {
	if cfg.GTFSRTURL != "" {
		return fixstream.NewGTFSRTFixStream(cfg.GTFSRTURL, cfg.GTFSRTPoll)
	}
	return fixstream.NewWSFixStream(cfg.VehicleStreamURL, http.Header{})
}

// loadTracker rebuilds a Route, StopIndex, and maneuver.Sequence for
// relationID, preferring a warm routestore cache and falling back to the
// on-disk artifacts cmd/linearize wrote. It also renders the full
// turn-by-turn direction list up front, the way generate_navigation_directions
// produces a trip's directions before tracking starts.
func loadTracker(ctx context.Context, cfg *config.Config, relationID string, logger *slog.Logger) (*tracker.Tracker, []string, error) {
	wayRecords, stops, err := loadArtifacts(ctx, cfg, relationID, logger)
	if err != nil {
		return nil, nil, err
	}

	segments := artifact.SegmentsFromWayRecords(wayRecords)
	route, err := routeline.Build(segments)
	if err != nil {
		return nil, nil, err
	}

	index := stopindex.Build(stops, route)
	result := maneuver.Extract(route, index.Stops(), maneuver.DefaultParams())
	directions := maneuver.RenderSteps(result, route.Length())

	trk := tracker.New(route, index, maneuver.NewSequence(result.Maneuvers))
	return trk, directions, nil
}

func loadArtifacts(ctx context.Context, cfg *config.Config, relationID string, logger *slog.Logger) ([]artifact.WayRecord, []osm.Stop, error) {
	if store, err := routestore.Open(ctx, cfg.DBPath); err == nil {
		defer store.Close()
		if rec, ok, err := store.Get(ctx, relationID); err == nil && ok {
			wayRecords, err := artifact.DecodeWaysOrdered(rec.WaysOrderedJSON)
			if err == nil {
				stops, err := artifact.UnmarshalStops(rec.StopsJSON)
				if err == nil {
					logger.Info("loaded route from routestore cache", "relation_id", relationID)
					return wayRecords, stops, nil
				}
			}
		}
	} else {
		logger.Debug("routestore unavailable, falling back to artifacts", "error", err)
	}

	logger.Info("loading route from on-disk artifacts", "dir", cfg.OutputDir)
	wayRecords, err := artifact.ReadWaysOrdered(cfg.OutputDir)
	if err != nil {
		return nil, nil, err
	}
	stops, err := artifact.ReadStopsOrSummary(cfg.OutputDir)
	if err != nil {
		return nil, nil, err
	}
	return wayRecords, stops, nil
}
