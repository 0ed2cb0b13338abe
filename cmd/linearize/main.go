// Command linearize drives pipeline (a): it fetches an OSM public-transit
// relation, stitches its ways into one ordered Route, indexes stops and
// maneuvers against it, and writes the persisted artifacts (§6), optionally
// caching the result in routestore for cmd/navigate to start warm from.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"transitline/internal/artifact"
	"transitline/internal/config"
	"transitline/internal/maneuver"
	"transitline/internal/osm"
	"transitline/internal/routeline"
	"transitline/internal/routestore"
	"transitline/internal/stitch"
	"transitline/internal/stopindex"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Load()

	relationID := flag.String("relation-id", "", "OSM relation id to linearize")
	flag.StringVar(&cfg.OSMBaseURL, "osm-base-url", cfg.OSMBaseURL, "OSM API-compatible base URL")
	flag.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for ways_ordered.json/stops.json/route.geojson/summary.txt")
	flag.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "routestore sqlite cache path")
	skipCache := flag.Bool("skip-cache", false, "don't cache the built route in routestore")
	flag.Parse()

	if *relationID == "" {
		logger.Error("missing required -relation-id")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}

	source := osm.NewHTTPSource(cfg.OSMBaseURL, logger)
	parser := osm.NewParser()

	xmlData, err := source.Fetch(ctx, *relationID)
	if err != nil {
		logger.Error("failed to fetch relation", "relation_id", *relationID, "error", err)
		os.Exit(1)
	}

	rawWays, rawStops, err := parser.Parse(xmlData)
	if err != nil {
		logger.Error("failed to parse relation", "relation_id", *relationID, "error", err)
		os.Exit(1)
	}

	ways := osm.NewWaySet(rawWays)
	logger.Info("way set built", "relation_id", *relationID, "ways", len(ways.Ways()))
	logger.Debug("way set analysis", "report", ways.Analyze())

	segments := stitch.Order(ways)

	route, err := routeline.Build(segments)
	if err != nil {
		logger.Error("failed to build route", "relation_id", *relationID, "error", err)
		os.Exit(1)
	}

	index := stopindex.Build(rawStops, route)
	stops := index.Stops()

	result := maneuver.Extract(route, stops, maneuver.DefaultParams())
	logger.Info("maneuvers extracted", "relation_id", *relationID, "count", len(result.Maneuvers))

	if err := artifact.WriteWaysOrdered(cfg.OutputDir, segments); err != nil {
		logger.Error("failed to write ways_ordered.json", "error", err)
		os.Exit(1)
	}
	if err := artifact.WriteStops(cfg.OutputDir, stops); err != nil {
		logger.Error("failed to write stops.json", "error", err)
		os.Exit(1)
	}
	if err := artifact.WriteGeoJSON(cfg.OutputDir, segments, stops); err != nil {
		logger.Error("failed to write route.geojson", "error", err)
		os.Exit(1)
	}
	if err := artifact.WriteSummary(cfg.OutputDir, *relationID, segments, stops, route.Length()); err != nil {
		logger.Error("failed to write summary.txt", "error", err)
		os.Exit(1)
	}

	if !*skipCache {
		if err := cacheRoute(ctx, cfg.DBPath, *relationID, segments, stops, route.Length()); err != nil {
			logger.Warn("failed to cache route in routestore", "error", err)
		}
	}

	fmt.Printf("linearized relation %s: %d ways, %d stops, %.1fm\n", *relationID, len(segments), len(stops), route.Length())
}

func cacheRoute(ctx context.Context, dbPath, relationID string, segments []stitch.Segment, stops []osm.Stop, length float64) error {
	store, err := routestore.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	waysJSON, err := artifact.MarshalWaysOrdered(segments)
	if err != nil {
		return err
	}
	stopsJSON, err := artifact.MarshalStops(stops)
	if err != nil {
		return err
	}
	geojsonBytes, err := artifact.MarshalRouteGeoJSON(segments, stops)
	if err != nil {
		return err
	}

	return store.Put(ctx, routestore.Record{
		RelationID:      relationID,
		WaysOrderedJSON: waysJSON,
		StopsJSON:       stopsJSON,
		RouteGeoJSON:    geojsonBytes,
		TotalLengthM:    length,
		BuiltAt:         time.Now().Unix(),
	})
}
