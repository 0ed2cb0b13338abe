// Package config reads environment configuration for the linearize and
// navigate commands, following the teacher's envStr/envInt/envBool pattern
// (trimmed here to the envStr/envDuration helpers this module's settings
// actually need).
package config

import (
	"os"
	"time"
)

// Config holds settings shared by cmd/linearize and cmd/navigate, read from
// TRANSITLINE_* environment variables with flag overrides in each cmd/.
type Config struct {
	OSMBaseURL string // RelationSource endpoint, e.g. an OSM API-compatible base URL
	OutputDir  string // directory for ways_ordered.json/stops.json/route.geojson/summary.txt
	DBPath     string // routestore sqlite cache path

	VehicleStreamURL string        // WSFixStream endpoint
	GTFSRTURL        string        // GTFSRTFixStream polling endpoint
	GTFSRTPoll       time.Duration // GTFSRTFixStream poll interval
	VehicleID        string        // veh_number to track in cmd/navigate
	UpdateInterval   time.Duration // FixLoop change-detection rate limit
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		OSMBaseURL:       envStr("TRANSITLINE_OSM_BASE_URL", "https://api.openstreetmap.org/api/0.6"),
		OutputDir:        envStr("TRANSITLINE_OUTPUT_DIR", "./out"),
		DBPath:           envStr("TRANSITLINE_DB_PATH", "./transitline.db"),
		VehicleStreamURL: envStr("TRANSITLINE_VEHICLE_STREAM_URL", ""),
		GTFSRTURL:        envStr("TRANSITLINE_GTFSRT_URL", ""),
		GTFSRTPoll:       envDuration("TRANSITLINE_GTFSRT_POLL", 15*time.Second),
		VehicleID:        envStr("TRANSITLINE_VEHICLE_ID", ""),
		UpdateInterval:   envDuration("TRANSITLINE_UPDATE_INTERVAL", 2*time.Second),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
