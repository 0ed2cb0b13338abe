package fixstream

import (
	"context"
	"log/slog"
	"time"

	"transitline/internal/tracker"
)

// State is a FixLoop lifecycle state, per §4.9.
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateStreaming
	StateReconnecting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Sink receives each NavigationState the loop produces.
type Sink func(tracker.NavigationState)

// Loop drives a Tracker from a FixStream for a single vehicle id, applying
// change detection and rate limiting per §4.8.
type Loop struct {
	stream         FixStream
	tracker        *tracker.Tracker
	vehicleID      string
	updateInterval time.Duration
	logger         *slog.Logger

	state      State
	lastFix    *tracker.Fix
	lastUpdate time.Time
}

// NewLoop builds a FixLoop bound to stream, driving trk for vehicleID.
// updateInterval bounds how often Track is invoked when the fix coordinates
// are unchanged.
func NewLoop(stream FixStream, trk *tracker.Tracker, vehicleID string, updateInterval time.Duration, logger *slog.Logger) *Loop {
	return &Loop{
		stream:         stream,
		tracker:        trk,
		vehicleID:      vehicleID,
		updateInterval: updateInterval,
		logger:         logger,
		state:          StateConnecting,
	}
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State { return l.state }

// Run connects the transport and processes envelopes until ctx is canceled
// or the transport fails. On transport failure it transitions to
// Reconnecting and returns ErrTransportFailure so the caller can reconnect;
// on cancellation it transitions to Stopped and returns ErrCancelRequested.
func (l *Loop) Run(ctx context.Context, sink Sink) error {
	if err := l.stream.Connect(ctx); err != nil {
		l.state = StateReconnecting
		return ErrTransportFailure
	}
	l.state = StateConnected
	defer l.stream.Close()

	for {
		select {
		case <-ctx.Done():
			l.state = StateStopped
			return ErrCancelRequested
		default:
		}

		raw, err := l.stream.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.state = StateStopped
				return ErrCancelRequested
			}
			l.logger.Warn("fixstream: transport error", "error", err)
			l.state = StateReconnecting
			return ErrTransportFailure
		}

		env, err := DecodeEnvelope(raw)
		if err != nil {
			l.logger.Debug("fixstream: skipping malformed envelope", "error", err)
			continue
		}
		if env.Topic != "vehicles_info" {
			continue
		}
		l.state = StateStreaming

		l.handleEnvelope(env, sink)
	}
}

func (l *Loop) handleEnvelope(env Envelope, sink Sink) {
	record, ok := findVehicle(env.Data, l.vehicleID)
	if !ok {
		return
	}

	fix := tracker.Fix{
		Lat:       record.Latitude,
		Lon:       record.Longitude,
		Heading:   record.Heading,
		Speed:     record.Speed,
		Timestamp: parseTimestamp(record.Timestamp, l.logger),
		Line:      record.Line,
		Brigade:   record.Brigade,
	}

	if !l.shouldUpdate(fix) {
		return
	}

	state, err := l.tracker.Track(fix)
	if err != nil {
		l.logger.Debug("fixstream: skipping fix", "error", err)
		return
	}

	l.lastFix = &fix
	l.lastUpdate = now()
	sink(state)
}

// shouldUpdate implements §4.8's change-detection rate limiter: invoke
// Tracker iff the fix coordinates differ from the previous fix, or
// update_interval has elapsed since the last invocation.
func (l *Loop) shouldUpdate(fix tracker.Fix) bool {
	if l.lastFix == nil {
		return true
	}
	if l.lastFix.Lat != fix.Lat || l.lastFix.Lon != fix.Lon {
		return true
	}
	return now().Sub(l.lastUpdate) >= l.updateInterval
}

// parseTimestamp converts a VehicleRecord's wire timestamp (RFC 3339) into
// *time.Time, logging and discarding it rather than failing the fix if it
// doesn't parse.
func parseTimestamp(raw *string, logger *slog.Logger) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		logger.Debug("fixstream: unparseable fix timestamp", "value", *raw, "error", err)
		return nil
	}
	return &t
}

func findVehicle(records []VehicleRecord, vehicleID string) (VehicleRecord, bool) {
	for _, r := range records {
		if s, ok := r.vehNumberString(); ok && s == vehicleID {
			return r, true
		}
	}
	return VehicleRecord{}, false
}

// now returns the current wall-clock time for handleEnvelope and
// shouldUpdate's rate-limit comparison.
func now() time.Time { return time.Now() }
