// Package fixstream drives a Tracker from a stream of vehicle position
// envelopes (C8, FixLoop), and provides the FixStream transport interface
// plus two concrete adapters: WSFixStream (gorilla/websocket) and
// GTFSRTFixStream (MobilityData GTFS-RT bindings).
package fixstream

import (
	"context"
	"errors"
	"strconv"

	"github.com/goccy/go-json"
)

// Errors surfaced per §7's error-kind taxonomy for C7-C8.
var (
	// ErrMalformedEnvelope marks a message that failed schema validation;
	// the message is skipped, the loop is not broken.
	ErrMalformedEnvelope = errors.New("fixstream: malformed envelope")
	// ErrTransportFailure marks a connection close or I/O error; surfaced
	// to the enclosing supervisor to drive reconnection.
	ErrTransportFailure = errors.New("fixstream: transport failure")
	// ErrCancelRequested marks cooperative cancellation; FixLoop stops
	// cleanly on this error.
	ErrCancelRequested = errors.New("fixstream: cancel requested")
)

// VehicleRecord is one per-vehicle entry in a vehicles_info envelope's data
// array. VehNumber is decoded as a raw message because the wire format
// allows either a string or an integer.
type VehicleRecord struct {
	VehNumber json.RawMessage `json:"veh_number"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Heading   *float64        `json:"heading,omitempty"`
	Speed     *float64        `json:"speed,omitempty"`
	Line      string          `json:"line,omitempty"`
	Brigade   string          `json:"brigade,omitempty"`
	Timestamp *string         `json:"timestamp,omitempty"`
}

// vehNumberString normalizes VehNumber's string-or-int wire representation.
func (v VehicleRecord) vehNumberString() (string, bool) {
	if len(v.VehNumber) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v.VehNumber, &s); err == nil {
		return s, true
	}
	var n int64
	if err := json.Unmarshal(v.VehNumber, &n); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

// Envelope is a single fix-stream message. Only Topic == "vehicles_info"
// envelopes with a non-nil Data are meaningful; others are discarded.
type Envelope struct {
	Topic string          `json:"topic"`
	Data  []VehicleRecord `json:"data"`
}

// DecodeEnvelope parses one raw message into an Envelope, returning
// ErrMalformedEnvelope if it fails schema validation.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, ErrMalformedEnvelope
	}
	if env.Topic == "" || env.Data == nil {
		return Envelope{}, ErrMalformedEnvelope
	}
	return env, nil
}

// FixStream is the transport collaborator: it yields envelope messages
// until the context is canceled or the connection fails.
type FixStream interface {
	// Connect establishes the transport connection.
	Connect(ctx context.Context) error
	// Recv blocks until the next raw message is available, ctx is
	// canceled, or the transport fails.
	Recv(ctx context.Context) ([]byte, error)
	// Close releases transport resources.
	Close() error
}
