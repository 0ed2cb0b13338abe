package fixstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/goccy/go-json"
	"google.golang.org/protobuf/proto"
)

// GTFSRTFixStream is a polling FixStream adapter over a GTFS-Realtime
// VehiclePositions feed: it re-wraps every poll's FeedEntity list as a
// single vehicles_info Envelope so it drives the same FixLoop as
// WSFixStream, despite GTFS-RT being pull- rather than push-based.
type GTFSRTFixStream struct {
	url          string
	pollInterval time.Duration
	client       *http.Client

	ticker *time.Ticker
}

// NewGTFSRTFixStream builds a GTFS-RT polling adapter against url, a
// VehiclePositions.pb feed endpoint, polled every pollInterval.
func NewGTFSRTFixStream(url string, pollInterval time.Duration) *GTFSRTFixStream {
	return &GTFSRTFixStream{
		url:          url,
		pollInterval: pollInterval,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

// Connect starts the poll ticker. The first poll happens on the first
// Recv call.
func (g *GTFSRTFixStream) Connect(_ context.Context) error {
	g.ticker = time.NewTicker(g.pollInterval)
	return nil
}

// Recv waits for the next poll tick, fetches the feed, and returns it
// re-encoded as a vehicles_info envelope.
func (g *GTFSRTFixStream) Recv(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.ticker.C:
	}

	feed, err := g.fetchFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}

	records := make([]VehicleRecord, 0, len(feed.Entity))
	for _, entity := range feed.Entity {
		vp := entity.GetVehicle()
		if vp == nil || vp.GetPosition() == nil {
			continue
		}
		id := vp.GetVehicle().GetId()
		idJSON, _ := json.Marshal(id)
		records = append(records, VehicleRecord{
			VehNumber: idJSON,
			Latitude:  float64(vp.GetPosition().GetLatitude()),
			Longitude: float64(vp.GetPosition().GetLongitude()),
			Line:      vp.GetTrip().GetRouteId(),
			Timestamp: gtfsTimestamp(vp.GetTimestamp()),
		})
	}

	raw, err := json.Marshal(Envelope{Topic: "vehicles_info", Data: records})
	if err != nil {
		return nil, fmt.Errorf("%w: re-encode feed: %v", ErrTransportFailure, err)
	}
	return raw, nil
}

// gtfsTimestamp converts a VehiclePosition's epoch-seconds Timestamp field
// into the RFC 3339 wire string VehicleRecord.Timestamp expects. A zero
// timestamp (field absent) is carried through as nil rather than epoch zero.
func gtfsTimestamp(ts uint64) *string {
	if ts == 0 {
		return nil
	}
	s := time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
	return &s
}

func (g *GTFSRTFixStream) fetchFeed(ctx context.Context) (*gtfsrt.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtfs-rt feed: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var feed gtfsrt.FeedMessage
	if err := proto.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode feed message: %w", err)
	}
	return &feed, nil
}

// Close stops the poll ticker.
func (g *GTFSRTFixStream) Close() error {
	if g.ticker != nil {
		g.ticker.Stop()
	}
	return nil
}
