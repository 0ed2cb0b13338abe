// Package osm models an OpenStreetMap public-transit relation: the raw way
// segments and stop-role nodes a RelationParser extracts from relation XML,
// and the WaySet adjacency index the Stitcher walks.
package osm

import "transitline/internal/geo"

// NodeID is the opaque, stable node identifier inherited from the source
// relation.
type NodeID string

// Role is a relation-member role string. Ways with the empty role form the
// route geometry; nodes with a Role* role are stops.
type Role string

const (
	RoleStop              Role = "stop"
	RoleStopEntryOnly      Role = "stop_entry_only"
	RoleStopExitOnly       Role = "stop_exit_only"
	RolePlatform           Role = "platform"
	RolePlatformEntryOnly  Role = "platform_entry_only"
	RolePlatformExitOnly   Role = "platform_exit_only"
)

// stopRoles is the closed set of roles extract_ways_and_stops (the Python
// original) recognizes as stop-bearing.
var stopRoles = map[string]bool{
	string(RoleStop):             true,
	string(RoleStopEntryOnly):    true,
	string(RoleStopExitOnly):     true,
	string(RolePlatform):         true,
	string(RolePlatformEntryOnly): true,
	string(RolePlatformExitOnly): true,
}

// Way is an ordered polyline segment with stable endpoint identifiers.
type Way struct {
	ID        string
	NodeIDs   []NodeID
	Nodes     []geo.Coordinate
	StartNode NodeID
	EndNode   NodeID
	Reversed  bool
}

// IsLoop reports whether the way's start and end node coincide.
func (w Way) IsLoop() bool {
	return w.StartNode == w.EndNode
}

// Reverse returns a copy of w with its node order, node ids, and endpoints
// flipped and Reversed toggled.
func (w Way) Reverse() Way {
	n := len(w.Nodes)
	r := Way{
		ID:        w.ID,
		NodeIDs:   make([]NodeID, n),
		Nodes:     make([]geo.Coordinate, n),
		StartNode: w.EndNode,
		EndNode:   w.StartNode,
		Reversed:  !w.Reversed,
	}
	for i := 0; i < n; i++ {
		r.NodeIDs[i] = w.NodeIDs[n-1-i]
		r.Nodes[i] = w.Nodes[n-1-i]
	}
	return r
}

// Stop is a stop or platform node annotated on the relation.
type Stop struct {
	ID       NodeID
	Role     Role
	Position geo.Coordinate
	Name     string

	DistFromStart    float64
	DistanceFromPrev float64
	DistanceToNext   float64
	// Indexed is true once DistFromStart has been computed against a Route
	// (or trusted from a persisted artifact), per the data model invariant
	// that DistFromStart is set iff a stop has been indexed.
	Indexed bool
}
