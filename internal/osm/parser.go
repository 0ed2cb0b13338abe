package osm

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"transitline/internal/geo"
)

// RelationParser extracts ways and stops from a raw OSM relation document
// (the "relation/<id>/full" XML payload). Implementations are collaborators
// per spec.md §1; Parser is the default, encoding/xml-backed implementation.
type RelationParser interface {
	Parse(xmlData string) (ways []Way, stops []Stop, err error)
}

// Parser is the standard-library encoding/xml implementation of
// RelationParser. No example repo in the corpus ships an OSM XML client;
// encoding/xml's struct-tag decoding is the idiomatic stdlib fit here, the
// same way internal/gtfs/parser.go reaches for encoding/csv on its own
// (non-XML) static feed format.
type Parser struct{}

// NewParser returns the default RelationParser.
func NewParser() *Parser { return &Parser{} }

type osmDoc struct {
	XMLName   xml.Name   `xml:"osm"`
	Nodes     []osmNode  `xml:"node"`
	Ways      []osmWay   `xml:"way"`
	Relations []osmRel   `xml:"relation"`
}

type osmNode struct {
	ID  string    `xml:"id,attr"`
	Lat string    `xml:"lat,attr"`
	Lon string    `xml:"lon,attr"`
	Tag []osmTag  `xml:"tag"`
}

type osmTag struct {
	K string `xml:"k,attr"`
	V string `xml:"v,attr"`
}

type osmWay struct {
	ID string   `xml:"id,attr"`
	Nd []osmNd  `xml:"nd"`
}

type osmNd struct {
	Ref string `xml:"ref,attr"`
}

type osmRel struct {
	Members []osmMember `xml:"member"`
}

type osmMember struct {
	Type string `xml:"type,attr"`
	Ref  string `xml:"ref,attr"`
	Role string `xml:"role,attr"`
}

// Parse implements RelationParser, mirroring extract_ways_and_stops: ways
// are kept only when their relation-member role is empty; nodes are kept as
// stops when their member role is one of the recognized stop roles.
func (p *Parser) Parse(xmlData string) ([]Way, []Stop, error) {
	var doc osmDoc
	if err := xml.Unmarshal([]byte(xmlData), &doc); err != nil {
		return nil, nil, fmt.Errorf("osm: parse relation xml: %w", err)
	}

	nodePos := make(map[string]geo.Coordinate, len(doc.Nodes))
	nodeName := make(map[string]string)
	for _, n := range doc.Nodes {
		lat, errLat := strconv.ParseFloat(n.Lat, 64)
		lon, errLon := strconv.ParseFloat(n.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		nodePos[n.ID] = geo.Coordinate{Lon: lon, Lat: lat}
		for _, tag := range n.Tag {
			if tag.K == "name" {
				nodeName[n.ID] = tag.V
			}
		}
	}

	wayRole := make(map[string]string)
	var stops []Stop
	for _, rel := range doc.Relations {
		for _, m := range rel.Members {
			switch m.Type {
			case "way":
				wayRole[m.Ref] = m.Role
			case "node":
				if !stopRoles[m.Role] {
					continue
				}
				pos, ok := nodePos[m.Ref]
				if !ok {
					continue
				}
				stops = append(stops, Stop{
					ID:       NodeID(m.Ref),
					Role:     Role(m.Role),
					Position: pos,
					Name:     nodeName[m.Ref],
				})
			}
		}
	}

	var ways []Way
	for _, w := range doc.Ways {
		if role, ok := wayRole[w.ID]; !ok || role != "" {
			continue
		}
		var nodeIDs []NodeID
		var nodes []geo.Coordinate
		for _, nd := range w.Nd {
			pos, ok := nodePos[nd.Ref]
			if !ok {
				continue
			}
			nodeIDs = append(nodeIDs, NodeID(nd.Ref))
			nodes = append(nodes, pos)
		}
		if len(nodes) < 2 {
			continue
		}
		ways = append(ways, Way{
			ID:        w.ID,
			NodeIDs:   nodeIDs,
			Nodes:     nodes,
			StartNode: nodeIDs[0],
			EndNode:   nodeIDs[len(nodeIDs)-1],
		})
	}

	return ways, stops, nil
}
