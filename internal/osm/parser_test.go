package osm

import "testing"

const sampleRelationXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
  <node id="1" lat="44.9" lon="-93.2"><tag k="name" v="Stop A"/></node>
  <node id="2" lat="44.91" lon="-93.21"/>
  <node id="3" lat="44.92" lon="-93.22"><tag k="name" v="Stop B"/></node>
  <node id="99" lat="45.0" lon="-93.3"/>
  <way id="w1">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
  </way>
  <way id="w2">
    <nd ref="3"/>
    <nd ref="99"/>
  </way>
  <relation>
    <member type="way" ref="w1" role=""/>
    <member type="way" ref="w2" role=""/>
    <member type="node" ref="1" role="stop"/>
    <member type="node" ref="3" role="platform"/>
    <member type="node" ref="99" role="unrelated"/>
  </relation>
</osm>`

func TestParser_Parse_ExtractsWaysAndStops(t *testing.T) {
	p := NewParser()
	ways, stops, err := p.Parse(sampleRelationXML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(ways) != 2 {
		t.Fatalf("len(ways) = %d, want 2", len(ways))
	}
	if len(stops) != 2 {
		t.Fatalf("len(stops) = %d, want 2 (unrelated role excluded)", len(stops))
	}

	var sawStop, sawPlatform bool
	for _, s := range stops {
		switch s.ID {
		case "1":
			sawStop = s.Role == RoleStop && s.Name == "Stop A"
		case "3":
			sawPlatform = s.Role == RolePlatform && s.Name == "Stop B"
		}
	}
	if !sawStop {
		t.Error("stop node 1 not extracted with expected role/name")
	}
	if !sawPlatform {
		t.Error("stop node 3 not extracted with expected role/name")
	}
}

func TestParser_Parse_WayWithNonEmptyRoleExcluded(t *testing.T) {
	xmlData := `<osm>
  <node id="1" lat="0" lon="0"/>
  <node id="2" lat="0" lon="1"/>
  <way id="wstop"><nd ref="1"/><nd ref="2"/></way>
  <relation>
    <member type="way" ref="wstop" role="stop"/>
  </relation>
</osm>`
	p := NewParser()
	ways, _, err := p.Parse(xmlData)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(ways) != 0 {
		t.Fatalf("len(ways) = %d, want 0 (non-empty role way must be excluded)", len(ways))
	}
}

func TestParser_Parse_MalformedXML(t *testing.T) {
	p := NewParser()
	if _, _, err := p.Parse("<osm><node id"); err == nil {
		t.Fatal("Parse() error = nil, want error for malformed xml")
	}
}
