package stops

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type registryFile struct {
	Stops  []Stop  `yaml:"stops"`
	Routes []Route `yaml:"routes"`
}

// LoadDirectory reads a stop/route registry from a YAML file. An empty path
// loads the built-in Bristol registry.
func LoadDirectory(path string) (*Directory, error) {
	if path == "" {
		return DefaultDirectory(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	var reg registryFile
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if len(reg.Stops) == 0 {
		return nil, fmt.Errorf("registry %s contains no stops", path)
	}
	return NewDirectory(reg.Stops, reg.Routes), nil
}

// DefaultDirectory returns the built-in Bristol registry: the monitored
// city-centre stops and the Route 72 Frenchay–Temple Meads corridor.
func DefaultDirectory() *Directory {
	stopList := []Stop{
		{ID: "BST-001", Ref: "0100BRP90340", Name: "Temple Meads Station", Latitude: 51.4496, Longitude: -2.5811, RouteIDs: []string{"72", "10", "15"}, SequenceOrder: 1},
		{ID: "BST-002", Ref: "0100BRA10796", Name: "Cabot Circus", Latitude: 51.4545, Longitude: -2.5879, RouteIDs: []string{"72", "20"}, SequenceOrder: 2},
		{ID: "BST-003", Ref: "0100BRP90023", Name: "St Nicholas Market", Latitude: 51.4510, Longitude: -2.5880, RouteIDs: []string{"10", "72"}, SequenceOrder: 3},
	}
	routeList := []Route{
		{
			ID:      "72",
			Name:    "Route 72: Frenchay → Temple Meads",
			StopIDs: []string{"BST-001", "BST-002", "BST-003"},
			Waypoints: []Waypoint{
				{Name: "Frenchay Campus", Latitude: 51.5046, Longitude: -2.5623},
				{Name: "Fishponds", Latitude: 51.4950, Longitude: -2.5700},
				{Name: "Eastville", Latitude: 51.4850, Longitude: -2.5750},
				{Name: "Lawrence Hill", Latitude: 51.4750, Longitude: -2.5800},
				{Name: "Old Market", Latitude: 51.4650, Longitude: -2.5850},
				{Name: "Broadmead", Latitude: 51.4545, Longitude: -2.5879},
				{Name: "Temple Meads", Latitude: 51.4496, Longitude: -2.5811},
			},
		},
		{
			ID:      "10",
			Name:    "Route 10: Bristol Airport",
			StopIDs: []string{"BST-001", "BST-003"},
		},
	}
	return NewDirectory(stopList, routeList)
}
