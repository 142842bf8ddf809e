package controller

import (
	"fmt"

	"github.com/dd0wney/cluso-lightpath/pkg/provision"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// NetworkConfig is the subset of the ONOS network-configuration document
// used to seed emulated devices and links.
type NetworkConfig struct {
	Devices map[string]Device     `json:"devices,omitempty"`
	Links   map[string]LinkConfig `json:"links,omitempty"`
}

// Device is a REST-managed device entry.
type Device struct {
	REST  DeviceREST  `json:"rest"`
	Basic DeviceBasic `json:"basic"`
}

type DeviceREST struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Protocol string `json:"protocol"`
}

type DeviceBasic struct {
	Driver string `json:"driver,omitempty"`
	Type   string `json:"type,omitempty"`
}

// LinkConfig is a link entry. The basic block is sent even when empty.
type LinkConfig struct {
	Basic map[string]any `json:"basic"`
}

// RoadmDriver is the ONOS driver for emulated ROADM agents.
const RoadmDriver = "opticalemulator-roadm-rest"

// DeviceID returns the ONOS id of the REST agent at ip:port.
func DeviceID(ip string, port int) string {
	return fmt.Sprintf("rest:%s:%d", ip, port)
}

// DevicesOnly returns a copy holding just the devices.
func (c NetworkConfig) DevicesOnly() NetworkConfig {
	return NetworkConfig{Devices: c.Devices}
}

// LinksOnly returns a copy holding just the links.
func (c NetworkConfig) LinksOnly() NetworkConfig {
	return NetworkConfig{Links: c.Links}
}

// AddLink adds l keyed as "<node>/<port>-<node>/<port>".
func (c *NetworkConfig) AddLink(l topology.Link) {
	if c.Links == nil {
		c.Links = make(map[string]LinkConfig)
	}
	c.Links[l.String()] = LinkConfig{Basic: map[string]any{}}
}

// DefaultTopology is the three-ROADM demo line r1 --- r2 --- r3, with each
// ROADM served by a local REST agent on ports 9001-9003.
func DefaultTopology() NetworkConfig {
	cfg := NetworkConfig{Devices: make(map[string]Device)}
	ids := make([]string, 3)
	for i := range ids {
		port := 9001 + i
		ids[i] = DeviceID("127.0.0.1", port)
		cfg.Devices[ids[i]] = Device{
			REST:  DeviceREST{IP: "127.0.0.1", Port: port, Protocol: "http"},
			Basic: DeviceBasic{Driver: RoadmDriver},
		}
	}
	cfg.AddLink(topology.Link{NodeA: ids[0], PortA: "3", NodeB: ids[1], PortB: "3"})
	cfg.AddLink(topology.Link{NodeA: ids[1], PortA: "4", NodeB: ids[2], PortB: "3"})
	return cfg
}

// DemoRules are the static transponder and cross-connect rules of the
// demo network
//
//	h1 - s1 - t1 = r1 --- r2 --- r3 = t3 - s3 - h3
//	                      ||
//	                      t2 - s2 - h2
func DemoRules() ([]provision.TerminalRule, []provision.RoadmRule) {
	terminals := []provision.TerminalRule{
		{Node: "t1", EthPort: "1", WDMPort: "3", Channel: 1},
		{Node: "t1", EthPort: "2", WDMPort: "4", Channel: 2},
		{Node: "t2", EthPort: "1", WDMPort: "3", Channel: 1},
		{Node: "t2", EthPort: "2", WDMPort: "4", Channel: 1},
		{Node: "t3", EthPort: "1", WDMPort: "3", Channel: 2},
		{Node: "t3", EthPort: "2", WDMPort: "4", Channel: 1},
	}
	roadms := []provision.RoadmRule{
		{Node: "r1", Port1: "1", Port2: "3", Channels: []int{1}},
		{Node: "r1", Port1: "2", Port2: "3", Channels: []int{2}},
		{Node: "r2", Port1: "1", Port2: "3", Channels: []int{1}},
		{Node: "r2", Port1: "2", Port2: "4", Channels: []int{1}},
		{Node: "r2", Port1: "3", Port2: "4", Channels: []int{2}},
		{Node: "r3", Port1: "1", Port2: "3", Channels: []int{2}},
		{Node: "r3", Port1: "2", Port2: "3", Channels: []int{1}},
	}
	return terminals, roadms
}
