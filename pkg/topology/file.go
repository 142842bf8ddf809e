package topology

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk form of a static topology:
//
//	nodes:
//	  t1: terminal
//	  r1: roadm
//	links:
//	  - t1/1-r1/1
type fileDocument struct {
	Nodes map[string]string `yaml:"nodes"`
	Links []string          `yaml:"links"`
}

// LoadFile reads a static YAML topology.
func LoadFile(path string) ([]Link, Kinds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read topology file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile parses the YAML topology form accepted by LoadFile.
func ParseFile(data []byte) ([]Link, Kinds, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	links := make([]Link, 0, len(doc.Links))
	for _, key := range doc.Links {
		link, err := ParseLinkKey(key)
		if err != nil {
			return nil, nil, err
		}
		links = append(links, link)
	}

	kinds := make(Kinds, len(doc.Nodes))
	for name, class := range doc.Nodes {
		kinds[name] = KindFromClass(class)
	}
	return links, kinds, nil
}
