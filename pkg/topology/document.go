package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ParseDocument extracts links from an ONOS network-configuration document:
//
//	{"links": {"r1/3-r2/3": {"basic": {}}, ...}, "devices": {...}}
//
// Links come back in document order. Members other than "links" are skipped.
// A single malformed link key fails the whole document.
func ParseDocument(data []byte) ([]Link, error) {
	links := make([]Link, 0)
	if len(bytes.TrimSpace(data)) == 0 {
		return links, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	for dec.More() {
		member, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if member != "links" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}

		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if tok == nil {
			continue
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("%w: \"links\" must be an object", ErrMalformedDocument)
		}

		for dec.More() {
			key, err := readKey(dec)
			if err != nil {
				return nil, err
			}
			link, err := ParseLinkKey(key)
			if err != nil {
				return nil, err
			}
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			links = append(links, link)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	return links, nil
}

// ParseLinkList extracts links from the emulator's native /links form:
//
//	{"links": [{"r1": 3, "r2": 4}, ...]}
//
// Each element must name exactly two nodes; sides keep document order.
func ParseLinkList(data []byte) ([]Link, error) {
	links := make([]Link, 0)
	if len(bytes.TrimSpace(data)) == 0 {
		return links, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	for dec.More() {
		member, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if member != "links" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}

		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if tok == nil {
			continue
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return nil, fmt.Errorf("%w: \"links\" must be an array", ErrMalformedDocument)
		}

		for idx := 0; dec.More(); idx++ {
			link, err := readLinkSpec(dec, idx)
			if err != nil {
				return nil, err
			}
			links = append(links, link)
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	return links, nil
}

// readLinkSpec reads one {"node": port, "node": port} element.
func readLinkSpec(dec *json.Decoder, idx int) (Link, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return Link{}, err
	}

	var nodes, ports []string
	for dec.More() {
		node, err := readKey(dec)
		if err != nil {
			return Link{}, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Link{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		port, err := portString(raw)
		if err != nil {
			return Link{}, fmt.Errorf("%w: element %d node %q: %v", ErrMalformedLink, idx, node, err)
		}
		nodes = append(nodes, node)
		ports = append(ports, port)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Link{}, err
	}

	if len(nodes) != 2 || nodes[0] == "" || nodes[1] == "" {
		return Link{}, fmt.Errorf("%w: element %d names %d nodes", ErrMalformedLink, idx, len(nodes))
	}
	return Link{NodeA: nodes[0], PortA: ports[0], NodeB: nodes[1], PortB: ports[1]}, nil
}

// portString accepts a JSON number or string port.
func portString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("empty port")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("port must be a number or string, got %s", raw)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return "", fmt.Errorf("port %s is not an integer", n)
	}
	return n.String(), nil
}

// ParseNodes reads the emulator's /nodes document {"nodes": {"r1": "ROADM", ...}}.
func ParseNodes(data []byte) (Kinds, error) {
	var doc struct {
		Nodes map[string]string `json:"nodes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	kinds := make(Kinds, len(doc.Nodes))
	for name, class := range doc.Nodes {
		kinds[name] = KindFromClass(class)
	}
	return kinds, nil
}

// ParseDeviceKinds reads device kinds from the "devices" member of an ONOS
// network-configuration document, using basic.type or basic.driver.
func ParseDeviceKinds(data []byte) (Kinds, error) {
	kinds := make(Kinds)
	if len(bytes.TrimSpace(data)) == 0 {
		return kinds, nil
	}
	var doc struct {
		Devices map[string]struct {
			Basic struct {
				Type   string `json:"type"`
				Driver string `json:"driver"`
			} `json:"basic"`
		} `json:"devices"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	for id, dev := range doc.Devices {
		kind := KindFromClass(dev.Basic.Type)
		if kind == KindUnknown || kind == KindRouter {
			if byDriver := KindFromClass(dev.Basic.Driver); byDriver != KindUnknown {
				kind = byDriver
			}
		}
		kinds[id] = kind
	}
	return kinds, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key, got %v", ErrMalformedDocument, tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrMalformedDocument, want, tok)
	}
	return nil
}

// expectEOF fails if anything but whitespace follows the document.
func expectEOF(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return fmt.Errorf("%w: unexpected %v after document", ErrMalformedDocument, tok)
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return nil
}
