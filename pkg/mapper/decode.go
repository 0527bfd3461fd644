package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ritzau/block-visualizer/pkg/model"
)

type rawBlock struct {
	Type       string `json:"type"`
	InstanceOf string `json:"instance_of"`
}

type rawEndpoint struct {
	Block string `json:"block"`
	Port  string `json:"port"`
}

type rawLink struct {
	Source     *rawEndpoint `json:"source"`
	Target     *rawEndpoint `json:"target"`
	InstanceOf string       `json:"instance_of"`
}

// Decode parses a fetched document. The graph lives under the namespace key;
// an empty namespace means the document root is the graph itself.
func Decode(data []byte, namespace string) (*model.Document, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, malformed("", "document is not a JSON object", err)
	}

	graph := root
	prefix := ""
	if namespace != "" {
		raw, ok := root[namespace]
		if !ok {
			return nil, malformed("", fmt.Sprintf("missing namespace key %q", namespace), nil)
		}
		graph = nil
		if err := json.Unmarshal(raw, &graph); err != nil || graph == nil {
			return nil, malformed(namespace, "namespace value is not an object", err)
		}
		prefix = namespace + "."
	}

	blocks, err := decodeBlocks(graph["blocks"], prefix+"blocks")
	if err != nil {
		return nil, err
	}

	links, err := decodeLinks(graph["links"], prefix+"links")
	if err != nil {
		return nil, err
	}

	return &model.Document{Blocks: blocks, Links: links}, nil
}

func decodeBlocks(raw json.RawMessage, path string) (map[string]model.Block, error) {
	if isAbsent(raw) {
		return nil, malformed(path, "missing blocks mapping", nil)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, malformed(path, "blocks is not an object keyed by block id", err)
	}

	blocks := make(map[string]model.Block, len(entries))
	for id, entry := range entries {
		if id == "" {
			return nil, malformed(path, "block with empty id", nil)
		}
		var rb rawBlock
		if err := json.Unmarshal(entry, &rb); err != nil || isAbsent(entry) {
			return nil, malformed(path+"."+id, "block is not an object", err)
		}
		blocks[id] = model.Block{
			ID:         id,
			Kind:       model.ParseBlockKind(rb.Type),
			Type:       rb.Type,
			InstanceOf: rb.InstanceOf,
		}
	}
	return blocks, nil
}

func decodeLinks(raw json.RawMessage, path string) ([]model.Link, error) {
	// A diagram of blocks without any links is valid
	if isAbsent(raw) {
		return []model.Link{}, nil
	}

	var entries []rawLink
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, malformed(path, "links is not an array of link objects", err)
	}

	links := make([]model.Link, 0, len(entries))
	for i, rl := range entries {
		at := fmt.Sprintf("%s[%d]", path, i)
		if rl.Source == nil || rl.Source.Block == "" {
			return nil, malformed(at+".source", "link source has no block", nil)
		}
		if rl.Target == nil || rl.Target.Block == "" {
			return nil, malformed(at+".target", "link target has no block", nil)
		}
		links = append(links, model.Link{
			Source:     model.Endpoint{Block: rl.Source.Block, Port: rl.Source.Port},
			Target:     model.Endpoint{Block: rl.Target.Block, Port: rl.Target.Port},
			InstanceOf: rl.InstanceOf,
		})
	}
	return links, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
