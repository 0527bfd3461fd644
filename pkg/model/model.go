package model

import "strings"

// BlockKind classifies a block in the system description
type BlockKind string

const (
	BlockKindModule    BlockKind = "module"
	BlockKindInterface BlockKind = "interface"
	BlockKindSignal    BlockKind = "signal"
	BlockKindOther     BlockKind = "other"
)

// ParseBlockKind maps a document "type" string to a BlockKind.
// Anything unrecognized becomes BlockKindOther.
func ParseBlockKind(s string) BlockKind {
	switch BlockKind(strings.ToLower(strings.TrimSpace(s))) {
	case BlockKindModule:
		return BlockKindModule
	case BlockKindInterface:
		return BlockKindInterface
	case BlockKindSignal:
		return BlockKindSignal
	default:
		return BlockKindOther
	}
}

// Block is a named node of the fetched system description
type Block struct {
	ID         string    `json:"id"`
	Kind       BlockKind `json:"kind"`
	Type       string    `json:"type"`        // Raw type string as it appeared in the document
	InstanceOf string    `json:"instance_of"` // Informational label
}

// Endpoint is one end of a link: a port on a block
type Endpoint struct {
	Block string `json:"block"`
	Port  string `json:"port"`
}

// Link is a directed connection between two block ports
type Link struct {
	Source     Endpoint `json:"source"`
	Target     Endpoint `json:"target"`
	InstanceOf string   `json:"instance_of"`
}

// Document is the decoded system description
type Document struct {
	Blocks map[string]Block `json:"blocks"`
	Links  []Link           `json:"links"`
}
