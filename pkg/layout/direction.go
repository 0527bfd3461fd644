package layout

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is the flow of the layered layout
type Direction int

const (
	// Down places layers top to bottom
	Down Direction = iota
	// Right places layers left to right
	Right
)

func (d Direction) String() string {
	switch d {
	case Right:
		return "RIGHT"
	default:
		return "DOWN"
	}
}

// ParseDirection accepts down|vertical|tb and right|horizontal|lr, case-insensitively
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "down", "vertical", "tb":
		return Down, nil
	case "right", "horizontal", "lr":
		return Right, nil
	default:
		return Down, fmt.Errorf("unknown layout direction %q (want down or right)", s)
	}
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToLower(d.String()))
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
