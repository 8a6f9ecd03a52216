package louvain

import (
	"encoding/json"
	"io"
)

// MoveEvent is one node move made during local moving. Node and community
// ids refer to the nodes of the given level.
type MoveEvent struct {
	MoveNumber int     `json:"move"`
	Level      int     `json:"level"`
	Node       int     `json:"node"`
	FromComm   int     `json:"from_comm"`
	ToComm     int     `json:"to_comm"`
	Gain       float64 `json:"gain"`
}

// MoveTracker streams move events as JSON lines. A nil tracker ignores
// every call.
type MoveTracker struct {
	encoder *json.Encoder
	moves   int
	err     error
}

// NewMoveTracker creates a tracker writing to w.
func NewMoveTracker(w io.Writer) *MoveTracker {
	return &MoveTracker{encoder: json.NewEncoder(w)}
}

// LogMove records one move. The first write error stops further output and
// is reported by Err.
func (mt *MoveTracker) LogMove(level, node, fromComm, toComm int, gain float64) {
	if mt == nil || mt.err != nil {
		return
	}
	mt.moves++
	mt.err = mt.encoder.Encode(MoveEvent{
		MoveNumber: mt.moves,
		Level:      level,
		Node:       node,
		FromComm:   fromComm,
		ToComm:     toComm,
		Gain:       gain,
	})
}

// Moves returns the number of moves logged so far.
func (mt *MoveTracker) Moves() int {
	if mt == nil {
		return 0
	}
	return mt.moves
}

// Err returns the first write error, if any.
func (mt *MoveTracker) Err() error {
	if mt == nil {
		return nil
	}
	return mt.err
}
