package louvain

import (
	"errors"
)

// epsilon guards strict modularity improvements against rounding noise.
const epsilon = 1e-12

var (
	// ErrInvalidConfig is returned when configuration values fail validation.
	ErrInvalidConfig = errors.New("invalid louvain configuration")

	// ErrInvalidSeedPartition is returned for initial partitions that
	// reference nodes outside the graph.
	ErrInvalidSeedPartition = errors.New("invalid initial partition")

	// ErrLevelOutOfRange is returned for hierarchy levels outside 0..NumLevels-1.
	ErrLevelOutOfRange = errors.New("hierarchy level out of range")
)

// LevelStats contains per-level statistics
type LevelStats struct {
	Level          int     `json:"level"`
	Nodes          int     `json:"nodes"`
	Passes         int     `json:"passes"`
	Moves          int     `json:"moves"`
	NumCommunities int     `json:"num_communities"`
	Modularity     float64 `json:"modularity"`
	PassCapReached bool    `json:"pass_cap_reached"`
}

// Statistics contains run-wide metrics
type Statistics struct {
	TotalPasses int          `json:"total_passes"`
	TotalMoves  int          `json:"total_moves"`
	RuntimeMS   int64        `json:"runtime_ms"`
	LevelStats  []LevelStats `json:"level_stats"`
}
