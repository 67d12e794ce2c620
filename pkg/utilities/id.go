package utilities

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// nodes caches one snowflake node per node id. Two nodes with the same id
// would hand out colliding ids within the same millisecond.
var nodes sync.Map

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewUUID returns a random (v4) UUID for entity primary keys.
func NewUUID() uuid.UUID {
	return uuid.New()
}

// NewSnowflakeIDWithNode generates a snowflake ID string using the provided node ID.
// If the node cannot be initialized, it falls back to a KSUID string.
func NewSnowflakeIDWithNode(nodeID int64) string {
	if n, ok := nodes.Load(nodeID); ok {
		return n.(*snowflake.Node).Generate().String()
	}
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return NewKSUID()
	}
	actual, _ := nodes.LoadOrStore(nodeID, n)
	return actual.(*snowflake.Node).Generate().String()
}
