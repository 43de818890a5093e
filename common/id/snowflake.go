package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the process-wide Snowflake node. It must be called once at
// startup, before any call to New. Repeated calls are no-ops.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns the next Snowflake ID as an int64. IDs sort by creation time
// and stay unique across processes as long as each one gets a distinct
// node ID.
func New() int64 {
	return node.Generate().Int64()
}
