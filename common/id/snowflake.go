package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
// Only the first call has an effect.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a time-ordered id for a review run. Init must have been called.
func New() int64 {
	return node.Generate().Int64()
}

// Format renders an id the way API responses expose it. Review ids exceed
// 2^53, so they travel as strings to survive JavaScript clients.
func Format(id int64) string {
	return snowflake.ID(id).String()
}
