// Package ingest consumes reallocation plan messages from the bus, enforces
// per-pool serialization, and drives the validate -> execute -> report flow.
// Nothing in this package is allowed to crash the consumer loop: the worst
// outcome for a bad message is "dropped with log".
package ingest

import (
	"fmt"
	"strings"
)

// PlanTopicKind is the leading topic segment that marks a plan message.
const PlanTopicKind = "reallocation"

// Topic is the parsed form of a bus topic {messageKind}.{poolId}.{statusHint}.
type Topic struct {
	Kind       string
	PoolID     string
	StatusHint string
}

// ParseTopic splits a bus topic into its three segments. The pool id segment
// must be non-empty; the status hint may be anything (it is advisory).
func ParseTopic(topic string) (Topic, error) {
	parts := strings.Split(topic, ".")
	if len(parts) != 3 {
		return Topic{}, fmt.Errorf("ingest: topic %q: want 3 dot-separated segments, got %d", topic, len(parts))
	}
	t := Topic{Kind: parts[0], PoolID: parts[1], StatusHint: parts[2]}
	if t.Kind == "" || t.PoolID == "" {
		return Topic{}, fmt.Errorf("ingest: topic %q: empty kind or pool id", topic)
	}
	return t, nil
}

// PlanTopicPattern is the glob pattern the consumer subscribes with.
func PlanTopicPattern() string {
	return PlanTopicKind + ".*.*"
}

// ReportTopic builds the outbound status topic for a pool.
func ReportTopic(poolID, status string) string {
	return fmt.Sprintf("%s.%s.%s", PlanTopicKind, poolID, status)
}
