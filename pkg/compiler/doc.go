// Package compiler turns a validated rule set into a compiled policy
// bundle. The pipeline is a fixed sequence of stages: decision graph
// construction, pairwise conflict detection, priority resolution, and
// bundle aggregation. Each stage consumes only the outputs of earlier
// stages, so a compile is reproducible from the rule set alone.
package compiler
