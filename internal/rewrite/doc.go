// Package rewrite implements the dialect conversion engine: a registry
// of per-kind patterns, a staging rewriter that makes each application
// atomic, a conversion state that maps source values to their
// replacements, and a sequential driver that walks a module.
//
// Key design constraints:
//   - Single-writer: one conversion mutates one graph; nothing locks
//   - Per-op atomicity: a pattern's emitted ops are staged and only
//     inserted when the pattern reports success; any failure discards
//     the staged ops with no trace in the graph
//   - Deterministic: ops are visited strictly in program order, one
//     pattern per kind, no worklists and no fixpoints
//   - Total failure reporting: the driver finishes the walk and returns
//     every unconverted op at once rather than stopping at the first
package rewrite
