// Package ir provides the dialect-neutral intermediate representation:
// types, attributes, operations, and the graph arena that owns them.
//
// This package contains representation only. All other internal packages
// import ir; ir imports nothing internal. This keeps the IR the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Type and Attr are sealed unions; dispatch is a type switch over a
//     closed set, never reflection
//   - Values, ops, blocks, and regions are uint32 handles into a Graph
//     arena; zero is the null handle, slots are tombstoned, never reused
//   - A Graph is single-writer; nothing in this package locks
//   - Printing is deterministic: sorted attribute keys, walk-order value
//     numbering
package ir
