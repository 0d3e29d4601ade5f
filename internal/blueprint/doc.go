// Package blueprint is the node extraction and dependency-graph engine.
//
// For each annotated declaration the engine builds a Node: the statement
// part and, for theorem-like declarations, the proof part, each carrying a
// readiness flag, opaque text, and an ordered list of dependency labels.
// Inferred dependencies come from a UsedCollector over the knowledge base
// and are merged with the per-declaration Config overrides under fixed
// precedence rules.
//
// Nodes accumulate in a Registry scoped to one extraction run. Registration
// is insert-once per declaration; labels form a separate claim index that
// tolerates forward references and aliasing until artifacts are written.
// After every registration the Checker walks the label graph from the new
// node and rejects the run on the first cycle, reporting the exact path.
//
// The engine is synchronous and single-threaded: the driver serializes all
// calls into one Registry, and a Registry is never reused across runs.
package blueprint
