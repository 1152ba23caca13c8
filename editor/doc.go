// Package editor keeps a schema source and its diagram in sync.
//
// The state of a document is a Model: the source text, the diagram nodes
// and edges, and the synchronization State. Reduce applies one Event to a
// Model and returns the next Model. Controller serializes events for a
// single document and publishes every new state to its listeners.
//
// Source changes flow through extraction and projection; diagram edits
// flow through regeneration. When a diagram edit rewrites the source, the
// Model records the generated text as pending. The next SourceChanged
// event carrying exactly that text is its echo and is ignored.
package editor
