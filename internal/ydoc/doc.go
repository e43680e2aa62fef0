// Package ydoc decodes Yjs v1 updates into a read-only document.
//
// A single update is materialized into a struct store: items are integrated
// in causal order with YATA conflict resolution, then the delete set is
// applied. The result exposes the root types and their nested maps, arrays
// and texts. Nothing is ever encoded back.
package ydoc
