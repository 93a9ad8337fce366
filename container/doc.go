// Package container implements a block-allocated, reference-counted row store.
//
// A Container hands out slots (row indices) from fixed-capacity blocks of
// BlockSize entries. Every block keeps a reference count per slot and a
// free-list of released offsets, so slot identity is stable for as long as a
// slot is referenced. Typed columns (Column[T]) and boolean marker columns
// (MarkerColumn) are parallel arrays that grow, shrink and compact in
// lockstep with the blocks: index i always denotes the same row in every
// column.
//
// # Lifecycle
//
//	c := container.New()
//	pos, _ := container.AddAttribute[[3]float32](c, "position")
//
//	i := c.InsertLine() // refcount 1
//	pos.Set(i, [3]float32{1, 2, 3})
//	c.RefLine(i)        // refcount 2
//	c.UnrefLine(i)      // refcount 1
//	c.UnrefLine(i)      // refcount 0, slot returned to its block
//
// A slot is live iff its reference count is nonzero. InsertLine sets the
// count of the new slot to 1; the caller owns that reference.
//
// # Compaction
//
// Compact moves the highest live rows into the lowest holes, trims trailing
// blocks and returns an old-to-new index mapping (Null for dead rows) that
// callers use to fix up indices stored elsewhere.
//
// # Persistence
//
// SaveBin/LoadBin and SaveXML/LoadXML round-trip the block layout and the
// contents of every typed column. Columns are recreated on load through a
// process-wide registry of element types (see RegisterType); columns whose
// stored type name is not registered are skipped with a warning.
//
// # Thread Safety
//
// A Container is not safe for concurrent structural mutation. Concurrent
// reads and writes of distinct rows of existing columns are safe.
package container
