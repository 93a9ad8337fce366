// Package topomap is the storage and traversal kernel of combinatorial maps.
//
// A combinatorial map describes a subdivided surface or volume by darts and
// the relations between them. Cells (vertices, edges, faces, volumes) are
// orbits of darts. topomap stores darts and cell attributes in block-based,
// reference-counted containers and enumerates cells without the caller
// having to track which darts were already seen.
//
// # Building blocks
//
//   - GenericMap: the dart container, one cell container per embedded orbit,
//     the embedding columns linking both, dart relations, boundary marks and
//     a per-worker scratch pool. Concrete maps (see package cmap2) embed it
//     and implement Map.
//   - Embeddings: AddEmbedding, NewCell, SetDartEmbedding and the
//     SetOrbitEmbedding helpers keep cell reference counts exact. A cell
//     embedded by k darts has k references and is freed with its last dart.
//   - TraversorCell: one pass over the non-boundary cells of an orbit, by
//     quick traversal cache, cell marking or dart marking.
//   - ParallelForEachCell: the same enumeration fanned out over workers.
//   - SaveBin/LoadBin, SaveXML/LoadXML and blob store snapshots.
//
// # Quick Start
//
//	m := cmap2.New()
//	pos, _ := topomap.AddAttribute[[3]float32](m.GenericMap, topomap.Vertex, "position")
//	m.NewGrid(8, 8, false)
//
//	topomap.ForEachCell(m, topomap.Vertex, func(c topomap.Cell) {
//		p := pos.Get(m.CellEmbedding(c))
//		_ = p
//	})
//
// # Parallel traversal
//
// Worker callbacks receive a WorkerID; scratch buffers and markers asked
// with it are private to the worker:
//
//	err := topomap.ParallelForEachCell(m, topomap.Face, func(c topomap.Cell, w topomap.WorkerID) {
//		buf := m.AskDartBuffer(w)
//		defer m.ReleaseDartBuffer(w, buf)
//		// ...
//	}, runtime.NumCPU())
//
// # Persistence
//
//	store := blobstore.NewLocalStore("./maps")
//	err := topomap.SaveSnapshot(ctx, m, store, "terrain")
//	err = topomap.LoadSnapshot(ctx, m2, store, "terrain")
//
// The blobstore/s3 and blobstore/minio packages provide remote stores.
package topomap
