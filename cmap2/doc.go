// Package cmap2 implements 2-dimensional combinatorial maps (oriented
// surfaces) on the topomap kernel.
//
// Darts are linked by three relations: Phi1 (next dart of the face),
// PhiM1 (previous dart of the face) and Phi2 (opposite dart of the edge).
// Orbits are derived from them:
//
//	Vertex: <Phi2∘PhiM1>   Edge: <Phi2>   Face: <Phi1>   Volume: <Phi1, Phi2>
//
// Holes are closed with boundary faces, whose darts are boundary marked at
// dimension 2 and skipped by traversals. Vertex orbits are only meaningful
// on maps without free edges, so topological edits other than NewFace keep
// the map closed by boundary faces.
//
//	m := cmap2.New()
//	m.AddEmbedding(topomap.Vertex)
//	m.NewGrid(4, 4, false)
//	n := topomap.CountCells(m, topomap.Vertex) // 25
package cmap2
