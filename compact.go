package topomap

import (
	"context"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/topomap/container"
)

// Compact defragments every container of the map. Cell containers are
// compacted first and the embedding columns rewritten through their
// mappings; then the dart container is compacted and relations, quick
// traversal caches and boundary marks are rewritten through the dart
// mapping. Darts and cells keep their attributes but may change index.
//
// Compact must not run concurrently with any other access to the map.
func (m *GenericMap) Compact() {
	ctx := context.Background()

	for orbit := Vertex; int(orbit) < NbOrbits; orbit++ {
		emb := m.embeddings[orbit]
		if emb == nil {
			continue
		}
		start := time.Now()
		c := m.containers[orbit]
		before := c.MaxSize()
		mapping := c.Compact()
		for d := range m.AllDarts() {
			if e := emb.Get(uint32(d)); e != container.Null {
				emb.Set(uint32(d), mapping[e])
			}
		}
		m.logger.LogCompact(ctx, orbit, before, c.MaxSize(), time.Since(start))
		m.metrics.RecordCompact(orbit, c.Size(), time.Since(start))
	}

	start := time.Now()
	darts := m.Darts()
	before := darts.MaxSize()
	mapping := darts.Compact()
	remap := func(d Dart) Dart {
		if d == NIL || int(d) >= len(mapping) {
			return d
		}
		return Dart(mapping[d])
	}

	for _, rel := range m.relations {
		for d := range m.AllDarts() {
			rel.Set(uint32(d), remap(rel.Get(uint32(d))))
		}
	}
	for orbit, q := range m.quick {
		if q == nil {
			continue
		}
		for i := range m.containers[orbit].Lines() {
			q.Set(i, remap(q.Get(i)))
		}
	}
	for dim, b := range m.boundary {
		nb := roaring.New()
		it := b.Iterator()
		for it.HasNext() {
			nb.Add(mapping[it.Next()])
		}
		m.boundary[dim] = nb
	}

	m.logger.LogCompact(ctx, DartOrbit, before, darts.MaxSize(), time.Since(start))
	m.metrics.RecordCompact(DartOrbit, darts.Size(), time.Since(start))
}
