package topomap

import (
	"errors"
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/topomap/container"
	"github.com/hupe1980/topomap/internal/resource"
)

// MaxDimension is the highest map dimension supported by boundary marks.
const MaxDimension = 3

// QuickTraversalName is the name of the per-orbit representative dart cache.
const QuickTraversalName = "quick_traversal"

// Map is implemented by concrete combinatorial maps built on a GenericMap.
// The generic kernel stores darts and cells; the concrete map provides the
// topological relations between darts.
type Map interface {
	// Generic returns the storage kernel of the map.
	Generic() *GenericMap
	// Dimension returns the topological dimension of the map.
	Dimension() uint
	// ForeachDartOfOrbit calls fn for every dart of the orbit of d until fn
	// returns false. Scratch state is taken from worker w.
	ForeachDartOfOrbit(orbit Orbit, d Dart, w WorkerID, fn func(Dart) bool)
}

// GenericMap is the storage kernel shared by all maps: one container of
// darts, one container of cells per embedded orbit, the embedding columns
// linking both, dart relations, boundary marks and the scratch pool.
type GenericMap struct {
	containers [NbOrbits]*container.Container
	embeddings [NbOrbits]*container.Column[uint32]
	quick      [NbOrbits]*container.Column[Dart]
	quickStale [NbOrbits]bool
	relations  []*container.Column[Dart]
	boundary   [MaxDimension + 1]*roaring.Bitmap

	scratch *scratchPool

	logger  *Logger
	metrics MetricsCollector
	rc      *resource.Controller
	opts    options
}

// NewGenericMap creates an empty map kernel.
func NewGenericMap(optFns ...Option) *GenericMap {
	opts := applyOptions(optFns)
	m := &GenericMap{
		logger:  opts.logger,
		metrics: opts.metricsCollector,
		opts:    opts,
	}
	if opts.memoryLimit > 0 || opts.ioLimit > 0 {
		m.rc = resource.NewController(resource.Config{
			MemoryLimitBytes:   opts.memoryLimit,
			IOLimitBytesPerSec: opts.ioLimit,
		})
	}
	for dim := range m.boundary {
		m.boundary[dim] = roaring.New()
	}
	m.scratch = newScratchPool(opts.maxWorkers, opts.externalWorkers)
	m.containers[DartOrbit] = m.newContainer(DartOrbit)
	return m
}

func (m *GenericMap) newContainer(orbit Orbit) *container.Container {
	optFns := []container.Option{
		container.WithID(uint32(orbit)),
		container.WithLogger(m.logger.With("orbit", orbit.String())),
		container.WithCompression(m.opts.compression),
	}
	if m.rc != nil && m.opts.memoryLimit > 0 {
		optFns = append(optFns, container.WithMemoryAcquirer(m.rc))
	}
	return container.New(optFns...)
}

// Generic returns m itself, so that embedding types satisfy part of Map.
func (m *GenericMap) Generic() *GenericMap { return m }

// Logger returns the logger of the map.
func (m *GenericMap) Logger() *Logger { return m.logger }

// Metrics returns the metrics collector of the map.
func (m *GenericMap) Metrics() MetricsCollector { return m.metrics }

// MemoryUsage returns the block memory charged so far, or 0 without a memory limit.
func (m *GenericMap) MemoryUsage() int64 { return m.rc.MemoryUsage() }

// Container returns the container of orbit, or nil if the orbit is not
// embedded. The DART container always exists.
func (m *GenericMap) Container(orbit Orbit) *container.Container {
	return m.containers[orbit]
}

// Darts returns the dart container.
func (m *GenericMap) Darts() *container.Container {
	return m.containers[DartOrbit]
}

// NbDarts returns the number of live darts.
func (m *GenericMap) NbDarts() uint32 { return m.Darts().Size() }

// Begin returns the first live dart, or End.
func (m *GenericMap) Begin() Dart { return Dart(m.Darts().Begin()) }

// End returns the past-the-end dart.
func (m *GenericMap) End() Dart { return Dart(m.Darts().End()) }

// Next returns the live dart following d, or End.
func (m *GenericMap) Next(d Dart) Dart { return Dart(m.Darts().Next(uint32(d))) }

// AllDarts iterates over the live darts.
func (m *GenericMap) AllDarts() iter.Seq[Dart] {
	return func(yield func(Dart) bool) {
		for d := m.Begin(); d != m.End(); d = m.Next(d) {
			if !yield(d) {
				return
			}
		}
	}
}

// IsDartValid reports whether d is a live dart.
func (m *GenericMap) IsDartValid(d Dart) bool {
	return d != NIL && m.Darts().Used(uint32(d))
}

// NewDart allocates a dart. Its relations are fixed points, its embeddings
// are Null and it carries no mark.
func (m *GenericMap) NewDart() Dart {
	darts := m.Darts()
	i := darts.InsertLine()
	darts.InitLine(i)
	for _, rel := range m.relations {
		rel.Set(i, Dart(i))
	}
	for orbit := Vertex; int(orbit) < NbOrbits; orbit++ {
		if emb := m.embeddings[orbit]; emb != nil {
			emb.Set(i, container.Null)
		}
	}
	for _, b := range m.boundary {
		b.Remove(i)
	}
	return Dart(i)
}

// DeleteDartLine releases every cell d is embedded to, then frees d.
func (m *GenericMap) DeleteDartLine(d Dart) {
	for orbit := Vertex; int(orbit) < NbOrbits; orbit++ {
		if m.embeddings[orbit] != nil {
			m.SetDartEmbedding(orbit, d, container.Null)
		}
	}
	for _, b := range m.boundary {
		b.Remove(uint32(d))
	}
	m.Darts().RemoveLine(uint32(d))
}

// CopyDartLine copies every attribute, relation and mark of src to dst.
// dst shares the cells of src: their reference counts grow by one.
func (m *GenericMap) CopyDartLine(dst, src Dart) {
	for orbit := Vertex; int(orbit) < NbOrbits; orbit++ {
		if emb := m.embeddings[orbit]; emb != nil {
			m.SetDartEmbedding(orbit, dst, emb.Get(uint32(src)))
		}
	}
	m.Darts().CopyLine(uint32(dst), uint32(src))
	for _, b := range m.boundary {
		if b.Contains(uint32(src)) {
			b.Add(uint32(dst))
		} else {
			b.Remove(uint32(dst))
		}
	}
}

// AddAttribute adds a column of type T to the cells of orbit, embedding the
// orbit first if needed.
func AddAttribute[T any](m *GenericMap, orbit Orbit, name string) (*container.Column[T], error) {
	m.AddEmbedding(orbit)
	col, err := container.AddAttribute[T](m.containers[orbit], name)
	if errors.Is(err, container.ErrAttributeExists) {
		return nil, fmt.Errorf("%s attribute %q: %w", orbit, name, ErrAttributeExists)
	}
	if err != nil {
		return nil, fmt.Errorf("%s attribute %q: %w", orbit, name, err)
	}
	return col, nil
}

// GetAttribute returns the column name of orbit, or nil.
func GetAttribute[T any](m *GenericMap, orbit Orbit, name string) *container.Column[T] {
	if m.containers[orbit] == nil {
		return nil
	}
	return container.GetAttribute[T](m.containers[orbit], name)
}

// GetOrAddAttribute returns the column name of orbit, adding it if missing.
func GetOrAddAttribute[T any](m *GenericMap, orbit Orbit, name string) (*container.Column[T], error) {
	if col := GetAttribute[T](m, orbit, name); col != nil {
		return col, nil
	}
	return AddAttribute[T](m, orbit, name)
}

// RemoveAttribute removes the column name of orbit.
func (m *GenericMap) RemoveAttribute(orbit Orbit, name string) bool {
	if m.containers[orbit] == nil {
		return false
	}
	return m.containers[orbit].RemoveAttribute(name)
}

// AddRelation adds a dart-to-dart relation column. Every existing dart is
// related to itself. Adding an existing relation returns it.
func (m *GenericMap) AddRelation(name string) *container.Column[Dart] {
	if rel := m.Relation(name); rel != nil {
		return rel
	}
	rel, err := container.AddAttribute[Dart](m.Darts(), name)
	if err != nil {
		panic(fmt.Sprintf("topomap: relation %q: %v", name, err))
	}
	for d := range m.AllDarts() {
		rel.Set(uint32(d), d)
	}
	m.relations = append(m.relations, rel)
	return rel
}

// Relation returns the relation column name, or nil.
func (m *GenericMap) Relation(name string) *container.Column[Dart] {
	for _, rel := range m.relations {
		if rel.Name() == name {
			return rel
		}
	}
	return nil
}

// MarkBoundary flags d as a boundary dart of dimension dim.
func (m *GenericMap) MarkBoundary(dim uint, d Dart) {
	m.boundary[dim].Add(uint32(d))
}

// UnmarkBoundary clears the boundary flag of d for dimension dim.
func (m *GenericMap) UnmarkBoundary(dim uint, d Dart) {
	m.boundary[dim].Remove(uint32(d))
}

// IsBoundaryMarked reports whether d is a boundary dart of dimension dim.
func (m *GenericMap) IsBoundaryMarked(dim uint, d Dart) bool {
	return m.boundary[dim].Contains(uint32(d))
}

// NbBoundaryDarts returns the number of boundary darts of dimension dim.
func (m *GenericMap) NbBoundaryDarts(dim uint) uint64 {
	return m.boundary[dim].GetCardinality()
}

// Fragmentation returns the live ratio of the container of orbit.
func (m *GenericMap) Fragmentation(orbit Orbit) float64 {
	if c := m.containers[orbit]; c != nil {
		return c.Fragmentation()
	}
	return 1
}

// Clear removes every dart and cell. With removeAttrib the attributes,
// relations and embeddings are dropped as well.
func (m *GenericMap) Clear(removeAttrib bool) {
	for orbit, c := range m.containers {
		if c == nil {
			continue
		}
		c.Clear(removeAttrib)
		if removeAttrib && Orbit(orbit) != DartOrbit {
			m.containers[orbit] = nil
		}
	}
	for _, b := range m.boundary {
		b.Clear()
	}
	m.quickStale = [NbOrbits]bool{}
	if removeAttrib {
		m.embeddings = [NbOrbits]*container.Column[uint32]{}
		m.quick = [NbOrbits]*container.Column[Dart]{}
		m.relations = nil
		m.scratch.resetMarkers()
	}
}

func (m *GenericMap) isBoundary(dim uint, d Dart) bool {
	return dim <= MaxDimension && m.boundary[dim].Contains(uint32(d))
}
