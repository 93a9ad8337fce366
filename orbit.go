package topomap

import (
	"fmt"

	"github.com/hupe1980/topomap/container"
)

// Orbit identifies a kind of topological cell.
type Orbit uint8

const (
	// DartOrbit is the orbit of a single dart.
	DartOrbit Orbit = iota
	// Vertex is the orbit of the darts around a vertex.
	Vertex
	// Edge is the orbit of the darts of an edge.
	Edge
	// Face is the orbit of the darts of a face.
	Face
	// Volume is the orbit of the darts of a volume.
	Volume

	// NbOrbits is the number of orbit kinds.
	NbOrbits = int(Volume) + 1
)

var orbitNames = [NbOrbits]string{"DART", "VERTEX", "EDGE", "FACE", "VOLUME"}

func (o Orbit) String() string {
	if int(o) < NbOrbits {
		return orbitNames[o]
	}
	return fmt.Sprintf("ORBIT(%d)", uint8(o))
}

// Dart is an index into the dart container.
type Dart uint32

// NIL is the absent dart.
const NIL = Dart(container.Null)

// Index returns the slot of d in the dart container.
func (d Dart) Index() uint32 { return uint32(d) }

// IsNil reports whether d is NIL.
func (d Dart) IsNil() bool { return d == NIL }

func (d Dart) String() string {
	if d == NIL {
		return "NIL"
	}
	return fmt.Sprintf("Dart(%d)", uint32(d))
}

// Cell is one cell of an orbit, designated by a representative dart.
type Cell struct {
	Dart  Dart
	Orbit Orbit
}

// IsNil reports whether c has no representative dart.
func (c Cell) IsNil() bool { return c.Dart == NIL }

func (c Cell) String() string {
	return fmt.Sprintf("%s(%s)", c.Orbit, c.Dart)
}

func init() {
	container.MustRegisterType[Dart]("Dart", nil)
}
