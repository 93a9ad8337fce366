package cmap2

import (
	"context"
	"io"

	"github.com/hupe1980/topomap"
	"github.com/hupe1980/topomap/blobstore"
)

// SaveBin writes the map with topomap.SaveBin.
func (m *Map) SaveBin(ctx context.Context, w io.Writer) error {
	return topomap.SaveBin(ctx, m, w)
}

// LoadBin replaces the map with a binary dump and rebinds its relations.
func (m *Map) LoadBin(ctx context.Context, r io.Reader) error {
	defer m.link()
	return topomap.LoadBin(ctx, m, r)
}

// SaveXML writes the map with topomap.SaveXML.
func (m *Map) SaveXML(ctx context.Context, w io.Writer) error {
	return topomap.SaveXML(ctx, m, w)
}

// LoadXML replaces the map with an XML document and rebinds its relations.
func (m *Map) LoadXML(ctx context.Context, r io.Reader) error {
	defer m.link()
	return topomap.LoadXML(ctx, m, r)
}

// SaveSnapshot stores the map in store under name.
func (m *Map) SaveSnapshot(ctx context.Context, store blobstore.Store, name string) error {
	return topomap.SaveSnapshot(ctx, m, store, name)
}

// LoadSnapshot replaces the map with the snapshot name of store.
func (m *Map) LoadSnapshot(ctx context.Context, store blobstore.Store, name string) error {
	defer m.link()
	return topomap.LoadSnapshot(ctx, m, store, name)
}
