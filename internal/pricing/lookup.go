package pricing

import "github.com/Simplici0/quotecalc/internal/model"

// Lookup resolves weak references from parts and quotes to catalog records.
// The zero value resolves nothing.
type Lookup struct {
	materials map[string]model.Material
	clients   map[string]model.Client
}

// NewLookup indexes already-loaded catalogs by id.
func NewLookup(materials []model.Material, clients []model.Client) Lookup {
	l := Lookup{
		materials: make(map[string]model.Material, len(materials)),
		clients:   make(map[string]model.Client, len(clients)),
	}
	for _, m := range materials {
		l.materials[m.ID] = m
	}
	for _, c := range clients {
		l.clients[c.ID] = c
	}
	return l
}

// Material returns nil for a nil, empty or dangling id.
func (l Lookup) Material(id *string) *model.Material {
	if id == nil {
		return nil
	}
	m, ok := l.materials[*id]
	if !ok {
		return nil
	}
	return &m
}

// Client returns nil for a nil, empty or dangling id.
func (l Lookup) Client(id *string) *model.Client {
	if id == nil {
		return nil
	}
	c, ok := l.clients[*id]
	if !ok {
		return nil
	}
	return &c
}
