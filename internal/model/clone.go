package model

import "time"

const (
	copySuffix     = " (copy)"
	partCopySuffix = " - copy"
)

// Clone deep-copies the option. Options carry no id.
func (o Option) Clone() Option {
	return o
}

// Clone deep-copies the part under a fresh id and a " - copy" name.
func (p Part) Clone() Part {
	out := Part{
		ID:     NewID(PrefixPart),
		Name:   p.Name + partCopySuffix,
		Volume: p.Volume,
	}
	if p.MaterialID != nil {
		id := *p.MaterialID
		out.MaterialID = &id
	}
	out.Options = make([]Option, 0, len(p.Options))
	for _, o := range p.Options {
		out.Options = append(out.Options, o.Clone())
	}
	return out
}

// Clone deep-copies the view under a fresh id and a " (copy)" name. Every
// part gets a fresh id but keeps its name.
func (v View) Clone() View {
	return View{
		ID:    NewID(PrefixView),
		Name:  v.Name + copySuffix,
		Parts: cloneParts(v.Parts),
	}
}

// Clone deep-copies the quote under fresh quote, view and part ids. View
// and part names are kept; the quote name gets " (copy)".
func (q Quote) Clone(now time.Time) Quote {
	out := Quote{
		ID:        NewID(PrefixQuote),
		Name:      q.Name + copySuffix,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if q.TagID != nil {
		id := *q.TagID
		out.TagID = &id
	}
	if q.ClientID != nil {
		id := *q.ClientID
		out.ClientID = &id
	}
	if q.CustomClient != nil {
		cc := *q.CustomClient
		out.CustomClient = &cc
	}
	out.Views = make([]View, 0, len(q.Views))
	for _, v := range q.Views {
		out.Views = append(out.Views, View{
			ID:    NewID(PrefixView),
			Name:  v.Name,
			Parts: cloneParts(v.Parts),
		})
	}
	return out
}

func cloneParts(parts []Part) []Part {
	out := make([]Part, 0, len(parts))
	for _, p := range parts {
		c := p.Clone()
		c.Name = p.Name
		out = append(out, c)
	}
	return out
}
