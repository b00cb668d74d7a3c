package mesh

import "fmt"

// Tag is named per-element data. Each element carries its own slice so that
// elements with different sample counts can share one tag.
type Tag struct {
	Name   string
	Values [][]float64 // [element] -> payload, nil when unset
}

func (t *Tag) subset(elemMap []int) *Tag {
	out := &Tag{Name: t.Name, Values: make([][]float64, len(elemMap))}
	for i, e := range elemMap {
		if e < len(t.Values) && t.Values[e] != nil {
			out.Values[i] = append([]float64(nil), t.Values[e]...)
		}
	}
	return out
}

// CreateTag makes an empty tag, or returns the existing one of that name.
func (p *Patch) CreateTag(name string) *Tag {
	if t, ok := p.tags[name]; ok {
		return t
	}
	t := &Tag{Name: name, Values: make([][]float64, len(p.Elements))}
	p.tags[name] = t
	p.tagGen++
	return t
}

func (p *Patch) HasTag(name string) bool {
	_, ok := p.tags[name]
	return ok
}

func (p *Patch) DeleteTag(name string) {
	delete(p.tags, name)
	p.tagGen++
}

// TagGeneration changes on every tag write or deletion.
func (p *Patch) TagGeneration() uint64 { return p.tagGen }

// SetTagData stores a copy of vals for element e.
func (p *Patch) SetTagData(name string, e int, vals []float64) error {
	if e < 0 || e >= len(p.Elements) {
		return fmt.Errorf("tag %q element %d: %w", name, e, ErrIndex)
	}
	t := p.CreateTag(name)
	t.Values[e] = append([]float64(nil), vals...)
	p.tagGen++
	return nil
}

// TagData returns the payload of element e. The slice is owned by the patch.
func (p *Patch) TagData(name string, e int) ([]float64, error) {
	t, ok := p.tags[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNoSuchTag)
	}
	if e < 0 || e >= len(t.Values) {
		return nil, fmt.Errorf("tag %q element %d: %w", name, e, ErrIndex)
	}
	if t.Values[e] == nil {
		return nil, fmt.Errorf("%q has no value for element %d: %w", name, e, ErrNoSuchTag)
	}
	return t.Values[e], nil
}
