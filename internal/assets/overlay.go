package assets

import "errors"

// Overlay stacks loaders: the first layer holding a name wins. Only a
// missing asset falls through to the next layer; invalid names and read
// failures are returned as is.
type Overlay struct {
	layers []Loader
}

// NewOverlay puts the directory at customBasePath in front of the
// embedded assets. An empty path yields the embedded assets alone.
func NewOverlay(customBasePath string) (*Overlay, error) {
	if customBasePath == "" {
		return &Overlay{layers: []Loader{NewEmbeddedLoader()}}, nil
	}
	dir, err := NewDirLoader(customBasePath)
	if err != nil {
		return nil, err
	}
	return &Overlay{layers: []Loader{dir, NewEmbeddedLoader()}}, nil
}

// LoadStyle loads a CSS style from the first layer that has it.
func (o *Overlay) LoadStyle(name string) (string, error) {
	return o.first(func(l Loader) (string, error) { return l.LoadStyle(name) })
}

// LoadTemplate loads a page template from the first layer that has it.
func (o *Overlay) LoadTemplate(name string) (string, error) {
	return o.first(func(l Loader) (string, error) { return l.LoadTemplate(name) })
}

func (o *Overlay) first(load func(Loader) (string, error)) (string, error) {
	var err error
	for _, l := range o.layers {
		var content string
		content, err = load(l)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, ErrStyleNotFound) && !errors.Is(err, ErrTemplateNotFound) {
			return "", err
		}
	}
	return "", err
}

var _ Loader = (*Overlay)(nil)
