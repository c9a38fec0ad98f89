package ai

import (
	"errors"
	"io"
)

// compositeProvider pairs a converter and an embedder that may come from
// different services.
type compositeProvider struct {
	converter Converter
	embedder  Embedder
	closers   []io.Closer
}

// NewProvider combines a converter and an embedder. Closers are closed in
// order by Close.
func NewProvider(converter Converter, embedder Embedder, closers ...io.Closer) AIProvider {
	return &compositeProvider{
		converter: converter,
		embedder:  embedder,
		closers:   closers,
	}
}

func (p *compositeProvider) Embedder() Embedder {
	return p.embedder
}

func (p *compositeProvider) Converter() Converter {
	return p.converter
}

func (p *compositeProvider) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
