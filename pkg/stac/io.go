package stac

import (
	"context"
	"fmt"
	"path/filepath"
)

// Reader loads the JSON document at an absolute href. Errors must match
// ErrNotFound, ErrMalformed or ErrTransport under errors.Is.
type Reader interface {
	Read(ctx context.Context, href string) (map[string]any, error)
}

// Writer stores a JSON document at an absolute href.
type Writer interface {
	Write(ctx context.Context, href string, doc map[string]any) error
}

type ReadWriter interface {
	Reader
	Writer
}

// ReadObject reads and decodes the document at href. A relative href is taken
// as a local path. A container whose root link points at href, or that has
// no root link, becomes the root of a new scope with the catalog type its
// links imply.
func ReadObject(ctx context.Context, r Reader, href string) (Object, error) {
	if r == nil {
		return nil, ErrNoReader
	}
	if !IsAbsoluteHref(href) {
		abs, err := filepath.Abs(href)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", href, err)
		}
		href = filepath.ToSlash(abs)
	}

	doc, err := r.Read(ctx, href)
	if err != nil {
		return nil, err
	}
	obj, err := ObjectFromDict(doc, href)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", href, err)
	}

	if c, ok := obj.(Container); ok {
		rl := c.GetLink(RelRoot)
		if rl == nil || rl.AbsoluteHref() == href {
			c.catalog().selfRoot()
			c.SetCatalogType(DetermineCatalogType(doc))
		}
	}
	return obj, nil
}

// ReadContainer reads a Catalog or Collection.
func ReadContainer(ctx context.Context, r Reader, href string) (Container, error) {
	obj, err := ReadObject(ctx, r, href)
	if err != nil {
		return nil, err
	}
	c, ok := obj.(Container)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrTypeMismatch, href, obj.Type())
	}
	return c, nil
}

// WriteObject encodes obj with its root's link policy and writes it to its
// self href. Every resolved link target must have a self href.
func WriteObject(ctx context.Context, w Writer, obj Object) error {
	href := obj.SelfHref()
	if href == "" {
		return fmt.Errorf("save %s %q: %w", obj.Type(), obj.ID(), ErrMissingSelfHref)
	}
	doc, err := obj.ToDict(requireTargetHrefs())
	if err != nil {
		return fmt.Errorf("save %s %q: %w", obj.Type(), obj.ID(), err)
	}
	if err := w.Write(ctx, href, doc); err != nil {
		return fmt.Errorf("save %s %q to %s: %w", obj.Type(), obj.ID(), href, err)
	}
	return nil
}
