package stac

import "context"

// FullCopy deep copies obj and everything reachable from it through child,
// item and collection links, resolving them through r as needed. Resolved
// targets of other links are copied too; unresolved ones stay hrefs. Shared
// objects are copied once and cycles are preserved.
//
// Root and parent links point at copies when their target was copied, and
// otherwise fall back to the target's href. A copied container becomes the
// root of a new scope holding every copy in its tree. On error nothing is
// returned.
func FullCopy(ctx context.Context, r Reader, obj Object) (Object, error) {
	s := &copySession{r: r, clones: make(map[Object]Object)}
	result, err := s.copy(ctx, obj)
	if err != nil {
		return nil, err
	}
	for _, clone := range s.order {
		s.rebindHierarchy(clone)
	}
	if c, ok := result.(Container); ok {
		c.catalog().makeRoot()
	}
	return result, nil
}

type copySession struct {
	r      Reader
	clones map[Object]Object
	order  []Object
}

func (s *copySession) copy(ctx context.Context, src Object) (Object, error) {
	if clone, ok := s.clones[src]; ok {
		return clone, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clone := src.Clone()
	if c, ok := clone.(Container); ok {
		// Clone may have made a self-rooted copy; scope is rebuilt at the end.
		c.catalog().cache = nil
	}
	s.clones[src] = clone
	s.order = append(s.order, clone)

	srcLinks := src.base().links
	for i, l := range clone.base().links {
		switch l.Rel {
		case RelRoot, RelParent:
			continue
		case RelChild, RelItem, RelCollection:
			target, err := srcLinks[i].Resolve(ctx, s.r)
			if err != nil {
				return nil, err
			}
			copied, err := s.copy(ctx, target)
			if err != nil {
				return nil, err
			}
			l.bind(copied)
		default:
			if !srcLinks[i].IsResolved() {
				continue
			}
			copied, err := s.copy(ctx, srcLinks[i].target)
			if err != nil {
				return nil, err
			}
			l.bind(copied)
		}
	}
	return clone, nil
}

func (s *copySession) rebindHierarchy(clone Object) {
	b := clone.base()
	for _, l := range b.GetLinks(RelRoot) {
		s.rebind(b, l)
	}
	for _, l := range b.GetLinks(RelParent) {
		s.rebind(b, l)
	}
}

func (s *copySession) rebind(owner *object, l *Link) {
	if !l.IsResolved() {
		return
	}
	if copied, ok := s.clones[l.target]; ok {
		l.bind(copied)
		return
	}
	if l.target == owner.self {
		return
	}
	if href := l.target.SelfHref(); href != "" {
		l.SetHref(href)
		return
	}
	owner.removeLink(l)
}
