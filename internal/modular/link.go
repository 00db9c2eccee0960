package modular

import "reflect"

// Link is a handle to another module. Get completes the target's Init or
// Update as the current phase requires before handing it out.
type Link[T Module] struct {
	target T
	bound  bool
}

func NewLink[T Module](target T) Link[T] {
	var l Link[T]
	l.Set(target)
	return l
}

func (l *Link[T]) Set(target T) {
	l.target = target
	l.bound = !isNil(target)
}

func (l *Link[T]) Reset() {
	var zero T
	l.target = zero
	l.bound = false
}

func (l Link[T]) Bound() bool { return l.bound }

func (l Link[T]) Get(s *Sim) (T, error) {
	if !l.bound {
		var zero T
		return zero, ErrNilLink
	}
	switch s.Phase() {
	case PhaseInit:
		if err := s.ensureInit(l.target); err != nil {
			var zero T
			return zero, err
		}
	case PhaseUpdate:
		if err := s.ensureUpdate(l.target); err != nil {
			var zero T
			return zero, err
		}
	}
	return l.target, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
