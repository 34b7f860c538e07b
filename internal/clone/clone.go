// Package clone deep-copies attribute values so callers holding a copy cannot
// reach back into a frozen traversal context.
package clone

import "reflect"

// Value returns a deep copy of value. Pointers, maps, slices, arrays and
// exported struct fields are copied recursively. Unexported fields, funcs and
// channels are copied shallowly. Shared and cyclic references are preserved:
// a pointer, map or slice reached twice yields the same copy both times.
func Value[T any](value T) T {
	var zero T
	cloned := newCloner().clone(reflect.ValueOf(value))
	if !cloned.IsValid() {
		return zero
	}
	out, ok := cloned.Interface().(T)
	if !ok {
		return value
	}
	return out
}

// Map returns a deep copy of attrs, or an empty map when attrs is empty.
// References shared between values, including references back to attrs
// itself, are preserved in the copy.
func Map(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	if len(attrs) == 0 {
		return out
	}
	c := newCloner()
	c.seen[refOf(reflect.ValueOf(attrs))] = reflect.ValueOf(out)
	for key, value := range attrs {
		cloned := c.clone(reflect.ValueOf(value))
		if !cloned.IsValid() {
			out[key] = nil
			continue
		}
		out[key] = cloned.Interface()
	}
	return out
}

// ref identifies a reference-typed value. Length and type are part of the
// key because slices of one backing array and pointers to a struct and its
// first field share an address.
type ref struct {
	addr uintptr
	len  int
	typ  reflect.Type
}

func refOf(v reflect.Value) ref {
	r := ref{addr: v.Pointer(), typ: v.Type()}
	if v.Kind() == reflect.Slice {
		r.len = v.Len()
	}
	return r
}

type cloner struct {
	seen map[ref]reflect.Value
}

func newCloner() *cloner {
	return &cloner{seen: map[ref]reflect.Value{}}
}

func (c *cloner) clone(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := refOf(v)
		if done, ok := c.seen[key]; ok {
			return done
		}
		out := reflect.New(v.Type().Elem())
		c.seen[key] = out
		out.Elem().Set(c.clone(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := c.clone(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := out.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(c.clone(v.Field(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := refOf(v)
		if done, ok := c.seen[key]; ok {
			return done
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.seen[key] = out
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), c.clone(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := refOf(v)
		if done, ok := c.seen[key]; ok {
			return done
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		c.seen[key] = out
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.clone(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.clone(v.Index(i)))
		}
		return out
	default:
		return v
	}
}

// Merge overlays strong on weak and returns a new map. Nested
// map[string]any values are merged recursively; any other strong value
// replaces the weak one. Neither input is modified. A nested map already
// being merged further up (a cycle) replaces instead of merging.
func Merge(strong, weak map[string]any) map[string]any {
	return merge(strong, weak, map[uintptr]struct{}{})
}

func merge(strong, weak map[string]any, active map[uintptr]struct{}) map[string]any {
	if strong != nil {
		addr := reflect.ValueOf(strong).Pointer()
		active[addr] = struct{}{}
		defer delete(active, addr)
	}
	out := Map(weak)
	for key, value := range strong {
		nestedStrong, ok := value.(map[string]any)
		if !ok {
			out[key] = Value(value)
			continue
		}
		nestedWeak, ok := out[key].(map[string]any)
		if _, cyclic := active[reflect.ValueOf(nestedStrong).Pointer()]; ok && !cyclic {
			out[key] = merge(nestedStrong, nestedWeak, active)
			continue
		}
		out[key] = Map(nestedStrong)
	}
	return out
}
