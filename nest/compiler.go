package nest

import (
	"reflect"
	"sync"

	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/leaf"
	"github.com/wippyai/flatnest/nest/internal/plan"
)

// Compiler builds and caches one plan per Go type. It is safe for
// concurrent use.
type Compiler struct {
	cache sync.Map // reflect.Type -> *plan.Plan
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile returns the plan for goType. A pointer type is compiled as its
// element type.
func (c *Compiler) Compile(goType reflect.Type) (*plan.Plan, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}
	if goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}

	return c.compile(goType, nil, map[reflect.Type]bool{})
}

// compile returns the cached plan for goType or builds and caches it. Every
// level is cached, so element types shared between containers compile once.
func (c *Compiler) compile(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*plan.Plan, error) {
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*plan.Plan), nil
	}
	p, err := c.build(goType, path, visiting)
	if err != nil {
		return nil, err
	}
	actual, _ := c.cache.LoadOrStore(goType, p)
	return actual.(*plan.Plan), nil
}

func (c *Compiler) build(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*plan.Plan, error) {
	if visiting[goType] {
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			GoType(goType.String()).
			Detail("recursive container type").
			Build()
	}

	if lt, ok := leaf.Lookup(goType); ok {
		return &plan.Plan{
			GoType:     goType,
			Kind:       plan.KindLeaf,
			Leaf:       lt,
			Inline:     true,
			Contiguous: true,
		}, nil
	}

	visiting[goType] = true
	defer delete(visiting, goType)

	if reflect.PointerTo(goType).Implements(sequenceType) {
		return c.compileLinked(goType, path, visiting)
	}

	switch goType.Kind() {
	case reflect.Array:
		return c.compileArray(goType, path, visiting)
	case reflect.Slice:
		return c.compileSlice(goType, path, visiting)
	default:
		return nil, errors.Unsupported(errors.PhaseCompile, path, goType.String())
	}
}

func (c *Compiler) compileArray(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*plan.Plan, error) {
	elem, err := c.compile(goType.Elem(), append(path, "[]"), visiting)
	if err != nil {
		return nil, err
	}
	n := goType.Len()
	return &plan.Plan{
		GoType:     goType,
		Kind:       plan.KindArray,
		Elem:       elem,
		Leaf:       elem.Leaf,
		Rank:       elem.Rank + 1,
		FixedLen:   n,
		ElemSize:   elem.GoType.Size(),
		Inline:     elem.Inline,
		Contiguous: elem.Inline,
		Container:  arrayAdapter{n: n, elemSize: elem.GoType.Size()},
	}, nil
}

func (c *Compiler) compileSlice(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*plan.Plan, error) {
	elem, err := c.compile(goType.Elem(), append(path, "[]"), visiting)
	if err != nil {
		return nil, err
	}
	return &plan.Plan{
		GoType:     goType,
		Kind:       plan.KindSlice,
		Elem:       elem,
		Leaf:       elem.Leaf,
		Rank:       elem.Rank + 1,
		ElemSize:   elem.GoType.Size(),
		Contiguous: elem.Inline,
		Container:  sliceAdapter{goType: goType, elemSize: elem.GoType.Size()},
	}, nil
}

func (c *Compiler) compileLinked(goType reflect.Type, path []string, visiting map[reflect.Type]bool) (*plan.Plan, error) {
	elemType := reflect.New(goType).Interface().(Sequence).ElemType()
	if elemType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			GoType(goType.String()).
			Detail("sequence reports no element type").
			Build()
	}
	elem, err := c.compile(elemType, append(path, "[]"), visiting)
	if err != nil {
		return nil, err
	}
	return &plan.Plan{
		GoType:    goType,
		Kind:      plan.KindLinked,
		Elem:      elem,
		Leaf:      elem.Leaf,
		Rank:      elem.Rank + 1,
		ElemSize:  elem.GoType.Size(),
		Container: linkedAdapter{goType: goType},
	}, nil
}
