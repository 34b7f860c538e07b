package traverse

import (
	"reflect"
	"time"
)

// DefaultGroup is the group a property belongs to when it declares none.
const DefaultGroup = "Default"

// Attribute keys written by the typed setters.
const (
	AttributeVersion = "version"
	AttributeGroups  = "groups"
)

// ClassMetadata describes a type the traversal can enter.
type ClassMetadata struct {
	Name       string
	Type       reflect.Type
	Properties []*PropertyMetadata
	Metadata   map[string]any
}

// PropertyMetadata describes a single serialisable property of a class.
// SinceVersion, UntilVersion, Groups, MaxDepth and ExcludeIf feed the built-in
// exclusion rules; a zero value disables the respective check.
type PropertyMetadata struct {
	Class          string
	Name           string
	SerializedName string
	SinceVersion   string
	UntilVersion   string
	Groups         []string
	MaxDepth       *int
	ExcludeIf      string
	Metadata       map[string]any
}

// TypeHint names the type the navigator should assume for a value, with
// optional parameters for generic containers (e.g. array<string, User>).
type TypeHint struct {
	Name   string
	Params []TypeHint
}

// Visitor renders or reads primitives for a concrete format. The context only
// stores it for the navigator.
type Visitor interface{}

// MetadataFactory resolves class metadata for a Go type.
type MetadataFactory interface {
	MetadataFor(typ reflect.Type) (*ClassMetadata, error)
}

// Navigator walks an object graph, pushing and popping frames on the context
// as it descends and ascends.
type Navigator interface {
	Accept(value any, hint *TypeHint, ctx *Context) (any, error)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(value any, hint *TypeHint, ctx *Context) (any, error)

// Accept implements Navigator.
func (f NavigatorFunc) Accept(value any, hint *TypeHint, ctx *Context) (any, error) {
	return f(value, hint, ctx)
}

// RuleContext carries the traversal state an expression is evaluated against.
type RuleContext struct {
	Class      *ClassMetadata
	Property   *PropertyMetadata
	Depth      int
	Path       []string
	Format     string
	Version    string
	Groups     []string
	Attributes map[string]any
	Now        *time.Time
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Attributes == nil {
		ctx.Attributes = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

// label identifies the property under evaluation in errors and logs.
func (ctx RuleContext) label() string {
	switch {
	case ctx.Property != nil && ctx.Property.Class != "":
		return ctx.Property.Class + "." + ctx.Property.Name
	case ctx.Property != nil:
		return ctx.Property.Name
	case ctx.Class != nil:
		return ctx.Class.Name
	default:
		return "unknown"
	}
}

// bindings returns the variables every evaluator exposes to expressions.
func (ctx RuleContext) bindings() map[string]any {
	groups := ctx.Groups
	if groups == nil {
		groups = []string{}
	}
	path := ctx.Path
	if path == nil {
		path = []string{}
	}
	return map[string]any{
		"now":        ctx.timestamp(),
		"class":      classBinding(ctx.Class),
		"property":   propertyBinding(ctx.Property),
		"depth":      ctx.Depth,
		"path":       path,
		"format":     ctx.Format,
		"version":    ctx.Version,
		"groups":     groups,
		"attributes": ctx.Attributes,
	}
}

func classBinding(class *ClassMetadata) map[string]any {
	if class == nil {
		return map[string]any{}
	}
	binding := map[string]any{"name": class.Name}
	if len(class.Metadata) > 0 {
		binding["metadata"] = copyMetadata(class.Metadata)
	}
	return binding
}

func propertyBinding(property *PropertyMetadata) map[string]any {
	if property == nil {
		return map[string]any{}
	}
	groups := append([]string{}, property.Groups...)
	binding := map[string]any{
		"class":           property.Class,
		"name":            property.Name,
		"serialized_name": property.SerializedName,
		"since":           property.SinceVersion,
		"until":           property.UntilVersion,
		"groups":          groups,
	}
	if property.MaxDepth != nil {
		binding["max_depth"] = *property.MaxDepth
	}
	if len(property.Metadata) > 0 {
		binding["metadata"] = copyMetadata(property.Metadata)
	}
	return binding
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
