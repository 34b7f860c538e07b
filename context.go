package traverse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goliatone/go-traverse/internal/clone"
	"github.com/goliatone/go-traverse/pkg/activity"
	"github.com/google/uuid"
)

// NullPolicy records whether null values are emitted, keeping an explicit
// choice distinguishable from the default.
type NullPolicy int

const (
	// NullPolicyUnset behaves like NullPolicyNever but records that the caller
	// made no choice.
	NullPolicyUnset NullPolicy = iota
	// NullPolicyNever skips null values.
	NullPolicyNever
	// NullPolicyAlways emits null values.
	NullPolicyAlways
)

func (p NullPolicy) String() string {
	switch p {
	case NullPolicyNever:
		return "never"
	case NullPolicyAlways:
		return "always"
	default:
		return "unset"
	}
}

// Context carries the configuration and traversal state of a single
// serialization or deserialization operation.
//
// A Context is configured first (attributes, exclusion rules, null policy),
// then frozen by Initialize, which binds the format and the driving
// collaborators. After that the navigator pushes and pops metadata frames as
// it walks the object graph. A Context drives exactly one top-level traversal
// and is not safe for concurrent use.
type Context struct {
	attributes    map[string]any
	exclusion     *DisjunctExclusionRule
	serializeNull NullPolicy
	initialized   bool

	id              string
	format          string
	visitor         Visitor
	navigator       Navigator
	metadataFactory MetadataFactory
	stack           *MetadataStack
	accepting       int

	cfg     contextConfig
	logger  *slog.Logger
	metrics traversalMetrics
	emitter *activity.Emitter
}

// New returns an unconfigured Context: no attributes, an empty exclusion
// composite that excludes nothing, and an unset null policy.
func New(opts ...Option) *Context {
	cfg := applyOptions(opts)
	return &Context{
		attributes: map[string]any{},
		exclusion:  NewDisjunctExclusionRule(),
		cfg:        cfg,
		logger:     cfg.loggerOrDiscard(),
		metrics:    traversalMetrics{set: cfg.metrics},
		emitter:    cfg.emitter(),
	}
}

// Initialize binds the format and the traversal collaborators and freezes the
// configuration. It may be called once; reusing a Context is a programming
// error reported as a LogicError, and the Context is left untouched.
func (c *Context) Initialize(format string, visitor Visitor, navigator Navigator, factory MetadataFactory) error {
	if c.initialized {
		return c.fail(logicError("initialize", ErrAlreadyInitialized))
	}
	format = strings.TrimSpace(format)
	if format == "" {
		return c.fail(logicError("initialize", ErrFormatRequired))
	}
	if navigator == nil {
		return c.fail(logicError("initialize", ErrNavigatorRequired))
	}

	c.format = format
	c.visitor = visitor
	c.navigator = navigator
	c.metadataFactory = factory
	c.stack = newMetadataStack()
	c.id = uuid.NewString()
	c.initialized = true

	version, _ := c.Version()
	c.logger.Debug("traversal context initialized",
		slog.String("context_id", c.id),
		slog.String("format", c.format),
		slog.String("version", version),
		slog.Any("groups", c.Groups()),
		slog.Int("exclusion_rules", c.exclusion.Len()),
		slog.String("serialize_null", c.serializeNull.String()),
	)
	c.emit(activity.BuildTraversalInitializedEvent(c.eventInput()))
	return nil
}

// Accept hands value to the navigator together with this Context. The
// navigator is called exactly once per invocation and may re-enter Accept for
// nested values. When the outermost call returns, every pushed frame must have
// been popped; leftovers are reported as a StackError.
func (c *Context) Accept(value any, hint *TypeHint) (any, error) {
	if !c.initialized {
		return nil, c.fail(logicError("accept", ErrNotInitialized))
	}

	c.accepting++
	outermost := c.accepting == 1
	start := time.Now()
	result, err := func() (any, error) {
		defer func() { c.accepting-- }()
		return c.navigator.Accept(value, hint, c)
	}()
	if !outermost {
		return result, err
	}

	c.metrics.accepted(c.format, start)
	if err == nil && !c.stack.Empty() {
		err = c.fail(&StackError{Op: "accept", Depth: c.stack.Len(), Err: ErrUnbalancedStack})
	}

	input := c.eventInput()
	input.Duration = time.Since(start)
	if err != nil {
		input.Err = err
		c.logger.Error("traversal failed",
			slog.String("context_id", c.id),
			slog.String("format", c.format),
			slog.Any("error", err),
		)
		c.emit(activity.BuildTraversalFailedEvent(input))
		return nil, err
	}
	c.logger.Debug("traversal completed",
		slog.String("context_id", c.id),
		slog.String("format", c.format),
		slog.Duration("duration", input.Duration),
	)
	c.emit(activity.BuildTraversalCompletedEvent(input))
	return result, nil
}

// ID identifies the Context in logs and activity events once initialized.
func (c *Context) ID() string {
	return c.id
}

// Initialized reports whether the configuration is frozen.
func (c *Context) Initialized() bool {
	return c.initialized
}

// Format returns the format bound by Initialize.
func (c *Context) Format() string {
	return c.format
}

// Visitor returns the visitor bound by Initialize.
func (c *Context) Visitor() Visitor {
	return c.visitor
}

// Navigator returns the navigator bound by Initialize.
func (c *Context) Navigator() Navigator {
	return c.navigator
}

// MetadataFactory returns the metadata factory bound by Initialize.
func (c *Context) MetadataFactory() MetadataFactory {
	return c.metadataFactory
}

// Attribute returns the value stored under key or an error wrapping
// ErrAttributeNotFound. Use HasAttribute to check without an error.
func (c *Context) Attribute(key string) (any, error) {
	value, ok := c.attributes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAttributeNotFound, key)
	}
	return value, nil
}

// HasAttribute reports whether key has been set.
func (c *Context) HasAttribute(key string) bool {
	_, ok := c.attributes[key]
	return ok
}

// Attributes returns a deep copy of every attribute.
func (c *Context) Attributes() map[string]any {
	return clone.Map(c.attributes)
}

// SetAttribute stores value under key, replacing any previous value.
func (c *Context) SetAttribute(key string, value any) (*Context, error) {
	if err := c.ensureMutable("set attribute"); err != nil {
		return c, err
	}
	c.attributes[key] = value
	return c, nil
}

// Version returns the "version" attribute as a string. Values stored through
// SetAttribute that are not strings are rendered with fmt.Sprint, so
// SetAttribute("version", 5) reads back as "5". Only SetVersion installs a
// version exclusion rule.
func (c *Context) Version() (string, bool) {
	switch version := c.attributes[AttributeVersion].(type) {
	case nil:
		return "", false
	case string:
		return version, version != ""
	default:
		return fmt.Sprint(version), true
	}
}

// Groups returns a copy of the "groups" attribute. A single string or a
// []any set through SetAttribute is read as a group list; other values read
// as no groups.
func (c *Context) Groups() []string {
	var groups []string
	switch value := c.attributes[AttributeGroups].(type) {
	case []string:
		groups = append(groups, value...)
	case string:
		groups = append(groups, value)
	case []any:
		for _, item := range value {
			if item != nil {
				groups = append(groups, fmt.Sprint(item))
			}
		}
	}
	if len(groups) == 0 {
		return nil
	}
	return normalizeGroups(groups)
}

// AddExclusionRule appends rule to the exclusion composite. Rules are
// evaluated in the order they were added.
func (c *Context) AddExclusionRule(rule ExclusionRule) (*Context, error) {
	if err := c.ensureMutable("add exclusion rule"); err != nil {
		return c, err
	}
	if rule == nil {
		return c, c.fail(logicError("add exclusion rule", ErrNilRule))
	}
	c.exclusion.Add(rule)
	return c, nil
}

// SetVersion records version under the "version" attribute and adds a version
// exclusion rule. Either both happen or neither does.
func (c *Context) SetVersion(version string) (*Context, error) {
	if err := c.ensureMutable("set version"); err != nil {
		return c, err
	}
	rule, err := NewVersionExclusionRule(version)
	if err != nil {
		return c, c.fail(logicError("set version", err))
	}
	c.installVersion(rule)
	return c, nil
}

// SetGroups records the normalised groups under the "groups" attribute and
// adds a group exclusion rule.
func (c *Context) SetGroups(groups ...string) (*Context, error) {
	if err := c.ensureMutable("set groups"); err != nil {
		return c, err
	}
	rule, err := NewGroupsExclusionRule(groups...)
	if err != nil {
		return c, c.fail(logicError("set groups", err))
	}
	c.installGroups(rule)
	return c, nil
}

func (c *Context) installVersion(rule *VersionExclusionRule) {
	c.attributes[AttributeVersion] = rule.Version()
	c.exclusion.Add(rule)
}

func (c *Context) installGroups(rule *GroupsExclusionRule) {
	c.attributes[AttributeGroups] = rule.Groups()
	c.exclusion.Add(rule)
}

// EnableMaxDepthChecks adds a rule excluding properties nested deeper than
// their MaxDepth. Depth is read from the live metadata stack.
func (c *Context) EnableMaxDepthChecks() (*Context, error) {
	if err := c.ensureMutable("enable max depth checks"); err != nil {
		return c, err
	}
	c.exclusion.Add(DepthExclusionRule{})
	return c, nil
}

// EnableExpressionExclusion adds a rule excluding properties whose ExcludeIf
// expression evaluates to true. The configured evaluator is used, falling
// back to the expr engine.
func (c *Context) EnableExpressionExclusion() (*Context, error) {
	if err := c.ensureMutable("enable expression exclusion"); err != nil {
		return c, err
	}
	c.exclusion.Add(c.expressionRule())
	return c, nil
}

func (c *Context) expressionRule() *ExpressionExclusionRule {
	return NewExpressionExclusionRule(c.resolveEvaluator(), c.cfg.programCache, c.cfg.evaluatorLoggerOrNoop())
}

// ExclusionRule returns the composite every exclusion decision goes through.
func (c *Context) ExclusionRule() ExclusionRule {
	return c.exclusion
}

// ShouldSkipClass evaluates the exclusion composite for class.
func (c *Context) ShouldSkipClass(class *ClassMetadata) (bool, error) {
	return c.shouldSkip(class, nil)
}

// ShouldSkipProperty evaluates the exclusion composite for property within
// the class currently on the metadata stack.
func (c *Context) ShouldSkipProperty(property *PropertyMetadata) (bool, error) {
	return c.shouldSkip(c.stack.CurrentClass(), property)
}

func (c *Context) shouldSkip(class *ClassMetadata, property *PropertyMetadata) (bool, error) {
	rule, excluded, err := c.exclusion.firstExcluding(class, property, c)
	if err != nil {
		return false, err
	}
	if excluded {
		c.metrics.excluded(ruleName(rule))
	}
	return excluded, nil
}

// SetSerializeNull sets the null emission policy. Unlike the other setters it
// stays writable after Initialize.
func (c *Context) SetSerializeNull(serialize bool) *Context {
	if serialize {
		c.serializeNull = NullPolicyAlways
	} else {
		c.serializeNull = NullPolicyNever
	}
	return c
}

// ShouldSerializeNull reports whether null values are emitted. It is false
// unless SetSerializeNull(true) was called.
func (c *Context) ShouldSerializeNull() bool {
	return c.serializeNull == NullPolicyAlways
}

// SerializeNullSet reports whether SetSerializeNull was called.
func (c *Context) SerializeNullSet() bool {
	return c.serializeNull != NullPolicyUnset
}

// NullPolicy returns the raw null emission policy.
func (c *Context) NullPolicy() NullPolicy {
	return c.serializeNull
}

// PushClassMetadata records that the traversal entered class.
func (c *Context) PushClassMetadata(class *ClassMetadata) error {
	return c.push("push class metadata", Frame{Kind: FrameClass, Class: class})
}

// PushPropertyMetadata records that the traversal entered property.
func (c *Context) PushPropertyMetadata(property *PropertyMetadata) error {
	return c.push("push property metadata", Frame{Kind: FrameProperty, Property: property})
}

// PopClassMetadata removes the top frame, which must be a class frame.
func (c *Context) PopClassMetadata() error {
	return c.pop("pop class metadata", FrameClass)
}

// PopPropertyMetadata removes the top frame, which must be a property frame.
func (c *Context) PopPropertyMetadata() error {
	return c.pop("pop property metadata", FrameProperty)
}

// MetadataStack exposes the live frame stack for inspection. It is nil before
// Initialize.
func (c *Context) MetadataStack() *MetadataStack {
	return c.stack
}

// Depth returns how many objects deep the traversal currently is.
func (c *Context) Depth() int {
	return c.stack.Depth()
}

func (c *Context) push(op string, frame Frame) error {
	if !c.initialized {
		return c.fail(logicError(op, ErrNotInitialized))
	}
	c.stack.push(frame)
	c.metrics.framePushed(frame.Kind)
	return nil
}

func (c *Context) pop(op string, kind FrameKind) error {
	if !c.initialized {
		return c.fail(logicError(op, ErrNotInitialized))
	}
	if _, err := c.stack.pop(op, kind); err != nil {
		return c.fail(err)
	}
	c.metrics.framePopped(kind)
	return nil
}

// ensureMutable is the single gate every configuration mutator goes through.
func (c *Context) ensureMutable(op string) error {
	if !c.initialized {
		return nil
	}
	return c.fail(logicError(op, ErrImmutable))
}

// fail records err in metrics and logs before handing it back.
func (c *Context) fail(err error) error {
	switch {
	case IsStackError(err):
		c.metrics.stackError()
	case IsLogicError(err):
		c.metrics.logicError()
	}
	c.logger.Debug("traversal context error",
		slog.String("context_id", c.id),
		slog.Any("error", err),
	)
	return err
}

func (c *Context) ruleContext(class *ClassMetadata, property *PropertyMetadata) RuleContext {
	version, _ := c.Version()
	return RuleContext{
		Class:      class,
		Property:   property,
		Depth:      c.stack.Depth(),
		Path:       c.stack.Path(),
		Format:     c.format,
		Version:    version,
		Groups:     c.Groups(),
		Attributes: c.Attributes(),
	}
}

func (c *Context) eventInput() activity.TraversalEventInput {
	if !c.emitter.Enabled() {
		return activity.TraversalEventInput{}
	}
	version, _ := c.Version()
	return activity.TraversalEventInput{
		ContextID:     c.id,
		Format:        c.format,
		Version:       version,
		Groups:        c.Groups(),
		Attributes:    c.Attributes(),
		SerializeNull: c.ShouldSerializeNull(),
		Rules:         c.exclusion.Len(),
	}
}

func (c *Context) emit(event activity.Event) {
	if !c.emitter.Enabled() {
		return
	}
	if err := c.emitter.Emit(context.Background(), event); err != nil {
		c.logger.Warn("traversal activity hook failed",
			slog.String("context_id", c.id),
			slog.String("verb", event.Verb),
			slog.Any("error", err),
		)
	}
}
