package traverse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the declarative form of a Context's traversal configuration,
// typically loaded from YAML:
//
//	format: json
//	version: "2.1"
//	groups: [public, detail]
//	serialize_null: true
//	max_depth_checks: true
//	expression_exclusion: true
//	engine: cel
//	attributes:
//	  locale: en
type Config struct {
	Format              string         `yaml:"format" validate:"omitempty,min=1"`
	Version             string         `yaml:"version" validate:"omitempty,min=1"`
	Groups              []string       `yaml:"groups" validate:"omitempty,dive,required"`
	SerializeNull       *bool          `yaml:"serialize_null"`
	MaxDepthChecks      bool           `yaml:"max_depth_checks"`
	ExpressionExclusion bool           `yaml:"expression_exclusion"`
	Engine              string         `yaml:"engine" validate:"omitempty,oneof=expr cel js"`
	Attributes          map[string]any `yaml:"attributes"`
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// ParseConfig decodes YAML into a Config and validates it. Unknown keys are
// rejected.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("traverse: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("traverse: read config %q: %w", path, err)
	}
	return ParseConfig(data)
}

// Validate checks field constraints, that the version is comparable and that
// groups keep at least one name once blanks are dropped.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("traverse: invalid config: %w", err)
	}
	if c.Version != "" {
		if _, ok := canonicalVersion(c.Version); !ok {
			return fmt.Errorf("traverse: invalid config: %w: %q", ErrInvalidVersion, c.Version)
		}
	}
	if len(c.Groups) > 0 && len(normalizeGroups(c.Groups)) == 0 {
		return fmt.Errorf("traverse: invalid config: %w: %q", ErrGroupsRequired, c.Groups)
	}
	return nil
}

// Apply configures ctx from c. Either every setting is applied or, on error,
// none is: rules are built before anything is written, and an initialized
// Context fails with ErrImmutable. Attributes are written before version and
// groups, which win on key collisions. Format is not applied; it is bound by
// Initialize.
func (c Config) Apply(ctx *Context) error {
	const op = "apply config"
	if err := ctx.ensureMutable(op); err != nil {
		return err
	}

	var versionRule *VersionExclusionRule
	if c.Version != "" {
		rule, err := NewVersionExclusionRule(c.Version)
		if err != nil {
			return ctx.fail(logicError(op, err))
		}
		versionRule = rule
	}
	var groupsRule *GroupsExclusionRule
	if len(c.Groups) > 0 {
		rule, err := NewGroupsExclusionRule(c.Groups...)
		if err != nil {
			return ctx.fail(logicError(op, err))
		}
		groupsRule = rule
	}

	for key, value := range c.Attributes {
		ctx.attributes[key] = value
	}
	if versionRule != nil {
		ctx.installVersion(versionRule)
	}
	if groupsRule != nil {
		ctx.installGroups(groupsRule)
	}
	if c.MaxDepthChecks {
		ctx.exclusion.Add(DepthExclusionRule{})
	}
	if c.ExpressionExclusion {
		ctx.exclusion.Add(ctx.expressionRule())
	}
	if c.SerializeNull != nil {
		ctx.SetSerializeNull(*c.SerializeNull)
	}
	return nil
}

// NewFromConfig validates cfg and returns a Context configured from it. When
// cfg names an engine and opts carry no evaluator, the engine's evaluator is
// installed with any function registry in opts.
func NewFromConfig(cfg Config, opts ...Option) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := New(opts...)
	if cfg.Engine != "" && ctx.cfg.evaluator == nil {
		evaluator, err := NewEvaluator(cfg.Engine, ctx.cfg.functions)
		if err != nil {
			return nil, err
		}
		ctx.cfg.evaluator = evaluator
	}
	if err := cfg.Apply(ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}
