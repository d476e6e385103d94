// Package ruledoc decodes a JSON rule document into the in-memory
// *rulekey.BuildRule graph the core engine consumes. A document declares
// a set of named rules and a root target; rule-typed values reference
// their sibling rules by name, and this package resolves those
// references before the core ever runs, rejecting cycles that the core
// would otherwise only catch lazily during key resolution.
package ruledoc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	bErrors "rulekeybuilder/pkg/errors"
	"rulekeybuilder/internal/rulekey"
)

// Document is the top-level JSON shape: a named set of rules plus the
// target whose RuleKey the caller wants.
type Document struct {
	Rules map[string]ruleDoc `json:"rules"`
	Root  string              `json:"target"`
}

type ruleDoc struct {
	Namespace string      `json:"namespace"`
	Name      string      `json:"name"`
	Flavors   []string    `json:"flavors,omitempty"`
	Inputs    []inputDoc  `json:"inputs"`
}

type inputDoc struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// valueDoc is the tagged-union wire shape for rulekey.Value. "type"
// selects which of the remaining fields are meaningful.
type valueDoc struct {
	Type string `json:"type"`

	Bool   *bool   `json:"bool,omitempty"`
	Int    *int64  `json:"int,omitempty"`
	Width  int     `json:"width,omitempty"`
	Float  *float64 `json:"float,omitempty"`
	String string  `json:"string,omitempty"`
	Bytes  string  `json:"bytes,omitempty"` // base64
	Enum   string  `json:"enum,omitempty"`

	Items   []json.RawMessage `json:"items,omitempty"`
	Ordered bool              `json:"ordered,omitempty"`

	Entries []entryDoc `json:"entries,omitempty"`

	Present bool            `json:"present,omitempty"`
	Inner   json.RawMessage `json:"inner,omitempty"`

	Side string `json:"side,omitempty"` // "left" | "right"

	Name string `json:"name,omitempty"` // source-root name, enum name reused

	// Source paths.
	Path               string `json:"path,omitempty"`
	ArchiveAbsolutePath string `json:"archive_absolute_path,omitempty"`
	MemberRelativePath  string `json:"member_relative_path,omitempty"`
	RuleRef            string `json:"rule_ref,omitempty"`
	OutputPath         string `json:"output_path,omitempty"`
	ResourceIdentifier string `json:"resource_identifier,omitempty"`

	Flags []string `json:"flags,omitempty"`

	// BuildTargetVal / bare rule reference.
	Namespace string `json:"namespace,omitempty"`
}

type entryDoc struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Decode parses a rule document from JSON.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, bErrors.New(bErrors.ErrInvalidRuleDocument, "rule document is not valid JSON").WithCause(err)
	}
	if doc.Root == "" {
		return nil, bErrors.New(bErrors.ErrInvalidRuleDocument, "rule document has no root")
	}
	if _, ok := doc.Rules[doc.Root]; !ok {
		return nil, bErrors.New(bErrors.ErrUnknownRuleRef, fmt.Sprintf("root %q is not a declared rule", doc.Root)).
			WithContext("root", doc.Root)
	}
	return &doc, nil
}

// builder resolves a Document's rules into *rulekey.BuildRule values,
// memoizing completed rules and detecting cycles among rule_ref values
// before any of them reach the core engine's own (independent) cycle
// check in resolveRule.
type builder struct {
	doc        *Document
	resolved   map[string]*rulekey.BuildRule
	inProgress map[string]bool
}

// Build decodes every rule transitively reachable from doc.Root into a
// *rulekey.BuildRule graph and returns the root rule.
func Build(doc *Document) (*rulekey.BuildRule, error) {
	b := &builder{
		doc:        doc,
		resolved:   make(map[string]*rulekey.BuildRule),
		inProgress: make(map[string]bool),
	}
	return b.rule(doc.Root)
}

func (b *builder) rule(name string) (*rulekey.BuildRule, error) {
	if r, ok := b.resolved[name]; ok {
		return r, nil
	}
	if b.inProgress[name] {
		return nil, bErrors.New(bErrors.ErrCyclicDocument, fmt.Sprintf("rule %q participates in a reference cycle", name)).
			WithContext("rule", name)
	}
	rd, ok := b.doc.Rules[name]
	if !ok {
		return nil, bErrors.New(bErrors.ErrUnknownRuleRef, fmt.Sprintf("undeclared rule %q", name)).
			WithContext("rule", name)
	}

	b.inProgress[name] = true

	inputs := make([]rulekey.FieldInput, 0, len(rd.Inputs))
	for _, in := range rd.Inputs {
		v, err := b.value(in.Value)
		if err != nil {
			return nil, fmt.Errorf("rule %q input %q: %w", name, in.Name, err)
		}
		inputs = append(inputs, rulekey.FieldInput{Name: in.Name, Value: v})
	}

	delete(b.inProgress, name)

	target := rulekey.NewBuildTarget(rd.Namespace, rd.Name, rd.Flavors...)
	rule := rulekey.NewBuildRule(target, inputs...)
	b.resolved[name] = rule
	return rule, nil
}

func (b *builder) value(raw json.RawMessage) (rulekey.Value, error) {
	var d valueDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, bErrors.New(bErrors.ErrInvalidRuleDocument, "malformed value").WithCause(err)
	}

	switch d.Type {
	case "null":
		return rulekey.NullValue, nil
	case "bool":
		if d.Bool == nil {
			return nil, invalidValue("bool", "missing \"bool\" field")
		}
		return rulekey.BoolVal(*d.Bool), nil
	case "int":
		if d.Int == nil {
			return nil, invalidValue("int", "missing \"int\" field")
		}
		width, err := intWidth(d.Width)
		if err != nil {
			return nil, err
		}
		return rulekey.IntVal(*d.Int, width), nil
	case "float":
		if d.Float == nil {
			return nil, invalidValue("float", "missing \"float\" field")
		}
		width, err := floatWidth(d.Width)
		if err != nil {
			return nil, err
		}
		return rulekey.FloatVal(*d.Float, width), nil
	case "string":
		return rulekey.StringVal(d.String), nil
	case "regex":
		return rulekey.RegexVal(d.String), nil
	case "bytes":
		raw, err := base64.StdEncoding.DecodeString(d.Bytes)
		if err != nil {
			return nil, invalidValue("bytes", "not valid base64")
		}
		return rulekey.BytesVal(raw), nil
	case "enum":
		return rulekey.EnumVal(d.Enum), nil
	case "sequence":
		items, err := b.values(d.Items)
		if err != nil {
			return nil, err
		}
		return rulekey.SequenceVal(items...), nil
	case "set":
		items, err := b.values(d.Items)
		if err != nil {
			return nil, err
		}
		if d.Ordered {
			return rulekey.OrderedSetVal(items...), nil
		}
		return rulekey.UnorderedSetVal(items...), nil
	case "map":
		entries := make([]rulekey.MapEntry, 0, len(d.Entries))
		for _, e := range d.Entries {
			k, err := b.value(e.Key)
			if err != nil {
				return nil, err
			}
			v, err := b.value(e.Value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, rulekey.MapEntry{Key: k, Value: v})
		}
		if d.Ordered {
			return rulekey.OrderedMapVal(entries...), nil
		}
		return rulekey.UnorderedMapVal(entries...), nil
	case "option":
		if !d.Present {
			return rulekey.NoneVal(), nil
		}
		inner, err := b.value(d.Inner)
		if err != nil {
			return nil, err
		}
		return rulekey.SomeVal(inner), nil
	case "either":
		inner, err := b.value(d.Inner)
		if err != nil {
			return nil, err
		}
		switch d.Side {
		case "left":
			return rulekey.LeftVal(inner), nil
		case "right":
			return rulekey.RightVal(inner), nil
		default:
			return nil, invalidValue("either", "\"side\" must be \"left\" or \"right\"")
		}
	case "source_root":
		return rulekey.SourceRootVal(d.Name), nil
	case "source_with_flags":
		sp, err := b.sourcePath(d)
		if err != nil {
			return nil, err
		}
		spv, ok := sp.(rulekey.SourcePathValue)
		if !ok {
			return nil, invalidValue("source_with_flags", "inner path must be a hashing source path")
		}
		return rulekey.SourceWithFlagsVal(spv, d.Flags...), nil
	case "build_target":
		return rulekey.BuildTargetVal{Target: rulekey.NewBuildTarget(d.Namespace, d.Name)}, nil
	case "source_path", "filesystem_path", "rule_output_path", "resource_path":
		return b.sourcePath(d)
	case "non_hashing_source_path":
		inner, err := b.sourcePathInner(d)
		if err != nil {
			return nil, err
		}
		return rulekey.NonHashingSourcePathVal(inner), nil
	case "archive_member":
		return rulekey.ArchiveMemberSourcePathVal(rulekey.NewArchiveMemberSourcePath(d.ArchiveAbsolutePath, d.MemberRelativePath)), nil
	case "rule":
		rule, err := b.rule(d.RuleRef)
		if err != nil {
			return nil, err
		}
		return rulekey.AppendableVal{Item: rule}, nil
	case "bare_path":
		return rulekey.BareFilesystemPathVal(d.Path), nil
	default:
		return nil, invalidValue(d.Type, "unrecognized value type")
	}
}

// sourcePath decodes a source-path-shaped valueDoc into a
// SourcePathValue (the content-hashing branch, spec.md §4.D.1).
func (b *builder) sourcePath(d valueDoc) (rulekey.Value, error) {
	inner, err := b.sourcePathInner(d)
	if err != nil {
		return nil, err
	}
	return rulekey.SourcePathVal(inner), nil
}

func (b *builder) sourcePathInner(d valueDoc) (rulekey.SourcePath, error) {
	switch d.Type {
	case "source_path", "filesystem_path", "non_hashing_source_path":
		if d.RuleRef != "" {
			rule, err := b.rule(d.RuleRef)
			if err != nil {
				return nil, err
			}
			return rulekey.NewRuleOutputSourcePath(rule, d.OutputPath), nil
		}
		if d.ResourceIdentifier != "" {
			return rulekey.NewResourceSourcePath(d.ResourceIdentifier), nil
		}
		return rulekey.NewFilesystemSourcePath(d.Path), nil
	case "rule_output_path":
		rule, err := b.rule(d.RuleRef)
		if err != nil {
			return nil, err
		}
		return rulekey.NewRuleOutputSourcePath(rule, d.OutputPath), nil
	case "resource_path":
		return rulekey.NewResourceSourcePath(d.ResourceIdentifier), nil
	default:
		return nil, invalidValue(d.Type, "not a source-path value")
	}
}

func (b *builder) values(raws []json.RawMessage) ([]rulekey.Value, error) {
	out := make([]rulekey.Value, 0, len(raws))
	for _, raw := range raws {
		v, err := b.value(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func intWidth(bits int) (rulekey.IntWidth, error) {
	switch bits {
	case 0, 64:
		return rulekey.Int64, nil
	case 8:
		return rulekey.Int8, nil
	case 16:
		return rulekey.Int16, nil
	case 32:
		return rulekey.Int32, nil
	default:
		return 0, invalidValue("int", fmt.Sprintf("unsupported width %d", bits))
	}
}

func floatWidth(bits int) (rulekey.FloatWidth, error) {
	switch bits {
	case 0, 64:
		return rulekey.Float64, nil
	case 32:
		return rulekey.Float32, nil
	default:
		return 0, invalidValue("float", fmt.Sprintf("unsupported width %d", bits))
	}
}

func invalidValue(kind, reason string) error {
	return bErrors.New(bErrors.ErrInvalidRuleDocument, fmt.Sprintf("%s value: %s", kind, reason))
}
