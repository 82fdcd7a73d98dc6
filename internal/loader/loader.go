// Package loader parses step documents written in HCL into the spec model.
//
// A document is a set of `step "<name>" { ... }` blocks plus optional
// `locals` blocks. Expressions (arithmetic, string operations, a curated
// function set, `local.*` bindings) are evaluated at load time, so the
// resulting model holds only concrete values; embedded reference objects
// ({type = "ref", ref = "x"}) evaluate to plain objects and are recognized
// later by the resolver. Loading is a pure function of the input text.
package loader

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/stepflow/internal/ctxlog"
	"github.com/vk/stepflow/internal/fsutil"
	"github.com/vk/stepflow/internal/spec"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Loader parses HCL step documents.
type Loader struct {
	parser *hclparse.Parser
}

// New returns a ready Loader.
func New() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

var documentSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "locals"},
		{Type: "step", LabelNames: []string{"name"}},
	},
}

var stepSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "cacheable"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "arguments"},
	},
}

// Load reads a document from a file path or from a directory of *.hcl files
// (merged in sorted path order) and returns the parsed model.
func (l *Loader) Load(ctx context.Context, path string) (*spec.Document, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading document path: %w", err)
	}

	paths := []string{path}
	if info.IsDir() {
		paths, err = fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("scanning document directory: %w", err)
		}
	}
	logger.Debug("Loading step document.", "files", len(paths))

	files := make([]*hcl.File, 0, len(paths))
	for _, p := range paths {
		file, diags := l.parser.ParseHCLFile(p)
		if diags.HasErrors() {
			return nil, syntaxErr(diags)
		}
		files = append(files, file)
	}
	return l.buildDocument(ctx, files)
}

// LoadSource parses a single in-memory document. Used by tests and by
// callers that assemble documents programmatically.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*spec.Document, error) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, syntaxErr(diags)
	}
	return l.buildDocument(ctx, []*hcl.File{file})
}

// buildDocument evaluates locals first (across all files, in order), then
// translates every step block with the complete evaluation context.
func (l *Loader) buildDocument(ctx context.Context, files []*hcl.File) (*spec.Document, error) {
	logger := ctxlog.FromContext(ctx)

	type fileContent struct {
		locals []*hcl.Block
		steps  []*hcl.Block
	}
	contents := make([]fileContent, 0, len(files))
	for _, file := range files {
		content, diags := file.Body.Content(documentSchema)
		if diags.HasErrors() {
			return nil, syntaxErr(diags)
		}
		var fc fileContent
		for _, block := range content.Blocks {
			switch block.Type {
			case "locals":
				fc.locals = append(fc.locals, block)
			case "step":
				fc.steps = append(fc.steps, block)
			}
		}
		contents = append(contents, fc)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: evalFunctions(),
	}

	// Locals are bindings resolved entirely at load time. Evaluation is
	// sequential in source order, so a binding may use any binding declared
	// before it in the same document.
	locals := make(map[string]cty.Value)
	for _, fc := range contents {
		for _, block := range fc.locals {
			if err := l.evalLocals(block, evalCtx, locals); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("Evaluated document locals.", "count", len(locals))

	var steps []*spec.StepSpec
	seen := make(map[string]hcl.Range)
	for _, fc := range contents {
		for _, block := range fc.steps {
			step, err := l.translateStep(block, evalCtx)
			if err != nil {
				return nil, err
			}
			if prev, dup := seen[step.Name]; dup {
				return nil, syntaxErr(hcl.Diagnostics{{
					Severity: hcl.DiagError,
					Summary:  fmt.Sprintf("Duplicate step %q", step.Name),
					Detail:   fmt.Sprintf("A step with this name was already declared at %s.", prev),
					Subject:  &block.DefRange,
				}})
			}
			seen[step.Name] = block.DefRange
			steps = append(steps, step)
		}
	}
	logger.Debug("Document loaded.", "steps", len(steps))

	return spec.NewDocument(steps), nil
}

// evalLocals evaluates one locals block into the shared bindings map,
// updating the evaluation context as it goes.
func (l *Loader) evalLocals(block *hcl.Block, evalCtx *hcl.EvalContext, locals map[string]cty.Value) error {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return syntaxErr(diags)
	}
	for _, attr := range sortAttributes(attrs) {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return syntaxErr(diags)
		}
		locals[attr.Name] = val
		evalCtx.Variables["local"] = cty.ObjectVal(locals)
	}
	return nil
}

// translateStep converts one step block into the spec model.
func (l *Loader) translateStep(block *hcl.Block, evalCtx *hcl.EvalContext) (*spec.StepSpec, error) {
	content, diags := block.Body.Content(stepSchema)
	if diags.HasErrors() {
		return nil, syntaxErr(diags)
	}

	step := &spec.StepSpec{
		Name:      block.Labels[0],
		Cacheable: true,
		DeclRange: block.DefRange,
	}

	kindVal, diags := content.Attributes["type"].Expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, syntaxErr(diags)
	}
	kindVal, err := convert.Convert(kindVal, cty.String)
	if err != nil || kindVal.IsNull() {
		r := content.Attributes["type"].Range
		return nil, syntaxErr(hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid step type",
			Detail:   fmt.Sprintf("The type of step %q must be a string naming a registered kind.", step.Name),
			Subject:  &r,
		}})
	}
	step.Kind = kindVal.AsString()

	if attr, ok := content.Attributes["cacheable"]; ok {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, syntaxErr(diags)
		}
		val, err := convert.Convert(val, cty.Bool)
		if err != nil || val.IsNull() {
			return nil, syntaxErr(hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid cacheable attribute",
				Detail:   fmt.Sprintf("cacheable on step %q must be a boolean.", step.Name),
				Subject:  &attr.Range,
			}})
		}
		step.Cacheable = val.True()
	}

	var argsBlock *hcl.Block
	for _, b := range content.Blocks {
		if argsBlock != nil {
			return nil, syntaxErr(hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Duplicate arguments block",
				Detail:   fmt.Sprintf("Step %q may have at most one arguments block.", step.Name),
				Subject:  &b.DefRange,
			}})
		}
		argsBlock = b
	}

	if argsBlock != nil {
		attrs, diags := argsBlock.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, syntaxErr(diags)
		}
		for _, attr := range sortAttributes(attrs) {
			val, diags := attr.Expr.Value(evalCtx)
			if diags.HasErrors() {
				return nil, syntaxErr(diags)
			}
			step.Fields = append(step.Fields, spec.Field{
				Name:  attr.Name,
				Value: val,
				Range: attr.Range,
			})
		}
	}

	return step, nil
}

// sortAttributes orders an attribute map by source position, recovering the
// author's declaration order.
func sortAttributes(attrs hcl.Attributes) []*hcl.Attribute {
	out := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.Filename != out[j].Range.Filename {
			return out[i].Range.Filename < out[j].Range.Filename
		}
		return out[i].Range.Start.Byte < out[j].Range.Start.Byte
	})
	return out
}
