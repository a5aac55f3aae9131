package wgsl

import (
	"fmt"
	"strings"

	"github.com/runyourempire/game-compiler/game"
	"github.com/runyourempire/game-compiler/ir"
)

// Writer accumulates indented WGSL source.
type Writer struct {
	sb     strings.Builder
	indent int
}

// Line writes one indented line.
func (w *Writer) Line(format string, args ...any) {
	for i := 0; i < w.indent; i++ {
		w.sb.WriteString("  ")
	}
	if len(args) > 0 {
		fmt.Fprintf(&w.sb, format, args...)
	} else {
		w.sb.WriteString(format)
	}
	w.sb.WriteByte('\n')
}

// Blank writes an empty line.
func (w *Writer) Blank() {
	w.sb.WriteByte('\n')
}

// Raw writes text verbatim.
func (w *Writer) Raw(s string) {
	w.sb.WriteString(s)
}

// Indent increases the indent level.
func (w *Writer) Indent() { w.indent++ }

// Dedent decreases the indent level.
func (w *Writer) Dedent() {
	if w.indent > 0 {
		w.indent--
	}
}

// String returns the accumulated source.
func (w *Writer) String() string {
	return w.sb.String()
}

// Generate produces the full WGSL shader for an analyzed cinematic.
// Returned warnings are advisory; the shader is still valid.
func Generate(cin *game.Cinematic, params []ir.Param, mode ir.RenderMode) (string, []string, error) {
	if mode.Kind == ir.RenderRaymarch {
		return generateRaymarch(cin, params, mode)
	}
	return generateFlat(cin, params)
}

func generateFlat(cin *game.Cinematic, params []ir.Param) (string, []string, error) {
	ctx := &ExprContext{ParamNames: paramNameSet(params)}
	used := newBuiltinSet()
	var warnings []string

	// The fragment body is generated first so only the builtins it
	// actually touched get spliced into the final shader.
	body := &Writer{indent: 1}
	multi := len(cin.Layers) > 1

	emitParamBindings(body, params)

	if multi {
		body.Line("var final_color = vec3f(0.0, 0.0, 0.0);")
	}

	names := make(map[string]int)
	emittedResult := false
	for i, layer := range cin.Layers {
		if layer.Chain == nil {
			continue
		}
		emittedResult = true
		if multi {
			body.Blank()
			body.Line("// Layer %d: %s", i, layerLabel(layer, i))
			body.Line("{")
			body.Indent()
			body.Line("var p = input.uv * 2.0 - 1.0;")
		}

		chainNames := names
		if multi {
			// Each layer body is its own block scope.
			chainNames = make(map[string]int)
		}
		end, ws, err := emitChain(body, layer.Chain, ctx, used, chainNames)
		warnings = append(warnings, ws...)
		if err != nil {
			return "", warnings, err
		}

		if multi {
			emitLayerResult(body, end, used)
			emitBlend(body, layer)
			body.Dedent()
			body.Line("}")
		} else {
			emitFinalColor(body, end, used)
		}
	}

	if !emittedResult {
		body.Line("var color_result = vec3f(0.0, 0.0, 0.0);")
	} else if multi {
		body.Blank()
		body.Line("var color_result = final_color;")
	}

	ws, err := emitPost(body, cin, ctx, names)
	warnings = append(warnings, ws...)
	if err != nil {
		return "", warnings, err
	}

	body.Line("return vec4f(color_result, 1.0);")

	// Assembly: header, uniforms, vertex stage, builtins, fragment.
	out := &Writer{}
	emitHeader(out)
	emitUniforms(out, params)
	emitVertex(out, !multi)
	emitBuiltins(out, used)
	out.Line("@fragment")
	out.Line("fn fs_main(input: VertexOutput) -> @location(0) vec4f {")
	if !multi {
		out.Line("  var p = input.uv * 2.0 - 1.0;")
	}
	out.Raw(body.String())
	out.Line("}")

	return out.String(), warnings, nil
}

func layerLabel(layer *game.Layer, i int) string {
	if layer.Name != "" {
		return layer.Name
	}
	return fmt.Sprintf("layer_%d", i)
}

func paramNameSet(params []ir.Param) map[string]bool {
	names := make(map[string]bool, len(params))
	for _, p := range params {
		names[p.Name] = true
	}
	return names
}

func emitHeader(w *Writer) {
	w.Line("// Generated by the GAME compiler. Do not edit.")
	w.Blank()
}

// emitUniforms writes the uniform struct. System floats come first in a
// fixed layout; user params follow at slot ir.SystemFloatCount.
func emitUniforms(w *Writer, params []ir.Param) {
	w.Line("struct Uniforms {")
	w.Line("  time: f32,")
	w.Line("  audio_bass: f32,")
	w.Line("  audio_mid: f32,")
	w.Line("  audio_treble: f32,")
	w.Line("  audio_energy: f32,")
	w.Line("  audio_beat: f32,")
	w.Line("  resolution: vec2f,")
	w.Line("  mouse: vec2f,")
	for _, p := range params {
		w.Line("  %s: f32,", p.UniformField)
	}
	w.Line("}")
	w.Blank()
	w.Line("@group(0) @binding(0) var<uniform> u: Uniforms;")
	w.Blank()
}

func emitVertex(w *Writer, _ bool) {
	w.Line("struct VertexOutput {")
	w.Line("  @builtin(position) position: vec4f,")
	w.Line("  @location(0) uv: vec2f,")
	w.Line("}")
	w.Blank()
	w.Line("@vertex")
	w.Line("fn vs_main(@builtin(vertex_index) vi: u32) -> VertexOutput {")
	w.Line("  // Fullscreen triangle strip: four corners, no vertex buffer.")
	w.Line("  var pos = array<vec2f, 4>(")
	w.Line("    vec2f(-1.0, -1.0), vec2f(1.0, -1.0),")
	w.Line("    vec2f(-1.0, 1.0), vec2f(1.0, 1.0),")
	w.Line("  );")
	w.Line("  var out: VertexOutput;")
	w.Line("  out.position = vec4f(pos[vi], 0.0, 1.0);")
	w.Line("  out.uv = pos[vi] * 0.5 + 0.5;")
	w.Line("  return out;")
	w.Line("}")
	w.Blank()
}

// emitParamBindings gives each user param a fragment-scope let binding
// so chain expressions can reference it by name.
func emitParamBindings(w *Writer, params []ir.Param) {
	for _, p := range params {
		w.Line("let %s = u.%s;", p.Name, p.UniformField)
	}
	if len(params) > 0 {
		w.Blank()
	}
}
