package wgsl

import (
	"fmt"

	"github.com/runyourempire/game-compiler/game"
	"github.com/runyourempire/game-compiler/ir"
)

func hasPost(cin *game.Cinematic) bool {
	for _, lens := range cin.Lenses {
		if len(lens.Post) > 0 {
			return true
		}
	}
	return false
}

// blendFoldBuiltin picks the SDF combinator folding a layer into the
// height field: multiply keeps the overlap, everything else merges.
func blendFoldBuiltin(mode game.BlendMode) string {
	if mode == game.BlendMultiply {
		return "sdf_smooth_intersect"
	}
	return "sdf_smooth_union"
}

// fieldChain trims a layer chain to the prefix usable inside a height
// field function. Screen-space stages need fragment inputs that do not
// exist there.
func fieldChain(chain *game.PipeChain) *game.PipeChain {
	for i, st := range chain.Stages {
		if st.Name == "gradient" || postOps[st.Name] {
			return &game.PipeChain{Stages: chain.Stages[:i]}
		}
	}
	return chain
}

// generateRaymarch lifts each layer's field into a raymarched
// heightfield with an orbiting camera. Additional layers fold into the
// scene SDF by smooth union (or intersection for multiply blends).
func generateRaymarch(cin *game.Cinematic, params []ir.Param, mode ir.RenderMode) (string, []string, error) {
	ctx := &ExprContext{ParamNames: paramNameSet(params)}
	used := newBuiltinSet()
	var warnings []string

	if len(cin.Layers) > 1 {
		warnings = append(warnings, "raymarch mode folds additional layers into the height field; blend opacity is ignored")
	}

	// Field bodies are generated first, for builtin tree-shaking. The
	// position parameter is shadowed by a var so transform stages can
	// reassign it.
	fields := make([]*Writer, len(cin.Layers))
	for i, layer := range cin.Layers {
		field := &Writer{indent: 1}
		field.Line("var p = p_in;")
		emitParamBindings(field, params)
		if layer.Chain != nil {
			end, ws, err := emitChain(field, fieldChain(layer.Chain), ctx, used, nil)
			warnings = append(warnings, ws...)
			if err != nil {
				return "", warnings, err
			}
			switch end {
			case stateSdf, stateGlow, stateColor:
				field.Line("return sdf_result;")
			default:
				field.Line("return 0.0;")
			}
		} else {
			field.Line("return 0.0;")
		}
		fields[i] = field
	}

	scene := &Writer{}
	if len(fields) <= 1 {
		scene.Line("fn field_at(p_in: vec2f) -> f32 {")
		if len(fields) == 1 {
			scene.Raw(fields[0].String())
		} else {
			scene.Line("  return 0.0;")
		}
		scene.Line("}")
		scene.Blank()

		scene.Line("fn map_scene(pos: vec3f) -> f32 {")
		scene.Line("  return pos.y - field_at(pos.xz);")
		scene.Line("}")
		scene.Blank()
	} else {
		for i, field := range fields {
			scene.Line("fn field_at_%d(p_in: vec2f) -> f32 {", i)
			scene.Raw(field.String())
			scene.Line("}")
			scene.Blank()
		}

		scene.Line("fn map_scene(pos: vec3f) -> f32 {")
		for i := range fields {
			scene.Line("  let d_%d = pos.y - field_at_%d(pos.xz);", i, i)
		}
		combined := "d_0"
		for i := 1; i < len(fields); i++ {
			fold := blendFoldBuiltin(cin.Layers[i].BlendMode)
			used.add(fold)
			combined = fmt.Sprintf("%s(%s, d_%d, 0.1)", fold, combined, i)
		}
		scene.Line("  return %s;", combined)
		scene.Line("}")
		scene.Blank()
	}

	post := &Writer{indent: 1}
	if hasPost(cin) {
		emitParamBindings(post, params)
	}
	postWarnings, err := emitPost(post, cin, ctx, make(map[string]int))
	warnings = append(warnings, postWarnings...)
	if err != nil {
		return "", warnings, err
	}

	out := &Writer{}
	emitHeader(out)
	emitUniforms(out, params)
	emitVertex(out, true)
	emitBuiltins(out, used)
	out.Raw(scene.String())

	out.Line("fn calc_normal(pos: vec3f) -> vec3f {")
	out.Line("  let e = 0.001;")
	out.Line("  return normalize(vec3f(")
	out.Line("    map_scene(pos + vec3f(e, 0.0, 0.0)) - map_scene(pos - vec3f(e, 0.0, 0.0)),")
	out.Line("    map_scene(pos + vec3f(0.0, e, 0.0)) - map_scene(pos - vec3f(0.0, e, 0.0)),")
	out.Line("    map_scene(pos + vec3f(0.0, 0.0, e)) - map_scene(pos - vec3f(0.0, 0.0, e)),")
	out.Line("  ));")
	out.Line("}")
	out.Blank()

	out.Line("fn soft_shadow(ro: vec3f, rd: vec3f) -> f32 {")
	out.Line("  var res = 1.0;")
	out.Line("  var t = 0.02;")
	out.Line("  for (var i = 0; i < 32; i++) {")
	out.Line("    let d = map_scene(ro + rd * t);")
	out.Line("    res = min(res, 8.0 * d / t);")
	out.Line("    t += clamp(d, 0.02, 0.2);")
	out.Line("    if (res < 0.005 || t > 10.0) { break; }")
	out.Line("  }")
	out.Line("  return clamp(res, 0.0, 1.0);")
	out.Line("}")
	out.Blank()

	out.Line("fn calc_ao(pos: vec3f, n: vec3f) -> f32 {")
	out.Line("  var occ = 0.0;")
	out.Line("  var sca = 1.0;")
	out.Line("  for (var i = 0; i < 5; i++) {")
	out.Line("    let h = 0.01 + 0.12 * f32(i) / 4.0;")
	out.Line("    let d = map_scene(pos + n * h);")
	out.Line("    occ += (h - d) * sca;")
	out.Line("    sca *= 0.95;")
	out.Line("  }")
	out.Line("  return clamp(1.0 - 3.0 * occ, 0.0, 1.0);")
	out.Line("}")
	out.Blank()

	out.Line("@fragment")
	out.Line("fn fs_main(input: VertexOutput) -> @location(0) vec4f {")
	out.Line("  let suv = input.uv * 2.0 - 1.0;")
	out.Blank()
	out.Line("  let cam_angle = u.time * %s;", FormatFloat(mode.CamSpeed))
	out.Line("  let cam_pos = vec3f(cos(cam_angle) * %s, %s, sin(cam_angle) * %s);",
		FormatFloat(mode.CamRadius), FormatFloat(mode.CamHeight), FormatFloat(mode.CamRadius))
	out.Line("  let look_at = vec3f(0.0, 0.0, 0.0);")
	out.Line("  let fwd = normalize(look_at - cam_pos);")
	out.Line("  let right = normalize(cross(vec3f(0.0, 1.0, 0.0), fwd));")
	out.Line("  let up = cross(fwd, right);")
	out.Line("  let rd = normalize(fwd + suv.x * right + suv.y * up);")
	out.Blank()
	out.Line("  var t = 0.0;")
	out.Line("  var hit = false;")
	out.Line("  for (var i = 0; i < 128; i++) {")
	out.Line("    let pos = cam_pos + rd * t;")
	out.Line("    let d = map_scene(pos);")
	out.Line("    if (d < 0.001) {")
	out.Line("      hit = true;")
	out.Line("      break;")
	out.Line("    }")
	out.Line("    t += max(d * 0.8, 0.001);")
	out.Line("    if (t > 50.0) { break; }")
	out.Line("  }")
	out.Blank()
	out.Line("  var color_result = vec3f(0.02, 0.02, 0.04);")
	out.Line("  if (hit) {")
	out.Line("    let pos = cam_pos + rd * t;")
	out.Line("    let n = calc_normal(pos);")
	out.Line("    let light_dir = normalize(vec3f(0.6, 0.8, 0.4));")
	out.Line("    let diffuse = max(dot(n, light_dir), 0.0);")
	out.Line("    let shadow = soft_shadow(pos + n * 0.01, light_dir);")
	out.Line("    let ao = calc_ao(pos, n);")
	out.Line("    let ambient = 0.1;")
	out.Line("    color_result = vec3f(0.8, 0.75, 0.7) * (ambient + diffuse * shadow) * ao;")
	out.Line("    color_result = mix(color_result, vec3f(0.02, 0.02, 0.04), 1.0 - exp(-t * 0.03));")
	out.Line("  }")

	out.Raw(post.String())

	out.Line("  return vec4f(color_result, 1.0);")
	out.Line("}")

	return out.String(), warnings, nil
}
