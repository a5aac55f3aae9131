package wgsl

import (
	"strings"
	"testing"

	"github.com/runyourempire/game-compiler/game"
	"github.com/runyourempire/game-compiler/ir"
)

func compile(t *testing.T, source string) string {
	t.Helper()
	shader, _ := compileWithWarnings(t, source)
	return shader
}

func compileWithWarnings(t *testing.T, source string) (string, []string) {
	t.Helper()
	tokens, err := game.Lex(source)
	if err != nil {
		t.Fatalf("Lex() error: %v", err)
	}
	cin, err := game.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	game.ExpandDefines(cin)
	params, _ := ir.CollectParams(cin)
	mode := ir.DetermineRenderMode(cin)
	shader, warnings, err := Generate(cin, params, mode)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return shader, warnings
}

func wrap(chain string) string {
	return "cinematic {\n  layer {\n    fn: " + chain + "\n  }\n}"
}

func TestOutputOrdering(t *testing.T) {
	shader := compile(t, wrap("circle(0.3) | glow(2.0)"))
	uniforms := strings.Index(shader, "struct Uniforms")
	vertex := strings.Index(shader, "fn vs_main")
	fragment := strings.Index(shader, "fn fs_main")
	if uniforms < 0 || vertex < 0 || fragment < 0 {
		t.Fatalf("missing sections: %d %d %d", uniforms, vertex, fragment)
	}
	if !(uniforms < vertex && vertex < fragment) {
		t.Errorf("section order: uniforms=%d vertex=%d fragment=%d", uniforms, vertex, fragment)
	}
}

func TestBuiltinTreeShaking(t *testing.T) {
	shader := compile(t, wrap("circle(0.3) | glow(2.0)"))
	for _, want := range []string{"fn sdf_circle", "fn apply_glow"} {
		if !strings.Contains(shader, want) {
			t.Errorf("missing %s", want)
		}
	}
	for _, reject := range []string{"fn fbm2", "fn noise2", "fn hash2"} {
		if strings.Contains(shader, reject) {
			t.Errorf("unused builtin %s leaked into output", reject)
		}
	}
}

func TestBuiltinDependencyOrder(t *testing.T) {
	shader := compile(t, wrap("fbm(3.0)"))
	hash := strings.Index(shader, "fn hash2")
	noise := strings.Index(shader, "fn noise2")
	fbm := strings.Index(shader, "fn fbm2")
	if hash < 0 || noise < 0 || fbm < 0 {
		t.Fatalf("missing builtins: %d %d %d", hash, noise, fbm)
	}
	if !(hash < noise && noise < fbm) {
		t.Errorf("builtin order: hash2=%d noise2=%d fbm2=%d", hash, noise, fbm)
	}
}

func TestParamBinding(t *testing.T) {
	shader := compile(t, `cinematic {
  layer {
    radius: 0.3 ~ audio.bass * 0.2
    fn: circle(radius) | glow(2.0)
  }
}`)
	if !strings.Contains(shader, "p_radius: f32") {
		t.Error("uniform struct missing p_radius")
	}
	if !strings.Contains(shader, "let radius = u.p_radius;") {
		t.Error("missing param let binding")
	}
}

func TestUnknownStageRejected(t *testing.T) {
	tokens, _ := game.Lex(wrap("totally_fake(1.0)"))
	cin, _ := game.NewParser(tokens).Parse()
	_, _, err := Generate(cin, nil, ir.RenderMode{})
	if err == nil {
		t.Fatal("expected error for unknown stage")
	}
	if !strings.Contains(err.Error(), "totally_fake") {
		t.Errorf("error %q should name the stage", err.Error())
	}
}

func TestStageFragments(t *testing.T) {
	tests := []struct {
		name  string
		chain string
		want  []string
	}{
		{"ring", "ring(0.3, 0.04)", []string{"abs(length(p) - 0.3) - 0.04"}},
		{"box", "box(0.3, 0.2)", []string{"sdf_box2(p, vec2f(0.3, 0.2))"}},
		{"rotate", "rotate(time) | circle(0.3)", []string{"let rc = cos(", "let rs = sin("}},
		{"repeat", "repeat(0.5) | circle(0.1)", []string{"round(p / 0.5)"}},
		{"mirror_x", `mirror("x") | circle(0.3)`, []string{"abs(p.x)"}},
		{"mirror_xy", `mirror("xy") | circle(0.3)`, []string{"p = abs(p)"}},
		{"scale", "scale(2.0) | circle(0.3)", []string{"p = p / 2.0", "scale_factor", "sdf_result *= scale_factor"}},
		{"twist", "twist(3.0) | box(0.3, 0.3)", []string{"tw_a", "tw_c"}},
		{"translate", "translate(0.2, 0.1) | circle(0.3)", []string{"p = p - vec2f(mx, my)"}},
		{"onion", "circle(0.3) | onion(0.02)", []string{"abs(sdf_result) - 0.02"}},
		{"round", "box(0.3, 0.2) | round(0.05)", []string{"sdf_result -= 0.05"}},
		{"mask_arc", "ring(0.3, 0.04) | mask_arc(3.14)", []string{"atan2(p.x, p.y) + 3.14159265359", "arc_theta < 3.14"}},
		{"mask_arc_default", "ring(0.3, 0.04) | mask_arc()", []string{"arc_theta < 6.283"}},
		{"displace", "circle(0.3) | displace(0.1, 3.0)", []string{"simplex2(p * 3.0)"}},
		{"simplex", "simplex(3.0)", []string{"simplex2(p * 3.0)"}},
		{"voronoi", "voronoi(5.0)", []string{"voronoi2(p * 5.0)"}},
		{"fbm_named", "fbm(octaves: 4, gain: 0.6, lacunarity: 2.0)", []string{"fbm2(p, 4, 0.6, 2.0)"}},
		{"fbm_position", "fbm(p * 2.0, octaves: 6, persistence: 0.5)", []string{"fbm2((p * 2.0), 6, 0.5, 2.0)"}},
		{"spectrum", "spectrum(audio.bass, audio.mid, audio.treble)", []string{
			"let sp_bass = u.audio_bass;",
			"abs(length(p) - 0.35) - 0.015",
			"g_bass * c_bass + g_mid * c_mid + g_treble * c_treble",
		}},
		{"spectrum_quiet", "spectrum()", []string{"let sp_bass = 0.0;", "let sp_treble = 0.0;"}},
		{"threshold", "fbm(p * 3.0) | threshold(0.5)", []string{"sdf_result = step(0.5, sdf_result)"}},
		{"smooth_union", "circle(0.3) | smooth_union(0.2)", []string{"sdf_smooth_union(sdf_result, sdf_result, 0.2)"}},
		{"curl_noise", "curl_noise(p, frequency: 3.0, amplitude: 0.5)", []string{"curl2(p, 3.0, 0.5)", "length(curl_offset) - 0.01"}},
		{"concentric_waves", "concentric_waves(p, decay: 2.0, speed: 3.0)", []string{"sin(length(p) * 10.0 - u.time * 3.0)", "exp(-length(p) * 2.0)"}},
		{"iridescent", "circle(0.3) | shade(albedo: white) | iridescent(0.3)", []string{"iri_phase", "iri_shift"}},
		{"shade_gold", "circle(0.3) | shade(albedo: gold)", []string{"shade_albedo", "vec3f(0.831, 0.686, 0.216)"}},
		{"fog", "circle(0.3) | shade(albedo: white) | fog(1.0)", []string{"exp(-length(uv)"}},
		{"scanlines", "circle(0.3) | shade(albedo: white) | scanlines(1.0)", []string{"sin(input.uv.y"}},
		{"tonemap", "circle(0.3) | shade(albedo: white) | tonemap(1.5)", []string{"1.0 + color_result.rgb * 1.5"}},
		{"invert", "circle(0.3) | shade(albedo: white) | invert()", []string{"1.0 - color_result.rgb"}},
		{"saturate", "circle(0.3) | shade(albedo: white) | saturate_color(0.5)", []string{"sat_lum"}},
		{"bloom", "circle(0.3) | shade(albedo: white) | bloom(0.5)", []string{"pp_lum"}},
		{"grain", "circle(0.3) | shade(albedo: white) | grain(0.1)", []string{"gr_n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shader := compile(t, wrap(tt.chain))
			for _, want := range tt.want {
				if !strings.Contains(shader, want) {
					t.Errorf("chain %q output missing %q", tt.chain, want)
				}
			}
		})
	}
}

func TestSingleLayerHasNoCompositing(t *testing.T) {
	shader := compile(t, wrap("circle(0.3) | glow(2.0)"))
	if !strings.Contains(shader, "glow_result") {
		t.Error("missing glow_result")
	}
	if strings.Contains(shader, "final_color") {
		t.Error("single layer should not composite through final_color")
	}
}

func TestMultiLayerCompositing(t *testing.T) {
	shader := compile(t, `cinematic {
  layer a {
    fn: circle(0.3) | glow(2.0)
  }
  layer b {
    fn: ring(0.5, 0.02) | glow(1.0) | blend(mode: screen, opacity: 0.5)
  }
}`)
	for _, want := range []string{"// Layer 0: a", "// Layer 1: b", "final_color"} {
		if !strings.Contains(shader, want) {
			t.Errorf("missing %q", want)
		}
	}
	if !strings.Contains(shader, "0.500") {
		t.Error("missing formatted opacity")
	}
}

func TestGlowFirstWarns(t *testing.T) {
	_, warnings := compileWithWarnings(t, wrap("glow(2.0) | circle(0.3)"))
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "glow") && strings.Contains(w, "SDF") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want glow-before-SDF", warnings)
	}
}

func TestRaymarch(t *testing.T) {
	shader := compile(t, `cinematic {
  layer {
    fn: fbm(3.0)
  }
  lens {
    mode: raymarch
    camera: orbit(radius: 4.0, height: 2.0, speed: 0.05)
  }
}`)
	for _, want := range []string{
		"fn field_at(p_in: vec2f) -> f32",
		"fn map_scene",
		"fn calc_normal",
		"cam_pos",
		"i < 128",
		"t > 50.0",
		"d * 0.8",
	} {
		if !strings.Contains(shader, want) {
			t.Errorf("raymarch output missing %q", want)
		}
	}
}

func TestRaymarchTransformChain(t *testing.T) {
	shader := compile(t, `cinematic {
  layer {
    fn: translate(0.1, 0.2) | fbm(3.0)
  }
  lens {
    mode: raymarch
  }
}`)
	// Transform stages reassign p, so the field function must shadow
	// its parameter with a var.
	for _, want := range []string{
		"fn field_at(p_in: vec2f) -> f32",
		"var p = p_in;",
		"p = p - vec2f(mx, my);",
	} {
		if !strings.Contains(shader, want) {
			t.Errorf("field function missing %q", want)
		}
	}
}

func TestRaymarchFieldSkipsScreenSpaceStages(t *testing.T) {
	shader := compile(t, `cinematic {
  layer {
    fn: fbm(3.0) | gradient(white, black)
  }
  lens {
    mode: raymarch
  }
}`)
	field := shader[strings.Index(shader, "fn field_at"):]
	field = field[:strings.Index(field, "\n}")]
	if strings.Contains(field, "input.") {
		t.Errorf("field function references fragment inputs:\n%s", field)
	}
}

func TestRaymarchFoldsLayers(t *testing.T) {
	shader, warnings := compileWithWarnings(t, `cinematic {
  layer ground {
    fn: fbm(3.0)
  }
  layer ridges {
    fn: simplex(5.0) | blend(mode: multiply)
  }
  lens {
    mode: raymarch
  }
}`)
	for _, want := range []string{
		"fn field_at_0",
		"fn field_at_1",
		"let d_0 = pos.y - field_at_0(pos.xz)",
		"sdf_smooth_intersect(d_0, d_1, 0.1)",
		"fn sdf_smooth_intersect",
	} {
		if !strings.Contains(shader, want) {
			t.Errorf("folded raymarch output missing %q", want)
		}
	}
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "folds additional layers") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want layer fold notice", warnings)
	}
}

func TestLensPost(t *testing.T) {
	shader := compile(t, `cinematic {
  layer {
    fn: circle(0.3) | shade(albedo: ember)
  }
  lens main {
    post: [bloom(0.5), vignette(0.3)]
  }
}`)
	if !strings.Contains(shader, "pp_lum") {
		t.Error("missing bloom")
	}
	if !strings.Contains(shader, "vig") {
		t.Error("missing vignette")
	}
}

func TestLensPostRepeatedStages(t *testing.T) {
	shader := compile(t, `cinematic {
  layer {
    fn: circle(0.3) | shade(albedo: ember)
  }
  lens main {
    post: [bloom(0.5), fog(1.0), bloom(0.2), fog(2.0)]
  }
}`)
	for _, decl := range []string{"let pp_lum =", "let pp_lum_2 =", "let fog_uv =", "let fog_uv_2 ="} {
		if strings.Count(shader, decl) != 1 {
			t.Errorf("declaration %q appears %d times, want 1", decl, strings.Count(shader, decl))
		}
	}

	// A chain-embedded post op shares the fragment scope with the lens
	// post list on the single-layer path.
	shader = compile(t, `cinematic {
  layer {
    fn: circle(0.3) | shade(albedo: ember) | bloom(0.5)
  }
  lens main {
    post: [bloom(0.2)]
  }
}`)
	if strings.Count(shader, "let pp_lum =") != 1 || strings.Count(shader, "let pp_lum_2 =") != 1 {
		t.Errorf("chain and lens bloom redeclare pp_lum:\n%s", shader)
	}
}

func TestValidateIdentifiers(t *testing.T) {
	tokens, _ := game.Lex(wrap("circle(wobble)"))
	cin, _ := game.NewParser(tokens).Parse()
	warnings := ValidateIdentifiers(cin, nil)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "wobble") {
		t.Errorf("warnings = %v, want one naming wobble", warnings)
	}

	tokens, _ = game.Lex(wrap("circle(0.3 + sin(time) * 0.05) | shade(albedo: gold)"))
	cin, _ = game.NewParser(tokens).Parse()
	if warnings := ValidateIdentifiers(cin, nil); len(warnings) != 0 {
		t.Errorf("known identifiers flagged: %v", warnings)
	}
}

func TestValidateModulationIdentifiers(t *testing.T) {
	tokens, _ := game.Lex(`cinematic {
  layer {
    radius: 0.3 ~ bogus_ident * 2.0
    fn: circle(radius)
  }
}`)
	cin, _ := game.NewParser(tokens).Parse()
	params, _ := ir.CollectParams(cin)
	warnings := ValidateIdentifiers(cin, params)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "bogus_ident") {
		t.Errorf("warnings = %v, want one naming bogus_ident", warnings)
	}

	tokens, _ = game.Lex(`cinematic {
  layer {
    radius: 0.3 ~ audio.bass * 2.0
    glow_amt: 1.0 ~ radius + mouse.x
    fn: circle(radius) | glow(glow_amt)
  }
}`)
	cin, _ = game.NewParser(tokens).Parse()
	params, _ = ir.CollectParams(cin)
	if warnings := ValidateIdentifiers(cin, params); len(warnings) != 0 {
		t.Errorf("valid modulations flagged: %v", warnings)
	}
}

func TestXrayVariants(t *testing.T) {
	tokens, _ := game.Lex(wrap("circle(0.3) | glow(2.0) | shade(albedo: gold)"))
	cin, _ := game.NewParser(tokens).Parse()
	params, _ := ir.CollectParams(cin)
	variants, err := GenerateXray(cin, params, ir.RenderMode{})
	if err != nil {
		t.Fatalf("GenerateXray() error: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("variant count = %d, want 3", len(variants))
	}
	names := []string{"circle", "glow", "shade"}
	for i, v := range variants {
		if v.StageName != names[i] {
			t.Errorf("variant %d stage = %q, want %q", i, v.StageName, names[i])
		}
		if v.StageIndex != i {
			t.Errorf("variant %d stage index = %d", i, v.StageIndex)
		}
		if v.LayerIndex != 0 {
			t.Errorf("variant %d layer = %d", i, v.LayerIndex)
		}
		if !strings.Contains(v.WGSL, "struct Uniforms") {
			t.Errorf("variant %d missing uniform struct", i)
		}
	}
}

func TestXrayNamedLayers(t *testing.T) {
	tokens, _ := game.Lex(`cinematic {
  layer base {
    fn: circle(0.3)
  }
  layer halo {
    fn: ring(0.5, 0.02) | glow(2.0)
  }
}`)
	cin, _ := game.NewParser(tokens).Parse()
	params, _ := ir.CollectParams(cin)
	variants, err := GenerateXray(cin, params, ir.RenderMode{})
	if err != nil {
		t.Fatalf("GenerateXray() error: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("variant count = %d, want 3", len(variants))
	}
	if variants[0].LayerName != "base" || variants[0].StageIndex != 0 {
		t.Errorf("variant 0 = %q/%d, want base/0", variants[0].LayerName, variants[0].StageIndex)
	}
	if variants[2].LayerName != "halo" || variants[2].LayerIndex != 1 || variants[2].StageIndex != 1 {
		t.Errorf("variant 2 = %q/%d/%d, want halo/1/1",
			variants[2].LayerName, variants[2].LayerIndex, variants[2].StageIndex)
	}
}
