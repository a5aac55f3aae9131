package js

import (
	"strings"
	"testing"

	"github.com/runyourempire/game-compiler/game"
	"github.com/runyourempire/game-compiler/ir"
)

func parse(t *testing.T, source string) *game.Cinematic {
	t.Helper()
	tokens, err := game.Lex(source)
	if err != nil {
		t.Fatalf("Lex() error: %v", err)
	}
	cin, err := game.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return cin
}

func TestCompileExpr(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"audio.bass * 2.0", "(audioBass * 2)"},
		{"mouse.x - 0.5", "(mouseX - 0.5)"},
		{"data.temperature", "data_temperature"},
		{"sin(time)", "Math.sin(time)"},
		{"audio.beat > 0.5 ? 0.4 : 0.2", "(audioBeat > 0.5 ? 0.4 : 0.2)"},
		{"clamp(audio.energy, 0.0, 1.0)", "Math.min(Math.max(audioEnergy, 0), 1)"},
	}
	for _, tt := range tests {
		cin := parse(t, "cinematic { x: "+tt.source+" }")
		got, err := CompileExpr(cin.Properties[0].Value)
		if err != nil {
			t.Fatalf("CompileExpr(%q) error: %v", tt.source, err)
		}
		if got != tt.want {
			t.Errorf("CompileExpr(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func testParams() []ir.Param {
	return []ir.Param{
		{Name: "radius", UniformField: "p_radius", BufferIndex: 10, BaseValue: 0.3},
		{Name: "glow_amt", UniformField: "p_glow_amt", BufferIndex: 11, BaseValue: 2.0},
	}
}

func TestRewriteParamRefs(t *testing.T) {
	params := testParams()
	got := RewriteParamRefs("(radius + glow_amt) * audioBass", params)
	want := "(params[0].value + params[1].value) * audioBass"
	if got != want {
		t.Errorf("RewriteParamRefs = %q, want %q", got, want)
	}
	// Whole words only: "radius2" must survive.
	if got := RewriteParamRefs("radius2", params); got != "radius2" {
		t.Errorf("partial match rewritten: %q", got)
	}
}

func TestGenerateResonance(t *testing.T) {
	cin := parse(t, `cinematic {
  layer flame {
    heat: 0.5 ~ audio.bass
    fn: circle(heat)
  }
  resonate {
    damping: 0.8
    flame.heat ~ audio.bass * 0.1
  }
}`)
	params, _ := ir.CollectParams(cin)
	js, warnings, err := GenerateResonance(cin.Resonance, params)
	if err != nil {
		t.Fatalf("GenerateResonance() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	for _, want := range []string{
		"const damp = 0.8;",
		"resonanceDeltas[0] += ((audioBass * 0.1)) * damp * dt;",
		"params[i].value = params[i].base + resonanceDeltas[i];",
		"})(params, 1/60);",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("resonance JS missing %q:\n%s", want, js)
		}
	}
}

func TestResonanceBareAudioBands(t *testing.T) {
	cin := parse(t, `cinematic {
  layer {
    scale: 1.0
    rotation: 0.0
    fn: circle(scale)
  }
  resonate {
    scale ~ bass * 0.5
    rotation ~ treble * 2.0
  }
}`)
	params, _ := ir.CollectParams(cin)
	js, warnings, err := GenerateResonance(cin.Resonance, params)
	if err != nil {
		t.Fatalf("GenerateResonance() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	for _, want := range []string{
		"(audioBass * 0.5)",
		"(audioTreble * 2)",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("resonance JS missing %q:\n%s", want, js)
		}
	}
	for _, reject := range []string{"(bass ", "(treble "} {
		if strings.Contains(js, reject) {
			t.Errorf("unrewritten band identifier %q in:\n%s", reject, js)
		}
	}
}

func TestResonanceAppliesAfterAccumulating(t *testing.T) {
	cin := parse(t, `cinematic {
  layer {
    scale: 1.0
    rotation: 0.0
    fn: circle(scale)
  }
  resonate {
    scale ~ bass * 0.5
    rotation ~ scale * 2.0
  }
}`)
	params, _ := ir.CollectParams(cin)
	js, _, err := GenerateResonance(cin.Resonance, params)
	if err != nil {
		t.Fatalf("GenerateResonance() error: %v", err)
	}
	// The second binding reads params[0].value; every accumulation must
	// come before the single apply loop so it sees last frame's value.
	apply := strings.Index(js, "params[i].value =")
	lastAccum := strings.LastIndex(js, "resonanceDeltas[1] +=")
	if apply < 0 || lastAccum < 0 {
		t.Fatalf("missing accumulate or apply:\n%s", js)
	}
	if lastAccum > apply {
		t.Errorf("binding applied before all deltas accumulated:\n%s", js)
	}
	if !strings.Contains(js, "resonanceDeltas[1] += ((params[0].value * 2)) * damp * dt;") {
		t.Errorf("cross-param source not rewritten:\n%s", js)
	}
}

func TestResonanceDampingClamped(t *testing.T) {
	tests := []struct {
		declared float64
		want     string
	}{
		{1.5, "const damp = 1;"},
		{-0.2, "const damp = 0;"},
	}
	params := testParams()
	for _, tt := range tests {
		d := tt.declared
		res := &game.ResonanceBlock{
			Damping: &d,
			Bindings: []game.ResonanceBinding{
				{Target: "radius", Source: &game.NumberLit{Value: 1}},
			},
		}
		js, _, err := GenerateResonance(res, params)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(js, tt.want) {
			t.Errorf("damping %v: missing %q", tt.declared, tt.want)
		}
	}
}

func TestResonanceUnknownTarget(t *testing.T) {
	res := &game.ResonanceBlock{
		Bindings: []game.ResonanceBinding{
			{Target: "ghost", Source: &game.NumberLit{Value: 1}},
		},
	}
	_, warnings, err := GenerateResonance(res, testParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "ghost") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestGenerateReact(t *testing.T) {
	cin := parse(t, `cinematic {
  layer {
    radius: 0.3 ~ audio.bass
    fn: circle(radius)
  }
  react {
    mouse.click -> pulse(0.2)
    key("space") -> arc.pause_toggle
    mouse.x -> radius
    scroll -> radius
  }
}`)
	params, _ := ir.CollectParams(cin)
	js, warnings := GenerateReact(cin.React, params)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	for _, want := range []string{
		"addEventListener('click'",
		`e.key === " "`,
		"addEventListener('mousemove'",
		"params[0].base = n * 2 * 0.3;",
		"Math.sign(e.deltaY) * -0.05",
		"btnToggle.click()",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("react JS missing %q:\n%s", want, js)
		}
	}
}

func TestReactDottedActionTargets(t *testing.T) {
	cin := parse(t, `cinematic {
  layer fire {
    intensity: 0.5
    fn: circle(intensity)
  }
  react {
    mouse.x -> fire.intensity
  }
}`)
	params, _ := ir.CollectParams(cin)
	js, warnings := GenerateReact(cin.React, params)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if !strings.Contains(js, "params[0].base = n * 2 * 0.5;") {
		t.Errorf("dotted action did not resolve to the intensity param:\n%s", js)
	}
}

func TestReactMouseMove(t *testing.T) {
	cin := parse(t, `cinematic {
  layer {
    glowAmount: 2
    fn: circle(0.3) | glow(glowAmount)
  }
  react {
    mouse.move -> glowAmount
  }
}`)
	params, _ := ir.CollectParams(cin)
	js, warnings := GenerateReact(cin.React, params)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if !strings.Contains(js, "addEventListener('mousemove'") {
		t.Errorf("mouse.move did not bind a mousemove listener:\n%s", js)
	}
	if strings.Contains(js, "unhandled signal") {
		t.Errorf("mouse.move fell through as unhandled:\n%s", js)
	}
}

func TestGenerateArcEmpty(t *testing.T) {
	if got := GenerateArc(nil); !strings.Contains(got, "function arcUpdate() {}") {
		t.Errorf("empty arc = %q", got)
	}
}

func TestGenerateArc(t *testing.T) {
	two := 2.0
	moments := []ir.Moment{
		{TimeSeconds: 0, Name: "intro", Transitions: []ir.Transition{
			{ParamIndex: 0, TargetValue: 0.1, Easing: "linear"},
		}},
		{TimeSeconds: 10, Transitions: []ir.Transition{
			{ParamIndex: 0, TargetValue: 0.5, IsAnimated: true, Easing: "expo_out", DurationSecs: &two},
			{ParamIndex: 1, TargetValue: 4, IsAnimated: true, Easing: "linear"},
		}},
	}
	js := GenerateArc(moments)
	for _, want := range []string{
		"easingFns",
		"expo_out",
		"{ t: 0, name: 'intro'",
		"{ pi: 0, to: 0.5, anim: true, ease: 'expo_out', dur: 2 }",
		"function arcUpdate(time)",
		"params[tr.pi].base",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("arc JS missing %q", want)
		}
	}
	// Unset duration on the first moment runs until the next (10s);
	// on the last moment it defaults to one second.
	if !strings.Contains(js, "{ pi: 0, to: 0.1, anim: false, ease: 'linear', dur: 10 }") {
		t.Error("until-next duration not resolved to 10")
	}
	if !strings.Contains(js, "{ pi: 1, to: 4, anim: true, ease: 'linear', dur: 1 }") {
		t.Error("last-moment duration not defaulted to 1")
	}
}
