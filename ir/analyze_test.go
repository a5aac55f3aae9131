package ir

import (
	"strings"
	"testing"

	"github.com/runyourempire/game-compiler/game"
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

func TestCollectParams(t *testing.T) {
	cin := parse(t, `cinematic {
  layer {
    radius: 0.3 ~ audio.bass * 0.2
    speed: 1.5 ~ audio.energy
    fn: circle(radius)
  }
}`)
	params, warnings := CollectParams(cin)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(params) != 2 {
		t.Fatalf("param count = %d, want 2", len(params))
	}
	p := params[0]
	if p.Name != "radius" || p.UniformField != "p_radius" {
		t.Errorf("param 0 = %+v", p)
	}
	if p.BufferIndex != 10 {
		t.Errorf("buffer index = %d, want 10", p.BufferIndex)
	}
	if p.BaseValue != 0.3 {
		t.Errorf("base = %v, want 0.3", p.BaseValue)
	}
	if params[1].BufferIndex != 11 {
		t.Errorf("second index = %d, want 11", params[1].BufferIndex)
	}
	if UniformFloatCount(params) != 12 {
		t.Errorf("float count = %d, want 12", UniformFloatCount(params))
	}
}

func TestCollectParamsDuplicate(t *testing.T) {
	cin := parse(t, `cinematic {
  layer a {
    size: 0.3 ~ audio.bass
    fn: circle(size)
  }
  layer b {
    size: 0.5 ~ audio.mid
    fn: circle(size)
  }
}`)
	params, warnings := CollectParams(cin)
	if len(params) != 1 {
		t.Fatalf("param count = %d, want 1 (first wins)", len(params))
	}
	if params[0].BaseValue != 0.3 {
		t.Errorf("base = %v, want first declaration's 0.3", params[0].BaseValue)
	}
	if len(warnings) != 1 {
		t.Fatalf("warning count = %d, want 1", len(warnings))
	}
	if got := warnings[0]; !strings.Contains(got, "duplicates a param") {
		t.Errorf("warning = %q", got)
	}
}

func TestUniformByteSize(t *testing.T) {
	tests := []struct {
		params int
		want   int
	}{
		{0, 48},  // 10 floats -> 40 bytes -> 48
		{2, 48},  // 12 floats -> 48 bytes
		{3, 64},  // 13 floats -> 52 bytes -> 64
		{6, 64},  // 16 floats -> 64 bytes
	}
	for _, tt := range tests {
		params := make([]Param, tt.params)
		if got := UniformByteSize(params); got != tt.want {
			t.Errorf("UniformByteSize(%d params) = %d, want %d", tt.params, got, tt.want)
		}
	}
}

func TestExtractNumber(t *testing.T) {
	if n, ok := ExtractNumber(&game.NumberLit{Value: 0.95}); !ok || n != 0.95 {
		t.Errorf("literal = %v %v", n, ok)
	}
	neg := &game.NegateExpr{X: &game.NumberLit{Value: 0.2}}
	if n, ok := ExtractNumber(neg); !ok || n != -0.2 {
		t.Errorf("negated = %v %v", n, ok)
	}
	if _, ok := ExtractNumber(&game.Ident{Name: "x"}); ok {
		t.Error("identifier should not extract")
	}
}

func TestUsageAnalysis(t *testing.T) {
	cin := parse(t, `cinematic {
  layer {
    radius: 0.3 ~ audio.bass * 0.2
    offset: 0.0 ~ mouse.x - 0.5
    level: 0.0 ~ data.temperature
    fn: circle(radius)
  }
}`)
	if !UsesAudio(cin) {
		t.Error("UsesAudio = false, want true")
	}
	if !UsesMouse(cin) {
		t.Error("UsesMouse = false, want true")
	}
	if !UsesData(cin) {
		t.Error("UsesData = false, want true")
	}
	fields := CollectDataFields(cin)
	if len(fields) != 1 || fields[0] != "temperature" {
		t.Errorf("data fields = %v", fields)
	}
}

func TestUsageAnalysisStatic(t *testing.T) {
	cin := parse(t, `cinematic {
  layer { fn: circle(0.3) }
}`)
	if UsesAudio(cin) || UsesMouse(cin) || UsesData(cin) {
		t.Error("static scene should use nothing")
	}
}

func TestAudioFile(t *testing.T) {
	cin := parse(t, `cinematic {
  audio: "tracks/ambient.mp3"
  layer { fn: circle(0.3) }
}`)
	if got := AudioFile(cin); got != "tracks/ambient.mp3" {
		t.Errorf("audio = %q", got)
	}
}

func TestDetermineRenderModeFlat(t *testing.T) {
	cin := parse(t, `cinematic {
  layer { fn: circle(0.3) }
}`)
	if mode := DetermineRenderMode(cin); mode.Kind != RenderFlat {
		t.Errorf("mode = %+v, want flat", mode)
	}
}

func TestDetermineRenderModeRaymarch(t *testing.T) {
	cin := parse(t, `cinematic {
  layer { fn: fbm(3.0) }
  lens {
    mode: raymarch
    camera: orbit(radius: 4.0, height: 2.0, speed: 0.05)
  }
}`)
	mode := DetermineRenderMode(cin)
	if mode.Kind != RenderRaymarch {
		t.Fatalf("mode kind = %v, want raymarch", mode.Kind)
	}
	if mode.CamRadius != 4.0 || mode.CamHeight != 2.0 || mode.CamSpeed != 0.05 {
		t.Errorf("camera = %+v, want 4.0/2.0/0.05", mode)
	}
}

func TestCameraBeforeMode(t *testing.T) {
	cin := parse(t, `cinematic {
  layer { fn: fbm(3.0) }
  lens {
    camera: orbit(radius: 4.0, height: 2.0, speed: 0.05)
    mode: raymarch
  }
}`)
	mode := DetermineRenderMode(cin)
	if mode.Kind != RenderRaymarch {
		t.Fatalf("mode kind = %v, want raymarch", mode.Kind)
	}
	if mode.CamRadius != 4.0 {
		t.Errorf("camera radius = %v, want 4.0 regardless of property order", mode.CamRadius)
	}
}

func TestOrbitNamedArgsAnyOrder(t *testing.T) {
	cin := parse(t, `cinematic {
  layer { fn: fbm(3.0) }
  lens {
    mode: raymarch
    camera: orbit(height: 2.0, radius: 4.0, speed: 0.05)
  }
}`)
	mode := DetermineRenderMode(cin)
	if mode.CamRadius != 4.0 || mode.CamHeight != 2.0 || mode.CamSpeed != 0.05 {
		t.Errorf("camera = %+v, want named lookup independent of order", mode)
	}
}

func TestOrbitPositionalArgs(t *testing.T) {
	cin := parse(t, `cinematic {
  layer { fn: fbm(3.0) }
  lens {
    mode: raymarch
    camera: orbit(4.0, 2.5, 0.1)
  }
}`)
	mode := DetermineRenderMode(cin)
	if mode.CamRadius != 4.0 || mode.CamHeight != 2.5 || mode.CamSpeed != 0.1 {
		t.Errorf("camera = %+v, want positional fallback 4.0/2.5/0.1", mode)
	}
}

func TestResolveArc(t *testing.T) {
	cin := parse(t, `cinematic {
  layer {
    radius: 0.3 ~ audio.bass
    glow_amt: 2.0 ~ audio.mid
    fn: circle(radius) | glow(glow_amt)
  }
  arc {
    0:00 "open" {
      radius: 0.1
      ghost: 1.0
    }
    0:10 {
      radius -> 0.5 ease(expo_out) over 2s
      glow_amt -> 4.0
    }
  }
}`)
	params, _ := CollectParams(cin)
	moments := ResolveArc(cin.Arc, params)
	if len(moments) != 2 {
		t.Fatalf("moment count = %d, want 2", len(moments))
	}
	// "ghost" names no param and is dropped.
	if len(moments[0].Transitions) != 1 {
		t.Fatalf("moment 0 transitions = %d, want 1", len(moments[0].Transitions))
	}
	tr := moments[0].Transitions[0]
	if tr.ParamIndex != 0 || tr.TargetValue != 0.1 || tr.IsAnimated {
		t.Errorf("transition 0 = %+v", tr)
	}
	if tr.Easing != "linear" {
		t.Errorf("default easing = %q, want linear", tr.Easing)
	}
	animated := moments[1].Transitions[0]
	if !animated.IsAnimated || animated.Easing != "expo_out" {
		t.Errorf("animated transition = %+v", animated)
	}
	if animated.DurationSecs == nil || *animated.DurationSecs != 2 {
		t.Errorf("duration = %v, want 2", animated.DurationSecs)
	}
	if moments[1].Transitions[1].DurationSecs != nil {
		t.Error("bare arrow duration should be nil (until next moment)")
	}
}

func TestResolveArcDottedTarget(t *testing.T) {
	cin := parse(t, `cinematic {
  layer flame {
    heat: 0.5 ~ audio.bass
    fn: circle(heat)
  }
  arc {
    0:05 {
      flame.heat: 0.9
    }
  }
}`)
	params, _ := CollectParams(cin)
	moments := ResolveArc(cin.Arc, params)
	if len(moments[0].Transitions) != 1 {
		t.Fatalf("dotted target did not resolve")
	}
	if moments[0].Transitions[0].TargetValue != 0.9 {
		t.Errorf("target = %v", moments[0].Transitions[0].TargetValue)
	}
}
