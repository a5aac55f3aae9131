package ir

import (
	"fmt"

	"github.com/runyourempire/game-compiler/game"
)

// CollectParams flattens every layer's modulated and static params into
// uniform slots, in declaration order across layers. A name declared in
// two layers keeps its first slot; the duplicate is dropped with a
// warning.
func CollectParams(cin *game.Cinematic) ([]Param, []string) {
	var params []Param
	var warnings []string
	seen := make(map[string]bool)

	for _, layer := range cin.Layers {
		for _, decl := range layer.Params {
			if seen[decl.Name] {
				warnings = append(warnings, fmt.Sprintf(
					"param '%s' in layer '%s' duplicates a param from an earlier layer; first declaration wins",
					decl.Name, layer.Name))
				continue
			}
			seen[decl.Name] = true

			base, _ := ExtractNumber(decl.Base)
			params = append(params, Param{
				Name:         decl.Name,
				UniformField: "p_" + decl.Name,
				BufferIndex:  SystemFloatCount + len(params),
				BaseValue:    base,
				Modulation:   decl.Modulation,
			})
		}
	}
	return params, warnings
}

// ExtractNumber pulls a constant out of a numeric literal or a negated
// numeric literal.
func ExtractNumber(e game.Expr) (float64, bool) {
	switch v := e.(type) {
	case *game.NumberLit:
		return v.Value, true
	case *game.NegateExpr:
		if n, ok := v.X.(*game.NumberLit); ok {
			return -n.Value, true
		}
	}
	return 0, false
}

// UniformFloatCount is the total float slot count including user params.
func UniformFloatCount(params []Param) int {
	return SystemFloatCount + len(params)
}

// UniformByteSize is the uniform buffer size rounded up to 16 bytes.
func UniformByteSize(params []Param) int {
	floats := UniformFloatCount(params)
	return (floats*4 + 15) / 16 * 16
}

// AudioFile returns the cinematic's audio property, if it names a file.
func AudioFile(cin *game.Cinematic) string {
	for _, prop := range cin.Properties {
		if prop.Name == "audio" {
			if s, ok := prop.Value.(*game.StringLit); ok {
				return s.Value
			}
		}
	}
	return ""
}

// DetermineRenderMode inspects the lenses for a raymarch mode and an
// orbit camera. Flat is the default. Camera extraction does not depend
// on where the camera property sits relative to the mode property.
func DetermineRenderMode(cin *game.Cinematic) RenderMode {
	mode := RenderMode{Kind: RenderFlat}
	for _, lens := range cin.Lenses {
		raymarch := false
		for _, prop := range lens.Properties {
			if prop.Name != "mode" {
				continue
			}
			if id, ok := prop.Value.(*game.Ident); ok && id.Name == "raymarch" {
				raymarch = true
			}
		}
		if !raymarch {
			continue
		}
		mode.Kind = RenderRaymarch
		mode.CamRadius, mode.CamHeight, mode.CamSpeed = cameraParams(lens)
	}
	return mode
}

func cameraParams(lens *game.Lens) (radius, height, speed float64) {
	for _, prop := range lens.Properties {
		if prop.Name != "camera" {
			continue
		}
		call, ok := prop.Value.(*game.CallExpr)
		if !ok || call.Name != "orbit" {
			continue
		}
		return orbitArg(call, "radius", 0, 5.0),
			orbitArg(call, "height", 1, 2.0),
			orbitArg(call, "speed", 2, 0.05)
	}
	return 5.0, 2.0, 0.05
}

// orbitArg resolves an orbit() argument by name, falling back to its
// position for bare calls like orbit(4.0, 2.0, 0.05).
func orbitArg(call *game.CallExpr, name string, pos int, def float64) float64 {
	for i, argName := range call.ArgNames {
		if argName == name {
			if n, ok := ExtractNumber(call.Args[i]); ok {
				return n
			}
			return def
		}
	}
	if pos < len(call.Args) {
		if len(call.ArgNames) > pos && call.ArgNames[pos] != "" {
			return def
		}
		if n, ok := ExtractNumber(call.Args[pos]); ok {
			return n
		}
	}
	return def
}

// ResolveArc compiles the timeline against the param table. A dotted
// target resolves by its final segment. Transitions naming undeclared
// params are dropped.
func ResolveArc(arc *game.ArcBlock, params []Param) []Moment {
	if arc == nil {
		return nil
	}

	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p.Name] = i
	}

	moments := make([]Moment, 0, len(arc.Moments))
	for _, m := range arc.Moments {
		out := Moment{TimeSeconds: m.TimeSeconds, Name: m.Name}
		for _, tr := range m.Transitions {
			name := tr.Target
			for i := len(name) - 1; i >= 0; i-- {
				if name[i] == '.' {
					name = name[i+1:]
					break
				}
			}
			pi, ok := index[name]
			if !ok {
				continue
			}
			target, _ := ExtractNumber(tr.Value)
			easing := tr.Easing
			if easing == "" {
				easing = "linear"
			}
			out.Transitions = append(out.Transitions, Transition{
				ParamIndex:   pi,
				TargetValue:  target,
				IsAnimated:   tr.IsAnimated,
				Easing:       easing,
				DurationSecs: tr.Duration,
			})
		}
		moments = append(moments, out)
	}
	return moments
}
