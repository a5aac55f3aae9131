package wgsl

import (
	"fmt"

	"github.com/runyourempire/game-compiler/game"
)

// postOps names the stages that transform color_result in place. They
// may appear in a layer chain or in a lens post list.
var postOps = map[string]bool{
	"bloom": true, "vignette": true, "chromatic": true, "grain": true,
	"fog": true, "glitch": true, "scanlines": true, "tonemap": true,
	"invert": true, "saturate_color": true, "color_grade": true,
}

// emitPost lowers every lens post chain after compositing.
func emitPost(w *Writer, cin *game.Cinematic, ctx *ExprContext, names map[string]int) ([]string, error) {
	var warnings []string
	for _, lens := range cin.Lenses {
		for _, call := range lens.Post {
			if !postOps[call.Name] {
				warnings = append(warnings, fmt.Sprintf(
					"'%s' is not a post-process stage; skipped in lens '%s'", call.Name, lens.Name))
				continue
			}
			w.Line("// post: %s", call.Name)
			if err := emitPostOp(w, call, ctx, names); err != nil {
				return warnings, err
			}
		}
	}
	return warnings, nil
}

// emitPostOp lowers one post stage. Let bindings go through names so a
// stage can repeat in the same chain without redeclaring.
func emitPostOp(w *Writer, call game.FnCall, ctx *ExprContext, names map[string]int) error {
	a := args{call: call, ctx: ctx}

	switch call.Name {
	case "bloom":
		amt, err := a.get(0, "amount", "0.5")
		if err != nil {
			return err
		}
		lum := uniqueLocal(names, "pp_lum")
		w.Line("let %s = dot(color_result, vec3f(0.299, 0.587, 0.114));", lum)
		w.Line("color_result = color_result + color_result * %s * %s;", lum, amt)

	case "vignette":
		strength, err := a.get(0, "strength", "0.5")
		if err != nil {
			return err
		}
		vig := uniqueLocal(names, "vig")
		w.Line("let %s = 1.0 - length(input.uv - 0.5) * %s * 2.0;", vig, strength)
		w.Line("color_result = color_result * clamp(%s, 0.0, 1.0);", vig)

	case "chromatic":
		amt, err := a.get(0, "amount", "0.01")
		if err != nil {
			return err
		}
		ca := uniqueLocal(names, "ca")
		w.Line("let %s = %s;", ca, amt)
		w.Line("color_result = vec3f(color_result.r * (1.0 + %s), color_result.g, color_result.b * (1.0 - %s));", ca, ca)

	case "grain":
		amt, err := a.get(0, "amount", "0.1")
		if err != nil {
			return err
		}
		n := uniqueLocal(names, "gr_n")
		w.Line("let %s = fract(sin(dot(input.uv * 1000.0 + u.time, vec2f(12.9898, 78.233))) * 43758.5453);", n)
		w.Line("color_result = color_result + (%s - 0.5) * %s;", n, amt)

	case "fog":
		density, err := a.get(0, "density", "1.0")
		if err != nil {
			return err
		}
		fogUV := uniqueLocal(names, "fog_uv")
		w.Line("let %s = input.uv * 2.0 - 1.0;", fogUV)
		w.Line("color_result = mix(color_result, vec3f(0.02, 0.02, 0.04), 1.0 - exp(-length(%s) * %s));", fogUV, density)

	case "glitch":
		amt, err := a.get(0, "amount", "0.5")
		if err != nil {
			return err
		}
		n := uniqueLocal(names, "gl_n")
		w.Line("let %s = fract(sin(floor(input.uv.y * 32.0) + floor(u.time * 8.0)) * 43758.5453);", n)
		w.Line("color_result = color_result * (1.0 - step(1.0 - %s * 0.1, %s) * 0.8);", amt, n)

	case "scanlines":
		freq, err := a.get(0, "frequency", "1.0")
		if err != nil {
			return err
		}
		w.Line("color_result = color_result * (0.9 + 0.1 * sin(input.uv.y * u.resolution.y * %s));", freq)

	case "tonemap":
		exposure, err := a.get(0, "exposure", "1.5")
		if err != nil {
			return err
		}
		w.Line("color_result = (color_result.rgb * %s) / (1.0 + color_result.rgb * %s);", exposure, exposure)

	case "invert":
		w.Line("color_result = 1.0 - color_result.rgb;")

	case "saturate_color":
		amt, err := a.get(0, "amount", "1.0")
		if err != nil {
			return err
		}
		lum := uniqueLocal(names, "sat_lum")
		w.Line("let %s = dot(color_result, vec3f(0.299, 0.587, 0.114));", lum)
		w.Line("color_result = mix(vec3f(%s), color_result.rgb, %s);", lum, amt)

	case "color_grade":
		lift, err := a.get(0, "lift", "0.0")
		if err != nil {
			return err
		}
		gamma, err := a.get(1, "gamma", "1.0")
		if err != nil {
			return err
		}
		gain, err := a.get(2, "gain", "1.0")
		if err != nil {
			return err
		}
		w.Line("color_result = pow(max(color_result, vec3f(0.0)), vec3f(1.0 / %s)) * %s + %s;", gamma, gain, lift)

	default:
		return game.NewUnknownFunction(call.Name)
	}
	return nil
}
