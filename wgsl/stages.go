package wgsl

import (
	"fmt"
	"strings"

	"github.com/runyourempire/game-compiler/game"
)

// shaderState tracks what the pipeline has produced so far. Stages
// consume one state and produce another; mismatches are bridged with
// defensive conversions instead of failing.
type shaderState uint8

const (
	statePosition shaderState = iota // only p is live
	stateSdf                         // sdf_result is live
	stateGlow                        // glow_result is live
	stateColor                       // color_result is live
)

// chainState carries per-chain emission bookkeeping: the current shader
// state, which result vars exist in this scope, and a counter for
// deduplicating let names when a stage repeats.
type chainState struct {
	st            shaderState
	declaredSdf   bool
	declaredGlow  bool
	declaredColor bool
	heightBound   bool
	scaleUsed     bool
	names         map[string]int
}

func newChainState() *chainState {
	return &chainState{st: statePosition, names: make(map[string]int)}
}

// local returns a scope-unique name for a stage-level let binding. The
// first use keeps the bare name; repeats get a numeric suffix.
func (cs *chainState) local(base string) string {
	return uniqueLocal(cs.names, base)
}

func uniqueLocal(names map[string]int, base string) string {
	names[base]++
	if n := names[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}

func (cs *chainState) setSdf(w *Writer, expr string) {
	if cs.declaredSdf {
		w.Line("sdf_result = %s;", expr)
	} else {
		w.Line("var sdf_result = %s;", expr)
		cs.declaredSdf = true
	}
	cs.st = stateSdf
}

func (cs *chainState) setGlow(w *Writer, expr string) {
	if cs.declaredGlow {
		w.Line("glow_result = %s;", expr)
	} else {
		w.Line("var glow_result = %s;", expr)
		cs.declaredGlow = true
	}
	cs.st = stateGlow
}

func (cs *chainState) setColor(w *Writer, expr string) {
	if cs.declaredColor {
		w.Line("color_result = %s;", expr)
	} else {
		w.Line("var color_result = %s;", expr)
		cs.declaredColor = true
	}
	cs.st = stateColor
}

// bridgeToSdf makes sdf_result usable; from Position that means a
// degenerate distance so modifiers still run.
func (cs *chainState) bridgeToSdf(w *Writer) {
	if cs.declaredSdf {
		return
	}
	cs.setSdf(w, "length(p)")
}

// bridgeHeight maps the SDF into a [0,1] height for color stages.
func (cs *chainState) bridgeHeight(w *Writer) {
	if cs.heightBound {
		return
	}
	cs.bridgeToSdf(w)
	w.Line("let height = clamp(sdf_result * 0.5 + 0.5, 0.0, 1.0);")
	cs.heightBound = true
}

// coverage returns an expression for "how much this pixel is inside",
// derived from whatever the chain has produced so far.
func (cs *chainState) coverage(w *Writer, used *builtinSet) string {
	switch cs.st {
	case stateGlow:
		return "glow_result"
	case stateSdf:
		return "(1.0 - smoothstep(0.0, 0.01, sdf_result))"
	default:
		return "1.0"
	}
}

// emitChain lowers one pipeline into the writer and returns the final
// shader state. Let bindings draw names from the caller's table so a
// chain sharing function scope with other emission (the single-layer
// path) cannot redeclare.
func emitChain(w *Writer, chain *game.PipeChain, ctx *ExprContext, used *builtinSet, names map[string]int) (shaderState, []string, error) {
	cs := newChainState()
	if names != nil {
		cs.names = names
	}
	var warnings []string

	for i, stage := range chain.Stages {
		w.Line("// stage %d: %s", i, describeStage(stage))
		ws, err := emitStage(w, stage, cs, ctx, used, i)
		warnings = append(warnings, ws...)
		if err != nil {
			return cs.st, warnings, err
		}
	}

	if cs.scaleUsed && cs.declaredSdf {
		w.Line("sdf_result *= scale_factor;")
	}

	return cs.st, warnings, nil
}

func describeStage(stage game.FnCall) string {
	parts := make([]string, 0, len(stage.Args))
	for _, a := range stage.Args {
		if a.Name != "" {
			parts = append(parts, a.Name+": ...")
		} else {
			parts = append(parts, "...")
		}
	}
	return stage.Name + "(" + strings.Join(parts, ", ") + ")"
}

// args wraps a stage's argument list with positional/named lookup.
type args struct {
	call game.FnCall
	ctx  *ExprContext
}

// get compiles the argument at the given position or name, falling back
// to a default WGSL expression.
func (a args) get(pos int, name, def string) (string, error) {
	if e := a.find(pos, name); e != nil {
		return CompileExpr(e, a.ctx)
	}
	return def, nil
}

// getInt is get for arguments that must land as WGSL integers.
func (a args) getInt(pos int, name, def string) (string, error) {
	e := a.find(pos, name)
	if e == nil {
		return def, nil
	}
	if n, ok := e.(*game.NumberLit); ok && n.Value == float64(int(n.Value)) {
		return fmt.Sprintf("%d", int(n.Value)), nil
	}
	s, err := CompileExpr(e, a.ctx)
	if err != nil {
		return "", err
	}
	return "i32(" + s + ")", nil
}

// str returns a raw string argument, for stages like mirror("xy").
func (a args) str(pos int, name, def string) string {
	if e := a.find(pos, name); e != nil {
		if s, ok := e.(*game.StringLit); ok {
			return s.Value
		}
	}
	return def
}

func (a args) find(pos int, name string) game.Expr {
	for _, arg := range a.call.Args {
		if arg.Name == name && name != "" {
			return arg.Value
		}
	}
	if pos >= 0 && pos < len(a.call.Args) && a.call.Args[pos].Name == "" {
		return a.call.Args[pos].Value
	}
	return nil
}

func emitStage(w *Writer, stage game.FnCall, cs *chainState, ctx *ExprContext, used *builtinSet, index int) ([]string, error) {
	a := args{call: stage, ctx: ctx}
	var warnings []string

	switch stage.Name {

	// ── Position stages ────────────────────────────────────────────

	case "translate":
		x, err := a.get(0, "x", "0.0")
		if err != nil {
			return nil, err
		}
		y, err := a.get(1, "y", "0.0")
		if err != nil {
			return nil, err
		}
		mx, my := cs.local("mx"), cs.local("my")
		w.Line("let %s = %s;", mx, x)
		w.Line("let %s = %s;", my, y)
		w.Line("p = p - vec2f(%s, %s);", mx, my)

	case "rotate":
		angle, err := a.get(0, "angle", "0.0")
		if err != nil {
			return nil, err
		}
		rc, rs := cs.local("rc"), cs.local("rs")
		w.Line("let %s = cos(%s);", rc, angle)
		w.Line("let %s = sin(%s);", rs, angle)
		w.Line("p = vec2f(p.x * %s - p.y * %s, p.x * %s + p.y * %s);", rc, rs, rs, rc)

	case "scale":
		s, err := a.get(0, "factor", "1.0")
		if err != nil {
			return nil, err
		}
		// Dividing p shrinks distances too; the chain tail multiplies
		// sdf_result back by scale_factor to keep it metric.
		w.Line("let %s = %s;", cs.local("scale_factor"), s)
		w.Line("p = p / %s;", s)
		cs.scaleUsed = true

	case "repeat":
		s, err := a.get(0, "spacing", "1.0")
		if err != nil {
			return nil, err
		}
		w.Line("p = p - %s * round(p / %s);", s, s)

	case "mirror":
		switch axes := a.str(0, "axes", "x"); axes {
		case "x":
			w.Line("p.x = abs(p.x);")
		case "y":
			w.Line("p.y = abs(p.y);")
		case "xy":
			w.Line("p = abs(p);")
		default:
			warnings = append(warnings, fmt.Sprintf("mirror axes %q not recognized; use \"x\", \"y\", or \"xy\"", axes))
		}

	case "twist":
		amt, err := a.get(0, "amount", "1.0")
		if err != nil {
			return nil, err
		}
		twA, twC, twS := cs.local("tw_a"), cs.local("tw_c"), cs.local("tw_s")
		w.Line("let %s = length(p) * %s;", twA, amt)
		w.Line("let %s = cos(%s);", twC, twA)
		w.Line("let %s = sin(%s);", twS, twA)
		w.Line("p = vec2f(p.x * %s - p.y * %s, p.x * %s + p.y * %s);", twC, twS, twS, twC)

	// ── SDF shapes ─────────────────────────────────────────────────

	case "circle", "sphere":
		r, err := a.get(0, "radius", "0.5")
		if err != nil {
			return nil, err
		}
		used.add("sdf_circle")
		cs.setSdf(w, fmt.Sprintf("sdf_circle(p, %s)", r))

	case "ring", "torus":
		r, err := a.get(0, "radius", "0.5")
		if err != nil {
			return nil, err
		}
		width, err := a.get(1, "width", "0.04")
		if err != nil {
			return nil, err
		}
		cs.setSdf(w, fmt.Sprintf("abs(length(p) - %s) - %s", r, width))

	case "box":
		wdt, err := a.get(0, "width", "0.5")
		if err != nil {
			return nil, err
		}
		hgt, err := a.get(1, "height", wdt)
		if err != nil {
			return nil, err
		}
		used.add("sdf_box2")
		cs.setSdf(w, fmt.Sprintf("sdf_box2(p, vec2f(%s, %s))", wdt, hgt))

	case "cylinder":
		r, err := a.get(0, "radius", "0.25")
		if err != nil {
			return nil, err
		}
		cs.setSdf(w, fmt.Sprintf("abs(p.x) - %s", r))

	case "plane":
		cs.setSdf(w, "p.y")

	case "line":
		x1, err := a.get(0, "x1", "-0.5")
		if err != nil {
			return nil, err
		}
		y1, err := a.get(1, "y1", "0.0")
		if err != nil {
			return nil, err
		}
		x2, err := a.get(2, "x2", "0.5")
		if err != nil {
			return nil, err
		}
		y2, err := a.get(3, "y2", "0.0")
		if err != nil {
			return nil, err
		}
		th, err := a.get(4, "thickness", "0.02")
		if err != nil {
			return nil, err
		}
		used.add("sdf_line")
		cs.setSdf(w, fmt.Sprintf("sdf_line(p, vec2f(%s, %s), vec2f(%s, %s)) - %s", x1, y1, x2, y2, th))

	case "polygon":
		r, err := a.get(0, "radius", "0.5")
		if err != nil {
			return nil, err
		}
		n, err := a.get(1, "sides", "6.0")
		if err != nil {
			return nil, err
		}
		used.add("sdf_polygon")
		cs.setSdf(w, fmt.Sprintf("sdf_polygon(p, %s, %s)", r, n))

	case "star":
		r, err := a.get(0, "radius", "0.5")
		if err != nil {
			return nil, err
		}
		n, err := a.get(1, "points", "5.0")
		if err != nil {
			return nil, err
		}
		used.add("sdf_star")
		cs.setSdf(w, fmt.Sprintf("sdf_star(p, %s, %s)", r, n))

	// ── Noise fields ───────────────────────────────────────────────

	case "fbm":
		// Positional argument 0 is the sample position expression, as
		// in fbm(p * 2.0, octaves: 6, persistence: 0.5).
		pos, err := a.get(0, "position", "p")
		if err != nil {
			return nil, err
		}
		oct, err := a.getInt(-1, "octaves", "6")
		if err != nil {
			return nil, err
		}
		per, err := a.get(-1, "persistence", "")
		if err != nil {
			return nil, err
		}
		if per == "" {
			per, err = a.get(-1, "gain", "0.5")
			if err != nil {
				return nil, err
			}
		}
		lac, err := a.get(-1, "lacunarity", "2.0")
		if err != nil {
			return nil, err
		}
		used.add("fbm2")
		cs.setSdf(w, fmt.Sprintf("fbm2(%s, %s, %s, %s)", pos, oct, per, lac))

	case "simplex":
		scale, err := a.get(0, "scale", "1.0")
		if err != nil {
			return nil, err
		}
		used.add("simplex2")
		cs.setSdf(w, fmt.Sprintf("simplex2(%s)", scaled("p", scale)))

	case "voronoi":
		scale, err := a.get(0, "scale", "1.0")
		if err != nil {
			return nil, err
		}
		used.add("voronoi2")
		cs.setSdf(w, fmt.Sprintf("voronoi2(%s)", scaled("p", scale)))

	case "noise":
		scale, err := a.get(0, "scale", "1.0")
		if err != nil {
			return nil, err
		}
		used.add("noise2")
		cs.setSdf(w, fmt.Sprintf("noise2(%s)", scaled("p", scale)))

	case "curl_noise":
		pos, err := a.get(0, "position", "p")
		if err != nil {
			return nil, err
		}
		freq, err := a.get(1, "frequency", "3.0")
		if err != nil {
			return nil, err
		}
		amp, err := a.get(2, "amplitude", "0.5")
		if err != nil {
			return nil, err
		}
		used.add("curl2")
		off := cs.local("curl_offset")
		w.Line("let %s = curl2(%s, %s, %s);", off, pos, freq, amp)
		cs.setSdf(w, fmt.Sprintf("length(%s) - 0.01", off))

	case "concentric_waves":
		decay, err := a.get(1, "decay", "2.0")
		if err != nil {
			return nil, err
		}
		speed, err := a.get(2, "speed", "3.0")
		if err != nil {
			return nil, err
		}
		cs.setSdf(w, fmt.Sprintf(
			"sin(length(p) * 10.0 - u.time * %s) * exp(-length(p) * %s)", speed, decay))

	case "particles":
		count, err := a.get(0, "count", "32.0")
		if err != nil {
			return nil, err
		}
		size, err := a.get(1, "size", "0.02")
		if err != nil {
			return nil, err
		}
		used.add("particle_field")
		cs.setSdf(w, fmt.Sprintf("particle_field(p, u.time, %s, %s)", count, size))

	// ── SDF modifiers ──────────────────────────────────────────────

	case "mask_arc":
		// The single argument is the swept angle from the top of the
		// shape, so a progress signal fills the arc.
		angle, err := a.get(0, "angle", "6.283")
		if err != nil {
			return nil, err
		}
		cs.bridgeToSdf(w)
		theta := cs.local("arc_theta")
		w.Line("let %s = atan2(p.x, p.y) + 3.14159265359;", theta)
		w.Line("sdf_result = select(999.0, sdf_result, %s < %s);", theta, angle)

	case "displace":
		amt, err := a.get(0, "amount", "0.1")
		if err != nil {
			return nil, err
		}
		scale, err := a.get(1, "scale", "3.0")
		if err != nil {
			return nil, err
		}
		cs.bridgeToSdf(w)
		used.add("simplex2")
		w.Line("sdf_result = sdf_result + simplex2(%s) * %s;", scaled("p", scale), amt)

	case "round":
		r, err := a.get(0, "radius", "0.05")
		if err != nil {
			return nil, err
		}
		cs.bridgeToSdf(w)
		w.Line("sdf_result -= %s;", r)

	case "onion":
		t, err := a.get(0, "thickness", "0.02")
		if err != nil {
			return nil, err
		}
		cs.bridgeToSdf(w)
		w.Line("sdf_result = abs(sdf_result) - %s;", t)

	case "threshold":
		v, err := a.get(0, "value", "0.5")
		if err != nil {
			return nil, err
		}
		cs.bridgeToSdf(w)
		w.Line("sdf_result = step(%s, sdf_result);", v)

	case "smooth_union", "smooth_subtract", "smooth_intersect":
		k, err := a.get(0, "k", "0.1")
		if err != nil {
			return nil, err
		}
		fn := "sdf_" + stage.Name
		cs.bridgeToSdf(w)
		used.add(fn)
		w.Line("sdf_result = %s(sdf_result, sdf_result, %s);", fn, k)

	// ── Glow ───────────────────────────────────────────────────────

	case "glow":
		intensity, err := a.get(0, "intensity", "2.0")
		if err != nil {
			return nil, err
		}
		if cs.st == statePosition {
			warnings = append(warnings, "glow() before any SDF stage; it has no distance to glow around")
		}
		cs.bridgeToSdf(w)
		used.add("apply_glow")
		cs.setGlow(w, fmt.Sprintf("apply_glow(sdf_result, %s)", intensity))

	case "pulse":
		rate, err := a.get(0, "rate", "1.0")
		if err != nil {
			return nil, err
		}
		intensity, err := a.get(1, "intensity", "2.0")
		if err != nil {
			return nil, err
		}
		if cs.st == statePosition {
			warnings = append(warnings, "pulse() before any SDF stage; it has no distance to glow around")
		}
		cs.bridgeToSdf(w)
		used.add("apply_glow")
		cs.setGlow(w, fmt.Sprintf("apply_glow(sdf_result, %s) * (0.5 + 0.5 * sin(u.time * %s))", intensity, rate))

	// ── Color stages ───────────────────────────────────────────────

	case "shade":
		albedo, err := a.get(0, "albedo", "vec3f(1.0, 1.0, 1.0)")
		if err != nil {
			return nil, err
		}
		name := cs.local("shade_albedo")
		w.Line("let %s = %s;", name, albedo)
		cov := cs.coverage(w, used)
		cs.setColor(w, fmt.Sprintf("%s * %s", name, cov))

	case "emissive":
		color, err := a.get(0, "color", "vec3f(1.0, 1.0, 1.0)")
		if err != nil {
			return nil, err
		}
		intensity, err := a.get(1, "intensity", "1.0")
		if err != nil {
			return nil, err
		}
		cov := cs.coverage(w, used)
		cs.setColor(w, fmt.Sprintf("%s * %s * %s", color, intensity, cov))

	case "colormap":
		low, err := a.get(0, "low", "vec3f(0.0, 0.0, 0.0)")
		if err != nil {
			return nil, err
		}
		high, err := a.get(1, "high", "vec3f(1.0, 1.0, 1.0)")
		if err != nil {
			return nil, err
		}
		cs.bridgeHeight(w)
		cs.setColor(w, fmt.Sprintf("mix(%s, %s, height)", low, high))

	case "gradient":
		top, err := a.get(0, "top", "vec3f(1.0, 1.0, 1.0)")
		if err != nil {
			return nil, err
		}
		bottom, err := a.get(1, "bottom", "vec3f(0.0, 0.0, 0.0)")
		if err != nil {
			return nil, err
		}
		cov := cs.coverage(w, used)
		cs.setColor(w, fmt.Sprintf("mix(%s, %s, input.uv.y) * %s", bottom, top, cov))

	case "tint":
		color, err := a.get(0, "color", "vec3f(1.0, 1.0, 1.0)")
		if err != nil {
			return nil, err
		}
		amt, err := a.get(1, "amount", "1.0")
		if err != nil {
			return nil, err
		}
		bridgeToColor(w, cs, used)
		cs.setColor(w, fmt.Sprintf("mix(color_result, color_result * %s, %s)", color, amt))

	case "iridescent":
		strength, err := a.get(0, "strength", "0.3")
		if err != nil {
			return nil, err
		}
		bridgeToColor(w, cs, used)
		phase := cs.local("iri_phase")
		w.Line("let %s = atan2(p.y, p.x) * 3.0 + length(p) * 10.0 + u.time;", phase)
		shift := cs.local("iri_shift")
		w.Line("let %s = vec3f(sin(%s) * 0.5 + 0.5, sin(%s + 2.094) * 0.5 + 0.5, sin(%s + 4.189) * 0.5 + 0.5);",
			shift, phase, phase, phase)
		cs.setColor(w, fmt.Sprintf("mix(color_result, color_result * %s, %s)", shift, strength))

	case "spectrum":
		if err := emitSpectrum(w, cs, a); err != nil {
			return nil, err
		}

	default:
		if postOps[stage.Name] {
			if cs.st == statePosition && index == 0 {
				warnings = append(warnings, fmt.Sprintf(
					"post-process stage '%s' runs first in the chain; there is no color for it to transform yet", stage.Name))
			}
			bridgeToColor(w, cs, used)
			if err := emitPostOp(w, stage, ctx, cs.names); err != nil {
				return warnings, err
			}
			cs.st = stateColor
			return warnings, nil
		}
		return warnings, game.NewUnknownFunction(stage.Name)
	}

	return warnings, nil
}

// scaled multiplies the sample position unless the scale is the
// identity, keeping `fbm2(p, ...)` instead of `fbm2(p * 1.0, ...)`.
func scaled(p, scale string) string {
	if scale == "1.0" {
		return p
	}
	return p + " * " + scale
}

// bridgeToColor ensures color_result exists, grayscale-converting
// whatever the chain has produced so far.
func bridgeToColor(w *Writer, cs *chainState, used *builtinSet) {
	if cs.declaredColor {
		return
	}
	switch cs.st {
	case stateGlow:
		cs.setColor(w, "vec3f(glow_result)")
	case stateSdf:
		used.add("apply_glow")
		cs.setColor(w, "vec3f(apply_glow(sdf_result, 2.0))")
	default:
		cs.setColor(w, "vec3f(0.0, 0.0, 0.0)")
	}
}

// emitSpectrum draws three concentric analyzer rings driven by the
// stage's band arguments. Quiet bands stay dark because each glow term
// is scaled by the band level itself.
func emitSpectrum(w *Writer, cs *chainState, a args) error {
	bass, err := a.get(0, "bass", "0.0")
	if err != nil {
		return err
	}
	mid, err := a.get(1, "mid", "0.0")
	if err != nil {
		return err
	}
	treble, err := a.get(2, "treble", "0.0")
	if err != nil {
		return err
	}
	w.Line("let sp_bass = %s;", bass)
	w.Line("let sp_mid = %s;", mid)
	w.Line("let sp_treble = %s;", treble)
	w.Line("let d_bass = abs(length(p) - 0.15) - 0.02;")
	w.Line("let d_mid = abs(length(p) - 0.35) - 0.015;")
	w.Line("let d_treble = abs(length(p) - 0.55) - 0.01;")
	w.Line("let sp_core = exp(-length(p) * 6.0) * 0.12;")
	w.Line("let g_bass = exp(-max(d_bass, 0.0) * (4.0 + sp_bass * 20.0)) * sp_bass;")
	w.Line("let g_mid = exp(-max(d_mid, 0.0) * (6.0 + sp_mid * 25.0)) * sp_mid;")
	w.Line("let g_treble = exp(-max(d_treble, 0.0) * (8.0 + sp_treble * 30.0)) * sp_treble;")
	w.Line("let c_bass = vec3f(1.0, 0.3, 0.05);")
	w.Line("let c_mid = vec3f(0.05, 1.0, 0.7);")
	w.Line("let c_treble = vec3f(0.6, 0.15, 1.0);")
	cs.setColor(w, "sp_core * vec3f(0.5, 0.4, 0.3) + g_bass * c_bass + g_mid * c_mid + g_treble * c_treble")
	return nil
}

// emitFinalColor closes a single-layer fragment: whatever state the
// chain ended in becomes color_result.
func emitFinalColor(w *Writer, end shaderState, used *builtinSet) {
	switch end {
	case stateColor:
		// color_result already live
	case stateGlow:
		w.Line("var color_result = vec3f(glow_result);")
	case stateSdf:
		used.add("apply_glow")
		w.Line("var color_result = vec3f(apply_glow(sdf_result, 2.0));")
	default:
		w.Line("var color_result = vec3f(0.0, 0.0, 0.0);")
	}
}

// emitLayerResult extracts one layer's contribution as lc inside its
// block scope.
func emitLayerResult(w *Writer, end shaderState, used *builtinSet) {
	switch end {
	case stateColor:
		w.Line("let lc = color_result;")
	case stateGlow:
		w.Line("let lc = vec3f(glow_result);")
	case stateSdf:
		used.add("apply_glow")
		w.Line("let lc = vec3f(apply_glow(sdf_result, 2.0));")
	default:
		w.Line("let lc = vec3f(0.0, 0.0, 0.0);")
	}
}

// emitBlend composites lc into final_color per the layer's blend mode.
func emitBlend(w *Writer, layer *game.Layer) {
	op := fmt.Sprintf("%.3f", layer.BlendOpacity)
	switch layer.BlendMode {
	case game.BlendMultiply:
		w.Line("final_color = mix(final_color, final_color * lc, %s);", op)
	case game.BlendScreen:
		w.Line("final_color = mix(final_color, vec3f(1.0) - (vec3f(1.0) - final_color) * (vec3f(1.0) - lc), %s);", op)
	case game.BlendOverlay:
		w.Line("let ov_sel = step(vec3f(0.5), final_color);")
		w.Line("let ov = mix(2.0 * final_color * lc, vec3f(1.0) - 2.0 * (vec3f(1.0) - final_color) * (vec3f(1.0) - lc), ov_sel);")
		w.Line("final_color = mix(final_color, ov, %s);", op)
	case game.BlendNormal:
		w.Line("final_color = mix(final_color, lc, %s);", op)
	default: // additive
		w.Line("final_color = final_color + lc * %s;", op)
	}
}
