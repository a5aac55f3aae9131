// Package wgsl generates WGSL shaders from analyzed cinematics. The
// fragment shader is assembled as a state machine over pipeline stages;
// built-in SDF and noise helpers are emitted only when a stage actually
// uses them.
package wgsl

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/runyourempire/game-compiler/game"
)

// wgslIntrinsics are the call names that pass straight through to WGSL.
var wgslIntrinsics = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"asin": true, "acos": true, "atan": true,
	"sqrt": true, "abs": true, "sign": true,
	"floor": true, "ceil": true, "round": true, "fract": true,
	"length": true, "normalize": true,
	"exp": true, "log": true, "log2": true,
	"saturate": true, "pow": true,
	"min": true, "max": true,
	"dot": true, "cross": true, "distance": true,
	"atan2": true, "step": true,
}

// namedColors maps color identifiers to WGSL vec3f literals.
var namedColors = map[string]string{
	"black":     "vec3f(0.0, 0.0, 0.0)",
	"white":     "vec3f(1.0, 1.0, 1.0)",
	"red":       "vec3f(1.0, 0.2, 0.15)",
	"green":     "vec3f(0.2, 1.0, 0.3)",
	"blue":      "vec3f(0.2, 0.4, 1.0)",
	"gold":      "vec3f(0.831, 0.686, 0.216)",
	"midnight":  "vec3f(0.05, 0.05, 0.15)",
	"obsidian":  "vec3f(0.08, 0.07, 0.1)",
	"ember":     "vec3f(0.9, 0.3, 0.1)",
	"cyan":      "vec3f(0.1, 0.9, 0.9)",
	"ivory":     "vec3f(0.95, 0.93, 0.87)",
	"frost":     "vec3f(0.8, 0.9, 1.0)",
	"orange":    "vec3f(1.0, 0.5, 0.1)",
	"deep_blue": "vec3f(0.02, 0.05, 0.2)",
}

// ExprContext resolves free identifiers while compiling an expression.
type ExprContext struct {
	// ParamNames maps declared param names to their WGSL let bindings.
	ParamNames map[string]bool
}

// CompileExpr lowers a parsed expression to WGSL source. Unknown call
// names are rejected; unknown identifiers pass through so that shader
// locals (p, height) and param bindings resolve naturally.
func CompileExpr(e game.Expr, ctx *ExprContext) (string, error) {
	switch v := e.(type) {
	case *game.NumberLit:
		return FormatFloat(v.Value), nil

	case *game.StringLit:
		return "", game.Errorf("string literal has no shader meaning: %q", v.Value)

	case *game.Ident:
		return compileIdent(v.Name), nil

	case *game.FieldAccess:
		return compileFieldAccess(v, ctx)

	case *game.BinaryExpr:
		left, err := CompileExpr(v.Left, ctx)
		if err != nil {
			return "", err
		}
		right, err := CompileExpr(v.Right, ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, v.Op, right), nil

	case *game.NegateExpr:
		inner, err := CompileExpr(v.X, ctx)
		if err != nil {
			return "", err
		}
		return "(-" + inner + ")", nil

	case *game.CallExpr:
		return compileCall(v, ctx)

	case *game.ArrayLit:
		return compileArray(v, ctx)

	case *game.TernaryExpr:
		cond, err := CompileExpr(v.Cond, ctx)
		if err != nil {
			return "", err
		}
		thenE, err := CompileExpr(v.Then, ctx)
		if err != nil {
			return "", err
		}
		elseE, err := CompileExpr(v.Else, ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("select(%s, %s, %s)", elseE, thenE, cond), nil

	default:
		return "", game.Errorf("unsupported expression")
	}
}

func compileIdent(name string) string {
	switch name {
	case "time":
		return "u.time"
	case "uv":
		return "input.uv"
	case "p", "height":
		return name
	case "pi":
		return FormatFloat(math.Pi)
	case "tau":
		return FormatFloat(2 * math.Pi)
	case "e":
		return FormatFloat(math.E)
	case "phi":
		return FormatFloat(math.Phi)
	}
	if color, ok := namedColors[name]; ok {
		return color
	}
	// Shader locals and param bindings pass through untouched.
	return name
}

func compileFieldAccess(fa *game.FieldAccess, ctx *ExprContext) (string, error) {
	base, ok := fa.Object.(*game.Ident)
	if !ok {
		inner, err := CompileExpr(fa.Object, ctx)
		if err != nil {
			return "", err
		}
		return inner + "." + fa.Field, nil
	}

	switch base.Name {
	case "audio":
		switch fa.Field {
		case "bass", "mid", "treble", "energy", "beat":
			return "u.audio_" + fa.Field, nil
		}
		return "", game.Errorf("unknown audio band 'audio.%s'", fa.Field)
	case "mouse":
		switch fa.Field {
		case "x":
			return "u.mouse.x", nil
		case "y":
			return "u.mouse.y", nil
		}
		return "", game.Errorf("unknown mouse field 'mouse.%s'", fa.Field)
	case "data":
		// Data fields ride in as params bound by the host.
		return "u.p_data_" + fa.Field, nil
	case "uv":
		return "input.uv." + fa.Field, nil
	}
	return compileIdent(base.Name) + "." + fa.Field, nil
}

func compileCall(call *game.CallExpr, ctx *ExprContext) (string, error) {
	name := call.Name
	switch name {
	case "lerp", "mix":
		name = "mix"
	case "clamp", "smoothstep":
		// keep as-is
	case "mod":
		if len(call.Args) != 2 {
			return "", game.Errorf("mod() takes 2 arguments, got %d", len(call.Args))
		}
		a, err := CompileExpr(call.Args[0], ctx)
		if err != nil {
			return "", err
		}
		b, err := CompileExpr(call.Args[1], ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("((%s) %% (%s))", a, b), nil
	default:
		if !wgslIntrinsics[name] {
			return "", game.NewUnknownFunction(name)
		}
	}

	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		s, err := CompileExpr(a, ctx)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	return name + "(" + strings.Join(args, ", ") + ")", nil
}

func compileArray(arr *game.ArrayLit, ctx *ExprContext) (string, error) {
	var ctor string
	switch len(arr.Elems) {
	case 2:
		ctor = "vec2f"
	case 3:
		ctor = "vec3f"
	case 4:
		ctor = "vec4f"
	default:
		ctor = "array"
	}
	elems := make([]string, len(arr.Elems))
	for i, el := range arr.Elems {
		s, err := CompileExpr(el, ctx)
		if err != nil {
			return "", err
		}
		elems[i] = s
	}
	return ctor + "(" + strings.Join(elems, ", ") + ")", nil
}

// FormatFloat renders a float as a WGSL literal, always with a decimal
// point so it types as f32.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
