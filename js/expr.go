// Package js generates the host-side JavaScript companions of a
// compiled cinematic: per-frame param modulation, the resonance
// integrator, input reactions, and the arc timeline driver.
package js

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/runyourempire/game-compiler/game"
)

// mathFuncs are call names that lower to Math.* in JavaScript.
var mathFuncs = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"asin": true, "acos": true, "atan": true, "atan2": true,
	"sqrt": true, "abs": true, "sign": true,
	"floor": true, "ceil": true, "round": true,
	"exp": true, "log": true, "log2": true,
	"pow": true, "min": true, "max": true,
}

// CompileExpr lowers a parsed expression to a JavaScript expression.
// System inputs become the runtime's local names (audioBass, mouseX);
// params and unknown identifiers pass through by name.
func CompileExpr(e game.Expr) (string, error) {
	switch v := e.(type) {
	case *game.NumberLit:
		return FormatNumber(v.Value), nil

	case *game.StringLit:
		return strconv.Quote(v.Value), nil

	case *game.Ident:
		switch v.Name {
		case "pi":
			return "Math.PI", nil
		case "tau":
			return "(Math.PI * 2)", nil
		case "e":
			return "Math.E", nil
		case "phi":
			return "1.618033988749895", nil
		}
		return v.Name, nil

	case *game.FieldAccess:
		return compileField(v)

	case *game.BinaryExpr:
		left, err := CompileExpr(v.Left)
		if err != nil {
			return "", err
		}
		right, err := CompileExpr(v.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, v.Op, right), nil

	case *game.NegateExpr:
		inner, err := CompileExpr(v.X)
		if err != nil {
			return "", err
		}
		return "(-" + inner + ")", nil

	case *game.CallExpr:
		return compileCall(v)

	case *game.TernaryExpr:
		cond, err := CompileExpr(v.Cond)
		if err != nil {
			return "", err
		}
		thenE, err := CompileExpr(v.Then)
		if err != nil {
			return "", err
		}
		elseE, err := CompileExpr(v.Else)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s ? %s : %s)", cond, thenE, elseE), nil

	case *game.ArrayLit:
		elems := make([]string, len(v.Elems))
		for i, el := range v.Elems {
			s, err := CompileExpr(el)
			if err != nil {
				return "", err
			}
			elems[i] = s
		}
		return "[" + strings.Join(elems, ", ") + "]", nil

	default:
		return "", game.Errorf("unsupported expression in host code")
	}
}

func compileField(fa *game.FieldAccess) (string, error) {
	base, ok := fa.Object.(*game.Ident)
	if !ok {
		inner, err := CompileExpr(fa.Object)
		if err != nil {
			return "", err
		}
		return inner + "." + fa.Field, nil
	}

	switch base.Name {
	case "audio":
		switch fa.Field {
		case "bass":
			return "audioBass", nil
		case "mid":
			return "audioMid", nil
		case "treble":
			return "audioTreble", nil
		case "energy":
			return "audioEnergy", nil
		case "beat":
			return "audioBeat", nil
		}
		return "", game.Errorf("unknown audio band 'audio.%s'", fa.Field)
	case "mouse":
		switch fa.Field {
		case "x":
			return "mouseX", nil
		case "y":
			return "mouseY", nil
		}
		return base.Name + "." + fa.Field, nil
	case "data":
		return "data_" + fa.Field, nil
	}
	return base.Name + "." + fa.Field, nil
}

func compileCall(call *game.CallExpr) (string, error) {
	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		s, err := CompileExpr(a)
		if err != nil {
			return "", err
		}
		args[i] = s
	}

	switch call.Name {
	case "lerp", "mix":
		if len(args) == 3 {
			return fmt.Sprintf("(%s + (%s - %s) * %s)", args[0], args[1], args[0], args[2]), nil
		}
	case "clamp":
		if len(args) == 3 {
			return fmt.Sprintf("Math.min(Math.max(%s, %s), %s)", args[0], args[1], args[2]), nil
		}
	case "fract":
		if len(args) == 1 {
			return fmt.Sprintf("(%s - Math.floor(%s))", args[0], args[0]), nil
		}
	case "saturate":
		if len(args) == 1 {
			return fmt.Sprintf("Math.min(Math.max(%s, 0), 1)", args[0]), nil
		}
	case "smoothstep":
		if len(args) == 3 {
			t := fmt.Sprintf("Math.min(Math.max((%s - %s) / (%s - %s), 0), 1)", args[2], args[0], args[1], args[0])
			return fmt.Sprintf("((t => t * t * (3 - 2 * t))(%s))", t), nil
		}
	}

	if mathFuncs[call.Name] {
		return "Math." + call.Name + "(" + strings.Join(args, ", ") + ")", nil
	}
	return call.Name + "(" + strings.Join(args, ", ") + ")", nil
}

// FormatNumber renders a float as a JavaScript literal.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
