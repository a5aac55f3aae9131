package js

import (
	"fmt"
	"strings"

	"github.com/runyourempire/game-compiler/game"
	"github.com/runyourempire/game-compiler/ir"
)

// GenerateReact emits DOM event bindings for the react block. Signals
// map to browser events; actions run against the live param table.
func GenerateReact(react *game.ReactBlock, params []ir.Param) (string, []string) {
	if react == nil || len(react.Reactions) == 0 {
		return "", nil
	}

	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p.Name] = i
	}

	var warnings []string
	var sb strings.Builder
	sb.WriteString("(function reactBindings(canvas, params) {\n")

	for _, r := range react.Reactions {
		body, ws := actionJS(r.Action, params, index)
		warnings = append(warnings, ws...)

		switch sig := signalKind(r.Signal); sig.kind {
		case "click":
			sb.WriteString("  canvas.addEventListener('click', () => {\n")
			sb.WriteString("    " + body + "\n")
			sb.WriteString("  });\n")

		case "key":
			sb.WriteString("  window.addEventListener('keydown', (e) => {\n")
			sb.WriteString(fmt.Sprintf("    if (e.key === %q) {\n", sig.key))
			sb.WriteString("      " + body + "\n")
			sb.WriteString("    }\n")
			sb.WriteString("  });\n")

		case "mouse_axis":
			// The pointer position scales the target around its base:
			// center of the canvas is 1x, the far edge 2x.
			pi, ok := axisTarget(r.Action, index)
			if !ok {
				warnings = append(warnings, fmt.Sprintf(
					"mouse.%s reaction needs a param name as its action", sig.key))
				continue
			}
			coord := "e.offsetX / canvas.clientWidth"
			if sig.key == "y" {
				coord = "1 - e.offsetY / canvas.clientHeight"
			}
			sb.WriteString("  canvas.addEventListener('mousemove', (e) => {\n")
			sb.WriteString(fmt.Sprintf("    const n = %s;\n", coord))
			sb.WriteString(fmt.Sprintf("    params[%d].base = n * 2 * %s;\n",
				pi, FormatNumber(params[pi].BaseValue)))
			sb.WriteString("  });\n")

		case "scroll":
			pi, ok := axisTarget(r.Action, index)
			if ok {
				sb.WriteString("  canvas.addEventListener('wheel', (e) => {\n")
				sb.WriteString("    e.preventDefault();\n")
				sb.WriteString(fmt.Sprintf("    params[%d].base += Math.sign(e.deltaY) * -0.05;\n", pi))
				sb.WriteString("  });\n")
			} else {
				sb.WriteString("  canvas.addEventListener('wheel', (e) => {\n")
				sb.WriteString("    e.preventDefault();\n")
				sb.WriteString("    " + body + "\n")
				sb.WriteString("  });\n")
			}

		case "hover":
			sb.WriteString("  canvas.addEventListener('mousemove', () => {\n")
			sb.WriteString("    " + body + "\n")
			sb.WriteString("  });\n")

		default:
			sb.WriteString(fmt.Sprintf("  // unhandled signal: %s\n", describeExpr(r.Signal)))
		}
	}

	sb.WriteString("})(canvas, params);\n")
	return sb.String(), warnings
}

type signal struct {
	kind string
	key  string
}

func signalKind(e game.Expr) signal {
	switch v := e.(type) {
	case *game.FieldAccess:
		if base, ok := v.Object.(*game.Ident); ok && base.Name == "mouse" {
			switch v.Field {
			case "click":
				return signal{kind: "click"}
			case "x", "y":
				return signal{kind: "mouse_axis", key: v.Field}
			case "move":
				return signal{kind: "hover"}
			}
		}
	case *game.CallExpr:
		if v.Name == "key" && len(v.Args) == 1 {
			if s, ok := v.Args[0].(*game.StringLit); ok {
				key := s.Value
				if key == "space" {
					key = " "
				}
				return signal{kind: "key", key: key}
			}
		}
	case *game.Ident:
		switch v.Name {
		case "scroll":
			return signal{kind: "scroll"}
		case "hover":
			return signal{kind: "hover"}
		}
	}
	return signal{kind: "unknown"}
}

// axisTarget resolves an action that names a param, either bare
// (`intensity`) or dotted (`fire.intensity` targets the param named
// by the final segment).
func axisTarget(action game.Expr, index map[string]int) (int, bool) {
	switch v := action.(type) {
	case *game.Ident:
		pi, ok := index[v.Name]
		return pi, ok
	case *game.FieldAccess:
		pi, ok := index[v.Field]
		return pi, ok
	}
	return 0, false
}

// actionJS lowers one reaction's action to a JS statement.
func actionJS(action game.Expr, params []ir.Param, index map[string]int) (string, []string) {
	switch v := action.(type) {
	case *game.FieldAccess:
		if base, ok := v.Object.(*game.Ident); ok && base.Name == "arc" && v.Field == "pause_toggle" {
			return "if (typeof btnToggle !== 'undefined') btnToggle.click();", nil
		}
		if pi, ok := index[v.Field]; ok {
			return fmt.Sprintf("void params[%d];", pi), nil
		}

	case *game.Ident:
		if v.Name == "reset" {
			return "for (const p of params) { p.value = p.base; }", nil
		}
		if pi, ok := index[v.Name]; ok {
			// Bare param name: a no-op statement; axis signals consume
			// it directly.
			return fmt.Sprintf("void params[%d];", pi), nil
		}

	case *game.CallExpr:
		if v.Name == "pulse" && len(v.Args) >= 1 {
			amt, err := CompileExpr(v.Args[0])
			if err == nil {
				return fmt.Sprintf("for (const p of params) { p.value = p.base * (1 + %s); }", amt), nil
			}
		}
	}

	src, err := CompileExpr(action)
	if err != nil {
		return "/* unsupported action */", []string{fmt.Sprintf("react action not understood: %v", err)}
	}
	return RewriteParamRefs(src, params) + ";", nil
}

func describeExpr(e game.Expr) string {
	src, err := CompileExpr(e)
	if err != nil {
		return "<expr>"
	}
	return src
}
