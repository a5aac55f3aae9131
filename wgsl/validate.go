package wgsl

import (
	"fmt"

	"github.com/runyourempire/game-compiler/game"
	"github.com/runyourempire/game-compiler/ir"
)

// knownIdents are identifiers the shader always provides.
var knownIdents = map[string]bool{
	"time": true, "uv": true, "p": true, "height": true,
	"pi": true, "tau": true, "e": true, "phi": true,
}

// ValidateIdentifiers warns about free identifiers in chain expressions
// that resolve to nothing: they pass through to WGSL and will fail
// shader compilation if the name does not exist there either.
func ValidateIdentifiers(cin *game.Cinematic, params []ir.Param) []string {
	declared := paramNameSet(params)
	var warnings []string
	seen := make(map[string]bool)

	report := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		warnings = append(warnings, fmt.Sprintf(
			"identifier '%s' is not a param, input, or color; it passes through to the shader as-is", name))
	}

	var walk func(e game.Expr)
	walk = func(e game.Expr) {
		switch v := e.(type) {
		case *game.Ident:
			if knownIdents[v.Name] || declared[v.Name] {
				return
			}
			if _, ok := namedColors[v.Name]; ok {
				return
			}
			report(v.Name)
		case *game.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *game.NegateExpr:
			walk(v.X)
		case *game.CallExpr:
			for _, a := range v.Args {
				walk(a)
			}
		case *game.FieldAccess:
			// audio.*, mouse.*, data.* resolve through the uniform
			// struct; other bases are checked at their root.
			if id, ok := v.Object.(*game.Ident); ok {
				switch id.Name {
				case "audio", "mouse", "data", "uv", "arc":
					return
				}
				walk(v.Object)
				return
			}
			walk(v.Object)
		case *game.ArrayLit:
			for _, el := range v.Elems {
				walk(el)
			}
		case *game.TernaryExpr:
			walk(v.Cond)
			walk(v.Then)
			walk(v.Else)
		}
	}

	for _, layer := range cin.Layers {
		for _, p := range layer.Params {
			if p.Modulation != nil {
				walk(p.Modulation)
			}
		}
		if layer.Chain == nil {
			continue
		}
		for _, stage := range layer.Chain.Stages {
			if stage.Name == "mirror" {
				continue // string axes, not expressions
			}
			for _, arg := range stage.Args {
				walk(arg.Value)
			}
		}
	}
	return warnings
}
