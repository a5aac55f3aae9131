package ir

import "github.com/runyourempire/game-compiler/game"

// walkExprs visits every expression reachable from the cinematic's
// layers and lenses: properties, param bases and modulations, pipeline
// arguments, and lens post chains.
func walkExprs(cin *game.Cinematic, visit func(game.Expr)) {
	var walk func(e game.Expr)
	walk = func(e game.Expr) {
		if e == nil {
			return
		}
		visit(e)
		switch v := e.(type) {
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

	walkChain := func(chain *game.PipeChain) {
		if chain == nil {
			return
		}
		for _, stage := range chain.Stages {
			for _, arg := range stage.Args {
				walk(arg.Value)
			}
		}
	}

	for _, prop := range cin.Properties {
		walk(prop.Value)
	}
	for _, layer := range cin.Layers {
		for _, prop := range layer.Properties {
			walk(prop.Value)
		}
		for _, p := range layer.Params {
			walk(p.Base)
			walk(p.Modulation)
		}
		walkChain(layer.Chain)
	}
	for _, lens := range cin.Lenses {
		for _, prop := range lens.Properties {
			walk(prop.Value)
		}
		for _, call := range lens.Post {
			for _, arg := range call.Args {
				walk(arg.Value)
			}
		}
	}
	if cin.Resonance != nil {
		for _, b := range cin.Resonance.Bindings {
			walk(b.Source)
		}
	}
}

// fieldBase returns the root identifier of a field access, or "".
func fieldBase(e game.Expr) string {
	fa, ok := e.(*game.FieldAccess)
	if !ok {
		return ""
	}
	if id, ok := fa.Object.(*game.Ident); ok {
		return id.Name
	}
	return ""
}

// UsesAudio reports whether any expression reads an audio band.
func UsesAudio(cin *game.Cinematic) bool {
	found := false
	walkExprs(cin, func(e game.Expr) {
		if fieldBase(e) == "audio" {
			found = true
		}
	})
	return found
}

// UsesMouse reports whether any expression reads the mouse position.
func UsesMouse(cin *game.Cinematic) bool {
	found := false
	walkExprs(cin, func(e game.Expr) {
		if fieldBase(e) == "mouse" {
			found = true
		}
	})
	return found
}

// UsesData reports whether any expression reads an external data field.
func UsesData(cin *game.Cinematic) bool {
	found := false
	walkExprs(cin, func(e game.Expr) {
		if fieldBase(e) == "data" {
			found = true
		}
	})
	return found
}

// CollectDataFields returns the distinct data.* field names in order of
// first appearance.
func CollectDataFields(cin *game.Cinematic) []string {
	var fields []string
	seen := make(map[string]bool)
	walkExprs(cin, func(e game.Expr) {
		if fieldBase(e) != "data" {
			return
		}
		field := e.(*game.FieldAccess).Field
		if !seen[field] {
			seen[field] = true
			fields = append(fields, field)
		}
	})
	return fields
}
