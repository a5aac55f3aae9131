package game

// maxExpansionPasses bounds define expansion so mutually recursive
// defines terminate instead of looping.
const maxExpansionPasses = 10

// ExpandDefines splices user-defined pipeline fragments into every
// layer chain. A stage whose name matches a define is replaced by the
// define's body with formal parameters substituted positionally by the
// call's argument expressions. Expansion runs to a fixpoint (bounded),
// so defines may reference other defines. The pass is idempotent: a
// cinematic without defines comes back unchanged.
func ExpandDefines(cin *Cinematic) {
	if len(cin.Defines) == 0 {
		return
	}

	defs := make(map[string]*DefineBlock, len(cin.Defines))
	for _, d := range cin.Defines {
		defs[d.Name] = d
	}

	for _, layer := range cin.Layers {
		if layer.Chain == nil {
			continue
		}
		for pass := 0; pass < maxExpansionPasses; pass++ {
			expanded, changed := expandChain(layer.Chain, defs)
			layer.Chain = expanded
			if !changed {
				break
			}
		}
	}
}

func expandChain(chain *PipeChain, defs map[string]*DefineBlock) (*PipeChain, bool) {
	out := &PipeChain{Stages: make([]FnCall, 0, len(chain.Stages))}
	changed := false

	for _, stage := range chain.Stages {
		def, ok := defs[stage.Name]
		if !ok {
			out.Stages = append(out.Stages, stage)
			continue
		}
		changed = true

		// Positional zip: formal i binds to argument i. Extra formals
		// stay unbound and pass through as bare identifiers.
		bindings := make(map[string]Expr, len(def.Params))
		for i, formal := range def.Params {
			if i < len(stage.Args) {
				bindings[formal] = stage.Args[i].Value
			}
		}

		for _, bodyStage := range def.Body.Stages {
			out.Stages = append(out.Stages, substituteCall(bodyStage, bindings))
		}
	}

	return out, changed
}

func substituteCall(call FnCall, bindings map[string]Expr) FnCall {
	out := FnCall{Name: call.Name, Args: make([]Arg, len(call.Args))}
	for i, arg := range call.Args {
		out.Args[i] = Arg{Name: arg.Name, Value: substituteExpr(arg.Value, bindings)}
	}
	return out
}

// substituteExpr rewrites an expression tree, replacing identifiers
// bound to define formals with the caller's argument expressions.
func substituteExpr(e Expr, bindings map[string]Expr) Expr {
	switch v := e.(type) {
	case *Ident:
		if bound, ok := bindings[v.Name]; ok {
			return bound
		}
		return v
	case *BinaryExpr:
		return &BinaryExpr{
			Op:    v.Op,
			Left:  substituteExpr(v.Left, bindings),
			Right: substituteExpr(v.Right, bindings),
		}
	case *NegateExpr:
		return &NegateExpr{X: substituteExpr(v.X, bindings)}
	case *CallExpr:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = substituteExpr(a, bindings)
		}
		return &CallExpr{Name: v.Name, Args: args, ArgNames: v.ArgNames}
	case *FieldAccess:
		return &FieldAccess{Object: substituteExpr(v.Object, bindings), Field: v.Field}
	case *ArrayLit:
		elems := make([]Expr, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = substituteExpr(el, bindings)
		}
		return &ArrayLit{Elems: elems}
	case *TernaryExpr:
		return &TernaryExpr{
			Cond: substituteExpr(v.Cond, bindings),
			Then: substituteExpr(v.Then, bindings),
			Else: substituteExpr(v.Else, bindings),
		}
	default:
		return e
	}
}
