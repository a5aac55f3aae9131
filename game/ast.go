package game

// Cinematic is the root of a parsed .game file: one source file, one
// visual composition.
type Cinematic struct {
	Name       string // empty when the cinematic is unnamed
	Properties []Property
	Layers     []*Layer
	Lenses     []*Lens
	Arc        *ArcBlock
	React      *ReactBlock
	Resonance  *ResonanceBlock
	Defines    []*DefineBlock
	Imports    []ImportDecl
}

// Property is a plain `name: expr` entry in a cinematic, layer, or lens body.
type Property struct {
	Name  string
	Value Expr
}

// ImportDecl is an `import "path" expose a, b` declaration. Names holds
// the single entry "ALL" for `expose ALL`.
type ImportDecl struct {
	Path  string
	Names []string
}

// BlendMode selects how a layer composites over the layers below it.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
	BlendOverlay
)

// Layer is one visual pipeline. A layer with no chain is legal (degenerate).
type Layer struct {
	Name         string
	Chain        *PipeChain
	Params       []ParamDecl
	Properties   []Property
	BlendMode    BlendMode
	BlendOpacity float64 // 1.0 unless a blend() stage set it
}

// ParamDecl declares a modulated parameter: `name: base ~ modulation`.
// Modulation is nil for a static parameter.
type ParamDecl struct {
	Name       string
	Base       Expr
	Modulation Expr
}

// PipeChain is an ordered, semantically significant sequence of stages.
type PipeChain struct {
	Stages []FnCall
}

// FnCall is a named stage or define invocation with positional/named args.
type FnCall struct {
	Name string
	Args []Arg
}

// Arg is one call argument. Name is empty for positional arguments.
type Arg struct {
	Name  string
	Value Expr
}

// Lens holds render-mode and camera configuration plus a post-processing chain.
type Lens struct {
	Name       string
	Properties []Property
	Post       []FnCall
}

// ArcBlock is a timeline of moments driving parameter transitions.
type ArcBlock struct {
	Moments []Moment
}

// Moment is one timeline entry at an absolute time.
type Moment struct {
	TimeSeconds float64
	Name        string
	Transitions []Transition
}

// Transition changes one parameter at a moment, either instantly
// (`target: value`) or animated (`target -> value ease(fn) over Ns`).
type Transition struct {
	Target     string // possibly dotted, e.g. "flame.intensity"
	Value      Expr
	IsAnimated bool
	Easing     string   // empty when unspecified
	Duration   *float64 // nil means "until next moment"
}

// ReactBlock holds `signal -> action` event bindings.
type ReactBlock struct {
	Reactions []Reaction
}

// Reaction is one input binding.
type Reaction struct {
	Signal Expr
	Action Expr
}

// ResonanceBlock holds cross-parameter `target ~ source` bindings with a
// shared damping factor.
type ResonanceBlock struct {
	Bindings []ResonanceBinding
	Damping  *float64 // nil means the 0.95 default
}

// ResonanceBinding feeds a source expression into a target parameter.
type ResonanceBinding struct {
	Target string
	Source Expr
}

// DefineBlock is a named macro expanding to a pipe-chain fragment.
type DefineBlock struct {
	Name   string
	Params []string
	Body   PipeChain
}

// BinOp is a binary operator.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpGt
	OpLt
)

// Precedence returns the binding strength: comparisons lowest, then
// additive, then multiplicative.
func (op BinOp) Precedence() int {
	switch op {
	case OpGt, OpLt:
		return 1
	case OpAdd, OpSub:
		return 2
	default:
		return 3
	}
}

// String returns the operator's source spelling.
func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpGt:
		return ">"
	default:
		return "<"
	}
}

// Expr is the expression sum type shared by every downstream phase.
type Expr interface {
	exprNode()
}

// NumberLit is a numeric literal. Integer literals are widened to float64.
type NumberLit struct {
	Value float64
}

// StringLit is a double-quoted string literal (without the quotes).
type StringLit struct {
	Value string
}

// Ident is a bare identifier reference.
type Ident struct {
	Name string
}

// FieldAccess is `object.field`, e.g. `audio.bass`.
type FieldAccess struct {
	Object Expr
	Field  string
}

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

// NegateExpr is unary minus.
type NegateExpr struct {
	X Expr
}

// CallExpr is a function call inside an expression (not a pipeline
// stage). ArgNames runs parallel to Args; positional arguments hold "".
type CallExpr struct {
	Name     string
	Args     []Expr
	ArgNames []string
}

// ArrayLit is `[a, b, ...]`. Arity 2/3/4 maps to vector construction.
type ArrayLit struct {
	Elems []Expr
}

// TernaryExpr is `cond ? then : else`, the loosest-binding operator.
type TernaryExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (*NumberLit) exprNode()   {}
func (*StringLit) exprNode()   {}
func (*Ident) exprNode()       {}
func (*FieldAccess) exprNode() {}
func (*BinaryExpr) exprNode()  {}
func (*NegateExpr) exprNode()  {}
func (*CallExpr) exprNode()    {}
func (*ArrayLit) exprNode()    {}
func (*TernaryExpr) exprNode() {}
