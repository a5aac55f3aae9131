package game

import "testing"

func TestExpandDefines(t *testing.T) {
	cin := parseSource(t, `cinematic {
  define pulse_ring(size, rate) {
    circle(size) | glow(rate)
  }
  layer {
    fn: pulse_ring(0.3, 2.0)
  }
}`)
	ExpandDefines(cin)

	stages := cin.Layers[0].Chain.Stages
	if len(stages) != 2 {
		t.Fatalf("stage count = %d, want 2", len(stages))
	}
	if stages[0].Name != "circle" || stages[1].Name != "glow" {
		t.Errorf("stages = %q, %q", stages[0].Name, stages[1].Name)
	}
	size, ok := stages[0].Args[0].Value.(*NumberLit)
	if !ok || size.Value != 0.3 {
		t.Errorf("circle arg = %#v, want 0.3", stages[0].Args[0].Value)
	}
	rate, ok := stages[1].Args[0].Value.(*NumberLit)
	if !ok || rate.Value != 2.0 {
		t.Errorf("glow arg = %#v, want 2.0", stages[1].Args[0].Value)
	}
}

func TestExpandDefinesIdempotent(t *testing.T) {
	cin := parseSource(t, `cinematic {
  layer {
    fn: circle(0.3) | glow(2.0)
  }
}`)
	ExpandDefines(cin)
	first := len(cin.Layers[0].Chain.Stages)
	ExpandDefines(cin)
	if len(cin.Layers[0].Chain.Stages) != first {
		t.Errorf("second expansion changed stage count: %d -> %d",
			first, len(cin.Layers[0].Chain.Stages))
	}
}

func TestExpandDefinesNested(t *testing.T) {
	cin := parseSource(t, `cinematic {
  define inner(s) {
    circle(s)
  }
  define outer(s) {
    inner(s) | glow(2.0)
  }
  layer {
    fn: outer(0.4)
  }
}`)
	ExpandDefines(cin)

	stages := cin.Layers[0].Chain.Stages
	if len(stages) != 2 {
		t.Fatalf("stage count = %d, want 2", len(stages))
	}
	if stages[0].Name != "circle" {
		t.Errorf("stage 0 = %q, want circle", stages[0].Name)
	}
	if n, ok := stages[0].Args[0].Value.(*NumberLit); !ok || n.Value != 0.4 {
		t.Errorf("arg = %#v, want 0.4 through both levels", stages[0].Args[0].Value)
	}
}

func TestExpandDefinesExprArgs(t *testing.T) {
	cin := parseSource(t, `cinematic {
  define wob(base) {
    circle(base + sin(time) * 0.05)
  }
  layer {
    fn: wob(0.3)
  }
}`)
	ExpandDefines(cin)

	arg := cin.Layers[0].Chain.Stages[0].Args[0].Value
	add, ok := arg.(*BinaryExpr)
	if !ok || add.Op != OpAdd {
		t.Fatalf("arg = %#v, want Add", arg)
	}
	if n, ok := add.Left.(*NumberLit); !ok || n.Value != 0.3 {
		t.Errorf("formal not substituted: %#v", add.Left)
	}
}

func TestExpandDefinesRecursiveBounded(t *testing.T) {
	cin := parseSource(t, `cinematic {
  define loop(s) {
    loop(s)
  }
  layer {
    fn: loop(0.3)
  }
}`)
	// Must terminate; a self-referential define just stops expanding.
	ExpandDefines(cin)
	if len(cin.Layers[0].Chain.Stages) != 1 {
		t.Errorf("stage count = %d", len(cin.Layers[0].Chain.Stages))
	}
}
