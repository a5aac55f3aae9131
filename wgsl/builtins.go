package wgsl

// builtinSet tracks which helper functions the fragment body touched,
// including their transitive dependencies.
type builtinSet struct {
	used map[string]bool
}

func newBuiltinSet() *builtinSet {
	return &builtinSet{used: make(map[string]bool)}
}

// builtinDeps lists each helper's direct dependencies.
var builtinDeps = map[string][]string{
	"noise2":         {"hash2"},
	"fbm2":           {"noise2"},
	"simplex2":       {"hash2v"},
	"voronoi2":       {"hash2v"},
	"curl2":          {"simplex2"},
	"particle_field": {"hash2v"},
}

func (b *builtinSet) add(name string) {
	if b.used[name] {
		return
	}
	b.used[name] = true
	for _, dep := range builtinDeps[name] {
		b.add(dep)
	}
}

// builtinOrder fixes emission order so every function appears after its
// dependencies.
var builtinOrder = []string{
	"hash2",
	"hash2v",
	"noise2",
	"fbm2",
	"simplex2",
	"voronoi2",
	"curl2",
	"particle_field",
	"sdf_circle",
	"sdf_box2",
	"sdf_line",
	"sdf_polygon",
	"sdf_star",
	"sdf_smooth_union",
	"sdf_smooth_subtract",
	"sdf_smooth_intersect",
	"apply_glow",
}

var builtinBodies = map[string]string{
	"hash2": `fn hash2(p: vec2f) -> f32 {
  let h = dot(p, vec2f(127.1, 311.7));
  return fract(sin(h) * 43758.5453123);
}`,

	"hash2v": `fn hash2v(p: vec2f) -> vec2f {
  let h = vec2f(dot(p, vec2f(127.1, 311.7)), dot(p, vec2f(269.5, 183.3)));
  return fract(sin(h) * 43758.5453123);
}`,

	"noise2": `fn noise2(p: vec2f) -> f32 {
  let i = floor(p);
  let f = fract(p);
  let u2 = f * f * (3.0 - 2.0 * f);
  let a = hash2(i);
  let b = hash2(i + vec2f(1.0, 0.0));
  let c = hash2(i + vec2f(0.0, 1.0));
  let d = hash2(i + vec2f(1.0, 1.0));
  return mix(mix(a, b, u2.x), mix(c, d, u2.x), u2.y);
}`,

	"fbm2": `fn fbm2(p: vec2f, octaves: i32, gain: f32, lacunarity: f32) -> f32 {
  var sum = 0.0;
  var amp = 0.5;
  var pos = p;
  for (var i = 0; i < octaves; i++) {
    sum += noise2(pos) * amp;
    pos *= lacunarity;
    amp *= gain;
  }
  return sum;
}`,

	"simplex2": `fn simplex2(p: vec2f) -> f32 {
  let K1 = 0.366025404;
  let K2 = 0.211324865;
  let i = floor(p + (p.x + p.y) * K1);
  let a = p - i + (i.x + i.y) * K2;
  let o = select(vec2f(0.0, 1.0), vec2f(1.0, 0.0), a.x > a.y);
  let b = a - o + K2;
  let c = a - 1.0 + 2.0 * K2;
  let h = max(vec3f(0.5) - vec3f(dot(a, a), dot(b, b), dot(c, c)), vec3f(0.0));
  let n = h * h * h * h * vec3f(
    dot(a, hash2v(i) * 2.0 - 1.0),
    dot(b, hash2v(i + o) * 2.0 - 1.0),
    dot(c, hash2v(i + 1.0) * 2.0 - 1.0),
  );
  return dot(n, vec3f(70.0));
}`,

	"voronoi2": `fn voronoi2(p: vec2f) -> f32 {
  let i = floor(p);
  let f = fract(p);
  var min_dist = 1.0;
  for (var y = -1; y <= 1; y++) {
    for (var x = -1; x <= 1; x++) {
      let cell = vec2f(f32(x), f32(y));
      let point = hash2v(i + cell);
      let diff = cell + point - f;
      min_dist = min(min_dist, dot(diff, diff));
    }
  }
  return sqrt(min_dist);
}`,

	"curl2": `fn curl2(p: vec2f, freq: f32, amp: f32) -> vec2f {
  let e = 0.001;
  let n0 = simplex2(p * freq);
  let nx = simplex2((p + vec2f(e, 0.0)) * freq);
  let ny = simplex2((p + vec2f(0.0, e)) * freq);
  return vec2f((ny - n0) / e, -(nx - n0) / e) * amp;
}`,

	"particle_field": `fn particle_field(p: vec2f, t: f32, count: f32, size: f32) -> f32 {
  var d = 999.0;
  for (var i = 0.0; i < count; i += 1.0) {
    let seed = hash2v(vec2f(i, i * 1.37));
    let speed = 0.1 + seed.y * 0.3;
    let pos = vec2f(
      sin(t * speed + seed.x * 6.2831) * (0.3 + seed.y * 0.6),
      cos(t * speed * 0.7 + seed.y * 6.2831) * (0.3 + seed.x * 0.6),
    );
    d = min(d, length(p - pos) - size);
  }
  return d;
}`,

	"sdf_circle": `fn sdf_circle(p: vec2f, r: f32) -> f32 {
  return length(p) - r;
}`,

	"sdf_box2": `fn sdf_box2(p: vec2f, b: vec2f) -> f32 {
  let d = abs(p) - b;
  return length(max(d, vec2f(0.0))) + min(max(d.x, d.y), 0.0);
}`,

	"sdf_line": `fn sdf_line(p: vec2f, a: vec2f, b: vec2f) -> f32 {
  let pa = p - a;
  let ba = b - a;
  let h = clamp(dot(pa, ba) / dot(ba, ba), 0.0, 1.0);
  return length(pa - ba * h);
}`,

	"sdf_polygon": `fn sdf_polygon(p: vec2f, r: f32, n: f32) -> f32 {
  let an = 3.14159265 / n;
  let acs = vec2f(cos(an), sin(an));
  var q = vec2f(length(p), 0.0);
  let theta = atan2(p.y, p.x);
  let bn = an * 2.0 * floor((theta + an) / (an * 2.0));
  q = vec2f(cos(theta - bn), abs(sin(theta - bn))) * length(p);
  return length(q - acs * r * vec2f(1.0, 0.0)) * sign(q.x * acs.y - q.y * acs.x + r * acs.y);
}`,

	"sdf_star": `fn sdf_star(p: vec2f, r: f32, n: f32) -> f32 {
  let an = 3.14159265 / n;
  let en = 3.14159265 / (n * 2.0);
  let acs = vec2f(cos(an), sin(an));
  let ecs = vec2f(cos(en), sin(en));
  let bn = (atan2(abs(p.x), -p.y) % (2.0 * an)) - an;
  var q = length(p) * vec2f(cos(bn), abs(sin(bn)));
  q = q - r * acs;
  q = q + ecs * clamp(-dot(q, ecs), 0.0, r * acs.y / ecs.y);
  return length(q) * sign(q.x);
}`,

	"sdf_smooth_union": `fn sdf_smooth_union(d1: f32, d2: f32, k: f32) -> f32 {
  let h = clamp(0.5 + 0.5 * (d2 - d1) / k, 0.0, 1.0);
  return mix(d2, d1, h) - k * h * (1.0 - h);
}`,

	"sdf_smooth_subtract": `fn sdf_smooth_subtract(d1: f32, d2: f32, k: f32) -> f32 {
  let h = clamp(0.5 - 0.5 * (d2 + d1) / k, 0.0, 1.0);
  return mix(d2, -d1, h) + k * h * (1.0 - h);
}`,

	"sdf_smooth_intersect": `fn sdf_smooth_intersect(d1: f32, d2: f32, k: f32) -> f32 {
  let h = clamp(0.5 - 0.5 * (d2 - d1) / k, 0.0, 1.0);
  return mix(d2, d1, h) + k * h * (1.0 - h);
}`,

	"apply_glow": `fn apply_glow(d: f32, intensity: f32) -> f32 {
  return exp(-max(d, 0.0) * intensity * 8.0);
}`,
}

// emitBuiltins writes the used helpers in dependency order.
func emitBuiltins(w *Writer, used *builtinSet) {
	if len(used.used) == 0 {
		return
	}
	w.Line("// ── Built-in functions ──")
	w.Blank()
	for _, name := range builtinOrder {
		if !used.used[name] {
			continue
		}
		w.Raw(builtinBodies[name])
		w.Blank()
		w.Blank()
	}
}
