package ring

import "fmt"

// Format records whether a PolyRq's coefficients are in the standard
// (coefficient) basis or the bit-reversed NTT (evaluation) basis. Carried as
// a runtime tag rather than a distinct compile-time type (§9 design note,
// option (b)): this mirrors the teacher's own choice in rlwe.MetaData, which
// tracks the NTT domain of a Ciphertext with a plain `IsNTT bool` checked at
// call sites rather than with two disjoint Go types.
type Format int

const (
	// Coeff is the standard polynomial basis.
	Coeff Format = iota
	// Eval is the bit-reversed NTT (evaluation) basis. Ciphertext-ciphertext
	// and ciphertext-plaintext multiplication require both operands in Eval.
	Eval
)

func (f Format) String() string {
	if f == Eval {
		return "Eval"
	}
	return "Coeff"
}

// PolyRq is a polynomial in R_q = Z_q[x]/(x^N+1) stored in RNS form: a
// (L x N) Array2d[T] where row i holds the coefficients reduced mod
// context.Modulus(i). Mirrors lattigo's Poly (Coeffs [][]uint64) plus an
// explicit Context reference and Format tag.
type PolyRq struct {
	ctx    *Context
	data   *Array2d[T]
	format Format
}

// NewPoly allocates a zero polynomial in the given context and format.
func NewPoly(ctx *Context, format Format) *PolyRq {
	return &PolyRq{
		ctx:    ctx,
		data:   NewArray2d[T](ctx.ModuliCount(), ctx.N()),
		format: format,
	}
}

// Context returns the polynomial's context.
func (p *PolyRq) Context() *Context { return p.ctx }

// Format returns the polynomial's format tag.
func (p *PolyRq) Format() Format { return p.format }

// N returns the ring degree.
func (p *PolyRq) N() int { return p.ctx.N() }

// Level returns the polynomial's level (moduli count - 1).
func (p *PolyRq) Level() int { return p.ctx.Level() }

// Coeffs returns the coefficients of RNS row i, sharing the backing array.
func (p *PolyRq) Coeffs(i int) []T { return p.data.Row(i) }

// At returns coefficient j of RNS row i.
func (p *PolyRq) At(i, j int) T { return p.data.At(i, j) }

// Set assigns coefficient j of RNS row i.
func (p *PolyRq) Set(i, j int, v T) { p.data.Set(i, j, v) }

// Clone returns a deep copy sharing the same (immutable) Context.
func (p *PolyRq) Clone() *PolyRq {
	return &PolyRq{ctx: p.ctx, data: p.data.Clone(), format: p.format}
}

// CopyFrom overwrites the receiver's coefficients from src. Requires
// matching context and format.
func (p *PolyRq) CopyFrom(src *PolyRq) error {
	if err := p.requireSameContext(src); err != nil {
		return err
	}
	for i := 0; i <= p.Level(); i++ {
		copy(p.Coeffs(i), src.Coeffs(i))
	}
	p.format = src.format
	return nil
}

func (p *PolyRq) requireSameContext(other *PolyRq) error {
	if !p.ctx.Equal(other.ctx) {
		return ErrPolyContextMismatch
	}
	return nil
}

// requireFormat returns an error unless the polynomial is in the required format.
func (p *PolyRq) requireFormat(f Format) error {
	if p.format != f {
		return fmt.Errorf("ring: operation requires %s format, polynomial is %s", f, p.format)
	}
	return nil
}

// Add sets dst = a+b (per-modulus), in either format.
func Add(a, b, dst *PolyRq) error {
	if err := a.requireSameContext(b); err != nil {
		return err
	}
	if err := a.requireSameContext(dst); err != nil {
		return err
	}
	for i := 0; i <= a.Level(); i++ {
		m := a.ctx.ModulusAt(i)
		ar, br, dr := a.Coeffs(i), b.Coeffs(i), dst.Coeffs(i)
		for j := range dr {
			dr[j] = m.BredAdd(ar[j] + br[j])
		}
	}
	dst.format = a.format
	return nil
}

// Sub sets dst = a-b (per-modulus).
func Sub(a, b, dst *PolyRq) error {
	if err := a.requireSameContext(b); err != nil {
		return err
	}
	if err := a.requireSameContext(dst); err != nil {
		return err
	}
	for i := 0; i <= a.Level(); i++ {
		q := a.ctx.Modulus(i)
		ar, br, dr := a.Coeffs(i), b.Coeffs(i), dst.Coeffs(i)
		for j := range dr {
			dr[j] = SubMod(ar[j], br[j], q)
		}
	}
	dst.format = a.format
	return nil
}

// Neg sets dst = -a (per-modulus).
func Neg(a, dst *PolyRq) error {
	if err := a.requireSameContext(dst); err != nil {
		return err
	}
	for i := 0; i <= a.Level(); i++ {
		q := a.ctx.Modulus(i)
		ar, dr := a.Coeffs(i), dst.Coeffs(i)
		for j := range dr {
			dr[j] = NegMod(ar[j], q)
		}
	}
	dst.format = a.format
	return nil
}

// MulCoeffwise sets dst = a*b coefficientwise per-modulus. Requires both
// operands (and dst) to be in Eval format: the spec reserves coefficientwise
// multiplication for the evaluation basis (ciphertext-ciphertext and
// ciphertext-plaintext products live in Eval).
func MulCoeffwise(a, b, dst *PolyRq) error {
	if err := a.requireFormat(Eval); err != nil {
		return err
	}
	if err := b.requireFormat(Eval); err != nil {
		return err
	}
	if err := a.requireSameContext(b); err != nil {
		return err
	}
	if err := a.requireSameContext(dst); err != nil {
		return err
	}
	for i := 0; i <= a.Level(); i++ {
		m := a.ctx.ModulusAt(i)
		ar, br, dr := a.Coeffs(i), b.Coeffs(i), dst.Coeffs(i)
		for j := range dr {
			dr[j] = m.MulModBarrett(ar[j], br[j])
		}
	}
	dst.format = Eval
	return nil
}

// MulScalarRNS sets dst = a * s (per-modulus), where s holds one scalar per
// RNS row (a "scalar-by-RNS-vector" multiplication per §4.2).
func MulScalarRNS(a *PolyRq, s []T, dst *PolyRq) error {
	if err := a.requireSameContext(dst); err != nil {
		return err
	}
	if len(s) != a.Level()+1 {
		return fmt.Errorf("ring: scalar vector length %d does not match level+1=%d", len(s), a.Level()+1)
	}
	for i := 0; i <= a.Level(); i++ {
		m := a.ctx.ModulusAt(i)
		ar, dr := a.Coeffs(i), dst.Coeffs(i)
		si := s[i] % m.Value
		for j := range dr {
			dr[j] = m.MulModBarrett(ar[j], si)
		}
	}
	dst.format = a.format
	return nil
}

// LazyAccumulator accumulates acc += lhs*rhs (coefficientwise, Eval format)
// through AddLazyProduct and returns the sum through Result. Each
// AddLazyProduct folds the running sum back into [0, q) with a Barrett
// reduction, so the number of accumulated products is not limited; it does
// not keep a double-width unreduced sum, and
// ctx.MaxLazyProductAccumulationCount() plays no part in it.
type LazyAccumulator struct {
	ctx  *Context
	data *Array2d[T]
	// hi is not allocated, read or written by any method.
	hi []T
}

// NewLazyAccumulator allocates a zeroed lazy accumulator for ctx.
func NewLazyAccumulator(ctx *Context) *LazyAccumulator {
	return &LazyAccumulator{ctx: ctx, data: NewArray2d[T](ctx.ModuliCount(), ctx.N())}
}

// AddLazyProduct accumulates lhs*rhs into the accumulator, reducing each
// accumulated coefficient into [0, q).
func (la *LazyAccumulator) AddLazyProduct(lhs, rhs *PolyRq) error {
	if err := lhs.requireFormat(Eval); err != nil {
		return err
	}
	if err := rhs.requireFormat(Eval); err != nil {
		return err
	}
	for i := 0; i <= la.ctx.Level(); i++ {
		m := la.ctx.ModulusAt(i)
		lr, rr, ar := lhs.Coeffs(i), rhs.Coeffs(i), la.data.Row(i)
		for j := range ar {
			ar[j] = m.BredAdd(ar[j] + m.MulModBarrettLazy(lr[j], rr[j]))
		}
	}
	return nil
}

// Result reduces the accumulator into a fully-reduced Eval-format PolyRq.
func (la *LazyAccumulator) Result() *PolyRq {
	out := NewPoly(la.ctx, Eval)
	for i := 0; i <= la.ctx.Level(); i++ {
		m := la.ctx.ModulusAt(i)
		sr, dr := la.data.Row(i), out.Coeffs(i)
		for j := range dr {
			dr[j] = m.BredAdd(sr[j])
		}
	}
	return out
}

// SetCoefficientsUint64 sets the Coeff-domain coefficients of p from coeffs,
// reducing each mod its RNS modulus.
func (p *PolyRq) SetCoefficientsUint64(coeffs []T) error {
	if len(coeffs) != p.N() {
		return fmt.Errorf("ring: expected %d coefficients, got %d", p.N(), len(coeffs))
	}
	for i := 0; i <= p.Level(); i++ {
		q := p.ctx.Modulus(i)
		row := p.Coeffs(i)
		for j, c := range coeffs {
			row[j] = c % q
		}
	}
	p.format = Coeff
	return nil
}

// SetCoefficientsInt64 sets the Coeff-domain coefficients of p from signed
// values, centering them into [0, q) per RNS row.
func (p *PolyRq) SetCoefficientsInt64(coeffs []int64) error {
	if len(coeffs) != p.N() {
		return fmt.Errorf("ring: expected %d coefficients, got %d", p.N(), len(coeffs))
	}
	for i := 0; i <= p.Level(); i++ {
		m := p.ctx.ModulusAt(i)
		row := p.Coeffs(i)
		for j, c := range coeffs {
			row[j] = m.SignedToUnsigned(c)
		}
	}
	p.format = Coeff
	return nil
}

// CenteredCoefficients returns, for each RNS row, the coefficients centered
// into (-q/2, q/2].
func (p *PolyRq) CenteredCoefficients() [][]int64 {
	out := make([][]int64, p.Level()+1)
	for i := range out {
		q := p.ctx.Modulus(i)
		row := p.Coeffs(i)
		out[i] = make([]int64, len(row))
		for j, c := range row {
			out[i][j] = RemainderToCentered(c, q)
		}
	}
	return out
}

// Equal reports whether p and other have identical context, format, and
// coefficients.
func (p *PolyRq) Equal(other *PolyRq) bool {
	if !p.ctx.Equal(other.ctx) || p.format != other.format {
		return false
	}
	for i := 0; i <= p.Level(); i++ {
		pr, or := p.Coeffs(i), other.Coeffs(i)
		for j := range pr {
			if pr[j] != or[j] {
				return false
			}
		}
	}
	return true
}
