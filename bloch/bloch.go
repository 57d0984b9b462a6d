// Package bloch builds translation invariant basis sets of spin product states.
//
// A product state on an Nx by Ny lattice is an integer whose k-th bit is the
// spin at lattice index k. Repeated lattice translations partition the
// product states into orbits, and for a fixed lattice momentum every orbit
// with a non-vanishing norm contributes one state to the reduced basis.
package bloch

import (
	"math"
	"math/cmplx"
)

// normTol is the norm below which an orbit is absent from a momentum sector.
const normTol = 1e-8

// TranslateX translates a product state along the x direction for one site,
// assuming periodic boundary conditions.
func TranslateX(dec uint64, nx, ny int) uint64 {
	rowMask := uint64(1)<<nx - 1
	var out uint64
	for r := 0; r < ny; r++ {
		row := (dec >> (r * nx)) & rowMask
		row = (row<<1)&rowMask | row>>(nx-1)
		out |= row << (r * nx)
	}
	return out
}

// TranslateY translates a product state along the y direction for one site,
// assuming periodic boundary conditions.
func TranslateY(dec uint64, nx, ny int) uint64 {
	xdim := uint64(1) << nx
	tail := dec % xdim
	return dec/xdim + tail<<(nx*(ny-1))
}

// ExchangeSpinFlips tests whether the spins at the two single-bit masks s1
// and s2 are antiparallel.
func ExchangeSpinFlips(dec, s1, s2 uint64) (updown, downup bool) {
	updown = dec|s1 == dec && dec|s2 != dec
	downup = dec|s1 != dec && dec|s2 == dec
	return updown, downup
}

// RepeatedSpins tests whether the spins at the two single-bit masks s1 and
// s2 point in the same direction.
func RepeatedSpins(dec, s1, s2 uint64) (upup, downdown bool) {
	upup = dec|s1 == dec && dec|s2 == dec
	downdown = dec|s1 != dec && dec|s2 != dec
	return upup, downdown
}

// Func is a translation orbit.
// Decs maps every product state in the orbit to the (row, col) translation
// offsets at which it is reached from the leading state. A state appears at
// several offsets when the orbit's period is smaller than the lattice.
type Func struct {
	Lead uint64
	Decs map[uint64][][2]int
}

// FuncSet is the set of all translation orbits of an Nx by Ny lattice,
// sorted by leading state, together with a table mapping every product
// state to its owning orbit. It is independent of lattice momentum and
// may be shared read-only between momentum sectors.
type FuncSet struct {
	Nx, Ny int
	Funcs  []*Func

	table []int32
}

// BuildOrbits partitions the full product state space into translation
// orbits. States are visited in increasing order, so every orbit's leading
// state is its minimum member.
func BuildOrbits(nx, ny int) *FuncSet {
	n := nx * ny
	set := &FuncSet{Nx: nx, Ny: ny, table: make([]int32, 1<<n)}
	for i := range set.table {
		set.table[i] = -1
	}

	for dec := uint64(0); dec < uint64(1)<<n; dec++ {
		if set.table[dec] >= 0 {
			continue
		}

		orbit := int32(len(set.Funcs))
		bfunc := &Func{Lead: dec, Decs: make(map[uint64][][2]int)}
		newDec := dec
		for row := 0; row < ny; row++ {
			for col := 0; col < nx; col++ {
				set.table[newDec] = orbit
				bfunc.Decs[newDec] = append(bfunc.Decs[newDec], [2]int{row, col})
				newDec = TranslateX(newDec, nx, ny)
			}
			newDec = TranslateY(newDec, nx, ny)
		}
		set.Funcs = append(set.Funcs, bfunc)
	}
	return set
}

// Find returns the orbit owning the given product state.
func (set *FuncSet) Find(dec uint64) *Func {
	return set.Funcs[set.table[dec]]
}

// Sector is the reduced basis of a momentum sector: the orbits whose norm at
// lattice momentum (Kx, Ky) does not vanish, indexed by ascending leading
// state. The orbit set is shared and never mutated; norms and the leading
// state memo belong to the sector. A Sector is not safe for concurrent use.
type Sector struct {
	Nx, Ny int
	Kx, Ky int

	set      *FuncSet
	norms    []float64
	kept     []int32
	decToInd map[uint64]int
	phases   [][]complex128

	memo map[uint64]leading
}

type leading struct {
	ind   int
	phase complex128
	ok    bool
}

// NewSector scores every orbit of set at lattice momentum (kx, ky) and
// retains those with non-vanishing norm.
func NewSector(set *FuncSet, kx, ky int) *Sector {
	s := &Sector{
		Nx: set.Nx, Ny: set.Ny,
		Kx: kx, Ky: ky,
		set:      set,
		norms:    make([]float64, len(set.Funcs)),
		decToInd: make(map[uint64]int),
		memo:     make(map[uint64]leading),
	}

	s.phases = make([][]complex128, set.Ny)
	for row := range s.phases {
		s.phases[row] = make([]complex128, set.Nx)
		yphase := cmplx.Exp(complex(0, 2*math.Pi*float64(ky*row)/float64(set.Ny)))
		for col := range s.phases[row] {
			xphase := cmplx.Exp(complex(0, 2*math.Pi*float64(kx*col)/float64(set.Nx)))
			s.phases[row][col] = yphase * xphase
		}
	}

	for i, bfunc := range set.Funcs {
		s.norms[i] = s.normCoeff(bfunc)
		if s.norms[i] > normTol {
			s.decToInd[bfunc.Lead] = len(s.kept)
			s.kept = append(s.kept, int32(i))
		}
	}
	return s
}

// normCoeff is the reciprocal of the orbit's normalization factor: the
// 2-norm over the orbit's distinct states of each state's phase sum.
func (s *Sector) normCoeff(bfunc *Func) float64 {
	var sum float64
	for _, locs := range bfunc.Decs {
		var phase complex128
		for _, rowCol := range locs {
			phase += s.phases[rowCol[0]][rowCol[1]]
		}
		sum += real(phase)*real(phase) + imag(phase)*imag(phase)
	}
	return math.Sqrt(sum)
}

// Size is the dimension of the reduced basis.
func (s *Sector) Size() int {
	return len(s.kept)
}

// State returns the orbit at basis index i.
func (s *Sector) State(i int) *Func {
	return s.set.Funcs[s.kept[i]]
}

// Norm returns the norm of the orbit at basis index i.
func (s *Sector) Norm(i int) float64 {
	return s.norms[s.kept[i]]
}

// Index returns the basis index of the orbit led by the given state.
func (s *Sector) Index(lead uint64) (int, bool) {
	i, ok := s.decToInd[lead]
	return i, ok
}

// LeadingState resolves a product state to the basis index of its owning
// orbit, along with the unit phase relating the state to the orbit's Bloch
// representative. ok is false when the orbit is silenced in this sector.
// Results are memoized until ResetMemo.
func (s *Sector) LeadingState(dec uint64) (int, complex128, bool) {
	if l, ok := s.memo[dec]; ok {
		return l.ind, l.phase, l.ok
	}
	l := s.leadingState(dec)
	s.memo[dec] = l
	return l.ind, l.phase, l.ok
}

func (s *Sector) leadingState(dec uint64) leading {
	orbit := s.set.table[dec]
	if s.norms[orbit] < normTol {
		return leading{}
	}
	cntd := s.set.Funcs[orbit]

	// Trace how far the given state is from the leading state by translation.
	var phase complex128
	for _, rowCol := range cntd.Decs[dec] {
		phase += s.phases[rowCol[0]][rowCol[1]]
	}
	phase = cmplx.Conj(phase)
	phase /= complex(cmplx.Abs(phase), 0)

	return leading{ind: s.decToInd[cntd.Lead], phase: phase, ok: true}
}

// ResetMemo clears the leading state memo. Hamiltonian assembly calls this
// after each build since the memo's domain is exponential in the lattice size.
func (s *Sector) ResetMemo() {
	clear(s.memo)
}
