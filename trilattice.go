// Package trilattice builds spin-1/2 Hamiltonians of an anisotropic
// triangular lattice model in momentum sectors of the translation group.
//
// The model couples nearest neighbors through exchange (J_pm), Ising (J_z),
// double flip (J_ppmm) and flip-z (J_pmz) terms, plus second and third
// neighbor Heisenberg-like terms scaled by J2 and J3. Working in a fixed
// lattice momentum block-diagonalizes the Hamiltonian, cutting the dimension
// from 2^N down to roughly 2^N/N.
package trilattice

import (
	"math/bits"
	"math/cmplx"

	"github.com/pkg/errors"

	"trilattice/bloch"
	"trilattice/lattice"
	"trilattice/mat"
)

// Couplings are the interaction strengths of the model.
// JPM, JZ, JPPMM, JPMZ act on nearest neighbor bonds. J2 and J3 scale the
// second and third neighbor terms, whose Ising part inherits the JZ/JPM
// ratio of the nearest neighbor couplings.
type Couplings struct {
	JPM   float64
	JZ    float64
	JPPMM float64
	JPMZ  float64
	J2    float64
	J3    float64
}

type termKey struct {
	term string
	kx   int
	ky   int
	l    int
}

// Model holds the coupling-independent structures of an Nx by Ny lattice:
// the translation orbits, the bond masks at every interaction range, and
// caches of momentum sectors and term matrices. Term matrices depend only
// on the lattice and the momentum, so assembling Hamiltonians for many
// couplings reuses them.
//
// A Model is not safe for concurrent use.
type Model struct {
	Nx, Ny int

	set   *bloch.FuncSet
	bonds [3][]lattice.Bond
	// sites[l][0][k] and sites[l][1][k] are the single-bit masks of the
	// k-th range-(l+1) bond's endpoints.
	sites [3][2][]uint64

	gammas  map[[2]uint64]complex128
	sectors map[[2]int]*bloch.Sector
	terms   map[termKey]*mat.COO
}

func New(nx, ny int) *Model {
	m := &Model{
		Nx: nx, Ny: ny,
		set:     bloch.BuildOrbits(nx, ny),
		bonds:   lattice.Bonds(nx, ny),
		gammas:  make(map[[2]uint64]complex128),
		sectors: make(map[[2]int]*bloch.Sector),
		terms:   make(map[termKey]*mat.COO),
	}
	for l, bonds := range m.bonds {
		for _, b := range bonds {
			m.sites[l][0] = append(m.sites[l][0], uint64(1)<<b.S1)
			m.sites[l][1] = append(m.sites[l][1], uint64(1)<<b.S2)
		}
	}
	return m
}

// Sector returns the momentum sector at lattice momentum (kx, ky),
// where kx and ky are in units of 2π/Nx and 2π/Ny.
func (m *Model) Sector(kx, ky int) *bloch.Sector {
	if s, ok := m.sectors[[2]int{kx, ky}]; ok {
		return s
	}
	s := bloch.NewSector(m.set, kx, ky)
	m.sectors[[2]int{kx, ky}] = s
	return s
}

// gamma is the bond orientation factor exp(i*angle) of the nearest
// neighbor bond whose endpoints are the single-bit masks s1 and s2.
func (m *Model) gamma(s1, s2 uint64) complex128 {
	if g, ok := m.gammas[[2]uint64{s1, s2}]; ok {
		return g
	}
	v1 := lattice.FromIndex(bits.TrailingZeros64(s1), m.Nx, m.Ny)
	v2 := lattice.FromIndex(bits.TrailingZeros64(s2), m.Nx, m.Ny)
	g := cmplx.Exp(complex(0, v1.AngleWith(v2)))
	m.gammas[[2]uint64{s1, s2}] = g
	return g
}

// Hamiltonian assembles the Hamiltonian matrix in the given momentum sector.
// Second and third neighbor terms take the form Jn*(H_pm + JZ/JPM*H_z) and
// are therefore defined only when JPM is nonzero.
// Repeated calls with the same arguments return identical matrices.
func (m *Model) Hamiltonian(sec *bloch.Sector, c Couplings) (*mat.COO, error) {
	defer sec.ResetMemo()

	n := sec.Size()
	h := mat.COOZeros(n, n)
	for _, t := range []struct {
		j   float64
		mat *mat.COO
	}{
		{c.JPM, m.HPM(sec, 1)},
		{c.JZ, m.HZ(sec, 1)},
		{c.JPPMM, m.HPPMM(sec)},
		{c.JPMZ, m.HPMZ(sec)},
	} {
		if t.j == 0 {
			continue
		}
		h.Add(complex(t.j, 0), t.mat)
	}

	for _, far := range []struct {
		j float64
		l int
	}{{c.J2, 2}, {c.J3, 3}} {
		if far.j == 0 {
			continue
		}
		if c.JPM == 0 {
			return nil, errors.Errorf("range %d coupling %f requires a nonzero nearest neighbor exchange coupling", far.l, far.j)
		}
		h.Add(complex(far.j, 0), m.HPM(sec, far.l))
		h.Add(complex(far.j*c.JZ/c.JPM, 0), m.HZ(sec, far.l))
	}

	return h, nil
}

// HZ is the Ising term matrix at interaction range l. It is diagonal.
func (m *Model) HZ(sec *bloch.Sector, l int) *mat.COO {
	key := termKey{term: "z", kx: sec.Kx, ky: sec.Ky, l: l}
	if h, ok := m.terms[key]; ok {
		return h
	}

	n := sec.Size()
	h := mat.COOZeros(n, n)
	for i := 0; i < n; i++ {
		h.Set(i, i, complex(m.zElement(sec, i, l), 0))
	}
	m.terms[key] = h
	return h
}

// HPM is the exchange term matrix at interaction range l.
func (m *Model) HPM(sec *bloch.Sector, l int) *mat.COO {
	key := termKey{term: "pm", kx: sec.Kx, ky: sec.Ky, l: l}
	if h, ok := m.terms[key]; ok {
		return h
	}

	h := m.offdiag(sec, func(i int) map[int]complex128 {
		return m.pmElements(sec, i, l)
	})
	m.terms[key] = h
	return h
}

// HPPMM is the nearest neighbor double flip term matrix.
func (m *Model) HPPMM(sec *bloch.Sector) *mat.COO {
	key := termKey{term: "ppmm", kx: sec.Kx, ky: sec.Ky, l: 1}
	if h, ok := m.terms[key]; ok {
		return h
	}

	h := m.offdiag(sec, func(i int) map[int]complex128 {
		return m.ppmmElements(sec, i)
	})
	m.terms[key] = h
	return h
}

// HPMZ is the nearest neighbor flip-z term matrix,
// including its overall factor of i.
func (m *Model) HPMZ(sec *bloch.Sector) *mat.COO {
	key := termKey{term: "pmz", kx: sec.Kx, ky: sec.Ky, l: 1}
	if h, ok := m.terms[key]; ok {
		return h
	}

	h := m.offdiag(sec, func(i int) map[int]complex128 {
		return m.pmzElements(sec, i)
	})
	h.Mul(mat.M([][]complex128{{1i}}))
	m.terms[key] = h
	return h
}
