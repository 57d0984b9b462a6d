package trilattice

import (
	"math/cmplx"

	"github.com/pkg/errors"

	"trilattice/mat"
)

var (
	identity = mat.COOIdentity(2)
)

// twoSite builds the product of the single site operators op1 at site s1
// and op2 at site s2 into system, with site k acting on bit k of the basis
// index.
func twoSite(system mat.Matrix, n, s1 int, op1 [][]complex128, s2 int, op2 [][]complex128) {
	system.Scalar(1)
	for k := n - 1; k >= 0; k-- {
		switch k {
		case s1:
			system.Kron(mat.M(op1))
		case s2:
			system.Kron(mat.M(op2))
		default:
			system.Kron(identity)
		}
	}
}

// HamiltonianDP assembles the Hamiltonian in the full 2^N dimensional
// product space, without exploiting any symmetry, into hamiltonian using
// buf as scratch. Both matrices must share the same concrete
// implementation, either in-memory COO or disk backed. It serves as the
// reference against which the momentum sector assembly is checked.
func (m *Model) HamiltonianDP(hamiltonian, buf mat.Matrix, c Couplings) error {
	n := m.Nx * m.Ny
	dim := 1 << n
	hamiltonian.Zeros(dim, dim)

	type weighted struct {
		l     int
		pm, z complex128
	}
	terms := []weighted{{l: 0, pm: complex(c.JPM, 0), z: complex(c.JZ, 0)}}
	for _, far := range []struct {
		j float64
		l int
	}{{c.J2, 2}, {c.J3, 3}} {
		if far.j == 0 {
			continue
		}
		if c.JPM == 0 {
			return errors.Errorf("range %d coupling %f requires a nonzero nearest neighbor exchange coupling", far.l, far.j)
		}
		terms = append(terms, weighted{l: far.l - 1, pm: complex(far.j, 0), z: complex(far.j*c.JZ/c.JPM, 0)})
	}

	for _, t := range terms {
		for _, b := range m.bonds[t.l] {
			if t.pm != 0 {
				twoSite(buf, n, b.S1, mat.Raising, b.S2, mat.Lowering)
				hamiltonian.Add(t.pm, buf)
				twoSite(buf, n, b.S1, mat.Lowering, b.S2, mat.Raising)
				hamiltonian.Add(t.pm, buf)
			}
			if t.z != 0 {
				twoSite(buf, n, b.S1, mat.SpinZ, b.S2, mat.SpinZ)
				hamiltonian.Add(t.z, buf)
			}
		}
	}

	if c.JPPMM == 0 && c.JPMZ == 0 {
		return nil
	}
	for _, b := range m.bonds[0] {
		g := m.gamma(uint64(1)<<b.S1, uint64(1)<<b.S2)

		if c.JPPMM != 0 {
			jppmm := complex(c.JPPMM, 0)
			twoSite(buf, n, b.S1, mat.Raising, b.S2, mat.Raising)
			hamiltonian.Add(jppmm*g, buf)
			twoSite(buf, n, b.S1, mat.Lowering, b.S2, mat.Lowering)
			hamiltonian.Add(jppmm*cmplx.Conj(g), buf)
		}

		if c.JPMZ != 0 {
			jpmz := complex(c.JPMZ, 0)
			twoSite(buf, n, b.S1, mat.SpinZ, b.S2, mat.Raising)
			hamiltonian.Add(jpmz*1i*cmplx.Conj(g), buf)
			twoSite(buf, n, b.S1, mat.SpinZ, b.S2, mat.Lowering)
			hamiltonian.Add(-jpmz*1i*g, buf)
			twoSite(buf, n, b.S1, mat.Raising, b.S2, mat.SpinZ)
			hamiltonian.Add(jpmz*1i*cmplx.Conj(g), buf)
			twoSite(buf, n, b.S1, mat.Lowering, b.S2, mat.SpinZ)
			hamiltonian.Add(-jpmz*1i*g, buf)
		}
	}
	return nil
}
