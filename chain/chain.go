// Package chain builds block Hamiltonians of a one dimensional XXZ chain
// in a quasi-periodic field. The total spin along z is conserved, so the
// Hamiltonian block-diagonalizes over subspaces of fixed up spin count.
package chain

import (
	"math"
	"math/bits"
	"slices"

	"trilattice/mat"
)

// Basis enumerates the product states of an n site chain with nUp up
// spins, in increasing order. The k-th bit of a state is the spin at
// site k.
type Basis struct {
	N      int
	NUp    int
	States []uint64

	index map[uint64]int
}

func New(n, nUp int) *Basis {
	b := &Basis{N: n, NUp: nUp, index: make(map[uint64]int)}
	for dec := uint64(0); dec < uint64(1)<<n; dec++ {
		if bits.OnesCount64(dec) != nUp {
			continue
		}
		b.index[dec] = len(b.States)
		b.States = append(b.States, dec)
	}
	return b
}

// Size is the dimension of the block.
func (b *Basis) Size() int {
	return len(b.States)
}

// Index returns the block index of a product state.
func (b *Basis) Index(dec uint64) (int, bool) {
	i, ok := b.index[dec]
	return i, ok
}

func spin(dec uint64, i int) float64 {
	if dec&(uint64(1)<<i) != 0 {
		return 1
	}
	return -1
}

// Diagonals are the diagonal elements of the block Hamiltonian: the
// quasi-periodic field h*cos(2*pi*c*i + phi) acting on each spin, plus the
// Ising interaction jz between adjacent spins. Sites count from 1 in the
// field argument. With periodic boundary conditions a two site chain
// counts its single bond twice, once per direction around the ring.
func (b *Basis) Diagonals(h, c, phi, jz float64, periodic bool) []float64 {
	diag := make([]float64, len(b.States))
	for k, dec := range b.States {
		var disorder float64
		for i := 0; i < b.N; i++ {
			disorder += h * math.Cos(2*math.Pi*c*float64(i+1)+phi) * spin(dec, i)
		}

		var interaction float64
		for i := 1; i < b.N; i++ {
			interaction += spin(dec, i) * spin(dec, i-1)
		}
		if periodic {
			interaction += spin(dec, 0) * spin(dec, b.N-1)
		}

		diag[k] = 0.5*disorder + 0.25*jz*interaction
	}
	return diag
}

// OffDiagonals are the exchange elements of the block Hamiltonian:
// 0.5*jxy per adjacent anti-aligned pair, exchanging the two spins.
func (b *Basis) OffDiagonals(jxy float64, periodic bool) *mat.COO {
	lb := 1
	if periodic {
		lb = 0
	}
	pairs := make([][2]int, 0, b.N)
	for i := lb; i < b.N; i++ {
		p := i - 1
		if p < 0 {
			p += b.N
		}
		pairs = append(pairs, [2]int{p, i})
	}

	n := len(b.States)
	m := mat.COOZeros(n, n)
	row := make(map[int]float64)
	for i, dec := range b.States {
		clear(row)
		for _, pair := range pairs {
			flip := uint64(1)<<pair[0] | uint64(1)<<pair[1]
			if s := dec & flip; s == 0 || s == flip {
				continue
			}
			j := b.index[dec^flip]
			row[j] += 0.5 * jxy
		}

		cols := make([]int, 0, len(row))
		for j := range row {
			cols = append(cols, j)
		}
		slices.Sort(cols)
		for _, j := range cols {
			m.Set(i, j, complex(row[j], 0))
		}
	}
	return m
}

// Hamiltonian assembles the block Hamiltonian for the given couplings.
func (b *Basis) Hamiltonian(h, c, phi, jxy, jz float64, periodic bool) *mat.COO {
	hm := b.OffDiagonals(jxy, periodic)

	n := len(b.States)
	diag := mat.COOZeros(n, n)
	for i, d := range b.Diagonals(h, c, phi, jz, periodic) {
		diag.Set(i, i, complex(d, 0))
	}
	hm.Add(1, diag)
	return hm
}
