// Package mps provides matrix product operators for the quasi-periodic
// XXZ chain.
package mps

import (
	"math"

	"github.com/fumin/tensor"

	"trilattice/mat"
)

var (
	zero = [][]complex64{
		{0, 0},
		{0, 0},
	}
	identity = [][]complex64{
		{1, 0},
		{0, 1},
	}
)

// MagnetizationZ is the MPO of the total magnetization along z.
func MagnetizationZ(n int) []*tensor.Dense {
	w := tensor.T4([][][][]complex64{
		{identity, zero},
		{c64(mat.SpinZ), identity},
	})
	mpo := make([]*tensor.Dense, 0, n)
	for i := 0; i < n; i++ {
		mpo = append(mpo, boundary(w, i, n))
	}
	return mpo
}

// XXZ is the MPO of the open XXZ chain in a quasi-periodic field:
// the sum over sites of jxy/2 exchange and jz Ising couplings between
// neighbors, plus the field h*cos(2*pi*c*i + phi) acting on each spin.
// The site tensor has bond dimension 5; the field entry varies per site.
func XXZ(n int, jxy, jz, h, c, phi float64) []*tensor.Dense {
	mul := func(v complex64, x [][]complex64) [][]complex64 {
		return tensor.T2(x).Mul(v).ToSlice2()
	}
	raise := c64(mat.Raising)
	lower := c64(mat.Lowering)
	spinZ := c64(mat.SpinZ)

	mpo := make([]*tensor.Dense, 0, n)
	for i := 0; i < n; i++ {
		f := complex64(complex(h*math.Cos(2*math.Pi*c*float64(i+1)+phi), 0))
		w := tensor.T4([][][][]complex64{
			{identity, zero, zero, zero, zero},
			{raise, zero, zero, zero, zero},
			{lower, zero, zero, zero, zero},
			{spinZ, zero, zero, zero, zero},
			{
				mul(f, spinZ),
				mul(complex64(complex(jxy/2, 0)), lower),
				mul(complex64(complex(jxy/2, 0)), raise),
				mul(complex64(complex(jz, 0)), spinZ),
				identity,
			},
		})
		mpo = append(mpo, boundary(w, i, n))
	}
	return mpo
}

// boundary slices the site tensor at the chain ends:
// the first site keeps only the last row, the last site only the first column.
func boundary(w *tensor.Dense, i, n int) *tensor.Dense {
	d0, d1, d2, d3 := w.Shape()[0], w.Shape()[1], w.Shape()[2], w.Shape()[3]
	switch i {
	case 0:
		return w.Slice([][2]int{{d0 - 1, d0}, {0, d1}, {0, d2}, {0, d3}})
	case n - 1:
		return w.Slice([][2]int{{0, d0}, {0, 1}, {0, d2}, {0, d3}})
	default:
		return w
	}
}

func c64(x [][]complex128) [][]complex64 {
	y := make([][]complex64, len(x))
	for i, row := range x {
		y[i] = make([]complex64, len(row))
		for j, v := range row {
			y[i][j] = complex64(v)
		}
	}
	return y
}
