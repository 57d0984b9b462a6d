package mps

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/fumin/tensor"

	"trilattice/mat"
)

var identity128 = [][]complex128{
	{1, 0},
	{0, 1},
}

func kron2(a, b [][]complex128) *mat.COO {
	m := mat.M(a)
	m.Kron(mat.M(b))
	return m
}

// contract2 contracts a two site MPO into its dense matrix.
// The result element at ((s0, s1), (t0, t1)) is the Hamiltonian element
// between the product states s0 s1 and t0 t1.
func contract2(mpo []*tensor.Dense) *tensor.Dense {
	buf := tensor.Zeros(1)
	// Axes of the product are {left0, up0, down0, right1, up1, down1}.
	return tensor.Contract(buf, mpo[0], mpo[1], [][2]int{{1, 0}})
}

func TestXXZ(t *testing.T) {
	t.Parallel()
	jxy, jz, h, c, phi := 2.0, 1.5, 0.7, 0.25, 0.3
	mpo := XXZ(2, jxy, jz, h, c, phi)
	if len(mpo) != 2 {
		t.Fatalf("%d", len(mpo))
	}
	hm := contract2(mpo)

	f := func(i int) float64 { return h * math.Cos(2*math.Pi*c*float64(i)+phi) }
	expected := mat.COOZeros(4, 4)
	expected.Add(complex(jxy/2, 0), kron2(mat.Raising, mat.Lowering))
	expected.Add(complex(jxy/2, 0), kron2(mat.Lowering, mat.Raising))
	expected.Add(complex(jz, 0), kron2(mat.SpinZ, mat.SpinZ))
	expected.Add(complex(f(1), 0), kron2(mat.SpinZ, identity128))
	expected.Add(complex(f(2), 0), kron2(identity128, mat.SpinZ))

	for s0 := 0; s0 < 2; s0++ {
		for s1 := 0; s1 < 2; s1++ {
			for t0 := 0; t0 < 2; t0++ {
				for t1 := 0; t1 < 2; t1++ {
					got := complex128(hm.At(0, s0, t0, 0, s1, t1))
					want := expected.At(s0*2+s1, t0*2+t1)
					if cmplx.Abs(got-want) > 1e-5 {
						t.Fatalf("%d%d %d%d: %v, expected %v", s0, s1, t0, t1, got, want)
					}
				}
			}
		}
	}
}

func TestMagnetizationZ(t *testing.T) {
	t.Parallel()
	mpo := MagnetizationZ(2)
	hm := contract2(mpo)

	expected := mat.COOZeros(4, 4)
	expected.Add(1, kron2(mat.SpinZ, identity128))
	expected.Add(1, kron2(identity128, mat.SpinZ))

	for s0 := 0; s0 < 2; s0++ {
		for s1 := 0; s1 < 2; s1++ {
			for t0 := 0; t0 < 2; t0++ {
				for t1 := 0; t1 < 2; t1++ {
					got := complex128(hm.At(0, s0, t0, 0, s1, t1))
					want := expected.At(s0*2+s1, t0*2+t1)
					if cmplx.Abs(got-want) > 1e-5 {
						t.Fatalf("%d%d %d%d: %v, expected %v", s0, s1, t0, t1, got, want)
					}
				}
			}
		}
	}
}
