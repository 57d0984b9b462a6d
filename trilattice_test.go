package trilattice

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"trilattice/mat"
)

func TestTwoSite(t *testing.T) {
	t.Parallel()
	// Site 0 occupies the least significant bit of the basis index.
	zz := mat.COOZeros(1, 1)
	twoSite(zz, 2, 0, mat.SpinZ, 1, mat.SpinZ)
	expected := mat.M([][]complex128{
		{0.25, 0, 0, 0},
		{0, -0.25, 0, 0},
		{0, 0, -0.25, 0},
		{0, 0, 0, 0.25},
	})
	if !zz.COO().Equal(expected) {
		t.Fatalf("%s, expected %s", zz.COO(), expected)
	}
}

func TestHZDiagonal(t *testing.T) {
	t.Parallel()
	m := New(3, 1)
	sec := m.Sector(0, 0)
	if sec.Size() != 4 {
		t.Fatalf("%d, expected 4", sec.Size())
	}

	hz := m.HZ(sec, 1)
	expected := []float64{0.75, -0.25, -0.25, 0.75}
	for i, e := range expected {
		if v := hz.At(i, i); math.Abs(real(v)-e) > 1e-12 {
			t.Fatalf("%d %v, expected %f", i, v, e)
		}
	}
}

func TestHamiltonianHermitian(t *testing.T) {
	t.Parallel()
	c := Couplings{JPM: 1, JZ: 0.8, JPPMM: 0.3, JPMZ: 0.2}
	for _, n := range [][2]int{{2, 2}, {3, 1}} {
		m := New(n[0], n[1])
		for kx := 0; kx < n[0]; kx++ {
			for ky := 0; ky < n[1]; ky++ {
				sec := m.Sector(kx, ky)
				h, err := m.Hamiltonian(sec, c)
				if err != nil {
					t.Fatalf("%+v", err)
				}
				if !h.EqualApprox(h.H(), 1e-9) {
					t.Fatalf("%v k %d %d not hermitian:\n%s", n, kx, ky, h)
				}
			}
		}
	}
}

func TestHamiltonianIdempotent(t *testing.T) {
	t.Parallel()
	m := New(2, 2)
	sec := m.Sector(1, 0)
	c := Couplings{JPM: 1, JZ: 0.5, JPPMM: 0.2, JPMZ: 0.1}

	h1, err := m.Hamiltonian(sec, c)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	h2, err := m.Hamiltonian(sec, c)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !h1.Equal(h2) {
		t.Fatalf("%s, expected %s", h2, h1)
	}
}

func TestFarCouplingsRequireExchange(t *testing.T) {
	t.Parallel()
	m := New(3, 1)
	sec := m.Sector(0, 0)
	if _, err := m.Hamiltonian(sec, Couplings{JZ: 1, J2: 0.5}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := m.Hamiltonian(sec, Couplings{JZ: 1, J3: 0.5}); err == nil {
		t.Fatalf("expected error")
	}
	if err := m.HamiltonianDP(mat.COOZeros(1, 1), mat.COOZeros(1, 1), Couplings{JZ: 1, J2: 0.5}); err == nil {
		t.Fatalf("expected error")
	}
}

// TestHamiltonianDPDisk checks that the disk backed assembly agrees with
// the in-memory one.
func TestHamiltonianDPDisk(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)

	m := New(2, 2)
	c := Couplings{JPM: 1, JZ: 0.8, JPPMM: 0.3, JPMZ: 0.2}

	hmem := mat.COOZeros(1, 1)
	if err := m.HamiltonianDP(hmem, mat.COOZeros(1, 1), c); err != nil {
		t.Fatalf("%+v", err)
	}

	hdisk := mat.DiskM(filepath.Join(dir, "h.db"), [][]complex128{{0}})
	buf := mat.DiskM(filepath.Join(dir, "buf.db"), [][]complex128{{0}})
	if err := m.HamiltonianDP(hdisk, buf, c); err != nil {
		t.Fatalf("%+v", err)
	}

	if !hmem.EqualApprox(hdisk.COO(), 1e-12) {
		t.Fatalf("%s, expected %s", hdisk.COO(), hmem)
	}
}

// sectorSpectrum gathers the eigenvalues of every momentum sector.
func sectorSpectrum(t *testing.T, m *Model, c Couplings) []float64 {
	eigs := make([]float64, 0, 1<<(m.Nx*m.Ny))
	for kx := 0; kx < m.Nx; kx++ {
		for ky := 0; ky < m.Ny; ky++ {
			sec := m.Sector(kx, ky)
			h, err := m.Hamiltonian(sec, c)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			for _, vv := range h.EigenHermitian() {
				eigs = append(eigs, real(vv.Val))
			}
		}
	}
	slices.Sort(eigs)
	return eigs
}

// TestSpectrum checks that the momentum sector spectra together reproduce
// the spectrum of the full direct product Hamiltonian.
func TestSpectrum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		nx, ny int
		c      Couplings
	}{
		{nx: 2, ny: 2, c: Couplings{JPM: 1, JZ: 0.8}},
		{nx: 2, ny: 2, c: Couplings{JPM: 1, JZ: 0.8, JPPMM: 0.3, JPMZ: 0.2}},
		{nx: 3, ny: 1, c: Couplings{JPM: 1, JZ: 0.5, J2: 0.3, J3: 0.1}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%dx%d %+v", test.nx, test.ny, test.c), func(t *testing.T) {
			t.Parallel()
			m := New(test.nx, test.ny)
			eigs := sectorSpectrum(t, m, test.c)

			hdp := mat.COOZeros(1, 1)
			if err := m.HamiltonianDP(hdp, mat.COOZeros(1, 1), test.c); err != nil {
				t.Fatalf("%+v", err)
			}
			dpEigs := make([]float64, 0, len(eigs))
			for _, vv := range hdp.EigenHermitian() {
				dpEigs = append(dpEigs, real(vv.Val))
			}
			slices.Sort(dpEigs)

			if len(eigs) != len(dpEigs) {
				t.Fatalf("%d, expected %d", len(eigs), len(dpEigs))
			}
			for i, e := range eigs {
				if math.Abs(e-dpEigs[i]) > 1e-8 {
					t.Fatalf("%d %f, expected %f", i, e, dpEigs[i])
				}
			}
		})
	}
}

type mapStorage map[BlockKey]BlockOps

func (s mapStorage) Item(key BlockKey) (BlockOps, error) {
	ops, ok := s[key]
	if !ok {
		return BlockOps{}, fmt.Errorf("%+v not found", key)
	}
	return ops, nil
}

func TestNewSiteOps(t *testing.T) {
	t.Parallel()
	ops := NewSiteOps(4)
	expected := mat.COOIdentity(2)
	expected.Kron(mat.M(mat.Raising))
	if !ops.Raise.Equal(expected) {
		t.Fatalf("%s, expected %s", ops.Raise, expected)
	}
	if ops.Z.Rows() != 4 || ops.Z.Cols() != 4 {
		t.Fatalf("%d %d", ops.Z.Rows(), ops.Z.Cols())
	}
}

func TestBlockNewSiteInteraction(t *testing.T) {
	t.Parallel()
	m := New(3, 1)
	storage := mapStorage{
		{Side: "L", Site: 1}: InitialBlockOps(),
	}
	c := Couplings{JPM: 1, JZ: 1}

	h, err := m.BlockNewSiteInteraction(storage, BlockKey{Side: "L", Site: 1}, c)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	expected := mat.COOZeros(4, 4)
	expected.Add(1, kronSite(mat.M(mat.Raising), mat.Lowering))
	expected.Add(1, kronSite(mat.M(mat.Lowering), mat.Raising))
	expected.Add(1, kronSite(mat.M(mat.SpinZ), mat.SpinZ))
	if !h.Equal(expected) {
		t.Fatalf("%s, expected %s", h, expected)
	}

	if _, err := m.BlockNewSiteInteraction(storage, BlockKey{Side: "L", Site: 0}, c); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMain(m *testing.M) {
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)
	os.Exit(m.Run())
}
