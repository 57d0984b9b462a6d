package trilattice

import (
	"github.com/pkg/errors"

	"trilattice/lattice"
	"trilattice/mat"
)

// BlockKey identifies a stored DMRG block by its side of the superblock
// and the number of sites it contains.
type BlockKey struct {
	Side string
	Site int
}

// BlockOps are the operators kept per block during a DMRG sweep: the block
// Hamiltonian and the single site operators of every block site, embedded
// in the block's space.
type BlockOps struct {
	Block *mat.COO
	Raise *mat.COO
	Lower *mat.COO
	Z     *mat.COO
}

// Storage supplies previously stored block operators during a sweep.
type Storage interface {
	Item(key BlockKey) (BlockOps, error)
}

// InitialBlockOps is the single site block that seeds a sweep: an empty
// block Hamiltonian alongside the bare site operators.
func InitialBlockOps() BlockOps {
	return BlockOps{
		Block: mat.COOZeros(2, 2),
		Raise: mat.M(mat.Raising),
		Lower: mat.M(mat.Lowering),
		Z:     mat.M(mat.SpinZ),
	}
}

// NewSiteOps embeds the bare site operators at the open end of a block
// of the given dimension.
func NewSiteOps(size int) BlockOps {
	embed := func(op [][]complex128) *mat.COO {
		e := mat.COOIdentity(size / 2)
		e.Kron(mat.M(op))
		return e
	}
	return BlockOps{
		Raise: embed(mat.Raising),
		Lower: embed(mat.Lowering),
		Z:     embed(mat.SpinZ),
	}
}

// BlockNewSiteInteraction builds the interaction between a block and the
// site being appended to it. Sites are traversed in lattice index order
// with periodic boundary conditions along x only, so the relevant bonds
// are those connecting the new site to lower-indexed neighbors.
func (m *Model) BlockNewSiteInteraction(storage Storage, key BlockKey, c Couplings) (*mat.COO, error) {
	site := lattice.SemiFromIndex(key.Site, m.Nx, m.Ny)
	neighbors := make([]int, 0, 6)
	for _, i := range site.Neighbors() {
		if i < key.Site {
			neighbors = append(neighbors, i)
		}
	}
	if len(neighbors) == 0 {
		return nil, errors.Errorf("site %d has no neighbors inside the block", key.Site)
	}

	var hpm, hz, hppmm, hpmz *mat.COO
	for _, i := range neighbors {
		ops, err := storage.Item(BlockKey{Side: key.Side, Site: i + 1})
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		if hpm == nil {
			dim := 2 * ops.Raise.Rows()
			hpm = mat.COOZeros(dim, dim)
			hz = mat.COOZeros(dim, dim)
			hppmm = mat.COOZeros(dim, dim)
			hpmz = mat.COOZeros(dim, dim)
		}
		if 2*ops.Raise.Rows() != hpm.Rows() {
			return nil, errors.Errorf("block %s %d operator dimension %d does not match %d", key.Side, i+1, ops.Raise.Rows(), hpm.Rows()/2)
		}

		hpm.Add(1, kronSite(ops.Raise, mat.Lowering))
		hpm.Add(1, kronSite(ops.Lower, mat.Raising))

		hz.Add(1, kronSite(ops.Z, mat.SpinZ))

		hppmm.Add(1, kronSite(ops.Raise, mat.Raising))
		hppmm.Add(1, kronSite(ops.Lower, mat.Lowering))

		hpmz.Add(1, kronSite(ops.Z, mat.Raising))
		hpmz.Add(1, kronSite(ops.Z, mat.Lowering))
		hpmz.Add(1, kronSite(ops.Raise, mat.SpinZ))
		hpmz.Add(1, kronSite(ops.Lower, mat.SpinZ))
	}

	h := mat.COOZeros(hpm.Rows(), hpm.Cols())
	for _, t := range []struct {
		j   float64
		mat *mat.COO
	}{{c.JPM, hpm}, {c.JZ, hz}, {c.JPPMM, hppmm}, {c.JPMZ, hpmz}} {
		if t.j == 0 {
			continue
		}
		h.Add(complex(t.j, 0), t.mat)
	}
	return h, nil
}

// kronSite is the Kronecker product of a block operator with a bare site
// operator, leaving the block operator untouched.
func kronSite(block *mat.COO, op [][]complex128) *mat.COO {
	t := mat.COOZeros(block.Rows(), block.Cols())
	t.Add(1, block)
	t.Kron(mat.M(op))
	return t
}
