// Package mat provides sparse matrices in coordinate format.
package mat

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	FnameShape = "shape.csv"
	FnameCOO   = "coo.csv"
)

var (
	PauliX = [][]complex128{
		{0, 1},
		{1, 0},
	}
	PauliY = [][]complex128{
		{0, -1i},
		{1i, 0},
	}
	PauliZ = [][]complex128{
		{1, 0},
		{0, -1},
	}

	// Spin-1/2 ladder and z operators.
	Raising = [][]complex128{
		{0, 1},
		{0, 0},
	}
	Lowering = [][]complex128{
		{0, 0},
		{1, 0},
	}
	SpinZ = [][]complex128{
		{0.5, 0},
		{0, -0.5},
	}
)

type Matrix interface {
	Zeros(int, int)
	Scalar(complex128)
	Rows() int
	Cols() int

	Add(complex128, Matrix)
	Kron(*COO)
	COO() *COO

	WriteCOO(string) error
}

type vRowCol struct {
	v   complex128
	row int
	col int
}

type COO struct {
	rows int
	cols int
	Data []vRowCol

	m map[[2]int]complex128
}

func M(dense [][]complex128) *COO {
	m := &COO{rows: len(dense), cols: len(dense[0]), Data: make([]vRowCol, 0), m: make(map[[2]int]complex128)}
	for i, row := range dense {
		for j, v := range row {
			if v == 0 {
				continue
			}
			m.Data = append(m.Data, vRowCol{v: v, row: i, col: j})
		}
	}
	return m
}

func COOZeros(rows, cols int) *COO {
	m := M([][]complex128{{0}})
	m.Zeros(rows, cols)
	return m
}

func COOIdentity(rows int) *COO {
	m := M([][]complex128{{0}})
	m.Zeros(rows, rows)
	for i := 0; i < rows; i++ {
		m.Data = append(m.Data, vRowCol{v: 1, row: i, col: i})
	}
	return m
}

func (m *COO) Rows() int { return m.rows }
func (m *COO) Cols() int { return m.cols }

func (m *COO) Zeros(rows, cols int) {
	m.rows, m.cols = rows, cols
	m.Data = m.Data[:0]
}

func (m *COO) Scalar(v complex128) {
	m.rows, m.cols = 1, 1
	m.Data = m.Data[:0]
	m.Data = append(m.Data, vRowCol{v: v, row: 0, col: 0})
}

// Set sets the i, j-th entry to v.
// Entries must be set in row major order.
func (m *COO) Set(i, j int, v complex128) {
	if v == 0 {
		return
	}
	m.Data = append(m.Data, vRowCol{v: v, row: i, col: j})
}

func (m *COO) At(i, j int) complex128 {
	clear(m.m)
	for _, v := range m.Data {
		m.m[[2]int{v.row, v.col}] = v.v
	}
	v := m.m[[2]int{i, j}]
	clear(m.m)
	return v
}

func (a *COO) Equal(b *COO) bool {
	if a.rows != b.rows {
		return false
	}
	if a.cols != b.cols {
		return false
	}
	if len(a.Data) != len(b.Data) {
		return false
	}
	for i, av := range a.Data {
		bv := b.Data[i]
		if av != bv {
			return false
		}
	}
	return true
}

// EqualApprox is like Equal but tolerates differences up to tol per entry.
func (a *COO) EqualApprox(b *COO, tol float64) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	clear(a.m)
	for _, v := range a.Data {
		a.m[[2]int{v.row, v.col}] += v.v
	}
	for _, v := range b.Data {
		a.m[[2]int{v.row, v.col}] -= v.v
	}
	ok := true
	for _, d := range a.m {
		if math.Hypot(real(d), imag(d)) > tol {
			ok = false
			break
		}
	}
	clear(a.m)
	return ok
}

func (m *COO) Slice(yBoundN, xBoundN [2]int) *COO {
	yBound, xBound := yBoundN, xBoundN
	for i := 0; i < 2; i++ {
		if yBound[i] < 0 {
			yBound[i] += m.rows
		}
		if xBound[i] < 0 {
			xBound[i] += m.cols
		}
	}

	s := &COO{rows: yBound[1] - yBound[0], cols: xBound[1] - xBound[0], Data: make([]vRowCol, 0)}
	for _, v := range m.Data {
		if v.row < yBound[0] {
			continue
		}
		if v.row >= yBound[1] {
			break
		}
		if v.col < xBound[0] || v.col >= xBound[1] {
			continue
		}
		s.Data = append(s.Data, vRowCol{v: v.v, row: v.row - yBound[0], col: v.col - xBound[0]})
	}
	return s
}

func (a *COO) Add(c complex128, bMatrix Matrix) {
	b := bMatrix.COO()
	clear(b.m)
	for _, v := range b.Data {
		b.m[[2]int{v.row, v.col}] = v.v
	}

	for i, av := range a.Data {
		var byx [2]int
		switch {
		case b.rows == 1 && b.cols == 1:
		case b.rows == a.rows && b.cols == 1:
			byx[0] = av.row
		case b.rows == a.rows && b.cols == a.cols:
			byx[0], byx[1] = av.row, av.col
		default:
			panic(fmt.Sprintf("wrong dimensions"))
		}
		bv := b.m[byx]
		delete(b.m, byx)

		a.Data[i].v = av.v + c*bv
	}

	a.Data = slices.DeleteFunc(a.Data, func(v vRowCol) bool {
		return v.v == 0
	})
	for yx, bv := range b.m {
		a.Data = append(a.Data, vRowCol{v: c * bv, row: yx[0], col: yx[1]})
	}
	slices.SortFunc(a.Data, rowMajor)
	clear(b.m)
}

func (a *COO) Mul(b *COO) {
	clear(b.m)
	for _, v := range b.Data {
		b.m[[2]int{v.row, v.col}] = v.v
	}

	for i, av := range a.Data {
		var byx [2]int
		switch {
		case b.rows == 1 && b.cols == 1:
		case b.rows == a.rows && b.cols == 1:
			byx[0] = av.row
		case b.rows == a.rows && b.cols == a.cols:
			byx[0], byx[1] = av.row, av.col
		default:
			panic(fmt.Sprintf("wrong dimensions"))
		}
		bv := b.m[byx]

		a.Data[i].v = av.v * bv
	}

	a.Data = slices.DeleteFunc(a.Data, func(v vRowCol) bool {
		return v.v == 0
	})
	clear(b.m)
}

// Dot sets a to the matrix product of a and b.
func (a *COO) Dot(b *COO) {
	if a.cols != b.rows {
		panic(fmt.Sprintf("wrong dimensions %d %d", a.cols, b.rows))
	}
	clear(a.m)
	for _, av := range a.Data {
		for _, bv := range b.Data {
			if av.col != bv.row {
				continue
			}
			a.m[[2]int{av.row, bv.col}] += av.v * bv.v
		}
	}

	a.cols = b.cols
	a.Data = a.Data[:0]
	for yx, v := range a.m {
		if v == 0 {
			continue
		}
		a.Data = append(a.Data, vRowCol{v: v, row: yx[0], col: yx[1]})
	}
	slices.SortFunc(a.Data, rowMajor)
	clear(a.m)
}

func (a *COO) Kron(b *COO) {
	rows := a.rows * b.rows
	cols := a.cols * b.cols
	a.rows, a.cols = rows, cols

	prevElemNum := len(a.Data)
	for i := prevElemNum - 1; i >= 0; i-- {
		av := a.Data[i]
		a.Data[i].v = 0
		for _, bv := range b.Data {
			ky := av.row*b.rows + bv.row
			kx := av.col*b.cols + bv.col
			a.Data = append(a.Data, vRowCol{v: av.v * bv.v, row: ky, col: kx})
		}
	}

	a.Data = slices.DeleteFunc(a.Data, func(v vRowCol) bool {
		return v.v == 0
	})
	slices.SortFunc(a.Data, rowMajor)
}

// H returns the conjugate transpose of m.
func (m *COO) H() *COO {
	h := &COO{rows: m.cols, cols: m.rows, Data: make([]vRowCol, 0, len(m.Data)), m: make(map[[2]int]complex128)}
	for _, v := range m.Data {
		h.Data = append(h.Data, vRowCol{v: complex(real(v.v), -imag(v.v)), row: v.col, col: v.row})
	}
	slices.SortFunc(h.Data, rowMajor)
	return h
}

func (m *COO) COO() *COO {
	return m
}

func (m *COO) Dense() [][]complex128 {
	dense := make([][]complex128, m.rows)
	for i := range dense {
		dense[i] = make([]complex128, m.cols)
	}

	for _, v := range m.Data {
		dense[v.row][v.col] = v.v
	}

	return dense
}

func (m *COO) WriteCOO(dir string) error {
	shapePath := filepath.Join(dir, FnameShape)
	if err := os.WriteFile(shapePath, []byte(fmt.Sprintf("%d,%d", m.rows, m.cols)), 0644); err != nil {
		return errors.Wrap(err, "")
	}

	cooPath := filepath.Join(dir, FnameCOO)
	cooF, err := os.Create(cooPath)
	if err != nil {
		return errors.Wrap(err, "")
	}

	w := csv.NewWriter(cooF)
	for _, v := range m.Data {
		if err1 := w.Write([]string{FormatNumpy(v.v), strconv.Itoa(v.row), strconv.Itoa(v.col)}); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}
	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}

	if err1 := cooF.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

type COOReader struct {
	f *os.File
	r *csv.Reader
	i int

	prev vRowCol
}

func NewCOOReader(dir string) (*COOReader, error) {
	r := &COOReader{i: -1}

	cooPath := filepath.Join(dir, FnameCOO)
	var err error
	r.f, err = os.Open(cooPath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	r.r = csv.NewReader(r.f)
	return r, nil
}

func (r *COOReader) Close() error {
	return r.f.Close()
}

func (r *COOReader) Read() (vRowCol, error) {
	r.i++
	record, err := r.r.Read()
	if err == io.EOF {
		return vRowCol{}, io.EOF
	}
	if err != nil {
		return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d", r.i))
	}
	if len(record) != 3 {
		return vRowCol{}, errors.Errorf("%d %#v", r.i, record)
	}

	var vrc vRowCol
	switch {
	case record[0] == "":
		vrc.v = r.prev.v
	default:
		s := strings.ReplaceAll(record[0], "j", "i")
		v, err := strconv.ParseComplex(s, 128)
		if err != nil {
			return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
		vrc.v = v
	}

	switch {
	case record[1] == "":
		vrc.row = r.prev.row
	default:
		vrc.row, err = strconv.Atoi(record[1])
		if err != nil {
			return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}

	vrc.col, err = strconv.Atoi(record[2])
	if err != nil {
		return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
	}

	r.prev = vrc
	return vrc, nil
}

func ReadCOO(dir string) (*COO, error) {
	m := M([][]complex128{{0}})
	m.Data = m.Data[:0]
	var err error
	m.rows, m.cols, err = readShape(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	r, err := NewCOOReader(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer r.Close()
	for {
		v, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		m.Data = append(m.Data, v)
	}

	return m, nil
}

func readShape(dir string) (int, int, error) {
	f, err := os.Open(filepath.Join(dir, FnameShape))
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	if len(records) == 0 {
		return -1, -1, errors.Errorf("empty")
	}
	row := records[0]

	if len(row) != 2 {
		return -1, -1, errors.Errorf("%#v", row)
	}
	i, err := strconv.Atoi(row[0])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}
	j, err := strconv.Atoi(row[1])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}

	return i, j, nil
}

func (m *COO) String() string {
	clear(m.m)
	for _, v := range m.Data {
		m.m[[2]int{v.row, v.col}] = v.v
	}

	lines := []string{}
	for i := 0; i < m.rows; i++ {
		cs := []string{}
		for j := 0; j < m.cols; j++ {
			v := m.m[[2]int{i, j}]
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		l := strings.Join(cs, "\t")
		lines = append(lines, l)
	}

	clear(m.m)
	return strings.Join(lines, "\n")
}

type ValVec struct {
	Val complex128
	Vec []complex128
}

// Eigen computes the eigendecomposition of a real matrix.
func (m *COO) Eigen() []ValVec {
	gnm := mat.NewDense(m.rows, m.cols, nil)
	gnm.Zero()
	for _, v := range m.Data {
		if imag(v.v) != 0 {
			panic("not real")
		}
		gnm.Set(v.row, v.col, real(v.v))
	}

	var eig mat.Eigen
	ok := eig.Factorize(gnm, mat.EigenRight)
	if !ok {
		panic("eig.Factorize failed")
	}
	vals := eig.Values(nil)
	vecs := mat.NewCDense(m.rows, m.cols, nil)
	eig.VectorsTo(vecs)

	vecsR, _ := vecs.Caps()
	vvs := make([]ValVec, 0, len(vals))
	for i, v := range vals {
		vec := make([]complex128, 0, vecsR)
		for j := 0; j < vecsR; j++ {
			vec = append(vec, vecs.At(j, i))
		}
		vvs = append(vvs, ValVec{Val: v, Vec: vec})
	}
	slices.SortFunc(vvs, func(a, b ValVec) int { return cmp.Compare(real(a.Val), real(b.Val)) })

	return vvs
}

// EigenHermitian computes the eigendecomposition of a complex hermitian matrix.
// The hermitian matrix A + iB is embedded in the real symmetric matrix
// [[A, -B], [B, A]] whose spectrum is that of A + iB doubled,
// with eigenvectors (x, y) mapping back to x + iy.
func (m *COO) EigenHermitian() []ValVec {
	if m.rows != m.cols {
		panic(fmt.Sprintf("not square %d %d", m.rows, m.cols))
	}
	n := m.rows
	sym := mat.NewSymDense(2*n, nil)
	for _, v := range m.Data {
		sym.SetSym(v.row, v.col, real(v.v))
		sym.SetSym(n+v.row, n+v.col, real(v.v))
		sym.SetSym(v.row, n+v.col, -imag(v.v))
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		panic("eig.Factorize failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come in pairs, keep one per pair.
	vvs := make([]ValVec, 0, n)
	for i := 0; i < 2*n; i += 2 {
		vec := make([]complex128, 0, n)
		var norm float64
		for j := 0; j < n; j++ {
			v := complex(vecs.At(j, i), vecs.At(n+j, i))
			norm += real(v)*real(v) + imag(v)*imag(v)
			vec = append(vec, v)
		}
		norm = math.Sqrt(norm)
		for j := range vec {
			vec[j] /= complex(norm, 0)
		}
		vvs = append(vvs, ValVec{Val: complex(vals[i], 0), Vec: vec})
	}

	return vvs
}

func rowMajor(a, b vRowCol) int {
	if c := cmp.Compare(a.row, b.row); c != 0 {
		return c
	}
	return cmp.Compare(a.col, b.col)
}

func format(v float64) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%v", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}

func FormatNumpy(v complex128) string {
	switch {
	case imag(v) == 0:
		return strconv.FormatFloat(real(v), 'g', -1, 64)
	default:
		s := fmt.Sprintf("%v", v)
		s = strings.ReplaceAll(s, "i", "j")
		return s
	}
}
