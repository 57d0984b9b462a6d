package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"trilattice"
	"trilattice/mat"
)

const (
	fnameEigen = "eig.csv"
	fnameDone  = "done.txt"
)

var (
	nx     = flag.Int("nx", 4, "number of sites along the x direction")
	ny     = flag.Int("ny", 3, "number of sites along the y direction")
	jpm    = flag.Float64("jpm", 1, "nearest neighbor exchange coupling")
	jz     = flag.Float64("jz", 1, "nearest neighbor Ising coupling")
	jppmm  = flag.Float64("jppmm", 0, "nearest neighbor double flip coupling")
	jpmz   = flag.Float64("jpmz", 0, "nearest neighbor flip-z coupling")
	j2     = flag.Float64("j2", 0, "second neighbor coupling")
	j3     = flag.Float64("j3", 0, "third neighbor coupling")
	runDir = flag.String("d", filepath.Join("runs", "trilattice"), "run directory")
)

type result struct {
	kx, ky int
	size   int
	e0     float64
}

func solve(dir string, m *trilattice.Model, c trilattice.Couplings, kx, ky int) error {
	donePath := filepath.Join(dir, fnameDone)
	if _, err := os.Stat(donePath); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	sec := m.Sector(kx, ky)
	h, err := m.Hamiltonian(sec, c)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := h.WriteCOO(dir); err != nil {
		return errors.Wrap(err, "")
	}

	vvs := h.EigenHermitian()
	if err := writeEig(dir, vvs); err != nil {
		return errors.Wrap(err, "")
	}

	if err := os.WriteFile(donePath, nil, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func gather(dir string) ([]result, error) {
	results := make([]result, 0)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for _, ent := range entries {
		// Parse for lattice momentum.
		kstr := strings.Split(strings.TrimPrefix(ent.Name(), "k"), "_")
		if len(kstr) != 2 {
			return nil, errors.Errorf("%#v", ent)
		}
		var res result
		if res.kx, err = strconv.Atoi(kstr[0]); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		if res.ky, err = strconv.Atoi(kstr[1]); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}

		vvs, err := readEig(filepath.Join(dir, ent.Name()))
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		res.size = len(vvs)
		if len(vvs) > 0 {
			res.e0 = real(vvs[0].Val)
		}
		results = append(results, res)
	}
	return results, nil
}

func readEig(dir string) ([]mat.ValVec, error) {
	fpath := filepath.Join(dir, fnameEigen)
	f, err := os.Open(fpath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	r := csv.NewReader(f)

	record, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	vvs := make([]mat.ValVec, len(record))
	for j, s := range record {
		v, err := strconv.ParseComplex(s, 128)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		vvs[j].Val = v
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		for j, s := range record {
			v, err := strconv.ParseComplex(s, 128)
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			vvs[j].Vec = append(vvs[j].Vec, v)
		}
	}

	return vvs, nil
}

func writeEig(dir string, vvs []mat.ValVec) error {
	fpath := filepath.Join(dir, fnameEigen)
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	w := csv.NewWriter(f)

	if len(vvs) > 0 {
		row := make([]string, len(vvs))
		for j, vv := range vvs {
			row[j] = strconv.FormatComplex(vv.Val, 'f', -1, 128)
		}
		if err1 := w.Write(row); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
		}
		for i := range len(vvs[0].Vec) {
			for j, vv := range vvs {
				row[j] = strconv.FormatComplex(vv.Vec[i], 'f', -1, 128)
			}
			if err1 := w.Write(row); err1 != nil && err == nil {
				err = errors.Wrap(err1, "")
				break
			}
		}
	}

	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	dir := filepath.Join(*runDir, fmt.Sprintf("%dx%d", *nx, *ny))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	m := trilattice.New(*nx, *ny)
	c := trilattice.Couplings{
		JPM: *jpm, JZ: *jz,
		JPPMM: *jppmm, JPMZ: *jpmz,
		J2: *j2, J3: *j3,
	}

	// Solve for the hamiltonian in every momentum sector.
	for kx := 0; kx < *nx; kx++ {
		for ky := 0; ky < *ny; ky++ {
			kdir := filepath.Join(dir, fmt.Sprintf("k%d_%d", kx, ky))
			if err := solve(kdir, m, c, kx, ky); err != nil {
				return errors.Wrap(err, fmt.Sprintf("%d %d", kx, ky))
			}
			log.Printf("%d %d", kx, ky)
		}
	}

	// Gather results and print them.
	results, err := gather(dir)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("nx,ny,kx,ky,m,e0\n")
	for _, r := range results {
		fmt.Printf("%d,%d,%d,%d,%d,%f\n", *nx, *ny, r.kx, r.ky, r.size, r.e0)
	}
	return nil
}
