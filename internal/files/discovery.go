package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"compendcli/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Fragment is one numbered high-speed-data file of a test run
type Fragment struct {
	FileInfo
	Seq int
}

// TestRun groups one base test file with its ordered high-speed
// fragments (<name>.TSV, <name>-h001.TSV, <name>-h002.TSV, ...).
type TestRun struct {
	Name      string
	Base      FileInfo
	Fragments []Fragment
}

// HasFragments reports whether the run recorded any high speed data
func (r TestRun) HasFragments() bool {
	return len(r.Fragments) > 0
}

// fragmentRe matches the numeric suffix of a high-speed fragment name,
// e.g. "test-h001" for base name "test".
var fragmentRe = regexp.MustCompile(`-h(\d+)$`)

// FindTestRun locates the base file for basePath and its fragment
// family. The base file is checked first: if it is absent the error is a
// missing-file error and no fragment discovery is attempted. Fragment
// numbering must be contiguous from 1; a gap is a structural error.
func FindTestRun(basePath string) (*TestRun, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, errors.NewMissingFileError(basePath, err)
	}

	dir := filepath.Dir(basePath)
	baseName := filepath.Base(basePath)
	ext := filepath.Ext(baseName)
	stem := strings.TrimSuffix(baseName, ext)

	run := &TestRun{
		Name: stem,
		Base: FileInfo{
			Path:    basePath,
			Name:    baseName,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		},
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("reading directory %s", dir), err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		entryExt := filepath.Ext(name)
		if !strings.EqualFold(entryExt, ext) {
			continue
		}
		entryStem := strings.TrimSuffix(name, entryExt)
		m := fragmentRe.FindStringSubmatch(entryStem)
		if m == nil || strings.TrimSuffix(entryStem, m[0]) != stem {
			continue
		}
		seq, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		run.Fragments = append(run.Fragments, Fragment{
			FileInfo: FileInfo{
				Path:    filepath.Join(dir, name),
				Name:    name,
				Size:    fi.Size(),
				ModTime: fi.ModTime(),
			},
			Seq: seq,
		})
	}

	sort.Slice(run.Fragments, func(i, j int) bool {
		return run.Fragments[i].Seq < run.Fragments[j].Seq
	})

	for i, frag := range run.Fragments {
		if frag.Seq != i+1 {
			return nil, errors.NewFragmentGapError(stem, i+1, frag.Seq)
		}
	}

	return run, nil
}

// FindTestRuns discovers every test run in a directory: each TSV file
// that is not itself a fragment becomes one run.
func FindTestRuns(dir string) ([]*TestRun, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("reading directory %s", dir), err)
	}

	var runs []*TestRun
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".tsv") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if fragmentRe.MatchString(stem) {
			continue
		}
		run, err := FindTestRun(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Name < runs[j].Name })
	return runs, nil
}
