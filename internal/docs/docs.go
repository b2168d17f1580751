// Package docs resolves document bodies under the configured document root
// and scans them for byte keywords.
package docs

import (
	"fmt"
	"io"
	"os"

	"github.com/jcampos-dev/docindex/internal/store"
	pkgerrors "github.com/jcampos-dev/docindex/pkg/errors"
)

// MaxPath bounds a fully resolved document path.
const MaxPath = 512

// scanBufSize is the chunk size of the streaming keyword scan.
const scanBufSize = 8192

// Root is the directory document bodies live under.
type Root struct {
	dir string
}

// NewRoot validates dir and returns a Root. The directory must exist.
func NewRoot(dir string) (*Root, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty document root: %w", pkgerrors.ErrInvalidInput)
	}
	if len(dir) >= MaxPath {
		return nil, fmt.Errorf("document root: %w", pkgerrors.ErrPathTooLong)
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("document root %s: %w", dir, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("document root %s is not a directory: %w", dir, pkgerrors.ErrInvalidInput)
	}
	return &Root{dir: dir}, nil
}

// Dir returns the root directory.
func (r *Root) Dir() string { return r.dir }

// BuildPath joins the root with a record's relative path, rejecting results
// that exceed the path limit.
func (r *Root) BuildPath(doc *store.Document) (string, error) {
	full := r.dir + "/" + doc.Path
	if len(full) >= MaxPath {
		return "", fmt.Errorf("document %d: %w", doc.Key, pkgerrors.ErrPathTooLong)
	}
	return full, nil
}

// CountKeyword streams the file at path and counts the lines containing at
// least one occurrence of kw. Matching is strictly byte-wise. An empty
// keyword matches nothing. A trailing line without a newline still counts
// if it matched. With stopAtFirst the scan short-circuits on the first full
// match and reports 1.
func CountKeyword(path string, kw []byte, stopAtFirst bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening document %s: %w", path, err)
	}
	defer f.Close()

	if len(kw) == 0 {
		return 0, nil
	}

	var (
		count    int
		matchPos int
		lineHit  bool
	)
	buf := make([]byte, scanBufSize)
	for {
		n, err := f.Read(buf)
		for i := 0; i < n; i++ {
			c := buf[i]
			if c == kw[matchPos] {
				matchPos++
				if matchPos == len(kw) {
					lineHit = true
					matchPos = 0
					if stopAtFirst {
						return 1, nil
					}
				}
			} else if c == kw[0] {
				matchPos = 1
			} else {
				matchPos = 0
			}
			if c == '\n' {
				if lineHit {
					count++
				}
				lineHit = false
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading document %s: %w", path, err)
		}
	}
	if lineHit {
		count++
	}
	return count, nil
}

// Contains reports whether the file at path contains kw at least once.
func Contains(path string, kw []byte) (bool, error) {
	n, err := CountKeyword(path, kw, true)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
