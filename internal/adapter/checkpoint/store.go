// Package checkpoint persists per-round reviewer output as file pairs so an
// interrupted debate run can resume where it stopped.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maure-club/strategieclub/internal/domain/debate"
)

// Store writes one document file and one critique file per (round, reviewer)
// cell into a run-scoped directory. Cells are written once and only ever
// replaced whole.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created lazily on
// the first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the run-scoped checkpoint directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) docPath(round int, reviewer string) string {
	return filepath.Join(s.dir, fmt.Sprintf("runde_%d_%s.md", round, strings.ToLower(reviewer)))
}

func (s *Store) critiquePath(round int, reviewer string) string {
	return filepath.Join(s.dir, fmt.Sprintf("runde_%d_%s_kritik.md", round, strings.ToLower(reviewer)))
}

// Save writes the cell for (round, reviewer), replacing any previous pair.
// Each file is written to a temp name and renamed, so a reader never sees a
// half-written cell.
func (s *Store) Save(round int, reviewer, document, critique string) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	if err := writeAtomic(s.docPath(round, reviewer), document); err != nil {
		return fmt.Errorf("save document checkpoint: %w", err)
	}
	if err := writeAtomic(s.critiquePath(round, reviewer), critique); err != nil {
		return fmt.Errorf("save critique checkpoint: %w", err)
	}
	return nil
}

// ResumeScan walks rounds 1..maxRounds in fixed reviewer order and
// accumulates state over the contiguous prefix of completed cells. It
// returns the round and step index at which to resume, the last completed
// document, and the reconstructed critique log. A gap stops the scan; cells
// after a gap are never considered. When every cell exists, the returned
// round is maxRounds+1 (run already complete).
func (s *Store) ResumeScan(maxRounds int) (round, step int, document string, log *debate.Log, err error) {
	log = &debate.Log{}
	document = ""

	for r := 1; r <= maxRounds; r++ {
		for i, reviewer := range debate.ReviewerOrder {
			doc, critique, ok, rerr := s.readCell(r, reviewer)
			if rerr != nil {
				return 0, 0, "", nil, rerr
			}
			if !ok {
				return r, i, document, log, nil
			}
			document = doc
			log.Append(r, reviewer, critique)
		}
	}

	return maxRounds + 1, 0, document, log, nil
}

// readCell loads a cell's pair; ok is false when either file is missing.
func (s *Store) readCell(round int, reviewer string) (document, critique string, ok bool, err error) {
	doc, err := os.ReadFile(s.docPath(round, reviewer))
	if errors.Is(err, os.ErrNotExist) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("read document checkpoint: %w", err)
	}

	crit, err := os.ReadFile(s.critiquePath(round, reviewer))
	if errors.Is(err, os.ErrNotExist) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("read critique checkpoint: %w", err)
	}

	return string(doc), string(crit), true, nil
}

func writeAtomic(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o640); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
