package document

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/flemzord/tgapi/pkg/botapi"
)

// extensions are the file types CheckDir picks up.
var extensions = []string{".yaml", ".yml", ".json"}

// Failure is one document that could not be built.
type Failure struct {
	Source string
	Err    error
}

// CheckResult summarizes a check over one or more files.
type CheckResult struct {
	Files    int
	Valid    int
	// Passed lists the files whose documents all built, in check order.
	Passed   []string
	Failures []Failure
}

// Invalid returns the number of failed documents.
func (r CheckResult) Invalid() int { return len(r.Failures) }

// OK reports whether every document was built.
func (r CheckResult) OK() bool { return len(r.Failures) == 0 }

func (r *CheckResult) merge(other CheckResult) {
	r.Files += other.Files
	r.Valid += other.Valid
	r.Passed = append(r.Passed, other.Passed...)
	r.Failures = append(r.Failures, other.Failures...)
}

// CheckFile loads every document in path, builds and encodes it. A file
// that cannot be read or parsed counts as one failure.
func CheckFile(path string, defaults Defaults) CheckResult {
	res := CheckResult{Files: 1}
	docs, err := LoadAll(path)
	if err != nil {
		res.Failures = append(res.Failures, Failure{Source: path, Err: err})
		return res
	}
	for _, doc := range docs {
		if err := check(doc, defaults); err != nil {
			res.Failures = append(res.Failures, Failure{Source: doc.Source, Err: err})
			continue
		}
		res.Valid++
	}
	if res.OK() {
		res.Passed = []string{path}
	}
	return res
}

func check(doc Document, defaults Defaults) error {
	p, err := Build(doc, defaults)
	if err != nil {
		return err
	}
	if _, err := botapi.Marshal(p); err != nil {
		return fmt.Errorf("%s: %w", doc.Source, err)
	}
	return nil
}

// CheckDir runs CheckFile on every .yaml, .yml and .json file below dir.
// The walk stops early when ctx is cancelled.
func CheckDir(ctx context.Context, dir string, defaults Defaults) (CheckResult, error) {
	var res CheckResult
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		res.merge(CheckFile(path, defaults))
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("document: checking %s: %w", dir, err)
	}
	return res, nil
}
