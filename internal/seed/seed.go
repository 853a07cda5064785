// Package seed loads demo branches and performance records into a store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/branch-risk/internal/model"
)

//go:embed demo.yaml
var demoYAML []byte

// Dataset is a set of branches with their records.
type Dataset struct {
	Branches []BranchSeed `yaml:"branches"`
}

// BranchSeed is a branch plus the records to create for it. Record
// branch ids are assigned when the branch is created.
type BranchSeed struct {
	model.Branch `yaml:",inline"`
	Records      []model.PerformanceRecord `yaml:"records"`
}

// Writer is the subset of store.Store needed to seed.
type Writer interface {
	ListBranches(ctx context.Context) ([]model.Branch, error)
	CreateBranch(ctx context.Context, b model.Branch) (*model.Branch, error)
	ImportRecords(ctx context.Context, records []model.PerformanceRecord) (int, error)
}

// Result summarizes an Apply run.
type Result struct {
	BranchesCreated int `json:"branches_created"`
	BranchesSkipped int `json:"branches_skipped"`
	RecordsCreated  int `json:"records_created"`
}

// Demo returns the built-in demo dataset.
func Demo() (*Dataset, error) {
	return Parse(demoYAML)
}

// Load reads a dataset from a YAML file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML dataset.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, eris.Wrap(err, "seed: parse dataset")
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks every branch and record, reporting all problems at once.
func (d *Dataset) Validate() error {
	if len(d.Branches) == 0 {
		return eris.New("seed: dataset has no branches")
	}

	var errs []string
	for i, bs := range d.Branches {
		if err := model.Validate(bs.Branch); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", branchLabel(i, bs), err))
		}
		for j, rec := range bs.Records {
			// Branch ids are not known until the branch exists.
			rec.BranchID = "pending"
			if err := model.Validate(rec); err != nil {
				errs = append(errs, fmt.Sprintf("%s record %d: %v", branchLabel(i, bs), j+1, err))
			}
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("seed: invalid dataset:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// RecordCount returns the total number of records in the dataset.
func (d *Dataset) RecordCount() int {
	var n int
	for _, bs := range d.Branches {
		n += len(bs.Records)
	}
	return n
}

// Apply creates every branch in ds that does not already exist (matched by
// name, case-insensitive) and imports its records. Existing branches and
// their records are left untouched, so Apply can be rerun safely.
func Apply(ctx context.Context, w Writer, ds *Dataset) (*Result, error) {
	existing, err := w.ListBranches(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "seed: list branches")
	}
	seen := make(map[string]bool, len(existing))
	for _, b := range existing {
		seen[nameKey(b.Name)] = true
	}

	res := &Result{}
	for _, bs := range ds.Branches {
		if seen[nameKey(bs.Name)] {
			zap.L().Info("seed: branch exists, skipping", zap.String("name", bs.Name))
			res.BranchesSkipped++
			continue
		}

		b := bs.Branch
		b.ID = ""
		created, err := w.CreateBranch(ctx, b)
		if err != nil {
			return res, eris.Wrapf(err, "seed: create branch %q", bs.Name)
		}
		seen[nameKey(bs.Name)] = true
		res.BranchesCreated++

		records := make([]model.PerformanceRecord, len(bs.Records))
		for i, rec := range bs.Records {
			rec.ID = ""
			rec.BranchID = created.ID
			records[i] = rec
		}
		n, err := w.ImportRecords(ctx, records)
		if err != nil {
			return res, eris.Wrapf(err, "seed: import records for %q", bs.Name)
		}
		res.RecordsCreated += n

		zap.L().Info("seed: branch created",
			zap.String("branch_id", created.ID),
			zap.String("name", created.Name),
			zap.Int("records", n),
		)
	}
	return res, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func branchLabel(i int, bs BranchSeed) string {
	if bs.Name != "" {
		return fmt.Sprintf("branch %q", bs.Name)
	}
	return fmt.Sprintf("branch #%d", i+1)
}
