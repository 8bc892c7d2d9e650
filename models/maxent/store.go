package maxent

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
	"golang.org/x/exp/mmap"
	"k8s.io/klog/v2"
)

// DefaultDirCreationPerm is used when creating the directory of a model file.
var DefaultDirCreationPerm = os.FileMode(0755)

// paramRow is one row of the model file.
//
// Rows with an empty Predicate come first and list the outcomes in the order of Model.Outcomes.
type paramRow struct {
	Predicate string  `parquet:"predicate,dict"`
	Outcome   string  `parquet:"outcome,dict"`
	Weight    float64 `parquet:"weight"`
}

func (m *Model) rows() []paramRow {
	rows := make([]paramRow, 0, len(m.outcomes)+len(m.params))
	for _, outcome := range m.outcomes {
		rows = append(rows, paramRow{Outcome: outcome})
	}
	names := make([]string, len(m.params))
	for predicate, pid := range m.predicates {
		names[pid] = predicate
	}
	for pid, p := range m.params {
		for ii, oid := range p.outcomes {
			rows = append(rows, paramRow{Predicate: names[pid], Outcome: m.outcomes[oid], Weight: p.weights[ii]})
		}
	}
	return rows
}

func fromRows(rows []paramRow) (*Model, error) {
	m := &Model{predicates: make(map[string]int)}
	outcomeIndex := make(map[string]int)
	for ii, row := range rows {
		if row.Predicate == "" {
			if len(m.params) > 0 {
				return nil, errors.Errorf("maxent: outcome row #%d %q after the parameter rows", ii, row.Outcome)
			}
			outcomeIndex[row.Outcome] = len(m.outcomes)
			m.outcomes = append(m.outcomes, row.Outcome)
			continue
		}
		oid, found := outcomeIndex[row.Outcome]
		if !found {
			return nil, errors.Errorf("maxent: row #%d has undeclared outcome %q", ii, row.Outcome)
		}
		pid, found := m.predicates[row.Predicate]
		if !found {
			pid = len(m.params)
			m.predicates[row.Predicate] = pid
			m.params = append(m.params, parameters{})
		}
		m.params[pid].outcomes = append(m.params[pid].outcomes, oid)
		m.params[pid].weights = append(m.params[pid].weights, row.Weight)
	}
	if len(m.outcomes) == 0 {
		return nil, errors.New("maxent: model has no outcomes")
	}
	return m, nil
}

// Save writes the model to filePath as a Parquet file, and sets the model's Digest.
//
// It writes to a temporary file in the same directory and then atomically moves it to filePath,
// holding filePath+".lock" to coordinate with other processes saving the same model.
func (m *Model) Save(ctx context.Context, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for model %q", filePath)
	}

	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(ctx, lockPath, func() {
		var tmpFileClosed, renamed bool
		tmpFile, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".*.tmp")
		if err != nil {
			mainErr = errors.Wrapf(err, "creating temporary file for %q", filePath)
			return
		}
		tmpPath := tmpFile.Name()
		defer func() {
			// Remove unfinished temporary file on errors.
			if !tmpFileClosed {
				if err := tmpFile.Close(); err != nil {
					klog.Warningf("Failed closing temporary file %q: %v", tmpPath, err)
				}
			}
			if !renamed {
				if err := os.Remove(tmpPath); err != nil {
					klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
				}
			}
		}()

		hasher := blake3.New()
		if err := parquet.Write(io.MultiWriter(tmpFile, hasher), m.rows()); err != nil {
			mainErr = errors.Wrapf(err, "writing model to %q", tmpPath)
			return
		}
		err = tmpFile.Close()
		tmpFileClosed = true
		if err != nil {
			mainErr = errors.Wrapf(err, "failed to close temporary model file %q", tmpPath)
			return
		}
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move model file %q to %q", tmpPath, filePath)
			return
		}
		renamed = true
		m.digest = hex.EncodeToString(hasher.Sum(nil))

		if err := os.Remove(lockPath); err != nil {
			klog.Warningf("Error removing lock file %q: %+v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to save model", lockPath)
	}
	klog.V(1).Infof("maxent: saved model to %q (blake3 %s)", filePath, m.digest)
	return nil
}

// Load reads a model saved with Model.Save. The file is memory-mapped while it's read.
func Load(filePath string) (*Model, error) {
	reader, err := mmap.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to mmap model %q", filePath)
	}
	defer func() { _ = reader.Close() }()

	size := int64(reader.Len())
	rows, err := parquet.Read[paramRow](reader, size)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model %q", filePath)
	}
	model, err := fromRows(rows)
	if err != nil {
		return nil, errors.WithMessagef(err, "in model file %q", filePath)
	}

	hasher := blake3.New()
	if _, err := io.Copy(hasher, io.NewSectionReader(reader, 0, size)); err != nil {
		return nil, errors.Wrapf(err, "failed to hash model %q", filePath)
	}
	model.digest = hex.EncodeToString(hasher.Sum(nil))
	return model, nil
}
