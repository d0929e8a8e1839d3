package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"financial_dashboard/pkg/core/valuation"
	"financial_dashboard/pkg/models"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a symbol.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the last computed result of one symbol.
type Snapshot struct {
	Symbol     string            `json:"symbol"`
	SourceFile string            `json:"source_file"`
	Result     models.RecordSet  `json:"result"`
	Valuation  *valuation.Result `json:"valuation,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// SnapshotRepo stores snapshots in Postgres when a pool is configured and
// otherwise as <dir>/<SYMBOL>.json.
type SnapshotRepo struct {
	db  DB
	dir string
	now func() time.Time
}

// NewSnapshotRepo creates a repository. db may be nil; dir may be empty
// when db is set.
func NewSnapshotRepo(db DB, dir string) *SnapshotRepo {
	return &SnapshotRepo{db: db, dir: dir, now: time.Now}
}

// Save upserts the snapshot keyed by symbol.
func (r *SnapshotRepo) Save(ctx context.Context, s *Snapshot) error {
	if s == nil || s.Symbol == "" {
		return fmt.Errorf("snapshot requires a symbol")
	}
	s.Symbol = strings.ToUpper(s.Symbol)
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = r.now().UTC()
	}

	if r.db != nil {
		resultJSON, err := json.Marshal(s.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		var valuationJSON []byte
		if s.Valuation != nil {
			if valuationJSON, err = json.Marshal(s.Valuation); err != nil {
				return fmt.Errorf("failed to marshal valuation: %w", err)
			}
		}
		_, err = r.db.Exec(ctx, `
			INSERT INTO financial_snapshots (symbol, source_file, result_json, valuation_json, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (symbol)
			DO UPDATE SET
				source_file = EXCLUDED.source_file,
				result_json = EXCLUDED.result_json,
				valuation_json = EXCLUDED.valuation_json,
				updated_at = EXCLUDED.updated_at`,
			s.Symbol, s.SourceFile, resultJSON, valuationJSON, s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		return nil
	}

	if r.dir == "" {
		return fmt.Errorf("snapshot repo has neither database nor directory")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return writeAtomic(r.path(s.Symbol), data)
}

// Load returns the stored snapshot for symbol.
func (r *SnapshotRepo) Load(ctx context.Context, symbol string) (*Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if r.db != nil {
		var (
			s             = Snapshot{Symbol: symbol}
			resultJSON    []byte
			valuationJSON []byte
		)
		err := r.db.QueryRow(ctx,
			`SELECT source_file, result_json, valuation_json, updated_at FROM financial_snapshots WHERE symbol = $1`,
			symbol,
		).Scan(&s.SourceFile, &resultJSON, &valuationJSON, &s.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, symbol)
			}
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
		if err := json.Unmarshal(resultJSON, &s.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		if len(valuationJSON) > 0 {
			s.Valuation = &valuation.Result{}
			if err := json.Unmarshal(valuationJSON, s.Valuation); err != nil {
				return nil, fmt.Errorf("failed to unmarshal valuation: %w", err)
			}
		}
		return &s, nil
	}

	data, err := os.ReadFile(r.path(symbol))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, symbol)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &s, nil
}

func (r *SnapshotRepo) path(symbol string) string {
	return filepath.Join(r.dir, symbol+".json")
}

// writeAtomic writes data through a temp file in the target directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
