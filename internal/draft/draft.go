// Package draft persists the calculator inputs between sessions so a user
// can come back to a half-filled form.
package draft

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"breakeven/internal/core"
)

// Key names the single draft slot.
const Key = "beauticianCalculator"

// DefaultWorkDays is the work-days value of an empty form.
const DefaultWorkDays = 5

// Draft is the saved form state.
type Draft struct {
	WorkDays int
	Expenses core.ExpenseMap
	SavedAt  time.Time
}

// Empty returns the state of a fresh form.
func Empty() Draft {
	return Draft{WorkDays: DefaultWorkDays, Expenses: core.NewExpenseMap()}
}

// Result computes the break-even figures for the draft.
func (d Draft) Result() (core.CalculationResult, error) {
	return core.Calculate(d.Expenses, d.WorkDays)
}

// fileDraft is the on-disk shape. Expenses are an array of tables so the
// entry order survives a round trip.
type fileDraft struct {
	WorkDays int           `toml:"work_days"`
	SavedAt  time.Time     `toml:"saved_at"`
	Expenses []fileExpense `toml:"expenses"`
}

type fileExpense struct {
	Category string  `toml:"category"`
	Amount   float64 `toml:"amount"`
}

// Store keeps the draft in <dir>/beauticianCalculator.toml.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir; DefaultDir is used when dir is empty.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{dir: dir, now: time.Now}
}

// DefaultDir returns the XDG-compliant config directory.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "breakeven")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "breakeven")
}

// Path returns the full path to the draft file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, Key+".toml")
}

// Load reads the draft. found is false, with an empty draft, when nothing
// has been saved yet.
func (s *Store) Load() (d Draft, found bool, err error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Empty(), false, nil
		}
		return Empty(), false, fmt.Errorf("reading draft: %w", err)
	}

	var fd fileDraft
	if err := toml.Unmarshal(data, &fd); err != nil {
		return Empty(), false, fmt.Errorf("parsing draft: %w", err)
	}

	d = Draft{WorkDays: fd.WorkDays, Expenses: core.NewExpenseMap(), SavedAt: fd.SavedAt}
	if d.WorkDays == 0 {
		d.WorkDays = DefaultWorkDays
	}
	for _, e := range fd.Expenses {
		d.Expenses = d.Expenses.With(core.Category(e.Category), e.Amount)
	}
	return d, true, nil
}

// Save writes the draft, replacing any previous one.
func (s *Store) Save(d Draft) (Draft, error) {
	if err := core.ValidateWorkDays(d.WorkDays); err != nil {
		return d, err
	}
	if err := d.Expenses.Validate(); err != nil {
		return d, err
	}
	d.SavedAt = s.now().UTC().Truncate(time.Second)

	fd := fileDraft{WorkDays: d.WorkDays, SavedAt: d.SavedAt}
	d.Expenses.Each(func(c core.Category, amount float64) {
		fd.Expenses = append(fd.Expenses, fileExpense{Category: string(c), Amount: amount})
	})

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return d, fmt.Errorf("creating draft dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, Key+".*.tmp")
	if err != nil {
		return d, fmt.Errorf("creating draft file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(fd); err != nil {
		tmp.Close()
		return d, fmt.Errorf("writing draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return d, fmt.Errorf("writing draft: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return d, fmt.Errorf("replacing draft: %w", err)
	}
	return d, nil
}

// Clear removes the draft. Clearing when nothing is saved is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing draft: %w", err)
	}
	return nil
}
