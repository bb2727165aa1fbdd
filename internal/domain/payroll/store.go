package payroll

import (
	"sort"
	"time"

	"hrms/internal/platform/filedb"
	"hrms/internal/platform/ident"
)

type Store struct {
	col *filedb.Collection[Payroll]
}

func NewStore(db *filedb.Store) *Store {
	return &Store{col: filedb.NewCollection[Payroll](db, Collection)}
}

func (s *Store) FindByUser(userID string) (Payroll, error) {
	p, ok, err := s.col.FindOne(func(p Payroll) bool { return p.UserID == userID })
	if err != nil {
		return Payroll{}, err
	}
	if !ok {
		return Payroll{}, ErrNotFound
	}
	return p, nil
}

// List returns all payrolls sorted by updatedAt descending.
func (s *Store) List() ([]Payroll, error) {
	payrolls, err := s.col.All()
	if err != nil {
		return nil, err
	}
	sort.Slice(payrolls, func(i, j int) bool {
		return payrolls[i].UpdatedAt.After(payrolls[j].UpdatedAt)
	})
	return payrolls, nil
}

// EnsureForUser returns the user's payroll, lazily creating a zero-value
// record on first read. Lookup and insert share one critical section.
func (s *Store) EnsureForUser(userID string) (Payroll, error) {
	var out Payroll
	err := s.col.Mutate(func(records []Payroll) ([]Payroll, error) {
		for _, p := range records {
			if p.UserID == userID {
				out = p
				return records, nil
			}
		}
		out = Payroll{
			ID:        ident.New(),
			UserID:    userID,
			UpdatedAt: time.Now().UTC(),
		}
		return append(records, out), nil
	})
	if err != nil {
		return Payroll{}, err
	}
	return out, nil
}

// UpsertForUser replaces the salary components for the user, creating the
// record if absent. NetSalary is recomputed here and nowhere else.
func (s *Store) UpsertForUser(userID string, base, allowances, deductions float64) (Payroll, error) {
	var out Payroll
	now := time.Now().UTC()
	err := s.col.Mutate(func(records []Payroll) ([]Payroll, error) {
		for i := range records {
			if records[i].UserID != userID {
				continue
			}
			records[i].BaseSalary = base
			records[i].Allowances = allowances
			records[i].Deductions = deductions
			records[i].NetSalary = netSalary(base, allowances, deductions)
			records[i].UpdatedAt = now
			out = records[i]
			return records, nil
		}
		out = Payroll{
			ID:         ident.New(),
			UserID:     userID,
			BaseSalary: base,
			Allowances: allowances,
			Deductions: deductions,
			NetSalary:  netSalary(base, allowances, deductions),
			UpdatedAt:  now,
		}
		return append(records, out), nil
	})
	if err != nil {
		return Payroll{}, err
	}
	return out, nil
}
