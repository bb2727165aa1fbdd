package leave

import (
	"sort"
	"time"

	"hrms/internal/platform/filedb"
	"hrms/internal/platform/ident"
)

type Store struct {
	col *filedb.Collection[Request]
}

func NewStore(db *filedb.Store) *Store {
	return &Store{col: filedb.NewCollection[Request](db, Collection)}
}

func (s *Store) FindByID(id string) (Request, error) {
	req, ok, err := s.col.FindOne(func(r Request) bool { return r.ID == id })
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

type Query struct {
	UserID string
	Status string
}

// List returns matching requests sorted by createdAt descending.
func (s *Store) List(q Query) ([]Request, error) {
	requests, err := s.col.Find(func(r Request) bool {
		if q.UserID != "" && r.UserID != q.UserID {
			return false
		}
		if q.Status != "" && r.Status != q.Status {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (s *Store) Create(req Request) (Request, error) {
	now := time.Now().UTC()
	req.ID = ident.New()
	if req.Status == "" {
		req.Status = StatusPending
	}
	req.CreatedAt = now
	req.UpdatedAt = now
	if err := s.col.Insert(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Decide performs the Pending -> terminal transition as one atomic mutation.
// A request that already left Pending fails with ErrAlreadyProcessed and the
// collection file is not rewritten.
func (s *Store) Decide(id, status, approverID, comments string) (Request, error) {
	var out Request
	err := s.col.Mutate(func(records []Request) ([]Request, error) {
		for i := range records {
			if records[i].ID != id {
				continue
			}
			if records[i].Status != StatusPending {
				return nil, ErrAlreadyProcessed
			}
			records[i].Status = status
			records[i].ApprovedBy = approverID
			records[i].AdminComments = comments
			records[i].UpdatedAt = time.Now().UTC()
			out = records[i]
			return records, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Request{}, err
	}
	return out, nil
}
