package user

import (
	"time"

	"hrms/internal/platform/filedb"
	"hrms/internal/platform/ident"
)

type Store struct {
	col *filedb.Collection[User]
}

func NewStore(db *filedb.Store) *Store {
	return &Store{col: filedb.NewCollection[User](db, Collection)}
}

func (s *Store) FindByID(id string) (User, error) {
	return s.findOne(func(u User) bool { return u.ID == id })
}

func (s *Store) FindByEmail(email string) (User, error) {
	return s.findOne(func(u User) bool { return u.Email == email })
}

func (s *Store) FindByEmployeeID(employeeID string) (User, error) {
	return s.findOne(func(u User) bool { return u.EmployeeID == employeeID })
}

func (s *Store) FindByVerificationToken(token string) (User, error) {
	return s.findOne(func(u User) bool {
		return token != "" && u.EmailVerificationToken == token
	})
}

func (s *Store) findOne(match func(User) bool) (User, error) {
	u, ok, err := s.col.FindOne(match)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

type Query struct {
	Role string
}

func (s *Store) List(q Query) ([]User, error) {
	return s.col.Find(func(u User) bool {
		return q.Role == "" || u.Role == q.Role
	})
}

// Create appends a new user after checking both natural keys inside the same
// critical section, so two concurrent registrations cannot both slip in.
func (s *Store) Create(u User) (User, error) {
	now := time.Now().UTC()
	u.ID = ident.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	err := s.col.Mutate(func(records []User) ([]User, error) {
		for _, existing := range records {
			if existing.Email == u.Email {
				return nil, ErrEmailTaken
			}
			if existing.EmployeeID == u.EmployeeID {
				return nil, ErrEmployeeIDTaken
			}
		}
		return append(records, u), nil
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Patch carries the fields a profile update may change. Nil pointers leave
// the stored value untouched; the patch wins where set.
type Patch struct {
	Name           *string
	Role           *string
	Department     *string
	Position       *string
	Phone          *string
	Address        *string
	ProfilePicture *string
	EmailVerified  *bool
	ClearToken     bool
}

func (s *Store) UpdateByID(id string, patch Patch) (User, error) {
	updated, ok, err := s.col.Update(
		func(u User) bool { return u.ID == id },
		func(u *User) {
			if patch.Name != nil {
				u.Name = *patch.Name
			}
			if patch.Role != nil {
				u.Role = *patch.Role
			}
			if patch.Department != nil {
				u.Department = *patch.Department
			}
			if patch.Position != nil {
				u.Position = *patch.Position
			}
			if patch.Phone != nil {
				u.Phone = *patch.Phone
			}
			if patch.Address != nil {
				u.Address = *patch.Address
			}
			if patch.ProfilePicture != nil {
				u.ProfilePicture = *patch.ProfilePicture
			}
			if patch.EmailVerified != nil {
				u.EmailVerified = *patch.EmailVerified
			}
			if patch.ClearToken {
				u.EmailVerificationToken = ""
			}
			u.UpdatedAt = time.Now().UTC()
		},
	)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNotFound
	}
	return updated, nil
}

func (s *Store) DeleteByID(id string) (User, error) {
	deleted, ok, err := s.col.Delete(func(u User) bool { return u.ID == id })
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNotFound
	}
	return deleted, nil
}
