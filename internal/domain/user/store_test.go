package user

import (
	"errors"
	"testing"

	"hrms/internal/platform/filedb"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := filedb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return NewStore(db)
}

func TestCreateEnforcesUniqueKeys(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Create(User{EmployeeID: "E1", Email: "a@corp.test", Name: "A"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := store.Create(User{EmployeeID: "E2", Email: "a@corp.test", Name: "B"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got: %v", err)
	}

	_, err = store.Create(User{EmployeeID: "E1", Email: "b@corp.test", Name: "B"})
	if !errors.Is(err, ErrEmployeeIDTaken) {
		t.Fatalf("expected ErrEmployeeIDTaken, got: %v", err)
	}
}

func TestLookups(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(User{
		EmployeeID:             "E1",
		Email:                  "a@corp.test",
		Name:                   "A",
		Role:                   RoleEmployee,
		EmailVerificationToken: "tok123",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := store.FindByID(created.ID); err != nil {
		t.Fatalf("find by id failed: %v", err)
	}
	if _, err := store.FindByEmail("a@corp.test"); err != nil {
		t.Fatalf("find by email failed: %v", err)
	}
	if _, err := store.FindByEmployeeID("E1"); err != nil {
		t.Fatalf("find by employee id failed: %v", err)
	}
	if _, err := store.FindByVerificationToken("tok123"); err != nil {
		t.Fatalf("find by token failed: %v", err)
	}

	// an empty token must never match the empty stored field
	if _, err := store.FindByVerificationToken(""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty token lookup must fail, got: %v", err)
	}
	if _, err := store.FindByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestListByRole(t *testing.T) {
	store := newTestStore(t)
	seed := []User{
		{EmployeeID: "E1", Email: "a@corp.test", Role: RoleEmployee},
		{EmployeeID: "E2", Email: "b@corp.test", Role: RoleHR},
		{EmployeeID: "E3", Email: "c@corp.test", Role: RoleEmployee},
	}
	for _, u := range seed {
		if _, err := store.Create(u); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	employees, err := store.List(Query{Role: RoleEmployee})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}

	all, err := store.List(Query{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 users, got %d", len(all))
	}
}

func TestUpdateByIDPatchSemantics(t *testing.T) {
	store := newTestStore(t)
	created, err := store.Create(User{
		EmployeeID:             "E1",
		Email:                  "a@corp.test",
		Name:                   "A",
		Phone:                  "111",
		EmailVerificationToken: "tok123",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	phone := "222"
	verified := true
	updated, err := store.UpdateByID(created.ID, Patch{
		Phone:         &phone,
		EmailVerified: &verified,
		ClearToken:    true,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Phone != "222" || !updated.EmailVerified || updated.EmailVerificationToken != "" {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Name != "A" || updated.Email != "a@corp.test" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	if _, err := store.UpdateByID("missing", Patch{Phone: &phone}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	store := newTestStore(t)
	created, err := store.Create(User{EmployeeID: "E1", Email: "a@corp.test"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := store.DeleteByID(created.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted.ID != created.ID {
		t.Fatalf("wrong record deleted: %+v", deleted)
	}
	if _, err := store.FindByID(created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record still present after delete: %v", err)
	}
	if _, err := store.DeleteByID(created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should fail with ErrNotFound, got: %v", err)
	}
}

func TestRedacted(t *testing.T) {
	u := User{Email: "a@corp.test", Password: "hash", EmailVerificationToken: "tok"}
	r := u.Redacted()
	if r.Password != "" || r.EmailVerificationToken != "" {
		t.Fatalf("redaction incomplete: %+v", r)
	}
	if r.Email != u.Email {
		t.Fatal("redaction must not strip the email")
	}
}
