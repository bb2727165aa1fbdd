package payroll

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hrms/internal/domain/user"
	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/filedb"
)

func newTestService(t *testing.T, key string) (*Service, *user.Store, string) {
	t.Helper()
	db, err := filedb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cryptoSvc, err := cryptoutil.New(key)
	if err != nil {
		t.Fatalf("crypto service: %v", err)
	}
	users := user.NewStore(db)
	docDir := t.TempDir()
	return NewService(NewStore(db), users, cryptoSvc, docDir), users, docDir
}

func TestNetSalaryDerivation(t *testing.T) {
	svc, users, _ := newTestService(t, "")
	ctx := context.Background()

	u, err := users.Create(user.User{EmployeeID: "E1", Name: "Ada", Email: "ada@corp.test", Role: user.RoleEmployee})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	p, err := svc.Update(ctx, u.ID, 5000, 800, 500)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if p.NetSalary != 5300 {
		t.Fatalf("expected net salary 5300, got %v", p.NetSalary)
	}

	// re-upsert must recompute, not accumulate
	p, err = svc.Update(ctx, u.ID, 6000, 0, 250)
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if p.NetSalary != 5750 {
		t.Fatalf("expected net salary 5750 after recompute, got %v", p.NetSalary)
	}

	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("upsert created duplicate records: %d", len(all))
	}
}

func TestUpdateRequiresExistingUser(t *testing.T) {
	svc, _, _ := newTestService(t, "")
	_, err := svc.Update(context.Background(), "ghost", 5000, 0, 0)
	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected user.ErrNotFound, got: %v", err)
	}
}

func TestMyLazilyCreatesZeroRecord(t *testing.T) {
	svc, _, _ := newTestService(t, "")
	ctx := context.Background()

	p, err := svc.My(ctx, "u1")
	if err != nil {
		t.Fatalf("my failed: %v", err)
	}
	if p.ID == "" || p.UserID != "u1" {
		t.Fatalf("lazy record malformed: %+v", p)
	}
	if p.NetSalary != 0 || p.BaseSalary != 0 {
		t.Fatalf("lazy record must be zero-valued: %+v", p)
	}

	again, err := svc.My(ctx, "u1")
	if err != nil {
		t.Fatalf("second my failed: %v", err)
	}
	if again.ID != p.ID {
		t.Fatal("second read created a new record")
	}
}

func TestGeneratePayslipPDF(t *testing.T) {
	svc, users, docDir := newTestService(t, "")
	ctx := context.Background()

	u, err := users.Create(user.User{EmployeeID: "E1", Name: "Ada", Email: "ada@corp.test", Role: user.RoleEmployee})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if _, err := svc.Update(ctx, u.ID, 5000, 800, 500); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	data, err := svc.GeneratePayslipPDF(ctx, u.ID)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", data[:min(8, len(data))])
	}

	if _, err := os.Stat(filepath.Join(docDir, u.ID+".pdf")); err != nil {
		t.Fatalf("plaintext payslip not persisted: %v", err)
	}
}

func TestGeneratePayslipPDFEncryptedAtRest(t *testing.T) {
	// 32-byte hex key
	svc, users, docDir := newTestService(t, "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	ctx := context.Background()

	u, err := users.Create(user.User{EmployeeID: "E1", Name: "Ada", Email: "ada@corp.test", Role: user.RoleEmployee})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	data, err := svc.GeneratePayslipPDF(ctx, u.ID)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("returned bytes must stay plaintext PDF")
	}

	stored, err := os.ReadFile(filepath.Join(docDir, u.ID+".pdf.enc"))
	if err != nil {
		t.Fatalf("encrypted payslip not persisted: %v", err)
	}
	if bytes.HasPrefix(stored, []byte("%PDF")) {
		t.Fatal("on-disk payslip is not encrypted")
	}
}
