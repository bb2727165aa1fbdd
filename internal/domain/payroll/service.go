package payroll

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"hrms/internal/domain/user"
	cryptoutil "hrms/internal/platform/crypto"
)

type Service struct {
	store  *Store
	users  *user.Store
	crypto *cryptoutil.Service
	docDir string
}

func NewService(store *Store, users *user.Store, crypto *cryptoutil.Service, docDir string) *Service {
	return &Service{store: store, users: users, crypto: crypto, docDir: docDir}
}

func (s *Service) Store() *Store { return s.store }

// My returns the caller's payroll, creating a zero-value record on first
// read.
func (s *Service) My(ctx context.Context, userID string) (Payroll, error) {
	return s.store.EnsureForUser(userID)
}

func (s *Service) ByUser(ctx context.Context, userID string) (Payroll, error) {
	return s.store.FindByUser(userID)
}

func (s *Service) All(ctx context.Context) ([]Payroll, error) {
	return s.store.List()
}

// Update upserts the user's salary components. The user must exist; net
// salary is derived inside the store.
func (s *Service) Update(ctx context.Context, userID string, base, allowances, deductions float64) (Payroll, error) {
	if _, err := s.users.FindByID(userID); err != nil {
		return Payroll{}, err
	}
	return s.store.UpsertForUser(userID, base, allowances, deductions)
}

// GeneratePayslipPDF renders the user's current payslip. When an encryption
// key is configured the copy kept on disk is AES-GCM sealed; the returned
// bytes are always plaintext PDF.
func (s *Service) GeneratePayslipPDF(ctx context.Context, userID string) ([]byte, error) {
	payslip, err := s.store.EnsureForUser(userID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", u.Name, u.EmployeeID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", u.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02")))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Base salary: %.2f", payslip.BaseSalary))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Allowances: %.2f", payslip.Allowances))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deductions: %.2f", payslip.Deductions))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Net salary: %.2f", payslip.NetSalary))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	if err := s.persistPayslip(userID, buf.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) persistPayslip(userID string, data []byte) error {
	if s.docDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.docDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.docDir, userID+".pdf")
	if s.crypto != nil && s.crypto.Configured() {
		encrypted, err := s.crypto.Encrypt(data)
		if err != nil {
			return err
		}
		return os.WriteFile(path+".enc", encrypted, 0o600)
	}
	return os.WriteFile(path, data, 0o644)
}
