package payroll

import "time"

const Collection = "payrolls"

// Payroll holds one user's salary breakdown; at most one record per user.
// NetSalary is always derived, never set independently.
type Payroll struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	BaseSalary float64   `json:"baseSalary"`
	Allowances float64   `json:"allowances"`
	Deductions float64   `json:"deductions"`
	NetSalary  float64   `json:"netSalary"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func netSalary(base, allowances, deductions float64) float64 {
	return base + allowances - deductions
}
