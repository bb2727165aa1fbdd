package user

import "time"

const (
	RoleEmployee = "Employee"
	RoleHR       = "HR"
)

const Collection = "users"

type User struct {
	ID                     string    `json:"id"`
	EmployeeID             string    `json:"employeeId"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Password               string    `json:"password,omitempty"`
	Role                   string    `json:"role"`
	EmailVerified          bool      `json:"emailVerified"`
	EmailVerificationToken string    `json:"emailVerificationToken,omitempty"`
	Department             string    `json:"department,omitempty"`
	Position               string    `json:"position,omitempty"`
	Phone                  string    `json:"phone,omitempty"`
	Address                string    `json:"address,omitempty"`
	ProfilePicture         string    `json:"profilePicture,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Redacted strips credential material before a record leaves the service.
func (u User) Redacted() User {
	u.Password = ""
	u.EmailVerificationToken = ""
	return u
}

func ValidRole(role string) bool {
	return role == RoleEmployee || role == RoleHR
}
