package domain

import "encoding/json"

// Employee is the read model of a backend user/employee record.
// Groups and UserPermissions are passed through as opaque JSON.
type Employee struct {
	ID              int64           `json:"id"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	FirstName       string          `json:"first_name,omitempty"`
	LastName        string          `json:"last_name,omitempty"`
	Role            string          `json:"role"`
	HireDate        *string         `json:"hire_date"`
	IsActive        bool            `json:"is_active"`
	IsStaff         bool            `json:"is_staff"`
	IsSuperuser     bool            `json:"is_superuser"`
	LastLoginDate   *string         `json:"last_login_date"`
	LastLoginTime   *string         `json:"last_login_time"`
	PhoneNumber     string          `json:"phone_number"`
	Groups          json.RawMessage `json:"groups,omitempty"`
	UserPermissions json.RawMessage `json:"user_permissions,omitempty"`
}

// EmployeeCreate is the write model used to onboard an employee.
// The backend expects the phone under "phone_num", not the read model's "phone_number".
type EmployeeCreate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhoneNum  string `json:"phone_num"`
	Role      string `json:"role"`
	HireDate  string `json:"hire_date"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

// StatusUpdate is the partial update payload for an employee's status sub-resource.
type StatusUpdate struct {
	IsActive bool `json:"is_active"`
}
