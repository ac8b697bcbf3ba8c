package model

import "time"

// Status is the health classification of an issue.
type Status string

const (
	StatusCritical Status = "Critical"
	StatusWarning  Status = "Warning"
	StatusOk       Status = "Ok"
	StatusDisabled Status = "Disabled"
	StatusUnknown  Status = "Unknown"
)

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{StatusCritical, StatusWarning, StatusOk, StatusDisabled, StatusUnknown}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCritical, StatusWarning, StatusOk, StatusDisabled, StatusUnknown:
		return true
	}
	return false
}

// Person is an employee or customer reference attached to an issue.
type Person struct {
	Name   string `json:"name" yaml:"name"`
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// Issue is the canonical record used for storage, transport (socket RPC),
// and display. Employee or Customer may be nil for malformed records.
type Issue struct {
	ID          string     `json:"id"`
	Submitted   time.Time  `json:"submitted"`
	Closed      *time.Time `json:"closed,omitempty"` // nil = still open
	Status      Status     `json:"status"`
	Active      bool       `json:"active"`
	Employee    *Person    `json:"employee,omitempty"`
	Customer    *Person    `json:"customer,omitempty"`
	Description string     `json:"description"`
	Source      string     `json:"source,omitempty"` // "fixture", "stdin", "tcp", "demo"
}

// EmployeeName returns the employee name, or false for a malformed record.
func (i Issue) EmployeeName() (string, bool) {
	if i.Employee == nil {
		return "", false
	}
	return i.Employee.Name, true
}

// CustomerName returns the customer name, or false for a malformed record.
func (i Issue) CustomerName() (string, bool) {
	if i.Customer == nil {
		return "", false
	}
	return i.Customer.Name, true
}

// DimensionCount represents grouped counts by a single dimension value
// (for example employee or customer name).
type DimensionCount struct {
	Value string
	Count int64
}
