package employee

import "time"

// Employee is the slice of the HR employee directory the attendance engine reads.
type Employee struct {
	ID           string
	EmployeeCode string
	FullName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}
