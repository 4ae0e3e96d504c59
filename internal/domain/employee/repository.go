package employee

import "context"

// EmployeeRepository resolves employees. Soft-deleted employees do not resolve.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// GetByEmployeeCode matches the code exactly, case-sensitive as stored.
	GetByEmployeeCode(ctx context.Context, employeeCode string) (Employee, error)
}
