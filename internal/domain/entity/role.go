package entity

// Role ID constants
const (
	RoleIDAdmin    = 1
	RoleIDStaff    = 2
	RoleIDCustomer = 3
)
