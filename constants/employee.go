package constants

import "strings"

type Department string

const (
	Engineering     Department = "Engineering"
	HumanResources  Department = "Human Resources"
	Finance         Department = "Finance"
	Sales           Department = "Sales"
	Marketing       Department = "Marketing"
	Operations      Department = "Operations"
	CustomerSupport Department = "Customer Support"
	Legal           Department = "Legal"
	Product         Department = "Product"
	Administration  Department = "Administration"
)

var allDepartments = []Department{
	Engineering,
	HumanResources,
	Finance,
	Sales,
	Marketing,
	Operations,
	CustomerSupport,
	Legal,
	Product,
	Administration,
}

type EmployeeStatus string

const (
	StatusActive     EmployeeStatus = "Active"
	StatusInactive   EmployeeStatus = "Inactive"
	StatusOnLeave    EmployeeStatus = "On Leave"
	StatusTerminated EmployeeStatus = "Terminated"
)

var allStatuses = []EmployeeStatus{StatusActive, StatusInactive, StatusOnLeave, StatusTerminated}

func Departments() []string {
	result := make([]string, len(allDepartments))
	for i, d := range allDepartments {
		result[i] = string(d)
	}
	return result
}

func EmployeeStatuses() []string {
	result := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		result[i] = string(s)
	}
	return result
}

// CanonicalDepartment matches input case-insensitively against the closed set.
func CanonicalDepartment(input string) (Department, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	for _, d := range allDepartments {
		if normalized == strings.ToLower(string(d)) {
			return d, true
		}
	}
	return "", false
}

// CanonicalStatus matches input case-insensitively against the closed set.
func CanonicalStatus(input string) (EmployeeStatus, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	for _, s := range allStatuses {
		if normalized == strings.ToLower(string(s)) {
			return s, true
		}
	}
	return "", false
}
