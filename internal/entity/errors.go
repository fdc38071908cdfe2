package entity

import "errors"

var (
	ErrLeadNotFound      = errors.New("lead not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrDepositorNotFound = errors.New("depositor not found")
	ErrListNotFound      = errors.New("lead list not found")

	// ErrLeadAlreadyOwned is returned by a claim whose lead already had an owner.
	ErrLeadAlreadyOwned = errors.New("lead is already owned")
	// ErrOwnershipChanged is returned when the expected owner no longer holds the lead.
	ErrOwnershipChanged = errors.New("lead ownership changed")
	// ErrCustomerExists is returned when a Customer already references the lead.
	ErrCustomerExists = errors.New("a customer already exists for this lead")
	ErrSystemList     = errors.New("system lists cannot be deleted")
)
