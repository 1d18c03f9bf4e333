package database

import "context"

// UserDirectory resolves the resident phone numbers registered under a
// barangay. Backed by the registration datastore, which this core does
// not own.
type UserDirectory interface {
	PhonesByBarangay(ctx context.Context, barangay string) ([]string, error)
}
