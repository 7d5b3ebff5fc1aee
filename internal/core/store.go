package core

import "context"

// RecordStore creates records in a tenant's document store.
// It returns the new record's id.
type RecordStore interface {
	CreateRecord(ctx context.Context, tenantID string, rec Record) (string, error)
}

// Directory lists the existing entities rows are resolved against.
type Directory interface {
	ListClasses(ctx context.Context, tenantID string) ([]ClassRef, error)
	ListStudents(ctx context.Context, tenantID string) ([]StudentRef, error)
}

// Store is the document store backing the import service.
type Store interface {
	RecordStore
	Directory
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
