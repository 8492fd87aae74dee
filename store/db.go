package store

import (
	"io/fs"

	"github.com/soffa-projects/go-webstack/errors"
)

var ErrRecordNotFound = errors.ResourceNotFound("record not found")

// DataSource is the persistence boundary. A single long-lived instance is
// created at startup and shared by reference, there is no global client.
type DataSource interface {
	Create(target any) error
	Save(target any) error
	First(target any, q Query) error
	Find(target any, q Query) error
	Exists(model any, q Query) (bool, error)
	Count(model any, q Query) (int64, error)
	Patch(model any, id string, data map[string]any) (int64, error)
	Ping() error
	Transaction(cb func(tx DataSource) error) error
	Migrate(fsys fs.FS, location string, migrationsTable string) error
	Close()
}

type Query struct {
	W       string
	Args    []any
	Sort    string
	Select  string
	Preload []string
	Offset  int64
	Limit   int64
}
