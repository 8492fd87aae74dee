package store

import (
	"io/fs"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultMigrationsTable = "z_migrations"

type gormAdapter struct {
	internal *gorm.DB
}

// Open connects to the database behind url. Postgres urls (postgres://,
// postgresql://, pg:) and sqlite urls (file:, *.db) are supported.
func Open(url string) (DataSource, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(url, "postgres"), strings.HasPrefix(url, "pg:"):
		url = strings.Replace(url, "pg:", "postgres:", 1)
		url = strings.Replace(url, "postgresql:", "postgres:", 1)
		dialector = postgres.Open(url)
	case strings.HasPrefix(url, "file:"), strings.HasSuffix(url, ".db"):
		dialector = sqlite.Open(url)
	default:
		log.Fatalf("unsupported database type: %s", url)
	}

	dbLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, err
	}
	return &gormAdapter{internal: db}, nil
}

func (a *gormAdapter) Create(target any) error {
	return a.internal.Create(target).Error
}

func (a *gormAdapter) Save(target any) error {
	return a.internal.Session(&gorm.Session{FullSaveAssociations: true}).Save(target).Error
}

func (a *gormAdapter) First(target any, q Query) error {
	res := a.buildQuery(target, q).First(target)
	if res.Error == gorm.ErrRecordNotFound || res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return res.Error
}

func (a *gormAdapter) Find(target any, q Query) error {
	return a.buildQuery(target, q).Find(target).Error
}

func (a *gormAdapter) Exists(model any, q Query) (bool, error) {
	var count int64
	res := a.buildQuery(model, q).Count(&count)
	return count > 0, res.Error
}

func (a *gormAdapter) Count(model any, q Query) (int64, error) {
	var count int64
	res := a.buildQuery(model, q).Count(&count)
	return count, res.Error
}

func (a *gormAdapter) Patch(model any, id string, data map[string]any) (int64, error) {
	res := a.internal.Model(model).Where("id = ?", id).Updates(data)
	return res.RowsAffected, res.Error
}

func (a *gormAdapter) Ping() error {
	return a.internal.Exec("SELECT 1").Error
}

func (a *gormAdapter) Transaction(cb func(tx DataSource) error) error {
	return a.internal.Transaction(func(tx *gorm.DB) error {
		return cb(&gormAdapter{internal: tx})
	})
}

func (a *gormAdapter) Migrate(fsys fs.FS, location string, migrationsTable string) error {
	goose.SetBaseFS(fsys)
	goose.SetTableName(migrationsTable)
	goose.SetLogger(goose.NopLogger())
	dialect := a.internal.Dialector.Name()
	if dialect == "sqlite" {
		dialect = "sqlite3"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	cnx, err := a.internal.DB()
	if err != nil {
		return err
	}
	return goose.Up(cnx, location, goose.WithAllowMissing())
}

func (a *gormAdapter) Close() {
	sqlDB, err := a.internal.DB()
	if err != nil {
		log.Warnf("unable to close database: %s", err)
		return
	}
	_ = sqlDB.Close()
}

func (a *gormAdapter) buildQuery(model any, q Query) *gorm.DB {
	builder := a.internal.Model(model)
	if q.W != "" {
		builder = builder.Where(strings.TrimSpace(q.W), q.Args...)
	}
	if q.Sort != "" {
		builder = builder.Order(q.Sort)
	}
	if q.Select != "" {
		builder = builder.Select(q.Select)
	}
	for _, preload := range q.Preload {
		builder = builder.Preload(preload)
	}
	if q.Offset > 0 {
		builder = builder.Offset(int(q.Offset))
	}
	if q.Limit > 0 {
		builder = builder.Limit(int(q.Limit))
	}
	return builder
}
