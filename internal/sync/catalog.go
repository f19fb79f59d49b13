package sync

import (
	"context"
	"time"

	"github.com/platformio/platformio-api/internal/db"
	"github.com/platformio/platformio-api/internal/db/sqlc"
)

// Catalog is the subset of the query layer the sync pipeline uses. It is
// satisfied by *sqlc.Queries.
type Catalog interface {
	// Pending registrations
	ListApprovedUnprocessedPendingLibs(ctx context.Context) ([]sqlc.PendingLib, error)
	MarkPendingLibProcessed(ctx context.Context, id int64) error

	// Libraries
	ExistsLibWithConfURL(ctx context.Context, confURL string) (bool, error)
	SmallestUnusedLibID(ctx context.Context) (int64, error)
	InsertLib(ctx context.Context, arg sqlc.InsertLibParams) (sqlc.Lib, error)
	GetLib(ctx context.Context, id int64) (sqlc.Lib, error)
	ListLibIDs(ctx context.Context) ([]int64, error)
	ListLibsDueForSync(ctx context.Context, now time.Time) ([]sqlc.Lib, error)
	CountLibs(ctx context.Context) (int64, error)
	UpdateLibAfterSync(ctx context.Context, arg sqlc.UpdateLibAfterSyncParams) error
	TouchLibSynced(ctx context.Context, arg sqlc.TouchLibSyncedParams) error
	IncrementLibSyncFailures(ctx context.Context, arg sqlc.IncrementLibSyncFailuresParams) (int32, error)
	DeactivateLib(ctx context.Context, id int64) error
	DeleteLib(ctx context.Context, id int64) error
	SmoothLibSyncTimes(ctx context.Context, arg sqlc.SmoothLibSyncTimesParams) error

	// Versions
	GetLibVersionByName(ctx context.Context, arg sqlc.GetLibVersionByNameParams) (sqlc.LibVersion, error)
	InsertLibVersion(ctx context.Context, arg sqlc.InsertLibVersionParams) (sqlc.LibVersion, error)
	ListLibVersions(ctx context.Context, libID int64) ([]sqlc.LibVersion, error)
	ListStaleLibVersions(ctx context.Context, arg sqlc.ListStaleLibVersionsParams) ([]sqlc.LibVersion, error)
	DeleteLibVersion(ctx context.Context, id int64) error

	// Authors
	UpsertAuthor(ctx context.Context, arg sqlc.UpsertAuthorParams) (sqlc.Author, error)
	DeleteLibAuthors(ctx context.Context, libID int64) error
	InsertLibAuthor(ctx context.Context, arg sqlc.InsertLibAuthorParams) error

	// Keywords
	UpsertKeyword(ctx context.Context, name string) (sqlc.Keyword, error)
	DeleteLibKeywords(ctx context.Context, libID int64) error
	InsertLibKeyword(ctx context.Context, arg sqlc.InsertLibKeywordParams) error

	// Frameworks and platforms (closed vocabulary)
	ListFrameworks(ctx context.Context) ([]sqlc.Framework, error)
	ListPlatforms(ctx context.Context) ([]sqlc.Platform, error)
	ListFrameworksForPlatforms(ctx context.Context, platformIds []int64) ([]sqlc.Framework, error)
	DeleteLibFrameworks(ctx context.Context, libID int64) error
	InsertLibFramework(ctx context.Context, arg sqlc.InsertLibFrameworkParams) error
	DeleteLibPlatforms(ctx context.Context, libID int64) error
	InsertLibPlatform(ctx context.Context, arg sqlc.InsertLibPlatformParams) error

	// Attributes
	ListAttributes(ctx context.Context) ([]sqlc.Attribute, error)
	DeleteLibAttributes(ctx context.Context, libID int64) error
	InsertLibAttribute(ctx context.Context, arg sqlc.InsertLibAttributeParams) error

	// Headers and examples
	ListLibHeaders(ctx context.Context, libID int64) ([]sqlc.LibHeader, error)
	InsertLibHeader(ctx context.Context, arg sqlc.InsertLibHeaderParams) (sqlc.LibHeader, error)
	DeleteLibHeader(ctx context.Context, id int64) error
	ListLibExamples(ctx context.Context, libID int64) ([]sqlc.LibExample, error)
	InsertLibExample(ctx context.Context, arg sqlc.InsertLibExampleParams) (sqlc.LibExample, error)
	DeleteLibExample(ctx context.Context, id int64) error

	// Download stats
	InsertLibDlstat(ctx context.Context, libID int64) error
	DeleteOldDllogEntries(ctx context.Context, before time.Time) error
	RecalculateLibDlstats(ctx context.Context, now time.Time) error
}

// Store provides catalog access plus per-library transactional units of
// work.
type Store interface {
	Catalog() Catalog
	InTx(ctx context.Context, fn func(Catalog) error) error
}

// SQLStore backs Store with the pgx connection pool.
type SQLStore struct {
	Conn *db.Connection
}

func NewSQLStore(conn *db.Connection) *SQLStore {
	return &SQLStore{Conn: conn}
}

func (s *SQLStore) Catalog() Catalog {
	return s.Conn.Queries
}

func (s *SQLStore) InTx(ctx context.Context, fn func(Catalog) error) error {
	return s.Conn.InTx(ctx, func(q *sqlc.Queries) error {
		return fn(q)
	})
}
