package sync

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/platformio/platformio-api/internal/db/sqlc"
)

// memCatalog is an in-memory Catalog/Store used to exercise the scheduler
// and syncer without a database. Transactions are not simulated; InTx runs
// the function directly.
type memCatalog struct {
	pending  map[int64]*sqlc.PendingLib
	libs     map[int64]*sqlc.Lib
	versions map[int64]*sqlc.LibVersion

	authors       map[int64]*sqlc.Author
	libAuthors    map[int64]map[int64]bool
	keywords      map[int64]*sqlc.Keyword
	libKeywords   map[int64]map[int64]struct{}
	frameworks    []sqlc.Framework
	platforms     []sqlc.Platform
	compat        map[int64][]int64
	libFrameworks map[int64]map[int64]struct{}
	libPlatforms  map[int64]map[int64]struct{}
	attributes    []sqlc.Attribute
	libAttributes map[int64]map[int64]string
	headers       map[int64]*sqlc.LibHeader
	examples      map[int64]*sqlc.LibExample
	dlstats       map[int64]*sqlc.LibDlstat
	dllog         []sqlc.LibDllog

	nextID      int64
	smoothCalls []sqlc.SmoothLibSyncTimesParams

	// existsErr injects a lookup failure for a conf_url.
	existsErr map[string]error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		pending:       make(map[int64]*sqlc.PendingLib),
		libs:          make(map[int64]*sqlc.Lib),
		versions:      make(map[int64]*sqlc.LibVersion),
		authors:       make(map[int64]*sqlc.Author),
		libAuthors:    make(map[int64]map[int64]bool),
		keywords:      make(map[int64]*sqlc.Keyword),
		libKeywords:   make(map[int64]map[int64]struct{}),
		compat:        make(map[int64][]int64),
		libFrameworks: make(map[int64]map[int64]struct{}),
		libPlatforms:  make(map[int64]map[int64]struct{}),
		libAttributes: make(map[int64]map[int64]string),
		headers:       make(map[int64]*sqlc.LibHeader),
		examples:      make(map[int64]*sqlc.LibExample),
		dlstats:       make(map[int64]*sqlc.LibDlstat),
		nextID:        1000,
	}
}

func (m *memCatalog) seedVocabulary() {
	m.frameworks = []sqlc.Framework{
		{ID: 1, Name: "arduino", Title: "Arduino"},
		{ID: 2, Name: "mbed", Title: "mbed"},
		{ID: 3, Name: "energia", Title: "Energia"},
	}
	m.platforms = []sqlc.Platform{
		{ID: 1, Name: "atmelavr", Title: "Atmel AVR"},
		{ID: 2, Name: "espressif8266", Title: "Espressif 8266"},
		{ID: 3, Name: "timsp430", Title: "TI MSP430"},
	}
	m.compat = map[int64][]int64{
		1: {1},    // atmelavr: arduino
		2: {1},    // espressif8266: arduino
		3: {3},    // timsp430: energia
	}
	m.attributes = []sqlc.Attribute{
		{ID: 1, Name: "homepage"},
		{ID: 2, Name: "repository.url"},
		{ID: 3, Name: "license"},
	}
}

func (m *memCatalog) allocID() int64 {
	m.nextID++
	return m.nextID
}

// Store

func (m *memCatalog) Catalog() Catalog { return m }

func (m *memCatalog) InTx(_ context.Context, fn func(Catalog) error) error {
	return fn(m)
}

// Pending

func (m *memCatalog) addPending(id int64, confURL string, approved bool) {
	m.pending[id] = &sqlc.PendingLib{
		ID: id, ConfURL: confURL, Added: time.Now(), Approved: approved,
	}
}

func (m *memCatalog) ListApprovedUnprocessedPendingLibs(context.Context) ([]sqlc.PendingLib, error) {
	var items []sqlc.PendingLib
	for _, item := range m.pending {
		if item.Approved && !item.Processed {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *memCatalog) MarkPendingLibProcessed(_ context.Context, id int64) error {
	if item, ok := m.pending[id]; ok {
		item.Processed = true
	}
	return nil
}

// Libraries

func (m *memCatalog) ExistsLibWithConfURL(_ context.Context, confURL string) (bool, error) {
	if err := m.existsErr[confURL]; err != nil {
		return false, err
	}
	for _, lib := range m.libs {
		if lib.ConfURL == confURL {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCatalog) SmallestUnusedLibID(context.Context) (int64, error) {
	var id int64 = 1
	for {
		if _, used := m.libs[id]; !used {
			return id, nil
		}
		id++
	}
}

func (m *memCatalog) InsertLib(_ context.Context, arg sqlc.InsertLibParams) (sqlc.Lib, error) {
	lib := &sqlc.Lib{
		ID: arg.ID, ConfURL: arg.ConfURL, Active: true,
		Synced: arg.Synced, Updated: arg.Synced,
	}
	m.libs[arg.ID] = lib
	return *lib, nil
}

func (m *memCatalog) GetLib(_ context.Context, id int64) (sqlc.Lib, error) {
	if lib, ok := m.libs[id]; ok {
		return *lib, nil
	}
	return sqlc.Lib{}, pgx.ErrNoRows
}

func (m *memCatalog) ListLibIDs(context.Context) ([]int64, error) {
	var ids []int64
	for id := range m.libs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memCatalog) ListLibsDueForSync(_ context.Context, now time.Time) ([]sqlc.Lib, error) {
	var due []sqlc.Lib
	for _, lib := range m.libs {
		interval := time.Duration(1+lib.SyncFailures) * 24 * time.Hour
		if lib.Active && !lib.Synced.After(now.Add(-interval)) {
			due = append(due, *lib)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Synced.Before(due[j].Synced) })
	return due, nil
}

func (m *memCatalog) CountLibs(context.Context) (int64, error) {
	return int64(len(m.libs)), nil
}

func (m *memCatalog) UpdateLibAfterSync(_ context.Context, arg sqlc.UpdateLibAfterSyncParams) error {
	lib, ok := m.libs[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	lib.ConfSha1 = arg.ConfSha1
	lib.LatestVersionID = arg.LatestVersionID
	lib.ExampleNums = arg.ExampleNums
	lib.HeaderNums = arg.HeaderNums
	lib.SyncFailures = 0
	lib.Synced = arg.Synced
	lib.Updated = arg.Updated
	return nil
}

func (m *memCatalog) TouchLibSynced(_ context.Context, arg sqlc.TouchLibSyncedParams) error {
	lib, ok := m.libs[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	lib.Synced = arg.Synced
	lib.SyncFailures = 0
	return nil
}

func (m *memCatalog) IncrementLibSyncFailures(_ context.Context, arg sqlc.IncrementLibSyncFailuresParams) (int32, error) {
	lib, ok := m.libs[arg.ID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	lib.SyncFailures++
	lib.Synced = arg.Synced
	return lib.SyncFailures, nil
}

func (m *memCatalog) DeactivateLib(_ context.Context, id int64) error {
	if lib, ok := m.libs[id]; ok {
		lib.Active = false
	}
	return nil
}

func (m *memCatalog) DeleteLib(_ context.Context, id int64) error {
	delete(m.libs, id)
	for versionID, version := range m.versions {
		if version.LibID == id {
			delete(m.versions, versionID)
		}
	}
	delete(m.dlstats, id)
	return nil
}

func (m *memCatalog) SmoothLibSyncTimes(_ context.Context, arg sqlc.SmoothLibSyncTimesParams) error {
	m.smoothCalls = append(m.smoothCalls, arg)
	ids, _ := m.ListLibIDs(context.Background())
	for i, id := range ids {
		m.libs[id].Synced = arg.Now.Add(-time.Duration(int64(i)*arg.IntervalSeconds) * time.Second)
	}
	return nil
}

// Versions

func (m *memCatalog) GetLibVersionByName(_ context.Context, arg sqlc.GetLibVersionByNameParams) (sqlc.LibVersion, error) {
	for _, version := range m.versions {
		if version.LibID == arg.LibID && version.Name == arg.Name {
			return *version, nil
		}
	}
	return sqlc.LibVersion{}, pgx.ErrNoRows
}

func (m *memCatalog) InsertLibVersion(_ context.Context, arg sqlc.InsertLibVersionParams) (sqlc.LibVersion, error) {
	version := &sqlc.LibVersion{
		ID: m.allocID(), LibID: arg.LibID, Name: arg.Name, Released: arg.Released,
	}
	m.versions[version.ID] = version
	return *version, nil
}

func (m *memCatalog) ListLibVersions(_ context.Context, libID int64) ([]sqlc.LibVersion, error) {
	var items []sqlc.LibVersion
	for _, version := range m.versions {
		if version.LibID == libID {
			items = append(items, *version)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Released.Equal(items[j].Released) {
			return items[i].Released.After(items[j].Released)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (m *memCatalog) ListStaleLibVersions(ctx context.Context, arg sqlc.ListStaleLibVersionsParams) ([]sqlc.LibVersion, error) {
	all, err := m.ListLibVersions(ctx, arg.LibID)
	if err != nil {
		return nil, err
	}
	if int64(len(all)) <= arg.Keep {
		return nil, nil
	}
	return all[arg.Keep:], nil
}

func (m *memCatalog) DeleteLibVersion(_ context.Context, id int64) error {
	delete(m.versions, id)
	return nil
}

// Authors

func (m *memCatalog) UpsertAuthor(_ context.Context, arg sqlc.UpsertAuthorParams) (sqlc.Author, error) {
	for _, author := range m.authors {
		if author.Name == arg.Name {
			if arg.Email != "" {
				author.Email = arg.Email
			}
			if arg.Url != "" {
				author.Url = arg.Url
			}
			return *author, nil
		}
	}
	author := &sqlc.Author{ID: m.allocID(), Name: arg.Name, Email: arg.Email, Url: arg.Url}
	m.authors[author.ID] = author
	return *author, nil
}

func (m *memCatalog) DeleteLibAuthors(_ context.Context, libID int64) error {
	delete(m.libAuthors, libID)
	return nil
}

func (m *memCatalog) InsertLibAuthor(_ context.Context, arg sqlc.InsertLibAuthorParams) error {
	if m.libAuthors[arg.LibID] == nil {
		m.libAuthors[arg.LibID] = make(map[int64]bool)
	}
	m.libAuthors[arg.LibID][arg.AuthorID] = arg.Maintainer
	return nil
}

// Keywords

func (m *memCatalog) UpsertKeyword(_ context.Context, name string) (sqlc.Keyword, error) {
	for _, keyword := range m.keywords {
		if keyword.Name == name {
			return *keyword, nil
		}
	}
	keyword := &sqlc.Keyword{ID: m.allocID(), Name: name}
	m.keywords[keyword.ID] = keyword
	return *keyword, nil
}

func (m *memCatalog) DeleteLibKeywords(_ context.Context, libID int64) error {
	delete(m.libKeywords, libID)
	return nil
}

func (m *memCatalog) InsertLibKeyword(_ context.Context, arg sqlc.InsertLibKeywordParams) error {
	if m.libKeywords[arg.LibID] == nil {
		m.libKeywords[arg.LibID] = make(map[int64]struct{})
	}
	m.libKeywords[arg.LibID][arg.KeywordID] = struct{}{}
	return nil
}

func (m *memCatalog) libKeywordNames(libID int64) []string {
	var names []string
	for id := range m.libKeywords[libID] {
		names = append(names, m.keywords[id].Name)
	}
	sort.Strings(names)
	return names
}

// Frameworks and platforms

func (m *memCatalog) ListFrameworks(context.Context) ([]sqlc.Framework, error) {
	return append([]sqlc.Framework(nil), m.frameworks...), nil
}

func (m *memCatalog) ListPlatforms(context.Context) ([]sqlc.Platform, error) {
	return append([]sqlc.Platform(nil), m.platforms...), nil
}

func (m *memCatalog) ListFrameworksForPlatforms(_ context.Context, platformIds []int64) ([]sqlc.Framework, error) {
	wanted := make(map[int64]struct{})
	for _, platformID := range platformIds {
		for _, frameworkID := range m.compat[platformID] {
			wanted[frameworkID] = struct{}{}
		}
	}
	var items []sqlc.Framework
	for _, framework := range m.frameworks {
		if _, ok := wanted[framework.ID]; ok {
			items = append(items, framework)
		}
	}
	return items, nil
}

func (m *memCatalog) DeleteLibFrameworks(_ context.Context, libID int64) error {
	delete(m.libFrameworks, libID)
	return nil
}

func (m *memCatalog) InsertLibFramework(_ context.Context, arg sqlc.InsertLibFrameworkParams) error {
	if m.libFrameworks[arg.LibID] == nil {
		m.libFrameworks[arg.LibID] = make(map[int64]struct{})
	}
	m.libFrameworks[arg.LibID][arg.FrameworkID] = struct{}{}
	return nil
}

func (m *memCatalog) DeleteLibPlatforms(_ context.Context, libID int64) error {
	delete(m.libPlatforms, libID)
	return nil
}

func (m *memCatalog) InsertLibPlatform(_ context.Context, arg sqlc.InsertLibPlatformParams) error {
	if m.libPlatforms[arg.LibID] == nil {
		m.libPlatforms[arg.LibID] = make(map[int64]struct{})
	}
	m.libPlatforms[arg.LibID][arg.PlatformID] = struct{}{}
	return nil
}

func (m *memCatalog) libFrameworkNames(libID int64) []string {
	var names []string
	for _, framework := range m.frameworks {
		if _, ok := m.libFrameworks[libID][framework.ID]; ok {
			names = append(names, framework.Name)
		}
	}
	return names
}

func (m *memCatalog) libPlatformNames(libID int64) []string {
	var names []string
	for _, platform := range m.platforms {
		if _, ok := m.libPlatforms[libID][platform.ID]; ok {
			names = append(names, platform.Name)
		}
	}
	return names
}

// Attributes

func (m *memCatalog) ListAttributes(context.Context) ([]sqlc.Attribute, error) {
	return append([]sqlc.Attribute(nil), m.attributes...), nil
}

func (m *memCatalog) DeleteLibAttributes(_ context.Context, libID int64) error {
	delete(m.libAttributes, libID)
	return nil
}

func (m *memCatalog) InsertLibAttribute(_ context.Context, arg sqlc.InsertLibAttributeParams) error {
	if m.libAttributes[arg.LibID] == nil {
		m.libAttributes[arg.LibID] = make(map[int64]string)
	}
	m.libAttributes[arg.LibID][arg.AttributeID] = arg.Value
	return nil
}

func (m *memCatalog) libAttributeValues(libID int64) map[string]string {
	values := make(map[string]string)
	for _, attribute := range m.attributes {
		if value, ok := m.libAttributes[libID][attribute.ID]; ok {
			values[attribute.Name] = value
		}
	}
	return values
}

// Headers and examples

func (m *memCatalog) ListLibHeaders(_ context.Context, libID int64) ([]sqlc.LibHeader, error) {
	var items []sqlc.LibHeader
	for _, header := range m.headers {
		if header.LibID == libID {
			items = append(items, *header)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *memCatalog) InsertLibHeader(_ context.Context, arg sqlc.InsertLibHeaderParams) (sqlc.LibHeader, error) {
	for _, header := range m.headers {
		if header.LibID == arg.LibID && header.Name == arg.Name {
			return *header, nil
		}
	}
	header := &sqlc.LibHeader{ID: m.allocID(), LibID: arg.LibID, Name: arg.Name}
	m.headers[header.ID] = header
	return *header, nil
}

func (m *memCatalog) DeleteLibHeader(_ context.Context, id int64) error {
	delete(m.headers, id)
	return nil
}

func (m *memCatalog) ListLibExamples(_ context.Context, libID int64) ([]sqlc.LibExample, error) {
	var items []sqlc.LibExample
	for _, example := range m.examples {
		if example.LibID == libID {
			items = append(items, *example)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *memCatalog) InsertLibExample(_ context.Context, arg sqlc.InsertLibExampleParams) (sqlc.LibExample, error) {
	for _, example := range m.examples {
		if example.LibID == arg.LibID && example.Name == arg.Name {
			return *example, nil
		}
	}
	example := &sqlc.LibExample{ID: m.allocID(), LibID: arg.LibID, Name: arg.Name}
	m.examples[example.ID] = example
	return *example, nil
}

func (m *memCatalog) DeleteLibExample(_ context.Context, id int64) error {
	delete(m.examples, id)
	return nil
}

// Download stats

func (m *memCatalog) InsertLibDlstat(_ context.Context, libID int64) error {
	if _, ok := m.dlstats[libID]; !ok {
		m.dlstats[libID] = &sqlc.LibDlstat{LibID: libID}
	}
	return nil
}

func (m *memCatalog) DeleteOldDllogEntries(_ context.Context, before time.Time) error {
	var kept []sqlc.LibDllog
	for _, entry := range m.dllog {
		if !entry.Date.Before(before) {
			kept = append(kept, entry)
		}
	}
	m.dllog = kept
	return nil
}

func (m *memCatalog) RecalculateLibDlstats(_ context.Context, now time.Time) error {
	for _, stat := range m.dlstats {
		stat.Day, stat.Week, stat.Month = 0, 0, 0
		for _, entry := range m.dllog {
			if entry.LibID != stat.LibID {
				continue
			}
			if entry.Date.After(now.Add(-24 * time.Hour)) {
				stat.Day++
			}
			if entry.Date.After(now.Add(-7 * 24 * time.Hour)) {
				stat.Week++
			}
			if entry.Date.After(now.Add(-30 * 24 * time.Hour)) {
				stat.Month++
			}
		}
	}
	return nil
}

// memInvalidator records invalidation reasons.
type memInvalidator struct {
	reasons []string
}

func (m *memInvalidator) Invalidate(_ context.Context, reason string) error {
	m.reasons = append(m.reasons, reason)
	return nil
}

func (m *memInvalidator) contains(reason string) bool {
	return strings.Contains(strings.Join(m.reasons, ","), reason)
}
