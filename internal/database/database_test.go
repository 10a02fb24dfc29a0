package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// setupTestDB creates a writable catalog in a temp dir. An optional Options
// value controls how it is opened.
func setupTestDB(t testing.TB, opts ...*Options) (db *Database, dbPath string) {
	t.Helper()

	dbPath = filepath.Join(t.TempDir(), "db.sqlite3")

	var dbOpts *Options
	if len(opts) > 0 {
		dbOpts = opts[0]
	}

	db, err := New(context.Background(), dbPath, dbOpts)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, dbPath
}

func addMovie(t testing.TB, db *Database, title string, year int) int64 {
	t.Helper()
	id, err := db.AddMovie(context.Background(), &Movie{CanonicalTitle: title, SortTitle: title, Year: year, Source: SourceScan})
	if err != nil {
		t.Fatalf("AddMovie(%q) error = %v", title, err)
	}
	return id
}

func TestNewCreatesSchema(t *testing.T) {
	t.Parallel()

	db, dbPath := setupTestDB(t)
	ctx := context.Background()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("catalog file not created: %v", err)
	}
	v, err := db.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("Version() = %d, want %d", v, SchemaVersion)
	}
	for _, table := range []string{"movie", "media_file", "image", "play_state", "schema_version"} {
		if !db.tableExists(ctx, table) {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestReopenPreservesData(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "db.sqlite3")
	ctx := context.Background()

	db, err := New(ctx, dbPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	id := addMovie(t, db, "Heat", 1995)
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = New(ctx, dbPath, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	m, err := db.GetMovie(ctx, id)
	if err != nil {
		t.Fatalf("GetMovie() after reopen error = %v", err)
	}
	if m.CanonicalTitle != "Heat" || m.Year != 1995 {
		t.Errorf("GetMovie() = %+v", m)
	}
	if v, _ := db.Version(ctx); v != SchemaVersion {
		t.Errorf("Version() after reopen = %d", v)
	}
}

func TestCatalogLock(t *testing.T) {
	t.Parallel()

	_, dbPath := setupTestDB(t)

	_, err := New(context.Background(), dbPath, nil)
	if !errors.Is(err, ErrCatalogLocked) {
		t.Fatalf("second writable New() error = %v, want ErrCatalogLocked", err)
	}

	ro, err := New(context.Background(), dbPath, &Options{ReadOnly: true})
	if err != nil {
		t.Fatalf("read-only New() error = %v", err)
	}
	defer ro.Close()

	if _, err := ro.AddMovie(context.Background(), &Movie{CanonicalTitle: "Nope"}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("AddMovie() on read-only handle error = %v, want ErrReadOnly", err)
	}
	if _, err := ro.ListMovies(context.Background(), OrderTitle, 0); err != nil {
		t.Errorf("ListMovies() on read-only handle error = %v", err)
	}
}

func TestReadOnlyRequiresExistingCatalog(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing.sqlite3"), &Options{ReadOnly: true})
	if err == nil {
		t.Error("read-only New() on missing catalog succeeded")
	}
}

func TestLockReleasedOnClose(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "db.sqlite3")
	db, err := New(context.Background(), dbPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(dbPath + ".lock"); err != nil {
		t.Errorf("lock file removed on Close(): %v", err)
	}

	again, err := New(context.Background(), dbPath, nil)
	if err != nil {
		t.Fatalf("New() after Close() error = %v", err)
	}
	defer again.Close()

	// The kept lock file still excludes a second writer.
	if _, err := New(context.Background(), dbPath, nil); !errors.Is(err, ErrCatalogLocked) {
		t.Errorf("concurrent New() error = %v, want ErrCatalogLocked", err)
	}
}

func TestMigrationFromVersionOne(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "old.sqlite3")
	raw, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := raw.ExecContext(ctx, "CREATE TABLE schema_version (version INTEGER NOT NULL); INSERT INTO schema_version VALUES (0);"); err != nil {
		t.Fatal(err)
	}
	tx, err := raw.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := migrateCoreTables(ctx, tx); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if _, err := raw.ExecContext(ctx, `
		UPDATE schema_version SET version = 1;
		INSERT INTO movie (id, canonical_title) VALUES (1, 'Alien');
		INSERT INTO image (id, movie_id, kind, path) VALUES (10, 1, 'poster', '/a.jpg');
		INSERT INTO image (id, movie_id, kind, path) VALUES (11, 1, 'poster', '/b.jpg');
	`); err != nil {
		t.Fatal(err)
	}
	_ = raw.Close()

	db, err := New(ctx, dbPath, nil)
	if err != nil {
		t.Fatalf("New() on v1 catalog error = %v", err)
	}
	defer db.Close()

	if v, _ := db.Version(ctx); v != SchemaVersion {
		t.Errorf("Version() = %d, want %d", v, SchemaVersion)
	}
	images, err := db.ImagesForMovie(ctx, 1, ImageKindPoster)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 || images[0].ID != 10 {
		t.Errorf("images after migration = %+v, want only id 10", images)
	}

	f := &MediaFile{MovieID: 1, Path: "/m/alien.mkv", SizeBytes: 1, MtimeNS: 1}
	if _, err := db.UpsertMediaFile(ctx, f); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateMediaFileMetadata(ctx, f.ID, "h264", 1920, 1080, 6); err != nil {
		t.Errorf("UpdateMediaFileMetadata() after migration error = %v", err)
	}
}

func TestMovieOperations(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()

	withYear := addMovie(t, db, "Dune", 2021)
	noYear := addMovie(t, db, "Dune", 0)

	got, err := db.FindMovieByTitleYear(ctx, "Dune", 2021)
	if err != nil || got.ID != withYear {
		t.Errorf("FindMovieByTitleYear(Dune, 2021) = %+v, %v", got, err)
	}
	got, err = db.FindMovieByTitleYear(ctx, "Dune", 0)
	if err != nil || got.ID != noYear {
		t.Errorf("FindMovieByTitleYear(Dune, 0) = %+v, %v", got, err)
	}
	if _, err := db.FindMovieByTitleYear(ctx, "Dune", 1984); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindMovieByTitleYear(Dune, 1984) error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetMovie(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMovie(9999) error = %v, want ErrNotFound", err)
	}

	if err := db.SetMovieRuntime(ctx, withYear, 9360); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateMovieTitle(ctx, withYear, "Dune: Part One", "Dune: Part One"); err != nil {
		t.Fatal(err)
	}
	m, err := db.GetMovie(ctx, withYear)
	if err != nil {
		t.Fatal(err)
	}
	if m.RuntimeSec != 9360 || m.CanonicalTitle != "Dune: Part One" || m.Source != SourceScan {
		t.Errorf("GetMovie() = %+v", m)
	}
	if m.CreatedAt.IsZero() || time.Since(m.CreatedAt) > time.Hour {
		t.Errorf("CreatedAt = %v", m.CreatedAt)
	}
	if err := db.UpdateMovieTitle(ctx, 9999, "x", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateMovieTitle(9999) error = %v, want ErrNotFound", err)
	}

	if _, err := db.AddMovie(ctx, &Movie{CanonicalTitle: "  "}); err == nil {
		t.Error("AddMovie() with blank title succeeded")
	}
}

func TestMediaFileOperations(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()
	movieID := addMovie(t, db, "Alien", 1979)

	f := &MediaFile{MovieID: movieID, Path: "/lib/Alien.1979.mkv", SizeBytes: 100, MtimeNS: 5, Inode: 42, Device: 7, Fingerprint: "fp-alien"}
	isNew, err := db.UpsertMediaFile(ctx, f)
	if err != nil || !isNew || f.ID == 0 {
		t.Fatalf("UpsertMediaFile() = %v, %v (id %d)", isNew, err, f.ID)
	}

	again := &MediaFile{MovieID: movieID, Path: f.Path, SizeBytes: 200, MtimeNS: 6, Fingerprint: "fp-alien"}
	isNew, err = db.UpsertMediaFile(ctx, again)
	if err != nil || isNew || again.ID != f.ID {
		t.Fatalf("second UpsertMediaFile() = %v, %v (id %d, want %d)", isNew, err, again.ID, f.ID)
	}

	got, err := db.GetMediaFileByPath(ctx, f.Path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SizeBytes != 200 || got.Inode != 0 || got.Fingerprint != "fp-alien" {
		t.Errorf("GetMediaFileByPath() = %+v", got)
	}

	dup := &MediaFile{MovieID: movieID, Path: "/lib/copy/Alien.mkv", SizeBytes: 200, MtimeNS: 6, Fingerprint: "fp-alien"}
	if _, err := db.UpsertMediaFile(ctx, dup); err != nil {
		t.Fatal(err)
	}
	matches, err := db.MediaFilesByFingerprint(ctx, "fp-alien")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 || matches[0].ID != f.ID || matches[1].ID != dup.ID {
		t.Errorf("MediaFilesByFingerprint() = %+v", matches)
	}
	if none, _ := db.MediaFilesByFingerprint(ctx, ""); len(none) != 0 {
		t.Errorf("MediaFilesByFingerprint(\"\") = %+v", none)
	}

	moved := *got
	moved.Path = "/lib/Alien (1979).mkv"
	moved.Inode = 43
	if err := db.UpdateMediaFilePathAndStats(ctx, &moved); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetMediaFileByPath(ctx, f.Path); !errors.Is(err, ErrNotFound) {
		t.Errorf("old path still present: %v", err)
	}
	if m, err := db.GetMediaFileByPath(ctx, moved.Path); err != nil || m.ID != f.ID || m.Inode != 43 {
		t.Errorf("moved file = %+v, %v", m, err)
	}

	stale := &MediaFile{MovieID: movieID, Path: "/lib/Other.mkv", SizeBytes: 1, MtimeNS: 1, Fingerprint: "fp-other"}
	if _, err := db.UpsertMediaFile(ctx, stale); err != nil {
		t.Fatal(err)
	}
	onto := moved
	onto.Path = stale.Path
	if err := db.UpdateMediaFilePathAndStats(ctx, &onto); err != nil {
		t.Fatalf("move onto an occupied path: %v", err)
	}
	if m, err := db.GetMediaFileByPath(ctx, stale.Path); err != nil || m.ID != f.ID {
		t.Errorf("file at occupied path = %+v, %v; want row %d", m, err, f.ID)
	}
	if left, _ := db.MediaFilesByFingerprint(ctx, "fp-other"); len(left) != 0 {
		t.Errorf("stale row survived: %+v", left)
	}
	onto.Path = moved.Path
	if err := db.UpdateMediaFilePathAndStats(ctx, &onto); err != nil {
		t.Fatal(err)
	}

	if err := db.UpdateMediaFileMetadata(ctx, f.ID, "hevc", 3840, 2160, 8); err != nil {
		t.Fatal(err)
	}
	files, err := db.MediaFilesForMovie(ctx, movieID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].VideoCodec != "hevc" || files[0].Width != 3840 || files[0].AudioChannels != 8 {
		t.Errorf("MediaFilesForMovie() = %+v", files)
	}
}

func TestRelinkMediaFileByPath(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()
	movieID := addMovie(t, db, "Ran", 1985)
	if _, err := db.UpsertMediaFile(ctx, &MediaFile{MovieID: movieID, Path: "/old/Ran.mkv", SizeBytes: 1, MtimeNS: 1}); err != nil {
		t.Fatal(err)
	}

	ok, err := db.RelinkMediaFileByPath(ctx, "/old/Ran.mkv", "/new/Ran.mkv")
	if err != nil || !ok {
		t.Fatalf("RelinkMediaFileByPath() = %v, %v", ok, err)
	}
	if _, err := db.GetMediaFileByPath(ctx, "/new/Ran.mkv"); err != nil {
		t.Errorf("relinked file not found: %v", err)
	}

	ok, err = db.RelinkMediaFileByPath(ctx, "/old/Ran.mkv", "/elsewhere.mkv")
	if err != nil || ok {
		t.Errorf("RelinkMediaFileByPath() on missing path = %v, %v", ok, err)
	}
}

func TestImages(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()
	movieID := addMovie(t, db, "Brazil", 1985)

	first := &Image{MovieID: movieID, Kind: ImageKindPoster, Path: "/c/1.jpg", Src: "placeholder", Width: 1, Height: 1}
	if _, err := db.AddImage(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &Image{MovieID: movieID, Kind: ImageKindPoster, Path: "/c/2.jpg", Src: "ffmpeg", Width: 1778, Height: 1000}
	if _, err := db.AddImage(ctx, second); err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("replacing image changed id from %d to %d", first.ID, second.ID)
	}

	images, err := db.ImagesForMovie(ctx, movieID, ImageKindPoster)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 || images[0].Path != "/c/2.jpg" || images[0].Src != "ffmpeg" || images[0].Height != 1000 {
		t.Errorf("ImagesForMovie() = %+v", images)
	}
	if all, _ := db.ImagesForMovie(ctx, movieID, ""); len(all) != 1 {
		t.Errorf("ImagesForMovie(all) = %+v", all)
	}
	if none, _ := db.ImagesForMovie(ctx, movieID, "backdrop"); len(none) != 0 {
		t.Errorf("ImagesForMovie(backdrop) = %+v", none)
	}
}

func TestPosterRecords(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()

	withFile := addMovie(t, db, "Paprika", 2006)
	if err := db.SetMovieRuntime(ctx, withFile, 5400); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertMediaFile(ctx, &MediaFile{MovieID: withFile, Path: "/a/nofp.mkv", SizeBytes: 1, MtimeNS: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertMediaFile(ctx, &MediaFile{MovieID: withFile, Path: "/a/paprika.mkv", SizeBytes: 1, MtimeNS: 1, Fingerprint: "fp-p"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddImage(ctx, &Image{MovieID: withFile, Kind: ImageKindPoster, Path: "/c/p.jpg", Src: "ffmpeg"}); err != nil {
		t.Fatal(err)
	}

	orphan := addMovie(t, db, "Orphan", 0)
	if _, err := db.AddImage(ctx, &Image{MovieID: orphan, Kind: ImageKindPoster, Path: "/c/o.jpg", Src: "placeholder"}); err != nil {
		t.Fatal(err)
	}

	records, err := db.PosterRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("PosterRecords() = %+v", records)
	}
	if r := records[0]; r.MediaPath != "/a/paprika.mkv" || r.Fingerprint != "fp-p" || r.RuntimeSec != 5400 {
		t.Errorf("record[0] = %+v", r)
	}
	if r := records[1]; r.MediaPath != "" || r.Fingerprint != "" || r.Image.Src != "placeholder" {
		t.Errorf("record[1] = %+v", r)
	}
}

func TestMovieIDsByPathPrefix(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()

	a := addMovie(t, db, "A", 0)
	b := addMovie(t, db, "B", 0)
	c := addMovie(t, db, "C", 0)
	for _, f := range []MediaFile{
		{MovieID: a, Path: "/lib/films/a.mkv"},
		{MovieID: a, Path: "/lib/films/extra/a2.mkv"},
		{MovieID: b, Path: `C:\lib\films\b.mkv`},
		{MovieID: c, Path: "/lib/films_old/c.mkv"},
	} {
		f := f
		if _, err := db.UpsertMediaFile(ctx, &f); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.MovieIDsByPathPrefix(ctx, "/lib/films/")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int64{a}) {
		t.Errorf("MovieIDsByPathPrefix(/lib/films/) = %v, want [%d]", got, a)
	}

	got, err = db.MovieIDsByPathPrefix(ctx, `C:\lib\films`)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int64{b}) {
		t.Errorf("MovieIDsByPathPrefix(C:\\lib\\films) = %v, want [%d]", got, b)
	}

	all, err := db.AllMovieIDs(ctx)
	if err != nil || !slices.Equal(all, []int64{a, b, c}) {
		t.Errorf("AllMovieIDs() = %v, %v", all, err)
	}
}

func TestListMovies(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()

	for _, m := range []Movie{
		{CanonicalTitle: "The Matrix", SortTitle: "Matrix", Year: 1999},
		{CanonicalTitle: "Alien", SortTitle: "Alien", Year: 1979},
		{CanonicalTitle: "Unknown", SortTitle: "Unknown"},
	} {
		m := m
		if _, err := db.AddMovie(ctx, &m); err != nil {
			t.Fatal(err)
		}
	}

	titles := func(ms []Movie) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.CanonicalTitle
		}
		return out
	}

	byTitle, err := db.ListMovies(ctx, OrderTitle, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(byTitle); !slices.Equal(got, []string{"Alien", "The Matrix", "Unknown"}) {
		t.Errorf("ListMovies(title) = %v", got)
	}

	byYear, err := db.ListMovies(ctx, OrderYear, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(byYear); !slices.Equal(got, []string{"Alien", "The Matrix", "Unknown"}) {
		t.Errorf("ListMovies(year) = %v", got)
	}

	recent, err := db.ListMovies(ctx, OrderRecent, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(recent); !slices.Equal(got, []string{"Unknown", "Alien"}) {
		t.Errorf("ListMovies(recent, 2) = %v", got)
	}

	if ParseListOrder("recent") != OrderRecent || ParseListOrder("bogus") != OrderTitle {
		t.Error("ParseListOrder() mapping wrong")
	}
}

func TestPlayState(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()
	a := addMovie(t, db, "A", 0)
	b := addMovie(t, db, "B", 0)
	c := addMovie(t, db, "C", 0)

	if _, err := db.PlayState(ctx, a); !errors.Is(err, ErrNotFound) {
		t.Errorf("PlayState() before set error = %v, want ErrNotFound", err)
	}

	if err := db.SetPlayState(ctx, PlayState{MovieID: a, PositionSec: 120}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetPlayState(ctx, PlayState{MovieID: b, PositionSec: 900}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetPlayState(ctx, PlayState{MovieID: c, PositionSec: 50}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetWatched(ctx, c, true); err != nil {
		t.Fatal(err)
	}

	st, err := db.PlayState(ctx, c)
	if err != nil || !st.Watched || st.PositionSec != 50 {
		t.Errorf("PlayState(c) = %+v, %v", st, err)
	}

	ids, err := db.ContinueWatchingIDs(ctx)
	if err != nil || !slices.Equal(ids, []int64{b, a}) {
		t.Errorf("ContinueWatchingIDs() = %v, %v", ids, err)
	}

	if err := db.ResetProgress(ctx, b); err != nil {
		t.Fatal(err)
	}
	if st, _ := db.PlayState(ctx, b); st.PositionSec != 0 || st.Watched {
		t.Errorf("PlayState(b) after reset = %+v", st)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()
	a := addMovie(t, db, "A", 0)
	b := addMovie(t, db, "B", 0)
	if _, err := db.UpsertMediaFile(ctx, &MediaFile{MovieID: a, Path: "/a.mkv"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddImage(ctx, &Image{MovieID: a, Kind: ImageKindPoster, Path: "/a.jpg", Src: "ffmpeg"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddImage(ctx, &Image{MovieID: b, Kind: ImageKindPoster, Path: "/b.jpg", Src: "placeholder"}); err != nil {
		t.Fatal(err)
	}

	s, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Movies: 2, MediaFiles: 1, PosterImages: 2, PlaceholderImages: 1}
	if s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}

	ms, err := db.CollectStats()
	if err != nil || ms.Movies != 2 || ms.PlaceholderImages != 1 {
		t.Errorf("CollectStats() = %+v, %v", ms, err)
	}
}

func TestGetMovieDetail(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()
	id := addMovie(t, db, "Heat", 1995)

	detail, err := db.GetMovieDetail(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if detail.CanonicalTitle != "Heat" || len(detail.Files) != 0 || detail.Files == nil {
		t.Errorf("bare detail = %+v", detail)
	}
	if detail.Poster != nil || detail.PlayState != nil {
		t.Errorf("unexpected poster or play state: %+v", detail)
	}

	if _, err := db.UpsertMediaFile(ctx, &MediaFile{MovieID: id, Path: "/m/heat.mkv", SizeBytes: 42}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddImage(ctx, &Image{MovieID: id, Kind: ImageKindPoster, Path: "/c/heat.jpg", Src: "ffmpeg"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetPlayState(ctx, PlayState{MovieID: id, PositionSec: 300}); err != nil {
		t.Fatal(err)
	}

	detail, err = db.GetMovieDetail(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.Files) != 1 || detail.Files[0].Path != "/m/heat.mkv" {
		t.Errorf("Files = %+v", detail.Files)
	}
	if detail.Poster == nil || detail.Poster.Path != "/c/heat.jpg" {
		t.Errorf("Poster = %+v", detail.Poster)
	}
	if detail.PlayState == nil || detail.PlayState.PositionSec != 300 {
		t.Errorf("PlayState = %+v", detail.PlayState)
	}

	if _, err := db.GetMovieDetail(ctx, id+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMovieDetail(missing) error = %v, want ErrNotFound", err)
	}
}
