package persist

import (
	"context"
	"errors"
	"image"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/example/radview/internal/annotation"
	"github.com/example/radview/internal/config"
	"github.com/example/radview/internal/geom"
	"github.com/example/radview/internal/layout"
	"github.com/example/radview/internal/notify"
	"github.com/example/radview/internal/transform"
	"github.com/example/radview/internal/viewer"
)

func sample() *Snapshot {
	zoomed := transform.Default().ZoomBy(4).RotateCW()
	return &Snapshot{
		Images: []ImageState{
			{
				Annotations: annotation.List{
					annotation.Measure{EndX: 30, EndY: 40},
					annotation.Freehand{Points: []geom.Point{{X: 1, Y: 1}, {X: 2, Y: 3}}},
				},
				Settings: zoomed,
			},
			{Annotations: annotation.List{}, Settings: transform.Default()},
		},
		CurrentImageIndex:  1,
		ActiveViewboxIndex: 2,
		Layout:             layout.Grid,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := sample()
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, key := range []string{`"images"`, `"viewboxSettings"`, `"currentImageIndex":1`, `"activeViewboxIndex":2`, `"layout":"2x2"`, `"panOffset"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded state missing %s: %s", key, data)
		}
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", in, out)
	}
}

func TestDecodeDefaultsAndFallbacks(t *testing.T) {
	s, err := Decode([]byte(`{"images":[{"annotations":[]},{"viewboxSettings":{"zoom":9000}}],"layout":"4x4"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Layout != layout.Single {
		t.Errorf("layout = %q", s.Layout)
	}
	if s.Images[0].Settings != transform.Default() {
		t.Errorf("missing settings not defaulted: %+v", s.Images[0].Settings)
	}
	if s.Images[1].Settings.Zoom != transform.MaxZoom || s.Images[1].Settings.Brightness != 100 {
		t.Errorf("partial settings not normalized: %+v", s.Images[1].Settings)
	}
	if _, err := Decode([]byte(`{"images":[{"annotations":[{"type":"blob"}]}]}`)); !errors.Is(err, annotation.ErrUnknownKind) {
		t.Errorf("unknown annotation err = %v", err)
	}
}

func TestMergeOverlapOnly(t *testing.T) {
	snap := sample()
	fresh := make([]ImageState, 3)
	merged := Merge(fresh, snap)
	if len(merged) != 3 {
		t.Fatalf("len = %d", len(merged))
	}
	if len(merged[0].Annotations) != 2 || merged[0].Settings.Rotation != 90 {
		t.Errorf("index 0 not merged: %+v", merged[0])
	}
	if merged[2].Annotations != nil {
		t.Errorf("index 2 should be untouched")
	}
	short := Merge(make([]ImageState, 1), snap)
	if len(short) != 1 || len(short[0].Annotations) != 2 {
		t.Errorf("shorter target merged wrongly: %+v", short)
	}
}

func TestFromViewerCarriesLiveTransform(t *testing.T) {
	c := viewer.New(viewer.WithSize(800, 600))
	c.Dispatch(viewer.AddImages{Images: []viewer.ImageSpec{{ID: "a"}, {ID: "b"}}})
	c.Dispatch(viewer.ImageLoaded{ID: "a", Bitmap: image.NewGray(image.Rect(0, 0, 2, 2))})
	c.Dispatch(viewer.SelectTool{Tool: viewer.ToolMeasure})
	c.Dispatch(viewer.PointerDown{P: geom.Pt(0, 0)})
	c.Dispatch(viewer.PointerMove{P: geom.Pt(30, 40)})
	c.Dispatch(viewer.PointerUp{})
	c.Dispatch(viewer.ZoomStep{Steps: 2})

	s := FromViewer(c.Snapshot())
	if len(s.Images) != 2 || len(s.Images[0].Annotations) != 1 {
		t.Fatalf("unexpected images %+v", s.Images)
	}
	if s.Images[0].Settings.Zoom != 120 {
		t.Fatalf("current image settings = %+v", s.Images[0].Settings)
	}
	if s.Images[1].Annotations == nil {
		t.Fatalf("empty annotation list should encode as []")
	}

	c2 := viewer.New(viewer.WithSize(800, 600))
	c2.Dispatch(viewer.AddImages{Images: []viewer.ImageSpec{{ID: "x"}}})
	c2.Dispatch(s.Restore())
	snap := c2.Snapshot()
	if len(snap.Images[0].Annotations) != 1 || snap.Transforms[0].Zoom != 120 {
		t.Fatalf("restore into shorter list failed: %+v", snap.Images[0])
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Load(ctx, "study-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load missing err = %v", err)
	}
	if err := s.Save(ctx, "study-1", sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "study-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, sample()) {
		t.Fatalf("loaded %+v", got)
	}
	if err := s.Save(ctx, "../etc", sample()); !errors.Is(err, ErrInvalidStudyID) {
		t.Fatalf("Save invalid id err = %v", err)
	}
	if err := s.Delete(ctx, "study-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "study-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}
}

func TestMemoryStore(t *testing.T) { testStore(t, NewMemoryStore()) }

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	testStore(t, s)
}

type fakeRow struct {
	data []byte
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*[]byte) = r.data
	return nil
}

type fakeDB struct {
	rows map[string][]byte
	sqls []string
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		f.rows[args[0].(string)] = []byte(args[1].(string))
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "DELETE"):
		if _, ok := f.rows[args[0].(string)]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(f.rows, args[0].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	data, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{data: data}
}

func TestPostgresStore(t *testing.T) {
	db := &fakeDB{rows: map[string][]byte{}}
	s := &PostgresStore{db: db}
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if !strings.Contains(db.sqls[0], "viewer_state") {
		t.Fatalf("schema sql = %s", db.sqls[0])
	}
	testStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(RedisOptions{Addr: mr.Addr(), TTL: time.Hour})
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	testStore(t, s)

	if err := s.Save(context.Background(), "abc", sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mr.Exists("radview:state:abc") {
		t.Fatalf("keys = %v", mr.Keys())
	}
	if ttl := mr.TTL("radview:state:abc"); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if _, err := s.Load(context.Background(), "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load after expiry err = %v", err)
	}
}

func TestRedisStoreWithoutTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(RedisOptions{Addr: mr.Addr()})
	defer s.Close()
	if err := s.Save(context.Background(), "abc", sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL("radview:state:abc"); ttl != 0 {
		t.Fatalf("ttl = %v, want none", ttl)
	}
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, c, err := Open(context.Background(), config.Store{Backend: config.BackendRedis, RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("Open redis: %v", err)
	}
	defer c.Close()
	if _, ok := s.(*RedisStore); !ok {
		t.Fatalf("got %T", s)
	}
}

func TestOpenLocalBackends(t *testing.T) {
	ctx := context.Background()
	s, c, err := Open(ctx, config.Store{Backend: config.BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	defer c.Close()
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("got %T", s)
	}
	if s, _, err := Open(ctx, config.Store{Backend: "MEMORY"}); err != nil {
		t.Fatalf("Open memory: %v", err)
	} else if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("got %T", s)
	}
	if _, _, err := Open(ctx, config.Store{Backend: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

type failingStore struct{ MemoryStore }

func (*failingStore) Save(context.Context, string, *Snapshot) error { return errors.New("disk full") }

type countNotifier struct{ events []notify.Event }

func (c *countNotifier) Notify(e notify.Event, _ string) { c.events = append(c.events, e) }

func TestSaverReportsFailureOncePerStreak(t *testing.T) {
	n := &countNotifier{}
	s := &Saver{Store: &failingStore{}, StudyID: "s1", Log: zerolog.Nop(), Notifier: n}
	c := viewer.New()
	c.Dispatch(viewer.AddImages{Images: []viewer.ImageSpec{{ID: "a"}}})
	snap := c.Snapshot()
	s.Hook(snap)
	s.Hook(snap)
	if len(n.events) != 1 || n.events[0] != notify.EventStoreFailed {
		t.Fatalf("events = %v", n.events)
	}
}

func TestSaverWritesEveryChange(t *testing.T) {
	store := NewMemoryStore()
	saver := &Saver{Store: store, StudyID: "s2", Log: zerolog.Nop()}
	c := viewer.New(viewer.WithChangeHook(saver.Hook))
	c.Dispatch(viewer.AddImages{Images: []viewer.ImageSpec{{ID: "a"}}})
	c.Dispatch(viewer.SetLayout{Layout: layout.Split})
	got, err := store.Load(context.Background(), "s2")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Layout != layout.Split || len(got.Images) != 1 {
		t.Fatalf("saved %+v", got)
	}
}

func TestSaverSkipsEmptySession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, "s3", sample()); err != nil {
		t.Fatal(err)
	}
	saver := &Saver{Store: store, StudyID: "s3", Log: zerolog.Nop()}
	saver.Hook(viewer.New().Snapshot())
	got, err := store.Load(ctx, "s3")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Images) != 2 {
		t.Fatalf("stored images = %d, want 2", len(got.Images))
	}
}

func TestRestoreIntoEmptySessionKeepsStoredState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, "s4", sample()); err != nil {
		t.Fatal(err)
	}
	stored, err := store.Load(ctx, "s4")
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	saver := &Saver{Store: store, StudyID: "s4", Log: zerolog.Nop()}
	c := viewer.New(viewer.WithChangeHook(func(s viewer.Snapshot) { calls++; saver.Hook(s) }))
	if c.Dispatch(stored.Restore()) {
		t.Fatal("restore into an empty session reported a change")
	}
	if calls != 0 {
		t.Fatalf("hook ran %d times", calls)
	}
	got, err := store.Load(ctx, "s4")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, sample()) {
		t.Fatalf("stored state changed: %+v", got)
	}
}
