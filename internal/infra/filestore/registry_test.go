package filestore_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"channel-signature-bot/internal/domain"
	"channel-signature-bot/internal/infra/filestore"
)

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	r := filestore.Load(filepath.Join(t.TempDir(), "channels.json"), nil)
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0", r.Len())
	}
	if got := r.List(); len(got) != 0 {
		t.Errorf("List = %v, want empty", got)
	}
}

func TestLoad_CorruptFileStartsEmpty(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"garbage":      "\x80\x03}q\x00(X",
		"array":        `["a","b"]`,
		"number value": `{"a": 1}`,
		"truncated":    `{"a": "b"`,
		"trailing":     `{"a": "b"} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "channels.json")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			r := filestore.Load(path, nil)
			if r.Len() != 0 {
				t.Errorf("Len = %d, want 0", r.Len())
			}
			// A corrupt store is still writable.
			if err := r.Add("news", "@news"); err != nil {
				t.Fatalf("Add: %v", err)
			}
		})
	}
}

func TestRegistry_RoundTripKeepsOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "channels.json")
	r := filestore.Load(path, nil)
	for _, c := range []domain.Channel{
		{ID: "zeta", Name: "@zeta"},
		{ID: "-100123", Name: "Channel -100123"},
		{ID: "alpha", Name: "@alpha"},
	} {
		if err := r.Add(c.ID, c.Name); err != nil {
			t.Fatalf("Add(%s): %v", c.ID, err)
		}
	}

	reloaded := filestore.Load(path, nil)
	if !reflect.DeepEqual(reloaded.List(), r.List()) {
		t.Errorf("reloaded = %v, want %v", reloaded.List(), r.List())
	}
	if got := reloaded.List()[0].ID; got != "zeta" {
		t.Errorf("first id = %q, want zeta", got)
	}
}

func TestRegistry_AddOverwritesInPlace(t *testing.T) {
	t.Parallel()

	r := filestore.Load(filepath.Join(t.TempDir(), "channels.json"), nil)
	_ = r.Add("a", "A")
	_ = r.Add("b", "B")
	_ = r.Add("a", "A2")
	_ = r.Add("a", "A2")

	want := []domain.Channel{{ID: "a", Name: "A2"}, {ID: "b", Name: "B"}}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestRegistry_Remove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "channels.json")
	r := filestore.Load(path, nil)
	_ = r.Add("news", "@news")

	ok, err := r.Remove("999")
	if err != nil || ok {
		t.Fatalf("Remove(unknown) = %v, %v; want false, nil", ok, err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d after unknown remove, want 1", r.Len())
	}

	ok, err = r.Remove("news")
	if err != nil || !ok {
		t.Fatalf("Remove(news) = %v, %v; want true, nil", ok, err)
	}
	if _, found := filestore.Load(path, nil).Get("news"); found {
		t.Error("news still present after reload")
	}
}

func TestRegistry_ReplayMatchesLastWriteWins(t *testing.T) {
	t.Parallel()

	type op struct {
		add      bool
		id, name string
	}
	ops := []op{
		{true, "1", "one"}, {true, "2", "two"}, {false, "1", ""},
		{true, "3", "three"}, {true, "2", "deux"}, {false, "4", ""},
		{true, "1", "uno"},
	}

	path := filepath.Join(t.TempDir(), "channels.json")
	r := filestore.Load(path, nil)
	want := map[string]string{}
	for _, o := range ops {
		if o.add {
			_ = r.Add(o.id, o.name)
			want[o.id] = o.name
		} else {
			_, _ = r.Remove(o.id)
			delete(want, o.id)
		}
	}

	got := map[string]string{}
	for _, c := range filestore.Load(path, nil).List() {
		got[c.ID] = c.Name
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("registry = %v, want %v", got, want)
	}
}

func TestRegistry_NoTempFilesLeft(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := filestore.Load(filepath.Join(dir, "channels.json"), nil)
	_ = r.Add("a", "A")
	_, _ = r.Remove("a")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "channels.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir entries = %v, want [channels.json]", names)
	}
}

func TestRegistry_FailedWriteLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data")
	r := filestore.Load(filepath.Join(dir, "channels.json"), nil)
	_ = r.Add("news", "@news")
	_ = r.Add("tech", "@tech")

	// Replace the directory with a file so every later write fails.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	want := []domain.Channel{{ID: "news", Name: "@news"}, {ID: "tech", Name: "@tech"}}

	if err := r.Add("sport", "@sport"); err == nil {
		t.Fatal("Add succeeded on an unwritable path")
	}
	if err := r.Add("news", "@renamed"); err == nil {
		t.Fatal("rename succeeded on an unwritable path")
	}
	if ok, err := r.Remove("news"); err == nil || ok {
		t.Fatalf("Remove = %v, %v; want false and an error", ok, err)
	}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}
