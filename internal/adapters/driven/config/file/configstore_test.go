package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore_Success(t *testing.T) {
	store, dir := setupStore(t)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".grantsync", "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesPrivateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "grantsync")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[dataset\nid = "), 0600))

	store, err := NewConfigStore(dir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CommentOnlyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("# grantsync\n\n"), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	_, ok := store.Get("dataset.id")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, _ := setupStore(t)

	require.NoError(t, store.Set("dataset.id", "abcd-1234"))
	require.NoError(t, store.Set("dataset.limit", 500))
	require.NoError(t, store.Set("sync.history", true))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("dataset.id"), "abcd-1234"},
		{"string wrong type", store.GetString("dataset.limit"), ""},
		{"int", store.GetInt("dataset.limit"), 500},
		{"int wrong type", store.GetInt("dataset.id"), 0},
		{"bool", store.GetBool("sync.history"), true},
		{"bool wrong type", store.GetBool("dataset.id"), false},
		{"missing string", store.GetString("blob.container"), ""},
		{"missing int", store.GetInt("blob.container"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	val, ok := store.Get("blob.container")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Persistence(t *testing.T) {
	store, dir := setupStore(t)

	require.NoError(t, store.Set("dataset.id", "abcd-1234"))
	require.NoError(t, store.Set("dataset.limit", 250))
	require.NoError(t, store.Set("dataset.requests_per_second", 0.5))
	require.NoError(t, store.Set("sync.bootstrap", false))
	require.NoError(t, store.Set("dataset.id", "wxyz-9876"))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "wxyz-9876", reloaded.GetString("dataset.id"))
	assert.Equal(t, 250, reloaded.GetInt("dataset.limit"))
	assert.InDelta(t, 0.5, reloaded.GetFloat("dataset.requests_per_second"), 1e-9)
	assert.False(t, reloaded.GetBool("sync.bootstrap"))
	_, ok := reloaded.Get("sync.bootstrap")
	assert.True(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, _ := setupStore(t)
	require.NoError(t, store.Set("blob.connection_string", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, _ := setupStore(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "dataset.key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetString(key)
			_, _ = store.Get(key)
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestConfigStore_Set_WriteFileError(t *testing.T) {
	store, _ := setupStore(t)
	require.NoError(t, store.Set("dataset.id", "abcd-1234"))

	// A directory in place of the file makes the write fail
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("blob.container", "grants"))
	_, ok := store.Get("blob.container")
	assert.False(t, ok)
}

func TestConfigStore_Set_UnmarshallableValue(t *testing.T) {
	store, _ := setupStore(t)

	assert.Error(t, store.Set("dataset.id", make(chan int)))
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store, _ := setupStore(t)
	require.NoError(t, store.Set("dataset.id", "abcd-1234"))
	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid toml ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_Load_ReadFileError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions do not restrict root")
	}
	store, _ := setupStore(t)
	require.NoError(t, store.Set("dataset.id", "abcd-1234"))

	require.NoError(t, os.Chmod(store.Path(), 0000))
	defer func() { _ = os.Chmod(store.Path(), 0600) }()

	err := store.Load()
	assert.Error(t, err)
	assert.False(t, os.IsNotExist(err))
}

func TestConfigStore_GetInt_Int64Type(t *testing.T) {
	store, _ := setupStore(t)

	// TOML decodes integers as int64
	store.mu.Lock()
	store.data["dataset.limit"] = int64(9999)
	store.mu.Unlock()

	assert.Equal(t, 9999, store.GetInt("dataset.limit"))
}

func TestConfigStore_GetFloat(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("dataset.requests_per_second", 2.5))
	require.NoError(t, store.Set("dataset.limit", 100))
	require.NoError(t, store.Set("blob.backend", "azure"))

	assert.InDelta(t, 2.5, store.GetFloat("dataset.requests_per_second"), 0.0001)
	assert.InDelta(t, 100.0, store.GetFloat("dataset.limit"), 0.0001)
	assert.Zero(t, store.GetFloat("blob.backend"))
	assert.Zero(t, store.GetFloat("nonexistent"))

	// Reloaded integers come back as int64 and still widen
	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, store2.GetFloat("dataset.limit"), 0.0001)
}

func TestConfigStore_NestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("dataset.id", "abcd-1234"))
	require.NoError(t, store.Set("blob.backend", "s3"))
	require.NoError(t, store.Set("blob.container", "grants"))

	content, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "[blob]")
	assert.Contains(t, string(content), "[dataset]")

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "abcd-1234", store2.GetString("dataset.id"))
	assert.Equal(t, "s3", store2.GetString("blob.backend"))
	assert.Equal(t, "grants", store2.GetString("blob.container"))
}

func TestConfigStore_Set_ConflictingKeys(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("blob", "flat"))
	err = store.Set("blob.backend", "azure")
	assert.Error(t, err)

	// Failed writes are rolled back
	_, ok := store.Get("blob.backend")
	assert.False(t, ok)
	assert.Equal(t, "flat", store.GetString("blob"))
}

func TestConfigStore_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("blob.connection_string", "secret"))
	require.NoError(t, store.Set("blob.container", "grants"))

	require.NoError(t, store.Delete("blob.connection_string"))
	require.NoError(t, store.Delete("nonexistent"))

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	_, ok := store2.Get("blob.connection_string")
	assert.False(t, ok)
	assert.Equal(t, "grants", store2.GetString("blob.container"))
}

func TestUnflattenMap(t *testing.T) {
	nested, err := unflattenMap(map[string]any{
		"a.b.c": 1,
		"a.d":   "x",
		"e":     true,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 1},
			"d": "x",
		},
		"e": true,
	}, nested)

	assert.Equal(t, map[string]any{"a.b.c": 1, "a.d": "x", "e": true}, flattenMap(nested, ""))
}
