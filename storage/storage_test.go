package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"toolrent-cli/api"
	"toolrent-cli/availability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "toolrent")
	t.Setenv(configDirEnv, dir)
	return dir
}

func TestConfigDirDefaultsToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv(configDirEnv, "")
	t.Setenv("HOME", home)

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "toolrent"), dir)
}

func TestFileSessionRoundTrip(t *testing.T) {
	dir := useTempConfigDir(t)
	store := FileSession{}

	data, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, data)

	user, err := json.Marshal(api.User{ID: 3, Name: "Rita", Role: api.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, store.Save(&SessionData{JWT: "tok", User: user}))

	info, err := os.Stat(filepath.Join(dir, sessionFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "tok", data.JWT)

	decoded, err := data.DecodeUser()
	require.NoError(t, err)
	assert.Equal(t, "Rita", decoded.Name)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	data, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFileSessionCorrupt(t *testing.T) {
	dir := useTempConfigDir(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionFile), []byte("{not json"), 0o600))

	_, err := FileSession{}.Load()
	assert.Error(t, err)
}

func TestDecodeUserBadProfile(t *testing.T) {
	data := &SessionData{JWT: "tok", User: json.RawMessage(`"oops"`)}
	_, err := data.DecodeUser()
	assert.Error(t, err)

	user, err := (&SessionData{JWT: "tok"}).DecodeUser()
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLocalCacheRoundTrip(t *testing.T) {
	useTempConfigDir(t)

	cache, err := LoadLocalCache()
	require.NoError(t, err)
	assert.Empty(t, cache)

	start, _ := availability.ParseDate("2025-06-01")
	end, _ := availability.ParseDate("2025-06-03")
	cache = cache.WithReservation(5, availability.DateRange{ID: "9", Start: start, End: end})
	require.NoError(t, SaveLocalCache(cache))

	loaded, err := LoadLocalCache()
	require.NoError(t, err)
	require.Len(t, loaded.For(5), 1)
	assert.Equal(t, "2025-06-01", loaded.For(5)[0].StartDate)

	require.NoError(t, ClearLocalCache())
	loaded, err = LoadLocalCache()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLocalCacheCorruptFile(t *testing.T) {
	dir := useTempConfigDir(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, blockedFile), []byte("[1,2"), 0o644))

	cache, err := LoadLocalCache()
	assert.Error(t, err)
	assert.NotNil(t, cache)
}
