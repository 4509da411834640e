package keyring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "kQH5HW/8p1uGOVjbgWA7FunAmGO8lsSUXNsu3eow76sz84Q18fWxnyRzBHCd3pd5nE9qa99HAZtuZuj6F1huXg=="

func writeKeyFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeKeyFile(t, dir, "# kraken\nkey = abcdefghijkl\nsecret = "+testSecret+"\n")

	k, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abcdefghijkl", k.Key)
	assert.Equal(t, testSecret, k.Secret)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	writeKeyFile(t, dir, "key=abc\nsecret="+testSecret)

	k, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "abc", k.Key)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.key"))
	assert.Error(t, err)

	path := writeKeyFile(t, dir, "key = abc\n")
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrIncomplete)

	path = writeKeyFile(t, dir, "key = abc\nsecret = not-base64!\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvKey, "")
	t.Setenv(EnvSecret, "")
	k, err := FromEnv()
	require.NoError(t, err)
	assert.Nil(t, k)

	t.Setenv(EnvKey, "env-key")
	_, err = FromEnv()
	assert.ErrorIs(t, err, ErrIncomplete)

	t.Setenv(EnvSecret, testSecret)
	k, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-key", k.Key)

	creds := k.Credentials()
	assert.Equal(t, "env-key", creds.APIKey)
	assert.Equal(t, testSecret, creds.SecretKey)
}

func TestAPIKey_String(t *testing.T) {
	k := &APIKey{Key: "ABCDEFGHIJKLMNOP", Secret: testSecret}

	s := k.String()
	assert.Equal(t, "APIKey{Key:ABCD****MNOP, Secret:****}", s)
	assert.NotContains(t, s, testSecret)

	assert.Equal(t, "APIKey{Key:****, Secret:****}", (&APIKey{Key: "short"}).String())
}
