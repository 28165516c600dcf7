package device

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy gone") }

func TestNewToken_Shape(t *testing.T) {
	token, err := NewToken(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02}))
	require.NoError(t, err)
	assert.Equal(t, "neural_deadbeef0102", token)
	assert.True(t, Valid(token))

	_, err = NewToken(failingReader{})
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("neural_0123456789ab"))
	assert.False(t, Valid("neural_0123"))
	assert.False(t, Valid("mindflow_0123456789ab"))
	assert.False(t, Valid(""))
}

func TestLoadOrCreate_StableAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir)
	require.NoError(t, err)
	token, err := first.LoadOrCreate()
	require.NoError(t, err)
	assert.True(t, Valid(token))

	again, err := first.LoadOrCreate()
	require.NoError(t, err)
	assert.Equal(t, token, again)

	reopened, err := Open(dir)
	require.NoError(t, err)
	got, ok, err := reopened.Token()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, token, got)

	_, err = os.Stat(filepath.Join(dir, IdentityKey))
	assert.NoError(t, err)
}

func TestToken_Absent(t *testing.T) {
	id, err := Open(t.TempDir())
	require.NoError(t, err)

	token, ok, err := id.Token()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestToken_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, IdentityKey), []byte("garbage"), 0o600))

	id, err := Open(dir)
	require.NoError(t, err)
	_, err = id.LoadOrCreate()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestReset_RegeneratesToken(t *testing.T) {
	id, err := Open(t.TempDir(), WithRandom(bytes.NewReader(bytes.Repeat([]byte{0x11}, 12))))
	require.NoError(t, err)

	first, err := id.LoadOrCreate()
	require.NoError(t, err)
	assert.Equal(t, "neural_111111111111", first)

	require.NoError(t, id.Reset())
	require.NoError(t, id.Reset())
	_, ok, err := id.Token()
	require.NoError(t, err)
	assert.False(t, ok)

	id.rand = bytes.NewReader([]byte{0xab, 0xcd, 0xef, 0x00, 0x11, 0x22})
	second, err := id.LoadOrCreate()
	require.NoError(t, err)
	assert.Equal(t, "neural_abcdef001122", second)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
