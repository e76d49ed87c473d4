package fs_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/blob/fs"
)

func TestStore_PutGetList(t *testing.T) {
	s, err := fs.New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	info, err := s.Put(ctx, "ledger/casa_01/a.json.gz", strings.NewReader("hola"), "application/gzip")
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
	assert.NotEmpty(t, info.ETag)

	_, err = s.Put(ctx, "ledger/pet_02/b.json.gz", strings.NewReader("x"), "")
	require.NoError(t, err)

	rc, err := s.Get(ctx, "ledger/casa_01/a.json.gz")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hola", string(b))

	list, err := s.List(ctx, "ledger/casa_01/")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ledger/casa_01/a.json.gz", list[0].Key)
}

func TestStore_PutNoSobrescribe(t *testing.T) {
	s, err := fs.New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Put(ctx, "k", strings.NewReader("1"), "")
	require.NoError(t, err)
	_, err = s.Put(ctx, "k", strings.NewReader("2"), "")
	assert.Error(t, err)
}

func TestStore_ClavesInvalidas(t *testing.T) {
	s, err := fs.New(t.TempDir())
	require.NoError(t, err)
	for _, k := range []string{"", "../fuera", "/abs"} {
		_, err := s.Put(context.Background(), k, strings.NewReader("x"), "")
		assert.Error(t, err, k)
	}
}
