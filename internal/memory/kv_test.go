package memory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonathan/rfp-agent/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kvImplementations(t *testing.T) map[string]KV {
	mr := miniredis.RunT(t)
	client := cache.NewRedis(cache.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]KV{
		"memory": NewMemoryKV(),
		"redis":  NewRedisKV(client),
	}
}

func TestKV_PushListTrim(t *testing.T) {
	for name, kv := range kvImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, v := range []string{"a", "b", "c", "d"} {
				require.NoError(t, kv.Push(ctx, "k", []byte(v), 3))
			}
			got, err := kv.List(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, [][]byte{[]byte("b"), []byte("c"), []byte("d")}, got)

			require.NoError(t, kv.Delete(ctx, "k"))
			got, err = kv.List(ctx, "k")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	buf := []byte("x")
	require.NoError(t, kv.Push(context.Background(), "k", buf, 0))
	buf[0] = 'y'
	got, _ := kv.List(context.Background(), "k")
	assert.Equal(t, "x", string(got[0]))
}
