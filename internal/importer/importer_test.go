package importer

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-tracker/internal/kv"
	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/store"
)

const dump = `[
  {"id": 1704067200000, "name": "Lathe", "type": "CNC", "lastServiced": "2024-01-01", "interval": 30},
  {"id": 1704153600000, "name": "Pump", "type": "Hydraulic", "lastServiced": "2024-01-02", "interval": 7}
]`

func TestDecode(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  int
		expectErr bool
	}{
		{name: "Bare array", input: dump, expected: 2},
		{name: "Storage dump object", input: `{"theme": "dark", "machines": ` + dump + `}`, expected: 2},
		{name: "Empty array", input: ` [] `, expected: 0},
		{name: "Object without machines", input: `{"theme": "dark"}`, expectErr: true},
		{name: "Scalar", input: `42`, expectErr: true},
		{name: "Empty", input: ``, expectErr: true},
		{name: "Broken JSON", input: `[{"id": 1,`, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(strings.NewReader(tc.input))
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tc.expected)
		})
	}
}

func TestEncodeDecodeKeepsRecords(t *testing.T) {
	machines, err := Decode(strings.NewReader(dump))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, machines))

	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, machines, again)
	assert.Equal(t, "2024-01-02", again[1].LastServiced.String())
}

func TestEncode_Nil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFromReader(t *testing.T) {
	ctx := context.Background()
	s := store.New(kv.NewMemory())

	res, err := FromReader(ctx, s, strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)

	res, err = FromReader(ctx, s, strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 2, res.Duplicates)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1704067200000, 1704153600000}, []int64{list[0].ID, list[1].ID})
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/machines.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(dump))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	ctx := context.Background()

	t.Run("imports a remote collection", func(t *testing.T) {
		s := store.New(kv.NewMemory())
		res, err := f.FromURL(ctx, s, srv.URL+"/machines.json")
		require.NoError(t, err)
		assert.Equal(t, 2, res.Added)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		_, err := f.Fetch(ctx, srv.URL+"/missing")
		assert.ErrorContains(t, err, "404")
	})

	t.Run("unreachable host", func(t *testing.T) {
		_, err := NewFetcher(200*time.Millisecond).Fetch(ctx, "http://127.0.0.1:1/machines.json")
		assert.Error(t, err)
	})
}

func TestDecode_DateTimestamps(t *testing.T) {
	got, err := Decode(strings.NewReader(`[{"id": 5, "name": "A", "type": "B", "lastServiced": "2024-02-03T10:00:00.000Z", "interval": 1}]`))
	require.NoError(t, err)
	assert.Equal(t, model.NewDate(2024, 2, 3), got[0].LastServiced)
}
