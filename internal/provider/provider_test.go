package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("index", "jy", FetcherFunc(func(ctx context.Context, req Request) (*frame.Table, error) {
		return frame.FromRows([]string{"code"}, [][]any{{"000300.SH"}}), nil
	}))

	f, err := r.Lookup("index", "jy")
	require.NoError(t, err)
	tb, err := f.Fetch(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, tb.Len())

	_, err = r.Lookup("index", "wind")
	assert.True(t, errors.Is(err, ErrNotRegistered))
	assert.Equal(t, []string{"jy"}, r.Providers("index"))
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	noop := FetcherFunc(func(context.Context, Request) (*frame.Table, error) { return frame.New(), nil })
	r.Register("stock", "jy", noop)

	ok, missing, err := r.Resolve("stock", []string{"wind", "jy"})
	require.NoError(t, err)
	assert.Equal(t, []string{"jy"}, ok)
	assert.Len(t, missing, 1)

	_, _, err = r.Resolve("factor", []string{"jy"})
	assert.ErrorIs(t, err, ErrNotRegistered)
}
