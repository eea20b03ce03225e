package batch

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/calc"
)

func parseAll(t *testing.T, srcs ...string) []*calc.Expr {
	t.Helper()
	r := make([]*calc.Expr, len(srcs))
	for i, src := range srcs {
		a, err := calc.ParseString(src)
		require.NoError(t, err, "parsing %q", src)
		r[i] = a
	}
	return r
}

func TestEvalOrder(t *testing.T) {
	var srcs []string
	for i := 0; i < 100; i++ {
		srcs = append(srcs, strconv.Itoa(i)+" * 2")
	}
	r, err := Eval(context.Background(), parseAll(t, srcs...), 7)
	require.NoError(t, err)
	require.Len(t, r, len(srcs))
	for i, res := range r {
		require.NoError(t, res.Err)
		require.Equal(t, float64(i*2), res.Value)
	}
}

func TestEvalKeepsErrors(t *testing.T) {
	r, err := Eval(context.Background(), parseAll(t, "1 + 1", "2 ^ 3", "x", "6 / 3"), 2)
	require.NoError(t, err)
	require.Equal(t, 2.0, r[0].Value)
	require.ErrorIs(t, r[1].Err, calc.ErrUnsupported)
	require.ErrorIs(t, r[2].Err, calc.ErrUnsupported)
	require.NoError(t, r[3].Err)
	require.Equal(t, 2.0, r[3].Value)
}

func TestEvalJobsFloor(t *testing.T) {
	for _, jobs := range []int{-3, 0, 1} {
		r, err := Eval(context.Background(), parseAll(t, "1", "2"), jobs)
		require.NoError(t, err)
		require.Equal(t, []Result{{Value: 1}, {Value: 2}}, r)
	}
}

func TestEvalEmpty(t *testing.T) {
	r, err := Eval(context.Background(), nil, 4)
	require.NoError(t, err)
	require.Empty(t, r)
}

func TestEvalCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := Eval(ctx, parseAll(t, "1", "2", "3"), 1)
	require.True(t, errors.Is(err, context.Canceled))
	require.Nil(t, r)
}
