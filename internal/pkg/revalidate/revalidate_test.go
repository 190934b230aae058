package revalidate

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/yigit/bojio/internal/pkg/metrics"
)

type recorder struct {
	paths []string
	err   error
}

func (r *recorder) PathStale(_ context.Context, path string) error {
	r.paths = append(r.paths, path)
	return r.err
}

func TestMultiTriesEverySink(t *testing.T) {
	failing := &recorder{err: errors.New("redis down")}
	ok := &recorder{}

	before := testutil.ToFloat64(metrics.Revalidations.WithLabelValues("redis", "error"))

	err := Multi(Named("redis", failing), Named("hub", ok)).PathStale(context.Background(), "/event/1")

	assert.ErrorContains(t, err, "redis down")
	assert.Equal(t, []string{"/event/1"}, failing.paths)
	assert.Equal(t, []string{"/event/1"}, ok.paths)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Revalidations.WithLabelValues("redis", "error")))
}

func TestNopAndFunc(t *testing.T) {
	assert.NoError(t, Nop.PathStale(context.Background(), "/"))

	var got string
	f := Func(func(_ context.Context, p string) error { got = p; return nil })
	assert.NoError(t, f.PathStale(context.Background(), "/communities"))
	assert.Equal(t, "/communities", got)
}
