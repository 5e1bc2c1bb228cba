package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultIsIdempotent(t *testing.T) {
	RegisterDefault()
	RegisterDefault()

	FlagsRaised.WithLabelValues("low_rpm").Add(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(FlagsRaised.WithLabelValues("low_rpm")))

	mfs, err := Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["dispatch_flags_raised_total"])
}
