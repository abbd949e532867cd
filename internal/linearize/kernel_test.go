package linearize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomdao/gomdao/internal/ad"
	"github.com/gomdao/gomdao/internal/array"
)

func doubler(tr *ad.Trace, args []*ad.Value, _ []any) ad.Result {
	return ad.Single(args[0].Scale(2))
}

func TestKernelReusesSameSignature(t *testing.T) {
	k := NewKernel(doubler, true, nil)
	shapes := []array.Shape{{3}}

	c1, err := k.Ensure(shapes, nil, 7)
	require.NoError(t, err)
	c2, err := k.Ensure(shapes, nil, 7)
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, 1, k.Specializations())
}

func TestKernelRespecializesOnShapeChange(t *testing.T) {
	k := NewKernel(doubler, true, nil)

	_, err := k.Ensure([]array.Shape{{3}}, nil, 0)
	require.NoError(t, err)
	_, err = k.Ensure([]array.Shape{{4}}, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, k.Specializations())

	// The kernel keeps only the latest signature.
	_, err = k.Ensure([]array.Shape{{3}}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, k.Specializations())
}

func TestKernelRespecializesOnDiscreteChange(t *testing.T) {
	k := NewKernel(doubler, true, nil)
	shapes := []array.Shape{{2}}

	_, err := k.Ensure(shapes, nil, 1)
	require.NoError(t, err)
	_, err = k.Ensure(shapes, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, k.Specializations())
	assert.Equal(t, 0, k.Retraces())
}

func TestKernelNoJIT(t *testing.T) {
	k := NewKernel(doubler, false, nil)
	shapes := []array.Shape{{2}}

	c1, err := k.Ensure(shapes, nil, 1)
	require.NoError(t, err)
	c2, err := k.Ensure(shapes, nil, 1)
	require.NoError(t, err)

	assert.NotSame(t, c1, c2)
	assert.Equal(t, 2, k.Retraces())
	assert.Equal(t, 0, k.Specializations())
}

func TestKernelCompileErrorPropagates(t *testing.T) {
	bad := func(tr *ad.Trace, args []*ad.Value, _ []any) ad.Result {
		return ad.Result{}
	}
	k := NewKernel(bad, true, nil)
	_, err := k.Ensure([]array.Shape{{1}}, nil, 0)
	assert.Error(t, err)
	assert.Nil(t, k.Compiled())
	assert.Equal(t, 0, k.Specializations())
}
