package geocode_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revgeo/pkg/geocode"
	"github.com/sells-group/revgeo/pkg/geocode/mocks"
)

func TestMemo_DuplicateCoordinatesHitProviderOnce(t *testing.T) {
	inner := mocks.NewMockReverser(t)
	inner.On("ReverseGeocode", mock.Anything, 37.7749, -122.4194).
		Return(&geocode.ReverseResult{FormattedAddress: "San Francisco, CA, USA", Source: "google"}, nil).
		Once()

	m, err := geocode.NewMemo(inner, 16)
	require.NoError(t, err)

	for range 3 {
		r, err := m.ReverseGeocode(context.Background(), 37.7749, -122.4194)
		require.NoError(t, err)
		assert.Equal(t, "San Francisco, CA, USA", r.FormattedAddress)
	}
	assert.Equal(t, 1, m.Len())
}

func TestMemo_Contains(t *testing.T) {
	inner := mocks.NewMockReverser(t)
	inner.On("ReverseGeocode", mock.Anything, 37.7749, -122.4194).
		Return(&geocode.ReverseResult{FormattedAddress: "San Francisco, CA, USA"}, nil).
		Once()

	m, err := geocode.NewMemo(inner, 16)
	require.NoError(t, err)
	assert.False(t, m.Contains(37.7749, -122.4194))

	_, err = m.ReverseGeocode(context.Background(), 37.7749, -122.4194)
	require.NoError(t, err)
	assert.True(t, m.Contains(37.7749, -122.4194))
	assert.True(t, m.Contains(37.77490000001, -122.4194))
	assert.False(t, m.Contains(37.7750, -122.4194))
}

func TestMemo_ReturnsCopies(t *testing.T) {
	inner := mocks.NewMockReverser(t)
	inner.On("ReverseGeocode", mock.Anything, 1.0, 2.0).
		Return(&geocode.ReverseResult{FormattedAddress: "A"}, nil).
		Once()

	m, err := geocode.NewMemo(inner, 4)
	require.NoError(t, err)

	first, err := m.ReverseGeocode(context.Background(), 1.0, 2.0)
	require.NoError(t, err)
	first.FormattedAddress = "mutated"

	second, err := m.ReverseGeocode(context.Background(), 1.0, 2.0)
	require.NoError(t, err)
	assert.Equal(t, "A", second.FormattedAddress)
}

func TestMemo_NoResultIsMemoised(t *testing.T) {
	noResult := &geocode.LookupError{Kind: geocode.KindNoResult, Provider: "google", Status: "ZERO_RESULTS"}

	inner := mocks.NewMockReverser(t)
	inner.On("ReverseGeocode", mock.Anything, 0.0, 0.0).Return(nil, noResult).Once()

	m, err := geocode.NewMemo(inner, 4)
	require.NoError(t, err)

	for range 2 {
		_, err := m.ReverseGeocode(context.Background(), 0, 0)
		require.Error(t, err)
		assert.Equal(t, geocode.KindNoResult, geocode.KindOf(err))
	}
}

func TestMemo_TransientErrorsAreNotMemoised(t *testing.T) {
	limited := &geocode.LookupError{Kind: geocode.KindRateLimited, Provider: "google", Status: "OVER_QUERY_LIMIT"}

	inner := mocks.NewMockReverser(t)
	inner.On("ReverseGeocode", mock.Anything, 5.0, 5.0).Return(nil, limited).Once()
	inner.On("ReverseGeocode", mock.Anything, 5.0, 5.0).
		Return(&geocode.ReverseResult{FormattedAddress: "B"}, nil).
		Once()

	m, err := geocode.NewMemo(inner, 4)
	require.NoError(t, err)

	_, err = m.ReverseGeocode(context.Background(), 5, 5)
	require.Error(t, err)

	r, err := m.ReverseGeocode(context.Background(), 5, 5)
	require.NoError(t, err)
	assert.Equal(t, "B", r.FormattedAddress)
}

func TestMemo_InvalidSize(t *testing.T) {
	_, err := geocode.NewMemo(mocks.NewMockReverser(t), 0)
	require.Error(t, err)
}

func TestMemo_Name(t *testing.T) {
	inner := mocks.NewMockReverser(t)
	inner.On("Name").Return("nominatim")

	m, err := geocode.NewMemo(inner, 1)
	require.NoError(t, err)
	assert.Equal(t, "nominatim", m.Name())
}
