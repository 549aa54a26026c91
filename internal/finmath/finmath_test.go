package finmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompoundAmount(t *testing.T) {
	got, err := CompoundAmount(1000, 0.05, 1, 12)
	require.NoError(t, err)
	assert.InDelta(t, 1051.16, got, 0.01)

	// Zero rate leaves the principal unchanged for any horizon.
	for _, years := range []float64{0, 1, 7.5, 30} {
		got, err := CompoundAmount(1000, 0, years, 12)
		require.NoError(t, err)
		assert.InDelta(t, 1000, got, 1e-9, "years=%v", years)
	}

	// Non-positive frequency falls back to monthly compounding.
	withDefault, err := CompoundAmount(1000, 0.05, 2, 0)
	require.NoError(t, err)
	monthly, err := CompoundAmount(1000, 0.05, 2, 12)
	require.NoError(t, err)
	assert.Equal(t, monthly, withDefault)

	_, err = CompoundAmount(1000, -0.05, 1, 12)
	assert.ErrorIs(t, err, ErrNegativeRate)
	_, err = CompoundAmount(1000, 0.05, -1, 12)
	assert.ErrorIs(t, err, ErrNegativeYears)
}

func TestSimpleAmount(t *testing.T) {
	got, err := SimpleAmount(1000, 0.05, 3)
	require.NoError(t, err)
	assert.InDelta(t, 1150, got, 1e-9)

	got, err = SimpleAmount(1000, 0, 10)
	require.NoError(t, err)
	assert.InDelta(t, 1000, got, 1e-9)

	_, err = SimpleAmount(1000, -0.01, 1)
	assert.ErrorIs(t, err, ErrNegativeRate)
}

func TestFutureValueOfAnnuityZeroRate(t *testing.T) {
	got, err := FutureValueOfAnnuity(250, 0, 24)
	require.NoError(t, err)
	assert.InDelta(t, 250*24, got, 1e-9)
}

func TestFutureValueOfAnnuityCompounds(t *testing.T) {
	got, err := FutureValueOfAnnuity(100, 0.06, 12)
	require.NoError(t, err)
	// One year of 100/month at 6% annual beats the flat 1200 sum.
	assert.Greater(t, got, 1200.0)
	assert.InDelta(t, 1233.56, got, 0.01)

	_, err = FutureValueOfAnnuity(100, 0.06, -1)
	assert.ErrorIs(t, err, ErrNegativePeriods)
}

func TestPresentValueOfAnnuity(t *testing.T) {
	got, err := PresentValueOfAnnuity(100, 0, 12)
	require.NoError(t, err)
	assert.InDelta(t, 1200, got, 1e-9)

	got, err = PresentValueOfAnnuity(100, 0.06, 12)
	require.NoError(t, err)
	// Discounting makes the stream worth less than its flat sum.
	assert.Less(t, got, 1200.0)
	assert.Greater(t, got, 0.0)
}

func TestRequiredPaymentRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		payment float64
		rate    float64
		periods int
	}{
		{100, 0.05, 12},
		{250, 0.07, 60},
		{1, 0.999, 360},
	} {
		fv, err := FutureValueOfAnnuity(tc.payment, tc.rate, tc.periods)
		require.NoError(t, err)
		back, err := RequiredPayment(fv, tc.rate, tc.periods)
		require.NoError(t, err)
		assert.InDelta(t, tc.payment, back, 1e-6, "rate=%v periods=%d", tc.rate, tc.periods)
	}
}

func TestRequiredPaymentZeroRate(t *testing.T) {
	got, err := RequiredPayment(1200, 0, 12)
	require.NoError(t, err)
	assert.InDelta(t, 100, got, 1e-9)

	_, err = RequiredPayment(1200, 0, 0)
	assert.ErrorIs(t, err, ErrNoPeriods)
	_, err = RequiredPayment(1200, -0.05, 12)
	assert.ErrorIs(t, err, ErrNegativeRate)
}

func TestAmortizeZeroRate(t *testing.T) {
	res, err := Amortize(1000, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Months)
	assert.InDelta(t, 0, res.TotalInterest, 1e-9)
	assert.False(t, res.Capped)
}

func TestAmortizeWithInterest(t *testing.T) {
	res, err := Amortize(1200, 110, 0.12)
	require.NoError(t, err)
	assert.False(t, res.Capped)
	assert.Greater(t, res.TotalInterest, 0.0)
	// 12 flat months at zero interest; interest pushes it a little past that.
	assert.GreaterOrEqual(t, res.Months, 11)
	assert.LessOrEqual(t, res.Months, 13)
}

func TestAmortizePaymentBelowInterestStopsImmediately(t *testing.T) {
	// Monthly interest on 100000 at 12% is 1000; an equal payment makes no
	// progress and must not run to the iteration cap.
	res, err := Amortize(100000, 1000, 0.12)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Months)
	assert.InDelta(t, 0, res.TotalInterest, 1e-9)

	res, err = Amortize(100000, 500, 0.12)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Months)
}

func TestAmortizeHitsCap(t *testing.T) {
	// Barely above the interest portion: progress is real but far too slow
	// to finish within the cap.
	res, err := Amortize(100000, 1000.01, 0.12)
	require.NoError(t, err)
	assert.Equal(t, AmortizationIterationCap, res.Months)
	assert.True(t, res.Capped)
}

func TestAmortizeNonPositivePrincipal(t *testing.T) {
	res, err := Amortize(0, 100, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Months)
	assert.False(t, res.Capped)

	_, err = Amortize(1000, 100, -0.05)
	assert.ErrorIs(t, err, ErrNegativeRate)
}
