package admin

import (
	"math"
	"testing"
)

func TestDescribeEmptySample(t *testing.T) {
	d := describe(nil)
	if d.Count != 0 || d.Mean != 0 || d.Median != 0 {
		t.Errorf("Empty sample must yield a zero distribution, got %+v", d)
	}
}

func TestDescribeKnownSample(t *testing.T) {
	d := describe([]float64{60, 70, 80, 90, 100})

	if d.Count != 5 {
		t.Errorf("Expected count 5, got %d", d.Count)
	}
	if d.Mean != 80 {
		t.Errorf("Expected mean 80, got %v", d.Mean)
	}
	if d.Median != 80 {
		t.Errorf("Expected median 80, got %v", d.Median)
	}
	if d.Min != 60 || d.Max != 100 {
		t.Errorf("Expected range [60,100], got [%v,%v]", d.Min, d.Max)
	}
	// Population standard deviation of {60..100 step 10} is sqrt(200)
	if math.Abs(d.StdDev-math.Sqrt(200)) > 1e-9 {
		t.Errorf("Expected std dev %v, got %v", math.Sqrt(200), d.StdDev)
	}
	if d.P25 > d.Median || d.Median > d.P75 {
		t.Errorf("Quartiles out of order: p25=%v median=%v p75=%v", d.P25, d.Median, d.P75)
	}
}

func TestDescribeSingleValue(t *testing.T) {
	d := describe([]float64{85})
	if d.Mean != 85 || d.Median != 85 || d.Min != 85 || d.Max != 85 {
		t.Errorf("Single-value sample collapsed wrong: %+v", d)
	}
	if d.StdDev != 0 {
		t.Errorf("Single value has zero spread, got %v", d.StdDev)
	}
}
