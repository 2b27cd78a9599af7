package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigbook/internal/shared/faults"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		w       Window
		wantErr bool
	}{
		{"valid hour window", HourWindow("2025-11-01", 18, 20), false},
		{"full day", HourWindow("2025-11-01", 0, 24), false},
		{"zero length", HourWindow("2025-11-01", 18, 18), true},
		{"inverted hours", HourWindow("2025-11-01", 20, 18), true},
		{"hour out of range", HourWindow("2025-11-01", -1, 5), true},
		{"end past midnight", HourWindow("2025-11-01", 20, 25), true},
		{"bad date", HourWindow("01/11/2025", 18, 20), true},
		{"valid range", DateRange("2025-11-01", "2025-11-03"), false},
		{"single day range", DateRange("2025-11-01", "2025-11-01"), false},
		{"inverted range", DateRange("2025-11-03", "2025-11-01"), true},
		{"bad range date", DateRange("2025-11-01", "soon"), true},
		{"empty window", Window{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, faults.ErrInvalidWindow)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOverlapsHours(t *testing.T) {
	base := HourWindow("2025-11-01", 18, 20)

	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{"identical", HourWindow("2025-11-01", 18, 20), true},
		{"overlapping tail", HourWindow("2025-11-01", 19, 21), true},
		{"contained", HourWindow("2025-11-01", 18, 19), true},
		{"touching boundary after", HourWindow("2025-11-01", 20, 22), false},
		{"touching boundary before", HourWindow("2025-11-01", 16, 18), false},
		{"disjoint", HourWindow("2025-11-01", 8, 10), false},
		{"other date", HourWindow("2025-11-02", 18, 20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.OverlapsHours(tt.other))
			// the predicate is symmetric
			assert.Equal(t, tt.want, tt.other.OverlapsHours(base))
		})
	}
}

func TestOverlapsDates(t *testing.T) {
	base := DateRange("2025-11-01", "2025-11-03")

	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{"identical", DateRange("2025-11-01", "2025-11-03"), true},
		{"overlapping tail", DateRange("2025-11-02", "2025-11-04"), true},
		{"touching end day", DateRange("2025-11-03", "2025-11-05"), true},
		{"touching start day", DateRange("2025-10-30", "2025-11-01"), true},
		{"disjoint after", DateRange("2025-11-04", "2025-11-06"), false},
		{"disjoint before", DateRange("2025-10-28", "2025-10-31"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.OverlapsDates(tt.other))
		})
	}
}

func TestHours(t *testing.T) {
	assert.Equal(t, []int{18, 19}, HourWindow("2025-11-01", 18, 20).Hours())
	assert.Nil(t, DateRange("2025-11-01", "2025-11-02").Hours())
	assert.Equal(t, 2, HourWindow("2025-11-01", 18, 20).Duration())
}

func TestString(t *testing.T) {
	assert.Equal(t, "2025-11-01 18:00-20:00", HourWindow("2025-11-01", 18, 20).String())
	assert.Equal(t, "2025-11-01..2025-11-03", DateRange("2025-11-01", "2025-11-03").String())
}
