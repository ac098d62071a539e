package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name         string
		aStart, aEnd time.Time
		bStart, bEnd time.Time
		want         bool
	}{
		{"identical", at(10), at(12), at(10), at(12), true},
		{"contained", at(10), at(14), at(11), at(12), true},
		{"partial front", at(10), at(12), at(11), at(13), true},
		{"partial back", at(11), at(13), at(10), at(12), true},
		{"disjoint before", at(8), at(9), at(10), at(11), false},
		{"disjoint after", at(12), at(13), at(10), at(11), false},
		{"back to back", at(10), at(11), at(11), at(12), false},
		{"back to back reversed", at(11), at(12), at(10), at(11), false},
		{"one minute overlap", at(10), at(11).Add(time.Minute), at(11), at(12), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}
