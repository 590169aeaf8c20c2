package services

import "testing"

func TestTimesOverlap(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{"identical windows", "09:00", "10:00", "09:00", "10:00", true},
		{"partial overlap", "09:00", "10:30", "10:00", "11:00", true},
		{"containment", "09:00", "12:00", "10:00", "11:00", true},
		{"boundary touch is not a conflict", "09:00", "10:00", "10:00", "11:00", false},
		{"boundary touch reversed", "10:00", "11:00", "09:00", "10:00", false},
		{"disjoint", "09:00", "10:00", "13:00", "14:00", false},
		{"afternoon ordering", "13:00", "15:00", "14:30", "16:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timesOverlap(tt.s1, tt.e1, tt.s2, tt.e2); got != tt.want {
				t.Errorf("timesOverlap(%s-%s, %s-%s) = %v, want %v", tt.s1, tt.e1, tt.s2, tt.e2, got, tt.want)
			}
		})
	}
}
