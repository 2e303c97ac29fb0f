package cache

import (
	"testing"
	"time"
)

func TestEntry_IsStale(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		createdAt time.Time
		ttl       time.Duration
		want      bool
	}{
		{
			name:      "just created",
			createdAt: now,
			ttl:       DefaultTTL,
			want:      false,
		},
		{
			name:      "one second before ttl",
			createdAt: now.Add(-59 * time.Second),
			ttl:       DefaultTTL,
			want:      false,
		},
		{
			name:      "exactly ttl",
			createdAt: now.Add(-60 * time.Second),
			ttl:       DefaultTTL,
			want:      true,
		},
		{
			name:      "long expired",
			createdAt: now.Add(-1 * time.Hour),
			ttl:       DefaultTTL,
			want:      true,
		},
		{
			name:      "zero ttl",
			createdAt: now,
			ttl:       0,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Entry{CreatedAt: tt.createdAt}
			if got := entry.IsStale(tt.ttl, now); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_Age(t *testing.T) {
	now := time.Now()
	entry := Entry{CreatedAt: now.Add(-90 * time.Second)}

	if got := entry.Age(now); got != 90*time.Second {
		t.Errorf("Age() = %v, want %v", got, 90*time.Second)
	}
}
