package api

import (
	"testing"

	"github.com/dvidal/tripweaver/internal/models"
)

func TestPlaceLocation(t *testing.T) {
	tests := []struct {
		name  string
		place models.Place
		want  string
	}{
		{
			name:  "address wins",
			place: models.Place{Name: "Tsukiji Market", Address: "5 Chome-2-1 Tsukiji, Tokyo"},
			want:  "5 Chome-2-1 Tsukiji, Tokyo",
		},
		{
			name:  "name fallback without address",
			place: models.Place{Name: "Tsukiji Market"},
			want:  "Tsukiji Market",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := placeLocation(&tt.place); got != tt.want {
				t.Errorf("placeLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}
