package projector

import (
	"testing"

	"github.com/jvlax-y/cekApar/internal/domain"

	"github.com/stretchr/testify/assert"
)

func zone(s string) *string { return &s }

func catalogue() []domain.Location {
	return []domain.Location{
		{LocationID: "W1", Name: "Lobby Barat", Zone: zone("West")},
		{LocationID: "W2", Name: "Parkir Barat", Zone: zone("West")},
		{LocationID: "E1", Name: "Lobby Timur", Zone: zone("East")},
		{LocationID: "E2", Name: "Atap Timur", Zone: zone("East")},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		assigned []string
		want     Classification
	}{
		{"all locations", []string{"E2", "W1", "E1", "W2"}, Classification{ClassAllLocations, LabelAllLocations}},
		{"west zone", []string{"W1", "W2"}, Classification{ClassZone, "West"}},
		{"east zone with duplicates", []string{"E1", "E2", "E1"}, Classification{ClassZone, "East"}},
		{"partial zone", []string{"W1"}, Classification{ClassMixed, LabelMixed}},
		{"cross zone", []string{"W1", "E1"}, Classification{ClassMixed, LabelMixed}},
		{"unknown location", []string{"W1", "W2", "X9"}, Classification{ClassMixed, LabelMixed}},
		{"nothing", nil, Classification{ClassUnassigned, LabelUnassigned}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.assigned, catalogue()))
		})
	}
}

func TestClassify_SingleZoneCatalogue(t *testing.T) {
	cat := []domain.Location{
		{LocationID: "A", Zone: zone("Gedung Utama")},
		{LocationID: "B", Zone: zone("Gedung Utama")},
	}
	got := Classify([]string{"A", "B"}, cat)
	assert.Equal(t, ClassAllLocations, got.Kind)
}

func TestClassify_UnzonedLocations(t *testing.T) {
	cat := append(catalogue(), domain.Location{LocationID: "P1", Name: "Pos Satpam"})

	assert.Equal(t, ClassMixed, Classify([]string{"P1"}, cat).Kind)
	// 未标记区域的点位不属于任何区域，因此 West 仍然完整匹配
	assert.Equal(t, Classification{ClassZone, "West"}, Classify([]string{"W1", "W2"}, cat))
	assert.Equal(t, ClassAllLocations, Classify([]string{"W1", "W2", "E1", "E2", "P1"}, cat).Kind)
}

func TestClassify_EmptyCatalogue(t *testing.T) {
	assert.Equal(t, ClassMixed, Classify([]string{"W1"}, nil).Kind)
}
