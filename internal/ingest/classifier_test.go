package ingest

import (
	"testing"

	"github.com/david/campus-events/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		title string
		want  models.Category
	}{
		{"AI Hackathon", models.CategoryTechnology},
		{"MBA Finance Summit", models.CategoryBusiness},
		{"Random Gala", models.CategoryTechnology},
		{"UX Design Sprint", models.CategoryDesign},
		{"Annual Cultural Night", models.CategoryCultural},
		{"Inter College Cricket Cup", models.CategorySports},
		{"Placement Prep Bootcamp", models.CategoryCareer},
		{"Pharma Research Symposium", models.CategoryHealth},
		{"Pottery Workshop", models.CategoryTechnology},
		// Technology is checked before Design.
		{"Web Design Contest", models.CategoryTechnology},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.title))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, Classify("Startup Pitch Fest"), Classify("Startup Pitch Fest"))
	}
}
