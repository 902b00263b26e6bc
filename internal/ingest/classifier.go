package ingest

import (
	"regexp"
	"strings"

	"github.com/david/campus-events/internal/models"
)

type categoryRule struct {
	category models.Category
	pattern  *regexp.Regexp
}

// Order matters: categories overlap and the first match wins.
var categoryRules = []categoryRule{
	{models.CategoryTechnology, regexp.MustCompile(`hack|code|program|dev|software|web|app|tech|cyber|ai|ml|data|cloud|blockchain|iot|robot|python|java|embedded|raspberry|gen ai|arduino`)},
	{models.CategoryBusiness, regexp.MustCompile(`business|market|finance|entrepreneur|startup|management|mba`)},
	{models.CategoryDesign, regexp.MustCompile(`design|ui|ux|graphic|creative|art|photo`)},
	{models.CategoryCultural, regexp.MustCompile(`cultural|dance|music|drama|literary|fest|carnival`)},
	{models.CategorySports, regexp.MustCompile(`sport|cricket|football|athletic|chess`)},
	{models.CategoryCareer, regexp.MustCompile(`career|placement|interview|resume|intern`)},
	{models.CategoryHealth, regexp.MustCompile(`health|medical|pharma|bio`)},
	// Workshops are overwhelmingly hands-on technical sessions.
	{models.CategoryTechnology, regexp.MustCompile(`workshop`)},
}

// Classify assigns exactly one category to an event title.
func Classify(title string) models.Category {
	text := strings.ToLower(title)
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(text) {
			return rule.category
		}
	}
	return models.CategoryTechnology
}
