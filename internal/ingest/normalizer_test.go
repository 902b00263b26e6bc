package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCandidate(t *testing.T) {
	c := CandidateEvent{
		Title:       "  <b>Code</b>   Sprint &amp; Demo ",
		Location:    "New Delhi,\n India",
		College:     "IIT <i>Delhi</i>",
		Description: "<script>alert(1)</script>Build things",
		ExternalID:  "unstop_code_sprint",
		Price:       -5,
	}

	NormalizeCandidate(&c)

	assert.Equal(t, "Code Sprint & Demo", c.Title)
	assert.Equal(t, "New Delhi, India", c.Location)
	assert.Equal(t, "IIT Delhi", c.College)
	assert.Equal(t, "Build things", c.Description)
	assert.Equal(t, "unstop_code_sprint", c.ExternalID)
	assert.Equal(t, 0, c.Price)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abc...", TruncateText("abcdef", 3))
	assert.Equal(t, "héll...", TruncateText("héllo wörld", 4))
}
