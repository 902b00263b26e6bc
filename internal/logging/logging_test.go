package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONFormat(t *testing.T) {
	l := New("debug", "json")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.WithFields(logrus.Fields{"op": "scrape-events", "source": "unstop"}).Debug("source parsed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "scrape-events", line["op"])
	assert.Equal(t, "unstop", line["source"])
	assert.Equal(t, "debug", line["level"])
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, New("loud", "text").GetLevel())
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := New("info", "text")
	assert.Same(t, l, OrDiscard(l))
}
