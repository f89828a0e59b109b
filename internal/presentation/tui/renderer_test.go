package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_PlainOutsideTerminal(t *testing.T) {
	render := NewRenderer()
	out, err := render("# Upper\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Upper")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.Equal(t, len(bannerLines)+3, strings.Count(buf.String(), "\n"))
}
