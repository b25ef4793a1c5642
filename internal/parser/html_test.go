package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStripsMarkup(t *testing.T) {
	p := NewHTMLParser()

	html := `<html><head><style>body{color:red}</style></head>
	<body><p>Your verification code:</p><p><b>482913</b></p>
	<script>track()</script></body></html>`

	text, err := p.Parse(html)
	require.NoError(t, err)
	assert.Contains(t, text, "Your verification code:")
	assert.Contains(t, text, "482913")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "color:red")
}

func TestParseKeepsDigitRunsSeparate(t *testing.T) {
	p := NewHTMLParser()

	// Adjacent table cells must not merge into one long digit run.
	text, err := p.Parse(`<table><tr><td>2024</td></tr><tr><td>482913</td></tr></table>`)
	require.NoError(t, err)
	assert.Contains(t, text, "\n")
	assert.NotContains(t, text, "2024482913")
}

func TestParseRemovesInvisibleCharacters(t *testing.T) {
	p := NewHTMLParser()

	text, err := p.Parse("<p>48​29​13</p>")
	require.NoError(t, err)
	assert.Contains(t, text, "482913")
}

func TestParseEmpty(t *testing.T) {
	p := NewHTMLParser()

	text, err := p.Parse("")
	require.NoError(t, err)
	assert.Empty(t, text)
}
