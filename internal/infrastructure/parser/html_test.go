package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextPrefersMainContent(t *testing.T) {
	t.Parallel()

	html := `
	<html>
	  <head><style>.x{}</style><script>var tracking = 1;</script></head>
	  <body>
	    <nav>Home | Grants | Funding</nav>
	    <main>
	      <h2>Section IV. Application and Submission Information</h2>
	      <p>Research Strategy: 12   page limit.</p>
	      <ul><li>Specific Aims</li><li>Biosketch</li></ul>
	    </main>
	    <footer>Contact us</footer>
	  </body>
	</html>`

	text, err := ExtractTextString(html)
	require.NoError(t, err)

	assert.Contains(t, text, "Section IV. Application and Submission Information")
	assert.Contains(t, text, "Research Strategy: 12 page limit.")
	assert.Contains(t, text, "Specific Aims\n")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "Home | Grants")
	assert.NotContains(t, text, "Contact us")
	assert.NotContains(t, text, "\n\n\n")
}

func TestExtractTextFallsBackToBody(t *testing.T) {
	t.Parallel()

	text, err := ExtractText(strings.NewReader(`<div><p>Deadline: March 5, 2026</p></div>`))
	require.NoError(t, err)
	assert.Equal(t, "Deadline: March 5, 2026", text)
}
