package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	t.Run("should return plain text unchanged", func(t *testing.T) {
		assert.Equal(t, "Just plain text.", Extract("Just plain text."))
	})

	t.Run("should return empty string for empty input", func(t *testing.T) {
		assert.Equal(t, "", Extract(""))
		assert.Equal(t, "", Extract("   \n  "))
	})

	t.Run("should extract paragraph text", func(t *testing.T) {
		html := "<html><body><p>First paragraph</p><p>Second paragraph</p></body></html>"

		assert.Equal(t, "First paragraph\nSecond paragraph", Extract(html))
	})

	t.Run("should drop script and style content", func(t *testing.T) {
		html := `<html><head><title>Mail</title><style>body{margin:0}</style></head><body><script>track()</script><div>Visible</div></body></html>`

		result := Extract(html)

		assert.Equal(t, "Visible", result)
	})

	t.Run("should keep nested element text on separate lines", func(t *testing.T) {
		html := "<div>Outer<span>inner</span><ul><li>one</li><li>two</li></ul></div>"

		assert.Equal(t, "Outer\ninner\none\ntwo", Extract(html))
	})

	t.Run("should unescape entities", func(t *testing.T) {
		result := Extract("<p>Fish &amp; chips</p>")

		assert.Equal(t, "Fish & chips", result)
	})

	t.Run("should fall back to tag stripping when markup yields no text", func(t *testing.T) {
		// A frameset document discards trailing character data during tree
		// construction, so the node walk comes up empty; the strip pass
		// still sees the text in the token stream.
		result := Extract("<frameset></frameset>Final notice: account review.")

		assert.Equal(t, "Final notice: account review.", result)
	})
}
