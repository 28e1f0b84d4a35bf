package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeHTML(t *testing.T) {
	t.Run("plain_text_contains_no_html", func(t *testing.T) {
		a := AnalyzeHTML("Hello, just a plain message. 2 < 3 by the way.")
		assert.False(t, a.ContainsHTML)
		assert.False(t, a.RecommendConversion)
		assert.Zero(t, a.SignificantTags)
	})

	t.Run("empty_input", func(t *testing.T) {
		a := AnalyzeHTML("")
		assert.False(t, a.ContainsHTML)
	})

	t.Run("simple_paragraph_detected", func(t *testing.T) {
		a := AnalyzeHTML("<p>Hi</p>")
		assert.True(t, a.ContainsHTML)
	})

	t.Run("structural_markup_recommends_conversion", func(t *testing.T) {
		heavy := strings.Repeat("<div style='x'><table><tr><td>a</td></tr></table></div>", 5)
		a := AnalyzeHTML(heavy)
		assert.True(t, a.ContainsHTML)
		assert.True(t, a.RecommendConversion)
		assert.Greater(t, a.SignificantTags, 10)
	})

	t.Run("density_reflects_tag_share", func(t *testing.T) {
		// Mostly text, one small tag pair: low density.
		low := "<b>x</b>" + strings.Repeat("word ", 200)
		a := AnalyzeHTML(low)
		assert.True(t, a.ContainsHTML)
		assert.Less(t, a.Density, 15.0)
	})
}

func TestConvertHTMLToText(t *testing.T) {
	t.Run("passthrough_without_tags", func(t *testing.T) {
		in := "no markup here, 1 < 2 even"
		assert.Equal(t, in, ConvertHTMLToText(in))
	})

	t.Run("block_elements_become_paragraphs", func(t *testing.T) {
		out := ConvertHTMLToText("<div>first</div><p>second</p>")
		assert.Equal(t, "first\n\nsecond", out)
	})

	t.Run("breaks_and_rules", func(t *testing.T) {
		out := ConvertHTMLToText("a<br>b<hr>c")
		assert.Equal(t, "a\nb\n---\nc", out)
	})

	t.Run("lists_become_bullets", func(t *testing.T) {
		out := ConvertHTMLToText("<ul><li>one</li><li>two</li></ul>")
		assert.Equal(t, "• one\n• two", out)
	})

	t.Run("tables_become_pipe_rows", func(t *testing.T) {
		out := ConvertHTMLToText("<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>")
		assert.Contains(t, out, "a | b")
		assert.Contains(t, out, "c | d")
	})

	t.Run("emphasis_becomes_markdown", func(t *testing.T) {
		out := ConvertHTMLToText("<b>bold</b> and <em>slanted</em>")
		assert.Equal(t, "**bold** and *slanted*", out)
	})

	t.Run("anchors_keep_target", func(t *testing.T) {
		out := ConvertHTMLToText(`<a href="https://example.com">click</a>`)
		assert.Equal(t, "click (https://example.com)", out)
	})

	t.Run("entities_decoded", func(t *testing.T) {
		out := ConvertHTMLToText("<p>Tom &amp; Jerry&nbsp;&copy; say &quot;hi&quot;&hellip;</p>")
		assert.Equal(t, `Tom & Jerry © say "hi"…`, out)
	})

	t.Run("whitespace_collapsed", func(t *testing.T) {
		out := ConvertHTMLToText("<div>a</div><div></div><div></div><div>b   c</div>")
		assert.Equal(t, "a\n\nb c", out)
	})

	t.Run("no_tag_tokens_survive", func(t *testing.T) {
		inputs := []string{
			"<div class=\"wrap\"><h1>Title</h1><p>Body <b>text</b></p></div>",
			"<table><tr><th>k</th><td>v</td></tr></table>",
			"<span data-x='1'>inline</span><img src='x.png'>",
		}
		for _, in := range inputs {
			out := ConvertHTMLToText(in)
			assert.NotRegexp(t, `<[^>]+>`, out)
		}
	})

	t.Run("idempotent_on_own_output", func(t *testing.T) {
		in := "<div><h2>Weekly report</h2><ul><li>item <b>one</b></li><li>item two</li></ul><p>Regards,<br>Ops</p></div>"
		once := ConvertHTMLToText(in)
		twice := ConvertHTMLToText(once)
		assert.Equal(t, once, twice)
	})

	t.Run("converted_output_analyzes_clean", func(t *testing.T) {
		in := "<div style='a'><p>Hello <i>there</i></p><table><tr><td>x</td></tr></table></div>"
		out := ConvertHTMLToText(in)
		assert.False(t, AnalyzeHTML(out).ContainsHTML)
	})
}

func TestConvertIfRecommended(t *testing.T) {
	t.Run("skips_light_markup", func(t *testing.T) {
		in := "just a note with <b>one</b> tag " + strings.Repeat("filler ", 100)
		out, info := ConvertIfRecommended(in)
		assert.Equal(t, in, out)
		assert.False(t, info.Converted)
	})

	t.Run("converts_heavy_markup", func(t *testing.T) {
		in := strings.Repeat("<div style='x'><table><tr><td>cell</td></tr></table></div>", 10)
		out, info := ConvertIfRecommended(in)
		require.True(t, info.Converted)
		assert.Less(t, len(out), len(in))
		assert.Equal(t, len(in)-len(out), info.Savings)
	})
}
