package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInlineMarkup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "bold",
			input:    "**bold**",
			expected: "<b>bold</b>",
		},
		{
			name:     "italic",
			input:    "*emphasis*",
			expected: "<i>emphasis</i>",
		},
		{
			name:     "strikethrough",
			input:    "~~gone~~",
			expected: "<s>gone</s>",
		},
		{
			name:     "inline code",
			input:    "run `go test` now",
			expected: "run <code>go test</code> now",
		},
		{
			name:     "nested bold italic",
			input:    "**bold *and italic***",
			expected: "<b>bold <i>and italic</i></b>",
		},
		{
			name:     "heading becomes bold",
			input:    "# Title",
			expected: "<b>Title</b>",
		},
		{
			name:     "link with escaped href",
			input:    "[docs](https://example.com/a?b=1&c=2)",
			expected: `<a href="https://example.com/a?b=1&amp;c=2">docs</a>`,
		},
		{
			name:     "special characters escaped",
			input:    "a < b & c",
			expected: "a &lt; b &amp; c",
		},
		{
			name:     "plain text",
			input:    "hello world",
			expected: "hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderCodeBlock(t *testing.T) {
	out, err := Render("```\nfmt.Println(\"hi\")\n```")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<pre>"))
	assert.True(t, strings.HasSuffix(out, "</pre>"))
	// Code inside a block must not be double-wrapped.
	assert.NotContains(t, out, "<code>")
	assert.Contains(t, out, "fmt.Println(&#34;hi&#34;)")
}

func TestRenderParagraphSpacing(t *testing.T) {
	out, err := Render("first\n\nsecond\n\nthird")
	require.NoError(t, err)
	assert.Equal(t, "first\n\nsecond\n\nthird", out)
}

func TestRenderCollapsesExcessNewlines(t *testing.T) {
	out, err := Render("# One\n\n# Two")
	require.NoError(t, err)
	// Heading close emits a double newline; runs never exceed two.
	assert.NotContains(t, out, "\n\n\n")
	assert.Equal(t, "<b>One</b>\n\n<b>Two</b>", out)
}

func TestRenderUnknownTagsKeepText(t *testing.T) {
	out, err := Render("- first\n- second")
	require.NoError(t, err)

	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "<ul>")
	assert.NotContains(t, out, "<li>")
}

func TestRenderBlockquote(t *testing.T) {
	out, err := Render("> quoted text")
	require.NoError(t, err)

	assert.Contains(t, out, "<blockquote>")
	assert.Contains(t, out, "quoted text")
	assert.Contains(t, out, "</blockquote>")
}

func TestRenderNeverFailsOnOddInput(t *testing.T) {
	inputs := []string{
		"",
		"   \n\n\t  ",
		"<div><span>hi",
		"**unclosed bold",
		"| broken | table",
		"``` unterminated fence",
		strings.Repeat("> ", 50) + "deep",
	}

	for _, input := range inputs {
		out, err := Render(input)
		require.NoError(t, err, "input %q", input)
		_ = out
	}
}

func TestRenderOutputTagsBalanced(t *testing.T) {
	inputs := []string{
		"**a** and *b* and ~~c~~ and `d`",
		"# Head\n\nbody with [link](https://x.y)\n\n> quote\n\n```\ncode\n```",
		"| a | b |\n| - | - |\n| 1 | 2 |",
		"**bold *italic `code` still italic* bold**",
	}

	for _, input := range inputs {
		out, err := Render(input)
		require.NoError(t, err)

		for _, tag := range []string{"b", "i", "u", "s", "code", "pre", "a", "blockquote"} {
			opened := strings.Count(out, "<"+tag+">") + strings.Count(out, "<"+tag+" ")
			closed := strings.Count(out, "</"+tag+">")
			assert.Equal(t, opened, closed, "tag %q unbalanced in %q", tag, out)
		}
	}
}

func TestRenderTable(t *testing.T) {
	input := "| Name | Qty |\n| --- | --- |\n| apples | 10 |\n| pears | 7 |"
	out, err := Render(input)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "<pre>"))
	require.True(t, strings.HasSuffix(out, "</pre>"))

	grid := strings.TrimSuffix(strings.TrimPrefix(out, "<pre>"), "</pre>")
	lines := strings.Split(grid, "\n")
	require.Len(t, lines, 4) // header, separator, two data rows

	assert.Equal(t, "| Name   | Qty |", lines[0])
	assert.Equal(t, "|-"+strings.Repeat("-", 6)+"-+-"+strings.Repeat("-", 3)+"-|", lines[1])
	assert.Equal(t, "| apples | 10  |", lines[2])
	assert.Equal(t, "| pears  | 7   |", lines[3])
}

func TestRenderTableEscapesCells(t *testing.T) {
	input := "| a | b |\n| - | - |\n| x<y | m&n |"
	out, err := Render(input)
	require.NoError(t, err)

	assert.Contains(t, out, "x&lt;y")
	assert.Contains(t, out, "m&amp;n")
}
