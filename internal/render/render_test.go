package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashString(t *testing.T) {
	assert.Equal(t, int64(0), hashString(""))
	assert.Equal(t, int64(97), hashString("a"))
	assert.Equal(t, int64(3105), hashString("ab"))

	// Long input overflows int32 repeatedly; the result is still the
	// absolute value of the wrapped hash.
	long := strings.Repeat("integral of x squared ", 40)
	assert.GreaterOrEqual(t, hashString(long), int64(0))

	// Non-ASCII question text hashes over UTF-16 code units, so the
	// superscript and the operator each contribute one unit.
	assert.NotEqual(t, hashString("x2"), hashString("x²"))
}

func TestSeedDeterministic(t *testing.T) {
	text := "What is the value of x² when x = 5?"
	s1 := Seed("exam-1", 3, text)
	s2 := Seed("exam-1", 3, text)
	assert.Equal(t, s1, s2)
	assert.GreaterOrEqual(t, s1, int64(0))

	assert.NotEqual(t, s1, Seed("exam-2", 3, text))
	assert.NotEqual(t, s1, Seed("exam-1", 4, text))
	assert.NotEqual(t, s1, Seed("exam-1", 3, text+"!"))
}

func TestRenderDimensions(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	tests := []struct {
		options []string
		height  int
	}{
		{[]string{"1", "2"}, 520},
		{[]string{"1", "2", "3", "4"}, 640},
		{[]string{"1", "2", "3", "4", "5", "6"}, 760},
	}
	for _, tt := range tests {
		img, err := r.Render(Input{
			ExamID:         "exam-1",
			QuestionNumber: 1,
			Text:           "What is 2 + 2?",
			Options:        tt.options,
		})
		require.NoError(t, err)
		b := img.Bounds()
		assert.Equal(t, 800, b.Dx())
		assert.Equal(t, tt.height, b.Dy())
	}
}

func TestRenderLongTextWraps(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	img, err := r.Render(Input{
		ExamID:         "exam-1",
		QuestionNumber: 2,
		Text: "A train travels at a constant speed of 72 kilometers per hour " +
			"for two and a half hours before slowing down; how far has it " +
			"traveled by the time it stops?",
		Options: []string{"120 km", "150 km", "180 km", "210 km"},
	})
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
}

func TestRenderEncodings(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	in := Input{
		ExamID:         "exam-1",
		QuestionNumber: 1,
		Text:           "What is sin(90°)?",
		Options:        []string{"0", "1", "-1", "0.5"},
	}

	pngBytes, err := r.RenderPNG(in)
	require.NoError(t, err)
	assert.True(t, len(pngBytes) > 8)
	assert.Equal(t, "\x89PNG", string(pngBytes[:4]))

	webpBytes, err := r.RenderWebP(in)
	require.NoError(t, err)
	assert.True(t, len(webpBytes) > 12)
	assert.Equal(t, "RIFF", string(webpBytes[:4]))
	assert.Equal(t, "WEBP", string(webpBytes[8:12]))
}

func TestWrapText(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	face, err := r.face(r.regular, 18)
	require.NoError(t, err)
	defer face.Close()

	maxWidth := 300
	text := "The quick brown fox jumps over the lazy dog near the river bank"
	lines := wrapText(face, text, maxWidth)
	require.Greater(t, len(lines), 1)

	for _, line := range lines {
		assert.LessOrEqual(t, textWidth(face, line), maxWidth, "line %q", line)
	}
	assert.Equal(t, text, strings.Join(lines, " "))

	// Short input stays on one line; empty input yields one empty line.
	assert.Equal(t, []string{"short"}, wrapText(face, "short", maxWidth))
	assert.Equal(t, []string{""}, wrapText(face, "", maxWidth))
}

func TestOptionLabel(t *testing.T) {
	assert.Equal(t, "A", optionLabel(0))
	assert.Equal(t, "D", optionLabel(3))
	assert.Equal(t, "Z", optionLabel(25))
	assert.Equal(t, "27", optionLabel(26))
}
