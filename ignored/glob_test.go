package ignored

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// TranslateGlob — generated source
// ---------------------------------------------------------------------------

func TestTranslateGlobSource(t *testing.T) {
	tests := []struct {
		name string
		glob string
		want string
	}{
		{"literal", "node_modules", `^node_modules(?:$|/)`},
		{"star extension", "*.js", `^[^/]*\.js(?:$|/)`},
		{"globstar both sides", "**/temp/**", `^(?:[^/]*(?:/|$))*temp/(?:[^/]*(?:/|$))*(?:$|/)`},
		{"trailing separator stripped", "dist/", `^dist(?:$|/)`},
		{"question mark", "a?c", `^a[^/]c(?:$|/)`},
		{"negated class excludes separator", "[!a-c]x", `^[^a-c/]x(?:$|/)`},
		{"caret negation", "[^a]", `^[^a/](?:$|/)`},
		{"escaped star", `\*`, `^\*(?:$|/)`},
		{"braces are literal", "{a,b}", `^\{a,b\}(?:$|/)`},
		{"root separator kept", "/", `^/(?:$|/)`},
		{"star run inside segment", "a**b", `^a[^/]*b(?:$|/)`},
		{"leading bracket literal", "[]a]", `^[\]a](?:$|/)`},
		{"positive range drops separator", "[.-0]", `^[.0](?:$|/)`},
		{"separator only class", "a[/]b", `^a[^\x00-\x{10FFFF}]b(?:$|/)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := TranslateGlob(tt.glob)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateGlobEmpty(t *testing.T) {
	source, ok, err := TranslateGlob("")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, source)

	re, err := CompileGlob("")
	require.NoError(t, err)
	assert.Nil(t, re)
}

func TestTranslateGlobErrors(t *testing.T) {
	tests := []struct {
		name       string
		glob       string
		wantOffset int
	}{
		{"unterminated class", "[abc", 0},
		{"unterminated class after prefix", "src/[a", 4},
		{"empty class", "[]", 0},
		{"negated empty class", "[!]", 0},
		{"trailing backslash", `foo\`, 3},
		{"trailing backslash in class", `a[\`, 2},
		{"reversed range", "[z-a]", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := TranslateGlob(tt.glob)
			require.Error(t, err)
			assert.False(t, ok)
			assert.True(t, errors.Is(err, ErrGlobTranslation))

			var gerr *GlobError
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, tt.glob, gerr.Glob)
			assert.Equal(t, tt.wantOffset, gerr.Offset)
			assert.Contains(t, err.Error(), tt.glob)
		})
	}
}

// ---------------------------------------------------------------------------
// Glob matching semantics
// ---------------------------------------------------------------------------

func TestGlobMatching(t *testing.T) {
	tests := []struct {
		glob string
		path string
		want bool
	}{
		// plain names are anchored at the start and end on a segment boundary
		{"node_modules", "node_modules", true},
		{"node_modules", "node_modules/pkg/index.js", true},
		{"node_modules", "my_node_modules_backup", false},
		{"node_modules", "node_modules_old", false},
		{"node_modules", "src/node_modules", false},

		{"**/node_modules", "node_modules", true},
		{"**/node_modules", "src/node_modules/react/index.js", true},
		{"**/node_modules", "src/my_node_modules_backup", false},

		{"**/temp/**", "temp/file.js", true},
		{"**/temp/**", "path/temp/file.js", true},
		{"**/temp/**", "a/b/temp/c/d.js", true},
		{"**/temp/**", "path/tempo/file.js", false},
		{"**/temp/**", "path/attempt/file.js", false},

		{"*.js", "index.js", true},
		{"*.js", "index.js/inner", true},
		{"*.js", "index.jsx", false},
		{"*.js", "src/index.js", false},

		{"src/*.go", "src/main.go", true},
		{"src/*.go", "src/pkg/main.go", false},

		{"src/**/*.go", "src/main.go", true},
		{"src/**/*.go", "src/a/b/main.go", true},
		{"src/**/*.go", "lib/main.go", false},

		{"?.txt", "a.txt", true},
		{"?.txt", "ab.txt", false},

		{"[ab].txt", "a.txt", true},
		{"[ab].txt", "c.txt", false},
		{"[!ab].txt", "c.txt", true},
		{"[!ab].txt", "a.txt", false},
		{"x[!a]y", "x/y", false},
		{"a[/]b", "a/b", false},
		{"a[/x]b", "a/b", false},
		{"a[/x]b", "axb", true},
		{"a[.-0]b", "a/b", false},
		{"a[.-0]b", "a.b", true},
		{"a[.-0]b", "a0b", true},
		{"a[!.-0]b", "a/b", false},

		{"**/.cache", ".cache", true},
		{"**/.cache", "project/.cache", true},
		{"**/.cache", "project/.cache/file", true},
		{"**/.cache", "project/.cachex", false},

		{`file\*`, "file*", true},
		{`file\*`, "fileX", false},

		{"dist/", "dist", true},
		{"dist/", "dist/bundle.js", true},
		{"dist/", "distribution", false},

		{"**", "", true},
		{"**", "a", true},
		{"**", "a/b/c", true},

		{"a**b", "axxb", true},
		{"a**b", "ax/xb", false},

		{"{a,b}", "{a,b}", true},
		{"{a,b}", "a", false},

		{"a+b(c)", "a+b(c)", true},
		{"a+b(c)", "aab(c)", false},

		{"日本/*.md", "日本/readme.md", true},
	}

	for _, tt := range tests {
		t.Run(tt.glob+"|"+tt.path, func(t *testing.T) {
			re, err := CompileGlob(tt.glob)
			require.NoError(t, err)
			require.NotNil(t, re)
			assert.Equal(t, tt.want, re.MatchString(tt.path), "glob %q source %s", tt.glob, re)
		})
	}
}

func TestGlobEquivalentSpellings(t *testing.T) {
	pairs := [][2]string{
		{"dist", "dist/"},
		{"dist", "dist//"},
		{"dist", `dist\/`},
		{"foo.js", `foo\.js`},
		{"temp", `\temp`},
		{"src/**", "src/**/"},
	}
	paths := []string{
		"", "dist", "dist/a.js", "distribution", "foo.js", "fooxjs", "foo.js/x",
		"temp", "temp/a", "src", "src/a/b", "srcx",
	}

	for _, pair := range pairs {
		a, err := CompileGlob(pair[0])
		require.NoError(t, err)
		b, err := CompileGlob(pair[1])
		require.NoError(t, err)
		for _, p := range paths {
			assert.Equal(t, a.MatchString(p), b.MatchString(p), "%q vs %q on %q", pair[0], pair[1], p)
		}
	}
}

func TestTranslateGlobOutputCompiles(t *testing.T) {
	globs := []string{"a-b", "[a-]", "[-a]", `[\]]`, "[[]", "x^y$", "a|b", "tab\there"}
	for _, g := range globs {
		source, ok, err := TranslateGlob(g)
		require.NoError(t, err, g)
		require.True(t, ok)
		_, err = regexp.Compile(source)
		assert.NoError(t, err, g)
	}
}
