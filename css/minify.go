package css

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
)

const mediaType = "text/css"

// Minifier normalizes stylesheet text before parsing so that equal
// declarations written differently ("width : 10px" and "width:10px") end up
// as identical values.
type Minifier struct {
	m *minify.M
}

// NewMinifier returns minifier configured for stylesheets.
func NewMinifier() *Minifier {
	m := minify.New()
	m.Add(mediaType, &mincss.Minifier{})
	return &Minifier{m: m}
}

// Minify returns minified stylesheet text.
func (mf *Minifier) Minify(text string) (string, error) {
	out, err := mf.m.String(mediaType, text)
	if err != nil {
		return "", fmt.Errorf("unable to minify stylesheet: %w", err)
	}
	return out, nil
}
