package source

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// Extract returns every fenced code block in a markdown document whose
// language (the first word of the info string) is exactly lang, in document
// order. An empty lang means [DefaultLang].
func Extract(src []byte, lang string) []Block {
	if lang == "" {
		lang = DefaultLang
	}
	doc := markdown.Parser().Parse(text.NewReader(src))

	var blocks []Block
	heading := ""
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			heading = inlineText(node, src)
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if string(node.Language(src)) != lang {
				return ast.WalkSkipChildren, nil
			}
			b := Block{Index: len(blocks), Name: heading}
			lines := node.Lines()
			var body bytes.Buffer
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				if i == 0 {
					b.Line = bytes.Count(src[:seg.Start], []byte("\n")) + 1
				}
				body.Write(seg.Value(src))
			}
			b.Body = body.Bytes()
			blocks = append(blocks, b)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

// Split turns the content of the document at path into blocks. Files
// ending in .yaml or .yml are a single block named after the file; anything
// else is treated as markdown.
func Split(path string, src []byte, lang string) []Block {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return []Block{{Name: name, Line: 1, Body: src}}
	}
	return Extract(src, lang)
}

func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
