package parse

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// TokenType discriminates entries of a token stream.
type TokenType string

const (
	HeadingOpen      TokenType = "heading_open"
	HeadingClose     TokenType = "heading_close"
	ParagraphOpen    TokenType = "paragraph_open"
	ParagraphClose   TokenType = "paragraph_close"
	BlockquoteOpen   TokenType = "blockquote_open"
	BlockquoteClose  TokenType = "blockquote_close"
	BulletListOpen   TokenType = "bullet_list_open"
	BulletListClose  TokenType = "bullet_list_close"
	OrderedListOpen  TokenType = "ordered_list_open"
	OrderedListClose TokenType = "ordered_list_close"
	ListItemOpen     TokenType = "list_item_open"
	ListItemClose    TokenType = "list_item_close"
	Inline           TokenType = "inline"
	HTMLBlock        TokenType = "html_block"
	Fence            TokenType = "fence"
	CodeBlock        TokenType = "code_block"
	HR               TokenType = "hr"

	// Inline children
	Text        TokenType = "text"
	Code        TokenType = "code"
	HTMLInline  TokenType = "html_inline"
	LinkOpen    TokenType = "link_open"
	LinkClose   TokenType = "link_close"
	EmOpen      TokenType = "em_open"
	EmClose     TokenType = "em_close"
	StrongOpen  TokenType = "strong_open"
	StrongClose TokenType = "strong_close"
	Image       TokenType = "image"
	Softbreak   TokenType = "softbreak"
	Hardbreak   TokenType = "hardbreak"
)

// Token is one entry of the flat stream produced by Parse.
// Block tokens carry zero-based, inclusive source Lines when goldmark records a position.
type Token struct {
	Type     TokenType `json:"type"`
	Content  string    `json:"content,omitempty"`
	Lines    []int     `json:"lines,omitempty"`
	HLevel   int       `json:"hLevel,omitempty"` // heading_open only
	Lvl      int       `json:"lvl,omitempty"`    // inline token of a heading
	Info     string    `json:"info,omitempty"`   // fence info string
	Children []Token   `json:"children,omitempty"`
}

// IsHeadingOpen reports whether t opens a heading.
func (t Token) IsHeadingOpen() bool { return t.Type == HeadingOpen }

// Parse tokenizes markdown source into a flat block stream.
// Headings emit heading_open, inline, heading_close; a heading with no text
// emits no inline token.
func Parse(source []byte) []Token {
	reader := text.NewReader(source)
	doc := goldmark.DefaultParser().Parse(reader)

	w := &walker{source: source, lineStarts: lineStarts(source)}
	_ = ast.Walk(doc, w.visit)
	return w.tokens
}

// ParseString is Parse for string input.
func ParseString(markdown string) []Token {
	return Parse([]byte(markdown))
}

type walker struct {
	source     []byte
	lineStarts []int
	tokens     []Token
}

func (w *walker) emit(t Token) {
	w.tokens = append(w.tokens, t)
}

func (w *walker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Document:
		return ast.WalkContinue, nil

	case *ast.Heading:
		if !entering {
			return ast.WalkContinue, nil
		}
		lines := w.blockLines(node.Lines())
		w.emit(Token{Type: HeadingOpen, HLevel: node.Level, Lines: lines})
		if content := w.segmentsText(node.Lines()); content != "" {
			w.emit(Token{
				Type:     Inline,
				Content:  content,
				Lines:    lines,
				Lvl:      node.Level,
				Children: w.inlineChildren(node),
			})
		}
		w.emit(Token{Type: HeadingClose, HLevel: node.Level})
		return ast.WalkSkipChildren, nil

	case *ast.Paragraph, *ast.TextBlock:
		if !entering {
			return ast.WalkContinue, nil
		}
		lines := w.blockLines(n.Lines())
		w.emit(Token{Type: ParagraphOpen, Lines: lines})
		w.emit(Token{
			Type:     Inline,
			Content:  w.segmentsText(n.Lines()),
			Lines:    lines,
			Children: w.inlineChildren(n),
		})
		w.emit(Token{Type: ParagraphClose})
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock:
		if !entering {
			return ast.WalkContinue, nil
		}
		segs := node.Lines()
		var buf bytes.Buffer
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			buf.Write(seg.Value(w.source))
		}
		lines := w.blockLines(segs)
		if node.HasClosure() {
			buf.Write(node.ClosureLine.Value(w.source))
			end := w.lineOf(node.ClosureLine.Start)
			if lines == nil {
				lines = []int{end, end}
			} else {
				lines[1] = end
			}
		}
		w.emit(Token{Type: HTMLBlock, Content: strings.TrimRight(buf.String(), "\n"), Lines: lines})
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock:
		if !entering {
			return ast.WalkContinue, nil
		}
		info := ""
		if node.Info != nil {
			info = string(node.Info.Segment.Value(w.source))
		}
		w.emit(Token{Type: Fence, Content: w.rawLines(node.Lines()), Lines: w.blockLines(node.Lines()), Info: info})
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if !entering {
			return ast.WalkContinue, nil
		}
		w.emit(Token{Type: CodeBlock, Content: w.rawLines(node.Lines()), Lines: w.blockLines(node.Lines())})
		return ast.WalkSkipChildren, nil

	case *ast.ThematicBreak:
		if entering {
			w.emit(Token{Type: HR})
		}
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		w.pair(entering, BlockquoteOpen, BlockquoteClose)

	case *ast.List:
		if node.IsOrdered() {
			w.pair(entering, OrderedListOpen, OrderedListClose)
		} else {
			w.pair(entering, BulletListOpen, BulletListClose)
		}

	case *ast.ListItem:
		w.pair(entering, ListItemOpen, ListItemClose)
	}
	return ast.WalkContinue, nil
}

func (w *walker) pair(entering bool, openType, closeType TokenType) {
	if entering {
		w.emit(Token{Type: openType})
	} else {
		w.emit(Token{Type: closeType})
	}
}

// segmentsText joins the raw source of a block's lines, trimmed.
func (w *walker) segmentsText(segs *text.Segments) string {
	if segs == nil || segs.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		parts = append(parts, strings.TrimRight(string(seg.Value(w.source)), "\r\n"))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (w *walker) rawLines(segs *text.Segments) string {
	var buf bytes.Buffer
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(w.source))
	}
	return buf.String()
}

func (w *walker) blockLines(segs *text.Segments) []int {
	if segs == nil || segs.Len() == 0 {
		return nil
	}
	first := segs.At(0)
	last := segs.At(segs.Len() - 1)
	return []int{w.lineOf(first.Start), w.lineOf(last.Start)}
}

// lineOf maps a byte offset to its zero-based line number.
func (w *walker) lineOf(offset int) int {
	return sort.Search(len(w.lineStarts), func(i int) bool { return w.lineStarts[i] > offset }) - 1
}

func lineStarts(source []byte) []int {
	starts := []int{0}
	for i, c := range source {
		if c == '\n' && i+1 < len(source) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// inlineChildren flattens the inline subtree of a block into child tokens.
// Adjacent text runs are merged.
func (w *walker) inlineChildren(parent ast.Node) []Token {
	var out []Token
	appendText := func(s string) {
		if n := len(out); n > 0 && out[n-1].Type == Text {
			out[n-1].Content += s
			return
		}
		out = append(out, Token{Type: Text, Content: s})
	}

	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Text:
				appendText(string(node.Segment.Value(w.source)))
				if node.HardLineBreak() {
					out = append(out, Token{Type: Hardbreak})
				} else if node.SoftLineBreak() {
					out = append(out, Token{Type: Softbreak})
				}
			case *ast.String:
				appendText(string(node.Value))
			case *ast.CodeSpan:
				out = append(out, Token{Type: Code, Content: w.plainText(node)})
			case *ast.RawHTML:
				var buf bytes.Buffer
				for i := 0; i < node.Segments.Len(); i++ {
					seg := node.Segments.At(i)
					buf.Write(seg.Value(w.source))
				}
				out = append(out, Token{Type: HTMLInline, Content: buf.String()})
			case *ast.Link:
				out = append(out, Token{Type: LinkOpen, Content: string(node.Destination)})
				walk(node)
				out = append(out, Token{Type: LinkClose})
			case *ast.AutoLink:
				out = append(out, Token{Type: LinkOpen, Content: string(node.URL(w.source))})
				appendText(string(node.Label(w.source)))
				out = append(out, Token{Type: LinkClose})
			case *ast.Image:
				out = append(out, Token{Type: Image, Content: w.plainText(node)})
			case *ast.Emphasis:
				openType, closeType := EmOpen, EmClose
				if node.Level == 2 {
					openType, closeType = StrongOpen, StrongClose
				}
				out = append(out, Token{Type: openType})
				walk(node)
				out = append(out, Token{Type: closeType})
			default:
				walk(node)
			}
		}
	}
	walk(parent)
	return out
}

// plainText concatenates the text leaves below n.
func (w *walker) plainText(n ast.Node) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(w.source))
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
