// Package frontmatter splits a leading YAML block from a markdown document and puts it back.
package frontmatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/md-toc/pkg/utils"
)

const delimiter = "---"

// Matter is a parsed front matter block and the document body that follows it.
type Matter struct {
	// Data is the decoded block. Empty when the block has no keys.
	Data map[string]interface{}
	// Content is everything after the closing delimiter line.
	Content string
	// Raw is the YAML text between the delimiters.
	Raw string

	node *yaml.Node
}

// Has reports whether doc starts with a front matter delimiter.
func Has(doc string) bool {
	return strings.HasPrefix(doc, delimiter)
}

// Parse extracts front matter from doc. A document without an opening `---` line
// or without a closing delimiter is returned whole as Content.
func Parse(doc string) (*Matter, error) {
	m := &Matter{Data: map[string]interface{}{}, Content: doc}

	first, rest, ok := strings.Cut(doc, "\n")
	if !ok || strings.TrimRight(first, " \t\r") != delimiter {
		return m, nil
	}

	raw, body, found := cutClosing(rest)
	if !found {
		return m, nil
	}

	m.Content = body
	m.Raw = raw

	if strings.TrimSpace(raw) == "" {
		return m, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		return nil, utils.WrapErrorf(utils.ErrFrontMatter, "YAML parsing failed: %v", err)
	}
	if err := node.Decode(&m.Data); err != nil {
		return nil, utils.WrapErrorf(utils.ErrFrontMatter, "front matter must be a mapping: %v", err)
	}
	m.node = &node
	return m, nil
}

// cutClosing finds the first line equal to the delimiter and splits around it.
func cutClosing(s string) (raw, body string, found bool) {
	offset := 0
	for offset <= len(s) {
		line := s[offset:]
		end := strings.IndexByte(line, '\n')
		next := len(s)
		if end >= 0 {
			line = line[:end]
			next = offset + end + 1
		}
		if strings.TrimRight(line, " \t\r") == delimiter {
			if end < 0 {
				return s[:offset], "", true
			}
			return s[:offset], s[next:], true
		}
		if end < 0 {
			break
		}
		offset = next
	}
	return "", "", false
}

// IsEmpty reports whether the block carried no data.
func (m *Matter) IsEmpty() bool {
	return m.node == nil || len(m.Data) == 0
}

// Stringify re-attaches this block in front of content, keeping the original key order.
func (m *Matter) Stringify(content string) (string, error) {
	if m.IsEmpty() {
		return content, nil
	}
	return stringifyValue(content, m.node)
}

// Stringify serializes data as a front matter block in front of content.
// Empty data yields content unchanged.
func Stringify(content string, data map[string]interface{}) (string, error) {
	if len(data) == 0 {
		return content, nil
	}
	return stringifyValue(content, data)
}

func stringifyValue(content string, v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", utils.WrapErrorf(utils.ErrFrontMatter, "YAML encoding failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		return "", utils.WrapErrorf(utils.ErrFrontMatter, "YAML encoding failed: %v", err)
	}

	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return delimiter + "\n" + out + delimiter + "\n" + content, nil
}
