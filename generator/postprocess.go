package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// 评论编辑器只接受纯文本，模型偶尔会输出 Markdown 强调/标题。
var markdownHint = regexp.MustCompile("(?m)(\\*\\*|__|~~|`|^#{1,6}\\s|\\[[^\\]]+\\]\\([^)]+\\))")

// PostProcess 去掉首尾空白；含 Markdown 标记时展开为纯文本。
// Only markup is removed: list markers, inline HTML, code and the source's
// line layout survive.
func PostProcess(raw string) string {
	md := strings.TrimSpace(raw)
	if md == "" || !markdownHint.MatchString(md) {
		return md
	}
	return strings.TrimSpace(flattenMarkdown(md))
}

// flatBlock is one rendered block with the source lines it came from.
type flatBlock struct {
	text        string
	first, last int
	positioned  bool
}

func flattenMarkdown(md string) string {
	src := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var blocks []flatBlock
	var cur strings.Builder
	flush := func(n ast.Node) {
		s := strings.TrimRight(strings.TrimLeft(cur.String(), "\n"), " \t\n")
		cur.Reset()
		if strings.TrimSpace(s) == "" {
			return
		}
		b := flatBlock{text: s}
		b.first, b.last, b.positioned = lineSpan(src, n)
		blocks = append(blocks, b)
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				cur.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					cur.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				cur.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				cur.Write(node.URL(src))
			}
		case *ast.RawHTML:
			if entering {
				for i := 0; i < node.Segments.Len(); i++ {
					seg := node.Segments.At(i)
					cur.Write(seg.Value(src))
				}
			}
		case *ast.ListItem:
			if entering {
				cur.WriteString(listMarker(node))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			if entering {
				writeLines(&cur, src, n)
			} else {
				flush(n)
			}
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if !entering {
				flush(n)
			}
		}
		return ast.WalkContinue, nil
	})

	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			prev := blocks[i-1]
			if prev.positioned && b.positioned && b.first-prev.last <= 1 {
				sb.WriteByte('\n')
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(b.text)
	}
	return sb.String()
}

// listMarker returns the item's indent and ordinal ("3. ", "2) ") or "- ".
func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok {
		return ""
	}
	depth := 0
	for p := item.Parent(); p != nil; p = p.Parent() {
		if _, isList := p.(*ast.List); isList {
			depth++
		}
	}
	indent := strings.Repeat("  ", depth-1)
	if !list.IsOrdered() {
		return indent + "- "
	}
	ordinal := list.Start
	for sib := list.FirstChild(); sib != nil && sib != ast.Node(item); sib = sib.NextSibling() {
		ordinal++
	}
	return indent + fmt.Sprintf("%d%c ", ordinal, list.Marker)
}

func writeLines(sb *strings.Builder, src []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
}

// lineSpan reports the first and last source line numbers covered by n.
func lineSpan(src []byte, n ast.Node) (first, last int, ok bool) {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0, 0, false
	}
	start := lines.At(0).Start
	stop := lines.At(lines.Len() - 1).Stop
	for stop > start && (src[stop-1] == '\n' || src[stop-1] == '\r') {
		stop--
	}
	if stop <= start {
		stop = start + 1
	}
	first = strings.Count(string(src[:start]), "\n")
	last = strings.Count(string(src[:stop-1]), "\n")
	return first, last, true
}
