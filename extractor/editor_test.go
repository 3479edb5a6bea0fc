package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `
<article id="a1">
  <span class="break-words">First post body text long enough</span>
  <button class="trigger" aria-label="Comment on first post">Comment</button>
  <div role="textbox" id="inside"></div>
</article>
<article id="a2">
  <span class="break-words">Second post body</span>
  <button aria-label="Comment on second post">Comment</button>
</article>
<div role="textbox" id="last-textbox"></div>
<div contenteditable="true" id="editable"></div>
<input id="search">`

func TestLocateEditorFocusedTextbox(t *testing.T) {
	target, err := Load(strings.NewReader(feed), "button.trigger", "#last-textbox")
	require.NoError(t, err)
	assert.Equal(t, "last-textbox", attr(LocateEditor(target), "id"))
}

func TestLocateEditorContainerTextbox(t *testing.T) {
	target, err := Load(strings.NewReader(feed), "button.trigger", "#search")
	require.NoError(t, err)
	assert.Equal(t, "inside", attr(LocateEditor(target), "id"))
}

func TestLocateEditorLastTextboxInDocument(t *testing.T) {
	target, err := Load(strings.NewReader(feed), "#a2 button", "")
	require.NoError(t, err)
	assert.Equal(t, "last-textbox", attr(LocateEditor(target), "id"))
}

func TestLocateEditorContentEditable(t *testing.T) {
	doc := `<article><button class="trigger">Comment</button></article>
<div contenteditable="true" id="first"></div><div contenteditable="true" id="second"></div>`
	target, err := Load(strings.NewReader(doc), "button.trigger", "")
	require.NoError(t, err)
	assert.Equal(t, "second", attr(LocateEditor(target), "id"))
}

func TestLocateEditorNothingEditable(t *testing.T) {
	target, err := Load(strings.NewReader(`<article><button class="trigger">Comment</button></article><textarea></textarea>`), "button.trigger", "")
	require.NoError(t, err)
	assert.Nil(t, LocateEditor(target))
	assert.Nil(t, LocateEditor(Target{}))
}

func TestFillReplacesContent(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div role="textbox"><p>old <b>draft</b></p></div>`))
	require.NoError(t, err)
	editor := doc.Find(`div[role="textbox"]`)

	Fill(editor, "Totally agree <3")
	assert.Equal(t, "Totally agree <3", editor.Text())
	assert.Equal(t, 0, editor.Children().Length())

	Fill(nil, "ignored")
}

func TestAttachTriggersIsIdempotent(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(feed))
	require.NoError(t, err)

	first := AttachTriggers(doc.Selection)
	assert.Equal(t, 2, first.Length())
	assert.Equal(t, 0, AttachTriggers(doc.Selection).Length())

	doc.Find("#a2").AppendHtml(`<button data-control-name="comment">Reply</button><button aria-label="Like">Like</button>`)
	fresh := AttachTriggers(doc.Selection)
	require.Equal(t, 1, fresh.Length())
	assert.Equal(t, "comment", attr(fresh, "data-control-name"))
	assert.Equal(t, "true", attr(fresh, AttachedAttr))
}

func TestAnalyze(t *testing.T) {
	page, err := New(nil).Analyze(strings.NewReader(feed), "button.trigger", "")
	require.NoError(t, err)
	assert.Equal(t, "First post body text long enough", page.PostText)
	require.NotNil(t, page.Editor)
	assert.Equal(t, "inside", attr(page.Editor, "id"))
}
