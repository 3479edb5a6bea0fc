package extractor

import (
	"github.com/PuerkitoBio/goquery"
)

const (
	textboxSelector         = `div[role="textbox"]`
	contentEditableSelector = `div[contenteditable="true"]`

	// TriggerSelector matches the feed's comment buttons across known variants.
	TriggerSelector = `button[aria-label*="omment"], button[aria-label*="comment"], button[aria-label*="Comment"], ` +
		`button[aria-label*="Comment on"], button[data-control-name="comment"], button[data-control-name="comment_reshare"]`

	// AttachedAttr marks buttons that already carry a toolbar listener.
	AttachedAttr = "data-li-ai-attached"
)

// LocateEditor picks the comment editor for the trigger, in order: the focused
// element if it is a textbox, a textbox inside the container, the last textbox
// in the document, the last contenteditable div in the document.
// It returns nil when nothing editable is found.
func LocateEditor(t Target) (editor *goquery.Selection) {
	defer func() {
		if recover() != nil {
			editor = nil
		}
	}()

	if t.Focused != nil && t.Focused.Length() > 0 && attr(t.Focused.First(), "role") == "textbox" {
		editor = t.Focused.First()
	}
	if editor == nil {
		if c := t.Container(); c != nil {
			if found := c.Find(textboxSelector).First(); found.Length() > 0 {
				editor = found
			}
		}
	}
	if editor == nil && t.Doc != nil {
		if found := t.Doc.Find(textboxSelector).Last(); found.Length() > 0 {
			editor = found
		}
	}
	if editor == nil && t.Doc != nil {
		if found := t.Doc.Find(contentEditableSelector).Last(); found.Length() > 0 {
			editor = found
		}
	}
	if editor == nil || !Editable(editor) {
		return nil
	}
	return editor
}

// Editable reports whether sel behaves as a rich-text input.
func Editable(sel *goquery.Selection) bool {
	return attr(sel, "role") == "textbox" || attr(sel, "contenteditable") == "true"
}

// Fill replaces the editor content with a single text node.
func Fill(editor *goquery.Selection, text string) {
	if editor == nil || editor.Length() == 0 {
		return
	}
	editor.SetText(text)
}

// AttachTriggers returns the comment buttons under root that were not seen
// before and marks them, so re-scanning a mutated document is idempotent.
func AttachTriggers(root *goquery.Selection) *goquery.Selection {
	fresh := root.Find(TriggerSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return attr(s, AttachedAttr) != "true"
	})
	fresh.SetAttr(AttachedAttr, "true")
	return fresh
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return v
}
