package selector

import (
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cdpElement(id cdp.NodeID, name string, attrs []string, children ...*cdp.Node) *cdp.Node {
	return &cdp.Node{
		NodeID:     id,
		NodeType:   cdp.NodeTypeElement,
		NodeName:   name,
		LocalName:  "",
		Attributes: attrs,
		Children:   children,
	}
}

func TestFromCDP(t *testing.T) {
	text := &cdp.Node{NodeID: 20, NodeType: cdp.NodeTypeText, NodeName: "#text", NodeValue: "hi"}
	button := cdpElement(7, "BUTTON", []string{"class", "btn primary", "type", "submit"}, text)
	shadowChild := cdpElement(30, "SPAN", nil)
	form := cdpElement(6, "FORM", nil, cdpElement(5, "INPUT", []string{"name", "q"}), button)
	form.ShadowRoots = []*cdp.Node{{NodeID: 29, NodeType: cdp.NodeTypeDocumentFragment, Children: []*cdp.Node{shadowChild}}}
	body := cdpElement(4, "BODY", nil, form)
	head := cdpElement(3, "HEAD", nil)
	root := &cdp.Node{
		NodeID:   1,
		NodeType: cdp.NodeTypeDocument,
		NodeName: "#document",
		Children: []*cdp.Node{
			{NodeID: 8, NodeType: cdp.NodeTypeDocumentType, NodeName: "html"},
			cdpElement(2, "HTML", []string{"lang", "en"}, head, body),
		},
	}

	index := FromCDP(root)

	require.Len(t, index, 6, "only element nodes outside shadow roots are indexed")
	assert.NotContains(t, index, cdp.NodeID(30))
	assert.NotContains(t, index, cdp.NodeID(20))

	btn := index[7]
	require.NotNil(t, btn)
	assert.Equal(t, "button", btn.TagName())
	assert.Equal(t, []string{"btn", "primary"}, btn.Classes())
	assert.Equal(t, "form > button.btn.primary:nth-child(2)", Synthesize(btn))

	htmlEl := index[2]
	assert.Nil(t, htmlEl.Parent(), "the document element has no parent element")
	assert.Equal(t, "", Synthesize(index[4]))
}

func TestFromCDP_PrefersLocalName(t *testing.T) {
	n := cdpElement(1, "svg:RECT", []string{"id", ""})
	n.LocalName = "rect"

	index := FromCDP(n)
	require.Contains(t, index, cdp.NodeID(1))
	assert.Equal(t, "rect", index[1].Tag)
	assert.Equal(t, "rect", Synthesize(index[1]), "an empty id attribute does not short-circuit")
}

func TestFromCDP_Nil(t *testing.T) {
	assert.Empty(t, FromCDP(nil))
}
