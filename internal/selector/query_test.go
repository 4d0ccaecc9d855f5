package selector

import (
	"testing"

	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogPage = `<!doctype html><html><body>
<nav id="top"><a href="/">home</a><a href="/shop">shop</a></nav>
<main>
  <div class="card"><h2>first</h2><button class="buy">buy</button></div>
  <div class="card"><h2>second</h2><button class="buy">buy</button></div>
</main>
<div><div><em>deep</em></div></div>
</body></html>`

func TestQuery_Find(t *testing.T) {
	doc := parseHTML(t, catalogPage)

	t.Run("css", func(t *testing.T) {
		nodes, err := Query{CSS: "button.buy"}.Find(doc)
		require.NoError(t, err)
		require.Len(t, nodes, 2)
		assert.Equal(t, "main:nth-child(2) > div.card:nth-child(2) > button.buy:nth-child(2)", SynthesizeHTML(nodes[1]))
	})

	t.Run("xpath text result resolves to element", func(t *testing.T) {
		nodes, err := Query{XPath: "//nav/a[2]/text()"}.Find(doc)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "#top > a:nth-child(2)", SynthesizeHTML(nodes[0]))
	})

	t.Run("xpath attribute result resolves to owning element", func(t *testing.T) {
		nodes, err := Query{XPath: "//nav/a[2]/@href"}.Find(doc)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "a", nodes[0].Data)
		assert.Equal(t, "#top > a:nth-child(2)", SynthesizeHTML(nodes[0]))
	})

	t.Run("xpath attribute results of one element collapse", func(t *testing.T) {
		doc := parseHTML(t, `<html><body><div><a href="/x">x</a><a href="/y" title="y">y</a></div></body></html>`)
		nodes, err := Query{XPath: "//a[2]/@href | //a[2]/@title"}.Find(doc)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "div > a:nth-child(2)", SynthesizeHTML(nodes[0]))
	})

	t.Run("invalid inputs", func(t *testing.T) {
		_, err := Query{}.Find(doc)
		assert.ErrorIs(t, err, ErrInvalidSelector)

		_, err = Query{CSS: "a", XPath: "//a"}.Find(doc)
		assert.ErrorIs(t, err, ErrInvalidSelector)

		_, err = Query{CSS: "div[[["}.Find(doc)
		assert.ErrorIs(t, err, ErrInvalidSelector)

		_, err = Query{XPath: "//*["}.Find(doc)
		assert.ErrorIs(t, err, ErrInvalidSelector)
	})
}

func TestVerify(t *testing.T) {
	doc := parseHTML(t, catalogPage)

	t.Run("generated selectors address their element", func(t *testing.T) {
		nodes, err := Query{CSS: "h2, button, a"}.Find(doc)
		require.NoError(t, err)
		require.NotEmpty(t, nodes)
		for _, n := range nodes {
			sel := SynthesizeHTML(n)
			count, err := Verify(doc, sel)
			require.NoError(t, err, sel)
			assert.Equal(t, 1, count, sel)
		}
	})

	t.Run("shallow paths may match more than one element", func(t *testing.T) {
		nested := parseHTML(t, `<body><div><div>x</div></div></body>`)
		outer, err := Query{CSS: "body > div"}.Find(nested)
		require.NoError(t, err)
		require.Len(t, outer, 1)

		sel := SynthesizeHTML(outer[0])
		assert.Equal(t, "div", sel)
		count, err := Verify(nested, sel)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Contains(t, cascadia.MustCompile(sel).MatchAll(nested), outer[0], "the target is among the matches")
	})

	t.Run("unescaped class names do not compile", func(t *testing.T) {
		bad := parseHTML(t, `<body><p class="1st">x</p></body>`)
		p, err := Query{XPath: "//p"}.Find(bad)
		require.NoError(t, err)

		_, err = Verify(bad, SynthesizeHTML(p[0]))
		assert.ErrorIs(t, err, ErrInvalidSelector)
	})
}
