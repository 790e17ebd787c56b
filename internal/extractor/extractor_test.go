package extractor

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyLayout = `
<html><body>
<ul class="products-listing">
  <li class="product-item" data-articlecode="0714790001">
    <a class="link" href="/tr_tr/productpage.0714790001.html">
      <img data-src="//lp2.hm.com/hmgoepprod?set=source[/item1.jpg]" alt="">
    </a>
    <h3 class="item-heading"><a class="link">Slim Fit Tişört</a></h3>
    <div class="item-price">
      <span class="price regular">299,99 TL</span>
    </div>
  </li>
  <li class="product-item" data-articlecode="0714790002">
    <h3 class="item-heading"><a class="link">Oversized Kapüşonlu</a></h3>
    <div class="item-price">
      <span class="price sale">349,99 TL</span>
      <span class="price-old">499,99 TL</span>
    </div>
  </li>
</ul>
</body></html>`

const modernLayout = `
<html><body>
<section class="product-grid">
  <article class="hm-product-item" data-articlecode="1016971001">
    <a href="/en_us/productpage.1016971001.html">
      <img src="https://image.hm.com/item2.jpg" alt="">
    </a>
    <h3 class="link">Regular Fit T-shirt</h3>
    <span class="ae-currency-price">$9.99</span>
  </article>
</section>
</body></html>`

func TestExtractLegacyLayout(t *testing.T) {
	e := New(slog.Default())

	got, err := e.Extract(legacyLayout, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "0714790001", got[0].ArticleCode)
	assert.Equal(t, "Slim Fit Tişört", got[0].Name)
	assert.Equal(t, "299,99 TL", got[0].PriceText)
	assert.Empty(t, got[0].OriginalPriceText)
	assert.Equal(t, "https://lp2.hm.com/hmgoepprod?set=source[/item1.jpg]", got[0].ImageURL)
	assert.Equal(t, "/tr_tr/productpage.0714790001.html", got[0].ProductURL)

	assert.Equal(t, "0714790002", got[1].ArticleCode)
	assert.Equal(t, "349,99 TL", got[1].PriceText, "struck-through price must not shadow the current one")
	assert.Equal(t, "499,99 TL", got[1].OriginalPriceText)
}

func TestExtractModernLayout(t *testing.T) {
	e := New(slog.Default())

	got, err := e.Extract(modernLayout, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "1016971001", got[0].ArticleCode)
	assert.Equal(t, "Regular Fit T-shirt", got[0].Name)
	assert.Equal(t, "$9.99", got[0].PriceText)
	assert.Equal(t, "https://image.hm.com/item2.jpg", got[0].ImageURL)
}

func TestExtractSkipsBrokenCards(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for i := 1; i <= 10; i++ {
		switch i {
		case 3:
			// no article code
			b.WriteString(`<li class="product-item"><span class="price">$9.99</span></li>`)
		case 7:
			// no price
			b.WriteString(`<li class="product-item" data-articlecode="0000000007"><h3 class="item-heading">Hat</h3></li>`)
		default:
			fmt.Fprintf(&b, `<li class="product-item" data-articlecode="%010d"><span class="price">$%d.99</span></li>`, i, i)
		}
	}
	b.WriteString("</ul></body></html>")

	e := New(slog.Default())

	got, err := e.Extract(b.String(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 8, "both broken cards skipped, the rest kept")
}

func TestExtractNameFallback(t *testing.T) {
	html := `<li class="product-item" data-articlecode="0000000001"><span class="price">$5.00</span></li>`

	e := New(slog.Default())

	got, err := e.Extract(html, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Unknown Product", got[0].Name)
}

func TestExtractLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, `<li class="product-item" data-articlecode="%010d"><span class="price">$1.00</span></li>`, i)
	}

	e := New(slog.Default())

	got, err := e.Extract(b.String(), 30)
	require.NoError(t, err)
	assert.Len(t, got, 30)
}

func TestExtractNoProducts(t *testing.T) {
	e := New(slog.Default())

	tests := []struct {
		name string
		html string
	}{
		{"empty document", ""},
		{"no product markup", "<html><body><div>maintenance</div></body></html>"},
		{"only broken cards", `<li class="product-item"><span class="price"></span></li>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(tt.html, 0)
			assert.ErrorIs(t, err, ErrNoProducts)
		})
	}
}
