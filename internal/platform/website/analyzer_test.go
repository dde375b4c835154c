package website

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractSignals_FullTransparencySite(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<nav><a href="/transparency">Transparency</a></nav>
		<main>
			<p>Our reserve dashboard shows holdings updated in real time.</p>
			<p>We publish a monthly attestation by an independent accountant.</p>
			<p>Every token is backed 1:1 by cash and cash equivalents.</p>
		</main>
	</body></html>`)

	signals := ExtractSignals(doc)
	assert.True(t, signals.Available)
	assert.True(t, signals.HasTransparencyPage)
	assert.True(t, signals.HasReserveDashboard)
	assert.True(t, signals.HasRegularReporting)
	assert.Equal(t, domain.CollateralFiat, signals.CollateralType)
}

func TestExtractSignals_CryptoCollateralized(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<p>A decentralized, overcollateralized stablecoin governed by its holders.</p>
	</body></html>`)

	signals := ExtractSignals(doc)
	assert.True(t, signals.Available)
	assert.False(t, signals.HasTransparencyPage)
	assert.Equal(t, domain.CollateralCrypto, signals.CollateralType)
}

func TestExtractSignals_AlgorithmicMention(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<p>Stability is maintained through an algorithmic supply mechanism.</p>
	</body></html>`)

	signals := ExtractSignals(doc)
	assert.Equal(t, domain.CollateralAlgorithmic, signals.CollateralType)
}

func TestExtractSignals_FiatWinsOverCryptoMention(t *testing.T) {
	// Issuer copy that mentions crypto in passing must still classify as
	// fiat when the backing language is fiat.
	doc := parseHTML(t, `<html><body>
		<p>Unlike crypto-native assets, every token is fiat-backed and redeemable.</p>
	</body></html>`)

	signals := ExtractSignals(doc)
	assert.Equal(t, domain.CollateralFiat, signals.CollateralType)
}

func TestExtractSignals_BarePage(t *testing.T) {
	doc := parseHTML(t, `<html><body><p>Welcome to our token.</p></body></html>`)

	signals := ExtractSignals(doc)
	assert.True(t, signals.Available)
	assert.False(t, signals.HasTransparencyPage)
	assert.False(t, signals.HasReserveDashboard)
	assert.False(t, signals.HasRegularReporting)
	assert.Equal(t, domain.CollateralUnknown, signals.CollateralType)
}

func TestExtractSignals_TransparencyLinkByHref(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="https://example.com/proof-of-reserve">Learn more</a>
	</body></html>`)

	signals := ExtractSignals(doc)
	assert.True(t, signals.HasTransparencyPage)
}
