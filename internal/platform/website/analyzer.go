// Package website scrapes the issuer's homepage for transparency signals:
// dedicated transparency pages, reserve dashboards, attestation cadence, and
// the collateral model.
package website

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// transparencyLinkKeywords mark a navigation link as a transparency page.
var transparencyLinkKeywords = []string{
	"transparency", "attestation", "reserves", "proof-of-reserve", "proof of reserve",
}

// dashboardKeywords mark live reserve reporting.
var dashboardKeywords = []string{
	"reserve dashboard", "live reserves", "real-time reserves", "realtime reserves",
	"reserves dashboard", "proof of reserves",
}

// reportingKeywords mark a regular attestation or audit cadence.
var reportingKeywords = []string{
	"monthly attestation", "quarterly attestation", "monthly report",
	"quarterly report", "monthly audit", "quarterly audit", "attestation report",
}

// collateralRules map page phrasing to a collateral model. Fiat phrasing is
// checked first since issuer copy often mentions crypto assets in passing.
var collateralRules = []struct {
	keywords []string
	kind     string
}{
	{[]string{"fiat-backed", "fiat backed", "backed by us dollar", "backed by u.s. dollar", "cash and cash equivalents", "backed 1:1 by", "dollar reserves"}, domain.CollateralFiat},
	{[]string{"crypto-backed", "crypto backed", "crypto-collateralized", "crypto collateralized", "overcollateralized", "over-collateralized", "collateralized by crypto"}, domain.CollateralCrypto},
	{[]string{"algorithmic", "seigniorage", "rebase mechanism"}, domain.CollateralAlgorithmic},
}

// Analyzer fetches and parses issuer websites.
type Analyzer struct {
	httpClient *http.Client
	userAgent  string
}

// New creates a website analyzer.
func New(timeout time.Duration) *Analyzer {
	return &Analyzer{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "stablewatch/1.0",
	}
}

// FetchSignals downloads the page at url and extracts transparency signals
// from it. A failed fetch or parse returns zero-valued signals together with
// the error; callers degrade by scoring with Available=false.
func (a *Analyzer) FetchSignals(ctx context.Context, url string) (domain.TransparencySignals, error) {
	doc, err := a.fetch(ctx, url)
	if err != nil {
		return domain.TransparencySignals{}, err
	}

	signals := ExtractSignals(doc)
	signals.LastUpdated = time.Now().UTC()
	return signals, nil
}

// ExtractSignals scans a parsed document for transparency signals. Split out
// of FetchSignals so the heuristics are testable without a live site.
func ExtractSignals(doc *goquery.Document) domain.TransparencySignals {
	signals := domain.TransparencySignals{
		Available:      true,
		CollateralType: domain.CollateralUnknown,
	}

	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		text := strings.ToLower(href + " " + sel.Text())
		if containsAny(text, transparencyLinkKeywords) {
			signals.HasTransparencyPage = true
			return false
		}
		return true
	})

	pageText := strings.ToLower(doc.Text())
	signals.HasReserveDashboard = containsAny(pageText, dashboardKeywords)
	signals.HasRegularReporting = containsAny(pageText, reportingKeywords)

	for _, rule := range collateralRules {
		if containsAny(pageText, rule.keywords) {
			signals.CollateralType = rule.kind
			break
		}
	}
	return signals
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// fetch downloads url and parses the body into a document.
func (a *Analyzer) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("website: create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("website: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("website: fetch %s: HTTP %d: %w", url, resp.StatusCode, domain.ErrUnavailable)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("website: parse %s: %w", url, err)
	}
	return doc, nil
}

// Compile-time interface check.
var _ domain.WebsiteAnalyzer = (*Analyzer)(nil)
