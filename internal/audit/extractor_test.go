package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

var testNow = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func testExtractor() *Extractor {
	e := NewExtractor(KnownFirms, nil)
	e.now = func() time.Time { return testNow }
	return e
}

const sampleReport = `# USDX Security Audit

## Executive Summary

The engagement covered the USDX token contracts and the reserve manager. We
identified 1 critical, 3 high, 2 medium and 5 low severity findings; the
critical issue was resolved before publication.

## Findings

Details follow.
`

func TestExtract_BuildsRecordFromMarkdownReport(t *testing.T) {
	files := []domain.RepoFile{
		{
			Path:         "audits/certik-2024-usdx.md",
			URL:          "https://example.com/audits/certik-2024-usdx.md",
			LastModified: testNow.AddDate(0, -2, 0),
			Content:      sampleReport,
		},
	}

	records := testExtractor().Extract(files)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "CertiK", rec.Firm)
	assert.Contains(t, rec.Summary, "engagement covered the USDX token contracts")
	assert.Equal(t, domain.IssueCounts{Critical: 1, High: 3, Medium: 2, Low: 5}, rec.Issues)
	assert.Equal(t, "https://example.com/audits/certik-2024-usdx.md", rec.Link)
}

func TestExtract_OrderedNewestFirst(t *testing.T) {
	files := []domain.RepoFile{
		{Path: "audits/older-audit.md", LastModified: testNow.AddDate(0, -6, 0), Content: sampleReport},
		{Path: "audits/newer-audit.md", LastModified: testNow.AddDate(0, -1, 0), Content: sampleReport},
	}

	records := testExtractor().Extract(files)
	require.Len(t, records, 2)
	assert.True(t, records[0].Date.After(records[1].Date))
}

func TestExtract_LookbackWindowFiltersOldRecords(t *testing.T) {
	files := []domain.RepoFile{
		{Path: "audits/current-audit.md", LastModified: testNow.AddDate(0, -3, 0), Content: sampleReport},
		{Path: "audits/stale-audit.md", LastModified: testNow.AddDate(0, -20, 0), Content: sampleReport},
	}

	records := testExtractor().Extract(files)
	require.Len(t, records, 1)
	assert.Equal(t, testNow.AddDate(0, -3, 0), records[0].Date)
}

func TestExtract_FallsBackToNewestWhenAllStale(t *testing.T) {
	files := []domain.RepoFile{
		{Path: "audits/ancient-audit.md", LastModified: testNow.AddDate(-3, 0, 0), Content: sampleReport},
		{Path: "audits/old-audit.md", LastModified: testNow.AddDate(-1, 0, 0), Content: sampleReport},
	}

	records := testExtractor().Extract(files)
	require.Len(t, records, 1)
	assert.Equal(t, testNow.AddDate(-1, 0, 0), records[0].Date)
}

func TestExtract_SkipsNonAuditAndUndatedFiles(t *testing.T) {
	files := []domain.RepoFile{
		{Path: "contracts/Token.sol", LastModified: testNow, Content: "contract Token {}"},
		{Path: "audits/no-date.md", Content: sampleReport},
		{Path: "README.md", LastModified: testNow, Content: sampleReport},
	}

	assert.Empty(t, testExtractor().Extract(files))
}

func TestExtract_EmptyRepo(t *testing.T) {
	assert.Empty(t, testExtractor().Extract(nil))
}

func TestExtractSummary_PrefersSummarySection(t *testing.T) {
	content := `# Report

This opening paragraph is long enough to qualify as a summary on its own merits.

## Overview

` + strings.Repeat("The overview paragraph describes scope and outcome. ", 2) + `

## Rest
`
	f := domain.RepoFile{Path: "audits/r.md", Content: content}
	assert.Contains(t, extractSummary(f), "The overview paragraph describes scope")
}

func TestExtractSummary_FallsBackToFirstLongParagraph(t *testing.T) {
	content := "short\n\nThis document has no summary heading but this paragraph is clearly long enough.\n"
	f := domain.RepoFile{Path: "audits/r.md", Content: content}
	assert.Contains(t, extractSummary(f), "no summary heading")
}

func TestExtractSummary_PlaceholderWhenNoText(t *testing.T) {
	f := domain.RepoFile{Path: "audits/usdx-audit.pdf"}
	assert.Equal(t, "Security audit report: usdx-audit.pdf", extractSummary(f))
}

func TestParseIssueCounts(t *testing.T) {
	counts := parseIssueCounts("We found 2 Critical, 4 high and 1 low issues.")
	assert.Equal(t, domain.IssueCounts{Critical: 2, High: 4, Low: 1}, counts)

	assert.Equal(t, domain.IssueCounts{}, parseIssueCounts("no numeric findings"))
}

func TestInferFirm_RuleOrder(t *testing.T) {
	e := testExtractor()

	tests := []struct {
		path string
		want string
	}{
		// Rule 1: known firm anywhere in the path.
		{"audits/trail-of-bits/usdx.md", "Trail of Bits"},
		{"docs/Audit_Report_OpenZeppelin.md", "OpenZeppelin"},
		// Rule 2: segment preceding an audit segment.
		{"vendor/acmesec/audit-2023.md", "Acmesec"},
		// Rule 3: non-generic filename tokens.
		{"audits/bluefrost-final-report.md", "Bluefrost"},
		// Rule 4: sentinel.
		{"audits/audit-report-2021.md", FallbackFirm},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.inferFirm(tt.path), "path %s", tt.path)
	}
}

func TestOracleSignalFromFiles(t *testing.T) {
	t.Run("no signal", func(t *testing.T) {
		sig := OracleSignalFromFiles([]domain.RepoFile{
			{Path: "contracts/Token.sol", Content: "contract Token {}"},
		})
		assert.False(t, sig.Available)
	})

	t.Run("full signal", func(t *testing.T) {
		sig := OracleSignalFromFiles([]domain.RepoFile{
			{Path: "contracts/oracle/ChainlinkFeed.sol", Content: "uses chainlink aggregator"},
			{Path: "contracts/oracle/PythFeed.sol", Content: "pyth price feed with deviation threshold"},
			{Path: "contracts/Timelock.sol", Content: "timelock controller"},
		})
		assert.True(t, sig.Available)
		assert.True(t, sig.ReliableProvider)
		assert.True(t, sig.MultipleSources)
		assert.True(t, sig.HasTimelock)
		assert.True(t, sig.HasDeviationCheck)
		assert.False(t, sig.Centralized)
	})

	t.Run("centralized", func(t *testing.T) {
		sig := OracleSignalFromFiles([]domain.RepoFile{
			{Path: "contracts/PriceOracle.sol", Content: "function setPrice() onlyOwner"},
		})
		assert.True(t, sig.Available)
		assert.True(t, sig.Centralized)
		assert.False(t, sig.ReliableProvider)
	})
}
