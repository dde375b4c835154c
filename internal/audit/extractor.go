// Package audit mines a repository's file listing for audit artifacts and
// structures them into dated, firm-attributed, severity-tagged records. It
// also derives the oracle-setup signal from the same file listing.
package audit

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// lookbackMonths is the rolling window for "current" audits. When no file
// falls inside the window, the single most-recent record is returned instead
// so callers always have a latest-known reference.
const lookbackMonths = 8

// minSummaryLen is the shortest paragraph accepted as an audit summary.
const minSummaryLen = 50

// Extractor turns repository files into audit records. The firm list and
// clock are injected so tests can supply alternate tables and a fixed now.
type Extractor struct {
	firms  []string
	now    func() time.Time
	logger *slog.Logger
}

// NewExtractor creates an Extractor with the given known-firm table. A nil
// logger disables logging.
func NewExtractor(firms []string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		firms:  firms,
		now:    time.Now,
		logger: logger,
	}
}

// Extract returns audit records ordered newest-first, filtered to the
// lookback window. A repository with no identifiable audit files yields an
// empty slice, not an error; individual file failures are skipped.
func (e *Extractor) Extract(files []domain.RepoFile) []domain.AuditRecord {
	var records []domain.AuditRecord
	for _, f := range files {
		if !isAuditFile(f.Path) {
			continue
		}
		rec, ok := e.extractOne(f)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})

	cutoff := e.now().AddDate(0, -lookbackMonths, 0)
	var recent []domain.AuditRecord
	for _, r := range records {
		if !r.Date.Before(cutoff) {
			recent = append(recent, r)
		}
	}
	if len(recent) == 0 {
		// Nothing inside the window: keep the newest record regardless of
		// age as the latest-known reference.
		return records[:1]
	}
	return recent
}

// extractOne builds a single record from one file, reporting ok=false when
// the file cannot be processed.
func (e *Extractor) extractOne(f domain.RepoFile) (rec domain.AuditRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("audit: skipping file",
				slog.String("path", f.Path),
				slog.Any("panic", r),
			)
			ok = false
		}
	}()

	if f.LastModified.IsZero() {
		return domain.AuditRecord{}, false
	}

	summary := extractSummary(f)
	return domain.AuditRecord{
		Firm:    e.inferFirm(f.Path),
		Date:    f.LastModified,
		Summary: summary,
		Link:    f.URL,
		Issues:  parseIssueCounts(summary),
	}, true
}

// isAuditFile applies the audit naming/location heuristic to a path.
func isAuditFile(path string) bool {
	p := strings.ToLower(path)
	if !strings.Contains(p, "audit") {
		return false
	}
	switch {
	case strings.HasSuffix(p, ".md"), strings.HasSuffix(p, ".txt"),
		strings.HasSuffix(p, ".pdf"), strings.HasSuffix(p, ".rst"):
		return true
	}
	return false
}

// issueCountRe matches "<integer> <severity>" mentions, e.g. "2 critical".
var issueCountRe = regexp.MustCompile(`(?i)(\d+)\s+(critical|high|medium|low)`)

// parseIssueCounts scans the summary for per-severity finding counts.
// Unmatched severities stay zero.
func parseIssueCounts(summary string) domain.IssueCounts {
	var counts domain.IssueCounts
	for _, m := range issueCountRe.FindAllStringSubmatch(summary, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 {
			continue
		}
		switch strings.ToLower(m[2]) {
		case "critical":
			counts.Critical = n
		case "high":
			counts.High = n
		case "medium":
			counts.Medium = n
		case "low":
			counts.Low = n
		}
	}
	return counts
}

// extractSummary locates the best summary paragraph for a file: first a
// paragraph under a heading whose title contains "summary" or "overview",
// then any paragraph longer than the minimum, then a generic placeholder.
func extractSummary(f domain.RepoFile) string {
	if f.Content != "" {
		if s, ok := summaryFromSection(f.Content); ok {
			return s
		}
		if s, ok := firstLongParagraph(f.Content); ok {
			return s
		}
	}
	return "Security audit report: " + fileName(f.Path)
}

// summaryFromSection finds a heading containing "summary" or "overview" and
// returns that section's first sufficiently long paragraph.
func summaryFromSection(content string) (string, bool) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		title := strings.ToLower(strings.TrimLeft(trimmed, "# "))
		if !strings.Contains(title, "summary") && !strings.Contains(title, "overview") {
			continue
		}

		// Collect the section body up to the next heading.
		var body []string
		for _, next := range lines[i+1:] {
			if strings.HasPrefix(strings.TrimSpace(next), "#") {
				break
			}
			body = append(body, next)
		}
		if s, ok := firstLongParagraph(strings.Join(body, "\n")); ok {
			return s, true
		}
	}
	return "", false
}

// firstLongParagraph returns the first blank-line-delimited paragraph longer
// than minSummaryLen characters.
func firstLongParagraph(content string) (string, bool) {
	for _, para := range strings.Split(content, "\n\n") {
		p := strings.TrimSpace(strings.ReplaceAll(para, "\n", " "))
		if len(p) > minSummaryLen {
			return p, true
		}
	}
	return "", false
}

func fileName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
