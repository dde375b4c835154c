package domain

import "time"

// IssueCounts tallies findings by severity as parsed from an audit summary.
type IssueCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// AuditRecord is one structured audit artifact mined from the issuer's code
// repository. Records are ordered newest-first in the final report.
type AuditRecord struct {
	Firm    string      `json:"firm"`
	Date    time.Time   `json:"date"`
	Summary string      `json:"summary"`
	Link    string      `json:"link,omitempty"`
	Issues  IssueCounts `json:"issues"`
}

// RepoFile is a single file listed from a code-hosting repository. Content is
// populated only for text files small enough to fetch.
type RepoFile struct {
	Path         string    `json:"path"`
	URL          string    `json:"url,omitempty"`
	LastModified time.Time `json:"last_modified"`
	Content      string    `json:"content,omitempty"`
}

// OracleSignal summarizes the oracle-related patterns found in a repository.
// Available is false when the repository yielded no oracle evidence at all.
type OracleSignal struct {
	Available         bool `json:"available"`
	ReliableProvider  bool `json:"reliable_provider"`
	MultipleSources   bool `json:"multiple_sources"`
	HasTimelock       bool `json:"has_timelock"`
	HasDeviationCheck bool `json:"has_deviation_check"`
	Centralized       bool `json:"centralized"`
}
