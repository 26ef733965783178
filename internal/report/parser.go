package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ReportParser deserializes a report file back into structured data.
type ReportParser interface {
	Parse(data []byte) (*SessionReport, error)
}

// JSONParser parses a JSON-encoded SessionReport.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*SessionReport, error) {
	var r SessionReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse JSON report: %w", err)
	}
	return &r, nil
}

// MarkdownParser parses a Markdown-rendered SessionReport by extracting the
// embedded base64 JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*SessionReport, error) {
	content := string(data)

	// Require the version sentinel.
	if !strings.Contains(content, "<!-- docsweep-report-version: 1 -->") {
		return nil, fmt.Errorf("not a valid docsweep report: missing version sentinel")
	}

	// Extract the base64 payload from <!-- docsweep-data: <base64> -->.
	const prefix = "<!-- docsweep-data: "
	const suffix = " -->"
	start := strings.Index(content, prefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid docsweep report: missing data payload")
	}
	start += len(prefix)
	end := strings.Index(content[start:], suffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid docsweep report: malformed data payload")
	}
	encoded := content[start : start+end]

	jsonBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not a valid docsweep report: corrupted base64 payload: %w", err)
	}

	var r SessionReport
	if err := json.Unmarshal(jsonBytes, &r); err != nil {
		return nil, fmt.Errorf("not a valid docsweep report: failed to parse embedded JSON: %w", err)
	}

	return &r, nil
}
