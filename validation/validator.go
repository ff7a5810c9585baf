// Package validation provides user-input validation and corpus quality
// reporting.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/medicines/entities"
)

const maxQuestionLength = 500

// Substrings rejected in user input. strings.Contains is faster than regex
// for these and the list is short.
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:", "onload=", "onerror=",
	"eval(", "expression(",
	"union select", "drop table", "delete from", "insert into",
	"../", "..\\", "file://",
}

// ValidateQuestion checks a free-text question before it reaches the
// retrieval pipeline. Emptiness is checked by the orchestrator; this guards
// length and injection attempts.
func ValidateQuestion(question string) error {
	if utf8.RuneCountInString(question) > maxQuestionLength {
		return fmt.Errorf("question too long: %d characters (max %d)", utf8.RuneCountInString(question), maxQuestionLength)
	}

	lowered := strings.ToLower(question)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowered, pattern) {
			return fmt.Errorf("question contains disallowed pattern")
		}
	}

	return nil
}

// ValidateID parses a medicine id from a URL parameter.
func ValidateID(input string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("id must be a number: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}

// QualityReport summarizes data quality issues found in a loaded corpus.
type QualityReport struct {
	DuplicateIDs            []int
	WithoutGenericNames     int
	WithoutBrands           int
	WithoutUses             int
	WithoutSymptomsDiseases int
}

// ReportQuality scans the corpus and logs anything suspicious. None of the
// findings are fatal; the corpus was already filtered at normalization time.
func ReportQuality(medicines []entities.Medicine) *QualityReport {
	report := &QualityReport{}

	idCount := make(map[int]int, len(medicines))
	for _, med := range medicines {
		idCount[med.ID]++

		if len(med.GenericNames) == 0 {
			report.WithoutGenericNames++
		}
		if len(med.Brands) == 0 {
			report.WithoutBrands++
		}
		if strings.TrimSpace(med.Uses) == "" {
			report.WithoutUses++
		}
		if len(med.Symptoms) == 0 && len(med.Diseases) == 0 {
			report.WithoutSymptomsDiseases++
		}
	}

	for id, count := range idCount {
		if count > 1 {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
		}
	}

	if len(report.DuplicateIDs) > 0 {
		logging.Error("Duplicate medicine ids in corpus", "count", len(report.DuplicateIDs), "ids", report.DuplicateIDs)
	}
	if report.WithoutGenericNames > 0 {
		logging.Warn("Medicines without generic names", "count", report.WithoutGenericNames)
	}
	if report.WithoutUses > 0 {
		logging.Warn("Medicines without uses text", "count", report.WithoutUses)
	}

	return report
}
