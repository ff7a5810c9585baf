// Package shortcut answers canonical question patterns by direct field
// lookup, bypassing embedding-based ranking entirely.
package shortcut

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/medinfo/medicines-api/index"
)

// Rule maps a set of trigger substrings to one canonical answer field.
type Rule struct {
	Field    string   `yaml:"field"`
	Triggers []string `yaml:"triggers"`
}

// Matcher holds an ordered rule table. Order is a priority policy: the first
// rule whose trigger appears in the query wins.
type Matcher struct {
	rules  []Rule
	folder cases.Caser
}

// defaultRules is the built-in table. Each trigger set carries both English
// and Burmese variants. Priority: uses > side_effects > brand_names >
// contraindications > mechanism_of_action > patient_information.
var defaultRules = []Rule{
	{Field: index.FieldUses, Triggers: []string{"used for", "uses", "ဘာအတွက်", "အသုံးပြု"}},
	{Field: index.FieldSideEffects, Triggers: []string{"side effects", "ဘေးထွက်ဆိုးကျိုး"}},
	{Field: index.FieldBrandNames, Triggers: []string{"brand names", "အမှတ်တံဆိပ်"}},
	{Field: index.FieldContraindications, Triggers: []string{"contraindications", "ဆေးခံ့ကန့်ချက်"}},
	{Field: index.FieldMechanismOfAction, Triggers: []string{"mechanism of action", "လုပ်ဆောင်ချက်"}},
	{Field: index.FieldPatientInformation, Triggers: []string{"how should i take", "ဘယ်လိုသောက်သင့်"}},
}

var knownFields = map[string]bool{
	index.FieldUses:               true,
	index.FieldSideEffects:        true,
	index.FieldBrandNames:         true,
	index.FieldContraindications:  true,
	index.FieldMechanismOfAction:  true,
	index.FieldPatientInformation: true,
}

// NewMatcher returns a matcher with the built-in rule table.
func NewMatcher() *Matcher {
	return &Matcher{rules: defaultRules, folder: cases.Fold()}
}

// NewMatcherWithRules returns a matcher with a custom rule table, keeping
// the given order as priority.
func NewMatcherWithRules(rules []Rule) (*Matcher, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("shortcut: empty rule table")
	}
	for _, r := range rules {
		if !knownFields[r.Field] {
			return nil, fmt.Errorf("shortcut: unknown field %q", r.Field)
		}
		if len(r.Triggers) == 0 {
			return nil, fmt.Errorf("shortcut: rule for %q has no triggers", r.Field)
		}
	}
	return &Matcher{rules: rules, folder: cases.Fold()}, nil
}

// LoadRules reads a rule table override from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return doc.Rules, nil
}

// Match returns the answer field for the first rule triggered by the query,
// or false when no rule matches and the caller should fall through to the
// ranker.
func (m *Matcher) Match(query string) (string, bool) {
	folded := m.folder.String(query)
	for _, rule := range m.rules {
		for _, trigger := range rule.Triggers {
			if strings.Contains(folded, m.folder.String(trigger)) {
				return rule.Field, true
			}
		}
	}
	return "", false
}

// Answer resolves a matched query directly against the document's field
// index. Missing values come back as the not-available sentinel, never an
// error.
func (m *Matcher) Answer(query string, doc *index.Document) (string, bool) {
	field, ok := m.Match(query)
	if !ok {
		return "", false
	}

	value, ok := doc.FieldIndex[field]
	if !ok || strings.TrimSpace(value) == "" {
		return index.NotAvailable, true
	}
	return value, true
}
