// Package index derives an embeddable Document per medicine and holds the
// immutable set of documents served to the ranker.
package index

import (
	"fmt"
	"strings"

	"github.com/medinfo/medicines-api/medicines/entities"
)

// Canonical field names addressable through a Document's FieldIndex.
const (
	FieldUses               = "uses"
	FieldSideEffects        = "side_effects"
	FieldBrandNames         = "brand_names"
	FieldContraindications  = "contraindications"
	FieldMechanismOfAction  = "mechanism_of_action"
	FieldPatientInformation = "patient_information"
)

// NotAvailable is returned for any addressed field that is empty in the
// source data. Extraction never fails on missing sub-fields.
const NotAvailable = "Information not available."

// Document is the retrievable representation of one medicine: a stable text
// rendering, its embedding, and pre-extracted answer fields.
type Document struct {
	OwnerID    int
	Text       string
	Vector     []float32
	FieldIndex map[string]string

	Medicine entities.Medicine
}

// BuildText renders a medicine into one searchable passage. The field order
// is fixed; reordering would change embeddings and break test reproducibility.
func BuildText(med entities.Medicine) string {
	var b strings.Builder

	writeLine(&b, "Generic Names", joinNames(genericNames(med)))
	writeLine(&b, "Brand Names", strings.Join(brandNames(med), ", "))
	writeLine(&b, "Description", med.Description)
	writeLine(&b, "Uses", med.Uses)
	if med.UsesLocalized != "" {
		writeLine(&b, "Uses (Burmese)", med.UsesLocalized)
	}
	writeLine(&b, "Indications", strings.Join(med.Indications, ", "))
	writeLine(&b, "Contraindications", strings.Join(med.Contraindications, ", "))
	writeLine(&b, "Side Effects", formatSideEffects(med.SideEffects))

	interactions := make([]string, 0, len(med.Interactions))
	for _, i := range med.Interactions {
		interactions = append(interactions, fmt.Sprintf("%s: %s", i.Drug, i.Description))
	}
	writeLine(&b, "Interactions", strings.Join(interactions, "; "))

	writeLine(&b, "Warnings", strings.Join(med.Warnings, ", "))
	writeLine(&b, "Mechanism of Action", med.MechanismOfAction)
	writeLine(&b, "Pharmacokinetics", formatPharmacokinetics(med.Pharmacokinetics))
	writeLine(&b, "Patient Information", strings.Join(med.PatientInformation, " "))

	writeLine(&b, "Symptoms", joinNames(symptomNames(med)))
	writeLine(&b, "Diseases", joinNames(diseaseNames(med)))

	return b.String()
}

// BuildFieldIndex pre-extracts the answer fields the shortcut matcher can
// return directly, already formatted for display.
func BuildFieldIndex(med entities.Medicine) map[string]string {
	return map[string]string{
		FieldUses:               orNotAvailable(med.Uses),
		FieldSideEffects:        sideEffectsAnswer(med.SideEffects),
		FieldBrandNames:         orNotAvailable(strings.Join(brandNames(med), ", ")),
		FieldContraindications:  orNotAvailable(strings.Join(med.Contraindications, ", ")),
		FieldMechanismOfAction:  orNotAvailable(med.MechanismOfAction),
		FieldPatientInformation: orNotAvailable(strings.Join(med.PatientInformation, " ")),
	}
}

func writeLine(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

func sideEffectsAnswer(se entities.SideEffects) string {
	if len(se.Common) == 0 && len(se.Serious) == 0 {
		return NotAvailable
	}
	return fmt.Sprintf("Common side effects include %s. Serious side effects include %s.",
		strings.Join(se.Common, ", "), strings.Join(se.Serious, ", "))
}

func formatSideEffects(se entities.SideEffects) string {
	return fmt.Sprintf("Common: %s; Serious: %s",
		strings.Join(se.Common, ", "), strings.Join(se.Serious, ", "))
}

func formatPharmacokinetics(pk entities.Pharmacokinetics) string {
	return fmt.Sprintf("Absorption: %s; Metabolism: %s; Half-life: %s; Excretion: %s",
		pk.Absorption, pk.Metabolism, pk.HalfLife, pk.Excretion)
}

func genericNames(med entities.Medicine) []namedPair {
	pairs := make([]namedPair, 0, len(med.GenericNames))
	for _, g := range med.GenericNames {
		pairs = append(pairs, namedPair{g.Name, g.NameLocalized})
	}
	return pairs
}

func symptomNames(med entities.Medicine) []namedPair {
	pairs := make([]namedPair, 0, len(med.Symptoms))
	for _, s := range med.Symptoms {
		pairs = append(pairs, namedPair{s.Name, s.NameLocalized})
	}
	return pairs
}

func diseaseNames(med entities.Medicine) []namedPair {
	pairs := make([]namedPair, 0, len(med.Diseases))
	for _, d := range med.Diseases {
		pairs = append(pairs, namedPair{d.Name, d.NameLocalized})
	}
	return pairs
}

func brandNames(med entities.Medicine) []string {
	names := make([]string, 0, len(med.Brands))
	for _, b := range med.Brands {
		names = append(names, b.Brand.Name)
	}
	return names
}

type namedPair struct {
	name      string
	localized string
}

func joinNames(pairs []namedPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.localized != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", p.name, p.localized))
		} else {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, ", ")
}
