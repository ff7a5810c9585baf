package medicines

import (
	"fmt"

	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/medicines/entities"
)

// Raw row shapes as they appear in the tables. These never leave this package;
// everything downstream sees resolved entities only.

type rawMedicine struct {
	ID                 int                       `json:"id"`
	Description        string                    `json:"description"`
	Uses               string                    `json:"uses"`
	UsesLocalized      string                    `json:"uses_localized"`
	Indications        []string                  `json:"indications"`
	Contraindications  []string                  `json:"contraindications"`
	SideEffects        entities.SideEffects      `json:"side_effects"`
	Interactions       []entities.Interaction    `json:"interactions"`
	Warnings           []string                  `json:"warnings"`
	MechanismOfAction  string                    `json:"mechanism_of_action"`
	Pharmacokinetics   entities.Pharmacokinetics `json:"pharmacokinetics"`
	PatientInformation []string                  `json:"patient_information"`
}

type rawNamed struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	NameLocalized string `json:"name_localized"`
}

type rawBrandName struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	NameLocalized  string   `json:"name_localized"`
	ManufacturerID int      `json:"manufacturer_id"`
	Dosages        []string `json:"dosages"`
	FormID         int      `json:"form_id"`
}

type rawManufacturer struct {
	ID      int                  `json:"id"`
	Name    string               `json:"name"`
	Contact entities.ContactInfo `json:"contact"`
}

type rawJoin struct {
	MedicineID int `json:"medicine_id"`

	GenericNameID int `json:"generic_name_id"`
	SymptomID     int `json:"symptom_id"`
	DiseaseID     int `json:"disease_id"`
}

type rawBrandRef struct {
	MedicineID int      `json:"medicine_id"`
	BrandID    int      `json:"brand_id"`
	FormID     int      `json:"form_id"`
	Dosages    []string `json:"dosages"`
}

// SchemaIntegrityError reports a dangling foreign key found while resolving
// one medicine. The offending medicine is excluded from the corpus; the rest
// of the load continues.
type SchemaIntegrityError struct {
	Table      string
	MedicineID int
	Key        string
	MissingID  int
}

func (e *SchemaIntegrityError) Error() string {
	return fmt.Sprintf("schema integrity: table %s, medicine %d: %s references missing id %d",
		e.Table, e.MedicineID, e.Key, e.MissingID)
}

// Normalize loads every table from src and resolves the medicine graph.
// Medicines with unresolved references are skipped and logged; a missing or
// unreadable table fails the whole load.
func Normalize(src TableSource) ([]entities.Medicine, error) {
	rawMedicines, err := decodeTable[rawMedicine](src, TableMedicines)
	if err != nil {
		return nil, err
	}
	generics, err := decodeTable[rawNamed](src, TableGenericNames)
	if err != nil {
		return nil, err
	}
	brands, err := decodeTable[rawBrandName](src, TableBrandNames)
	if err != nil {
		return nil, err
	}
	manufacturers, err := decodeTable[rawManufacturer](src, TableManufacturers)
	if err != nil {
		return nil, err
	}
	forms, err := decodeTable[rawNamed](src, TableForms)
	if err != nil {
		return nil, err
	}
	symptoms, err := decodeTable[rawNamed](src, TableSymptoms)
	if err != nil {
		return nil, err
	}
	diseases, err := decodeTable[rawNamed](src, TableDiseases)
	if err != nil {
		return nil, err
	}
	genericJoins, err := decodeTable[rawJoin](src, TableMedicineGenerics)
	if err != nil {
		return nil, err
	}
	brandRefs, err := decodeTable[rawBrandRef](src, TableMedicineBrands)
	if err != nil {
		return nil, err
	}
	symptomJoins, err := decodeTable[rawJoin](src, TableMedicineSymptoms)
	if err != nil {
		return nil, err
	}
	diseaseJoins, err := decodeTable[rawJoin](src, TableMedicineDiseases)
	if err != nil {
		return nil, err
	}

	// Lookup maps for O(1) resolution, same as the parser builds per-CIS maps.
	genericsMap := make(map[int]rawNamed, len(generics))
	for _, g := range generics {
		genericsMap[g.ID] = g
	}
	manufacturersMap := make(map[int]rawManufacturer, len(manufacturers))
	for _, m := range manufacturers {
		manufacturersMap[m.ID] = m
	}
	formsMap := make(map[int]rawNamed, len(forms))
	for _, f := range forms {
		formsMap[f.ID] = f
	}
	symptomsMap := make(map[int]rawNamed, len(symptoms))
	for _, s := range symptoms {
		symptomsMap[s.ID] = s
	}
	diseasesMap := make(map[int]rawNamed, len(diseases))
	for _, d := range diseases {
		diseasesMap[d.ID] = d
	}

	brandsMap := make(map[int]rawBrandName, len(brands))
	for _, b := range brands {
		brandsMap[b.ID] = b
	}

	genericsByMedicine := make(map[int][]int)
	for _, j := range genericJoins {
		genericsByMedicine[j.MedicineID] = append(genericsByMedicine[j.MedicineID], j.GenericNameID)
	}
	brandsByMedicine := make(map[int][]rawBrandRef)
	for _, j := range brandRefs {
		brandsByMedicine[j.MedicineID] = append(brandsByMedicine[j.MedicineID], j)
	}
	symptomsByMedicine := make(map[int][]int)
	for _, j := range symptomJoins {
		symptomsByMedicine[j.MedicineID] = append(symptomsByMedicine[j.MedicineID], j.SymptomID)
	}
	diseasesByMedicine := make(map[int][]int)
	for _, j := range diseaseJoins {
		diseasesByMedicine[j.MedicineID] = append(diseasesByMedicine[j.MedicineID], j.DiseaseID)
	}

	result := make([]entities.Medicine, 0, len(rawMedicines))
	seen := make(map[int]bool, len(rawMedicines))

	for _, raw := range rawMedicines {
		if seen[raw.ID] {
			logging.Warn("Skipping duplicate medicine id", "id", raw.ID)
			continue
		}
		seen[raw.ID] = true

		med, err := resolveMedicine(raw, resolveMaps{
			generics:      genericsMap,
			brands:        brandsMap,
			manufacturers: manufacturersMap,
			forms:         formsMap,
			symptoms:      symptomsMap,
			diseases:      diseasesMap,

			genericRefs: genericsByMedicine[raw.ID],
			brandRefs:   brandsByMedicine[raw.ID],
			symptomRefs: symptomsByMedicine[raw.ID],
			diseaseRefs: diseasesByMedicine[raw.ID],
		})
		if err != nil {
			logging.Warn("Skipping medicine with unresolved references", "error", err, "id", raw.ID)
			continue
		}

		result = append(result, med)
	}

	logging.Info("Corpus normalized", "medicines", len(result), "skipped", len(rawMedicines)-len(result))
	return result, nil
}

type resolveMaps struct {
	generics      map[int]rawNamed
	brands        map[int]rawBrandName
	manufacturers map[int]rawManufacturer
	forms         map[int]rawNamed
	symptoms      map[int]rawNamed
	diseases      map[int]rawNamed

	genericRefs []int
	brandRefs   []rawBrandRef
	symptomRefs []int
	diseaseRefs []int
}

func resolveMedicine(raw rawMedicine, maps resolveMaps) (entities.Medicine, error) {
	med := entities.Medicine{
		ID:                 raw.ID,
		Description:        raw.Description,
		Uses:               raw.Uses,
		UsesLocalized:      raw.UsesLocalized,
		Indications:        raw.Indications,
		Contraindications:  raw.Contraindications,
		SideEffects:        raw.SideEffects,
		Interactions:       raw.Interactions,
		Warnings:           raw.Warnings,
		MechanismOfAction:  raw.MechanismOfAction,
		Pharmacokinetics:   raw.Pharmacokinetics,
		PatientInformation: raw.PatientInformation,
	}

	for _, id := range maps.genericRefs {
		g, ok := maps.generics[id]
		if !ok {
			return med, &SchemaIntegrityError{Table: TableMedicineGenerics, MedicineID: raw.ID, Key: "generic_name_id", MissingID: id}
		}
		med.GenericNames = append(med.GenericNames, entities.GenericName{ID: g.ID, Name: g.Name, NameLocalized: g.NameLocalized})
	}

	for _, ref := range maps.brandRefs {
		b, ok := maps.brands[ref.BrandID]
		if !ok {
			return med, &SchemaIntegrityError{Table: TableMedicineBrands, MedicineID: raw.ID, Key: "brand_id", MissingID: ref.BrandID}
		}
		brand, err := resolveBrand(raw.ID, b, maps)
		if err != nil {
			return med, err
		}

		formID := ref.FormID
		if formID == 0 {
			formID = b.FormID
		}
		form, ok := maps.forms[formID]
		if !ok {
			return med, &SchemaIntegrityError{Table: TableMedicineBrands, MedicineID: raw.ID, Key: "form_id", MissingID: formID}
		}

		dosages := ref.Dosages
		if len(dosages) == 0 {
			dosages = b.Dosages
		}

		med.Brands = append(med.Brands, entities.BrandRef{
			Brand:   brand,
			Form:    entities.Form{ID: form.ID, Name: form.Name},
			Dosages: dosages,
		})
	}

	for _, id := range maps.symptomRefs {
		s, ok := maps.symptoms[id]
		if !ok {
			return med, &SchemaIntegrityError{Table: TableMedicineSymptoms, MedicineID: raw.ID, Key: "symptom_id", MissingID: id}
		}
		med.Symptoms = append(med.Symptoms, entities.Symptom{ID: s.ID, Name: s.Name, NameLocalized: s.NameLocalized})
	}

	for _, id := range maps.diseaseRefs {
		d, ok := maps.diseases[id]
		if !ok {
			return med, &SchemaIntegrityError{Table: TableMedicineDiseases, MedicineID: raw.ID, Key: "disease_id", MissingID: id}
		}
		med.Diseases = append(med.Diseases, entities.Disease{ID: d.ID, Name: d.Name, NameLocalized: d.NameLocalized})
	}

	return med, nil
}

func resolveBrand(medicineID int, b rawBrandName, maps resolveMaps) (entities.BrandName, error) {
	brand := entities.BrandName{
		ID:            b.ID,
		Name:          b.Name,
		NameLocalized: b.NameLocalized,
		Dosages:       b.Dosages,
	}

	m, ok := maps.manufacturers[b.ManufacturerID]
	if !ok {
		return brand, &SchemaIntegrityError{Table: TableBrandNames, MedicineID: medicineID, Key: "manufacturer_id", MissingID: b.ManufacturerID}
	}
	brand.Manufacturer = entities.Manufacturer{ID: m.ID, Name: m.Name, Contact: m.Contact}

	f, ok := maps.forms[b.FormID]
	if !ok {
		return brand, &SchemaIntegrityError{Table: TableBrandNames, MedicineID: medicineID, Key: "form_id", MissingID: b.FormID}
	}
	brand.Form = entities.Form{ID: f.ID, Name: f.Name}

	return brand, nil
}
