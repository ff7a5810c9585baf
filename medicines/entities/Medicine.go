package entities

// Medicine is the central entity of the corpus. All references are fully
// resolved at load time; nothing downstream sees a foreign key.
type Medicine struct {
	ID                 int              `json:"id"`
	GenericNames       []GenericName    `json:"genericNames"`
	Brands             []BrandRef       `json:"brands"`
	Description        string           `json:"description"`
	Uses               string           `json:"uses"`
	UsesLocalized      string           `json:"usesLocalized,omitempty"`
	Indications        []string         `json:"indications"`
	Contraindications  []string         `json:"contraindications"`
	SideEffects        SideEffects      `json:"sideEffects"`
	Interactions       []Interaction    `json:"interactions"`
	Warnings           []string         `json:"warnings"`
	MechanismOfAction  string           `json:"mechanismOfAction"`
	Pharmacokinetics   Pharmacokinetics `json:"pharmacokinetics"`
	PatientInformation []string         `json:"patientInformation"`
	Symptoms           []Symptom        `json:"symptoms"`
	Diseases           []Disease        `json:"diseases"`
}

// BrandRef pairs a brand with the form and dosages the medicine is sold under.
type BrandRef struct {
	Brand   BrandName `json:"brand"`
	Form    Form      `json:"form"`
	Dosages []string  `json:"dosages"`
}

type SideEffects struct {
	Common  []string `json:"common"`
	Serious []string `json:"serious"`
}

type Interaction struct {
	Drug        string `json:"drug"`
	Description string `json:"description"`
}

type Pharmacokinetics struct {
	Absorption string `json:"absorption"`
	Metabolism string `json:"metabolism"`
	HalfLife   string `json:"halfLife"`
	Excretion  string `json:"excretion"`
}
