package entities

// BrandName is a commercial product of one or more generic substances.
type BrandName struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	NameLocalized string       `json:"nameLocalized,omitempty"`
	Manufacturer  Manufacturer `json:"manufacturer"`
	Dosages       []string     `json:"dosages"`
	Form          Form         `json:"form"`
}

type Manufacturer struct {
	ID      int         `json:"id"`
	Name    string      `json:"name"`
	Contact ContactInfo `json:"contact"`
}

type ContactInfo struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Form is a pharmaceutical form, e.g. "tablet" or "syrup".
type Form struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
