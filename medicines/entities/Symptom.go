package entities

type Symptom struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	NameLocalized string `json:"nameLocalized,omitempty"`
}

type Disease struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	NameLocalized string `json:"nameLocalized,omitempty"`
}
