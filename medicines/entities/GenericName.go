package entities

// GenericName identifies the active pharmaceutical ingredient.
type GenericName struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	NameLocalized string `json:"nameLocalized,omitempty"`
}
