package models

// CountryData mapea los campos relevantes de la respuesta de RestCountries
type CountryData struct {
	Name     *CountryName `json:"name,omitempty"`
	Demonyms *Demonyms    `json:"demonyms,omitempty"`
	CCA2     string       `json:"cca2,omitempty"`
	CCA3     string       `json:"cca3,omitempty"`
}

// CountryName contiene los nombres del país
type CountryName struct {
	Common   string `json:"common,omitempty"`
	Official string `json:"official,omitempty"`
}

// Demonyms contiene los gentilicios por idioma
type Demonyms struct {
	Eng *DemonymForms `json:"eng,omitempty"`
	Spa *DemonymForms `json:"spa,omitempty"`
}

// DemonymForms contiene las formas femenina y masculina de un gentilicio
type DemonymForms struct {
	F string `json:"f,omitempty"`
	M string `json:"m,omitempty"`
}

// Label extrae la etiqueta a mostrar: gentilicio inglés, luego español, luego nombre común
func (c *CountryData) Label() (string, bool) {
	if c.Demonyms != nil {
		if c.Demonyms.Eng != nil && c.Demonyms.Eng.M != "" {
			return c.Demonyms.Eng.M, true
		}
		if c.Demonyms.Spa != nil && c.Demonyms.Spa.M != "" {
			return c.Demonyms.Spa.M, true
		}
	}
	if c.Name != nil && c.Name.Common != "" {
		return c.Name.Common, true
	}
	return "", false
}
