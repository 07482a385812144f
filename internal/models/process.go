// internal/models/process.go
package models

import "strconv"

// ProcessRecord is one judicial process as returned by the Predictus API.
// Only the fields consumed by the screening pipeline are mapped; the raw
// payload keeps whatever else the tribunal returned.
type ProcessRecord struct {
	NumeroProcessoUnico string                 `json:"numeroProcessoUnico,omitempty"`
	Tribunal            string                 `json:"tribunal,omitempty"`
	ClasseProcessual    CaseClass              `json:"classeProcessual"`
	Partes              []Party                `json:"partes"`
	ValorCausa          CaseValue              `json:"valorCausa"`
	Raw                 map[string]interface{} `json:"-"`
}

type CaseClass struct {
	Nome string `json:"nome"`
}

// Party is one litigant on a process. Tipo is free text from the court
// registry ("Réu", "Autor", "Executado", ...).
type Party struct {
	Nome string `json:"nome,omitempty"`
	Tipo string `json:"tipo"`
}

// CaseValue wraps valorCausa. Courts are inconsistent about the numeric
// type, so Valor is decoded loosely and normalized through Amount.
type CaseValue struct {
	Valor interface{} `json:"valor"`
}

// Amount returns the case value in BRL, or 0 when the field is absent or
// not parseable as a number.
func (v CaseValue) Amount() float64 {
	switch val := v.Valor.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
