package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrNullPayload is returned when the upstream body is JSON null.
var ErrNullPayload = errors.New("upstream payload is null")

// personFields are the reniec record fields templates may reference.
// Missing ones render as "".
var personFields = []string{
	"nuDni",
	"preNombres",
	"apePaterno",
	"apeMaterno",
	"sexo",
	"estadoCivil",
	"feNacimiento",
	"feEmision",
	"feCaducidad",
	"gradoInstruccion",
	"estatura",
	"desDireccion",
	"depaDireccion",
	"provDireccion",
	"distDireccion",
	"ubigeo",
	"nomPadre",
	"nomMadre",
}

// FullNameField is the computed key holding the concatenated name.
const FullNameField = "nombreCompleto"

// PersonRecord turns an upstream reniec payload into template data.
//
// The "result" object is copied as-is with numbers kept as json.Number; a
// missing or non-object result yields an empty record. Known person fields
// default to "" and FullNameField is added on top. A null payload is an
// error.
func PersonRecord(payload json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrNullPayload
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	record := make(map[string]any)
	if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Result) > 0 {
		dec := json.NewDecoder(bytes.NewReader(envelope.Result))
		dec.UseNumber()
		var obj map[string]any
		// Non-object results leave record empty.
		if err := dec.Decode(&obj); err == nil && obj != nil {
			record = obj
		}
	}

	data := make(map[string]any, len(record)+len(personFields)+1)
	for _, f := range personFields {
		data[f] = ""
	}
	for k, v := range record {
		data[k] = v
	}
	data[FullNameField] = FullName(record)
	return data, nil
}

// FullName joins preNombres, apePaterno and apeMaterno with single spaces.
// Missing parts are treated as "" and the result is not trimmed, so an empty
// record yields two spaces.
func FullName(record map[string]any) string {
	return orEmpty(record["preNombres"]) + " " + orEmpty(record["apePaterno"]) + " " + orEmpty(record["apeMaterno"])
}

// orEmpty stringifies v, mapping absent and falsy values to "".
func orEmpty(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
