package model

import (
	"net/url"
)

// Param maps one query-string key onto one field of the upstream JSON body.
type Param struct {
	Query   string
	Field   string
	Default string
}

// Route binds an inbound GET path to a single upstream endpoint.
type Route struct {
	Path     string
	Upstream string
	Params   []Param
	// Template names the HTML template used to render the upstream record.
	// Empty for plain JSON relay routes.
	Template string
}

// ReniecRoute is the only route whose response is rendered to an image.
var ReniecRoute = Route{
	Path:     "/reniec",
	Upstream: "/v1.7/persona/reniec",
	Params: []Param{
		param("dni"),
		{Query: "source", Field: "source", Default: "database"},
	},
	Template: "reniec",
}

// RelayRoutes are the JSON passthrough routes.
var RelayRoutes = []Route{
	relay("/denuncias-dni", "/v1.7/persona/denuncias-policiales-dni", "dni"),
	relay("/denuncias-placa", "/v1.7/persona/denuncias-policiales-placa", "placa"),
	relay("/sueldos", "/v1.7/persona/sueldos", "dni"),
	relay("/trabajos", "/v1.7/persona/trabajos", "dni"),
	relay("/sunat", "/v1.7/empresa/sunat", "data"),
	relay("/sunat-razon", "/v1.7/empresa/sunat/razon-social", "data"),
	relay("/consumos", "/v1.7/persona/consumos", "dni"),
	relay("/arbol", "/v1.7/persona/arbol-genealogico", "dni"),
	relay("/familia1", "/v1.7/persona/familia-1", "dni"),
	relay("/familia2", "/v1.7/persona/familia-2", "dni"),
	relay("/familia3", "/v1.7/persona/familia-3", "dni"),
	relay("/movimientos", "/v1.7/persona/movimientos-migratorios", "dni"),
	relay("/matrimonios", "/v1.7/persona/matrimonios", "dni"),
	relay("/empresas", "/v1.7/persona/empresas", "dni"),
	relay("/direcciones", "/v1.7/persona/direcciones", "dni"),
	relay("/correos", "/v1.7/persona/correos", "dni"),
	relay("/telefonia-doc", "/v1.7/telefonia/documento", "documento"),
	relay("/telefonia-num", "/v1.7/telefonia/numero", "numero"),
	relay("/vehiculos", "/v1.7/vehiculos/sunarp", "placa"),
	relay("/fiscalia-dni", "/v1.7/persona/justicia/fiscalia/dni", "dni"),
	relay("/fiscalia-nombres", "/v1.7/persona/justicia/fiscalia/nombres", "nombres", "apepaterno", "apematerno"),
}

// Health and status paths served alongside the upstream routes.
const (
	HealthPath = "/healthz"
	StatusPath = "/proxy/status"
)

func param(name string) Param {
	return Param{Query: name, Field: name}
}

func relay(path, upstream string, params ...string) Route {
	r := Route{Path: path, Upstream: upstream}
	for _, p := range params {
		r.Params = append(r.Params, param(p))
	}
	return r
}

// Payload builds the upstream JSON body for the given query values.
//
// A parameter absent from the query and without a default is left out of the
// body entirely. A parameter present but empty falls back to its default, or
// is sent as "" when it has none. Repeated keys forward their first value.
func (r Route) Payload(query url.Values, token string) map[string]any {
	payload := make(map[string]any, len(r.Params)+1)
	for _, p := range r.Params {
		vals, ok := query[p.Query]
		v := ""
		if ok && len(vals) > 0 {
			v = vals[0]
		}
		if v == "" && p.Default != "" {
			payload[p.Field] = p.Default
			continue
		}
		if !ok {
			continue
		}
		payload[p.Field] = v
	}
	if token != "" {
		payload["token"] = token
	}
	return payload
}

// AllRoutes returns the reniec route followed by every relay route.
func AllRoutes() []Route {
	routes := make([]Route, 0, len(RelayRoutes)+1)
	routes = append(routes, ReniecRoute)
	return append(routes, RelayRoutes...)
}

// ReservedPaths lists every inbound path served by the proxy.
func ReservedPaths() []string {
	paths := []string{HealthPath, StatusPath}
	for _, r := range AllRoutes() {
		paths = append(paths, r.Path)
	}
	return paths
}
