package importer

import "strings"

// Field is an invitation guest attribute a CSV column can feed
type Field string

const (
	FieldName          Field = "name"
	FieldNameKm        Field = "name_km"
	FieldPhone         Field = "phone"
	FieldEmail         Field = "email"
	FieldAddress       Field = "address"
	FieldGroupCategory Field = "group_category"
	FieldNote          Field = "note"
)

// Pattern matches a lower-cased header containing every keyword in All and
// none of the keywords in None.
type Pattern struct {
	All  []string
	None []string
}

// Rule maps a header to Field when any of its patterns match
type Rule struct {
	Field    Field
	Patterns []Pattern
}

// HeaderRules are evaluated per field in this order; each field takes the
// first column that matches.
var HeaderRules = []Rule{
	{Field: FieldName, Patterns: []Pattern{
		{All: []string{"name"}, None: []string{"khmer", "km"}},
	}},
	{Field: FieldNameKm, Patterns: []Pattern{
		{All: []string{"name", "khmer"}},
		{All: []string{"name", "km"}},
		{All: []string{"ឈ្មោះ"}},
	}},
	{Field: FieldPhone, Patterns: []Pattern{
		{All: []string{"phone"}},
		{All: []string{"លេខ"}},
	}},
	{Field: FieldEmail, Patterns: []Pattern{
		{All: []string{"email"}},
		{All: []string{"អ៊ីមែល"}},
	}},
	{Field: FieldAddress, Patterns: []Pattern{
		{All: []string{"address"}},
		{All: []string{"អាសយដ្ឋាន"}},
	}},
	{Field: FieldGroupCategory, Patterns: []Pattern{
		{All: []string{"group"}},
		{All: []string{"ក្រុម"}},
	}},
	{Field: FieldNote, Patterns: []Pattern{
		{All: []string{"note"}},
		{All: []string{"កំណត់"}},
	}},
}

func (p Pattern) matches(header string) bool {
	for _, kw := range p.All {
		if !strings.Contains(header, kw) {
			return false
		}
	}
	for _, kw := range p.None {
		if strings.Contains(header, kw) {
			return false
		}
	}
	return true
}

// Matches reports whether header (already normalised) satisfies the rule.
func (r Rule) Matches(header string) bool {
	for _, p := range r.Patterns {
		if p.matches(header) {
			return true
		}
	}
	return false
}

// ColumnMap holds the resolved column index per field
type ColumnMap map[Field]int

// ResolveColumns maps header cells to fields. Fields without a matching
// column are absent from the map.
func ResolveColumns(headers []string) ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	cols := make(ColumnMap)
	for _, rule := range HeaderRules {
		for i, h := range normalized {
			if rule.Matches(h) {
				cols[rule.Field] = i
				break
			}
		}
	}
	return cols
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}
