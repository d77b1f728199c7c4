package domain

// FHIR genomics-operations payload subset. Only the shapes the translator
// extracts are modeled; unknown fields are dropped by encoding/json, which
// keeps the pipeline forward-compatible with schema additions.

// Resource type markers observed in $find-subject-variants responses.
const (
	ResourceTypeParameters       = "Parameters"
	ResourceTypeOperationOutcome = "OperationOutcome"
)

// VariantReport is the raw response of a subject variant lookup: a FHIR
// Parameters resource whose first parameter groups per-variant parts.
type VariantReport struct {
	ResourceType string            `json:"resourceType"`
	Parameter    []ReportParameter `json:"parameter,omitempty"`
}

// IsOperationOutcome reports whether the server answered with an error
// resource instead of a variant report.
func (r *VariantReport) IsOperationOutcome() bool {
	return r != nil && r.ResourceType == ResourceTypeOperationOutcome
}

// ReportParameter is one top-level parameter entry. The report structure is
// fixed: exactly one grouping parameter is expected, holding the part list.
type ReportParameter struct {
	Name string       `json:"name"`
	Part []ReportPart `json:"part,omitempty"`
}

// ReportPart is one entry of the grouping parameter's part list. Parts named
// "variant" with a resource present describe variant observations; everything
// else is a non-variant annotation and is excluded from translation.
type ReportPart struct {
	Name     string       `json:"name"`
	Resource *Observation `json:"resource,omitempty"`
}

// Observation is the clinical resource carried by a variant part. Its
// component list holds the coded observations the translator flattens.
type Observation struct {
	ResourceType string                 `json:"resourceType,omitempty"`
	Component    []ObservationComponent `json:"component,omitempty"`
}

// ObservationComponent is one coded observation. The coding's leading code
// selects the target row field; the value arrives in one of several shapes.
type ObservationComponent struct {
	Code                 CodeableConcept   `json:"code"`
	ValueCodeableConcept *CodeableConcept  `json:"valueCodeableConcept,omitempty"`
	ValueString          string            `json:"valueString,omitempty"`
	ValueQuantity        *Quantity         `json:"valueQuantity,omitempty"`
	ValueRange           *ValueRange       `json:"valueRange,omitempty"`
	Interpretation       []CodeableConcept `json:"interpretation,omitempty"`
}

// CodeableConcept is a coded clinical concept with optional free text.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// LeadingCode returns the first coding's code, or "" when no coding exists.
func (c CodeableConcept) LeadingCode() string {
	if len(c.Coding) == 0 {
		return ""
	}
	return c.Coding[0].Code
}

// LeadingDisplay returns the first coding's display text, or "".
func (c CodeableConcept) LeadingDisplay() string {
	if len(c.Coding) == 0 {
		return ""
	}
	return c.Coding[0].Display
}

// Coding is a (system, code, display) triple from a controlled vocabulary.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// Quantity is a measured value with optional unit metadata.
type Quantity struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
	System string  `json:"system,omitempty"`
	Code   string  `json:"code,omitempty"`
}

// ValueRange is a low/high quantity pair.
type ValueRange struct {
	Low  *Quantity `json:"low,omitempty"`
	High *Quantity `json:"high,omitempty"`
}
