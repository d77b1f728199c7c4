package service

import (
	"github.com/subject-variants-server/internal/domain"
)

// LOINC and genomics-operations coding codes recognized by the translator.
// Components carrying any other code have no effect on the output row.
const (
	codeSourceClass          = "48002-0"
	codeAllelicState         = "53034-5"
	codeSPDI                 = "81252-9"
	codeAlleleFrequency      = "81258-6"
	codeMolecularConsequence = "molecular-consequence"
)

// partNameVariant marks the parts of the grouping parameter that describe
// variant observations; all other parts are non-variant annotations.
const partNameVariant = "variant"

// Translate converts a raw variant report into an ordered sequence of flat
// variant rows. It is a pure function: translating the same payload twice
// yields identical sequences, and the output order equals the part order.
//
// The report structure is fixed: the first top-level parameter must exist and
// hold the part list. Its absence is a malformed payload, reported to the
// caller rather than tolerated. Missing value sub-objects inside a component
// are tolerated and leave the target field at its default.
func Translate(report *domain.VariantReport) ([]domain.VariantRow, error) {
	if report == nil || len(report.Parameter) == 0 {
		return nil, domain.NewMalformedPayloadError("report has no grouping parameter", nil)
	}

	parts := report.Parameter[0].Part
	rows := make([]domain.VariantRow, 0, len(parts))
	for _, part := range parts {
		if part.Name != partNameVariant || part.Resource == nil {
			continue
		}
		rows = append(rows, buildRow(part.Resource.Component))
	}
	return rows, nil
}

// buildRow flattens one observation's component list into a row. When the
// same code appears twice the last occurrence wins, matching flat assignment
// semantics.
func buildRow(components []domain.ObservationComponent) domain.VariantRow {
	row := domain.NewVariantRow()
	for _, comp := range components {
		switch comp.Code.LeadingCode() {
		case codeSourceClass:
			if comp.ValueCodeableConcept != nil {
				row.SourceClass = comp.ValueCodeableConcept.LeadingDisplay()
			}
		case codeAllelicState:
			if comp.ValueCodeableConcept != nil {
				row.AllelicState = comp.ValueCodeableConcept.LeadingDisplay()
			}
		case codeSPDI:
			if comp.ValueCodeableConcept != nil {
				row.SPDI = comp.ValueCodeableConcept.LeadingDisplay()
			}
		case codeAlleleFrequency:
			if comp.ValueQuantity != nil {
				row.AlleleFreq = domain.AlleleFrequency(comp.ValueQuantity.Value)
			}
		case codeMolecularConsequence:
			if len(comp.Interpretation) > 0 {
				row.MolecImpact = comp.Interpretation[0].Text
			}
		}
	}
	return row
}
