package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subject-variants-server/internal/domain"
)

func variantPart(components ...domain.ObservationComponent) domain.ReportPart {
	return domain.ReportPart{
		Name:     "variant",
		Resource: &domain.Observation{ResourceType: "Observation", Component: components},
	}
}

func codedComponent(code, display string) domain.ObservationComponent {
	return domain.ObservationComponent{
		Code:                 domain.CodeableConcept{Coding: []domain.Coding{{Code: code}}},
		ValueCodeableConcept: &domain.CodeableConcept{Coding: []domain.Coding{{Display: display}}},
	}
}

func reportWith(parts ...domain.ReportPart) *domain.VariantReport {
	return &domain.VariantReport{
		ResourceType: domain.ResourceTypeParameters,
		Parameter:    []domain.ReportParameter{{Name: "variants", Part: parts}},
	}
}

func TestTranslate_SingleVariant(t *testing.T) {
	// Scenario: one variant part with SPDI, allelic state and a quantity
	// frequency; source class and impact stay at their defaults.
	report := reportWith(variantPart(
		codedComponent("81252-9", "NC_000001.11:low"),
		codedComponent("53034-5", "Heterozygous"),
		domain.ObservationComponent{
			Code:          domain.CodeableConcept{Coding: []domain.Coding{{Code: "81258-6"}}},
			ValueQuantity: &domain.Quantity{Value: 0.35},
		},
	))

	rows, err := Translate(report)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "NC_000001.11:low", rows[0].SPDI)
	assert.Equal(t, "Heterozygous", rows[0].AllelicState)
	assert.InDelta(t, 0.35, float64(rows[0].AlleleFreq), 1e-9)
	assert.Empty(t, rows[0].SourceClass)
	assert.Empty(t, rows[0].MolecImpact)
}

func TestTranslate_NonVariantPartsExcluded(t *testing.T) {
	// A non-variant part plus a variant with an empty component list: one
	// all-defaults row comes back.
	report := reportWith(
		domain.ReportPart{Name: "note", Resource: &domain.Observation{}},
		variantPart(),
	)

	rows, err := Translate(report)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].SPDI)
	assert.Empty(t, rows[0].AllelicState)
	assert.Empty(t, rows[0].SourceClass)
	assert.Empty(t, rows[0].MolecImpact)
	assert.False(t, rows[0].AlleleFreq.IsSet())
}

func TestTranslate_VariantWithoutResourceExcluded(t *testing.T) {
	report := reportWith(
		domain.ReportPart{Name: "variant"},
		variantPart(codedComponent("81252-9", "kept")),
	)

	rows, err := Translate(report)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "kept", rows[0].SPDI)
}

func TestTranslate_UnknownCodesIgnored(t *testing.T) {
	report := reportWith(variantPart(
		codedComponent("99999-9", "future coding"),
		codedComponent("81252-9", "NC_000002.12:x"),
		domain.ObservationComponent{Code: domain.CodeableConcept{}},
	))

	rows, err := Translate(report)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "NC_000002.12:x", rows[0].SPDI)
	assert.Empty(t, rows[0].SourceClass)
}

func TestTranslate_MissingValueLeavesDefault(t *testing.T) {
	// A matched code whose value sub-object is absent is tolerated.
	report := reportWith(variantPart(
		domain.ObservationComponent{Code: domain.CodeableConcept{Coding: []domain.Coding{{Code: "81258-6"}}}},
		domain.ObservationComponent{Code: domain.CodeableConcept{Coding: []domain.Coding{{Code: "48002-0"}}}},
	))

	rows, err := Translate(report)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].AlleleFreq.IsSet())
	assert.Empty(t, rows[0].SourceClass)
}

func TestTranslate_DuplicateCodeLastWriteWins(t *testing.T) {
	report := reportWith(variantPart(
		codedComponent("53034-5", "Heterozygous"),
		codedComponent("53034-5", "Homozygous"),
	))

	rows, err := Translate(report)

	require.NoError(t, err)
	assert.Equal(t, "Homozygous", rows[0].AllelicState)
}

func TestTranslate_MolecularConsequenceInterpretation(t *testing.T) {
	report := reportWith(variantPart(domain.ObservationComponent{
		Code:           domain.CodeableConcept{Coding: []domain.Coding{{Code: "molecular-consequence"}}},
		Interpretation: []domain.CodeableConcept{{Text: "missense_variant"}},
	}))

	rows, err := Translate(report)

	require.NoError(t, err)
	assert.Equal(t, "missense_variant", rows[0].MolecImpact)
}

func TestTranslate_PreservesPartOrder(t *testing.T) {
	report := reportWith(
		variantPart(codedComponent("81252-9", "first")),
		domain.ReportPart{Name: "region-studied"},
		variantPart(codedComponent("81252-9", "second")),
		variantPart(codedComponent("81252-9", "third")),
	)

	rows, err := Translate(report)

	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "first", rows[0].SPDI)
	assert.Equal(t, "second", rows[1].SPDI)
	assert.Equal(t, "third", rows[2].SPDI)
}

func TestTranslate_Idempotent(t *testing.T) {
	report := reportWith(
		variantPart(
			codedComponent("81252-9", "a"),
			codedComponent("48002-0", "Somatic"),
			domain.ObservationComponent{
				Code:          domain.CodeableConcept{Coding: []domain.Coding{{Code: "81258-6"}}},
				ValueQuantity: &domain.Quantity{Value: 0.01},
			},
		),
		variantPart(codedComponent("81252-9", "b")),
	)

	first, err := Translate(report)
	require.NoError(t, err)
	second, err := Translate(report)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].SPDI, second[i].SPDI)
		assert.Equal(t, first[i].SourceClass, second[i].SourceClass)
		assert.Equal(t, first[i].AllelicState, second[i].AllelicState)
		assert.Equal(t, first[i].MolecImpact, second[i].MolecImpact)
		assert.Equal(t, first[i].AlleleFreq.IsSet(), second[i].AlleleFreq.IsSet())
		if first[i].AlleleFreq.IsSet() {
			assert.InDelta(t, float64(first[i].AlleleFreq), float64(second[i].AlleleFreq), 1e-12)
		}
	}
}

func TestTranslate_MalformedPayload(t *testing.T) {
	tests := []struct {
		name   string
		report *domain.VariantReport
	}{
		{"nil report", nil},
		{"no parameters", &domain.VariantReport{ResourceType: domain.ResourceTypeParameters}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Translate(tt.report)
			require.Error(t, err)
			assert.Equal(t, domain.KindMalformedPayload, domain.KindOf(err))
			assert.Nil(t, rows)
		})
	}
}

func TestTranslate_EmptyPartListYieldsNoRows(t *testing.T) {
	rows, err := Translate(reportWith())

	require.NoError(t, err)
	assert.Empty(t, rows)
}
