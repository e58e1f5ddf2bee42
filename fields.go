package claims

// Field identifies one mutable business field on a claim record.
type Field string

const (
	FieldClaimantName        Field = "claimant_name"
	FieldPolicyNumber        Field = "policy_number"
	FieldIncidentDate        Field = "incident_date"
	FieldIncidentDescription Field = "incident_description"

	FieldClaimedAmount   Field = "claimed_amount"
	FieldCurrency        Field = "currency"
	FieldSupportingNotes Field = "supporting_notes"

	FieldSettledAmount   Field = "settled_amount"
	FieldSettlementDate  Field = "settlement_date"
	FieldSettlementNotes Field = "settlement_notes"
)

// Field clusters. Per-status editable and required sets are unions of
// these; the clusters themselves never change at runtime.
var (
	clusterCore = []Field{
		FieldClaimantName,
		FieldPolicyNumber,
		FieldIncidentDate,
		FieldIncidentDescription,
	}
	clusterSubmission = []Field{
		FieldClaimedAmount,
		FieldCurrency,
		FieldSupportingNotes,
	}
	clusterSettlement = []Field{
		FieldSettledAmount,
		FieldSettlementDate,
		FieldSettlementNotes,
	}
)

// CoreFields returns the core cluster: what the claim is about.
func CoreFields() []Field { return append([]Field(nil), clusterCore...) }

// SubmissionFields returns the submission cluster: what is being asked for.
func SubmissionFields() []Field { return append([]Field(nil), clusterSubmission...) }

// SettlementFields returns the settlement cluster: how it was resolved.
func SettlementFields() []Field { return append([]Field(nil), clusterSettlement...) }

// AllFields returns every known field in cluster order.
func AllFields() []Field {
	out := make([]Field, 0, len(clusterCore)+len(clusterSubmission)+len(clusterSettlement))
	out = append(out, clusterCore...)
	out = append(out, clusterSubmission...)
	out = append(out, clusterSettlement...)
	return out
}

var fieldLabels = map[Field]string{
	FieldClaimantName:        "Claimant name",
	FieldPolicyNumber:        "Policy number",
	FieldIncidentDate:        "Incident date",
	FieldIncidentDescription: "Incident description",
	FieldClaimedAmount:       "Claimed amount",
	FieldCurrency:            "Currency",
	FieldSupportingNotes:     "Supporting notes",
	FieldSettledAmount:       "Settled amount",
	FieldSettlementDate:      "Settlement date",
	FieldSettlementNotes:     "Settlement notes",
}

// ParseField resolves a raw identifier to a known field.
func ParseField(input string) (Field, bool) {
	f := Field(input)
	_, ok := fieldLabels[f]
	return f, ok
}

// Label returns the display label for the field, falling back to the raw
// identifier for fields this client version does not know about.
func (f Field) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}

func (f Field) String() string {
	return string(f)
}
