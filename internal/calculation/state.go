package calculation

// PipelineState is a state of the premium calculation state machine. Transitions
// are strictly sequential; any stage failure moves to StateFallback.
type PipelineState string

const (
	StateInit                PipelineState = "Init"
	StateBaseRateComputed    PipelineState = "BaseRateComputed"
	StateRiskAdjusted        PipelineState = "RiskAdjusted"
	StateDemographicAdjusted PipelineState = "DemographicAdjusted"
	StateGeoAdjusted         PipelineState = "GeoAdjusted"
	StateInflationAdjusted   PipelineState = "InflationAdjusted"
	StateExperienceAdjusted  PipelineState = "ExperienceAdjusted"
	StateLoaded              PipelineState = "Loaded"
	StateTaxed               PipelineState = "Taxed"
	StateCertified           PipelineState = "Certified"
	StateFallback            PipelineState = "Fallback"
)

// Terminal reports whether no further transition is possible
func (s PipelineState) Terminal() bool {
	return s == StateCertified || s == StateFallback
}
