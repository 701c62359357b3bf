package observe

import (
	"fmt"

	"labstats/domain/core"
)

// Observation is one tidy measurement row: a group label, optional replicate
// identifiers, and a numeric value. This is the engine's only input shape;
// parsing and tidying happen upstream.
type Observation struct {
	Group           string  `json:"group"`
	BioReplicateID  string  `json:"bio_replicate_id,omitempty"`
	TechReplicateID string  `json:"tech_replicate_id,omitempty"`
	Value           float64 `json:"value"`
}

// ReplicateType declares what a row represents
type ReplicateType string

const (
	ReplicateBiological ReplicateType = "biological"
	ReplicateTechnical  ReplicateType = "technical"
)

// TechnicalHandling controls how technical replicates are collapsed
type TechnicalHandling string

const (
	TechnicalAverage  TechnicalHandling = "average"
	TechnicalSeparate TechnicalHandling = "separate"
)

// MissingHandling controls what happens to non-finite values
type MissingHandling string

const (
	MissingIgnore        MissingHandling = "ignore"
	MissingDropReplicate MissingHandling = "drop-replicate"
)

// Transform is an optional value transform applied after collapsing
type Transform string

const (
	TransformNone  Transform = "none"
	TransformLog2  Transform = "log2"
	TransformLog10 Transform = "log10"
)

// VarianceConvention selects the variance denominator
type VarianceConvention string

const (
	VarianceSample     VarianceConvention = "sample"
	VariancePopulation VarianceConvention = "population"
)

// CIMethod selects the confidence interval computation
type CIMethod string

const (
	CIT95  CIMethod = "t95"
	CINone CIMethod = "none"
)

// Independence declares the two-group design
type Independence string

const (
	Independent Independence = "independent"
	Paired      Independence = "paired"
)

// AdjustMethod is a multiple-comparison correction method
type AdjustMethod string

const (
	AdjustNone       AdjustMethod = "none"
	AdjustBonferroni AdjustMethod = "bonferroni"
	AdjustHolm       AdjustMethod = "holm"
	AdjustBH         AdjustMethod = "bh"
)

// ComputeOptions configure per-group descriptive computation
type ComputeOptions struct {
	ReplicateType             ReplicateType      `json:"replicate_type"`
	TechnicalHandling         TechnicalHandling  `json:"technical_handling"`
	MissingHandling           MissingHandling    `json:"missing_handling"`
	Transform                 Transform          `json:"transform"`
	AllowNonPositiveTransform bool               `json:"allow_non_positive_transform"`
	VarianceConvention        VarianceConvention `json:"variance_convention"`
	IQRMultiplier             float64            `json:"iqr_multiplier"`
	CIMethod                  CIMethod           `json:"ci_method"`
}

// DefaultComputeOptions returns the standard configuration
func DefaultComputeOptions() ComputeOptions {
	return ComputeOptions{
		ReplicateType:      ReplicateBiological,
		TechnicalHandling:  TechnicalAverage,
		MissingHandling:    MissingIgnore,
		Transform:          TransformNone,
		VarianceConvention: VarianceSample,
		IQRMultiplier:      1.5,
		CIMethod:           CIT95,
	}
}

// Validate checks option enum values and numeric ranges
func (o ComputeOptions) Validate() error {
	switch o.ReplicateType {
	case ReplicateBiological, ReplicateTechnical:
	default:
		return core.NewValidationError("replicate_type", string(o.ReplicateType))
	}
	switch o.TechnicalHandling {
	case TechnicalAverage, TechnicalSeparate:
	default:
		return core.NewValidationError("technical_handling", string(o.TechnicalHandling))
	}
	switch o.MissingHandling {
	case MissingIgnore, MissingDropReplicate:
	default:
		return core.NewValidationError("missing_handling", string(o.MissingHandling))
	}
	switch o.Transform {
	case TransformNone, TransformLog2, TransformLog10:
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownTransform, o.Transform)
	}
	switch o.VarianceConvention {
	case VarianceSample, VariancePopulation:
	default:
		return core.NewValidationError("variance_convention", string(o.VarianceConvention))
	}
	switch o.CIMethod {
	case CIT95, CINone:
	default:
		return core.NewValidationError("ci_method", string(o.CIMethod))
	}
	if o.IQRMultiplier <= 0 {
		return core.NewValidationError("iqr_multiplier", "must be > 0")
	}
	return nil
}

// DesignOptions configure the decision tree and downstream tests
type DesignOptions struct {
	Independence  Independence `json:"independence"`
	PAdjustMethod AdjustMethod `json:"p_adjust_method"`
	ControlLabel  string       `json:"control_label,omitempty"`
	// DoseResponse marks that a concentration axis is mapped; the decision
	// tree dispatches to the curve fitter regardless of group count.
	DoseResponse bool `json:"dose_response,omitempty"`
}

// DefaultDesignOptions returns the standard design configuration
func DefaultDesignOptions() DesignOptions {
	return DesignOptions{
		Independence:  Independent,
		PAdjustMethod: AdjustHolm,
	}
}

// Validate checks design option enum values
func (o DesignOptions) Validate() error {
	switch o.Independence {
	case Independent, Paired:
	default:
		return core.NewValidationError("independence", string(o.Independence))
	}
	switch o.PAdjustMethod {
	case AdjustNone, AdjustBonferroni, AdjustHolm, AdjustBH:
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownAdjustment, o.PAdjustMethod)
	}
	return nil
}
