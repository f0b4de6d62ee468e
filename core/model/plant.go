package model

import "fmt"

// PlantParams bundles the physical and commercial parameters of the
// PV+battery plant. It is built once before scheduling and immutable for the
// duration of a run.
type PlantParams struct {
	// Battery.
	CapacityKWh         float64 `json:"capacity_kwh"`
	MaxChargeKW         float64 `json:"max_charge_kw"`
	MaxDischargeKW      float64 `json:"max_discharge_kw"`
	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
	InitialSoCKWh       float64 `json:"initial_soc_kwh"`

	// Grid interconnection.
	GridImportLimitKW float64 `json:"grid_import_limit_kw"`
	GridExportLimitKW float64 `json:"grid_export_limit_kw"`
	// RampLimitKW caps the change of exported power between consecutive
	// periods. Zero disables the constraint.
	RampLimitKW float64 `json:"ramp_limit_kw"`

	// Market.
	// MinExportPriceMWh is the floor below which export is forbidden
	// (the LGC regime: injecting below this price costs the operator).
	MinExportPriceMWh float64 `json:"min_export_price_mwh"`
	// IncentiveRateMWh is the fixed per-MWh generation incentive, credited
	// on all generated energy regardless of its destination.
	IncentiveRateMWh float64 `json:"incentive_rate_mwh"`

	// PV.
	// ConversionRatio maps plane-of-array irradiance (W/m²) to plant output
	// power (kW).
	ConversionRatio float64 `json:"conversion_ratio"`

	// ChargeIrradianceThreshold restricts battery charging to periods whose
	// irradiance exceeds it. Zero disables the charging window.
	ChargeIrradianceThreshold float64 `json:"charge_irradiance_threshold"`
	// AllowChargeBelowFloor lets PV generation charge the battery in
	// periods where the export floor forbids injection, instead of being
	// curtailed outright.
	AllowChargeBelowFloor bool `json:"allow_charge_below_floor"`
}

// SetDefaults fills unset efficiency and conversion values.
func (p *PlantParams) SetDefaults() {
	if p.ChargeEfficiency == 0 {
		p.ChargeEfficiency = 0.95
	}
	if p.DischargeEfficiency == 0 {
		p.DischargeEfficiency = 0.95
	}
	if p.ConversionRatio == 0 {
		p.ConversionRatio = 0.17
	}
}

// Validate checks the parameter ranges. Every violation is an InvalidInput.
func (p PlantParams) Validate() error {
	switch {
	case p.CapacityKWh <= 0:
		return fmt.Errorf("%w: capacity_kwh must be positive", ErrInvalidInput)
	case p.MaxChargeKW < 0 || p.MaxDischargeKW < 0:
		return fmt.Errorf("%w: battery power limits must be non-negative", ErrInvalidInput)
	case p.ChargeEfficiency <= 0 || p.ChargeEfficiency > 1:
		return fmt.Errorf("%w: charge_efficiency must be in (0,1]", ErrInvalidInput)
	case p.DischargeEfficiency <= 0 || p.DischargeEfficiency > 1:
		return fmt.Errorf("%w: discharge_efficiency must be in (0,1]", ErrInvalidInput)
	case p.GridImportLimitKW < 0 || p.GridExportLimitKW < 0:
		return fmt.Errorf("%w: grid limits must be non-negative", ErrInvalidInput)
	case p.RampLimitKW < 0:
		return fmt.Errorf("%w: ramp_limit_kw must be non-negative", ErrInvalidInput)
	case p.InitialSoCKWh < 0 || p.InitialSoCKWh > p.CapacityKWh:
		return fmt.Errorf("%w: initial_soc_kwh %.2f outside [0, %.2f]", ErrInvalidInput, p.InitialSoCKWh, p.CapacityKWh)
	case p.ConversionRatio <= 0:
		return fmt.Errorf("%w: conversion_ratio must be positive", ErrInvalidInput)
	case p.ChargeIrradianceThreshold < 0:
		return fmt.Errorf("%w: charge_irradiance_threshold must be non-negative", ErrInvalidInput)
	}
	return nil
}
