// Package pv converts plane-of-array irradiance into plant output power.
package pv

import (
	"fmt"
	"time"

	"github.com/kilianp07/pvbess/core/model"
)

// Power returns the instantaneous PV output in kW for the given irradiance
// (W/m²) and conversion ratio. Irradiance must be non-negative.
func Power(irradiance, ratio float64) (float64, error) {
	if irradiance < 0 {
		return 0, fmt.Errorf("%w: negative irradiance %.3f", model.ErrInvalidInput, irradiance)
	}
	if ratio <= 0 {
		return 0, fmt.Errorf("%w: conversion ratio must be positive", model.ErrInvalidInput)
	}
	return irradiance * ratio, nil
}

// Energy converts a power level held over one period into energy (kWh).
func Energy(powerKW float64, interval time.Duration) float64 {
	return powerKW * interval.Hours()
}

// Profile maps the horizon's irradiance column to per-period generation
// power. The horizon has already been validated, so only the ratio can fail.
func Profile(h *model.Horizon, ratio float64) ([]float64, error) {
	out := make([]float64, h.Len())
	for i, p := range h.Periods {
		kw, err := Power(p.Irradiance, ratio)
		if err != nil {
			return nil, err
		}
		out[i] = kw
	}
	return out, nil
}
