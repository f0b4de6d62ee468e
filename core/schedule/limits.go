package schedule

import (
	"math"

	"github.com/kilianp07/pvbess/core/model"
)

// meetRampDown raises a period's export towards target when the previous
// period's level cannot be ramped down to the tentative export within the
// limit. Supply is recruited in order of increasing cost: spare generation,
// generation diverted from charging, then battery discharge (cancelling any
// grid charge first, so charge and discharge stay mutually exclusive).
// Whatever deficit remains afterwards is a genuine supply clamp.
func meetRampDown(target, ep, d, cp, cg, gen, availDischargeKW float64, p model.PlantParams) (float64, float64, float64, float64) {
	deficit := target - (ep + d)
	if deficit <= 0 {
		return ep, d, cp, cg
	}

	spare := math.Max(0, gen-cp-ep)
	add := math.Min(deficit, spare)
	ep += add
	deficit -= add

	if deficit > 0 && cp > 0 {
		shift := math.Min(deficit, cp)
		cp -= shift
		ep += shift
		deficit -= shift
	}

	if deficit > 0 {
		cg = 0
		if cp == 0 {
			extra := math.Min(deficit, math.Min(p.MaxDischargeKW, availDischargeKW)-d)
			if extra > 0 {
				d += extra
			}
		}
	}
	return ep, d, cp, cg
}
