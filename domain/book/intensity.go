package book

import "math"

type intensityKind int

const (
	intensityConstant intensityKind = iota
	intensityLinear
	intensityExponential
	intensityPowerLaw
	intensityProportional
	intensityCustom
)

// Intensity maps a queue size to a non-negative arrival rate. The variant
// set is closed: the model's mathematical definition fixes it, so a tagged
// variant with one evaluation entry point replaces open-ended subtyping.
// An Intensity is immutable once constructed.
type Intensity struct {
	kind intensityKind
	a    float64
	b    float64
	fn   func(queueSize int64) float64
}

// Eval returns the arrival rate at the given queue size. Pathological
// regions (negative linear slope, NaN from a custom function) saturate
// at 0; Eval never returns a negative rate.
func (f Intensity) Eval(queueSize int64) float64 {
	q := float64(queueSize)
	if q < 0 {
		q = 0
	}
	var r float64
	switch f.kind {
	case intensityConstant:
		r = f.a
	case intensityLinear:
		r = f.a*q + f.b
	case intensityExponential:
		r = f.a * math.Exp(-f.b*q)
	case intensityPowerLaw:
		r = f.a * math.Pow(q+1, -f.b)
	case intensityProportional:
		r = f.a * q
	case intensityCustom:
		r = f.fn(queueSize)
	}
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	return r
}

func ConstantIntensity(c float64) Intensity {
	return Intensity{kind: intensityConstant, a: c}
}

func LinearIntensity(slope, intercept float64) Intensity {
	return Intensity{kind: intensityLinear, a: slope, b: intercept}
}

func ExponentialIntensity(scale, rate float64) Intensity {
	return Intensity{kind: intensityExponential, a: scale, b: rate}
}

// LimitOrderIntensity is base * (q+1)^(-alpha): limit arrivals slow down as
// the queue deepens, the central queue-reactive stylized fact.
func LimitOrderIntensity(base, alpha float64) Intensity {
	return Intensity{kind: intensityPowerLaw, a: base, b: alpha}
}

// CancellationIntensity is mu * q: more resting volume, proportionally more
// cancellations. It is zero on an empty queue by construction.
func CancellationIntensity(mu float64) Intensity {
	return Intensity{kind: intensityProportional, a: mu}
}

// MarketOrderIntensity is a flat rate, independent of any single level's
// depth.
func MarketOrderIntensity(theta float64) Intensity {
	return Intensity{kind: intensityConstant, a: theta}
}

func CustomIntensity(fn func(queueSize int64) float64) Intensity {
	return Intensity{kind: intensityCustom, fn: fn}
}

// NewIntensity builds a variant by name. Recognized names and their
// required parameters:
//
//	constant     constant
//	linear       slope, intercept
//	exponential  scale, rate
//	limit_order  base_intensity, alpha
//	cancellation mu
//	market_order theta
func NewIntensity(name string, params map[string]float64) (Intensity, error) {
	get := func(key string) (float64, error) {
		v, ok := params[key]
		if !ok {
			return 0, &ConfigError{
				Field:  key,
				Reason: "missing parameter for intensity " + name,
			}
		}
		return v, nil
	}

	switch name {
	case "constant":
		c, err := get("constant")
		if err != nil {
			return Intensity{}, err
		}
		return ConstantIntensity(c), nil
	case "linear":
		slope, err := get("slope")
		if err != nil {
			return Intensity{}, err
		}
		intercept, err := get("intercept")
		if err != nil {
			return Intensity{}, err
		}
		return LinearIntensity(slope, intercept), nil
	case "exponential":
		scale, err := get("scale")
		if err != nil {
			return Intensity{}, err
		}
		rate, err := get("rate")
		if err != nil {
			return Intensity{}, err
		}
		return ExponentialIntensity(scale, rate), nil
	case "limit_order":
		base, err := get("base_intensity")
		if err != nil {
			return Intensity{}, err
		}
		alpha, err := get("alpha")
		if err != nil {
			return Intensity{}, err
		}
		return LimitOrderIntensity(base, alpha), nil
	case "cancellation":
		mu, err := get("mu")
		if err != nil {
			return Intensity{}, err
		}
		return CancellationIntensity(mu), nil
	case "market_order":
		theta, err := get("theta")
		if err != nil {
			return Intensity{}, err
		}
		return MarketOrderIntensity(theta), nil
	default:
		return Intensity{}, &ConfigError{
			Field:  "intensity",
			Reason: "unknown variant " + name,
		}
	}
}
