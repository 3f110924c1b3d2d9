package screen

// MapRange maps v from [a0,a1] onto [b0,b1] affinely.
// v == a0 yields exactly b0 and v == a1 yields exactly b1.
func MapRange(v, a0, a1, b0, b1 float64) float64 {
	t := (v - a0) / (a1 - a0)
	return b0*(1-t) + b1*t
}
