package sensor

const (
	// MinValidDistanceMM and MaxValidDistanceMM bound the HC-SR04's
	// physical envelope (2cm to 4m). Readings outside are reported as
	// StatusOutOfRange and never reach the smoothing filter.
	MinValidDistanceMM = 20
	MaxValidDistanceMM = 4000

	// Speed of sound, fixed point in tenth-mm/s:
	// 331.3 m/s base plus 0.606 m/s per °C, i.e. 606 tenth-mm/s per
	// tenth of a °C.
	speedBaseTenthMM    = 3313000
	speedPerTenthDegree = 606

	// Round trip halving (2) times the tenth scale (10) times µs→s (1e6).
	roundTripScaleDivisor = 20_000_000
)

// speedTenthMMPerS returns the temperature-compensated speed of sound
// in tenth-mm/s. Temperatures below -546.7°C are not a concern, but
// the clamp keeps the unsigned math safe against nonsense input.
func speedTenthMMPerS(temperatureTenths int32) uint64 {
	speed := int64(speedBaseTenthMM) + int64(speedPerTenthDegree)*int64(temperatureTenths)
	if speed < 0 {
		return 0
	}
	return uint64(speed)
}

// DistanceMM converts an echo pulse width to a one-way distance in
// millimeters using integer arithmetic only.
//
//	distance_mm = elapsed_µs × speed / (2 × 10 × 1e6)
//
// At 20.0°C (200 tenths) a 1160µs echo is ~199mm. A 30ms echo at
// 40.0°C stays well under 2^37, so the intermediate product cannot
// overflow uint64 for any plausible input.
func DistanceMM(elapsedMicros uint64, temperatureTenths int32) uint32 {
	return uint32(elapsedMicros * speedTenthMMPerS(temperatureTenths) / roundTripScaleDivisor)
}

// inRange reports whether a distance is inside the sensor envelope.
func inRange(distanceMM uint32) bool {
	return distanceMM >= MinValidDistanceMM && distanceMM <= MaxValidDistanceMM
}
