package bmp180

import "math"

// Compensation per the Bosch datasheet algorithm, evaluated in float64.
// The formula is empirically tuned; operation order and the intermediate
// B5/B6/B7 terms must stay exactly as published or the output bits change.

// b5 is the temperature intermediate shared by temperature and pressure
// compensation.
func (c calibration) b5(rawTemp int) float64 {
	x1 := float64(rawTemp-c.ac6) * float64(c.ac5) / (1 << 15)
	x2 := float64(c.mc) * (1 << 11) / (x1 + float64(c.md))
	return x1 + x2
}

// temperature returns Celsius in steps of 0.1 °C.
func (c calibration) temperature(b5 float64) float64 {
	return ((b5 + 8) / (1 << 4)) / 10
}

// pressurePa returns Pascals in steps of 1 Pa.
func (c calibration) pressurePa(b5 float64, rawPressure int, mode Mode) float64 {
	scale := float64(int(1) << uint(mode))

	b6 := b5 - 4000
	x1 := float64(c.b2) * (b6 * b6 / (1 << 12)) / (1 << 11)
	x2 := float64(c.ac2) * b6 / (1 << 11)
	x3 := x1 + x2
	b3 := ((float64(c.ac1)*4+x3)*scale + 2) / 4
	x1 = float64(c.ac3) * b6 / (1 << 13)
	x2 = float64(c.b1) * (b6 * b6 / (1 << 12)) / (1 << 16)
	x3 = ((x1 + x2) + 2) / 4
	b4 := float64(c.ac4) * (x3 + 32768) / (1 << 15)
	b7 := (float64(rawPressure) - b3) * (50000 / scale)

	// Overflow guard from the fixed-point reference. The branches agree in
	// float64 but the split is kept for bit-compatibility with the
	// reference vectors.
	var press float64
	if b7 < 2147483648 {
		press = (b7 * 2) / b4
	} else {
		press = (b7 / b4) * 2
	}

	x1 = (press / (1 << 8)) * (press / (1 << 8))
	x1 = (x1 * 3038) / (1 << 16)
	x2 = (-7357 * press) / (1 << 16)

	return press + (x1+x2+3791)/(1<<4)
}

// altitude derives meters above sea level from a pressure reading and the
// sea-level reference, both in hPa, per the international barometric
// formula. Rounded to 0.1 m.
func altitude(pressure, seaLevel float64) float64 {
	return math.Round(44330*(1-math.Pow(pressure/seaLevel, 0.19025))*10) / 10
}

// seaLevelAt back-solves the sea-level reference from a pressure reading
// taken at a known altitude.
func seaLevelAt(pressure, meters float64) float64 {
	return pressure / math.Pow(1-meters/44330, 5.255)
}
