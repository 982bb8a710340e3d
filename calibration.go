package bmp180

import (
	"github.com/osajus/RV-Monitor/i2c"
)

// calibration holds the factory-programmed compensation coefficients: 11
// big-endian words at 0xAA..0xBF, read once at initialization and immutable
// thereafter. AC4..AC6 are unsigned, the rest signed.
type calibration struct {
	ac1, ac2, ac3 int
	ac4, ac5, ac6 int
	b1, b2        int
	mb, mc, md    int
}

func loadCalibration(dev i2c.Device) (calibration, error) {
	r := i2c.NewReader(dev)

	var c calibration
	c.ac1 = r.Signed(bmp180CalibReg, bmp180CalibReg+1)
	c.ac2 = r.Signed(bmp180CalibReg+2, bmp180CalibReg+3)
	c.ac3 = r.Signed(bmp180CalibReg+4, bmp180CalibReg+5)
	c.ac4 = r.Unsigned(bmp180CalibReg+6, bmp180CalibReg+7)
	c.ac5 = r.Unsigned(bmp180CalibReg+8, bmp180CalibReg+9)
	c.ac6 = r.Unsigned(bmp180CalibReg+10, bmp180CalibReg+11)
	c.b1 = r.Signed(bmp180CalibReg+12, bmp180CalibReg+13)
	c.b2 = r.Signed(bmp180CalibReg+14, bmp180CalibReg+15)
	c.mb = r.Signed(bmp180CalibReg+16, bmp180CalibReg+17)
	c.mc = r.Signed(bmp180CalibReg+18, bmp180CalibReg+19)
	c.md = r.Signed(bmp180CalibReg+20, bmp180CalibReg+21)

	if err := r.Error(); err != nil {
		return calibration{}, err
	}
	return c, nil
}
