package bmp180

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

// fakeDevice scripts the BMP180 register map. Writing a conversion command
// to the control register latches the matching result into the data
// registers, the way the hardware does once the settle time has passed.
type fakeDevice struct {
	addr      int
	chipWord  uint16
	cal       map[uint8]uint8
	data      [3]uint8
	tempData  [2]uint8
	pressData [3]uint8
	control   []uint8
	calReads  int
	resets    int
	readErr   error
}

func newFakeDevice() *fakeDevice {
	d := &fakeDevice{chipWord: 0x0255, cal: make(map[uint8]uint8)}

	// Datasheet worked-example coefficients, big-endian at 0xAA.
	words := []int{408, -72, -14383, 32741, 32757, 23153, 6190, 4, -32768, -8711, 2868}
	for i, w := range words {
		d.cal[uint8(0xAA+2*i)] = uint8(uint16(w) >> 8)
		d.cal[uint8(0xAA+2*i+1)] = uint8(uint16(w))
	}

	d.tempData = [2]uint8{27898 >> 8, 27898 & 0xFF}
	// Raw pressure 23843 at mode 0 sits in the data registers before the
	// (8 - mode) shift, i.e. 0x5D23 << 8.
	d.pressData = [3]uint8{0x5D, 0x23, 0x00}
	return d
}

func (d *fakeDevice) SetAddress(addr int) error {
	d.addr = addr
	return nil
}

func (d *fakeDevice) ReadWordData(reg uint8) (uint16, error) {
	if d.readErr != nil {
		return 0, d.readErr
	}
	if reg == 0xD0 {
		return d.chipWord, nil
	}
	return 0, fmt.Errorf("unexpected word read at %#02x", reg)
}

func (d *fakeDevice) ReadByteData(reg uint8) (uint8, error) {
	if d.readErr != nil {
		return 0, d.readErr
	}
	switch {
	case reg >= 0xAA && reg <= 0xBF:
		d.calReads++
		return d.cal[reg], nil
	case reg >= 0xF6 && reg <= 0xF8:
		return d.data[reg-0xF6], nil
	}
	return 0, fmt.Errorf("unexpected read at %#02x", reg)
}

func (d *fakeDevice) WriteByteData(reg, val uint8) error {
	switch reg {
	case 0xF4:
		d.control = append(d.control, val)
		if val == 0x2E {
			d.data = [3]uint8{d.tempData[0], d.tempData[1], 0}
		} else {
			d.data = d.pressData
		}
	case 0xE0:
		if val == 0xB6 {
			d.resets++
		}
	}
	return nil
}

func TestNewDefaults(t *testing.T) {
	dev := newFakeDevice()
	s, err := New(dev)
	if err != nil {
		t.Fatal(err)
	}

	if dev.addr != 0x77 {
		t.Errorf("device address = %#02x, want 0x77", dev.addr)
	}
	if s.Mode() != ModeHighRes {
		t.Errorf("default mode = %d, want ModeHighRes", s.Mode())
	}
	if s.OversamplingSetting() != OversamplingX8 {
		t.Errorf("default oversampling = %d, want OversamplingX8", s.OversamplingSetting())
	}
	if s.SeaLevelPressure() != 1013.25 {
		t.Errorf("default sea-level pressure = %v, want 1013.25", s.SeaLevelPressure())
	}
	if dev.calReads != 22 {
		t.Errorf("calibration reads = %d, want 22", dev.calReads)
	}
}

func TestNewChipIDMismatch(t *testing.T) {
	dev := newFakeDevice()
	dev.chipWord = 0x0155

	_, err := New(dev)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("err = %v, want ErrDeviceNotFound", err)
	}
	if dev.calReads != 0 {
		t.Errorf("calibration read after chip id mismatch")
	}
}

func TestTemperature(t *testing.T) {
	dev := newFakeDevice()
	s, err := New(dev)
	if err != nil {
		t.Fatal(err)
	}

	temp, err := s.Temperature()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(temp-15.0) > 0.1 {
		t.Errorf("temperature = %.3f degC, want 15.0", temp)
	}
	if len(dev.control) != 1 || dev.control[0] != 0x2E {
		t.Errorf("control writes = %#02x, want [0x2e]", dev.control)
	}
}

func TestPressure(t *testing.T) {
	dev := newFakeDevice()
	s, err := New(dev)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetMode(ModeUltraLowPower); err != nil {
		t.Fatal(err)
	}

	press, err := s.Pressure()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(press-699.64) > 0.1 {
		t.Errorf("pressure = %.4f hPa, want 699.64", press)
	}

	// Temperature conversion first, then the mode 0 pressure command.
	want := []uint8{0x2E, 0x34}
	if len(dev.control) != len(want) || dev.control[0] != want[0] || dev.control[1] != want[1] {
		t.Errorf("control writes = %#02x, want %#02x", dev.control, want)
	}
}

func TestSetModeValidation(t *testing.T) {
	dev := newFakeDevice()
	s, err := New(dev)
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range []Mode{-1, 4, 17} {
		if err := s.SetMode(m); !errors.Is(err, ErrInvalidMode) {
			t.Errorf("SetMode(%d) err = %v, want ErrInvalidMode", m, err)
		}
	}
	if s.Mode() != ModeHighRes {
		t.Errorf("mode changed by rejected setter: %d", s.Mode())
	}

	if err := s.SetMode(ModeStandard); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != ModeStandard {
		t.Errorf("mode = %d, want ModeStandard", s.Mode())
	}
}

func TestSetOversamplingValidation(t *testing.T) {
	dev := newFakeDevice()
	s, err := New(dev)
	if err != nil {
		t.Fatal(err)
	}

	for _, o := range []Oversampling{0, 5, -3} {
		if err := s.SetOversamplingSetting(o); !errors.Is(err, ErrInvalidOversampling) {
			t.Errorf("SetOversamplingSetting(%d) err = %v, want ErrInvalidOversampling", o, err)
		}
	}
	if s.OversamplingSetting() != OversamplingX8 {
		t.Errorf("oversampling changed by rejected setter: %d", s.OversamplingSetting())
	}

	if err := s.SetOversamplingSetting(OversamplingX2); err != nil {
		t.Fatal(err)
	}
	if s.OversamplingSetting() != OversamplingX2 {
		t.Errorf("oversampling = %d, want OversamplingX2", s.OversamplingSetting())
	}
}

func TestSetAltitudeRoundTrip(t *testing.T) {
	dev := newFakeDevice()
	s, err := New(dev)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetMode(ModeUltraLowPower); err != nil {
		t.Fatal(err)
	}

	// Low altitude: the forward/inverse exponent pair drifts by ~0.024 %
	// of the altitude, so 0.1 m absolute only holds down here.
	if err := s.SetAltitude(123.5); err != nil {
		t.Fatal(err)
	}
	alt, err := s.Altitude()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(alt-123.5) > 0.1 {
		t.Errorf("altitude = %.1f m, want 123.5", alt)
	}
}

func TestReset(t *testing.T) {
	dev := newFakeDevice()
	s, err := New(dev)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if dev.resets != 1 {
		t.Errorf("soft resets = %d, want 1", dev.resets)
	}
}

func TestTransportErrorPropagates(t *testing.T) {
	dev := newFakeDevice()
	s, err := New(dev)
	if err != nil {
		t.Fatal(err)
	}

	busErr := errors.New("i2c: remote I/O error")
	dev.readErr = busErr

	if _, err := s.Temperature(); !errors.Is(err, busErr) {
		t.Errorf("Temperature err = %v, want wrapped bus error", err)
	}
	if _, err := s.Pressure(); !errors.Is(err, busErr) {
		t.Errorf("Pressure err = %v, want wrapped bus error", err)
	}
}
