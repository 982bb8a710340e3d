package bmp180

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osajus/RV-Monitor/i2c"
)

// Bosch BMP180 Temperature & Barometric Pressure Sensor

// Mode selects the pressure oversampling level, trading conversion time
// for resolution. It drives the trigger command, the settle time and the
// raw-value shift.
type Mode int

const (
	ModeUltraLowPower Mode = iota
	ModeStandard
	ModeHighRes
	ModeUltraHighRes
)

// Oversampling is the configured pressure oversampling setting, X1..X8.
type Oversampling int

const (
	OversamplingX1 Oversampling = iota + 1
	OversamplingX2
	OversamplingX4
	OversamplingX8
)

var (
	ErrDeviceNotFound      = errors.New("bmp180: device not found")
	ErrInvalidMode         = errors.New("bmp180: unsupported mode")
	ErrInvalidOversampling = errors.New("bmp180: unsupported oversampling setting")
)

const (
	bmp180Address      = 0x77
	bmp180ChipIDReg    = 0xD0
	bmp180ChipID       = 0x0255 // id 0x55 at 0xD0, version 0x02 at 0xD1
	bmp180SoftResetReg = 0xE0
	bmp180SoftResetCmd = 0xB6
	bmp180ControlReg   = 0xF4
	bmp180DataMSBReg   = 0xF6
	bmp180DataLSBReg   = 0xF7
	bmp180DataXLSBReg  = 0xF8
	bmp180CalibReg     = 0xAA

	bmp180TempCmd = 0x2E

	defaultSeaLevelPressure = 1013.25 // hPa

	tempSettle  = 4500 * time.Microsecond
	resetSettle = 4 * time.Millisecond
)

// Pressure trigger commands and settle times, indexed by Mode.
var (
	pressureCmd    = [4]uint8{0x34, 0x74, 0xB4, 0xF4}
	pressureSettle = [4]time.Duration{
		4500 * time.Microsecond,
		7500 * time.Microsecond,
		13500 * time.Microsecond,
		25500 * time.Microsecond,
	}
)

// BMP180 drives the sensor at its fixed bus address 0x77. The device
// protocol is strictly serial (trigger, wait, read); the mutex is held
// across a whole conversion so no other bus traffic to the device can be
// interleaved mid-conversion. There is no caching: every call triggers a
// fresh conversion.
type BMP180 struct {
	device i2c.Device
	cal    calibration

	mut          sync.Mutex
	mode         Mode
	oversampling Oversampling
	seaLevel     float64
}

// New verifies the chip identifier and reads the calibration coefficients.
// A mismatched identifier means the sensor is absent; nothing further is
// read in that case.
func New(dev i2c.Device) (*BMP180, error) {
	if err := dev.SetAddress(bmp180Address); err != nil {
		return nil, fmt.Errorf("set device address: %w", err)
	}

	id, err := dev.ReadWordData(bmp180ChipIDReg)
	if err != nil {
		return nil, fmt.Errorf("read chip identifier: %w", err)
	}
	if id != bmp180ChipID {
		return nil, fmt.Errorf("%w: chip identifier %#04x", ErrDeviceNotFound, id)
	}

	cal, err := loadCalibration(dev)
	if err != nil {
		return nil, fmt.Errorf("read calibration data: %w", err)
	}

	return &BMP180{
		device:       dev,
		cal:          cal,
		mode:         ModeHighRes,
		oversampling: OversamplingX8,
		seaLevel:     defaultSeaLevelPressure,
	}, nil
}

// Reset soft resets the sensor. The datasheet allows 2 ms for the reset
// to complete; twice that is waited.
func (s *BMP180) Reset() error {
	s.mut.Lock()
	defer s.mut.Unlock()

	if err := s.device.SetAddress(bmp180Address); err != nil {
		return fmt.Errorf("set device address: %w", err)
	}
	if err := s.device.WriteByteData(bmp180SoftResetReg, bmp180SoftResetCmd); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	time.Sleep(resetSettle)
	return nil
}

// Temperature triggers a conversion and returns the compensated
// temperature in Celsius, in steps of 0.1 °C.
func (s *BMP180) Temperature() (float64, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	b5, err := s.readB5()
	if err != nil {
		return 0, err
	}
	return s.cal.temperature(b5), nil
}

// Pressure triggers a temperature conversion followed by a pressure
// conversion at the current mode and returns the compensated pressure in
// hectoPascals. The temperature conversion is not redundant: pressure
// compensation needs its B5 intermediate.
func (s *BMP180) Pressure() (float64, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.pressureHPa()
}

// Altitude derives the altitude in meters from the current pressure and
// the sea-level reference, rounded to 0.1 m.
func (s *BMP180) Altitude() (float64, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	press, err := s.pressureHPa()
	if err != nil {
		return 0, err
	}
	return altitude(press, s.seaLevel), nil
}

// SetAltitude back-solves the sea-level reference from a known altitude
// and the current pressure.
func (s *BMP180) SetAltitude(meters float64) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	press, err := s.pressureHPa()
	if err != nil {
		return err
	}
	s.seaLevel = seaLevelAt(press, meters)
	return nil
}

func (s *BMP180) SeaLevelPressure() float64 {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.seaLevel
}

func (s *BMP180) SetSeaLevelPressure(hPa float64) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.seaLevel = hPa
}

func (s *BMP180) Mode() Mode {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.mode
}

func (s *BMP180) SetMode(m Mode) error {
	if m < ModeUltraLowPower || m > ModeUltraHighRes {
		return fmt.Errorf("%w: %d", ErrInvalidMode, m)
	}
	s.mut.Lock()
	defer s.mut.Unlock()
	s.mode = m
	return nil
}

func (s *BMP180) OversamplingSetting() Oversampling {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.oversampling
}

func (s *BMP180) SetOversamplingSetting(o Oversampling) error {
	if o < OversamplingX1 || o > OversamplingX8 {
		return fmt.Errorf("%w: %d", ErrInvalidOversampling, o)
	}
	s.mut.Lock()
	defer s.mut.Unlock()
	s.oversampling = o
	return nil
}

// readB5 runs a temperature conversion and returns the B5 intermediate.
// Must be called with the mutex held.
func (s *BMP180) readB5() (float64, error) {
	if err := s.device.SetAddress(bmp180Address); err != nil {
		return 0, fmt.Errorf("set device address: %w", err)
	}
	if err := s.device.WriteByteData(bmp180ControlReg, bmp180TempCmd); err != nil {
		return 0, fmt.Errorf("trigger temperature conversion: %w", err)
	}
	time.Sleep(tempSettle)

	r := i2c.NewReader(s.device)
	ut := r.Unsigned(bmp180DataMSBReg, bmp180DataLSBReg)
	if err := r.Error(); err != nil {
		return 0, fmt.Errorf("read raw temperature: %w", err)
	}
	return s.cal.b5(ut), nil
}

func (s *BMP180) pressureHPa() (float64, error) {
	b5, err := s.readB5()
	if err != nil {
		return 0, err
	}

	up, err := s.readRawPressure()
	if err != nil {
		return 0, err
	}
	return s.cal.pressurePa(b5, up, s.mode) / 100, nil
}

// readRawPressure runs a pressure conversion at the current mode. The
// result is up to 19 bits: three data bytes right-shifted by (8 - mode).
func (s *BMP180) readRawPressure() (int, error) {
	if err := s.device.WriteByteData(bmp180ControlReg, pressureCmd[s.mode]); err != nil {
		return 0, fmt.Errorf("trigger pressure conversion: %w", err)
	}
	time.Sleep(pressureSettle[s.mode])

	r := i2c.NewReader(s.device)
	up := r.Unsigned(bmp180DataMSBReg, bmp180DataLSBReg, bmp180DataXLSBReg)
	if err := r.Error(); err != nil {
		return 0, fmt.Errorf("read raw pressure: %w", err)
	}
	return up >> (8 - uint(s.mode)), nil
}
