package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"io"
	"log"
	"math"
	"os"
	"time"

	bmp180 "github.com/osajus/RV-Monitor"
	"gobot.io/x/gobot/sysfs"
)

func main() {
	device := flag.String("device", "/dev/i2c-1", "I2C device")
	interval := flag.Duration("interval", time.Second, "Interval between measurements")
	decimals := flag.Int("decimals", 2, "Rounding precision")
	buffer := flag.Bool("buffer", false, "Use output buffering")
	flag.Parse()

	dev, err := sysfs.NewI2cDevice(*device)
	if err != nil {
		log.Fatalln("open I2C device:", err)
	}

	bmp, err := bmp180.New(dev)
	if err != nil {
		log.Fatalln("init BMP180:", err)
	}

	fields := make(map[string]interface{})
	out := io.Writer(os.Stdout)
	if *buffer {
		out = bufio.NewWriter(out)
	}
	enc := json.NewEncoder(out)

	for now := range time.NewTicker(*interval).C {
		fields["when"] = now

		temp, err := bmp.Temperature()
		if err != nil {
			log.Fatalln("bmp180:", err)
		}
		fields["bmp180_temperature_c"] = round(temp, *decimals)
		fields["bmp180_temperature_f"] = round(temp*9/5+32, *decimals)

		press, err := bmp.Pressure()
		if err != nil {
			log.Fatalln("bmp180:", err)
		}
		fields["bmp180_pressure_hpa"] = round(press, *decimals)

		alt, err := bmp.Altitude()
		if err != nil {
			log.Fatalln("bmp180:", err)
		}
		fields["bmp180_altitude_m"] = round(alt, 1)

		enc.Encode(fields)
	}
}

func round(x float64, prec int) float64 {
	pow := math.Pow10(prec)
	return math.Round(x*pow) / pow
}
