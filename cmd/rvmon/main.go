package main

import (
	"flag"
	"log"
	"math"
	"net/http"
	"time"

	bmp180 "github.com/osajus/RV-Monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gobot.io/x/gobot/sysfs"
)

func main() {
	device := flag.String("device", "/dev/i2c-1", "I2C device")
	promaddr := flag.String("prometheus", ":9120", "Prometheus exporter address")
	interval := flag.Duration("interval", 30*time.Second, "Interval between temperature checks")
	highTemp := flag.Float64("high-temp", 83, "Alert threshold (degrees Fahrenheit)")
	cooldown := flag.Duration("alert-cooldown", 10*time.Minute, "Minimum time between alerts")
	seaLevel := flag.Float64("sea-level", 1013.25, "Sea-level reference pressure (hPa)")
	flag.Parse()

	dev, err := sysfs.NewI2cDevice(*device)
	if err != nil {
		log.Fatalln("open I2C device:", err)
	}

	bmp, err := bmp180.New(dev)
	if err != nil {
		log.Fatalln("init BMP180:", err)
	}
	bmp.SetSeaLevelPressure(*seaLevel)

	go watchTemperature(bmp, *interval, *highTemp, *cooldown)

	servePrometheus(*promaddr, bmp)
}

func watchTemperature(bmp *bmp180.BMP180, interval time.Duration, highTemp float64, cooldown time.Duration) {
	var lastAlert time.Time

	for range time.NewTicker(interval).C {
		temp, err := bmp.Temperature()
		if err != nil {
			log.Println("read temperature:", err)
			continue
		}

		tempF := temp*9/5 + 32
		if tempF > highTemp && time.Since(lastAlert) > cooldown {
			lastAlert = time.Now()
			log.Printf("ALERT: temperature %.1f F above threshold %.1f F", tempF, highTemp)
		}
	}
}

func servePrometheus(addr string, bmp *bmp180.BMP180) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sensors",
		Subsystem: "bmp180",
		Name:      "temperature_celsius",
	}, func() float64 {
		temp, err := bmp.Temperature()
		if err != nil {
			log.Println("read temperature:", err)
			return math.NaN()
		}
		return round(temp, 2)
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sensors",
		Subsystem: "bmp180",
		Name:      "pressure_hpa",
	}, func() float64 {
		press, err := bmp.Pressure()
		if err != nil {
			log.Println("read pressure:", err)
			return math.NaN()
		}
		return round(press, 2)
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sensors",
		Subsystem: "bmp180",
		Name:      "altitude_meters",
	}, func() float64 {
		alt, err := bmp.Altitude()
		if err != nil {
			log.Println("read altitude:", err)
			return math.NaN()
		}
		return alt
	})

	http.Handle("/metrics", promhttp.Handler())
	http.ListenAndServe(addr, nil)
}

func round(x float64, prec int) float64 {
	pow := math.Pow10(prec)
	return math.Round(x*pow) / pow
}
