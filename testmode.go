package feeder

import (
	"context"
	"time"

	"github.com/skytrack/feeder/simconnect"
)

// runTestMode feeds the normal decode pipeline from a loopback link with
// a synthetic climb/descend profile, so everything downstream of the
// simulator behaves exactly as it does against the real thing.
func (f *Feeder) runTestMode(ctx context.Context) {
	link := simconnect.NewLoopbackLink()
	f.link = link

	link.SetSample("PLANE LATITUDE", 35.5533)
	link.SetSample("PLANE LONGITUDE", 139.7811)
	link.SetSample("TITLE", "Boeing 787-9")
	link.SetSample("ATC ID", "JAL001")
	link.SetSample("SIM ON GROUND", int32(1))

	go func() {
		alt := 0.0
		lat := 35.5533
		climbing := true
		for {
			select {
			case <-time.Tick(time.Millisecond * 250):
			case <-ctx.Done():
				return
			}

			if climbing {
				alt += 500
			} else {
				alt -= 500
			}
			if alt >= 35000 {
				climbing = false
			} else if alt <= 0 {
				alt = 0
				climbing = true
			}
			lat += 0.01

			onGround := int32(0)
			vs := 1800.0
			gs := 750.0 // feet per second
			if alt == 0 {
				onGround = 1
				vs = 0
				gs = 0
			} else if !climbing {
				vs = -1800.0
			}

			link.SetSample("PLANE ALTITUDE", alt)
			link.SetSample("PLANE LATITUDE", lat)
			link.SetSample("VERTICAL SPEED", vs)
			link.SetSample("GROUND VELOCITY", gs)
			link.SetSample("SIM ON GROUND", onGround)
		}
	}()

	go runSim(ctx, link, f.simChan)
}
