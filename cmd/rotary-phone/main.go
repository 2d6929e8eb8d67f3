// Command rotary-phone decodes a rotary dial, plays the dialed track and
// drives the ringer relays, publishing call events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/rotary-phone/internal/audio"
	"github.com/sweeney/rotary-phone/internal/gpio"
	"github.com/sweeney/rotary-phone/internal/logic"
	"github.com/sweeney/rotary-phone/internal/mqtt"
	"github.com/sweeney/rotary-phone/internal/status"
	"github.com/sweeney/rotary-phone/internal/web"
)

// options holds the parsed command line.
type options struct {
	poll       time.Duration
	broker     string
	heartbeat  time.Duration
	pins       gpio.Pins
	mediaDir   string
	printState bool
	httpAddr   string
	phone      logic.Config
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	def := logic.DefaultConfig()
	var o options
	o.phone = def

	fs.DurationVar(&o.poll, "poll", 5*time.Millisecond, "GPIO polling interval")
	fs.DurationVar(&o.phone.Timing.Debounce, "debounce", def.Timing.Debounce, "Debounce duration")
	fs.DurationVar(&o.phone.Timing.MinPulse, "min-pulse", def.Timing.MinPulse, "Shortest dial pulse")
	fs.DurationVar(&o.phone.Timing.MaxPulse, "max-pulse", def.Timing.MaxPulse, "Longest dial pulse")
	fs.DurationVar(&o.phone.Timing.DialTimeout, "dial-timeout", def.Timing.DialTimeout, "Quiet time that ends a digit")
	fs.DurationVar(&o.phone.Timing.HangUp, "hang-up", def.Timing.HangUp, "Line open time that counts as hang-up")
	fs.DurationVar(&o.phone.Timing.PickupGrace, "pickup-grace", def.Timing.PickupGrace, "Ignore line bounces this soon after pickup")
	fs.DurationVar(&o.phone.Timing.RingerDelay, "ringer-delay", def.Timing.RingerDelay, "Relay settle delay between isolation and ringer")
	fs.IntVar(&o.phone.MinRings, "min-rings", def.MinRings, "Fewest ring segments before connecting")
	fs.IntVar(&o.phone.MaxRings, "max-rings", def.MaxRings, "Most ring segments before connecting")
	fs.StringVar(&o.mediaDir, "media", "/media/sd", "Directory holding the WAV tracks")
	fs.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	fs.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.IntVar(&o.pins.Line, "pin-line", gpio.PinLine, "BCM pin number for the hook/dial line")
	fs.IntVar(&o.pins.RingButton, "pin-ring", gpio.PinRingButton, "BCM pin number for the ring button")
	fs.IntVar(&o.pins.Isolation, "pin-isolation", gpio.PinIsolation, "BCM pin number for the isolation relay")
	fs.IntVar(&o.pins.Ringer, "pin-ringer", gpio.PinRinger, "BCM pin number for the ringer relay")
	fs.BoolVar(&o.printState, "print-state", false, "Print current inputs and exit")
	fs.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.poll <= 0 {
		return options{}, errors.New("poll interval must be positive")
	}
	if err := o.phone.Validate(); err != nil {
		return options{}, fmt.Errorf("invalid timing: %w", err)
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	// Initialize GPIO
	gpioReader, err := gpio.NewRealReader(opts.pins.Line, opts.pins.RingButton)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	// Print state mode
	if opts.printState {
		up, ring, err := gpioReader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("LINE: %s, RING: %s\n", lineString(up), buttonString(ring))
		return nil
	}

	relays, err := gpio.NewRealRelays(opts.pins.Isolation, opts.pins.Ringer)
	if err != nil {
		return fmt.Errorf("init relays: %w", err)
	}
	defer relays.Close()

	// Check the media library before opening the sound device
	tracks := opts.phone.Tracks
	missing, err := audio.CheckLibrary(opts.mediaDir, tracks.All(), []string{tracks.DialTone, tracks.RingTone})
	if err != nil {
		return fmt.Errorf("check media: %w", err)
	}
	if len(missing) > 0 {
		log.Printf("audio: missing tracks in %s: %s (those digits play silence)", opts.mediaDir, strings.Join(missing, ", "))
	}

	player, err := audio.NewRealPlayer(opts.mediaDir, audio.DefaultSampleRate)
	if err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	defer player.Close()

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(opts.broker)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:        opts.poll.Milliseconds(),
		DebounceMs:    opts.phone.Timing.Debounce.Milliseconds(),
		DialTimeoutMs: opts.phone.Timing.DialTimeout.Milliseconds(),
		HangUpMs:      opts.phone.Timing.HangUp.Milliseconds(),
		RingerDelayMs: opts.phone.Timing.RingerDelay.Milliseconds(),
		HeartbeatMs:   opts.heartbeat.Milliseconds(),
		Broker:        opts.broker,
		HTTPPort:      opts.httpAddr,
		MediaDir:      opts.mediaDir,
	})
	tracker.SetMissingTracks(missing)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: poll=%v debounce=%v dial-timeout=%v hang-up=%v ringer-delay=%v broker=%s heartbeat=%v media=%s",
		opts.poll, opts.phone.Timing.Debounce, opts.phone.Timing.DialTimeout, opts.phone.Timing.HangUp,
		opts.phone.Timing.RingerDelay, opts.broker, opts.heartbeat, opts.mediaDir)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loop{
		reader:     gpioReader,
		relays:     relays,
		player:     player,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		phone:      opts.phone,
		heartbeat:  opts.heartbeat,
		sleep:      time.Sleep,
	}, time.Now, ticker.C, sigCh)
}

// loop holds the collaborators of the control loop.
type loop struct {
	reader     gpio.Reader
	relays     gpio.Relays
	player     logic.Player
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker       // may be nil
	phone      logic.Config
	heartbeat  time.Duration
	sleep      func(time.Duration)
}

func runLoop(l loop, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	phone := logic.NewPhone(l.phone, l.player, startTime)
	var applied logic.Relays

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			applied = releaseRelays(l, applied)
			if err := l.player.Stop(); err != nil {
				log.Printf("audio: stop: %v", err)
			}

			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if l.tracker != nil {
				view := phone.View()
				view.Relays = applied
				l.tracker.Update(view)
				if l.mqttStatus != nil {
					l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
				}
				snap := l.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			up, ring, err := l.reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			events := phone.Process(logic.Input{
				Line:        up,
				RingRequest: ring,
				Time:        t,
			})
			applied = applyRelays(l.relays, applied, phone.Relays())

			for _, event := range events {
				logEvent(event)
				if err := l.publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			if !phone.IsBaselined() {
				// Still waiting for baseline
				continue
			}

			// Check for heartbeat
			if hbData := phone.CheckHeartbeat(t, l.heartbeat); hbData != nil {
				c := hbData.Counts
				log.Printf("heartbeat: uptime=%v pickups=%d hang_ups=%d digits=%d discarded=%d connects=%d rings=%d",
					hbData.Uptime, c.Pickups, c.HangUps, c.Digits, c.Discarded, c.Connects, c.Rings)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if l.tracker != nil {
					if l.mqttStatus != nil {
						l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						l.tracker.SetNetwork(net)
					}
					l.tracker.Update(phone.View())
					snap := l.tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := l.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if l.tracker != nil {
				l.tracker.Update(phone.View())
				if l.mqttStatus != nil {
					l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
				}
			}
		}
	}
}

// applyRelays drives the outputs towards want and returns what is now
// applied. The ringer is released before isolation and isolation is asserted
// before the ringer. A failed command is retried on the next tick.
func applyRelays(r gpio.Relays, applied, want logic.Relays) logic.Relays {
	if applied.Ringer && !want.Ringer {
		if err := r.SetRinger(false); err != nil {
			log.Printf("relay: release ringer: %v", err)
			return applied
		}
		applied.Ringer = false
	}
	if applied.Isolation != want.Isolation && !applied.Ringer {
		if err := r.SetIsolation(want.Isolation); err != nil {
			log.Printf("relay: set isolation %v: %v", want.Isolation, err)
			return applied
		}
		applied.Isolation = want.Isolation
	}
	if !applied.Ringer && want.Ringer && applied.Isolation {
		if err := r.SetRinger(true); err != nil {
			log.Printf("relay: energize ringer: %v", err)
			return applied
		}
		applied.Ringer = true
	}
	return applied
}

// releaseRelays drops the ringer, waits the settle delay, then drops
// isolation.
func releaseRelays(l loop, applied logic.Relays) logic.Relays {
	if applied.Ringer {
		if err := l.relays.SetRinger(false); err != nil {
			log.Printf("relay: release ringer: %v", err)
		}
		applied.Ringer = false
	}
	if applied.Isolation {
		l.sleep(l.phone.Timing.RingerDelay)
		if err := l.relays.SetIsolation(false); err != nil {
			log.Printf("relay: release isolation: %v", err)
		}
		applied.Isolation = false
	}
	return applied
}

func logEvent(e logic.Event) {
	switch e.Type {
	case logic.EventPulse:
		// Not logged; DIGIT carries the count.
	case logic.EventDigit, logic.EventDigitDiscarded:
		log.Printf("event: %s digit=%d (state=%s)", e.Type, e.Digit, e.State)
	case logic.EventConnected:
		log.Printf("event: %s digit=%d track=%s", e.Type, e.Digit, e.Track)
	case logic.EventPlaybackError:
		log.Printf("event: %s track=%s: %s", e.Type, e.Track, e.Detail)
	default:
		log.Printf("event: %s (state=%s ringer=%s)", e.Type, e.State, e.Ringer)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func lineString(up bool) string {
	if up {
		return "UP"
	}
	return "DOWN"
}

func buttonString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
