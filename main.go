// Command waveplay drives the playback core from a plain argv playlist:
// every non-flag argument is either an audio file or an .m3u playlist,
// queued in order, with shuffle/repeat/replaygain/volume set from the
// persisted config. It is a headless harness over internal/playback,
// not a terminal UI (out of scope per the core's spec) — useful for
// exercising the pipeline, MPRIS export and notifications end to end.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/waveplay/core/internal/audioengine"
	"github.com/waveplay/core/internal/config"
	"github.com/waveplay/core/internal/decoder"
	"github.com/waveplay/core/internal/errmsg"
	"github.com/waveplay/core/internal/metadata"
	"github.com/waveplay/core/internal/mpris"
	"github.com/waveplay/core/internal/notify"
	"github.com/waveplay/core/internal/pipeline"
	"github.com/waveplay/core/internal/playback"
	"github.com/waveplay/core/internal/playlist"
	"github.com/waveplay/core/internal/playliststore"
	"github.com/waveplay/core/internal/stderr"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "waveplay:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	paths, err := expandArgs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("usage: waveplay <file|playlist.m3u> [...]")
	}

	if err := stderr.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "waveplay: stderr capture unavailable:", err)
	} else {
		defer stderr.Stop()
		go relayCapturedStderr()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpConfigLoad, err))
	}
	state, err := config.LoadState()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpConfigLoad, err))
	}

	probe := decoder.NewFormatProbe()
	reader := metadata.NewReader(probe)

	pl := playlist.New(rand.Int63())
	for _, p := range paths {
		pl.Enqueue(p)
	}

	pipe := pipeline.New(probe)
	audio := audioengine.New(pipe, 4096)

	gainMode := cfg.Playback.ReplayGainMode()
	controller := playback.New(pl, pipe, audio, reader.Lookup, gainMode)
	defer controller.Close()

	volumePercent := cfg.Playback.Volume
	if state.Volume > 0 {
		volumePercent = state.Volume
	}
	repeatMode := cfg.Playback.RepeatModeValue()
	if state.RepeatMode != "" {
		repeatMode = config.PlaybackConfig{RepeatMode: state.RepeatMode}.RepeatModeValue()
	}
	shuffle := cfg.Playback.Shuffle
	if !state.LastRun.IsZero() {
		shuffle = state.Shuffle
	}

	controller.SetVolume(float64(volumePercent) / 100)
	controller.SetRepeatMode(repeatMode)
	if shuffle != controller.Shuffle() {
		controller.SetShuffle(shuffle)
	}

	// Device rebuilds ride the TrackChanged event rather than a pipeline
	// hook: the pipeline fires its switch notification on the real-time
	// thread with its mutex held, where reopening a device must never
	// happen. The subscription delivers the same transition on a plain
	// goroutine.
	device := newDeviceManager(cfg.Playback.BufferPeriod())
	device.setStreamer(audio)
	deviceSub := controller.Subscribe()
	go func() {
		for {
			select {
			case <-deviceSub.Done:
				return
			case <-deviceSub.TrackChanged:
				device.sync(pipe)
			}
		}
	}()

	notifier, err := notify.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "waveplay: desktop notifications unavailable:", err)
		notifier = nil
	}
	var sink *notify.PlaybackEventSink
	if notifier != nil {
		sink = notify.NewPlaybackEventSink(controller, notifier)
		defer sink.Close()
	}

	adapter, err := mpris.New(controller)
	if err != nil {
		fmt.Fprintln(os.Stderr, "waveplay:", errmsg.Format(errmsg.OpMPRISExport, err))
	} else {
		defer adapter.Close()
	}

	// Each consumer gets its own Subscription: Controller fans events out
	// to every subscriber independently, but two goroutines reading the
	// same Subscription's channels would race for each event instead of
	// each seeing every one.
	logSub := controller.Subscribe()
	go logEvents(logSub)

	exitSub := controller.Subscribe()

	if err := controller.Play(); err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpPlaybackStart, err))
	}
	device.sync(pipe)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			saveExitState(controller)
			return nil
		case <-exitSub.Done:
			saveExitState(controller)
			return nil
		case sc := <-exitSub.StateChanged:
			if sc.Current == playback.StateStopped && controller.QueueEmpty() {
				saveExitState(controller)
				return nil
			}
		}
	}
}

func saveExitState(c *playback.Controller) {
	s := config.State{
		Volume:     int(c.Volume()*100 + 0.5),
		RepeatMode: repeatModeString(c.RepeatMode()),
		Shuffle:    c.Shuffle(),
		LastRun:    time.Now(),
	}
	if err := config.SaveState(s); err != nil {
		fmt.Fprintln(os.Stderr, "waveplay:", errmsg.Format(errmsg.OpConfigSave, err))
	}
}

func repeatModeString(m playback.RepeatMode) string {
	switch m {
	case playback.RepeatTrack:
		return "track"
	case playback.RepeatList:
		return "list"
	default:
		return "off"
	}
}

// expandArgs turns CLI arguments into a flat list of audio file paths,
// expanding any .m3u argument into its entries in place.
func expandArgs(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		if strings.EqualFold(filepath.Ext(a), ".m3u") {
			entries, err := playliststore.Load(a)
			if err != nil {
				return nil, fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpPlaylistRestore, a, err))
			}
			for _, e := range entries {
				out = append(out, e.Path)
			}
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// relayCapturedStderr forwards whatever internal/stderr.Start captured
// from the C codec libraries to the original stderr, prefixed so it's
// distinguishable from this command's own status lines.
func relayCapturedStderr() {
	for line := range stderr.Messages {
		stderr.WriteOriginal("[codec] " + line + "\n")
	}
}

// logEvents prints track/state transitions to stderr so the core's
// behavior is observable without a UI attached.
func logEvents(sub *playback.Subscription) {
	w := bufio.NewWriter(os.Stderr)
	defer w.Flush()
	for {
		select {
		case <-sub.Done:
			return
		case tc := <-sub.TrackChanged:
			if tc.Current != nil {
				size := "unknown size"
				if info, err := os.Stat(tc.Current.Path); err == nil {
					size = errmsg.FormatSize(info.Size())
				}
				fmt.Fprintf(w, "now playing: %s (%s)\n", tc.Current.Path, size)
			}
			w.Flush()
		case sc := <-sub.StateChanged:
			fmt.Fprintf(w, "state: %s -> %s\n", sc.Previous, sc.Current)
			w.Flush()
		case ev := <-sub.Error:
			fmt.Fprintln(w, errmsg.FormatSkip(ev.Path, ev.Err))
			w.Flush()
		}
	}
}

// deviceManager owns the output device, reinitializing it whenever the
// active decoder's format changes (a non-gapless transition per
// Pipeline.RebuildIfIncompatible). Same-format transitions leave the
// device untouched so gapless chains stay gapless.
type deviceManager struct {
	bufferPeriod time.Duration
	initialized  bool
	format       decoder.Format
	audio        beep.Streamer
}

func newDeviceManager(bufferPeriod time.Duration) *deviceManager {
	return &deviceManager{bufferPeriod: bufferPeriod}
}

func (d *deviceManager) setStreamer(s beep.Streamer) {
	d.audio = s
}

func (d *deviceManager) sync(pipe *pipeline.Pipeline) {
	dec := pipe.Active()
	if dec == nil {
		return
	}
	format := dec.Format()
	if d.initialized && format == d.format {
		return
	}
	if d.initialized {
		speaker.Clear()
	}
	sr := beep.SampleRate(format.SampleRate)
	if err := speaker.Init(sr, sr.N(d.bufferPeriod)); err != nil {
		fmt.Fprintln(os.Stderr, "waveplay:", errmsg.Format(errmsg.OpDeviceInit, err))
		return
	}
	d.format = format
	d.initialized = true
	if d.audio != nil {
		speaker.Play(d.audio)
	}
}
