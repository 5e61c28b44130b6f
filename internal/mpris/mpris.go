//go:build linux

// Package mpris exports the playback core over the MPRIS D-Bus
// interface so desktop shells, media keys and lock-screen widgets can
// see and control it.
package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/waveplay/core/internal/playback"
)

// Adapter connects a playback.Controller to MPRIS over D-Bus.
type Adapter struct {
	controller *playback.Controller
	server     *server.Server
	sub        *playback.Subscription
	done       chan struct{}
}

// New creates and starts a new MPRIS adapter.
func New(controller *playback.Controller) (*Adapter, error) {
	a := &Adapter{
		controller: controller,
		done:       make(chan struct{}),
	}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{controller: controller}

	a.server = server.NewServer("waveplay", rootAdapter, playerAdapter)
	a.sub = controller.Subscribe()

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error { return nil }
func (r *rootAdapter) Quit() error  { return nil }

func (r *rootAdapter) CanQuit() (bool, error)      { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error)     { return false, nil }
func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) { return "waveplay", nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/mp4", "audio/x-m4a"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the
// optional LoopStatus/Shuffle interfaces.
type playerAdapter struct {
	controller *playback.Controller
}

func (p *playerAdapter) Next() error      { return p.controller.Next() }
func (p *playerAdapter) Previous() error  { return p.controller.Previous() }
func (p *playerAdapter) Pause() error     { return p.controller.Pause() }
func (p *playerAdapter) PlayPause() error { return p.controller.Toggle() }
func (p *playerAdapter) Stop() error      { return p.controller.Stop() }

func (p *playerAdapter) Play() error {
	if p.controller.IsStopped() {
		return p.controller.Play()
	}
	return p.controller.Toggle()
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.controller.Seek(time.Duration(offset) * time.Microsecond)
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	return p.controller.SeekTo(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error { return nil }

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.controller.State() {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (p *playerAdapter) Rate() (float64, error)        { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error       { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	track := p.controller.CurrentTrack()
	if track == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(track.Path)),
		Length:      types.Microseconds(track.Duration.Microseconds()),
		Title:       track.Title,
		Artist:      []string{track.Artist},
		Album:       track.Album,
		TrackNumber: track.TrackNumber,
	}

	if artPath := FindAlbumArt(track.Path); artPath != "" {
		meta.ArtUrl = "file://" + artPath
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error)      { return p.controller.Volume(), nil }
func (p *playerAdapter) SetVolume(level float64) error { p.controller.SetVolume(level); return nil }

func (p *playerAdapter) Position() (int64, error) {
	return p.controller.Position().Microseconds(), nil
}

func (p *playerAdapter) CanGoNext() (bool, error)     { return p.controller.HasNext(), nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return p.controller.HasPrevious(), nil }
func (p *playerAdapter) CanPlay() (bool, error)       { return !p.controller.QueueEmpty(), nil }
func (p *playerAdapter) CanPause() (bool, error)      { return true, nil }
func (p *playerAdapter) CanSeek() (bool, error)       { return true, nil }
func (p *playerAdapter) CanControl() (bool, error)    { return true, nil }

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.controller.RepeatMode() {
	case playback.RepeatTrack:
		return types.LoopStatusTrack, nil
	case playback.RepeatList:
		return types.LoopStatusPlaylist, nil
	default:
		return types.LoopStatusNone, nil
	}
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.controller.SetRepeatMode(playback.RepeatOff)
	case types.LoopStatusTrack:
		p.controller.SetRepeatMode(playback.RepeatTrack)
	case types.LoopStatusPlaylist:
		p.controller.SetRepeatMode(playback.RepeatList)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) { return p.controller.Shuffle(), nil }

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.controller.SetShuffle(shuffle)
	return nil
}

func formatTrackID(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
