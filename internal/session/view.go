package session

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tile is one remote participant as rendered.
type Tile struct {
	SessionID string
	UserID    string
	Name      string
	// Initial is shown when the tile has no media.
	Initial     string
	Video       TrackHandle
	Audio       TrackHandle
	IsScreen    bool
	Speaking    bool
	Admin       bool
	Moderatable bool
}

// View is everything the meeting surface shows.
type View struct {
	LocalVideo TrackHandle
	Stage      TrackHandle
	Tiles      []Tile
}

type Viewer struct {
	IsHost bool
}

// Surface receives rendered views. A nil Surface means nothing is mounted.
type Surface interface {
	AttachLocalVideo(track TrackHandle)
	AttachStage(track TrackHandle)
	RenderTiles(tiles []Tile)
}

// ComputeView derives the whole view from one transport snapshot. It keeps
// no state, so any order of events that ends in the same snapshot renders
// the same view.
func ComputeView(snap Snapshot, activeSpeaker string, viewer Viewer) View {
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var view View
	var localScreen TrackHandle
	for _, id := range ids {
		p := snap[id]
		if p.Local {
			view.LocalVideo = p.Tracks.camera()
			localScreen = p.Tracks.screen()
			continue
		}
		if view.Stage == nil {
			view.Stage = p.Tracks.screen()
		}
		view.Tiles = append(view.Tiles, tileFor(p, activeSpeaker, viewer))
	}
	if view.Stage == nil {
		view.Stage = localScreen
	}
	return view
}

func tileFor(p Participant, activeSpeaker string, viewer Viewer) Tile {
	video, isScreen := chooseVideo(p.Tracks)
	name := p.DisplayName()
	t := Tile{
		SessionID:   p.SessionID,
		UserID:      p.UserID,
		Name:        name,
		Video:       video,
		Audio:       chooseAudio(p.Tracks, isScreen),
		IsScreen:    isScreen,
		Speaking:    activeSpeaker != "" && p.SessionID == activeSpeaker,
		Admin:       p.Owner,
		Moderatable: viewer.IsHost && !p.Owner,
	}
	if t.Video == nil && t.Audio == nil {
		t.Initial = initial(name)
	}
	return t
}

func chooseVideo(t Tracks) (TrackHandle, bool) {
	if v := t.screen(); v != nil {
		return v, true
	}
	return t.camera(), false
}

func chooseAudio(t Tracks, isScreen bool) TrackHandle {
	screen, mic := t.screenAudio(), t.mic()
	if isScreen {
		if screen != nil {
			return screen
		}
		return mic
	}
	if mic != nil {
		return mic
	}
	return screen
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
