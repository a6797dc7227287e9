package nowplaying

import spotifyapi "github.com/zmb3/spotify"

// View is the widget-facing payload. Every field is always serialised; data
// the provider did not send becomes the empty string.
type View struct {
	IsPlaying bool   `json:"isPlaying"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	AlbumArt  string `json:"albumArt"`
}

// NewView creates a View from the provider's playback state.
func NewView(data *spotifyapi.CurrentlyPlaying) View {
	if data == nil {
		return View{}
	}

	view := View{IsPlaying: data.Playing}
	track := data.Item
	if track == nil {
		return view
	}

	view.Title = track.Name
	if len(track.Artists) > 0 {
		view.Artist = track.Artists[0].Name
	}
	view.Album = track.Album.Name
	if len(track.Album.Images) > 0 {
		view.AlbumArt = track.Album.Images[0].URL
	}
	return view
}
