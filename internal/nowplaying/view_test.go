package nowplaying

import (
	"encoding/json"
	"testing"

	spotifyapi "github.com/zmb3/spotify"
)

func track(name string, artists []string, album string, images []string) *spotifyapi.FullTrack {
	t := &spotifyapi.FullTrack{}
	t.Name = name
	for _, a := range artists {
		t.Artists = append(t.Artists, spotifyapi.SimpleArtist{Name: a})
	}
	t.Album.Name = album
	for _, u := range images {
		t.Album.Images = append(t.Album.Images, spotifyapi.Image{URL: u})
	}
	return t
}

func TestNewView(t *testing.T) {
	tests := []struct {
		name string
		data *spotifyapi.CurrentlyPlaying
		want View
	}{
		{
			name: "nil state",
			data: nil,
			want: View{},
		},
		{
			name: "nothing playing",
			data: &spotifyapi.CurrentlyPlaying{Playing: false},
			want: View{},
		},
		{
			name: "playing without item",
			data: &spotifyapi.CurrentlyPlaying{Playing: true},
			want: View{IsPlaying: true},
		},
		{
			name: "full track",
			data: &spotifyapi.CurrentlyPlaying{
				Playing: true,
				Item:    track("Song", []string{"Artist", "Featured"}, "Album", []string{"http://img/640", "http://img/300"}),
			},
			want: View{IsPlaying: true, Title: "Song", Artist: "Artist", Album: "Album", AlbumArt: "http://img/640"},
		},
		{
			name: "no artists",
			data: &spotifyapi.CurrentlyPlaying{
				Playing: true,
				Item:    track("Song", nil, "Album", []string{"http://img"}),
			},
			want: View{IsPlaying: true, Title: "Song", Album: "Album", AlbumArt: "http://img"},
		},
		{
			name: "no album images",
			data: &spotifyapi.CurrentlyPlaying{
				Playing: true,
				Item:    track("Song", []string{"Artist"}, "Album", nil),
			},
			want: View{IsPlaying: true, Title: "Song", Artist: "Artist", Album: "Album"},
		},
		{
			name: "paused track keeps metadata",
			data: &spotifyapi.CurrentlyPlaying{
				Playing: false,
				Item:    track("Song", []string{"Artist"}, "Album", []string{"http://img"}),
			},
			want: View{Title: "Song", Artist: "Artist", Album: "Album", AlbumArt: "http://img"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewView(tt.data)
			if got != tt.want {
				t.Errorf("NewView() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestViewAlwaysSerializesAllFields(t *testing.T) {
	data, err := json.Marshal(View{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"isPlaying":false,"title":"","artist":"","album":"","albumArt":""}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
