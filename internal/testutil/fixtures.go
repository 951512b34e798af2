package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"dwhctl/internal/common"
)

// LogEvent is one line of the event log, in the source's field naming.
type LogEvent struct {
	Artist        *string  `json:"artist"`
	Auth          string   `json:"auth"`
	FirstName     string   `json:"firstName"`
	Gender        string   `json:"gender"`
	ItemInSession int      `json:"itemInSession"`
	LastName      string   `json:"lastName"`
	Length        *float64 `json:"length"`
	Level         string   `json:"level"`
	Location      string   `json:"location"`
	Method        string   `json:"method"`
	Page          string   `json:"page"`
	Registration  float64  `json:"registration"`
	SessionID     int      `json:"sessionId"`
	Song          *string  `json:"song"`
	Status        int      `json:"status"`
	TS            int64    `json:"ts"`
	UserAgent     string   `json:"userAgent"`
	// UserID is a string in the source logs and empty for logged-out events.
	UserID string `json:"userId"`
}

// SongRecord is one song file.
type SongRecord struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Duration        float64  `json:"duration"`
	Year            int      `json:"year"`
}

// Play builds a NextSong event.
func Play(userID int, level, artist, song string, at time.Time) LogEvent {
	length := 227.0
	return LogEvent{
		Artist:    &artist,
		Auth:      "Logged In",
		FirstName: "User",
		Gender:    "F",
		LastName:  strconv.Itoa(userID),
		Length:    &length,
		Level:     level,
		Location:  "San Jose-Sunnyvale-Santa Clara, CA",
		Method:    "PUT",
		Page:      "NextSong",
		SessionID: 100 + userID,
		Song:      &song,
		Status:    200,
		TS:        at.UnixMilli(),
		UserAgent: "Mozilla/5.0",
		UserID:    strconv.Itoa(userID),
	}
}

// PageView builds a non-play event such as Home or Logout.
func PageView(userID, page string, at time.Time) LogEvent {
	return LogEvent{
		Auth:      "Logged In",
		Level:     "free",
		Method:    "GET",
		Page:      page,
		Status:    200,
		TS:        at.UnixMilli(),
		UserAgent: "Mozilla/5.0",
		UserID:    userID,
	}
}

// Song builds a song record.
func Song(songID, title, artistID, artistName string, year int, duration float64) SongRecord {
	return SongRecord{
		NumSongs:   1,
		ArtistID:   artistID,
		ArtistName: artistName,
		SongID:     songID,
		Title:      title,
		Duration:   duration,
		Year:       year,
	}
}

// WriteLogFile writes events as newline-delimited JSON under dir.
func WriteLogFile(t *testing.T, dir, name string, events ...LogEvent) string {
	t.Helper()
	var data []byte
	for _, e := range events {
		line, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("marshal event: %v", err)
		}
		data = append(data, line...)
		data = append(data, '\n')
	}
	return writeFixture(t, dir, name, data)
}

// WriteSongFile writes one song per file, the way the song dataset is laid out.
func WriteSongFile(t *testing.T, dir, name string, song SongRecord) string {
	t.Helper()
	data, err := json.Marshal(song)
	if err != nil {
		t.Fatalf("marshal song: %v", err)
	}
	return writeFixture(t, dir, name, data)
}

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionSecure); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, data, common.FilePermissionSecure); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
