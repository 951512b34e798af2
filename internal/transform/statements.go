package transform

import (
	"dwhctl/internal/warehouse"
)

// Step names, in execution order.
const (
	StepSongplays = "songplays"
	StepUsers     = "users"
	StepSongs     = "songs"
	StepArtists   = "artists"
	StepTime      = "time"
)

// Plays are joined to songs on the free-text artist name and title, so
// events whose pair has no exact match never reach the fact table.
const songplayInsert = `INSERT INTO fact_songplay (
    start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
SELECT DISTINCT
    e.ts AS start_time,
    e.user_id,
    e.level,
    s.song_id,
    s.artist_id,
    e.session_id,
    e.location,
    e.user_agent
FROM staging_events e
INNER JOIN staging_songs s
    ON e.artist = s.artist_name
    AND e.song = s.title
WHERE e.page = 'NextSong'`

// A user keeps the attributes of their earliest play in the first batch they
// appear in; later level changes are not applied. Plays sharing a timestamp
// are ordered by level.
const userInsert = `INSERT INTO dim_user (user_id, first_name, last_name, gender, level)
SELECT user_id, first_name, last_name, gender, level
FROM (
    SELECT
        user_id,
        first_name,
        last_name,
        gender,
        level,
        ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY ts, level) AS rn
    FROM staging_events
    WHERE page = 'NextSong'
        AND user_id IS NOT NULL
) first_seen
WHERE rn = 1
    AND user_id NOT IN (SELECT DISTINCT user_id FROM dim_user)`

const songInsert = `INSERT INTO dim_song (song_id, title, artist_id, year, duration)
SELECT DISTINCT
    song_id,
    title,
    artist_id,
    year,
    duration
FROM staging_songs
WHERE song_id NOT IN (SELECT DISTINCT song_id FROM dim_song)`

const artistInsert = `INSERT INTO dim_artist (artist_id, name, location, latitude, longitude)
SELECT DISTINCT
    artist_id,
    artist_name AS name,
    artist_location AS location,
    artist_latitude AS latitude,
    artist_longitude AS longitude
FROM staging_songs
WHERE artist_id NOT IN (SELECT DISTINCT artist_id FROM dim_artist)`

// dim_time has no existence guard: every run adds one row per distinct
// staged timestamp, including timestamps already present.
const timeInsert = `INSERT INTO dim_time (start_time, hour, day, week, month, year, weekday)
SELECT DISTINCT
    ts AS start_time,
    EXTRACT(hour FROM ts) AS hour,
    EXTRACT(day FROM ts) AS day,
    EXTRACT(week FROM ts) AS week,
    EXTRACT(month FROM ts) AS month,
    EXTRACT(year FROM ts) AS year,
    CAST(EXTRACT(dow FROM ts) AS VARCHAR) AS weekday
FROM staging_events`

// Statements returns the five inserts in the order they must run. The SQL is
// the same for every engine.
func Statements() []warehouse.Statement {
	return []warehouse.Statement{
		{Name: StepSongplays, SQL: songplayInsert},
		{Name: StepUsers, SQL: userInsert},
		{Name: StepSongs, SQL: songInsert},
		{Name: StepArtists, SQL: artistInsert},
		{Name: StepTime, SQL: timeInsert},
	}
}
