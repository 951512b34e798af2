package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"dwhctl/internal/config"
	"dwhctl/internal/schema"
	"dwhctl/internal/warehouse"
	"dwhctl/pkg/models"
)

// Sources are the S3 inputs for the Redshift COPY statements.
type Sources struct {
	LogData     string
	SongData    string
	LogJSONPath string
	IAMRoleARN  string
	Region      string
}

// LocalSources are directories of JSON files for the embedded engine.
type LocalSources struct {
	LogDir  string
	SongDir string
}

// SourcesFromModel reads the [S3], [IAM_ROLE] and [AWS] sections.
func SourcesFromModel(cfg *models.Config) Sources {
	return Sources{
		LogData:     cfg.S3.LogData,
		SongData:    cfg.S3.SongData,
		LogJSONPath: cfg.S3.LogJSONPath,
		IAMRoleARN:  cfg.IAMRole.ARN,
		Region:      cfg.AWS.Region,
	}
}

// LocalSourcesFromModel reads the [LOCAL] section.
func LocalSourcesFromModel(cfg *models.Config) LocalSources {
	return LocalSources{LogDir: cfg.Local.LogDataDir, SongDir: cfg.Local.SongDataDir}
}

// CopyStatements renders one COPY per staging table. Events use the JSONPaths
// file and epoch-millisecond timestamps; songs map fields by name.
func CopyStatements(src Sources) []warehouse.Statement {
	common := fmt.Sprintf("IAM_ROLE %s\nREGION %s\nCOMPUPDATE OFF STATUPDATE OFF",
		literal(src.IAMRoleARN), literal(src.Region))

	return []warehouse.Statement{
		{
			Name: "copy " + schema.StagingEvents,
			SQL: fmt.Sprintf("COPY %s\nFROM %s\n%s\nFORMAT AS JSON %s\nTIMEFORMAT AS 'epochmillisecs'",
				schema.StagingEvents, literal(src.LogData), common, literal(src.LogJSONPath)),
		},
		{
			Name: "copy " + schema.StagingSongs,
			SQL: fmt.Sprintf("COPY %s\nFROM %s\n%s\nFORMAT AS JSON 'auto'",
				schema.StagingSongs, literal(src.SongData), common),
		},
	}
}

// eventFields maps staging_events columns to log fields, in column order.
var eventFields = []struct {
	column, field, typ, expr string
}{
	{"artist", "artist", "VARCHAR", ""},
	{"auth", "auth", "VARCHAR", ""},
	{"first_name", "firstName", "VARCHAR", ""},
	{"gender", "gender", "VARCHAR", ""},
	{"item_in_session", "itemInSession", "INTEGER", ""},
	{"last_name", "lastName", "VARCHAR", ""},
	{"length", "length", "DOUBLE", ""},
	{"level", "level", "VARCHAR", ""},
	{"location", "location", "VARCHAR", ""},
	{"method", "method", "VARCHAR", ""},
	{"page", "page", "VARCHAR", ""},
	{"registration", "registration", "DOUBLE", ""},
	{"session_id", "sessionId", "INTEGER", ""},
	{"song", "song", "VARCHAR", ""},
	{"status", "status", "INTEGER", ""},
	{"ts", "ts", "BIGINT", "epoch_ms(ts)"},
	{"user_agent", "userAgent", "VARCHAR", ""},
	// logged-out events carry an empty user id
	{"user_id", "userId", "VARCHAR", "TRY_CAST(NULLIF(userId, '') AS INTEGER)"},
}

var songFields = []struct {
	column, typ string
}{
	{"num_songs", "INTEGER"},
	{"artist_id", "VARCHAR"},
	{"artist_latitude", "DOUBLE"},
	{"artist_longitude", "DOUBLE"},
	{"artist_location", "VARCHAR"},
	{"artist_name", "VARCHAR"},
	{"song_id", "VARCHAR"},
	{"title", "VARCHAR"},
	{"duration", "DOUBLE"},
	{"year", "INTEGER"},
}

// LocalStatements renders the DuckDB equivalent of the COPY statements:
// every *.json file below each directory is read with an explicit schema.
func LocalStatements(src LocalSources) []warehouse.Statement {
	var cols, exprs, spec []string
	for _, f := range eventFields {
		cols = append(cols, f.column)
		expr := f.field
		if f.expr != "" {
			expr = f.expr
		}
		exprs = append(exprs, expr)
		spec = append(spec, fmt.Sprintf("'%s': '%s'", f.field, f.typ))
	}
	events := fmt.Sprintf("INSERT INTO %s (%s)\nSELECT %s\nFROM read_json(%s, format = 'newline_delimited', columns = {%s})",
		schema.StagingEvents, strings.Join(cols, ", "), strings.Join(exprs, ", "),
		literal(jsonGlob(src.LogDir)), strings.Join(spec, ", "))

	cols, spec = nil, nil
	for _, f := range songFields {
		cols = append(cols, f.column)
		spec = append(spec, fmt.Sprintf("'%s': '%s'", f.column, f.typ))
	}
	songs := fmt.Sprintf("INSERT INTO %s (%s)\nSELECT %s\nFROM read_json(%s, format = 'auto', columns = {%s})",
		schema.StagingSongs, strings.Join(cols, ", "), strings.Join(cols, ", "),
		literal(jsonGlob(src.SongDir)), strings.Join(spec, ", "))

	return []warehouse.Statement{
		{Name: "load " + schema.StagingEvents, SQL: events},
		{Name: "load " + schema.StagingSongs, SQL: songs},
	}
}

func jsonGlob(dir string) string {
	return filepath.ToSlash(filepath.Join(dir, "**", "*.json"))
}

// literal renders a SQL string literal. Values written with surrounding quotes
// by older configuration files are unquoted first.
func literal(s string) string {
	return "'" + strings.ReplaceAll(config.Unquote(s), "'", "''") + "'"
}
