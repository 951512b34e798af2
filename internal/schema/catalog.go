package schema

// Table names.
const (
	StagingEvents = "staging_events"
	StagingSongs  = "staging_songs"
	FactSongplay  = "fact_songplay"
	DimUser       = "dim_user"
	DimSong       = "dim_song"
	DimArtist     = "dim_artist"
	DimTime       = "dim_time"
)

// Tables returns the catalog in creation order. staging_events columns follow
// the order of the JSONPaths file because COPY maps them by position.
func Tables() []Table {
	return []Table{
		{
			Name: StagingEvents,
			Role: RoleStaging,
			Columns: []Column{
				{Name: "artist", Type: TypeVarchar},
				{Name: "auth", Type: TypeVarchar},
				{Name: "first_name", Type: TypeVarchar},
				{Name: "gender", Type: TypeVarchar},
				{Name: "item_in_session", Type: TypeInt},
				{Name: "last_name", Type: TypeVarchar},
				{Name: "length", Type: TypeFloat},
				{Name: "level", Type: TypeVarchar},
				{Name: "location", Type: TypeVarchar},
				{Name: "method", Type: TypeVarchar},
				{Name: "page", Type: TypeVarchar},
				{Name: "registration", Type: TypeFloat},
				{Name: "session_id", Type: TypeInt},
				{Name: "song", Type: TypeVarchar},
				{Name: "status", Type: TypeInt},
				{Name: "ts", Type: TypeTimestamp},
				{Name: "user_agent", Type: TypeVarchar},
				{Name: "user_id", Type: TypeInt},
			},
		},
		{
			Name: StagingSongs,
			Role: RoleStaging,
			Columns: []Column{
				{Name: "num_songs", Type: TypeInt},
				{Name: "artist_id", Type: TypeVarchar},
				{Name: "artist_latitude", Type: TypeFloat},
				{Name: "artist_longitude", Type: TypeFloat},
				{Name: "artist_location", Type: TypeVarchar},
				{Name: "artist_name", Type: TypeVarchar},
				{Name: "song_id", Type: TypeVarchar},
				{Name: "title", Type: TypeVarchar},
				{Name: "duration", Type: TypeFloat},
				{Name: "year", Type: TypeInt},
			},
		},
		{
			Name: FactSongplay,
			Role: RoleFact,
			Columns: []Column{
				{Name: "songplay_id", Type: TypeInt, Identity: true, PrimaryKey: true},
				{Name: "start_time", Type: TypeTimestamp, SortKey: true},
				{Name: "user_id", Type: TypeInt, NotNull: true},
				{Name: "level", Type: TypeVarchar},
				{Name: "song_id", Type: TypeVarchar, NotNull: true, DistKey: true},
				{Name: "artist_id", Type: TypeVarchar, NotNull: true},
				{Name: "session_id", Type: TypeInt, NotNull: true},
				{Name: "location", Type: TypeVarchar},
				{Name: "user_agent", Type: TypeVarchar},
			},
			DistStyle: DistKey,
		},
		{
			Name: DimUser,
			Role: RoleDimension,
			Columns: []Column{
				{Name: "user_id", Type: TypeInt, PrimaryKey: true},
				{Name: "first_name", Type: TypeVarchar},
				{Name: "last_name", Type: TypeVarchar},
				{Name: "gender", Type: TypeVarchar},
				{Name: "level", Type: TypeVarchar},
			},
			DistStyle: DistAll,
		},
		{
			Name: DimSong,
			Role: RoleDimension,
			Columns: []Column{
				{Name: "song_id", Type: TypeVarchar, PrimaryKey: true, SortKey: true, DistKey: true},
				{Name: "title", Type: TypeVarchar},
				{Name: "artist_id", Type: TypeVarchar, NotNull: true},
				{Name: "year", Type: TypeInt},
				{Name: "duration", Type: TypeFloat},
			},
			DistStyle: DistKey,
		},
		{
			Name: DimArtist,
			Role: RoleDimension,
			Columns: []Column{
				{Name: "artist_id", Type: TypeVarchar, PrimaryKey: true, SortKey: true},
				{Name: "name", Type: TypeVarchar},
				{Name: "location", Type: TypeVarchar},
				{Name: "latitude", Type: TypeFloat},
				{Name: "longitude", Type: TypeFloat},
			},
			DistStyle: DistAll,
		},
		{
			Name: DimTime,
			Role: RoleDimension,
			Columns: []Column{
				{Name: "start_time", Type: TypeTimestamp, PrimaryKey: true, SortKey: true},
				{Name: "hour", Type: TypeInt},
				{Name: "day", Type: TypeInt},
				{Name: "week", Type: TypeInt},
				{Name: "month", Type: TypeInt},
				{Name: "year", Type: TypeInt},
				{Name: "weekday", Type: TypeVarchar},
			},
			DistStyle: DistAll,
		},
	}
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// TablesByRole filters the catalog, keeping creation order.
func TablesByRole(role Role) []Table {
	var out []Table
	for _, t := range Tables() {
		if t.Role == role {
			out = append(out, t)
		}
	}
	return out
}
