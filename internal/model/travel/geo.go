package travel

// Place is a forward or reverse geocoding result.
type Place struct {
	Lat         float64           `json:"lat"`
	Lon         float64           `json:"lon"`
	DisplayName string            `json:"displayName"`
	Type        string            `json:"type,omitempty"`
	Importance  float64           `json:"importance,omitempty"`
	Address     map[string]string `json:"address,omitempty"`
}

// POI is an OpenStreetMap point of interest around a coordinate.
type POI struct {
	ID      int64             `json:"id"`
	OSMType string            `json:"osmType"`
	Lat     float64           `json:"lat"`
	Lon     float64           `json:"lon"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// NearbyQuery searches places around a coordinate.
type NearbyQuery struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	RadiusM   int     `json:"radiusM"`
	Keyword   string  `json:"keyword,omitempty"`
	Type      string  `json:"type,omitempty"`
	OpenNow   bool    `json:"openNow,omitempty"`
	MinRating float64 `json:"minRating,omitempty"`
}

// POIQuery bounds an OSM tag search around a coordinate.
type POIQuery struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	RadiusM int     `json:"radiusM"`
	Key     string  `json:"key"`
	Value   string  `json:"value"`
	Limit   int     `json:"limit"`
}

// NearbyPlace is a Google Places result.
type NearbyPlace struct {
	PlaceID          string   `json:"placeId"`
	Name             string   `json:"name"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"userRatingsTotal,omitempty"`
	Address          string   `json:"address,omitempty"`
	Lat              float64  `json:"lat,omitempty"`
	Lng              float64  `json:"lng,omitempty"`
	Types            []string `json:"types,omitempty"`
	OpenNow          bool     `json:"openNow,omitempty"`
}

// RouteLeg summarizes one leg of a directions result.
type RouteLeg struct {
	Distance     string `json:"distance"`
	Duration     string `json:"duration"`
	StartAddress string `json:"startAddress,omitempty"`
	EndAddress   string `json:"endAddress,omitempty"`
}

// Route is a summarized directions result.
type Route struct {
	Summary string     `json:"summary,omitempty"`
	Legs    []RouteLeg `json:"legs"`
}
