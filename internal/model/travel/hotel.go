package travel

// HotelQuery is an availability search for one destination code over a
// stay window.
type HotelQuery struct {
	DestinationCode string     `json:"destinationCode"`
	CheckIn         string     `json:"checkIn"`
	CheckOut        string     `json:"checkOut"`
	Rooms           []RoomStay `json:"rooms,omitempty"`
	Limit           int        `json:"limit"`
	MinRate         float64    `json:"minRate,omitempty"`
	MaxRate         float64    `json:"maxRate,omitempty"`
}

// RoomStay describes the occupancy of one room.
type RoomStay struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

// HotelRate carries the opaque rate key needed to book a room.
type HotelRate struct {
	RateKey  string `json:"rateKey"`
	Net      string `json:"net,omitempty"`
	RateType string `json:"rateType,omitempty"`
}

// HotelRoom is one bookable room of an availability result.
type HotelRoom struct {
	Code  string      `json:"code,omitempty"`
	Name  string      `json:"name,omitempty"`
	Rates []HotelRate `json:"rates,omitempty"`
}

// HotelOffer is a condensed availability result.
type HotelOffer struct {
	Code        int         `json:"code"`
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	Currency    string      `json:"currency,omitempty"`
	MinRate     string      `json:"minRate,omitempty"`
	MaxRate     string      `json:"maxRate,omitempty"`
	Destination string      `json:"destination,omitempty"`
	Zone        string      `json:"zone,omitempty"`
	Address     string      `json:"address,omitempty"`
	Latitude    float64     `json:"latitude,omitempty"`
	Longitude   float64     `json:"longitude,omitempty"`
	Facilities  []string    `json:"facilities,omitempty"`
	Rooms       []HotelRoom `json:"rooms,omitempty"`
}

// Holder is the booking holder.
type Holder struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// Pax is one occupant of a booked room.
type Pax struct {
	RoomID  int    `json:"roomId"`
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
	Age     int    `json:"age,omitempty"`
}

// BookedRoom ties a rate key to its occupants.
type BookedRoom struct {
	RateKey string `json:"rateKey"`
	Paxes   []Pax  `json:"paxes"`
}

// HotelBookingRequest creates a booking from availability rate keys.
type HotelBookingRequest struct {
	Holder          Holder       `json:"holder"`
	Rooms           []BookedRoom `json:"rooms"`
	ClientReference string       `json:"clientReference"`
	Remark          string       `json:"remark,omitempty"`
}

// HotelBooking is a creation, retrieval or cancellation result.
type HotelBooking struct {
	Reference             string `json:"reference"`
	Status                string `json:"status"`
	HotelName             string `json:"hotelName,omitempty"`
	CreationDate          string `json:"creationDate,omitempty"`
	TotalNet              string `json:"totalNet,omitempty"`
	Currency              string `json:"currency,omitempty"`
	CancellationReference string `json:"cancellationReference,omitempty"`
}
