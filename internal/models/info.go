package models

// InfoField is a known wedding info key
type InfoField string

const (
	InfoGroomName         InfoField = "groomName"
	InfoBrideName         InfoField = "brideName"
	InfoGroomFather       InfoField = "groomFather"
	InfoBrideFather       InfoField = "brideFather"
	InfoGroomMother       InfoField = "groomMother"
	InfoBrideMother       InfoField = "brideMother"
	InfoWeddingDate       InfoField = "weddingDate"
	InfoWeddingTime       InfoField = "weddingTime"
	InfoWeddingLocation   InfoField = "weddingLocation"
	InfoLatitude          InfoField = "latitude"
	InfoLongitude         InfoField = "longitude"
	InfoInvitationMessage InfoField = "invitationMessage"
)

// InfoFields lists the known keys in display order
var InfoFields = []InfoField{
	InfoGroomName,
	InfoBrideName,
	InfoGroomFather,
	InfoBrideFather,
	InfoGroomMother,
	InfoBrideMother,
	InfoWeddingDate,
	InfoWeddingTime,
	InfoWeddingLocation,
	InfoLatitude,
	InfoLongitude,
	InfoInvitationMessage,
}

// IsKnown reports whether f is one of InfoFields.
func (f InfoField) IsKnown() bool {
	for _, known := range InfoFields {
		if known == f {
			return true
		}
	}
	return false
}

// WeddingInfo holds the event metadata. Keys outside InfoFields land in Extra.
type WeddingInfo struct {
	GroomName         string            `json:"groomName"`
	BrideName         string            `json:"brideName"`
	GroomFather       string            `json:"groomFather"`
	BrideFather       string            `json:"brideFather"`
	GroomMother       string            `json:"groomMother"`
	BrideMother       string            `json:"brideMother"`
	WeddingDate       string            `json:"weddingDate"`
	WeddingTime       string            `json:"weddingTime"`
	WeddingLocation   string            `json:"weddingLocation"`
	Latitude          string            `json:"latitude"`
	Longitude         string            `json:"longitude"`
	InvitationMessage string            `json:"invitationMessage"`
	Extra             map[string]string `json:"extra,omitempty"`
}

func (w *WeddingInfo) field(f InfoField) *string {
	switch f {
	case InfoGroomName:
		return &w.GroomName
	case InfoBrideName:
		return &w.BrideName
	case InfoGroomFather:
		return &w.GroomFather
	case InfoBrideFather:
		return &w.BrideFather
	case InfoGroomMother:
		return &w.GroomMother
	case InfoBrideMother:
		return &w.BrideMother
	case InfoWeddingDate:
		return &w.WeddingDate
	case InfoWeddingTime:
		return &w.WeddingTime
	case InfoWeddingLocation:
		return &w.WeddingLocation
	case InfoLatitude:
		return &w.Latitude
	case InfoLongitude:
		return &w.Longitude
	case InfoInvitationMessage:
		return &w.InvitationMessage
	}
	return nil
}

// Get returns the value stored under key, known or extra.
func (w WeddingInfo) Get(key string) string {
	if p := w.field(InfoField(key)); p != nil {
		return *p
	}
	return w.Extra[key]
}

// Set stores value under key, routing unknown keys into Extra.
func (w *WeddingInfo) Set(key, value string) {
	if p := w.field(InfoField(key)); p != nil {
		*p = value
		return
	}
	if w.Extra == nil {
		w.Extra = make(map[string]string)
	}
	w.Extra[key] = value
}

// Map flattens the info into key/value pairs, known fields always present.
func (w WeddingInfo) Map() map[string]string {
	m := make(map[string]string, len(InfoFields)+len(w.Extra))
	for k, v := range w.Extra {
		m[k] = v
	}
	for _, f := range InfoFields {
		m[string(f)] = w.Get(string(f))
	}
	return m
}

// WeddingInfoFromMap builds a WeddingInfo from stored key/value pairs.
func WeddingInfoFromMap(m map[string]string) WeddingInfo {
	var w WeddingInfo
	for k, v := range m {
		w.Set(k, v)
	}
	return w
}

// Snapshot is the read-only view handed to exporters
type Snapshot struct {
	Guests      []Guest     `json:"guests"`
	Totals      Totals      `json:"totals"`
	WeddingInfo WeddingInfo `json:"wedding_info"`
}
