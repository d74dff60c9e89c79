package shoko

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EpisodeType classifies an AniDB episode
type EpisodeType int

const (
	EpisodeTypeUnknown     EpisodeType = 1
	EpisodeTypeNormal      EpisodeType = 2
	EpisodeTypeSpecial     EpisodeType = 3
	EpisodeTypeTrailer     EpisodeType = 4
	EpisodeTypeThemeSong   EpisodeType = 5
	EpisodeTypeOpeningSong EpisodeType = 6
	EpisodeTypeEndingSong  EpisodeType = 7
	EpisodeTypeParody      EpisodeType = 8
	EpisodeTypeInterview   EpisodeType = 9
	EpisodeTypeExtra       EpisodeType = 10

	// EpisodeTypeOther is a second name for EpisodeTypeUnknown, not a separate state.
	EpisodeTypeOther = EpisodeTypeUnknown
)

var episodeTypeNames = map[EpisodeType]string{
	EpisodeTypeUnknown:     "Unknown",
	EpisodeTypeNormal:      "Normal",
	EpisodeTypeSpecial:     "Special",
	EpisodeTypeTrailer:     "Trailer",
	EpisodeTypeThemeSong:   "ThemeSong",
	EpisodeTypeOpeningSong: "OpeningSong",
	EpisodeTypeEndingSong:  "EndingSong",
	EpisodeTypeParody:      "Parody",
	EpisodeTypeInterview:   "Interview",
	EpisodeTypeExtra:       "Extra",
}

// String returns the display name of the episode type
func (t EpisodeType) String() string {
	if name, ok := episodeTypeNames[t]; ok {
		return name
	}
	return "EpisodeType(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t is one of the known episode types
func (t EpisodeType) Valid() bool {
	_, ok := episodeTypeNames[t]
	return ok
}

// ParseEpisodeType parses a display name or numeric value into an EpisodeType.
// "Other" is accepted as an alias for "Unknown".
func ParseEpisodeType(s string) (EpisodeType, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		t := EpisodeType(n)
		if !t.Valid() {
			return 0, &ErrInvalidEnum{Enum: "EpisodeType", Value: s}
		}
		return t, nil
	}

	if strings.EqualFold(s, "Other") {
		return EpisodeTypeOther, nil
	}
	for t, name := range episodeTypeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return 0, &ErrInvalidEnum{Enum: "EpisodeType", Value: s}
}

// MarshalJSON implements json.Marshaler. The zero value is written as
// "Unknown".
func (t EpisodeType) MarshalJSON() ([]byte, error) {
	if t == 0 {
		t = EpisodeTypeUnknown
	}
	if !t.Valid() {
		return nil, &ErrInvalidEnum{Enum: "EpisodeType", Value: strconv.Itoa(int(t))}
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either the text or the numeric form
func (t *EpisodeType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	raw := string(data)
	if bytes.HasPrefix(data, []byte(`"`)) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	parsed, err := ParseEpisodeType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SeriesType is the AniDB series type. It is serialized as text.
type SeriesType string

const (
	SeriesTypeUnknown   SeriesType = "Unknown"
	SeriesTypeOther     SeriesType = "Other"
	SeriesTypeTV        SeriesType = "TV"
	SeriesTypeTVSpecial SeriesType = "TVSpecial"
	SeriesTypeWeb       SeriesType = "Web"
	SeriesTypeMovie     SeriesType = "Movie"
	SeriesTypeOVA       SeriesType = "OVA"
)

var seriesTypes = []SeriesType{
	SeriesTypeUnknown,
	SeriesTypeOther,
	SeriesTypeTV,
	SeriesTypeTVSpecial,
	SeriesTypeWeb,
	SeriesTypeMovie,
	SeriesTypeOVA,
}

// String returns the string representation of SeriesType
func (t SeriesType) String() string {
	return string(t)
}

// ParseSeriesType parses a string into a SeriesType
func ParseSeriesType(s string) (SeriesType, error) {
	for _, t := range seriesTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", &ErrInvalidEnum{Enum: "SeriesType", Value: s}
}

// MarshalJSON implements json.Marshaler. The zero value is written as
// "Unknown".
func (t SeriesType) MarshalJSON() ([]byte, error) {
	if t == "" {
		t = SeriesTypeUnknown
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON implements json.Unmarshaler. An empty string reads as
// SeriesTypeUnknown.
func (t *SeriesType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("series type must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*t = SeriesTypeUnknown
		return nil
	}

	parsed, err := ParseSeriesType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RelationType describes an edge in the AniDB relation graph. The set of values
// is owned by the provider and passed through untouched.
type RelationType string

// ErrInvalidEnum is returned when a value does not belong to a known enumeration
type ErrInvalidEnum struct {
	Enum  string
	Value string
}

func (e *ErrInvalidEnum) Error() string {
	return "invalid " + e.Enum + ": " + e.Value
}
