package parser

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// XMLTV instants are fixed-width local digits followed by an explicit offset.
const (
	xmltvLayout        = "20060102150405 -0700"
	xmltvLayoutNoSpace = "20060102150405-0700"
	xmltvLayoutBare    = "20060102150405"
)

var errInvalidInstant = errors.New("invalid instant")

// ParseXMLTVTime parses an XMLTV date such as "20250728120000 +0700".
// A missing offset is read as UTC.
func ParseXMLTVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(xmltvLayoutBare) {
		return time.Time{}, errInvalidInstant
	}

	for _, layout := range []string{xmltvLayout, xmltvLayoutNoSpace, xmltvLayoutBare} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errInvalidInstant
}

// parseInstant accepts RFC 3339, XMLTV dates, and unix epoch numbers.
// Epoch values above 1e12 are read as milliseconds.
func parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errInvalidInstant
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) < len(xmltvLayoutBare) {
		return fromEpoch(n), nil
	}
	return ParseXMLTVTime(s)
}

func fromEpoch(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
