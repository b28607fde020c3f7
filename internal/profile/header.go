// Package profile identifies the browser profile a request acts for.
//
// A browser profile owns one local cart mirror and at most one remote cart
// session. Callers name it with the Storefront-Context structured header
// (RFC 8941 dictionary) or the profile cookie; a request with neither is
// assigned a fresh profile.
package profile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dunglas/httpsfv"
	"github.com/google/uuid"
)

const (
	// HeaderName carries the profile as profile="<id>".
	HeaderName = "Storefront-Context"

	// CookieName is the fallback carrier for browsers.
	CookieName = "storefront_profile"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrInvalidID is returned for profile IDs outside [A-Za-z0-9_-]{1,64}.
var ErrInvalidID = errors.New("invalid profile id")

// Validate checks that id is usable as a storage namespace.
func Validate(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// NewID mints a profile ID.
func NewID() string {
	return uuid.NewString()
}

// ParseHeader extracts the profile ID from a Storefront-Context header.
//
// Examples:
//   - profile="b2c1"             → b2c1
//   - profile="b2c1";tab=2, v=1  → b2c1 (params and other members ignored)
//
// Returns error if header is empty, malformed, missing the profile key, or
// carries an invalid ID.
func ParseHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("empty Storefront-Context header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return "", fmt.Errorf("invalid Storefront-Context header: %w", err)
	}

	member, ok := dict.Get("profile")
	if !ok {
		return "", errors.New("profile key not found in Storefront-Context header")
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", errors.New("profile value must be an item")
	}

	var id string
	switch v := item.Value.(type) {
	case string:
		id = v
	case httpsfv.Token:
		id = string(v)
	default:
		return "", errors.New("profile value must be a string or token")
	}

	if err := Validate(id); err != nil {
		return "", err
	}
	return id, nil
}

// FormatHeader renders a Storefront-Context header value for id.
func FormatHeader(id string) (string, error) {
	dict := httpsfv.NewDictionary()
	dict.Add("profile", httpsfv.NewItem(id))
	return httpsfv.Marshal(dict)
}
