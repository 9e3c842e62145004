package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mehnda-chinji/internal/domain"
)

// ErrMalformedLoginPayload is returned when a login response carries no
// usable profile or token. The session is left unchanged.
var ErrMalformedLoginPayload = errors.New("malformed login payload")

// ResolveLogin extracts the session from a login or signup response.
//
// The backend answers {"success":..,"data":{"userData":{..},"token":".."}}.
// Two older shapes are still accepted: the same object without the "data"
// wrapper, and a flat profile carrying "id" and "token" (at the top level or
// under "data"), in which case the whole object is the profile.
func ResolveLogin(payload []byte) (domain.Session, error) {
	var top map[string]any
	if err := json.Unmarshal(payload, &top); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrMalformedLoginPayload, err)
	}
	if top == nil {
		return domain.Session{}, fmt.Errorf("%w: empty body", ErrMalformedLoginPayload)
	}

	source := top
	if data, ok := top["data"].(map[string]any); ok {
		source = data
	}

	var profile domain.Profile
	if userData, ok := source["userData"].(map[string]any); ok {
		profile = domain.Profile(userData)
	} else if domain.Profile(source).ID() != "" {
		profile = domain.Profile(source).Clone()
	}
	if profile == nil {
		return domain.Session{}, fmt.Errorf("%w: user profile not found", ErrMalformedLoginPayload)
	}

	token := stringField(source, "token")
	if token == "" {
		token = stringField(top, "token")
	}
	if token == "" {
		return domain.Session{}, fmt.Errorf("%w: token not found", ErrMalformedLoginPayload)
	}

	return domain.Session{Token: token, Profile: profile}, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
