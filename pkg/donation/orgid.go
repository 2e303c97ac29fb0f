package donation

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidOrgID is returned for organization ids that cannot be safely
// embedded in the outbound URL path.
var ErrInvalidOrgID = errors.New("invalid organization id")

// orgIDPattern is the accepted organization id alphabet. HCB slugs are
// lowercase words joined by dashes; upper case, digits and underscores are
// allowed for older ids.
var orgIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateOrgID rejects ids containing anything outside [A-Za-z0-9_-] or
// longer than 128 characters.
func ValidateOrgID(orgID string) error {
	if !orgIDPattern.MatchString(orgID) {
		return fmt.Errorf("%w: %q", ErrInvalidOrgID, orgID)
	}
	return nil
}
