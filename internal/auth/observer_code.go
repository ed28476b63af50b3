package auth

import (
	"fmt"
	"strings"
)

// GenerateObserverCode builds a short submitter code from the institution
// letter and the user's initials, walking alternate letters of the names
// when the obvious code is taken.
func GenerateObserverCode(institutionCode, firstName, lastName string, existing map[string]struct{}) (string, error) {
	firstName = strings.ToLower(strings.TrimSpace(firstName))
	lastName = strings.ToLower(strings.TrimSpace(lastName))
	if firstName == "" || lastName == "" {
		return "", fmt.Errorf("observer code needs a first and last name")
	}

	code := institutionCode + firstName[:1] + lastName[:1]

	for counter := 1; taken(existing, code); counter++ {
		switch {
		case counter < len(firstName):
			code = institutionCode + string(firstName[counter]) + lastName[:1]
		case counter < len(lastName):
			code = institutionCode + firstName[:1] + string(lastName[counter])
		default:
			code = institutionCode + string(rune('a'+counter%26)) + lastName[:1]
		}

		if counter > len(firstName)+len(lastName)+26 {
			return "", fmt.Errorf("could not find a free observer code for %s %s", firstName, lastName)
		}
	}

	return code, nil
}

func taken(existing map[string]struct{}, code string) bool {
	_, ok := existing[code]
	return ok
}
