package service

import (
	"fmt"
	"regexp"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/errors"
)

const maxUsernameLength = 39

// * alphanumerics separated by single hyphens, matched after lowercasing
var usernamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// * ValidateUsername normalizes raw input and checks it against GitHub's login grammar
func ValidateUsername(raw string) (string, error) {
	username := models.NormalizeUsername(raw)

	if username == "" {
		return "", errors.Classified(errors.KindEmptyInput, "Username is required", "No GitHub username was provided", nil)
	}

	if len(username) > maxUsernameLength || !usernamePattern.MatchString(username) {
		return "", errors.Classified(
			errors.KindInvalidFormat,
			"Invalid GitHub username",
			fmt.Sprintf("%q is not a valid GitHub login", username),
			nil,
		)
	}

	return username, nil
}
