// Package gravatar builds Gravatar avatar URLs used as fallback profile pictures.
package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/mealshare/mealshare/internal/config"
)

const baseURL = "https://www.gravatar.com/avatar/"

var (
	validDefaults = []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"}
	validRatings  = []string{"g", "pg", "r", "x"}
)

// GenerateURL returns the Gravatar URL of an email address.
// It returns an empty string if Gravatar is disabled or email is empty.
func GenerateURL(email string, cfg *config.GravatarConfig) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if cfg == nil || !cfg.Enabled || email == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(email))
	u := baseURL + hex.EncodeToString(hash[:])

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Add("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Add("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Add("s", strconv.Itoa(cfg.Size))
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// ProfileImage picks the profile picture for a new account: the uploaded URL if
// any, then the Gravatar of the email, then fallback.
func ProfileImage(uploaded, email string, cfg *config.GravatarConfig, fallback string) string {
	if uploaded = strings.TrimSpace(uploaded); uploaded != "" {
		return uploaded
	}
	if u := GenerateURL(email, cfg); u != "" {
		return u
	}
	return fallback
}

// Validate checks the Gravatar options. A disabled config is always valid.
func Validate(cfg *config.GravatarConfig) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	var errs []error
	if cfg.DefaultImage != "" && !IsValidDefaultImage(cfg.DefaultImage) {
		errs = append(errs, fmt.Errorf("invalid gravatar default image %q", cfg.DefaultImage))
	}
	if cfg.Rating != "" && !IsValidRating(cfg.Rating) {
		errs = append(errs, fmt.Errorf("invalid gravatar rating %q", cfg.Rating))
	}
	if cfg.Size != 0 && !IsValidSize(cfg.Size) {
		errs = append(errs, fmt.Errorf("gravatar size must be between 1 and 2048, got %d", cfg.Size))
	}
	return errors.Join(errs...)
}

func IsValidDefaultImage(defaultImage string) bool {
	return slices.Contains(validDefaults, defaultImage)
}

func IsValidRating(rating string) bool {
	return slices.Contains(validRatings, rating)
}

func IsValidSize(size int) bool {
	return size >= 1 && size <= 2048
}
