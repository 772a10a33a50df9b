// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package env reads typed settings from environment variables.
//
// Every accessor follows the same contract: an unset variable yields the
// default unless it is required; a variable that is set but cannot be parsed
// is an error when required and falls back to the default otherwise.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetAsString retrieves an environment variable as a string.
func GetAsString(key string, required bool, defaultValue string) (string, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		if required {
			return "", fmt.Errorf("required environment variable %s is not set", key)
		}

		return defaultValue, nil
	}

	return value, nil
}

// lookup applies parse to the variable, honouring the required/default contract.
func lookup[T any](key string, required bool, defaultValue T, kind string, parse func(string) (T, error)) (T, error) {
	raw, err := GetAsString(key, required, "")
	if err != nil {
		return defaultValue, err
	}

	if raw == "" {
		return defaultValue, nil
	}

	value, err := parse(raw)
	if err != nil {
		if required {
			return defaultValue, fmt.Errorf("environment variable %s must be %s: %w", key, kind, err)
		}

		return defaultValue, nil
	}

	return value, nil
}

// GetAsInt retrieves an environment variable as an integer.
func GetAsInt(key string, required bool, defaultValue int) (int, error) {
	return lookup(key, required, defaultValue, "an integer", strconv.Atoi)
}

// GetAsFloat retrieves an environment variable as a float64.
func GetAsFloat(key string, required bool, defaultValue float64) (float64, error) {
	return lookup(key, required, defaultValue, "a number", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetAsBool retrieves an environment variable as a boolean.
// Accepts true/false, 1/0, yes/no, y/n and on/off in any case.
func GetAsBool(key string, required bool, defaultValue bool) (bool, error) {
	return lookup(key, required, defaultValue, "a boolean value", func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes", "y", "on":
			return true, nil
		case "false", "0", "no", "n", "off":
			return false, nil
		default:
			return false, fmt.Errorf("unrecognised boolean %q", s)
		}
	})
}

// GetAsMilliseconds retrieves an environment variable holding a number of milliseconds.
func GetAsMilliseconds(key string, required bool, defaultValue time.Duration) (time.Duration, error) {
	return lookup(key, required, defaultValue, "a number of milliseconds", func(s string) (time.Duration, error) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}

		if ms < 0 {
			return 0, fmt.Errorf("negative duration %d", ms)
		}

		return time.Duration(ms) * time.Millisecond, nil
	})
}

// GetAsMinutes retrieves an environment variable holding a number of minutes.
func GetAsMinutes(key string, required bool, defaultValue time.Duration) (time.Duration, error) {
	return lookup(key, required, defaultValue, "a number of minutes", func(s string) (time.Duration, error) {
		minutes, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}

		return time.Duration(minutes) * time.Minute, nil
	})
}
