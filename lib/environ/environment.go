package environ

import (
	"fmt"
	"os"
	"strings"
)

// Missing lists the variables of [envVars] that are unset or empty, in the order given.
func Missing(envVars ...string) []string {
	var missing []string
	for _, envVar := range envVars {
		if os.Getenv(envVar) == "" {
			missing = append(missing, envVar)
		}
	}
	return missing
}

// Require fails when any of [envVars] is missing, naming all of them at once so credentials can be fixed in one go.
func Require(envVars ...string) error {
	if missing := Missing(envVars...); len(missing) > 0 {
		return fmt.Errorf("required environment variables %q are not set", strings.Join(missing, ", "))
	}
	return nil
}

// GetOrDefault returns the value of [envVar], or [fallback] if it is not set.
func GetOrDefault(envVar, fallback string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}

	return fallback
}
