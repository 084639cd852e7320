package env

import "os"

// Get reads an environment variable, treating empty as unset so a blank
// export in a deploy manifest still picks up the fallback.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
