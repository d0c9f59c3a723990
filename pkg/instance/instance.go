package instance

import "os"

// GetID identifies the running api process in logs. Heroku style dyno names
// win over INSTANCE_ID.
func GetID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if id := os.Getenv("INSTANCE_ID"); id != "" {
		return id
	}
	return "local"
}
