package platform

import (
	"os"
	"os/user"

	"remodance/internal/core/model"
)

// CurrentIdentity resolves the local username and hostname used for
// default settings. Lookup failures leave the field empty; the settings
// defaults substitute a placeholder.
func CurrentIdentity() model.Identity {
	identity := model.Identity{}

	if current, err := user.Current(); err == nil {
		identity.Username = current.Username
	}
	if hostname, err := os.Hostname(); err == nil {
		identity.Hostname = hostname
	}

	return identity
}
