package pkg

// Info classifies an emitted package.
type Info string

const (
	InfoInstalled Info = "installed"
	InfoAvailable Info = "available"
	InfoNormal    Info = "normal"
	InfoSecurity  Info = "security"
	InfoImportant Info = "important"
)

// InfoFor returns the listing classification of an identity.
func InfoFor(id Identity) Info {
	if id.IsInstalled() {
		return InfoInstalled
	}
	return InfoAvailable
}
