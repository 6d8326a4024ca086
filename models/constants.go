package models

// Employee roles as issued by the login API
const (
	RoleBDE             = "bde"
	RoleTelecaller      = "telecaller"
	RoleDigitalMarketer = "digitalMarketer"
)

// LeadRoles may browse leads
var LeadRoles = []string{RoleBDE, RoleTelecaller, RoleDigitalMarketer}

// Auth providers selectable through AUTH_PROVIDER
const (
	AuthProviderLocal    = "local"
	AuthProviderFirebase = "firebase"
)
