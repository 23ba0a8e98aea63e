package domain

// Settings is the owner configuration record. Exactly one instance exists;
// it is replaced wholesale on update and persisted across restarts.
//
// The password is stored and compared verbatim. That mirrors the shop's
// existing single-credential setup and is not a general auth scheme.
type Settings struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

// DefaultSettings returns the built-in owner configuration used until the
// owner saves their own.
func DefaultSettings() Settings {
	return Settings{
		Email:    "jalkhjean@gmail.com",
		Password: "jalkhjean@?!123",
		Address:  "Rabieh, Lebanon",
	}
}
