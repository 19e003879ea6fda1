package repo

import "database/sql"

// Store groups the credential repositories used by the auth core.
type Store struct {
	Users    UserRepo
	Otps     OtpRepo
	Sessions SessionRepo
}

// NewPostgresStore wires the Postgres-backed repositories onto db.
func NewPostgresStore(db *sql.DB) Store {
	return Store{
		Users:    NewUserRepo(db),
		Otps:     NewOtpRepo(db),
		Sessions: NewSessionRepo(db),
	}
}

// NewMemoryStore returns repositories sharing a single in-process dataset.
func NewMemoryStore() Store {
	m := NewMemory()
	return Store{
		Users:    m.Users(),
		Otps:     m.Otps(),
		Sessions: m.Sessions(),
	}
}
