package schema

// Models returns all schema models in migration order
func Models() []interface{} {
	return []interface{}{
		&Game{},
		&Player{},
		&Token{},
		&StolenToken{},
		&Contract{},
		&Trait{},
		&KeyValueStore{},
	}
}
