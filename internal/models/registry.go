package models

// All returns one value of every persisted model in foreign-key order.
func All() []interface{} {
	return []interface{}{
		User{},
		Task{},
		Reminder{},
		Progress{},
		Exam{},
	}
}
