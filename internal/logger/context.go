package logger

// Component-specific logger functions

// Schema returns a logger for schema generation operations
func Schema() Logger {
	return WithField("component", "schema")
}

// Migration returns a logger for migration operations
func Migration() Logger {
	return WithField("component", "migration")
}

// Atlas returns a logger for Atlas inspection
func Atlas() Logger {
	return WithField("component", "atlas")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}

// DB returns a logger for database operations
func DB() Logger {
	return WithField("component", "db")
}

func Store() Logger {
	return WithField("component", "store")
}

func Reminder() Logger {
	return WithField("component", "reminder")
}
