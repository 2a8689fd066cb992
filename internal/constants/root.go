package constants

const (
	AppName            = "fieldlog"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/fieldlog/fieldlog.db"
	Version            = "v0.3.0"

	// EnvDBConnection holds a PostgreSQL connection string that may carry credentials
	EnvDBConnection = "FIELDLOG_DB_CONNECTION"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DateTimeFormat is how session start/end wall-clock timestamps are written and read
	DateTimeFormat = "2006-01-02 15:04"

	// StorageTimeFormat is how session timestamps are persisted (no zone suffix)
	StorageTimeFormat = "2006-01-02T15:04:05"

	// MonthFormat identifies a reporting month (YYYY-MM)
	MonthFormat = "2006-01"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "fieldlog-"
	BackupFileSuffix = ".db"

	// Log constants
	LogDirName    = "logs"
	LogFileName   = "fieldlog.log"
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28
)
