package app

const (
	Name           = "sockgo"
	ConfigFilename = "config.json"
	DBFilename     = "prefs.db"
	LogFilename    = "sockgo.log"
)
