package config

import "os"

func IsDebug() bool {
	return os.Getenv("PIICHAT_DEBUG") == "1"
}
