package main

import (
	"github.com/spf13/pflag"

	"f2v2f-service/app"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "config file path, defaults to CONFIG_PATH or configs/config.<CONFIG_ENV>.yaml")
	pflag.Parse()
	app.Run(*configPath)
}
