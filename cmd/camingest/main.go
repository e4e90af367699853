package main

import (
	_ "time/tzdata"

	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/camlink/cmd/camingest/app"
)

func main() {
	app.NewApp().Run()
}
