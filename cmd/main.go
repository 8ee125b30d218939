package main

import (
	"fmt"
	"os"
)

// @title Portfolio Gallery API
// @version 1.0
// @description Read-only JSON view of the gallery for the current browser session

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
