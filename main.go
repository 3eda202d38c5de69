package main

import (
	"os"

	_ "time/tzdata"

	"github.com/yeremiapane/restaurant-reservations/utils"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		utils.ErrorLogger.Errorf("Error executing command: %v", err)
		os.Exit(1)
	}
}
