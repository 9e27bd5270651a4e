package main

import (
	"os"

	"sentiment-analysis-service/cmd/sentiment/cli"
)

func main() {
	if err := cli.NewSentimentCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
