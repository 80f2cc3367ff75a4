package main

import "github.com/LorenzoTomaz/ads-market-scraper/cmd"

func main() {
	cmd.Execute()
}
