package main

import (
	"github.com/recondesk/recon-backend/internal/cli"
)

func main() {
	cli.Execute()
}
