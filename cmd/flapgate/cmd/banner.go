package cmd

import (
	"fmt"
)

const banner = `
  ______ _              _____       _
 |  ____| |            / ____|     | |
 | |__  | | __ _ _ __ | |  __  __ _| |_ ___
 |  __| | |/ _` + "`" + ` | '_ \| | |_ |/ _` + "`" + ` | __/ _ \
 | |    | | (_| | |_) | |__| | (_| | ||  __/
 |_|    |_|\__,_| .__/ \_____|\__,_|\__\___|
                | |
                |_|
`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Score Admission Service - Version %s\x1b[0m\n\n", Version)
}
