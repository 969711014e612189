//go:build !windows

package sound

import "log"

func chime() {
	log.Printf("chime")
}
