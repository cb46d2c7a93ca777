// Command keygen prints fresh values for SESSION_SECRET and TOTP_ENCRYPTION_KEY.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/securekey/authcore/pkg/totp"
)

func main() {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
	key, err := totp.GenerateEncodedEncryptionKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}

	fmt.Printf("SESSION_SECRET=%s\n", hex.EncodeToString(secret))
	fmt.Printf("TOTP_ENCRYPTION_KEY=%s\n", key)
}
