// gensecret prints fresh signing secrets in .env form, one per token kind.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

const secretBytesLen = 32

func main() {
	for _, key := range []string{"ACCESS_SECRET_KEY", "REFRESH_SECRET_KEY"} {
		b := make([]byte, secretBytesLen)

		if _, err := rand.Read(b); err != nil {
			fmt.Fprintf(os.Stderr, "error while generating secret: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s=%s\n", key, hex.EncodeToString(b))
	}
}
