package main

import (
	"os"

	"github.com/niksmo/storefront/pkg/sigctx"
)

func main() {
	sigCtx, stop := sigctx.NotifyContext()

	s := newShop()
	err := s.execute(sigCtx, s.rootCmd())
	stop()
	if err != nil {
		os.Exit(1)
	}
}
