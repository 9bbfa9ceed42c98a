package main

import (
	"os"
	"testing"

	"github.com/odyssey-erp/odyssey-logistics/internal/app"
)

func TestMain(m *testing.M) {
	_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
	os.Exit(m.Run())
}

func TestMainReturnsInTestMode(t *testing.T) {
	if !app.InTestMode() {
		t.Fatal("expected test mode")
	}
	main()
}
